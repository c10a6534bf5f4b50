package server

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gofiber/fiber/v2"
)

// MessageResponse carries the notice shown to the user after an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// Signup handles POST /api/accounts/signup
// @Summary Sign up
// @Description Creates an account and signs it in
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body service.SignupInput true "Sign up form"
// @Success 201 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Router /accounts/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var in service.SignupInput
	if err := bindJSON(c, &in); err != nil {
		return nil
	}
	res, err := s.accounts.Signup(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// Signin handles POST /api/accounts/signin
// @Summary Sign in
// @Description Authenticates by username or email and returns a bearer token
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body service.SigninInput true "Credentials"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /accounts/signin [post]
func (s *Server) Signin(c *fiber.Ctx) error {
	var in service.SigninInput
	if err := bindJSON(c, &in); err != nil {
		return nil
	}
	res, err := s.accounts.Signin(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(res)
}

// Signout handles POST /api/accounts/signout
// @Summary Sign out
// @Description Revokes the bearer token
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /accounts/signout [post]
func (s *Server) Signout(c *fiber.Ctx) error {
	claims, ok := accessClaims(c)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}
	msg, err := s.accounts.Signout(c.UserContext(), claims)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(MessageResponse{Message: msg})
}

// GetMe handles GET /api/accounts/me
// @Summary Current user
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /accounts/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	user, err := s.accounts.Me(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// RequestPasswordReset handles POST /api/accounts/password-reset
// @Summary Request a password reset email
// @Description Answers the same way whether or not the address is registered
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body service.PasswordResetInput true "Email"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /accounts/password-reset [post]
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	var in service.PasswordResetInput
	if err := bindJSON(c, &in); err != nil {
		return nil
	}
	msg, err := s.accounts.RequestPasswordReset(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(MessageResponse{Message: msg})
}

// ConfirmPasswordReset handles POST /api/accounts/password-reset/:uidb64/:token
// @Summary Set a new password
// @Tags accounts
// @Accept json
// @Produce json
// @Param uidb64 path string true "Encoded user id from the link"
// @Param token path string true "Reset token from the link"
// @Param request body service.SetPasswordInput true "New password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /accounts/password-reset/{uidb64}/{token} [post]
func (s *Server) ConfirmPasswordReset(c *fiber.Ctx) error {
	var in service.SetPasswordInput
	if err := bindJSON(c, &in); err != nil {
		return nil
	}
	in.UIDB64 = c.Params("uidb64")
	in.Token = c.Params("token")

	msg, err := s.accounts.ConfirmPasswordReset(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(MessageResponse{Message: msg})
}
