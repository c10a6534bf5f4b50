package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/notifications"
	"storefront/internal/repository"
	"storefront/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// User-facing account messages.
const (
	MsgSignedIn        = "You have successfully signed in. Welcome!"
	MsgSignedUp        = "Your account has been created. Welcome!"
	MsgFormErrors      = "Please correct the errors in the form and try again."
	MsgSignedOut       = "You have signed out. Have a nice day!"
	MsgResetRequested  = "If an account with this email exists, we have sent instructions to reset the password."
	MsgPasswordChanged = "Your password has been changed. You can now sign in."
	MsgInvalidLink     = "The password reset link is invalid or has expired. Please request a new one."
	MsgBadCredentials  = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	MsgAccountInactive = "This account is inactive."
)

var signupMessages = validation.Messages{
	"username.required":     "The username is required.",
	"username.max":          "The username must not be longer than 255 characters.",
	"email.required":        "The email is required.",
	"email.email":           "The email must be in the format user@example.com.",
	"email.max":             "The email must not be longer than 255 characters.",
	"phone_number.required": "The phone number is required.",
	"first_name.required":   "The first name is required.",
	"first_name.max":        "The first name must not be longer than 150 characters.",
	"last_name.required":    "The last name is required.",
	"last_name.max":         "The last name must not be longer than 150 characters.",
	"middle_name.max":       "The middle name must not be longer than 150 characters.",
	"password1.required":    "The password is required.",
	"password2.required":    "The password confirmation is required.",
}

var resetMessages = validation.Messages{
	"email.required":         "The email is required.",
	"email.email":            "The email must be in the format user@example.com.",
	"email.max":              "The email must not be longer than 255 characters.",
	"new_password1.required": "The new password is required.",
	"new_password2.required": "The new password confirmation is required.",
}

type SignupInput struct {
	Username    string `json:"username" validate:"required,max=255"`
	Email       string `json:"email" validate:"required,email,max=255"`
	PhoneNumber string `json:"phone_number" validate:"required,ruphone"`
	FirstName   string `json:"first_name" validate:"required,max=150"`
	LastName    string `json:"last_name" validate:"required,max=150"`
	MiddleName  string `json:"middle_name" validate:"max=150"`
	Password1   string `json:"password1" validate:"required"`
	Password2   string `json:"password2" validate:"required"`
}

type SigninInput struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type PasswordResetInput struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type SetPasswordInput struct {
	UIDB64       string `json:"-"`
	Token        string `json:"-"`
	NewPassword1 string `json:"new_password1" validate:"required"`
	NewPassword2 string `json:"new_password2" validate:"required"`
}

// AuthResult is returned by sign up and sign in.
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
	Message   string       `json:"message"`
}

// AccountService implements sign up, sign in, sign out and password reset.
type AccountService struct {
	users   repository.UserRepository
	tokens  *TokenService
	mailer  notifications.Mailer
	siteURL string
	now     func() time.Time
}

func NewAccountService(users repository.UserRepository, tokens *TokenService, mailer notifications.Mailer, siteURL string) *AccountService {
	return &AccountService{
		users:   users,
		tokens:  tokens,
		mailer:  mailer,
		siteURL: strings.TrimRight(siteURL, "/"),
		now:     time.Now,
	}
}

// Signup validates the form, creates an active account and signs it in.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.MiddleName = strings.TrimSpace(in.MiddleName)

	fields := validation.Struct(in, signupMessages)
	if fields == nil {
		fields = map[string]string{}
	}
	if _, bad := fields["username"]; !bad {
		if err := validation.ValidateUsername(in.Username); err != nil {
			fields["username"] = err.Error()
		}
	}
	phone, phoneErr := validation.NormalizePhone(in.PhoneNumber)
	if _, bad := fields["phone_number"]; !bad && phoneErr != nil {
		fields["phone_number"] = phoneErr.Error()
	}
	if in.Password1 != "" && in.Password2 != "" {
		if in.Password1 != in.Password2 {
			fields["password2"] = validation.ErrPasswordMismatch.Error()
		} else if errs := validation.ValidatePassword(in.Password2, validation.PasswordContext{
			Username:  in.Username,
			Email:     in.Email,
			FirstName: in.FirstName,
			LastName:  in.LastName,
		}); len(errs) > 0 {
			fields["password2"] = validation.JoinPasswordErrors(errs)
		}
	}

	for _, check := range []struct{ field, value string }{
		{"username", in.Username},
		{"email", in.Email},
		{"phone_number", phone},
	} {
		if _, bad := fields[check.field]; bad || check.value == "" {
			continue
		}
		taken, err := s.users.Exists(ctx, check.field, check.value)
		if err != nil {
			return nil, err
		}
		if taken {
			fields[check.field] = takenMessage(check.field)
		}
	}
	if len(fields) > 0 {
		return nil, models.NewFieldsError(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password1), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:    in.Username,
		Email:       in.Email,
		PhoneNumber: phone,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		MiddleName:  in.MiddleName,
		Password:    string(hash),
		IsActive:    true,
	}
	// The store's unique indexes cover a race past the checks above.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(ctx, user, MsgSignedUp)
}

func takenMessage(field string) string {
	switch field {
	case "username":
		return "This username is already in use."
	case "email":
		return "This email address is already registered."
	default:
		return "This phone number is already registered."
	}
}

// Signin authenticates by username or email.
func (s *AccountService) Signin(ctx context.Context, in SigninInput) (*AuthResult, error) {
	if fields := validation.Struct(in, nil); fields != nil {
		return nil, models.NewFieldsError(fields)
	}

	user, err := s.users.GetByLogin(ctx, in.Login)
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return nil, &models.AppError{
			Code:    models.CodeUnauthorized,
			Message: MsgFormErrors,
			Fields:  map[string]string{"__all__": MsgBadCredentials},
		}
	}
	if !user.IsActive {
		return nil, &models.AppError{
			Code:    models.CodeUnauthorized,
			Message: MsgFormErrors,
			Fields:  map[string]string{"__all__": MsgAccountInactive},
		}
	}

	return s.issue(ctx, user, MsgSignedIn)
}

func (s *AccountService) issue(ctx context.Context, user *models.User, message string) (*AuthResult, error) {
	token, exp, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to record last login",
			slog.Uint64("user_id", uint64(user.ID)), slog.String("error", err.Error()))
	} else {
		user.LastLogin = &now
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: user, Message: message}, nil
}

// Signout revokes the presented access token.
func (s *AccountService) Signout(ctx context.Context, claims *AccessClaims) (string, error) {
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return "", err
	}
	return MsgSignedOut, nil
}

// Me returns the account the token was issued for.
func (s *AccountService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// RequestPasswordReset emails a reset link when an active account has the
// address. The answer is the same either way.
func (s *AccountService) RequestPasswordReset(ctx context.Context, in PasswordResetInput) (string, error) {
	in.Email = strings.TrimSpace(in.Email)
	if fields := validation.Struct(in, resetMessages); fields != nil {
		return "", models.NewFieldsError(fields)
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return "", err
	}
	if user == nil || !user.IsActive {
		middleware.Logger.InfoContext(ctx, "password reset requested for unknown address")
		return MsgResetRequested, nil
	}

	uidb64, token, err := s.tokens.IssueResetToken(user)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	msg, err := notifications.PasswordReset(user.Email, notifications.PasswordResetData{
		Name:      displayName(user),
		Link:      fmt.Sprintf("%s/password-reset/%s/%s", s.siteURL, uidb64, token),
		ExpiresIn: humanDuration(s.tokens.ResetTTL()),
	})
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		middleware.Logger.ErrorContext(ctx, "password reset email failed",
			slog.Uint64("user_id", uint64(user.ID)), slog.String("error", err.Error()))
	}
	return MsgResetRequested, nil
}

// ConfirmPasswordReset sets a new password when the link is still valid.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, in SetPasswordInput) (string, error) {
	id, err := DecodeUID(in.UIDB64)
	if err != nil {
		return "", models.NewInvalidLinkError(MsgInvalidLink)
	}
	user, err := s.users.GetByIDFresh(ctx, id)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return "", models.NewInvalidLinkError(MsgInvalidLink)
		}
		return "", err
	}
	if !user.IsActive || s.tokens.VerifyResetToken(in.UIDB64, in.Token, user) != nil {
		return "", models.NewInvalidLinkError(MsgInvalidLink)
	}

	fields := validation.Struct(in, resetMessages)
	if fields == nil {
		fields = map[string]string{}
	}
	if in.NewPassword1 != "" && in.NewPassword2 != "" {
		if in.NewPassword1 != in.NewPassword2 {
			fields["new_password2"] = validation.ErrPasswordMismatch.Error()
		} else if errs := validation.ValidatePassword(in.NewPassword2, validation.PasswordContext{
			Username:  user.Username,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		}); len(errs) > 0 {
			fields["new_password2"] = validation.JoinPasswordErrors(errs)
		}
	}
	if len(fields) > 0 {
		return "", models.NewFieldsError(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword1), bcrypt.DefaultCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return "", err
	}

	msg, err := notifications.PasswordChanged(user.Email, displayName(user))
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "password changed email failed",
			slog.Uint64("user_id", uint64(user.ID)), slog.String("error", err.Error()))
	}
	return MsgPasswordChanged, nil
}

func displayName(u *models.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

func humanDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}
