package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TokenIssuer   = "storefront-api"
	TokenAudience = "storefront-client"

	AccessTokenTTL        = 7 * 24 * time.Hour
	DefaultResetTokenTTL  = time.Hour
	passwordResetType     = "password_reset"
	revokedTokenKeyPrefix = "blacklist:"
)

var (
	errTokenSecret  = errors.New("JWT secret not configured")
	errInvalidToken = models.NewUnauthorizedError("Invalid or expired token")
	errRevokedToken = models.NewUnauthorizedError("Token has been revoked")
)

// AccessClaims is the verified content of an access token.
type AccessClaims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

// TokenService issues and verifies access tokens and password reset tokens.
// Revocation needs Redis; without it revoked tokens stay valid until expiry.
type TokenService struct {
	secret   []byte
	redis    *redis.Client
	resetTTL time.Duration
	now      func() time.Time
}

func NewTokenService(secret string, rdb *redis.Client, resetTTL time.Duration) *TokenService {
	if resetTTL <= 0 {
		resetTTL = DefaultResetTokenTTL
	}
	return &TokenService{
		secret:   []byte(secret),
		redis:    rdb,
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

// ResetTTL is how long a password reset link stays valid.
func (s *TokenService) ResetTTL() time.Duration {
	return s.resetTTL
}

// IssueAccessToken signs a 7-day access token for user.
func (s *TokenService) IssueAccessToken(user *models.User) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errTokenSecret
	}

	now := s.now()
	exp := now.Add(AccessTokenTTL)
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"iss":      TokenIssuer,
		"aud":      TokenAudience,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// ParseAccessToken verifies signature, issuer, audience and expiry, then
// checks the revocation list.
func (s *TokenService) ParseAccessToken(ctx context.Context, tokenString string) (*AccessClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if t, _ := claims["type"].(string); t != "" {
		return nil, errInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, errInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, errInvalidToken
	}

	out := &AccessClaims{UserID: uint(userID)}
	out.JTI, _ = claims["jti"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}

	if out.JTI != "" && s.redis != nil {
		n, err := s.redis.Exists(ctx, revokedTokenKeyPrefix+out.JTI).Result()
		if err == nil && n > 0 {
			return nil, errRevokedToken
		}
	}
	return out, nil
}

// Revoke blacklists the token's jti for the rest of its lifetime.
func (s *TokenService) Revoke(ctx context.Context, claims *AccessClaims) error {
	if s.redis == nil || claims == nil || claims.JTI == "" {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, revokedTokenKeyPrefix+claims.JTI, "1", ttl).Err(); err != nil {
		return models.NewInternalError(fmt.Errorf("revoke token: %w", err))
	}
	return nil
}

// IssueResetToken returns the uidb64 and token for a password reset link.
// The token embeds a fingerprint of the current password hash, so it stops
// working as soon as the password changes.
func (s *TokenService) IssueResetToken(user *models.User) (uidb64, token string, err error) {
	if len(s.secret) == 0 {
		return "", "", errTokenSecret
	}
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(user.ID), 10),
		"type": passwordResetType,
		"fp":   passwordFingerprint(user.Password),
		"iss":  TokenIssuer,
		"aud":  TokenAudience,
		"exp":  now.Add(s.resetTTL).Unix(),
		"iat":  now.Unix(),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return EncodeUID(user.ID), token, nil
}

// VerifyResetToken checks token against uidb64 and the user's current
// password hash. user must be the account uidb64 decodes to.
func (s *TokenService) VerifyResetToken(uidb64, token string, user *models.User) error {
	id, err := DecodeUID(uidb64)
	if err != nil || user == nil || user.ID != id {
		return errInvalidToken
	}
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	if t, _ := claims["type"].(string); t != passwordResetType {
		return errInvalidToken
	}
	if sub, _ := claims["sub"].(string); sub != strconv.FormatUint(uint64(id), 10) {
		return errInvalidToken
	}
	if fp, _ := claims["fp"].(string); fp != passwordFingerprint(user.Password) {
		return errInvalidToken
	}
	return nil
}

func (s *TokenService) parse(tokenString string) (jwt.MapClaims, error) {
	if len(s.secret) == 0 {
		return nil, errTokenSecret
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}
	return claims, nil
}

// EncodeUID is the base64url form of a user id used in reset links.
func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(uidb64 string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uidb64)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid uid %q", uidb64)
	}
	return uint(id), nil
}

func passwordFingerprint(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}
