package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Identity is the authenticated user as reported by the auth provider
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// Name returns the display name, falling back to the email
func (i *Identity) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Email
}

// Tokens are the credentials issued on sign-in, sign-up or refresh
type Tokens struct {
	ExpiresAt    time.Time
	IDToken      string
	RefreshToken string
}

// Expired reports whether the ID token has passed its expiry
func (t *Tokens) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// Result pairs the signed-in identity with its tokens
type Result struct {
	Identity Identity
	Tokens   Tokens
}

// Provider is the remote auth provider
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Result, error)
	SignUp(ctx context.Context, email, password string) (*Result, error)
	SendPasswordReset(ctx context.Context, email string) error

	// Refresh exchanges a refresh token for a new ID token.
	// The returned Result carries the UID only; claims come from verifying the new ID token.
	Refresh(ctx context.Context, refreshToken string) (*Result, error)
}

// Provider error codes surfaced by the Identity Toolkit API
const (
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeInvalidCredentials = "INVALID_LOGIN_CREDENTIALS"
	CodeEmailNotFound      = "EMAIL_NOT_FOUND"
	CodeInvalidPassword    = "INVALID_PASSWORD"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeInvalidEmail       = "INVALID_EMAIL"
	CodeUserDisabled       = "USER_DISABLED"
	CodeTooManyAttempts    = "TOO_MANY_ATTEMPTS_TRY_LATER"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidRefresh     = "INVALID_REFRESH_TOKEN"
)

var (
	// ErrTokenExpired is returned when an ID token is past its expiry
	ErrTokenExpired = errors.New("id token expired")

	// ErrInvalidToken is returned when an ID token fails verification
	ErrInvalidToken = errors.New("invalid id token")
)

// AuthError is returned when the auth provider rejects a request.
// Code is the provider's error code with any detail suffix removed.
type AuthError struct {
	Err        error
	Code       string
	Detail     string
	StatusCode int
}

func (e *AuthError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("auth provider error %s: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("auth provider error %s", e.Code)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError checks if err is an auth provider failure
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// HasCode reports whether err is an AuthError with the given code
func HasCode(err error, code string) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Code == code
}
