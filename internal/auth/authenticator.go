package auth

import (
	"context"
	"errors"
	"net/http"

	apperrors "woodshop/internal/errors"
	"woodshop/internal/models"
)

// AuthReason names the stage at which authentication failed.
type AuthReason string

const (
	ReasonInvalidToken AuthReason = "invalid_token"
	ReasonExpired      AuthReason = "expired"
	ReasonRevoked      AuthReason = "revoked"
	ReasonInactiveUser AuthReason = "inactive_user"
	// ReasonUnavailable means the session or identity store could not be
	// read. It is the only reason that is not reported to clients as 401.
	ReasonUnavailable AuthReason = "store_unavailable"
)

// AuthError is returned for every authentication failure. Reason is meant
// for logs and metrics only; clients always see the same response.
type AuthError struct {
	Reason AuthReason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return "authentication failed: " + string(e.Reason) + ": " + e.Err.Error()
	}
	return "authentication failed: " + string(e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// SessionChecker reports whether the session behind a token still accepts it.
type SessionChecker interface {
	IsValid(ctx context.Context, token string) (bool, error)
}

// IdentityLoader loads an identity by id.
type IdentityLoader interface {
	GetUserByID(id uint) (*models.User, error)
}

// Authenticator runs token verification, session lookup, identity load and
// the active check, in that order.
type Authenticator struct {
	tokens   *TokenService
	sessions SessionChecker
	users    IdentityLoader
}

// NewAuthenticator wires the three stages of the authentication chain.
func NewAuthenticator(tokens *TokenService, sessions SessionChecker, users IdentityLoader) *Authenticator {
	return &Authenticator{tokens: tokens, sessions: sessions, users: users}
}

// Authenticate returns the identity that owns token or an AuthError.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*models.User, *AuthError) {
	if token == "" {
		return nil, &AuthError{Reason: ReasonInvalidToken}
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, &AuthError{Reason: ReasonExpired}
		}
		return nil, &AuthError{Reason: ReasonInvalidToken}
	}

	valid, err := a.sessions.IsValid(ctx, token)
	if err != nil {
		return nil, &AuthError{Reason: ReasonUnavailable, Err: err}
	}
	if !valid {
		return nil, &AuthError{Reason: ReasonRevoked}
	}

	user, err := a.users.GetUserByID(claims.UserID)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.StatusCode == http.StatusInternalServerError {
			return nil, &AuthError{Reason: ReasonUnavailable, Err: err}
		}
		return nil, &AuthError{Reason: ReasonInactiveUser, Err: err}
	}
	if !user.IsActive {
		return nil, &AuthError{Reason: ReasonInactiveUser}
	}
	return user, nil
}
