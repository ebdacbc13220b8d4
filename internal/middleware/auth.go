package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"woodshop/internal/auth"
	apperrors "woodshop/internal/errors"
	"woodshop/internal/logger"
	"woodshop/internal/metrics"
	"woodshop/internal/models"
)

// Context keys set by the authentication middleware.
const (
	ContextUserID = "userID"
	ContextUser   = "user"
	ContextRole   = "role"
	ContextToken  = "token"
)

// Authenticator resolves a bearer token into an active identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *auth.AuthError)
}

// Authenticate rejects requests without a valid bearer token with a uniform
// 401 and stores the identity in the context otherwise.
func Authenticate(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			rejectUnauthenticated(c, auth.ReasonInvalidToken, nil)
			return
		}

		user, authErr := authn.Authenticate(c.Request.Context(), token)
		if authErr != nil {
			rejectUnauthenticated(c, authErr.Reason, authErr)
			return
		}

		setIdentity(c, user, token)
		c.Next()
	}
}

// OptionalAuth authenticates the request when an Authorization header is
// present and lets anonymous requests through. A header that fails
// authentication is still rejected.
func OptionalAuth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		Authenticate(authn)(c)
	}
}

// RequireCapability aborts with 403 unless the caller's role grants capability.
// It must run after Authenticate.
func RequireCapability(capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFrom(c)
		if !ok {
			abortWithAppError(c, apperrors.ErrUnauthorized)
			return
		}
		if !auth.Authorize(role, capability) {
			abortWithAppError(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireRole aborts with 403 unless the caller has one of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFrom(c)
		if !ok {
			abortWithAppError(c, apperrors.ErrUnauthorized)
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		abortWithAppError(c, apperrors.ErrForbidden)
	}
}

// UserFrom returns the authenticated identity, if any.
func UserFrom(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// RoleFrom returns the authenticated role, if any.
func RoleFrom(c *gin.Context) (models.Role, bool) {
	v, ok := c.Get(ContextRole)
	if !ok {
		return "", false
	}
	role, ok := v.(models.Role)
	return role, ok
}

// TokenFrom returns the raw bearer token of an authenticated request.
func TokenFrom(c *gin.Context) string {
	return c.GetString(ContextToken)
}

func setIdentity(c *gin.Context, user *models.User, token string) {
	c.Set(ContextUserID, user.ID)
	c.Set(ContextUser, user)
	c.Set(ContextRole, user.Role)
	c.Set(ContextToken, token)
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func rejectUnauthenticated(c *gin.Context, reason auth.AuthReason, err error) {
	metrics.AuthFailuresTotal.WithLabelValues(string(reason)).Inc()
	if reason == auth.ReasonUnavailable {
		logger.Get().Errorw("authentication store unavailable",
			"error", err, "path", c.Request.URL.Path, "request_id", RequestID(c))
		abortWithAppError(c, apperrors.ErrInternalServer)
		return
	}
	fields := []interface{}{"reason", reason, "path", c.Request.URL.Path, "client_ip", c.ClientIP()}
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	logger.Get().Infow("authentication rejected", fields...)
	abortWithAppError(c, apperrors.ErrUnauthorized)
}

func abortWithAppError(c *gin.Context, appErr *apperrors.AppError) {
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
