package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"woodshop/internal/auth"
	apperrors "woodshop/internal/errors"
	"woodshop/internal/logger"
	"woodshop/internal/metrics"
	"woodshop/internal/middleware"
	"woodshop/internal/models"
	"woodshop/internal/pagination"
	"woodshop/internal/services"
)

// TokenIssuer signs access tokens for an identity.
type TokenIssuer interface {
	Issue(user *models.User) (string, *auth.Claims, error)
}

// AuthHandler handles authentication and identity administration requests.
type AuthHandler struct {
	userService    services.UserServicer
	sessionService services.SessionServicer
	tokens         TokenIssuer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService services.UserServicer, sessionService services.SessionServicer, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{userService: userService, sessionService: sessionService, tokens: tokens}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username string      `json:"username" binding:"required,min=3,max=80"`
	Email    string      `json:"email" binding:"required,email,max=120"`
	Password string      `json:"password" binding:"required,min=6,max=128"`
	Role     models.Role `json:"role" binding:"omitempty,role"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest represents an administrator's edit of an identity.
type UpdateUserRequest struct {
	Username *string      `json:"username" binding:"omitempty,min=3,max=80"`
	Email    *string      `json:"email" binding:"omitempty,email,max=120"`
	Password *string      `json:"password" binding:"omitempty,min=6,max=128"`
	Role     *models.Role `json:"role" binding:"omitempty,role"`
	IsActive *bool        `json:"is_active"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token       string          `json:"token"`
	ExpiresAt   time.Time       `json:"expires_at"`
	User        models.User     `json:"user"`
	Permissions map[string]bool `json:"permissions"`
}

// MeResponse describes the caller.
type MeResponse struct {
	User        models.User     `json:"user"`
	Permissions map[string]bool `json:"permissions"`
}

// Register handles identity registration. Anonymous callers may only create
// visitors, except for the very first identity. Other roles require an
// administrator bearer token.
// @Summary     Register a new user
// @Description Create an identity. The role defaults to visitor.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} models.User "User created"
// @Failure     400 {object} ErrorResponse "Invalid input or duplicate username/email"
// @Failure     401 {object} ErrorResponse "Invalid bearer token"
// @Failure     403 {object} ErrorResponse "Role requires an administrator"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Role != "" && req.Role != models.RoleVisitor {
		if role, ok := middleware.RoleFrom(c); !ok || role != models.RoleAdministrator {
			count, err := h.userService.CountUsers()
			if err != nil {
				respondWithError(c, err)
				return
			}
			if count > 0 {
				respondWithError(c, apperrors.WithMessage(apperrors.ErrForbidden, "Only administrators can assign this role"))
				return
			}
		}
	}

	user, err := h.userService.CreateUser(c.Request.Context(), actorFrom(c), services.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate with username and password and open a session
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} LoginResponse "Token, identity and permissions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials or inactive account"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.AttemptLogin(req.Username, req.Password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		respondWithError(c, err)
		return
	}

	token, claims, err := h.tokens.Issue(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	expiresAt := claims.ExpiresAt.Time

	if _, err := h.sessionService.Open(c.Request.Context(), user.ID, token, expiresAt, c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondWithError(c, err)
		return
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	logger.Get().Infow("user logged in", "user_id", user.ID, "client_ip", c.ClientIP())

	c.JSON(http.StatusOK, LoginResponse{
		Token:       token,
		ExpiresAt:   expiresAt,
		User:        *user,
		Permissions: auth.Permissions(user.Role),
	})
}

// Logout revokes the session of the presented token.
// @Summary     Logout
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} MessageResponse "Logged out"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessionService.Revoke(c.Request.Context(), middleware.TokenFrom(c)); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
}

// Me returns the caller's identity and permission map.
// @Summary     Current user
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} MeResponse "Current identity"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, MeResponse{User: *user, Permissions: auth.Permissions(user.Role)})
}

// Sessions lists the caller's active sessions.
// @Summary     Active sessions
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Session "Active sessions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/sessions [get]
func (h *AuthHandler) Sessions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	sessions, err := h.sessionService.ListActive(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// ListUsers returns a page of identities.
// @Summary     List users
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.User] "Users"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /auth/users [get]
func (h *AuthHandler) ListUsers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	users, err := h.userService.ListUsers(page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// UpdateUser edits an identity.
// @Summary     Update user
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int               true "User ID"
// @Param       request body UpdateUserRequest true "Changes"
// @Success     200 {object} models.User "Updated user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /auth/users/{id} [put]
func (h *AuthHandler) UpdateUser(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), actorFrom(c), id, services.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser revokes every session of an identity and deletes it.
// @Summary     Delete user
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "User ID"
// @Success     200 {object} MessageResponse "Deleted"
// @Failure     400 {object} ErrorResponse "Cannot delete yourself"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /auth/users/{id} [delete]
func (h *AuthHandler) DeleteUser(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.userService.DeleteUser(c.Request.Context(), actorFrom(c), id); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "User deleted"})
}
