package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "woodshop/internal/errors"
	"woodshop/internal/models"
	"woodshop/internal/pagination"
)

const entityUsers = "users"

// userService handles identity-related business logic.
type userService struct {
	db         *gorm.DB
	sessions   SessionServicer
	audit      AuditServicer
	bcryptCost int
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, sessions SessionServicer, audit AuditServicer) UserServicer {
	return &userService{db: db, sessions: sessions, audit: audit, bcryptCost: bcrypt.DefaultCost}
}

// CreateUser registers a new identity. The role defaults to visitor.
func (s *userService) CreateUser(ctx context.Context, actor Actor, input CreateUserInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" || email == "" || input.Password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username, email and password are required")
	}

	role := input.Role
	if role == "" {
		role = models.RoleVisitor
	}
	if !role.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid role")
	}

	if err := s.checkUnique(username, email, 0); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		Role:     role,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Self-registration is attributed to the new identity.
	if actor.UserID == 0 {
		actor.UserID = user.ID
	}
	s.audit.Record(RecordInput{
		EntityType: entityUsers,
		EntityID:   user.ID,
		Operation:  models.OperationCreate,
		Actor:      actor,
		After:      Snapshot(user),
	})

	return user, nil
}

// checkUnique rejects usernames or emails already taken by another identity,
// soft-deleted ones included.
func (s *userService) checkUnique(username, email string, excludeID uint) error {
	if username != "" {
		var count int64
		if err := s.db.Unscoped().Model(&models.User{}).
			Where("username = ? AND id <> ?", username, excludeID).
			Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrDuplicateUsername
		}
	}
	if email != "" {
		var count int64
		if err := s.db.Unscoped().Model(&models.User{}).
			Where("email = ? AND id <> ?", email, excludeID).
			Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrDuplicateEmail
		}
	}
	return nil
}

// AttemptLogin verifies credentials. Unknown users and wrong passwords both
// yield ErrInvalidCredentials; a correct password on an inactive identity
// yields ErrAccountInactive.
func (s *userService) AttemptLogin(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperrors.ErrAccountInactive
	}

	now := time.Now().UTC()
	if err := s.db.Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.LastLoginAt = &now

	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *userService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// ListUsers returns a page of identities ordered by ID.
func (s *userService) ListUsers(page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	page.Defaults()

	base := s.db.Model(&models.User{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var users []models.User
	if err := base.Scopes(pagination.Paginate(page)).Order("id ASC").Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(users, page.Page, page.PageSize, totalItems)
	return &resp, nil
}

// UpdateUser applies an administrator's profile edit. Deactivating an
// identity revokes all of its sessions.
func (s *userService) UpdateUser(ctx context.Context, actor Actor, id uint, input UpdateUserInput) (*models.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	before := Snapshot(user)

	var username, email string
	if input.Username != nil {
		username = strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username cannot be empty")
		}
	}
	if input.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email cannot be empty")
		}
	}
	if err := s.checkUnique(username, email, user.ID); err != nil {
		return nil, err
	}
	if username != "" {
		user.Username = username
	}
	if email != "" {
		user.Email = email
	}

	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid role")
		}
		user.Role = *input.Role
	}

	if input.Password != nil {
		if *input.Password == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "password cannot be empty")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), s.bcryptCost)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		user.Password = string(hashed)
	}

	deactivated := false
	if input.IsActive != nil {
		deactivated = user.IsActive && !*input.IsActive
		user.IsActive = *input.IsActive
	}

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if deactivated {
		if _, err := s.sessions.RevokeAll(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	note := ""
	if input.Password != nil {
		note = "password changed"
	}
	s.audit.Record(RecordInput{
		EntityType: entityUsers,
		EntityID:   user.ID,
		Operation:  models.OperationUpdate,
		Actor:      actor,
		Before:     before,
		After:      Snapshot(user),
		Note:       note,
	})

	return user, nil
}

// DeleteUser revokes every session of the target and then soft-deletes it.
// An identity can never delete itself.
func (s *userService) DeleteUser(ctx context.Context, actor Actor, id uint) error {
	if id == actor.UserID {
		return apperrors.ErrCannotDeleteSelf
	}

	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}

	if _, err := s.sessions.RevokeAll(ctx, user.ID); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(user).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(RecordInput{
		EntityType: entityUsers,
		EntityID:   user.ID,
		Operation:  models.OperationDelete,
		Actor:      actor,
		Before:     Snapshot(user),
	})
	return nil
}

// CountUsers returns the number of identities that are not deleted.
func (s *userService) CountUsers() (int64, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

// EnsureAdmin creates the default administrator unless an identity with the
// same username already exists. The boolean reports whether one was created.
func (s *userService) EnsureAdmin(username, email, password string) (*models.User, bool, error) {
	var existing models.User
	err := s.db.Unscoped().Where("username = ?", strings.TrimSpace(username)).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user, err := s.CreateUser(context.Background(), Actor{}, CreateUserInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     models.RoleAdministrator,
	})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
