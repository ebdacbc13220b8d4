package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "woodshop/internal/errors"
	"woodshop/internal/models"
)

const entitySettings = "settings"

// protectedSettings cannot be deleted.
var protectedSettings = map[string]bool{
	models.SettingBackendURL: true,
}

// settingService handles key/value system configuration.
type settingService struct {
	db    *gorm.DB
	audit AuditServicer
}

// NewSettingService creates a new SettingServicer.
func NewSettingService(db *gorm.DB, audit AuditServicer) SettingServicer {
	return &settingService{db: db, audit: audit}
}

// ListSettings returns all settings ordered by key.
func (s *settingService) ListSettings() ([]models.Setting, error) {
	var settings []models.Setting
	if err := s.db.Order("setting_key ASC").Find(&settings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return settings, nil
}

// GetSetting retrieves a setting by key.
func (s *settingService) GetSetting(key string) (*models.Setting, error) {
	var setting models.Setting
	if err := s.db.Where("setting_key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSettingNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &setting, nil
}

// UpsertSetting creates or replaces a setting. backend_url must be an
// http(s) URL and is stored without a trailing slash.
func (s *settingService) UpsertSetting(actor Actor, key, value, description string) (*models.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "setting key is required")
	}

	value = strings.TrimSpace(value)
	if key == models.SettingBackendURL {
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "backend_url must start with http:// or https://")
		}
		value = strings.TrimRight(value, "/")
	}

	var updatedBy *uint
	if actor.UserID != 0 {
		id := actor.UserID
		updatedBy = &id
	}

	existing, err := s.GetSetting(key)
	if err != nil && !errors.Is(err, apperrors.ErrSettingNotFound) {
		return nil, err
	}

	if existing == nil {
		setting := &models.Setting{Key: key, Value: value, Description: description, UpdatedByID: updatedBy}
		if err := s.db.Create(setting).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		s.audit.Record(RecordInput{
			EntityType: entitySettings,
			EntityID:   setting.ID,
			Operation:  models.OperationCreate,
			Actor:      actor,
			After:      Snapshot(setting),
		})
		return setting, nil
	}

	before := Snapshot(existing)
	existing.Value = value
	if description != "" {
		existing.Description = description
	}
	existing.UpdatedByID = updatedBy
	if err := s.db.Save(existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(RecordInput{
		EntityType: entitySettings,
		EntityID:   existing.ID,
		Operation:  models.OperationUpdate,
		Actor:      actor,
		Before:     before,
		After:      Snapshot(existing),
	})
	return existing, nil
}

// DeleteSetting removes a setting unless it is protected.
func (s *settingService) DeleteSetting(actor Actor, key string) error {
	if protectedSettings[key] {
		return apperrors.ErrSettingProtected
	}

	setting, err := s.GetSetting(key)
	if err != nil {
		return err
	}
	if err := s.db.Unscoped().Delete(setting).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(RecordInput{
		EntityType: entitySettings,
		EntityID:   setting.ID,
		Operation:  models.OperationDelete,
		Actor:      actor,
		Before:     Snapshot(setting),
	})
	return nil
}

// BackendURL returns the configured backend_url or an empty string.
func (s *settingService) BackendURL() (string, error) {
	setting, err := s.GetSetting(models.SettingBackendURL)
	if err != nil {
		if errors.Is(err, apperrors.ErrSettingNotFound) {
			return "", nil
		}
		return "", err
	}
	return setting.Value, nil
}
