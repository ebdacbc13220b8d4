package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "woodshop/internal/errors"
	"woodshop/internal/models"
)

const entityCarpenters = "carpenters"

// carpenterService handles carpenter-related business logic.
type carpenterService struct {
	db    *gorm.DB
	audit AuditServicer
}

// NewCarpenterService creates a new CarpenterServicer.
func NewCarpenterService(db *gorm.DB, audit AuditServicer) CarpenterServicer {
	return &carpenterService{db: db, audit: audit}
}

// CreateCarpenter adds a carpenter. An inactive carpenter with the same name
// is reactivated and updated instead of creating a duplicate.
func (s *carpenterService) CreateCarpenter(actor Actor, input CarpenterInput) (*models.Carpenter, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "carpenter name is required")
	}
	name := strings.TrimSpace(*input.Name)

	var existing models.Carpenter
	err := s.db.Where("LOWER(name) = ?", strings.ToLower(name)).First(&existing).Error
	switch {
	case err == nil && existing.IsActive:
		return nil, apperrors.ErrDuplicateCarpenter
	case err == nil:
		return s.reactivate(actor, &existing, input)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	carpenter := &models.Carpenter{Name: name, IsActive: true}
	applyCarpenterInput(carpenter, input)
	carpenter.IsActive = true

	if err := s.db.Create(carpenter).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(RecordInput{
		EntityType: entityCarpenters,
		EntityID:   carpenter.ID,
		Operation:  models.OperationCreate,
		Actor:      actor,
		After:      Snapshot(carpenter),
	})
	return carpenter, nil
}

func (s *carpenterService) reactivate(actor Actor, carpenter *models.Carpenter, input CarpenterInput) (*models.Carpenter, error) {
	before := Snapshot(carpenter)
	applyCarpenterInput(carpenter, input)
	carpenter.IsActive = true

	if err := s.db.Save(carpenter).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(RecordInput{
		EntityType: entityCarpenters,
		EntityID:   carpenter.ID,
		Operation:  models.OperationUpdate,
		Actor:      actor,
		Before:     before,
		After:      Snapshot(carpenter),
		Note:       "reactivated",
	})
	return carpenter, nil
}

func applyCarpenterInput(carpenter *models.Carpenter, input CarpenterInput) {
	if input.Email != nil {
		carpenter.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Phone != nil {
		carpenter.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Specialty != nil {
		carpenter.Specialty = strings.TrimSpace(*input.Specialty)
	}
	if input.IsActive != nil {
		carpenter.IsActive = *input.IsActive
	}
}

// GetCarpenter retrieves a carpenter by ID.
func (s *carpenterService) GetCarpenter(id uint) (*models.Carpenter, error) {
	var carpenter models.Carpenter
	if err := s.db.First(&carpenter, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCarpenterNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &carpenter, nil
}

// ListCarpenters returns carpenters ordered by name with per-status order counts.
func (s *carpenterService) ListCarpenters(activeOnly bool) ([]CarpenterWithStats, error) {
	query := s.db.Model(&models.Carpenter{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var carpenters []models.Carpenter
	if err := query.Order("name ASC").Find(&carpenters).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rows []struct {
		CarpenterID uint
		Status      models.OrderStatus
		Count       int64
	}
	if err := s.db.Model(&models.Order{}).
		Select("carpenter_id, status, COUNT(*) AS count").
		Where("carpenter_id IS NOT NULL").
		Group("carpenter_id, status").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	counts := make(map[uint]map[string]int64)
	for _, row := range rows {
		if counts[row.CarpenterID] == nil {
			counts[row.CarpenterID] = make(map[string]int64)
		}
		counts[row.CarpenterID][string(row.Status)] = row.Count
	}

	result := make([]CarpenterWithStats, 0, len(carpenters))
	for _, c := range carpenters {
		stats := CarpenterWithStats{Carpenter: c, OrderCounts: make(map[string]int64, len(models.AllOrderStatuses))}
		for _, status := range models.AllOrderStatuses {
			n := counts[c.ID][string(status)]
			stats.OrderCounts[string(status)] = n
			stats.TotalOrders += n
		}
		result = append(result, stats)
	}
	return result, nil
}

// UpdateCarpenter applies changes. Deactivating a carpenter unassigns their
// open orders in the same transaction.
func (s *carpenterService) UpdateCarpenter(actor Actor, id uint, input CarpenterInput) (*models.Carpenter, error) {
	carpenter, err := s.GetCarpenter(id)
	if err != nil {
		return nil, err
	}
	before := Snapshot(carpenter)

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "carpenter name cannot be empty")
		}
		var count int64
		if err := s.db.Model(&models.Carpenter{}).
			Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), carpenter.ID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrDuplicateCarpenter
		}
		carpenter.Name = name
	}

	wasActive := carpenter.IsActive
	applyCarpenterInput(carpenter, input)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(carpenter).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if wasActive && !carpenter.IsActive {
			return unassignOpenOrders(tx, carpenter.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(RecordInput{
		EntityType: entityCarpenters,
		EntityID:   carpenter.ID,
		Operation:  models.OperationUpdate,
		Actor:      actor,
		Before:     before,
		After:      Snapshot(carpenter),
	})
	return carpenter, nil
}

// DeleteCarpenter deactivates the carpenter and unassigns their open orders.
// Rows are kept so past orders still resolve their carpenter.
func (s *carpenterService) DeleteCarpenter(actor Actor, id uint) error {
	carpenter, err := s.GetCarpenter(id)
	if err != nil {
		return err
	}
	before := Snapshot(carpenter)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(carpenter).Update("is_active", false).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return unassignOpenOrders(tx, carpenter.ID)
	})
	if err != nil {
		return err
	}
	carpenter.IsActive = false

	s.audit.Record(RecordInput{
		EntityType: entityCarpenters,
		EntityID:   carpenter.ID,
		Operation:  models.OperationDelete,
		Actor:      actor,
		Before:     before,
		Note:       "deactivated",
	})
	return nil
}

func unassignOpenOrders(tx *gorm.DB, carpenterID uint) error {
	if err := tx.Model(&models.Order{}).
		Where("carpenter_id = ? AND status <> ?", carpenterID, models.StatusCompleted).
		Update("carpenter_id", nil).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
