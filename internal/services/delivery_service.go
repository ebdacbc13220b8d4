package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "woodshop/internal/errors"
	"woodshop/internal/models"
	"woodshop/internal/pagination"
)

const entityDeliveries = "deliveries"

// deliveryService handles delivery scheduling.
type deliveryService struct {
	db    *gorm.DB
	audit AuditServicer
}

// NewDeliveryService creates a new DeliveryServicer.
func NewDeliveryService(db *gorm.DB, audit AuditServicer) DeliveryServicer {
	return &deliveryService{db: db, audit: audit}
}

// CreateDelivery schedules a delivery for an existing order.
func (s *deliveryService) CreateDelivery(actor Actor, input DeliveryInput) (*models.Delivery, error) {
	if input.OrderID == nil || input.DeliveryDate == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "order and delivery date are required")
	}
	if err := s.checkOrder(*input.OrderID); err != nil {
		return nil, err
	}

	delivery := &models.Delivery{
		OrderID:      *input.OrderID,
		DeliveryDate: *input.DeliveryDate,
		Status:       models.DeliveryPending,
	}
	if err := applyDeliveryInput(delivery, input); err != nil {
		return nil, err
	}

	if err := s.db.Create(delivery).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(RecordInput{
		EntityType: entityDeliveries,
		EntityID:   delivery.ID,
		Operation:  models.OperationCreate,
		Actor:      actor,
		After:      Snapshot(delivery),
	})
	return delivery, nil
}

func (s *deliveryService) checkOrder(orderID uint) error {
	var count int64
	if err := s.db.Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrOrderNotFound
	}
	return nil
}

func applyDeliveryInput(delivery *models.Delivery, input DeliveryInput) error {
	if input.DeliveryDate != nil {
		delivery.DeliveryDate = *input.DeliveryDate
	}
	if input.Status != nil {
		switch *input.Status {
		case models.DeliveryPending, models.DeliveryScheduled, models.DeliveryDelivered, models.DeliveryCancelled:
			delivery.Status = *input.Status
		default:
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid delivery status")
		}
	}
	if input.Address != nil {
		delivery.Address = strings.TrimSpace(*input.Address)
	}
	if input.Notes != nil {
		delivery.Notes = *input.Notes
	}
	return nil
}

// GetDelivery retrieves a delivery with its order.
func (s *deliveryService) GetDelivery(id uint) (*models.Delivery, error) {
	var delivery models.Delivery
	if err := s.db.Preload("Order").First(&delivery, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDeliveryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &delivery, nil
}

// ListDeliveries returns filtered deliveries ordered by delivery date.
func (s *deliveryService) ListDeliveries(filter DeliveryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Delivery], error) {
	page.Defaults()

	base := s.db.Model(&models.Delivery{})
	if filter.OrderID != nil {
		base = base.Where("order_id = ?", *filter.OrderID)
	}
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		base = base.Where("delivery_date >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		base = base.Where("delivery_date <= ?", filter.To.UTC())
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var deliveries []models.Delivery
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Order").
		Order("delivery_date ASC, id ASC").
		Find(&deliveries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(deliveries, page.Page, page.PageSize, totalItems)
	return &resp, nil
}

// UpdateDelivery applies changes to a delivery.
func (s *deliveryService) UpdateDelivery(actor Actor, id uint, input DeliveryInput) (*models.Delivery, error) {
	delivery, err := s.GetDelivery(id)
	if err != nil {
		return nil, err
	}
	delivery.Order = nil
	before := Snapshot(delivery)

	if input.OrderID != nil && *input.OrderID != delivery.OrderID {
		if err := s.checkOrder(*input.OrderID); err != nil {
			return nil, err
		}
		delivery.OrderID = *input.OrderID
	}
	if err := applyDeliveryInput(delivery, input); err != nil {
		return nil, err
	}

	if err := s.db.Save(delivery).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(RecordInput{
		EntityType: entityDeliveries,
		EntityID:   delivery.ID,
		Operation:  models.OperationUpdate,
		Actor:      actor,
		Before:     before,
		After:      Snapshot(delivery),
	})
	return delivery, nil
}

// DeleteDelivery removes a delivery.
func (s *deliveryService) DeleteDelivery(actor Actor, id uint) error {
	delivery, err := s.GetDelivery(id)
	if err != nil {
		return err
	}
	delivery.Order = nil

	if err := s.db.Unscoped().Delete(delivery).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(RecordInput{
		EntityType: entityDeliveries,
		EntityID:   delivery.ID,
		Operation:  models.OperationDelete,
		Actor:      actor,
		Before:     Snapshot(delivery),
	})
	return nil
}
