package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "woodshop/internal/errors"
	"woodshop/internal/logger"
	"woodshop/internal/metrics"
	"woodshop/internal/models"
	"woodshop/internal/pagination"
)

const entityOrders = "orders"

func utcNow() time.Time { return time.Now().UTC() }

var errLineTooLarge = apperrors.WithMessage(apperrors.ErrInvalidInput, "item subtotal exceeds the allowed maximum")

// orderService handles order-related business logic.
type orderService struct {
	db    *gorm.DB
	audit AuditServicer
	now   func() time.Time
}

// NewOrderService creates a new OrderServicer.
func NewOrderService(db *gorm.DB, audit AuditServicer) OrderServicer {
	return &orderService{db: db, audit: audit, now: utcNow}
}

// CreateOrder creates an order and its items in one transaction.
func (s *orderService) CreateOrder(actor Actor, input CreateOrderInput) (*models.Order, error) {
	number := strings.TrimSpace(input.Number)
	customer := strings.TrimSpace(input.Customer)
	if number == "" || customer == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "order number and customer are required")
	}

	status := input.Status
	if status == "" {
		status = models.StatusReceived
	}
	if !status.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid order status")
	}

	entryDate := s.now().UTC()
	if input.EntryDate != nil {
		entryDate = *input.EntryDate
	}
	if input.ExitDate != nil && models.CalendarDay(input.ExitDate.UTC()).Before(models.CalendarDay(entryDate.UTC())) {
		return nil, apperrors.ErrInvalidDateRange
	}

	if err := s.checkNumberUnique(number, 0); err != nil {
		return nil, err
	}
	if input.CarpenterID != nil {
		if err := s.checkCarpenter(s.db, *input.CarpenterID); err != nil {
			return nil, err
		}
	}

	order := &models.Order{
		Number:      number,
		Customer:    customer,
		Description: input.Description,
		EntryDate:   entryDate,
		ExitDate:    input.ExitDate,
		CarpenterID: input.CarpenterID,
		Status:      status,
		Notes:       input.Notes,
	}
	if actor.UserID != 0 {
		createdBy := actor.UserID
		order.CreatedByID = &createdBy
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.insertItems(tx, order.ID, input.Items); err != nil {
			return err
		}
		return s.recomputeTotal(tx, order.ID)
	})
	if err != nil {
		return nil, err
	}

	created, err := s.load(s.db, order.ID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(RecordInput{
		EntityType: entityOrders,
		EntityID:   created.ID,
		Operation:  models.OperationCreate,
		Actor:      actor,
		After:      Snapshot(created),
	})
	return created, nil
}

func (s *orderService) checkNumberUnique(number string, excludeID uint) error {
	var count int64
	if err := s.db.Unscoped().Model(&models.Order{}).
		Where("number = ? AND id <> ?", number, excludeID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateOrderNumber
	}
	return nil
}

func (s *orderService) checkCarpenter(db *gorm.DB, carpenterID uint) error {
	var carpenter models.Carpenter
	if err := db.First(&carpenter, carpenterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCarpenterNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !carpenter.IsActive {
		return apperrors.ErrCarpenterInactive
	}
	return nil
}

// insertItems writes order lines, capturing the material price when the
// caller does not supply one.
func (s *orderService) insertItems(tx *gorm.DB, orderID uint, inputs []OrderItemInput) error {
	for _, input := range inputs {
		item, err := s.buildItem(tx, orderID, input)
		if err != nil {
			return err
		}
		if err := tx.Create(item).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}

func (s *orderService) buildItem(tx *gorm.DB, orderID uint, input OrderItemInput) (*models.OrderItem, error) {
	if input.Quantity <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "item quantity must be positive")
	}

	var material models.Material
	if err := tx.First(&material, input.MaterialID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMaterialNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	unitPrice := material.UnitPrice
	if input.UnitPrice != nil {
		if *input.UnitPrice < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unit price cannot be negative")
		}
		unitPrice = *input.UnitPrice
	}

	item := &models.OrderItem{
		OrderID:    orderID,
		MaterialID: material.ID,
		Quantity:   input.Quantity,
		UnitPrice:  unitPrice,
	}
	if !item.ComputeSubtotal() {
		return nil, errLineTooLarge
	}
	return item, nil
}

// recomputeTotal sets the order total to the sum of its item subtotals.
func (s *orderService) recomputeTotal(tx *gorm.DB, orderID uint) error {
	var total int64
	if err := tx.Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(SUM(subtotal), 0)").
		Scan(&total).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Update("total", total).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *orderService) load(db *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Material").
		Preload("Carpenter").
		First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &order, nil
}

// GetOrder retrieves an order, persisting its derived status first.
func (s *orderService) GetOrder(id uint) (*models.Order, error) {
	order, err := s.load(s.db, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyDerivedStatus(order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) applyDerivedStatus(order *models.Order) error {
	derived := models.DeriveStatus(order.Status, order.ExitDate, s.now())
	if derived == order.Status {
		return nil
	}
	if err := s.db.Model(&models.Order{}).Where("id = ?", order.ID).UpdateColumn("status", derived).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	metrics.OrderStatusesRefreshedTotal.WithLabelValues(string(derived)).Inc()
	order.Status = derived
	return nil
}

// RefreshStatuses persists the derived status of every open order with an
// exit date on or before today and returns the number of rows changed.
func (s *orderService) RefreshStatuses(today time.Time) (int64, error) {
	day := models.CalendarDay(today.UTC())
	tomorrow := day.AddDate(0, 0, 1)

	overdue := s.db.Model(&models.Order{}).
		Where("status NOT IN ? AND exit_date IS NOT NULL AND exit_date < ?",
			[]models.OrderStatus{models.StatusCompleted, models.StatusOverdue}, day).
		UpdateColumn("status", models.StatusOverdue)
	if overdue.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, overdue.Error)
	}

	dueToday := s.db.Model(&models.Order{}).
		Where("status NOT IN ? AND exit_date >= ? AND exit_date < ?",
			[]models.OrderStatus{models.StatusCompleted, models.StatusDueToday}, day, tomorrow).
		UpdateColumn("status", models.StatusDueToday)
	if dueToday.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, dueToday.Error)
	}

	if overdue.RowsAffected > 0 {
		metrics.OrderStatusesRefreshedTotal.WithLabelValues(string(models.StatusOverdue)).Add(float64(overdue.RowsAffected))
	}
	if dueToday.RowsAffected > 0 {
		metrics.OrderStatusesRefreshedTotal.WithLabelValues(string(models.StatusDueToday)).Add(float64(dueToday.RowsAffected))
	}
	return overdue.RowsAffected + dueToday.RowsAffected, nil
}

// ListOrders returns filtered orders, newest first. Derived statuses are
// refreshed before filtering so the status filter sees current values.
func (s *orderService) ListOrders(filter OrderFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Order], error) {
	page.Defaults()

	if _, err := s.RefreshStatuses(s.now()); err != nil {
		return nil, err
	}

	base := s.db.Model(&models.Order{})
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.CarpenterID != nil {
		base = base.Where("carpenter_id = ?", *filter.CarpenterID)
	}
	if customer := strings.TrimSpace(filter.Customer); customer != "" {
		base = base.Where("LOWER(customer) LIKE ?", "%"+strings.ToLower(customer)+"%")
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var orders []models.Order
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Items").
		Preload("Carpenter").
		Order("created_at DESC, id DESC").
		Find(&orders).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(orders, page.Page, page.PageSize, totalItems)
	return &resp, nil
}

// UpdateOrder applies changes to an order. Carpenters cannot change the
// customer, the description or the items. An explicit status wins over the
// derived one for this call; otherwise the derivation is applied.
func (s *orderService) UpdateOrder(actor Actor, id uint, input UpdateOrderInput) (*models.Order, error) {
	order, err := s.load(s.db, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == models.RoleCarpenter {
		if (input.Customer != nil && *input.Customer != order.Customer) ||
			(input.Description != nil && *input.Description != order.Description) ||
			input.Items != nil {
			return nil, apperrors.WithMessage(apperrors.ErrForbidden, "carpenters cannot change customer, description or items")
		}
	}

	before := Snapshot(order)

	if input.Number != nil {
		number := strings.TrimSpace(*input.Number)
		if number == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "order number cannot be empty")
		}
		if number != order.Number {
			if err := s.checkNumberUnique(number, order.ID); err != nil {
				return nil, err
			}
		}
		order.Number = number
	}
	if input.Customer != nil {
		customer := strings.TrimSpace(*input.Customer)
		if customer == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "customer cannot be empty")
		}
		order.Customer = customer
	}
	if input.Description != nil {
		order.Description = *input.Description
	}
	if input.EntryDate != nil {
		order.EntryDate = *input.EntryDate
	}
	if input.ClearExitDate {
		order.ExitDate = nil
	} else if input.ExitDate != nil {
		order.ExitDate = input.ExitDate
	}
	if order.ExitDate != nil && models.CalendarDay(order.ExitDate.UTC()).Before(models.CalendarDay(order.EntryDate.UTC())) {
		return nil, apperrors.ErrInvalidDateRange
	}
	if input.CarpenterID != nil {
		if err := s.checkCarpenter(s.db, *input.CarpenterID); err != nil {
			return nil, err
		}
		order.CarpenterID = input.CarpenterID
		order.Carpenter = nil
	}
	if input.Notes != nil {
		order.Notes = *input.Notes
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid order status")
		}
		order.Status = *input.Status
	} else {
		order.Status = models.DeriveStatus(order.Status, order.ExitDate, s.now())
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
			"number":       order.Number,
			"customer":     order.Customer,
			"description":  order.Description,
			"entry_date":   order.EntryDate,
			"exit_date":    order.ExitDate,
			"carpenter_id": order.CarpenterID,
			"notes":        order.Notes,
			"status":       order.Status,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if input.Items == nil {
			return nil
		}
		if err := tx.Unscoped().Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.insertItems(tx, order.ID, *input.Items); err != nil {
			return err
		}
		return s.recomputeTotal(tx, order.ID)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.load(s.db, order.ID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(RecordInput{
		EntityType: entityOrders,
		EntityID:   updated.ID,
		Operation:  models.OperationUpdate,
		Actor:      actor,
		Before:     before,
		After:      Snapshot(updated),
	})
	return updated, nil
}

// DeleteOrder removes the order items and soft-deletes the order in one transaction.
func (s *orderService) DeleteOrder(actor Actor, id uint) error {
	order, err := s.load(s.db, id)
	if err != nil {
		return err
	}
	before := Snapshot(order)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&models.Order{}, order.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(RecordInput{
		EntityType: entityOrders,
		EntityID:   order.ID,
		Operation:  models.OperationDelete,
		Actor:      actor,
		Before:     before,
	})
	return nil
}

// AssignCarpenter sets or clears the carpenter of an order.
func (s *orderService) AssignCarpenter(actor Actor, id uint, carpenterID *uint) (*models.Order, error) {
	order, err := s.load(s.db, id)
	if err != nil {
		return nil, err
	}
	before := Snapshot(order)

	if carpenterID != nil {
		if err := s.checkCarpenter(s.db, *carpenterID); err != nil {
			return nil, err
		}
	}
	if err := s.db.Model(&models.Order{}).Where("id = ?", order.ID).Update("carpenter_id", carpenterID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updated, err := s.load(s.db, order.ID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(RecordInput{
		EntityType: entityOrders,
		EntityID:   updated.ID,
		Operation:  models.OperationUpdate,
		Actor:      actor,
		Before:     before,
		After:      Snapshot(updated),
		Note:       "carpenter assignment",
	})
	return updated, nil
}

// AddItem appends a line to an order and recomputes its total.
func (s *orderService) AddItem(actor Actor, orderID uint, input OrderItemInput) (*models.Order, error) {
	return s.mutateItems(actor, orderID, "item added", func(tx *gorm.DB, _ *models.Order) error {
		return s.insertItems(tx, orderID, []OrderItemInput{input})
	})
}

// UpdateItem changes the quantity or unit price of one line and recomputes
// the order total.
func (s *orderService) UpdateItem(actor Actor, orderID, itemID uint, input UpdateOrderItemInput) (*models.Order, error) {
	return s.mutateItems(actor, orderID, "item updated", func(tx *gorm.DB, _ *models.Order) error {
		item, err := s.findItem(tx, orderID, itemID)
		if err != nil {
			return err
		}
		if input.Quantity != nil {
			if *input.Quantity <= 0 {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "item quantity must be positive")
			}
			item.Quantity = *input.Quantity
		}
		if input.UnitPrice != nil {
			if *input.UnitPrice < 0 {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "unit price cannot be negative")
			}
			item.UnitPrice = *input.UnitPrice
		}
		if !item.ComputeSubtotal() {
			return errLineTooLarge
		}

		if err := tx.Model(item).Updates(map[string]any{
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice,
			"subtotal":   item.Subtotal,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// RemoveItem deletes one line and recomputes the order total.
func (s *orderService) RemoveItem(actor Actor, orderID, itemID uint) (*models.Order, error) {
	return s.mutateItems(actor, orderID, "item removed", func(tx *gorm.DB, _ *models.Order) error {
		item, err := s.findItem(tx, orderID, itemID)
		if err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(item).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

func (s *orderService) findItem(tx *gorm.DB, orderID, itemID uint) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := tx.Where("id = ? AND order_id = ?", itemID, orderID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &item, nil
}

// mutateItems runs fn and the total recomputation in one transaction and
// audits the order as a whole.
func (s *orderService) mutateItems(actor Actor, orderID uint, note string, fn func(tx *gorm.DB, order *models.Order) error) (*models.Order, error) {
	order, err := s.load(s.db, orderID)
	if err != nil {
		return nil, err
	}
	before := Snapshot(order)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := fn(tx, order); err != nil {
			return err
		}
		return s.recomputeTotal(tx, orderID)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.load(s.db, orderID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(RecordInput{
		EntityType: entityOrders,
		EntityID:   updated.ID,
		Operation:  models.OperationUpdate,
		Actor:      actor,
		Before:     before,
		After:      Snapshot(updated),
		Note:       note,
	})
	return updated, nil
}

// Statistics counts orders per status and sums their totals.
func (s *orderService) Statistics() (*OrderStatistics, error) {
	if _, err := s.RefreshStatuses(s.now()); err != nil {
		logger.Get().Warnw("failed to refresh order statuses before statistics", "error", err)
	}

	var rows []struct {
		Status models.OrderStatus
		Count  int64
		Value  int64
	}
	if err := s.db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS value").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stats := &OrderStatistics{ByStatus: make(map[string]int64, len(models.AllOrderStatuses))}
	for _, status := range models.AllOrderStatuses {
		stats.ByStatus[string(status)] = 0
	}
	for _, row := range rows {
		stats.ByStatus[string(row.Status)] = row.Count
		stats.TotalOrders += row.Count
		stats.TotalValue += row.Value
	}
	return stats, nil
}
