package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"

	apperrors "woodshop/internal/errors"
	"woodshop/internal/models"
	"woodshop/internal/pagination"
)

const entityMaterials = "materials"

// materialService handles material catalogue and stock logic.
type materialService struct {
	db    *gorm.DB
	audit AuditServicer
}

// NewMaterialService creates a new MaterialServicer.
func NewMaterialService(db *gorm.DB, audit AuditServicer) MaterialServicer {
	return &materialService{db: db, audit: audit}
}

// CreateMaterial adds a material to the catalogue.
func (s *materialService) CreateMaterial(actor Actor, input MaterialInput) (*models.Material, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "material name is required")
	}
	name := strings.TrimSpace(*input.Name)
	if err := s.checkNameUnique(name, 0); err != nil {
		return nil, err
	}

	material := &models.Material{Name: name, Unit: "un", IsActive: true}
	if err := applyMaterialInput(material, input); err != nil {
		return nil, err
	}

	if err := s.db.Create(material).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(RecordInput{
		EntityType: entityMaterials,
		EntityID:   material.ID,
		Operation:  models.OperationCreate,
		Actor:      actor,
		After:      Snapshot(material),
	})
	return material, nil
}

func applyMaterialInput(material *models.Material, input MaterialInput) error {
	if input.Unit != nil {
		unit := strings.TrimSpace(*input.Unit)
		if unit == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "unit cannot be empty")
		}
		material.Unit = unit
	}
	if input.UnitPrice != nil {
		if *input.UnitPrice < 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "unit price cannot be negative")
		}
		material.UnitPrice = *input.UnitPrice
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "stock cannot be negative")
		}
		material.Stock = *input.Stock
	}
	if input.MinimumStock != nil {
		if *input.MinimumStock < 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "minimum stock cannot be negative")
		}
		material.MinimumStock = *input.MinimumStock
	}
	if input.Supplier != nil {
		material.Supplier = strings.TrimSpace(*input.Supplier)
	}
	if input.IsActive != nil {
		material.IsActive = *input.IsActive
	}
	return nil
}

func (s *materialService) checkNameUnique(name string, excludeID uint) error {
	var count int64
	if err := s.db.Model(&models.Material{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), excludeID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateMaterial
	}
	return nil
}

// GetMaterial retrieves a material by ID.
func (s *materialService) GetMaterial(id uint) (*models.Material, error) {
	var material models.Material
	if err := s.db.First(&material, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMaterialNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &material, nil
}

// ListMaterials returns materials ordered by name.
func (s *materialService) ListMaterials(activeOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.Material], error) {
	page.Defaults()

	base := s.db.Model(&models.Material{})
	if activeOnly {
		base = base.Where("is_active = ?", true)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var materials []models.Material
	if err := base.Scopes(pagination.Paginate(page)).Order("name ASC").Find(&materials).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(materials, page.Page, page.PageSize, totalItems)
	return &resp, nil
}

// UpdateMaterial applies catalogue changes. Existing order items keep the
// price captured when they were written.
func (s *materialService) UpdateMaterial(actor Actor, id uint, input MaterialInput) (*models.Material, error) {
	material, err := s.GetMaterial(id)
	if err != nil {
		return nil, err
	}
	before := Snapshot(material)

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "material name cannot be empty")
		}
		if err := s.checkNameUnique(name, material.ID); err != nil {
			return nil, err
		}
		material.Name = name
	}
	if err := applyMaterialInput(material, input); err != nil {
		return nil, err
	}

	if err := s.db.Save(material).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(RecordInput{
		EntityType: entityMaterials,
		EntityID:   material.ID,
		Operation:  models.OperationUpdate,
		Actor:      actor,
		Before:     before,
		After:      Snapshot(material),
	})
	return material, nil
}

// DeleteMaterial removes a material that no order item references.
func (s *materialService) DeleteMaterial(actor Actor, id uint) error {
	material, err := s.GetMaterial(id)
	if err != nil {
		return err
	}

	var uses int64
	if err := s.db.Model(&models.OrderItem{}).Where("material_id = ?", material.ID).Count(&uses).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if uses > 0 {
		return apperrors.ErrMaterialInUse
	}

	if err := s.db.Unscoped().Delete(material).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(RecordInput{
		EntityType: entityMaterials,
		EntityID:   material.ID,
		Operation:  models.OperationDelete,
		Actor:      actor,
		Before:     Snapshot(material),
	})
	return nil
}

// AdjustStock adds to or removes from a material's stock. Removing more
// than is in stock fails with ErrInsufficientStock.
func (s *materialService) AdjustStock(actor Actor, id uint, op StockOperation, quantity float64, note string) (*models.Material, error) {
	if quantity <= 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be positive")
	}
	if op != StockAdd && op != StockRemove {
		return nil, apperrors.ErrInvalidStockOperation
	}

	var material models.Material
	var before map[string]any
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&material, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrMaterialNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		before = Snapshot(&material)

		switch op {
		case StockAdd:
			material.Stock += quantity
		case StockRemove:
			if quantity > material.Stock {
				return apperrors.WithMessage(apperrors.ErrInsufficientStock,
					fmt.Sprintf("Insufficient stock: %g %s available", material.Stock, material.Unit))
			}
			material.Stock -= quantity
		}

		if err := tx.Model(&material).Update("stock", material.Stock).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if note == "" {
		note = fmt.Sprintf("stock %s %g", op, quantity)
	}
	s.audit.Record(RecordInput{
		EntityType: entityMaterials,
		EntityID:   material.ID,
		Operation:  models.OperationUpdate,
		Actor:      actor,
		Before:     before,
		After:      Snapshot(&material),
		Note:       note,
	})
	return &material, nil
}

// LowStock returns active materials at or below their minimum stock.
func (s *materialService) LowStock() ([]models.Material, error) {
	var materials []models.Material
	if err := s.db.Where("is_active = ? AND stock <= minimum_stock", true).
		Order("name ASC").
		Find(&materials).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return materials, nil
}

// StockReport summarises stock levels and value for active materials.
func (s *materialService) StockReport() (*StockReport, error) {
	var materials []models.Material
	if err := s.db.Where("is_active = ?", true).Order("name ASC").Find(&materials).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	report := &StockReport{Materials: make([]MaterialStockLine, 0, len(materials))}
	for i := range materials {
		m := &materials[i]
		line := MaterialStockLine{
			ID:           m.ID,
			Name:         m.Name,
			Unit:         m.Unit,
			Stock:        m.Stock,
			MinimumStock: m.MinimumStock,
			UnitPrice:    m.UnitPrice,
			StockValue:   int64(math.Round(m.Stock * float64(m.UnitPrice))),
			Status:       m.StockStatus(),
		}
		switch line.Status {
		case models.StockLow:
			report.LowStockCount++
		case models.StockEmpty:
			report.EmptyStockCount++
		}
		report.TotalValue += line.StockValue
		report.Materials = append(report.Materials, line)
	}
	report.TotalMaterials = len(report.Materials)
	return report, nil
}
