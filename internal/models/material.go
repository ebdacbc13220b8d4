package models

// StockStatus summarises a material's stock level.
type StockStatus string

const (
	StockNormal StockStatus = "normal"
	StockLow    StockStatus = "low"
	StockEmpty  StockStatus = "empty"
)

// Material is a catalogue entry used by order items.
type Material struct {
	Base
	Name         string  `gorm:"uniqueIndex;size:120;not null" json:"name"`
	Unit         string  `gorm:"size:20;not null;default:un" json:"unit"`
	UnitPrice    int64   `gorm:"not null;default:0" json:"unit_price"`
	Stock        float64 `gorm:"not null;default:0" json:"stock"`
	MinimumStock float64 `gorm:"not null;default:0" json:"minimum_stock"`
	Supplier     string  `gorm:"size:120" json:"supplier,omitempty"`
	IsActive     bool    `gorm:"not null;default:true" json:"is_active"`
}

// StockStatus classifies the current stock against the minimum.
func (m *Material) StockStatus() StockStatus {
	switch {
	case m.Stock <= 0:
		return StockEmpty
	case m.Stock <= m.MinimumStock:
		return StockLow
	default:
		return StockNormal
	}
}
