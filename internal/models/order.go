package models

import (
	"math"
	"time"
)

// OrderStatus is the lifecycle state of a shop order.
type OrderStatus string

const (
	StatusReceived   OrderStatus = "received"
	StatusInProgress OrderStatus = "inProgress"
	StatusDueToday   OrderStatus = "dueToday"
	StatusOverdue    OrderStatus = "overdue"
	StatusCompleted  OrderStatus = "completed"
)

// AllOrderStatuses lists statuses in display order.
var AllOrderStatuses = []OrderStatus{
	StatusReceived, StatusInProgress, StatusDueToday, StatusOverdue, StatusCompleted,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, known := range AllOrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Order is a customer job tracked by the shop. Total is kept in cents and
// always equals the sum of item subtotals.
type Order struct {
	Base
	Number      string      `gorm:"uniqueIndex;size:50;not null" json:"number"`
	Customer    string      `gorm:"size:200;not null;index" json:"customer"`
	Description string      `gorm:"type:text" json:"description"`
	EntryDate   time.Time   `gorm:"not null" json:"entry_date"`
	ExitDate    *time.Time  `gorm:"index" json:"exit_date,omitempty"`
	CarpenterID *uint       `gorm:"index" json:"carpenter_id,omitempty"`
	Carpenter   *Carpenter  `gorm:"foreignKey:CarpenterID" json:"carpenter,omitempty"`
	Status      OrderStatus `gorm:"size:20;not null;default:received;index" json:"status"`
	Total       int64       `gorm:"not null;default:0" json:"total"`
	Notes       string      `gorm:"type:text" json:"notes,omitempty"`
	CreatedByID *uint       `json:"created_by_id,omitempty"`
	Items       []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// RecomputeTotal sums the subtotals of the loaded items.
func (o *Order) RecomputeTotal() {
	var total int64
	for i := range o.Items {
		total += o.Items[i].Subtotal
	}
	o.Total = total
}

// OrderItem is one material line of an order. UnitPrice is captured when the
// line is written so later catalogue price changes do not alter the order.
type OrderItem struct {
	Base
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	MaterialID uint      `gorm:"not null;index" json:"material_id"`
	Material   *Material `gorm:"foreignKey:MaterialID" json:"material,omitempty"`
	Quantity   float64   `gorm:"not null" json:"quantity"`
	UnitPrice  int64     `gorm:"not null" json:"unit_price"`
	Subtotal   int64     `gorm:"not null" json:"subtotal"`
}

// MaxLineAmount caps a single item subtotal, in cents.
const MaxLineAmount int64 = 1e13

// ComputeSubtotal sets Subtotal to quantity times unit price, rounded to the
// cent. It reports false and leaves Subtotal untouched when the product is
// above MaxLineAmount.
func (i *OrderItem) ComputeSubtotal() bool {
	v := math.Round(i.Quantity * float64(i.UnitPrice))
	if math.IsNaN(v) || v < 0 || v > float64(MaxLineAmount) {
		return false
	}
	i.Subtotal = int64(v)
	return true
}
