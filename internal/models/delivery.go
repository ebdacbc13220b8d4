package models

import "time"

// DeliveryStatus is the state of a scheduled delivery.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryScheduled DeliveryStatus = "scheduled"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

// Delivery records when and where an order is handed over.
type Delivery struct {
	Base
	OrderID      uint           `gorm:"not null;index" json:"order_id"`
	Order        *Order         `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	DeliveryDate time.Time      `gorm:"not null;index" json:"delivery_date"`
	Status       DeliveryStatus `gorm:"size:20;not null;default:pending" json:"status"`
	Address      string         `gorm:"size:255" json:"address,omitempty"`
	Notes        string         `gorm:"type:text" json:"notes,omitempty"`
}
