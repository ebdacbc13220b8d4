package models

import (
	"time"

	"gorm.io/gorm"
)

// Base contains common columns for all tables. IDs are numeric so audit
// entries can reference any row by (table, id).
type Base struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
