// Package models holds the gorm models persisted by the API.
package models

// All lists every model in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Session{},
		&AuditEntry{},
		&Carpenter{},
		&Material{},
		&Order{},
		&OrderItem{},
		&Delivery{},
		&Setting{},
	}
}
