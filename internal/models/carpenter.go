package models

// Carpenter is a worker that orders can be assigned to.
type Carpenter struct {
	Base
	Name      string `gorm:"uniqueIndex;size:120;not null" json:"name"`
	Email     string `gorm:"size:120" json:"email,omitempty"`
	Phone     string `gorm:"size:30" json:"phone,omitempty"`
	Specialty string `gorm:"size:120" json:"specialty,omitempty"`
	IsActive  bool   `gorm:"not null;default:true" json:"is_active"`
}
