package models

import "time"

// Role is the access level granted to an identity.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleCarpenter     Role = "carpenter"
	RoleVisitor       Role = "visitor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleCarpenter, RoleVisitor:
		return true
	}
	return false
}

// User represents an identity that can authenticate against the API.
type User struct {
	Base
	Username    string     `gorm:"uniqueIndex;size:80;not null" json:"username"`
	Email       string     `gorm:"uniqueIndex;size:120;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	Role        Role       `gorm:"size:20;not null;default:visitor" json:"role"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	Sessions    []Session  `gorm:"foreignKey:UserID" json:"-"`
}
