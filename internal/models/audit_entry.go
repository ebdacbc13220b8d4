package models

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditOperation is the kind of mutation an audit entry describes.
type AuditOperation string

const (
	OperationCreate AuditOperation = "CREATE"
	OperationUpdate AuditOperation = "UPDATE"
	OperationDelete AuditOperation = "DELETE"
)

// Valid reports whether op is a known operation.
func (op AuditOperation) Valid() bool {
	switch op {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// ErrAuditEntryImmutable is returned by hooks guarding written entries.
var ErrAuditEntryImmutable = errors.New("audit entries cannot be modified")

// AuditEntry is an immutable record of one mutation. The target row is
// referenced by (EntityType, EntityID) instead of a foreign key.
type AuditEntry struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	EntityType    string         `gorm:"size:50;not null;index:idx_audit_entity" json:"entity_type"`
	EntityID      uint           `gorm:"not null;index:idx_audit_entity" json:"entity_id"`
	Operation     AuditOperation `gorm:"size:10;not null;index" json:"operation"`
	ActorID       *uint          `gorm:"index" json:"actor_id,omitempty"`
	Actor         *User          `gorm:"foreignKey:ActorID;constraint:OnDelete:SET NULL" json:"actor,omitempty"`
	Before        datatypes.JSON `json:"before,omitempty"`
	After         datatypes.JSON `json:"after,omitempty"`
	ChangedFields datatypes.JSON `json:"changed_fields"`
	Note          string         `gorm:"type:text" json:"note,omitempty"`
	IPAddress     string         `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent     string         `gorm:"size:255" json:"user_agent,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
}

// FieldList decodes ChangedFields.
func (e *AuditEntry) FieldList() []string {
	var fields []string
	if len(e.ChangedFields) == 0 {
		return fields
	}
	_ = json.Unmarshal(e.ChangedFields, &fields)
	return fields
}

// ActorName returns the actor's username or an empty string.
func (e *AuditEntry) ActorName() string {
	if e.Actor == nil {
		return ""
	}
	return e.Actor.Username
}

func (e *AuditEntry) BeforeUpdate(tx *gorm.DB) error {
	return ErrAuditEntryImmutable
}

func (e *AuditEntry) BeforeDelete(tx *gorm.DB) error {
	return ErrAuditEntryImmutable
}
