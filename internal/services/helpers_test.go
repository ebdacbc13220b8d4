package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"woodshop/internal/models"
)

var adminActor = Actor{Role: models.RoleAdministrator, IP: "10.0.0.1", UserAgent: "go-test"}

func actorFor(user *models.User) Actor {
	return Actor{UserID: user.ID, Role: user.Role, IP: "10.0.0.1", UserAgent: "go-test"}
}

func newTestUserService(db *gorm.DB) (*userService, SessionServicer) {
	sessions := NewSessionService(db, nil)
	return &userService{db: db, sessions: sessions, audit: NewAuditService(db), bcryptCost: bcrypt.MinCost}, sessions
}

func countAudit(db *gorm.DB, entityType string, entityID uint, op models.AuditOperation) int64 {
	var n int64
	db.Model(&models.AuditEntry{}).
		Where("entity_type = ? AND entity_id = ? AND operation = ?", entityType, entityID, op).
		Count(&n)
	return n
}

func lastAudit(db *gorm.DB, entityType string, entityID uint) *models.AuditEntry {
	var entry models.AuditEntry
	if err := db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("id DESC").First(&entry).Error; err != nil {
		return nil
	}
	return &entry
}

// fakeRevocations is an in-memory RevocationStore.
type fakeRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	fail    bool
}

func newFakeRevocations() *fakeRevocations {
	return &fakeRevocations{revoked: make(map[string]time.Duration)}
}

func (f *fakeRevocations) IsRevoked(_ context.Context, digest string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return false, errors.New("cache unavailable")
	}
	_, ok := f.revoked[digest]
	return ok, nil
}

func (f *fakeRevocations) MarkRevoked(_ context.Context, digest string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("cache unavailable")
	}
	f.revoked[digest] = ttl
	return nil
}

func ptr[T any](v T) *T { return &v }
