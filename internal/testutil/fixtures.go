package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"woodshop/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an active visitor with a unique username and email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, models.RoleVisitor)
}

// CreateTestUserWithRole creates an active user with the given role.
func CreateTestUserWithRole(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	n := nextID()
	return CreateTestUserWithUsername(t, db, fmt.Sprintf("user%d", n), role)
}

// CreateTestUserWithUsername creates an active user with the given username and role.
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@test.com", username),
		Password: string(hash),
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestSession stores an active session for the raw token digest.
func CreateTestSession(t *testing.T, db *gorm.DB, userID uint, tokenHash string, expiresAt time.Time) *models.Session {
	t.Helper()

	session := &models.Session{
		UserID:    userID,
		TokenHash: tokenHash,
		IsActive:  true,
		ExpiresAt: expiresAt.UTC(),
	}
	if err := db.Create(session).Error; err != nil {
		t.Fatalf("failed to create test session: %v", err)
	}
	return session
}

// CreateTestMaterial creates an active material with the given unit price (in cents) and stock.
func CreateTestMaterial(t *testing.T, db *gorm.DB, unitPrice int64, stock float64) *models.Material {
	t.Helper()

	material := &models.Material{
		Name:         fmt.Sprintf("Test Material %d", nextID()),
		Unit:         "m2",
		UnitPrice:    unitPrice,
		Stock:        stock,
		MinimumStock: 5,
		IsActive:     true,
	}
	if err := db.Create(material).Error; err != nil {
		t.Fatalf("failed to create test material: %v", err)
	}
	return material
}

// CreateTestCarpenter creates an active carpenter.
func CreateTestCarpenter(t *testing.T, db *gorm.DB) *models.Carpenter {
	t.Helper()

	carpenter := &models.Carpenter{
		Name:     fmt.Sprintf("Test Carpenter %d", nextID()),
		IsActive: true,
	}
	if err := db.Create(carpenter).Error; err != nil {
		t.Fatalf("failed to create test carpenter: %v", err)
	}
	return carpenter
}

// CreateTestOrder creates an order without items with the given status and exit date.
func CreateTestOrder(t *testing.T, db *gorm.DB, status models.OrderStatus, exitDate *time.Time) *models.Order {
	t.Helper()

	n := nextID()
	order := &models.Order{
		Number:    fmt.Sprintf("ORD-TEST-%d", n),
		Customer:  fmt.Sprintf("Customer %d", n),
		EntryDate: models.CalendarDay(time.Now().UTC()).AddDate(0, 0, -10),
		ExitDate:  exitDate,
		Status:    status,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("failed to create test order: %v", err)
	}
	return order
}

// Date returns midnight UTC of the calendar day offset by days from today.
func Date(days int) *time.Time {
	d := models.CalendarDay(time.Now().UTC()).AddDate(0, 0, days)
	return &d
}
