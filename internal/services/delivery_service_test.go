package services

import (
	"testing"

	"woodshop/internal/models"
	"woodshop/internal/pagination"
	"woodshop/internal/testutil"
)

func TestDeliveryLifecycle(t *testing.T) {
	t.Run("create_defaults_to_pending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDeliveryService(db, NewAuditService(db))
		order := testutil.CreateTestOrder(t, db, models.StatusReceived, nil)

		delivery, err := svc.CreateDelivery(adminActor, DeliveryInput{
			OrderID:      &order.ID,
			DeliveryDate: testutil.Date(3),
			Address:      ptr("  Rua das Flores 12  "),
		})
		testutil.AssertNoError(t, err)
		if delivery.Status != models.DeliveryPending {
			t.Errorf("expected pending, got %s", delivery.Status)
		}
		if delivery.Address != "Rua das Flores 12" {
			t.Errorf("expected trimmed address, got %q", delivery.Address)
		}
	})

	t.Run("unknown_order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDeliveryService(db, NewAuditService(db))

		_, err := svc.CreateDelivery(adminActor, DeliveryInput{OrderID: ptr(uint(99999)), DeliveryDate: testutil.Date(1)})
		testutil.AssertAppError(t, err, "ORDER_NOT_FOUND")
	})

	t.Run("missing_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDeliveryService(db, NewAuditService(db))
		order := testutil.CreateTestOrder(t, db, models.StatusReceived, nil)

		_, err := svc.CreateDelivery(adminActor, DeliveryInput{OrderID: &order.ID})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("update_status_and_delete", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDeliveryService(db, NewAuditService(db))
		order := testutil.CreateTestOrder(t, db, models.StatusReceived, nil)
		delivery, err := svc.CreateDelivery(adminActor, DeliveryInput{OrderID: &order.ID, DeliveryDate: testutil.Date(3)})
		testutil.AssertNoError(t, err)

		status := models.DeliveryDelivered
		updated, err := svc.UpdateDelivery(adminActor, delivery.ID, DeliveryInput{Status: &status})
		testutil.AssertNoError(t, err)
		if updated.Status != models.DeliveryDelivered {
			t.Errorf("expected delivered, got %s", updated.Status)
		}

		bad := models.DeliveryStatus("lost")
		_, err = svc.UpdateDelivery(adminActor, delivery.ID, DeliveryInput{Status: &bad})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		testutil.AssertNoError(t, svc.DeleteDelivery(adminActor, delivery.ID))
		_, err = svc.GetDelivery(delivery.ID)
		testutil.AssertAppError(t, err, "DELIVERY_NOT_FOUND")

		for _, op := range []models.AuditOperation{models.OperationCreate, models.OperationUpdate, models.OperationDelete} {
			if n := countAudit(db, entityDeliveries, delivery.ID, op); n != 1 {
				t.Errorf("expected 1 %s audit entry, got %d", op, n)
			}
		}
	})
}

func TestListDeliveries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewDeliveryService(db, NewAuditService(db))
	first := testutil.CreateTestOrder(t, db, models.StatusReceived, nil)
	second := testutil.CreateTestOrder(t, db, models.StatusReceived, nil)

	_, err := svc.CreateDelivery(adminActor, DeliveryInput{OrderID: &first.ID, DeliveryDate: testutil.Date(5)})
	testutil.AssertNoError(t, err)
	_, err = svc.CreateDelivery(adminActor, DeliveryInput{OrderID: &first.ID, DeliveryDate: testutil.Date(1)})
	testutil.AssertNoError(t, err)
	_, err = svc.CreateDelivery(adminActor, DeliveryInput{OrderID: &second.ID, DeliveryDate: testutil.Date(2)})
	testutil.AssertNoError(t, err)

	resp, err := svc.ListDeliveries(DeliveryFilter{}, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if resp.TotalItems != 3 {
		t.Fatalf("expected 3 deliveries, got %d", resp.TotalItems)
	}
	if !resp.Data[0].DeliveryDate.Equal(*testutil.Date(1)) {
		t.Errorf("expected earliest delivery first, got %s", resp.Data[0].DeliveryDate)
	}
	if resp.Data[0].Order == nil {
		t.Error("expected order to be preloaded")
	}

	resp, err = svc.ListDeliveries(DeliveryFilter{OrderID: &first.ID}, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if resp.TotalItems != 2 {
		t.Errorf("expected 2 deliveries for the first order, got %d", resp.TotalItems)
	}

	resp, err = svc.ListDeliveries(DeliveryFilter{From: testutil.Date(2), To: testutil.Date(4)}, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if resp.TotalItems != 1 {
		t.Errorf("expected 1 delivery in range, got %d", resp.TotalItems)
	}
}
