package services

import (
	"testing"

	"woodshop/internal/models"
	"woodshop/internal/pagination"
	"woodshop/internal/testutil"
)

func TestCreateMaterial(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMaterialService(db, NewAuditService(db))

		material, err := svc.CreateMaterial(adminActor, MaterialInput{
			Name:      ptr("Pine board"),
			UnitPrice: ptr(int64(1250)),
			Stock:     ptr(40.0),
		})
		testutil.AssertNoError(t, err)

		if material.Unit != "un" {
			t.Errorf("expected default unit un, got %s", material.Unit)
		}
		if !material.IsActive {
			t.Error("expected material to be active")
		}
		if n := countAudit(db, entityMaterials, material.ID, models.OperationCreate); n != 1 {
			t.Errorf("expected 1 CREATE audit entry, got %d", n)
		}
	})

	t.Run("duplicate_name_case_insensitive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMaterialService(db, NewAuditService(db))
		_, err := svc.CreateMaterial(adminActor, MaterialInput{Name: ptr("Pine board")})
		testutil.AssertNoError(t, err)

		_, err = svc.CreateMaterial(adminActor, MaterialInput{Name: ptr("PINE BOARD")})
		testutil.AssertAppError(t, err, "DUPLICATE_MATERIAL")
	})

	t.Run("negative_price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMaterialService(db, NewAuditService(db))

		_, err := svc.CreateMaterial(adminActor, MaterialInput{Name: ptr("Oak"), UnitPrice: ptr(int64(-1))})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("missing_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMaterialService(db, NewAuditService(db))

		_, err := svc.CreateMaterial(adminActor, MaterialInput{Name: ptr("   ")})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestListAndUpdateMaterials(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewMaterialService(db, NewAuditService(db))
	active := testutil.CreateTestMaterial(t, db, 1000, 10)
	inactive := testutil.CreateTestMaterial(t, db, 1000, 10)
	db.Model(inactive).Update("is_active", false)

	t.Run("active_only", func(t *testing.T) {
		resp, err := svc.ListMaterials(true, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 1 || resp.Data[0].ID != active.ID {
			t.Errorf("expected only the active material, got %d", resp.TotalItems)
		}
	})

	t.Run("all", func(t *testing.T) {
		resp, err := svc.ListMaterials(false, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 2 {
			t.Errorf("expected 2 materials, got %d", resp.TotalItems)
		}
	})

	t.Run("update_price_keeps_existing_order_items", func(t *testing.T) {
		orders := NewOrderService(db, NewAuditService(db))
		order, err := orders.CreateOrder(adminActor, CreateOrderInput{
			Number: "ORD-M1", Customer: "Maria",
			Items: []OrderItemInput{{MaterialID: active.ID, Quantity: 1}},
		})
		testutil.AssertNoError(t, err)

		updated, err := svc.UpdateMaterial(adminActor, active.ID, MaterialInput{UnitPrice: ptr(int64(9999))})
		testutil.AssertNoError(t, err)
		if updated.UnitPrice != 9999 {
			t.Errorf("expected new price 9999, got %d", updated.UnitPrice)
		}

		reloaded, err := orders.GetOrder(order.ID)
		testutil.AssertNoError(t, err)
		if reloaded.Items[0].UnitPrice != 1000 || reloaded.Total != 1000 {
			t.Errorf("expected captured price 1000 to be kept, got %d (total %d)", reloaded.Items[0].UnitPrice, reloaded.Total)
		}
	})

	t.Run("rename_to_existing_name", func(t *testing.T) {
		_, err := svc.UpdateMaterial(adminActor, active.ID, MaterialInput{Name: ptr(inactive.Name)})
		testutil.AssertAppError(t, err, "DUPLICATE_MATERIAL")
	})
}

func TestDeleteMaterial(t *testing.T) {
	t.Run("unused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMaterialService(db, NewAuditService(db))
		material := testutil.CreateTestMaterial(t, db, 1000, 10)

		testutil.AssertNoError(t, svc.DeleteMaterial(adminActor, material.ID))

		_, err := svc.GetMaterial(material.ID)
		testutil.AssertAppError(t, err, "MATERIAL_NOT_FOUND")
		if n := countAudit(db, entityMaterials, material.ID, models.OperationDelete); n != 1 {
			t.Errorf("expected 1 DELETE audit entry, got %d", n)
		}
	})

	t.Run("referenced_by_order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMaterialService(db, NewAuditService(db))
		orders := NewOrderService(db, NewAuditService(db))
		material := testutil.CreateTestMaterial(t, db, 1000, 10)
		_, err := orders.CreateOrder(adminActor, CreateOrderInput{
			Number: "ORD-M2", Customer: "Maria",
			Items: []OrderItemInput{{MaterialID: material.ID, Quantity: 1}},
		})
		testutil.AssertNoError(t, err)

		err = svc.DeleteMaterial(adminActor, material.ID)
		testutil.AssertAppError(t, err, "MATERIAL_IN_USE")
	})
}

func TestAdjustStock(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMaterialService(db, NewAuditService(db))
		material := testutil.CreateTestMaterial(t, db, 1000, 10)

		updated, err := svc.AdjustStock(adminActor, material.ID, StockAdd, 2.5, "")
		testutil.AssertNoError(t, err)
		if updated.Stock != 12.5 {
			t.Errorf("expected stock 12.5, got %g", updated.Stock)
		}

		entry := lastAudit(db, entityMaterials, material.ID)
		if entry == nil || entry.Note != "stock add 2.5" {
			t.Errorf("expected default stock note, got %+v", entry)
		}
		if fields := entry.FieldList(); !containsString(fields, "stock") || containsString(fields, "name") {
			t.Errorf("expected stock but not name in changed fields, got %v", fields)
		}
	})

	t.Run("remove_more_than_available", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMaterialService(db, NewAuditService(db))
		material := testutil.CreateTestMaterial(t, db, 1000, 3)

		_, err := svc.AdjustStock(adminActor, material.ID, StockRemove, 4, "")
		testutil.AssertAppError(t, err, "INSUFFICIENT_STOCK")

		got, _ := svc.GetMaterial(material.ID)
		if got.Stock != 3 {
			t.Errorf("expected stock unchanged, got %g", got.Stock)
		}
	})

	t.Run("remove_to_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMaterialService(db, NewAuditService(db))
		material := testutil.CreateTestMaterial(t, db, 1000, 3)

		updated, err := svc.AdjustStock(adminActor, material.ID, StockRemove, 3, "used on ORD-9")
		testutil.AssertNoError(t, err)
		if updated.Stock != 0 {
			t.Errorf("expected stock 0, got %g", updated.Stock)
		}
		if updated.StockStatus() != models.StockEmpty {
			t.Errorf("expected empty stock status, got %s", updated.StockStatus())
		}
	})

	t.Run("invalid_operation_and_quantity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMaterialService(db, NewAuditService(db))
		material := testutil.CreateTestMaterial(t, db, 1000, 3)

		_, err := svc.AdjustStock(adminActor, material.ID, "set", 1, "")
		testutil.AssertAppError(t, err, "INVALID_STOCK_OPERATION")

		_, err = svc.AdjustStock(adminActor, material.ID, StockAdd, 0, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMaterialService(db, NewAuditService(db))

		_, err := svc.AdjustStock(adminActor, 99999, StockAdd, 1, "")
		testutil.AssertAppError(t, err, "MATERIAL_NOT_FOUND")
	})
}

func TestStockReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewMaterialService(db, NewAuditService(db))
	testutil.CreateTestMaterial(t, db, 1000, 20) // normal, value 20000
	testutil.CreateTestMaterial(t, db, 333, 1.5) // low, value 500
	testutil.CreateTestMaterial(t, db, 1000, 0)  // empty

	report, err := svc.StockReport()
	testutil.AssertNoError(t, err)

	if report.TotalMaterials != 3 {
		t.Errorf("expected 3 materials, got %d", report.TotalMaterials)
	}
	if report.LowStockCount != 1 || report.EmptyStockCount != 1 {
		t.Errorf("expected 1 low and 1 empty, got %d and %d", report.LowStockCount, report.EmptyStockCount)
	}
	if report.TotalValue != 20500 {
		t.Errorf("expected total value 20500, got %d", report.TotalValue)
	}

	low, err := svc.LowStock()
	testutil.AssertNoError(t, err)
	if len(low) != 2 {
		t.Errorf("expected 2 materials at or below minimum, got %d", len(low))
	}
}
