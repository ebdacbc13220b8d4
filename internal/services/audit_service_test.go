package services

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"woodshop/internal/models"
	"woodshop/internal/pagination"
	"woodshop/internal/testutil"
)

func TestAuditRecord(t *testing.T) {
	t.Run("update_records_diff", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)
		user := testutil.CreateTestUser(t, db)

		entry := svc.Record(RecordInput{
			EntityType: "orders",
			EntityID:   7,
			Operation:  models.OperationUpdate,
			Actor:      actorFor(user),
			Before:     map[string]any{"a": 1, "b": 2},
			After:      map[string]any{"a": 1, "b": 3},
			Note:       "manual edit",
		})
		if entry == nil {
			t.Fatal("expected entry to be recorded")
		}

		got, err := svc.GetEntry(entry.ID)
		testutil.AssertNoError(t, err)

		fields := got.FieldList()
		if len(fields) != 1 || fields[0] != "b" {
			t.Errorf("expected changed fields [b], got %v", fields)
		}
		if got.Actor == nil || got.Actor.ID != user.ID {
			t.Error("expected actor to be preloaded")
		}
		if got.ActorName() != user.Username {
			t.Errorf("expected actor name %s, got %s", user.Username, got.ActorName())
		}
		if got.Note != "manual edit" {
			t.Errorf("expected note, got %q", got.Note)
		}
		if got.IPAddress != "10.0.0.1" {
			t.Errorf("expected ip 10.0.0.1, got %s", got.IPAddress)
		}
	})

	t.Run("clips_client_metadata", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)

		entry := svc.Record(RecordInput{
			EntityType: "orders",
			EntityID:   3,
			Operation:  models.OperationCreate,
			Actor: Actor{
				IP:        strings.Repeat("f", 60),
				UserAgent: strings.Repeat("x", 399) + "é",
			},
			After: map[string]any{"a": 1},
		})
		if entry == nil {
			t.Fatal("expected entry to be recorded")
		}

		got, err := svc.GetEntry(entry.ID)
		testutil.AssertNoError(t, err)
		if len(got.IPAddress) != 45 {
			t.Errorf("expected ip clipped to 45, got %d", len(got.IPAddress))
		}
		if len(got.UserAgent) != 255 || !utf8.ValidString(got.UserAgent) {
			t.Errorf("expected valid user agent of 255 bytes, got %d", len(got.UserAgent))
		}
	})

	t.Run("create_lists_all_keys", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)

		entry := svc.Record(RecordInput{
			EntityType: "materials",
			EntityID:   1,
			Operation:  models.OperationCreate,
			After:      map[string]any{"name": "Pine", "unit": "m2"},
		})
		if entry == nil {
			t.Fatal("expected entry to be recorded")
		}
		fields := entry.FieldList()
		if len(fields) != 2 || fields[0] != "name" || fields[1] != "unit" {
			t.Errorf("expected [name unit], got %v", fields)
		}
		if entry.ActorID != nil {
			t.Error("expected no actor for anonymous operation")
		}
	})

	t.Run("delete_lists_no_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)

		entry := svc.Record(RecordInput{
			EntityType: "materials",
			EntityID:   1,
			Operation:  models.OperationDelete,
			Before:     map[string]any{"name": "Pine"},
		})
		if entry == nil {
			t.Fatal("expected entry to be recorded")
		}
		if fields := entry.FieldList(); len(fields) != 0 {
			t.Errorf("expected no changed fields, got %v", fields)
		}
	})

	t.Run("write_failure_is_swallowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)
		if err := db.Migrator().DropTable(&models.AuditEntry{}); err != nil {
			t.Fatalf("failed to drop audit table: %v", err)
		}

		entry := svc.Record(RecordInput{
			EntityType: "orders",
			EntityID:   1,
			Operation:  models.OperationCreate,
			After:      map[string]any{"a": 1},
		})
		if entry != nil {
			t.Error("expected nil entry when the write fails")
		}
	})

	t.Run("entries_are_immutable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)

		entry := svc.Record(RecordInput{EntityType: "orders", EntityID: 1, Operation: models.OperationCreate})
		if entry == nil {
			t.Fatal("expected entry to be recorded")
		}

		entry.Note = "tampered"
		if err := db.Save(entry).Error; err == nil {
			t.Error("expected update of an audit entry to fail")
		}
		if err := db.Delete(entry).Error; err == nil {
			t.Error("expected delete of an audit entry to fail")
		}

		got, err := svc.GetEntry(entry.ID)
		testutil.AssertNoError(t, err)
		if got.Note != "" {
			t.Errorf("expected note unchanged, got %q", got.Note)
		}
	})
}

func TestAuditQueries(t *testing.T) {
	t.Run("list_filters_and_orders_newest_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)
		user := testutil.CreateTestUser(t, db)

		svc.Record(RecordInput{EntityType: "orders", EntityID: 1, Operation: models.OperationCreate, Actor: actorFor(user)})
		svc.Record(RecordInput{EntityType: "orders", EntityID: 1, Operation: models.OperationUpdate, Actor: actorFor(user)})
		svc.Record(RecordInput{EntityType: "materials", EntityID: 2, Operation: models.OperationCreate})

		resp, err := svc.ListEntries(AuditFilter{EntityType: "orders"}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 2 {
			t.Fatalf("expected 2 order entries, got %d", resp.TotalItems)
		}
		if resp.Data[0].Operation != models.OperationUpdate {
			t.Errorf("expected newest entry first, got %s", resp.Data[0].Operation)
		}

		resp, err = svc.ListEntries(AuditFilter{ActorID: &user.ID}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 2 {
			t.Errorf("expected 2 entries by actor, got %d", resp.TotalItems)
		}

		resp, err = svc.ListEntries(AuditFilter{Operation: models.OperationCreate}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 2 {
			t.Errorf("expected 2 CREATE entries, got %d", resp.TotalItems)
		}

		future := time.Now().Add(time.Hour)
		resp, err = svc.ListEntries(AuditFilter{From: &future}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 0 {
			t.Errorf("expected no entries after now, got %d", resp.TotalItems)
		}
	})

	t.Run("entity_history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)

		svc.Record(RecordInput{EntityType: "orders", EntityID: 1, Operation: models.OperationCreate})
		svc.Record(RecordInput{EntityType: "orders", EntityID: 1, Operation: models.OperationDelete})
		svc.Record(RecordInput{EntityType: "orders", EntityID: 2, Operation: models.OperationCreate})

		entries, err := svc.EntityHistory("orders", 1)
		testutil.AssertNoError(t, err)
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].Operation != models.OperationDelete {
			t.Errorf("expected newest first, got %s", entries[0].Operation)
		}
	})

	t.Run("get_missing_entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)

		_, err := svc.GetEntry(99999)
		testutil.AssertAppError(t, err, "AUDIT_ENTRY_NOT_FOUND")
	})

	t.Run("statistics", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)
		user := testutil.CreateTestUser(t, db)

		svc.Record(RecordInput{EntityType: "orders", EntityID: 1, Operation: models.OperationCreate, Actor: actorFor(user)})
		svc.Record(RecordInput{EntityType: "orders", EntityID: 1, Operation: models.OperationUpdate, Actor: actorFor(user)})
		svc.Record(RecordInput{EntityType: "materials", EntityID: 1, Operation: models.OperationCreate})

		stats, err := svc.Statistics(time.Now())
		testutil.AssertNoError(t, err)

		if stats.PeriodDays != 30 {
			t.Errorf("expected 30 day period, got %d", stats.PeriodDays)
		}
		if stats.TotalEntries != 3 {
			t.Errorf("expected 3 entries, got %d", stats.TotalEntries)
		}
		if len(stats.ByOperation) == 0 || stats.ByOperation[0].Label != string(models.OperationCreate) || stats.ByOperation[0].Count != 2 {
			t.Errorf("expected CREATE=2 first, got %+v", stats.ByOperation)
		}
		if len(stats.ByEntityType) == 0 || stats.ByEntityType[0].Label != "orders" {
			t.Errorf("expected orders first, got %+v", stats.ByEntityType)
		}
		if len(stats.ByActor) != 2 {
			t.Errorf("expected 2 actor buckets, got %+v", stats.ByActor)
		}
		if len(stats.Daily) != 7 {
			t.Fatalf("expected 7 daily buckets, got %d", len(stats.Daily))
		}
		today := time.Now().UTC().Format("2006-01-02")
		if last := stats.Daily[6]; last.Date != today || last.Count != 3 {
			t.Errorf("expected today's bucket last with 3 entries, got %+v", last)
		}
		if stats.Daily[0].Date >= stats.Daily[6].Date {
			t.Error("expected histogram ordered oldest first")
		}
	})

	t.Run("report_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)

		svc.Record(RecordInput{EntityType: "orders", EntityID: 1, Operation: models.OperationCreate})
		svc.Record(RecordInput{EntityType: "orders", EntityID: 2, Operation: models.OperationCreate})

		entries, err := svc.Report(nil, nil)
		testutil.AssertNoError(t, err)
		if len(entries) != 2 {
			t.Errorf("expected 2 entries, got %d", len(entries))
		}

		past := time.Now().Add(-time.Hour)
		entries, err = svc.Report(nil, &past)
		testutil.AssertNoError(t, err)
		if len(entries) != 0 {
			t.Errorf("expected no entries before an hour ago, got %d", len(entries))
		}
	})
}
