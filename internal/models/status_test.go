package models

import (
	"testing"
	"time"
)

func TestDeriveStatus(t *testing.T) {
	today := time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)
	yesterday := time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC)
	sameDay := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2024, time.March, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		status   OrderStatus
		exitDate *time.Time
		want     OrderStatus
	}{
		{name: "past_exit_date_is_overdue", status: StatusReceived, exitDate: &yesterday, want: StatusOverdue},
		{name: "exit_date_today_is_due_today", status: StatusReceived, exitDate: &sameDay, want: StatusDueToday},
		{name: "future_exit_date_unchanged", status: StatusReceived, exitDate: &tomorrow, want: StatusReceived},
		{name: "future_keeps_in_progress", status: StatusInProgress, exitDate: &tomorrow, want: StatusInProgress},
		{name: "completed_never_overridden_past", status: StatusCompleted, exitDate: &yesterday, want: StatusCompleted},
		{name: "completed_never_overridden_today", status: StatusCompleted, exitDate: &sameDay, want: StatusCompleted},
		{name: "due_today_becomes_overdue_next_day", status: StatusDueToday, exitDate: &yesterday, want: StatusOverdue},
		{name: "no_exit_date_unchanged", status: StatusInProgress, exitDate: nil, want: StatusInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(tt.status, tt.exitDate, today)
			if got != tt.want {
				t.Errorf("DeriveStatus(%s) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestDeriveStatus_Idempotent(t *testing.T) {
	today := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
	exit := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	first := DeriveStatus(StatusReceived, &exit, today)
	second := DeriveStatus(first, &exit, today)
	if first != second {
		t.Errorf("expected idempotent derivation, got %s then %s", first, second)
	}
}

func TestCalendarDay_IgnoresLocation(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	late := time.Date(2024, time.March, 15, 23, 0, 0, 0, loc)

	got := CalendarDay(late)
	want := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("CalendarDay = %v, want %v", got, want)
	}
}

func TestOrderItemSubtotalAndTotal(t *testing.T) {
	order := &Order{Items: []OrderItem{
		{Quantity: 2, UnitPrice: 1050},
		{Quantity: 1.5, UnitPrice: 333},
	}}
	for i := range order.Items {
		order.Items[i].ComputeSubtotal()
	}
	order.RecomputeTotal()

	if order.Items[0].Subtotal != 2100 {
		t.Errorf("expected subtotal 2100, got %d", order.Items[0].Subtotal)
	}
	// 1.5 * 333 = 499.5 rounds half away from zero
	if order.Items[1].Subtotal != 500 {
		t.Errorf("expected subtotal 500, got %d", order.Items[1].Subtotal)
	}
	if order.Total != 2600 {
		t.Errorf("expected total 2600, got %d", order.Total)
	}
}

func TestMaterialStockStatus(t *testing.T) {
	tests := []struct {
		stock, minimum float64
		want           StockStatus
	}{
		{0, 5, StockEmpty},
		{3, 5, StockLow},
		{5, 5, StockLow},
		{6, 5, StockNormal},
	}
	for _, tt := range tests {
		m := &Material{Stock: tt.stock, MinimumStock: tt.minimum}
		if got := m.StockStatus(); got != tt.want {
			t.Errorf("StockStatus(stock=%v, min=%v) = %s, want %s", tt.stock, tt.minimum, got, tt.want)
		}
	}
}

func TestSessionIsValid(t *testing.T) {
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	s := &Session{IsActive: true, ExpiresAt: now.Add(time.Minute)}

	if !s.IsValid(now) {
		t.Error("expected active unexpired session to be valid")
	}
	if s.IsValid(now.Add(time.Minute)) {
		t.Error("expected session to be invalid at its expiry instant")
	}
	s.IsActive = false
	if s.IsValid(now) {
		t.Error("expected inactive session to be invalid")
	}
}

func TestOrderItemSubtotalOverflow(t *testing.T) {
	item := OrderItem{Quantity: 1e17, UnitPrice: 100000, Subtotal: 42}
	if item.ComputeSubtotal() {
		t.Fatal("expected oversized subtotal to be rejected")
	}
	if item.Subtotal != 42 {
		t.Errorf("expected subtotal untouched, got %d", item.Subtotal)
	}

	item = OrderItem{Quantity: 1000, UnitPrice: MaxLineAmount / 1000}
	if !item.ComputeSubtotal() || item.Subtotal != MaxLineAmount {
		t.Errorf("expected subtotal at the cap to be accepted, got %d", item.Subtotal)
	}
}

func TestDeriveStatus_UsesUTCDay(t *testing.T) {
	// 23:00 on the 15th at UTC-3 is already the 16th in UTC.
	today := time.Date(2024, time.March, 15, 23, 0, 0, 0, time.FixedZone("UTC-3", -3*60*60))
	exit := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	if got := DeriveStatus(StatusReceived, &exit, today); got != StatusOverdue {
		t.Errorf("expected overdue on the UTC day, got %s", got)
	}
}
