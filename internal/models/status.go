package models

import "time"

// DeriveStatus returns the status an order should carry on the given day.
// Completed orders never change. Otherwise an exit date in the past yields
// overdue, an exit date of today yields dueToday, and anything else keeps
// the stored status. Exit dates are stored as UTC midnights; today is
// compared by its own wall-clock date.
func DeriveStatus(status OrderStatus, exitDate *time.Time, today time.Time) OrderStatus {
	if status == StatusCompleted || exitDate == nil {
		return status
	}

	exit := CalendarDay(exitDate.UTC())
	day := CalendarDay(today.UTC())

	switch {
	case exit.Before(day):
		return StatusOverdue
	case exit.Equal(day):
		return StatusDueToday
	default:
		return status
	}
}

// CalendarDay truncates t to midnight UTC of the same wall-clock date.
func CalendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
