package models

import (
	"testing"
	"time"
)

func day(d int) *time.Time {
	t := time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestValidateWindow_SimpleForm(t *testing.T) {
	input := &NewOrder{StartDate: day(1), ReturnDueDate: day(5)}
	if err := input.validateWindow(); err != nil {
		t.Fatalf("valid simple window rejected: %v", err)
	}

	input = &NewOrder{StartDate: day(5), ReturnDueDate: day(1)}
	if err := input.validateWindow(); err == nil {
		t.Fatal("return due date before start date should be rejected")
	}

	input = &NewOrder{StartDate: day(1)}
	if err := input.validateWindow(); err == nil {
		t.Fatal("simple window with a missing date should be rejected")
	}

	// Same-day rental is a one-day hold.
	input = &NewOrder{StartDate: day(3), ReturnDueDate: day(3)}
	if err := input.validateWindow(); err != nil {
		t.Fatalf("same-day simple window rejected: %v", err)
	}
}

func TestValidateWindow_ExtendedForm(t *testing.T) {
	input := &NewOrder{
		SetupStartDate: day(1),
		OrderStartDate: day(2),
		OrderEndDate:   day(6),
		CleanupEndDate: day(7),
	}
	if err := input.validateWindow(); err != nil {
		t.Fatalf("valid extended window rejected: %v", err)
	}

	input = &NewOrder{OrderStartDate: day(2), OrderEndDate: day(2)}
	if err := input.validateWindow(); err == nil {
		t.Fatal("order end must strictly follow order start")
	}

	input = &NewOrder{SetupStartDate: day(3), OrderStartDate: day(2), OrderEndDate: day(6)}
	if err := input.validateWindow(); err == nil {
		t.Fatal("setup after order start should be rejected")
	}

	input = &NewOrder{OrderStartDate: day(2), OrderEndDate: day(6), CleanupEndDate: day(5)}
	if err := input.validateWindow(); err == nil {
		t.Fatal("cleanup before order end should be rejected")
	}
}

func TestValidateWindow_MixedOrMissingForms(t *testing.T) {
	input := &NewOrder{StartDate: day(1), OrderEndDate: day(5)}
	if err := input.validateWindow(); err == nil {
		t.Fatal("mixed simple and extended windows should be rejected")
	}

	input = &NewOrder{}
	if err := input.validateWindow(); err == nil {
		t.Fatal("order without any window should be rejected")
	}
}

func TestEffectiveWindowCoalescing(t *testing.T) {
	// Extended form: setup/cleanup bound the stock-holding window.
	order := &Order{
		SetupStartDate: day(1),
		OrderStartDate: day(2),
		OrderEndDate:   day(6),
		CleanupEndDate: day(7),
	}
	if !order.EffectiveStart().Equal(*day(1)) {
		t.Fatalf("EffectiveStart = %v, want setup start", order.EffectiveStart())
	}
	if !order.EffectiveEnd().Equal(*day(7)) {
		t.Fatalf("EffectiveEnd = %v, want cleanup end", order.EffectiveEnd())
	}

	// No setup/cleanup: order dates win.
	order = &Order{OrderStartDate: day(2), OrderEndDate: day(6)}
	if !order.EffectiveStart().Equal(*day(2)) || !order.EffectiveEnd().Equal(*day(6)) {
		t.Fatal("order dates should bound the window when setup/cleanup are absent")
	}

	// Simple form falls back to start/return due.
	order = &Order{StartDate: day(3), ReturnDueDate: day(9)}
	if !order.EffectiveStart().Equal(*day(3)) || !order.EffectiveEnd().Equal(*day(9)) {
		t.Fatal("simple dates should bound the window")
	}

	if (&Order{}).HasWindow() {
		t.Fatal("order without dates has no window")
	}
}

func TestChargeDaysExcludesSetupAndCleanup(t *testing.T) {
	order := &Order{
		SetupStartDate: day(1),
		OrderStartDate: day(2),
		OrderEndDate:   day(6),
		CleanupEndDate: day(8),
	}
	// Billable days run order start through order end inclusive.
	if got := order.ChargeDays(); got != 5 {
		t.Fatalf("ChargeDays = %d, want 5", got)
	}

	order = &Order{StartDate: day(3), ReturnDueDate: day(3)}
	if got := order.ChargeDays(); got != 1 {
		t.Fatalf("ChargeDays = %d, want 1 for a same-day rental", got)
	}

	if got := (&Order{}).ChargeDays(); got != 1 {
		t.Fatalf("ChargeDays = %d, want minimum of 1", got)
	}
}
