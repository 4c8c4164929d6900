package models

import "testing"

func TestTransitionAllowed(t *testing.T) {
	allowed := [][2]OrderStatus{
		{OrderStatusDraft, OrderStatusReserved},
		{OrderStatusDraft, OrderStatusCancelled},
		{OrderStatusReserved, OrderStatusCheckedOut},
		{OrderStatusReserved, OrderStatusCancelled},
		{OrderStatusCheckedOut, OrderStatusReturned},
	}
	for _, pair := range allowed {
		if !transitionAllowed(pair[0], pair[1]) {
			t.Fatalf("%s -> %s should be allowed", pair[0], pair[1])
		}
	}

	forbidden := [][2]OrderStatus{
		{OrderStatusDraft, OrderStatusCheckedOut},
		{OrderStatusDraft, OrderStatusReturned},
		{OrderStatusReserved, OrderStatusDraft},
		{OrderStatusCheckedOut, OrderStatusCancelled},
		{OrderStatusReturned, OrderStatusDraft},
		{OrderStatusReturned, OrderStatusReserved},
		{OrderStatusCancelled, OrderStatusDraft},
		{OrderStatusCancelled, OrderStatusReserved},
	}
	for _, pair := range forbidden {
		if transitionAllowed(pair[0], pair[1]) {
			t.Fatalf("%s -> %s should be forbidden", pair[0], pair[1])
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusReturned, OrderStatusCancelled} {
		if !status.IsTerminal() {
			t.Fatalf("%s should be terminal", status)
		}
		if len(allowedTransitions[status]) != 0 {
			t.Fatalf("%s should have no outgoing transitions", status)
		}
	}
}

func TestMovementReasonForTransition(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		reason   MovementReason
		emits    bool
	}{
		{OrderStatusDraft, OrderStatusReserved, MovementReasonReserve, true},
		{OrderStatusReserved, OrderStatusCheckedOut, MovementReasonCheckout, true},
		{OrderStatusCheckedOut, OrderStatusReturned, MovementReasonReturn, true},
		{OrderStatusReserved, OrderStatusCancelled, MovementReasonRelease, true},
		// A draft never held stock, so cancelling it leaves no trace.
		{OrderStatusDraft, OrderStatusCancelled, "", false},
	}
	for _, tc := range cases {
		reason, emits := movementReasonFor(tc.from, tc.to)
		if emits != tc.emits {
			t.Fatalf("%s -> %s: emits = %v, want %v", tc.from, tc.to, emits, tc.emits)
		}
		if emits && reason != tc.reason {
			t.Fatalf("%s -> %s: reason = %s, want %s", tc.from, tc.to, reason, tc.reason)
		}
	}
}

func TestRequiresAvailabilityCheck(t *testing.T) {
	if !requiresAvailabilityCheck(OrderStatusReserved) || !requiresAvailabilityCheck(OrderStatusCheckedOut) {
		t.Fatal("stock-holding statuses must re-check availability")
	}
	for _, status := range []OrderStatus{OrderStatusDraft, OrderStatusReturned, OrderStatusCancelled} {
		if requiresAvailabilityCheck(status) {
			t.Fatalf("%s should not trigger an availability check", status)
		}
	}
}
