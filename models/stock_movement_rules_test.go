package models

import "testing"

func orderRef(id int) *int { return &id }

func TestValidateMovement_ReasonRules(t *testing.T) {
	cases := []struct {
		name string
		m    StockMovement
		ok   bool
	}{
		{"checkout negative with order", StockMovement{Reason: MovementReasonCheckout, Delta: -3, OrderId: orderRef(5)}, true},
		{"checkout positive rejected", StockMovement{Reason: MovementReasonCheckout, Delta: 3, OrderId: orderRef(5)}, false},
		{"checkout without order rejected", StockMovement{Reason: MovementReasonCheckout, Delta: -3}, false},
		{"reserve negative with order", StockMovement{Reason: MovementReasonReserve, Delta: -1, OrderId: orderRef(5)}, true},
		{"return positive with order", StockMovement{Reason: MovementReasonReturn, Delta: 2, OrderId: orderRef(5)}, true},
		{"return negative rejected", StockMovement{Reason: MovementReasonReturn, Delta: -2, OrderId: orderRef(5)}, false},
		{"release positive with order", StockMovement{Reason: MovementReasonRelease, Delta: 4, OrderId: orderRef(5)}, true},
		{"loss negative without order", StockMovement{Reason: MovementReasonLoss, Delta: -1}, true},
		{"loss with order rejected", StockMovement{Reason: MovementReasonLoss, Delta: -1, OrderId: orderRef(5)}, false},
		{"found positive without order", StockMovement{Reason: MovementReasonFound, Delta: 1}, true},
		{"repair either sign", StockMovement{Reason: MovementReasonRepair, Delta: -2}, true},
		{"repair positive", StockMovement{Reason: MovementReasonRepair, Delta: 2}, true},
		{"adjustment requires notes", StockMovement{Reason: MovementReasonAdjustment, Delta: 5}, false},
		{"adjustment with notes", StockMovement{Reason: MovementReasonAdjustment, Delta: -5, Notes: "recount"}, true},
		{"zero delta rejected", StockMovement{Reason: MovementReasonAdjustment, Delta: 0, Notes: "x"}, false},
		{"unknown reason rejected", StockMovement{Reason: MovementReason("shrink"), Delta: 1}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateMovement(&tc.m)
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestMovementReasonIsManual(t *testing.T) {
	manual := []MovementReason{MovementReasonAdjustment, MovementReasonRepair, MovementReasonLoss, MovementReasonFound}
	for _, r := range manual {
		if !r.IsManual() {
			t.Fatalf("%s should be manual", r)
		}
	}
	lifecycle := []MovementReason{MovementReasonCheckout, MovementReasonReturn, MovementReasonReserve, MovementReasonRelease}
	for _, r := range lifecycle {
		if r.IsManual() {
			t.Fatalf("%s should not be manual", r)
		}
	}
}
