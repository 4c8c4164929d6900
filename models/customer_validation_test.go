package models

import (
	"context"
	"errors"
	"testing"
)

// Format checks run before the uniqueness query, so malformed input is
// rejected without touching the database.
func TestNewCustomerValidateRejectsBadContactDetails(t *testing.T) {
	ctx := context.Background()

	var vErr *ValidationError

	input := &NewCustomer{Name: "Acme Events", Phone: "not-a-phone"}
	err := input.validate(ctx, "biz-1", 0)
	if !errors.As(err, &vErr) {
		t.Fatalf("validate(bad phone) error = %v, want ValidationError", err)
	}

	input = &NewCustomer{Name: "Acme Events", Phone: "12345"}
	if err := input.validate(ctx, "biz-1", 0); !errors.As(err, &vErr) {
		t.Fatalf("validate(short phone) error = %v, want ValidationError", err)
	}

	input = &NewCustomer{Name: "Acme Events", Email: "not-an-email"}
	if err := input.validate(ctx, "biz-1", 0); !errors.As(err, &vErr) {
		t.Fatalf("validate(bad email) error = %v, want ValidationError", err)
	}
}
