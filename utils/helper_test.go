package utils

import "testing"

func TestValidatePhoneNumber(t *testing.T) {
	cases := []struct {
		name    string
		phone   string
		region  string
		wantErr bool
	}{
		{"e164", "+14155552671", "US", false},
		{"national format", "(415) 555-2671", "US", false},
		{"e164 overrides default region", "+14155552671", "MM", false},
		{"too short", "12345", "US", true},
		{"not a number", "not-a-phone", "US", true},
		{"empty", "", "US", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePhoneNumber(tc.phone, tc.region)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidatePhoneNumber(%q, %q) error = %v, wantErr %v", tc.phone, tc.region, err, tc.wantErr)
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	if !IsValidEmail("clerk@example.com") {
		t.Fatal("well-formed address rejected")
	}
	if IsValidEmail("not-an-email") {
		t.Fatal("malformed address accepted")
	}
}
