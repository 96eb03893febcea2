package core

import (
	"errors"
	"testing"
)

func TestValidateInput(t *testing.T) {
	cases := []struct {
		name     string
		income   string
		location string
		wantErr  error
	}{
		{"valid", "5000", "Austin", nil},
		{"valid decimal", "5000.50", "Berlin", nil},
		{"zero income", "0", "Austin", ErrInvalidIncome},
		{"negative income", "-100", "Austin", ErrInvalidIncome},
		{"non-numeric income", "lots", "Austin", ErrInvalidIncome},
		{"empty income", "", "Austin", ErrInvalidIncome},
		{"empty location", "5000", "", ErrEmptyLocation},
		{"whitespace location", "5000", "   ", ErrEmptyLocation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateInput(tc.income, tc.location)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestInputValidIgnoresExpenseState(t *testing.T) {
	// The gate is income and location only.
	if !InputValid("5000", "Austin") {
		t.Fatal("expected valid input")
	}
}

func TestFilingStatusIsValid(t *testing.T) {
	for _, fs := range FilingStatuses() {
		if !fs.IsValid() {
			t.Errorf("expected %s to be valid", fs)
		}
	}
	if FilingStatus("widowed").IsValid() {
		t.Error("expected unknown status to be invalid")
	}
	if FilingStatus("").IsValid() {
		t.Error("expected empty status to be invalid")
	}
}
