package core

import (
	"errors"
	"strings"
)

const (
	Single                  FilingStatus = "single"
	MarriedFilingJointly    FilingStatus = "married_filing_jointly"
	MarriedFilingSeparately FilingStatus = "married_filing_separately"
	HeadOfHousehold         FilingStatus = "head_of_household"
)

type (
	FilingStatus string

	Money struct {
		Cents int64
	}

	// ExpenseEntry is one line of the user's monthly budget. Amount is kept as
	// the raw decimal string the user typed; parsing happens at aggregation
	// time so a half-typed entry stays visible without breaking totals.
	ExpenseEntry struct {
		ID     string
		Name   string
		Amount string
	}

	// ValidationResult is derived from the current income/location/expense
	// state, never stored.
	ValidationResult struct {
		TotalExpenses Money
		IsFormValid   bool
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidIncome       = errors.New("income must be a positive number")
	ErrEmptyLocation       = errors.New("empty location")
	ErrInvalidFilingStatus = errors.New("invalid filing status")
)

// FilingStatuses lists the accepted filing statuses in display order.
func FilingStatuses() []FilingStatus {
	return []FilingStatus{Single, MarriedFilingJointly, MarriedFilingSeparately, HeadOfHousehold}
}

func (fs FilingStatus) IsValid() bool {
	switch fs {
	case Single, MarriedFilingJointly, MarriedFilingSeparately, HeadOfHousehold:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer
func (fs FilingStatus) String() string {
	return string(fs)
}

// ValidateInput is the submission gate: gross income must parse to a number
// greater than zero and location must be non-empty after trimming. Expense
// validity never blocks submission; a budget with zero valid expenses is legal.
func ValidateInput(grossIncome, location string) error {
	cents, err := ParseSignedCents(grossIncome)
	if err != nil || cents <= 0 {
		return ErrInvalidIncome
	}
	if strings.TrimSpace(location) == "" {
		return ErrEmptyLocation
	}
	return nil
}

// InputValid reports whether ValidateInput would accept the pair.
func InputValid(grossIncome, location string) bool {
	return ValidateInput(grossIncome, location) == nil
}
