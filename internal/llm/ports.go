// Package llm defines the typed interface to the remote natural-language
// estimation service: one structured call for net-income estimation and one
// free-text call for the narrative budget analysis.
package llm

import (
	"context"
	"fmt"

	"bilancio/internal/core"
)

// Stage identifies which remote operation produced an error.
type Stage string

const (
	StageTax      Stage = "tax"
	StageAnalysis Stage = "analysis"
)

// Ports for the estimation service. Both operations are pure remote calls:
// no local side effects and no internal retries. Retry policy, if any,
// belongs to the caller.
type (
	TaxEstimator interface {
		EstimateNetIncome(ctx context.Context, req EstimationRequest) (TaxEstimate, error)
	}

	BudgetAnalyst interface {
		AnalyzeBudget(ctx context.Context, req AnalysisRequest) (string, error)
	}

	// Estimator is the full client surface the orchestrator consumes.
	Estimator interface {
		TaxEstimator
		BudgetAnalyst
	}
)

// EstimationRequest carries the inputs for the net-income estimation call.
type EstimationRequest struct {
	GrossMonthlyIncome string
	Location           string
	FilingStatus       core.FilingStatus
}

// TaxEstimate is the service's structured response. It is trusted to match
// this shape once decoded; no range or sign checks are applied to the values.
type TaxEstimate struct {
	NetIncome  float64
	TotalTax   float64
	Disclaimer string
}

// AnalysisRequest carries the full financial picture for the narrative call.
// ValidExpenses keeps display order and uses the loose non-empty filter, so
// entries with unparseable amounts are still itemized.
type AnalysisRequest struct {
	GrossIncome      string
	NetIncome        core.Money
	Location         string
	ValidExpenses    []core.ExpenseEntry
	TotalExpenses    core.Money
	RemainingBalance core.Money
}

// EstimationError wraps a failed remote call with the stage it failed in.
// Transport errors, timeouts, malformed structured responses, and empty
// narratives all surface as this type.
type EstimationError struct {
	Stage Stage
	Err   error
}

func (e *EstimationError) Error() string {
	return fmt.Sprintf("estimation failed at %s stage: %v", e.Stage, e.Err)
}

func (e *EstimationError) Unwrap() error {
	return e.Err
}

// NewEstimationError wraps err for the given stage.
func NewEstimationError(stage Stage, err error) *EstimationError {
	return &EstimationError{Stage: stage, Err: err}
}
