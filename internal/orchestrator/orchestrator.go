// Package orchestrator drives the two-stage budget estimation workflow:
// validate input, estimate net income, then request a narrative analysis.
// Consumers observe progress through immutable snapshots delivered to
// subscribers at every phase transition.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/llm"
	"bilancio/internal/log"
)

// Phase is a named state of the calculation lifecycle.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseValidating      Phase = "validating"
	PhaseEstimatingTax   Phase = "estimating_tax"
	PhaseAnalyzingBudget Phase = "analyzing_budget"
	PhaseComplete        Phase = "complete"
	PhaseErrored         Phase = "errored"
)

// User-facing messages. Stage errors are collapsed into one generic message;
// the originating detail goes to the logs only.
const (
	MsgInvalidInput     = "Fill in income, location, and at least one valid expense."
	MsgEstimationFailed = "An error occurred during analysis. Please check your inputs and try again."

	statusEstimating = "Estimating taxes..."
	statusAnalyzing  = "Analyzing budget..."
)

var (
	// ErrCalculationInFlight is returned when Calculate is invoked while a
	// prior run is still outstanding. Overlapping runs are rejected rather
	// than interleaved; the single snapshot cannot represent two flows.
	ErrCalculationInFlight = errors.New("calculation already in flight")

	// ErrInvalidInput wraps validation failures surfaced before any remote
	// call is made.
	ErrInvalidInput = errors.New("invalid input")
)

// Input is one calculation request as submitted by the presentation layer.
type Input struct {
	GrossMonthlyIncome string
	Location           string
	FilingStatus       core.FilingStatus
}

// Snapshot is an immutable view of the orchestrator state. A new value is
// produced at every phase transition; consumers never observe a snapshot
// mid-write. HasEstimate distinguishes "net income is zero" from "no
// estimate stored".
type Snapshot struct {
	Phase         Phase
	ShowResults   bool
	LoadingStatus string
	NetIncome     core.Money
	TotalTax      core.Money
	HasEstimate   bool
	Disclaimer    string
	AnalysisText  string
	ErrorMessage  string
}

// Terminal reports whether the snapshot is in a terminal phase.
func (s Snapshot) Terminal() bool {
	return s.Phase == PhaseComplete || s.Phase == PhaseErrored
}

// Orchestrator sequences the two dependent remote calls and owns the result
// snapshot exposed to the presentation layer.
type Orchestrator struct {
	estimator llm.Estimator
	ledger    *ledger.Ledger
	logger    *log.Logger

	inFlight atomic.Bool

	mu          sync.Mutex
	latest      Snapshot
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// New creates an orchestrator in the Idle phase.
func New(estimator llm.Estimator, l *ledger.Ledger, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentOrchestrator)
	}
	return &Orchestrator{
		estimator:   estimator,
		ledger:      l,
		logger:      logger,
		latest:      Snapshot{Phase: PhaseIdle},
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Latest returns the most recent snapshot.
func (o *Orchestrator) Latest() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.latest
}

// Ledger returns the expense ledger backing this orchestrator.
func (o *Orchestrator) Ledger() *ledger.Ledger {
	return o.ledger
}

// Subscribe registers fn to receive every snapshot from now on. The returned
// function cancels the subscription. Callbacks run synchronously on the
// calculating goroutine and must not block.
func (o *Orchestrator) Subscribe(fn func(Snapshot)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextSubID
	o.nextSubID++
	o.subscribers[id] = fn

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subscribers, id)
	}
}

// Calculate runs one full estimation: validation, tax estimation, then
// budget analysis. The two remote calls are strictly sequential; the second
// depends on the first's result. Every failure is terminal for the
// invocation, leaves the state Errored with no partial result visible, and
// is never retried. A second Calculate while one is outstanding returns
// ErrCalculationInFlight without touching state.
func (o *Orchestrator) Calculate(ctx context.Context, in Input) (Snapshot, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return o.Latest(), ErrCalculationInFlight
	}
	defer o.inFlight.Store(false)

	// Validating: the gate is income and location only; expense validity
	// never blocks submission.
	prev := o.Latest()
	prev.Phase = PhaseValidating
	o.transition(prev)

	if err := core.ValidateInput(in.GrossMonthlyIncome, in.Location); err != nil {
		snap := Snapshot{
			Phase:        PhaseErrored,
			ShowResults:  false,
			ErrorMessage: MsgInvalidInput,
		}
		o.transition(snap)
		return snap, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !in.FilingStatus.IsValid() {
		snap := Snapshot{
			Phase:        PhaseErrored,
			ShowResults:  false,
			ErrorMessage: MsgInvalidInput,
		}
		o.transition(snap)
		return snap, fmt.Errorf("%w: %v", ErrInvalidInput, core.ErrInvalidFilingStatus)
	}

	// EstimatingTax: prior results are cleared so stale values can never be
	// displayed as current, and ShowResults goes true eagerly so the
	// presentation layer renders its pending view before data arrives.
	o.transition(Snapshot{
		Phase:         PhaseEstimatingTax,
		ShowResults:   true,
		LoadingStatus: statusEstimating,
	})

	estimate, err := o.estimator.EstimateNetIncome(ctx, llm.EstimationRequest{
		GrossMonthlyIncome: in.GrossMonthlyIncome,
		Location:           in.Location,
		FilingStatus:       in.FilingStatus,
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "Tax estimation failed",
			log.FieldOperation, log.OpEstimate,
			log.FieldLocation, in.Location,
			log.FieldError, err.Error())
		snap := Snapshot{
			Phase:        PhaseErrored,
			ShowResults:  false,
			ErrorMessage: MsgEstimationFailed,
		}
		o.transition(snap)
		return snap, err
	}

	netIncome := core.MoneyFromFloat(estimate.NetIncome)
	totalTax := core.MoneyFromFloat(estimate.TotalTax)

	// The ledger total is recomputed here, not captured at submission time;
	// if the ledger changed mid-flight the latest total wins.
	totalExpenses := o.ledger.Total()
	remaining := core.Money{Cents: netIncome.Cents - totalExpenses.Cents}

	o.transition(Snapshot{
		Phase:         PhaseAnalyzingBudget,
		ShowResults:   true,
		LoadingStatus: statusAnalyzing,
		NetIncome:     netIncome,
		TotalTax:      totalTax,
		HasEstimate:   true,
		Disclaimer:    estimate.Disclaimer,
	})

	analysis, err := o.estimator.AnalyzeBudget(ctx, llm.AnalysisRequest{
		GrossIncome:      in.GrossMonthlyIncome,
		NetIncome:        netIncome,
		Location:         in.Location,
		ValidExpenses:    o.ledger.ValidForAnalysis(),
		TotalExpenses:    totalExpenses,
		RemainingBalance: remaining,
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "Budget analysis failed",
			log.FieldOperation, log.OpAnalyze,
			log.FieldLocation, in.Location,
			log.FieldError, err.Error())
		// The partial tax estimate is discarded; a half-completed result is
		// never shown.
		snap := Snapshot{
			Phase:        PhaseErrored,
			ShowResults:  false,
			ErrorMessage: MsgEstimationFailed,
		}
		o.transition(snap)
		return snap, err
	}

	snap := Snapshot{
		Phase:        PhaseComplete,
		ShowResults:  true,
		NetIncome:    netIncome,
		TotalTax:     totalTax,
		HasEstimate:  true,
		Disclaimer:   estimate.Disclaimer,
		AnalysisText: analysis,
	}
	o.transition(snap)

	o.logger.InfoContext(ctx, "Calculation complete",
		log.FieldLocation, in.Location,
		log.FieldFilingStatus, in.FilingStatus.String(),
		log.FieldAmountCents, netIncome.Cents)

	return snap, nil
}

// transition stores the snapshot and notifies subscribers. Callbacks run
// outside the lock so a subscriber may call Latest or cancel itself.
func (o *Orchestrator) transition(s Snapshot) {
	o.mu.Lock()
	o.latest = s
	fns := make([]func(Snapshot), 0, len(o.subscribers))
	for _, fn := range o.subscribers {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
