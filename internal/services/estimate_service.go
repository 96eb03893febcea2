// Package services composes the orchestrator with history persistence and
// event publishing.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/orchestrator"
	"bilancio/internal/storage"
)

// EstimateService runs calculations and records completed ones. Persistence
// and publishing are side channels: their failures are logged, never
// surfaced to the user, and never fail the calculation itself.
type EstimateService struct {
	orch       *orchestrator.Orchestrator
	history    storage.HistoryStore
	amqpClient *amqp.Client
}

func NewEstimateService(orch *orchestrator.Orchestrator, history storage.HistoryStore, amqpClient *amqp.Client) *EstimateService {
	return &EstimateService{
		orch:       orch,
		history:    history,
		amqpClient: amqpClient,
	}
}

// Orchestrator exposes the underlying orchestrator for snapshot reads and
// subscriptions.
func (s *EstimateService) Orchestrator() *orchestrator.Orchestrator {
	return s.orch
}

// Run executes one calculation and, on completion, stores the estimate and
// publishes a completion event.
func (s *EstimateService) Run(ctx context.Context, in orchestrator.Input) (orchestrator.Snapshot, error) {
	snap, err := s.orch.Calculate(ctx, in)
	if err != nil {
		return snap, err
	}

	totalExpenses := s.orch.Ledger().Total()
	rec := storage.EstimateRecord{
		GrossIncome:        in.GrossMonthlyIncome,
		Location:           in.Location,
		FilingStatus:       in.FilingStatus.String(),
		NetIncomeCents:     snap.NetIncome.Cents,
		TotalTaxCents:      snap.TotalTax.Cents,
		TotalExpensesCents: totalExpenses.Cents,
		RemainingCents:     snap.NetIncome.Cents - totalExpenses.Cents,
		Analysis:           snap.AnalysisText,
	}

	id, err := s.history.Append(ctx, rec)
	if err != nil {
		// The estimate already succeeded; history is best-effort.
		slog.ErrorContext(ctx, "Failed to persist estimate", "error", err)
		return snap, nil
	}

	if err := s.publishCompleted(ctx, id, rec); err != nil {
		slog.ErrorContext(ctx, "Failed to publish estimate completed message",
			"id", id, "error", err)
	}

	return snap, nil
}

// History lists the most recent stored estimates, newest first.
func (s *EstimateService) History(ctx context.Context, limit int) ([]storage.EstimateRecord, error) {
	return s.history.List(ctx, limit)
}

func (s *EstimateService) publishCompleted(ctx context.Context, id int64, rec storage.EstimateRecord) error {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping completed message")
		return nil
	}

	msg := amqp.NewEstimateCompletedMessage(id, rec.Location, rec.NetIncomeCents, rec.RemainingCents)
	return s.amqpClient.PublishEstimateCompleted(ctx, msg)
}

// Close closes both storage and AMQP connections
func (s *EstimateService) Close() error {
	var errs []error

	if s.history != nil {
		if err := s.history.Close(); err != nil {
			errs = append(errs, fmt.Errorf("history: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close estimate service: %v", errs)
	}

	return nil
}
