// Package storage persists completed budget estimates so past runs can be
// listed after the fact. The core calculation never depends on it; a failed
// write is logged and swallowed upstream.
package storage

import (
	"context"
	"time"
)

// EstimateRecord is one completed estimation run.
type EstimateRecord struct {
	ID                 int64
	GrossIncome        string
	Location           string
	FilingStatus       string
	NetIncomeCents     int64
	TotalTaxCents      int64
	TotalExpensesCents int64
	RemainingCents     int64
	Analysis           string
	CreatedAt          time.Time
}

// HistoryStore is the port for estimate history persistence.
type HistoryStore interface {
	// Append stores a completed estimate and returns its assigned id.
	Append(ctx context.Context, rec EstimateRecord) (int64, error)

	// List returns the most recent estimates, newest first, up to limit.
	List(ctx context.Context, limit int) ([]EstimateRecord, error)

	// Close releases any underlying resources.
	Close() error
}
