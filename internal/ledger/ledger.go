// Package ledger holds the ordered, in-memory collection of expense entries
// backing a budget estimation session.
package ledger

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"bilancio/internal/core"
)

// Field names accepted by Update.
const (
	FieldName   = "name"
	FieldAmount = "amount"
)

// Ledger is an ordered collection of expense entries. Entries are mutated in
// place by id; order is display-relevant but carries no meaning for totals.
// All methods are safe for concurrent use: HTTP handlers and an in-flight
// calculation read the ledger at the same time.
type Ledger struct {
	mu      sync.RWMutex
	entries []core.ExpenseEntry
}

// New creates a ledger seeded with one default empty entry, matching the
// initial form the presentation layer renders.
func New() *Ledger {
	l := &Ledger{}
	l.Add()
	return l
}

// NewEmpty creates a ledger with no entries.
func NewEmpty() *Ledger {
	return &Ledger{}
}

// Add appends a new entry with empty name and amount and a freshly generated
// id, and returns a copy of it. The entry does not affect totals until
// populated.
func (l *Ledger) Add() core.ExpenseEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := core.ExpenseEntry{ID: newEntryID()}
	l.entries = append(l.entries, e)
	return e
}

// Remove deletes the entry with the matching id. Removing an absent id is an
// idempotent no-op.
func (l *Ledger) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// Update replaces the name or amount of the entry with the matching id. An
// unknown field is an error; an unknown id is a no-op.
func (l *Ledger) Update(id, field, value string) error {
	if field != FieldName && field != FieldAmount {
		return fmt.Errorf("unknown expense field %q", field)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.entries {
		if l.entries[i].ID != id {
			continue
		}
		if field == FieldName {
			l.entries[i].Name = value
		} else {
			l.entries[i].Amount = value
		}
		return nil
	}
	return nil
}

// Entries returns a snapshot copy of all entries in display order.
func (l *Ledger) Entries() []core.ExpenseEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]core.ExpenseEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries, valid or not.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Total sums the amounts of countable entries. An entry counts only if its
// name is non-empty after trimming and its amount is non-empty and parses as
// a number; anything else contributes zero but stays in the collection. An
// empty ledger totals zero.
func (l *Ledger) Total() core.Money {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var cents int64
	for _, e := range l.entries {
		if strings.TrimSpace(e.Name) == "" || e.Amount == "" {
			continue
		}
		v, err := core.ParseSignedCents(e.Amount)
		if err != nil {
			continue
		}
		cents += v
	}
	return core.Money{Cents: cents}
}

// ValidForAnalysis returns the entries forwarded to the budget analysis
// stage: name and amount both non-empty, in display order. This filter is
// deliberately looser than Total's numeric one; an entry with an unparseable
// amount is still itemized for the narrative.
func (l *Ledger) ValidForAnalysis() []core.ExpenseEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]core.ExpenseEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if strings.TrimSpace(e.Name) == "" || e.Amount == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Validation derives the current form state from the ledger plus the income
// and location inputs.
func (l *Ledger) Validation(grossIncome, location string) core.ValidationResult {
	return core.ValidationResult{
		TotalExpenses: l.Total(),
		IsFormValid:   core.InputValid(grossIncome, location),
	}
}

// newEntryID generates a unique id for a ledger entry.
func newEntryID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("exp_%d", time.Now().UnixNano())
	}
	return "exp_" + hex.EncodeToString(bytes)
}
