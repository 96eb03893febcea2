package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/orchestrator"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.service == nil {
		checks["estimate_service"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if _, err := s.service.History(ctx, 1); err != nil {
		checks["estimate_service"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["estimate_service"] = "ok"
	}

	checks["cache"] = map[string]any{
		"history_entries": s.historyCache.Size(),
		"status":          "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.activeClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	hits, misses := s.cacheStats()
	totalEstimates := atomic.LoadInt64(&s.appMetrics.totalEstimates)
	snap := s.service.Orchestrator().Latest()

	fmt.Fprintf(w, "uptime_seconds %d\n", int64(time.Since(s.appMetrics.uptime).Seconds()))
	fmt.Fprintf(w, "estimates_total %d\n", totalEstimates)
	fmt.Fprintf(w, "history_cache_hits %d\n", hits)
	fmt.Fprintf(w, "history_cache_misses %d\n", misses)
	fmt.Fprintf(w, "rate_limiter_active_clients %d\n", s.rateLimiter.activeClients())
	fmt.Fprintf(w, "ledger_entries %d\n", s.ledger.Len())
	fmt.Fprintf(w, "orchestrator_phase{phase=%q} 1\n", snap.Phase)
}

type expenseView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

func expenseViews(entries []core.ExpenseEntry) []expenseView {
	out := make([]expenseView, len(entries))
	for i, e := range entries {
		out[i] = expenseView{ID: e.ID, Name: e.Name, Amount: e.Amount}
	}
	return out
}

// handleListExpenses returns all ledger entries and the strict-filter total.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	total := s.ledger.Total()
	writeJSON(w, http.StatusOK, map[string]any{
		"expenses":   expenseViews(s.ledger.Entries()),
		"total":      total.Float(),
		"totalCents": total.Cents,
	})
}

// handleAddExpense appends a fresh empty entry.
func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	e := s.ledger.Add()
	writeJSON(w, http.StatusCreated, expenseView{ID: e.ID, Name: e.Name, Amount: e.Amount})
}

// handleUpdateExpense replaces one field of an entry. Unknown ids are a
// no-op, mirroring the ledger contract.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Field != ledger.FieldName && body.Field != ledger.FieldAmount {
		writeError(w, http.StatusBadRequest, "field must be 'name' or 'amount'")
		return
	}

	if err := s.ledger.Update(id, body.Field, body.Value); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	total := s.ledger.Total()
	writeJSON(w, http.StatusOK, map[string]any{
		"expenses":   expenseViews(s.ledger.Entries()),
		"total":      total.Float(),
		"totalCents": total.Cents,
	})
}

// handleDeleteExpense removes an entry; absent ids succeed silently.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.ledger.Remove(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// handleExpenseTotal returns the strict-filter expense total on its own.
func (s *Server) handleExpenseTotal(w http.ResponseWriter, r *http.Request) {
	total := s.ledger.Total()
	writeJSON(w, http.StatusOK, map[string]any{
		"total":      total.Float(),
		"totalCents": total.Cents,
	})
}

// handleCalculate triggers one estimation run and replies with the terminal
// snapshot. A run already in flight is a conflict; the client retries after
// the outstanding run settles.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		GrossMonthlyIncome string `json:"grossMonthlyIncome"`
		Location           string `json:"location"`
		FilingStatus       string `json:"filingStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	snap, err := s.service.Run(ctx, orchestrator.Input{
		GrossMonthlyIncome: body.GrossMonthlyIncome,
		Location:           body.Location,
		FilingStatus:       core.FilingStatus(body.FilingStatus),
	})

	switch {
	case errors.Is(err, orchestrator.ErrCalculationInFlight):
		writeError(w, http.StatusConflict, "a calculation is already in progress")
		return
	case errors.Is(err, orchestrator.ErrInvalidInput):
		writeJSON(w, http.StatusUnprocessableEntity, viewFromSnapshot(snap))
		return
	case err != nil:
		writeJSON(w, http.StatusBadGateway, viewFromSnapshot(snap))
		return
	}

	atomic.AddInt64(&s.appMetrics.totalEstimates, 1)
	s.historyCache.Delete(historyCacheKey)

	writeJSON(w, http.StatusOK, viewFromSnapshot(snap))
}

// handleState returns the latest orchestrator snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewFromSnapshot(s.service.Orchestrator().Latest()))
}

type historyView struct {
	ID            int64   `json:"id"`
	GrossIncome   string  `json:"grossIncome"`
	Location      string  `json:"location"`
	FilingStatus  string  `json:"filingStatus"`
	NetIncome     float64 `json:"netIncome"`
	TotalTax      float64 `json:"totalTax"`
	TotalExpenses float64 `json:"totalExpenses"`
	Remaining     float64 `json:"remaining"`
	Analysis      string  `json:"analysis"`
	CreatedAt     string  `json:"createdAt"`
}

// handleHistory lists persisted estimates, newest first, via the LRU cache.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, ok := s.historyCache.Get(historyCacheKey)
	if ok {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
	} else {
		atomic.AddInt64(&s.appMetrics.cacheMisses, 1)
		var err error
		records, err = s.service.History(r.Context(), s.historyLimit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load history")
			return
		}
		s.historyCache.Set(historyCacheKey, records)
	}

	views := make([]historyView, len(records))
	for i, rec := range records {
		views[i] = historyView{
			ID:            rec.ID,
			GrossIncome:   rec.GrossIncome,
			Location:      rec.Location,
			FilingStatus:  rec.FilingStatus,
			NetIncome:     core.Money{Cents: rec.NetIncomeCents}.Float(),
			TotalTax:      core.Money{Cents: rec.TotalTaxCents}.Float(),
			TotalExpenses: core.Money{Cents: rec.TotalExpensesCents}.Float(),
			Remaining:     core.Money{Cents: rec.RemainingCents}.Float(),
			Analysis:      rec.Analysis,
			CreatedAt:     rec.CreatedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"estimates": views})
}
