package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bilancio/internal/ledger"
	"bilancio/internal/llm"
	"bilancio/internal/orchestrator"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

type stubEstimator struct {
	estimate    llm.TaxEstimate
	estimateErr error
	analysis    string
}

func (s *stubEstimator) EstimateNetIncome(context.Context, llm.EstimationRequest) (llm.TaxEstimate, error) {
	if s.estimateErr != nil {
		return llm.TaxEstimate{}, s.estimateErr
	}
	return s.estimate, nil
}

func (s *stubEstimator) AnalyzeBudget(context.Context, llm.AnalysisRequest) (string, error) {
	return s.analysis, nil
}

func newTestServer(stub *stubEstimator) (*Server, *ledger.Ledger) {
	l := ledger.NewEmpty()
	orch := orchestrator.New(stub, l, nil)
	svc := services.NewEstimateService(orch, storage.NewMemoryHistory(), nil)
	return NewServer(":0", svc, l, Options{}), l
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestExpenseLifecycle(t *testing.T) {
	s, _ := newTestServer(&stubEstimator{})
	defer s.Stop()

	// Add
	rec := doRequest(s, http.MethodPost, "/api/expenses", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d", rec.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected entry id")
	}

	// Update name then amount
	rec = doRequest(s, http.MethodPatch, "/api/expenses/"+created.ID, `{"field":"name","value":"Rent"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update name status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(s, http.MethodPatch, "/api/expenses/"+created.ID, `{"field":"amount","value":"1500"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update amount status = %d", rec.Code)
	}

	// Total reflects the populated entry
	rec = doRequest(s, http.MethodGet, "/api/expenses/total", "")
	var total struct {
		TotalCents int64 `json:"totalCents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &total); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if total.TotalCents != 150000 {
		t.Fatalf("totalCents = %d, want 150000", total.TotalCents)
	}

	// Unknown field rejected
	rec = doRequest(s, http.MethodPatch, "/api/expenses/"+created.ID, `{"field":"category","value":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d", rec.Code)
	}

	// Delete is idempotent
	rec = doRequest(s, http.MethodDelete, "/api/expenses/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doRequest(s, http.MethodDelete, "/api/expenses/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("second delete status = %d", rec.Code)
	}
}

func TestCalculateSuccess(t *testing.T) {
	s, l := newTestServer(&stubEstimator{
		estimate: llm.TaxEstimate{NetIncome: 4100.50, TotalTax: 899.50, Disclaimer: "estimate only"},
		analysis: "Looks sustainable.",
	})
	defer s.Stop()

	e := l.Add()
	_ = l.Update(e.ID, ledger.FieldName, "Rent")
	_ = l.Update(e.ID, ledger.FieldAmount, "1500")

	rec := doRequest(s, http.MethodPost, "/api/estimate",
		`{"grossMonthlyIncome":"5000","location":"Austin","filingStatus":"single"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var view snapshotView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Phase != string(orchestrator.PhaseComplete) {
		t.Fatalf("phase = %s", view.Phase)
	}
	if !view.ShowResults || view.IsLoading {
		t.Fatalf("unexpected flags: %+v", view)
	}
	if view.NetIncome == nil || *view.NetIncome != 4100.50 {
		t.Fatalf("netIncome = %v", view.NetIncome)
	}
	if view.AnalysisText != "Looks sustainable." {
		t.Fatalf("analysisText = %q", view.AnalysisText)
	}

	// The run lands in history.
	rec = doRequest(s, http.MethodGet, "/api/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var hist struct {
		Estimates []historyView `json:"estimates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hist.Estimates) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(hist.Estimates))
	}
	if hist.Estimates[0].Location != "Austin" {
		t.Fatalf("unexpected history: %+v", hist.Estimates[0])
	}
}

func TestCalculateValidationFailure(t *testing.T) {
	s, _ := newTestServer(&stubEstimator{})
	defer s.Stop()

	rec := doRequest(s, http.MethodPost, "/api/estimate",
		`{"grossMonthlyIncome":"0","location":"Austin","filingStatus":"single"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var view snapshotView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Phase != string(orchestrator.PhaseErrored) {
		t.Fatalf("phase = %s", view.Phase)
	}
	if view.Error != orchestrator.MsgInvalidInput {
		t.Fatalf("error = %q", view.Error)
	}
	if view.ShowResults {
		t.Fatal("showResults should be false")
	}
}

func TestCalculateEstimationFailure(t *testing.T) {
	s, _ := newTestServer(&stubEstimator{
		estimateErr: llm.NewEstimationError(llm.StageTax, errors.New("service down")),
	})
	defer s.Stop()

	rec := doRequest(s, http.MethodPost, "/api/estimate",
		`{"grossMonthlyIncome":"5000","location":"Austin","filingStatus":"single"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var view snapshotView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Error != orchestrator.MsgEstimationFailed {
		t.Fatalf("error = %q", view.Error)
	}
	// The raw service error never reaches the client.
	if strings.Contains(rec.Body.String(), "service down") {
		t.Fatal("internal error detail leaked to client")
	}
}

func TestCalculateBadBody(t *testing.T) {
	s, _ := newTestServer(&stubEstimator{})
	defer s.Stop()

	rec := doRequest(s, http.MethodPost, "/api/estimate", `{`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStateStartsIdle(t *testing.T) {
	s, _ := newTestServer(&stubEstimator{})
	defer s.Stop()

	rec := doRequest(s, http.MethodGet, "/api/estimate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var view snapshotView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Phase != string(orchestrator.PhaseIdle) {
		t.Fatalf("phase = %s, want idle", view.Phase)
	}
	if view.NetIncome != nil {
		t.Fatal("netIncome should be null before any run")
	}
}

func TestHealthAndReady(t *testing.T) {
	s, _ := newTestServer(&stubEstimator{})
	defer s.Stop()

	rec := doRequest(s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "estimates_total") {
		t.Fatalf("metrics missing counters: %s", rec.Body.String())
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	s, _ := newTestServer(&stubEstimator{})
	defer s.Stop()

	rec := doRequest(s, http.MethodGet, "/healthz", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
}
