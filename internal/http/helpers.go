package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bilancio/internal/orchestrator"
)

// snapshotView is the JSON shape of an orchestrator snapshot. NetIncome and
// TotalTax are pointers so an absent estimate is null, never a misleading
// zero.
type snapshotView struct {
	Phase         string   `json:"phase"`
	ShowResults   bool     `json:"showResults"`
	IsLoading     bool     `json:"isLoading"`
	LoadingStatus string   `json:"loadingStatus,omitempty"`
	NetIncome     *float64 `json:"netIncome,omitempty"`
	TotalTax      *float64 `json:"totalTax,omitempty"`
	Disclaimer    string   `json:"disclaimer,omitempty"`
	AnalysisText  string   `json:"analysisText,omitempty"`
	Error         string   `json:"error,omitempty"`
}

func viewFromSnapshot(s orchestrator.Snapshot) snapshotView {
	v := snapshotView{
		Phase:         string(s.Phase),
		ShowResults:   s.ShowResults,
		IsLoading:     s.LoadingStatus != "",
		LoadingStatus: s.LoadingStatus,
		Disclaimer:    s.Disclaimer,
		AnalysisText:  s.AnalysisText,
		Error:         s.ErrorMessage,
	}
	if s.HasEstimate {
		net := s.NetIncome.Float()
		tax := s.TotalTax.Float()
		v.NetIncome = &net
		v.TotalTax = &tax
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
