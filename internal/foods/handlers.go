package foods

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/daiet-app/daiet-server/internal/mealgen"
)

// Handler exposes AI food analysis: free-text description in, macro
// estimate out. Unlike meal generation, a failure here is surfaced to the
// caller since nothing downstream depends on the result.
type Handler struct {
	generator mealgen.Generator
}

func NewHandler(generator mealgen.Generator) *Handler {
	return &Handler{generator: generator}
}

type analyzeRequest struct {
	Description string `json:"description"`
}

func (r *analyzeRequest) Validate() error {
	d := strings.TrimSpace(r.Description)
	if d == "" {
		return fmt.Errorf("description is required")
	}
	if len(d) > 500 {
		return fmt.Errorf("description cannot exceed 500 characters")
	}
	return nil
}

// HandleAnalyze handles POST /v1/foods/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	estimate, err := h.generator.AnalyzeFood(r.Context(), strings.TrimSpace(req.Description))
	if err != nil {
		writeError(w, http.StatusBadGateway, "external_error", "Food analysis is unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(estimate)
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
