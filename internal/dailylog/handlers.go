package dailylog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Handler handles HTTP requests for the daily log.
type Handler struct {
	service *Service
}

// NewHandler creates a new daily log handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGetToday handles GET /v1/daily-log/today?date=YYYY-MM-DD
func (h *Handler) HandleGetToday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid date format, expected YYYY-MM-DD")
			return
		}
	}

	dayLog, err := h.service.GetOrCreate(ctx, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get daily log")
		return
	}

	writeJSON(w, http.StatusOK, dayLog)
}

// HandleToggleConsumed handles POST /v1/daily-log/consume
func (h *Handler) HandleToggleConsumed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ToggleConsumedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	dayLog, err := h.service.ToggleConsumed(ctx, req)
	if err != nil {
		switch {
		case isValidation(err):
			writeError(w, http.StatusBadRequest, "invalid_request", validationMessage(err))
		case errors.Is(err, ErrLogNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Daily log not found")
		case errors.Is(err, ErrFoodNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Food item not found")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to update daily log")
		}
		return
	}

	writeJSON(w, http.StatusOK, dayLog)
}

// HandleAddFood handles POST /v1/daily-log/food
func (h *Handler) HandleAddFood(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AddFoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	dayLog, err := h.service.AddFood(ctx, req)
	if err != nil {
		switch {
		case isValidation(err):
			writeError(w, http.StatusBadRequest, "invalid_request", validationMessage(err))
		case errors.Is(err, ErrLogNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Daily log not found")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to add food item")
		}
		return
	}

	writeJSON(w, http.StatusOK, dayLog)
}

const validationPrefix = "validation failed: "

func isValidation(err error) bool {
	return strings.HasPrefix(err.Error(), validationPrefix)
}

func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), validationPrefix)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
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
