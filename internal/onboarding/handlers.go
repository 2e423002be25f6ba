package onboarding

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Handler handles HTTP requests for the onboarding flow.
type Handler struct {
	service *Service
}

// NewHandler creates a new onboarding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleSaveFragment handles POST /v1/onboarding/{kind}
func (h *Handler) HandleSaveFragment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind := r.PathValue("kind")

	var err error
	switch kind {
	case FragmentActivity:
		var fragment ActivityFragment
		if decodeErr := json.NewDecoder(r.Body).Decode(&fragment); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
			return
		}
		err = h.service.SaveActivity(ctx, fragment)
	case FragmentGoal:
		var fragment GoalFragment
		if decodeErr := json.NewDecoder(r.Body).Decode(&fragment); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
			return
		}
		err = h.service.SaveGoal(ctx, fragment)
	case FragmentFoods:
		var fragment FoodsFragment
		if decodeErr := json.NewDecoder(r.Body).Decode(&fragment); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
			return
		}
		err = h.service.SaveFoods(ctx, fragment)
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown fragment kind")
		return
	}

	if err != nil {
		if msg, ok := validationMessage(err); ok {
			writeError(w, http.StatusBadRequest, "invalid_request", msg)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to save fragment")
		return
	}

	writeJSON(w, http.StatusOK, h.service.Status(ctx))
}

// HandleGetComplete handles GET /v1/onboarding/complete
func (h *Handler) HandleGetComplete(w http.ResponseWriter, r *http.Request) {
	payload, err := h.service.Merged(r.Context())
	if err != nil {
		if errors.Is(err, ErrIncomplete) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"complete": false,
				"status":   h.service.Status(r.Context()),
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to merge onboarding data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"complete": true,
		"payload":  payload,
	})
}

// HandleComplete handles POST /v1/onboarding/complete
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	payload, err := h.service.Complete(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, ErrIncomplete):
			writeError(w, http.StatusBadRequest, "invalid_request", "onboarding fragments are missing")
		case errors.Is(err, ErrAlreadyExists):
			writeError(w, http.StatusConflict, "already_exists", "Profile already exists")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to complete onboarding")
		}
		return
	}

	writeJSON(w, http.StatusCreated, payload)
}

const validationPrefix = "validation failed: "

func validationMessage(err error) (string, bool) {
	if strings.HasPrefix(err.Error(), validationPrefix) {
		return strings.TrimPrefix(err.Error(), validationPrefix), true
	}
	return "", false
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
