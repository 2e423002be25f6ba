package foods

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/daiet-app/daiet-server/internal/mealgen"
	"github.com/daiet-app/daiet-server/internal/storage"
)

type stubAnalyzer struct {
	estimate mealgen.FoodEstimate
	err      error
}

func (s *stubAnalyzer) Generate(ctx context.Context, profile mealgen.Profile) (storage.Meals, error) {
	return mealgen.EmptyMeals(), nil
}

func (s *stubAnalyzer) AnalyzeFood(ctx context.Context, description string) (mealgen.FoodEstimate, error) {
	if s.err != nil {
		return mealgen.FoodEstimate{}, s.err
	}
	return s.estimate, nil
}

func postAnalyze(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/foods/analyze", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	h.HandleAnalyze(rec, req)
	return rec
}

func TestHandleAnalyze(t *testing.T) {
	h := NewHandler(&stubAnalyzer{estimate: mealgen.FoodEstimate{
		Name: "Scrambled eggs", Portion: "2 eggs", Calories: 180, ProteinG: 12, CarbsG: 2, FatG: 14,
	}})

	rec := postAnalyze(h, `{"description":"two scrambled eggs"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var estimate mealgen.FoodEstimate
	if err := json.Unmarshal(rec.Body.Bytes(), &estimate); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if estimate.Name != "Scrambled eggs" || estimate.Calories != 180 {
		t.Errorf("unexpected estimate %+v", estimate)
	}
}

func TestHandleAnalyzeValidation(t *testing.T) {
	h := NewHandler(&stubAnalyzer{})

	if rec := postAnalyze(h, `{"description":"  "}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank description, got %d", rec.Code)
	}
	if rec := postAnalyze(h, "{nope"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rec.Code)
	}
	long := `{"description":"` + strings.Repeat("x", 501) + `"}`
	if rec := postAnalyze(h, long); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for oversize description, got %d", rec.Code)
	}
}

func TestHandleAnalyzeUpstreamFailure(t *testing.T) {
	h := NewHandler(&stubAnalyzer{err: errors.New("upstream down")})

	rec := postAnalyze(h, `{"description":"ramen"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}
