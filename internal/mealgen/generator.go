package mealgen

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/daiet-app/daiet-server/internal/storage"
	"github.com/google/uuid"
)

// Profile carries the inputs the generator embeds into its prompt.
type Profile struct {
	Sex           string
	Goal          string
	DailyCalories int
	Allergies     []string
	Preferences   []string
}

// FoodEstimate is the result of a free-text food analysis.
type FoodEstimate struct {
	Name     string  `json:"name"`
	Portion  string  `json:"portion"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carb_g"`
	FatG     float64 `json:"fat_g"`
}

// Generator produces a day's worth of meal recommendations for a profile.
// Callers treat a returned error as "no recommendations today": day-log
// creation proceeds with EmptyMeals instead.
type Generator interface {
	Generate(ctx context.Context, profile Profile) (storage.Meals, error)
	AnalyzeFood(ctx context.Context, description string) (FoodEstimate, error)
}

// EmptyMeals returns a meal set with all four slots empty (non-nil).
func EmptyMeals() storage.Meals {
	return storage.Meals{
		Breakfast: []storage.FoodItem{},
		Lunch:     []storage.FoodItem{},
		Snack:     []storage.FoodItem{},
		Dinner:    []storage.FoodItem{},
	}
}

// flexNumber tolerates numeric fields arriving as JSON numbers or strings.
// Anything uncoercible decodes as 0.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexNumber(v)
	return nil
}

// rawFoodItem mirrors the JSON shape the model is asked to produce.
type rawFoodItem struct {
	Name     string     `json:"name"`
	Portion  string     `json:"portion"`
	Calories flexNumber `json:"calories"`
	ProteinG flexNumber `json:"protein_g"`
	CarbsG   flexNumber `json:"carb_g"`
	FatG     flexNumber `json:"fat_g"`
}

type rawMealSet struct {
	Breakfast json.RawMessage `json:"breakfast"`
	Lunch     json.RawMessage `json:"lunch"`
	Snack     json.RawMessage `json:"snack"`
	Dinner    json.RawMessage `json:"dinner"`
}

// normalizeSlot converts one raw slot into stored food items: fresh id,
// coerced numbers, recommendation flags forced. A slot that is present but
// not a JSON array is an error.
func normalizeSlot(raw json.RawMessage) ([]storage.FoodItem, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []storage.FoodItem{}, nil
	}

	var items []rawFoodItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	out := make([]storage.FoodItem, 0, len(items))
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			name = "Meal"
		}
		portion := strings.TrimSpace(it.Portion)
		if portion == "" {
			portion = "1 serving"
		}
		out = append(out, storage.FoodItem{
			ID:               uuid.NewString(),
			Name:             name,
			Portion:          portion,
			Calories:         nonNegative(float64(it.Calories)),
			ProteinG:         nonNegative(float64(it.ProteinG)),
			CarbsG:           nonNegative(float64(it.CarbsG)),
			FatG:             nonNegative(float64(it.FatG)),
			IsRecommendation: true,
			Consumed:         false,
		})
	}
	return out, nil
}

func normalizeMeals(raw rawMealSet) (storage.Meals, error) {
	breakfast, err := normalizeSlot(raw.Breakfast)
	if err != nil {
		return storage.Meals{}, err
	}
	lunch, err := normalizeSlot(raw.Lunch)
	if err != nil {
		return storage.Meals{}, err
	}
	snack, err := normalizeSlot(raw.Snack)
	if err != nil {
		return storage.Meals{}, err
	}
	dinner, err := normalizeSlot(raw.Dinner)
	if err != nil {
		return storage.Meals{}, err
	}

	return storage.Meals{
		Breakfast: breakfast,
		Lunch:     lunch,
		Snack:     snack,
		Dinner:    dinner,
	}, nil
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// cleanModelResponse strips markdown code fences the model sometimes wraps
// JSON in despite being told not to.
func cleanModelResponse(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
