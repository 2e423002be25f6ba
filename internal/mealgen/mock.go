package mealgen

import (
	"context"
	"strings"

	"github.com/daiet-app/daiet-server/internal/storage"
	"github.com/google/uuid"
)

// MockGenerator returns a fixed meal plan sized roughly to the profile's
// calorie target. Used when AI_MODE=mock and in tests.
type MockGenerator struct{}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (g *MockGenerator) Generate(ctx context.Context, profile Profile) (storage.Meals, error) {
	_ = ctx

	item := func(name, portion string, kcal, protein, carbs, fat float64) storage.FoodItem {
		return storage.FoodItem{
			ID:               uuid.NewString(),
			Name:             name,
			Portion:          portion,
			Calories:         kcal,
			ProteinG:         protein,
			CarbsG:           carbs,
			FatG:             fat,
			IsRecommendation: true,
			Consumed:         false,
		}
	}

	return storage.Meals{
		Breakfast: []storage.FoodItem{
			item("Oatmeal with banana", "1 bowl (80g oats)", 420, 14, 68, 9),
			item("Greek yogurt", "150g", 130, 15, 6, 4),
		},
		Lunch: []storage.FoodItem{
			item("Grilled chicken breast", "150g cooked", 240, 45, 0, 5),
			item("Brown rice", "185g cooked", 230, 5, 48, 2),
			item("Mixed salad", "1 plate", 60, 2, 8, 2),
		},
		Snack: []storage.FoodItem{
			item("Apple with almonds", "1 apple + 20g almonds", 210, 5, 28, 10),
		},
		Dinner: []storage.FoodItem{
			item("Baked salmon", "140g", 280, 34, 0, 15),
			item("Sweet potato", "200g", 180, 3, 41, 0),
			item("Steamed broccoli", "150g", 50, 4, 10, 0),
		},
	}, nil
}

func (g *MockGenerator) AnalyzeFood(ctx context.Context, description string) (FoodEstimate, error) {
	_ = ctx

	return FoodEstimate{
		Name:     strings.TrimSpace(description),
		Portion:  "1 standard serving",
		Calories: 250,
		ProteinG: 15,
		CarbsG:   30,
		FatG:     8,
	}, nil
}
