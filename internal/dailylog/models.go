package dailylog

import (
	"fmt"
	"strings"
	"time"

	"github.com/daiet-app/daiet-server/internal/storage"
)

const (
	SlotBreakfast = "breakfast"
	SlotLunch     = "lunch"
	SlotSnack     = "snack"
	SlotDinner    = "dinner"
)

var validSlots = map[string]bool{
	SlotBreakfast: true,
	SlotLunch:     true,
	SlotSnack:     true,
	SlotDinner:    true,
}

type DailyLogDTO struct {
	ID        string         `json:"id"`
	Date      string         `json:"date"`
	Meals     storage.Meals  `json:"meals"`
	Totals    storage.Totals `json:"totals"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type ToggleConsumedRequest struct {
	LogID    string `json:"log_id"`
	Date     string `json:"date,omitempty"`
	MealSlot string `json:"meal_slot"`
	FoodID   string `json:"food_id"`
	Consumed bool   `json:"consumed"`
}

func (r *ToggleConsumedRequest) Validate() error {
	if strings.TrimSpace(r.LogID) == "" {
		return fmt.Errorf("log_id is required")
	}
	if !validSlots[r.MealSlot] {
		return fmt.Errorf("meal_slot must be one of breakfast, lunch, snack, dinner")
	}
	if strings.TrimSpace(r.FoodID) == "" {
		return fmt.Errorf("food_id is required")
	}
	if err := validateOptionalDate(r.Date); err != nil {
		return err
	}
	return nil
}

type AddFoodInput struct {
	Name     string  `json:"name"`
	Portion  string  `json:"portion,omitempty"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carb_g"`
	FatG     float64 `json:"fat_g"`
}

type AddFoodRequest struct {
	Date     string       `json:"date,omitempty"`
	MealSlot string       `json:"meal_slot"`
	Item     AddFoodInput `json:"item"`
}

func (r *AddFoodRequest) Validate() error {
	if !validSlots[r.MealSlot] {
		return fmt.Errorf("meal_slot must be one of breakfast, lunch, snack, dinner")
	}
	name := strings.TrimSpace(r.Item.Name)
	if len(name) < 1 || len(name) > 200 {
		return fmt.Errorf("item.name must be between 1 and 200 characters")
	}
	if len(r.Item.Portion) > 200 {
		return fmt.Errorf("item.portion cannot exceed 200 characters")
	}
	if r.Item.Calories < 0 || r.Item.Calories > 10000 {
		return fmt.Errorf("item.calories must be 0-10000")
	}
	if r.Item.ProteinG < 0 || r.Item.ProteinG > 1000 {
		return fmt.Errorf("item.protein_g must be 0-1000")
	}
	if r.Item.CarbsG < 0 || r.Item.CarbsG > 1000 {
		return fmt.Errorf("item.carb_g must be 0-1000")
	}
	if r.Item.FatG < 0 || r.Item.FatG > 1000 {
		return fmt.Errorf("item.fat_g must be 0-1000")
	}
	if err := validateOptionalDate(r.Date); err != nil {
		return err
	}
	return nil
}

func validateOptionalDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date format, expected YYYY-MM-DD")
	}
	return nil
}

func toDTO(log *storage.DailyLog) *DailyLogDTO {
	return &DailyLogDTO{
		ID:        log.ID.String(),
		Date:      log.Date,
		Meals:     log.Meals,
		Totals:    log.Totals,
		CreatedAt: log.CreatedAt,
		UpdatedAt: log.UpdatedAt,
	}
}
