package onboarding

import (
	"fmt"
	"strings"
	"time"

	"github.com/daiet-app/daiet-server/internal/energy"
)

const (
	FragmentActivity = "activity"
	FragmentGoal     = "goal"
	FragmentFoods    = "foods"
)

// ActivityFragment — первый шаг онбординга: биометрия и уровень активности
type ActivityFragment struct {
	Sex       string  `json:"sex"`
	Birthdate string  `json:"birthdate"` // YYYY-MM-DD
	HeightCM  float64 `json:"height_cm"`
	WeightKG  float64 `json:"weight_kg"`
	Activity  string  `json:"activity"`
}

type GoalFragment struct {
	Goal string `json:"goal"`
}

type FoodsFragment struct {
	Allergies   []string `json:"allergies"`
	Preferences []string `json:"preferences"`
}

// CompletePayload is the merged result of all three fragments plus the
// derived daily targets.
type CompletePayload struct {
	Sex           string   `json:"sex"`
	Birthdate     string   `json:"birthdate"`
	HeightCM      float64  `json:"height_cm"`
	WeightKG      float64  `json:"weight_kg"`
	Activity      string   `json:"activity"`
	Goal          string   `json:"goal"`
	Allergies     []string `json:"allergies"`
	Preferences   []string `json:"preferences"`
	DailyCalories int      `json:"daily_calories"`
	ProteinG      int      `json:"protein_g"`
	FatG          int      `json:"fat_g"`
	CarbsG        int      `json:"carb_g"`
}

// StatusDTO reports which fragments have been saved so far.
type StatusDTO struct {
	Activity bool `json:"activity"`
	Goal     bool `json:"goal"`
	Foods    bool `json:"foods"`
	Complete bool `json:"complete"`
}

func (f *ActivityFragment) validate(minAge int, today time.Time) error {
	if _, err := energy.ParseSex(f.Sex); err != nil {
		return fmt.Errorf("sex must be male or female")
	}
	if _, err := energy.ParseActivityLevel(f.Activity); err != nil {
		return fmt.Errorf("activity must be one of sedentary, light, moderate, high")
	}
	if f.HeightCM <= 0 || f.HeightCM > 300 {
		return fmt.Errorf("height_cm must be in (0, 300]")
	}
	if f.WeightKG <= 0 || f.WeightKG > 500 {
		return fmt.Errorf("weight_kg must be in (0, 500]")
	}
	birthdate, err := time.Parse("2006-01-02", f.Birthdate)
	if err != nil {
		return fmt.Errorf("birthdate must be YYYY-MM-DD")
	}
	if age := energy.AgeAt(birthdate, today); age < minAge {
		return fmt.Errorf("minimum age is %d", minAge)
	}
	return nil
}

func (f *GoalFragment) validate() error {
	if _, err := energy.ParseGoal(f.Goal); err != nil {
		return fmt.Errorf("goal must be one of lose_fat, maintain, gain_muscle")
	}
	return nil
}

func (f *FoodsFragment) validate() error {
	for _, a := range f.Allergies {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("allergies cannot contain empty entries")
		}
	}
	for _, p := range f.Preferences {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("preferences cannot contain empty entries")
		}
	}
	return nil
}
