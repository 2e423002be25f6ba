// Package energy computes daily energy targets from profile biometrics.
// All functions are pure; callers supply "today" explicitly so results are
// reproducible in tests.
package energy

import (
	"fmt"
	"math"
	"time"
)

// Sex for the Harris-Benedict constants.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ActivityLevel scales BMR into TDEE.
type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityLight     ActivityLevel = "light"
	ActivityModerate  ActivityLevel = "moderate"
	ActivityHigh      ActivityLevel = "high"
)

// Goal selects the calorie adjustment and macro split.
type Goal string

const (
	GoalLoseFat    Goal = "lose_fat"
	GoalMaintain   Goal = "maintain"
	GoalGainMuscle Goal = "gain_muscle"
)

// activityMultipliers is the single source of truth for valid activity
// levels, also used for input validation.
var activityMultipliers = map[ActivityLevel]float64{
	ActivitySedentary: 1.20,
	ActivityLight:     1.375,
	ActivityModerate:  1.55,
	ActivityHigh:      1.725,
}

// ParseSex validates a sex string.
func ParseSex(s string) (Sex, error) {
	switch Sex(s) {
	case SexMale, SexFemale:
		return Sex(s), nil
	}
	return "", fmt.Errorf("invalid sex: %q", s)
}

// ParseActivityLevel validates an activity level string.
func ParseActivityLevel(s string) (ActivityLevel, error) {
	if _, ok := activityMultipliers[ActivityLevel(s)]; !ok {
		return "", fmt.Errorf("invalid activity level: %q", s)
	}
	return ActivityLevel(s), nil
}

// ParseGoal validates a goal string.
func ParseGoal(s string) (Goal, error) {
	switch Goal(s) {
	case GoalLoseFat, GoalMaintain, GoalGainMuscle:
		return Goal(s), nil
	}
	return "", fmt.Errorf("invalid goal: %q", s)
}

// BMR returns the basal metabolic rate in kcal/day using the revised
// Harris-Benedict equations.
func BMR(weightKG, heightCM float64, ageYears int, sex Sex) float64 {
	if sex == SexMale {
		return 88.362 + 13.397*weightKG + 4.799*heightCM - 5.677*float64(ageYears)
	}
	return 447.593 + 9.247*weightKG + 3.098*heightCM - 4.330*float64(ageYears)
}

// TDEE returns total daily energy expenditure: BMR scaled by the activity
// multiplier. Returns an error for unknown activity levels.
func TDEE(bmr float64, level ActivityLevel) (float64, error) {
	mult, ok := activityMultipliers[level]
	if !ok {
		return 0, fmt.Errorf("invalid activity level: %q", level)
	}
	return bmr * mult, nil
}

// CalorieGoalOffset adjusts maintenance calories by a fixed kcal offset:
// −500 for fat loss, +300 for muscle gain. This is the default strategy.
func CalorieGoalOffset(tdee float64, goal Goal) int {
	switch goal {
	case GoalLoseFat:
		return int(math.Round(tdee - 500))
	case GoalGainMuscle:
		return int(math.Round(tdee + 300))
	default:
		return int(math.Round(tdee))
	}
}

// CalorieGoalPercent adjusts maintenance calories by a percentage: 80% for
// fat loss, 110% for muscle gain. The onboarding flow uses this variant;
// the two strategies are deliberately kept separate and call sites must
// pick one explicitly.
func CalorieGoalPercent(tdee float64, goal Goal) int {
	switch goal {
	case GoalLoseFat:
		return int(math.Round(tdee * 0.8))
	case GoalGainMuscle:
		return int(math.Round(tdee * 1.1))
	default:
		return int(math.Round(tdee))
	}
}

// MacroSplit holds daily macro targets in grams.
type MacroSplit struct {
	ProteinG int `json:"protein_g"`
	FatG     int `json:"fat_g"`
	CarbsG   int `json:"carbs_g"`
}

// Macros converts a daily calorie target into gram targets using
// goal-dependent percentage splits. Protein and carbs count 4 kcal/g,
// fat 9 kcal/g.
func Macros(dailyCalories int, goal Goal) MacroSplit {
	var proteinPct, fatPct, carbsPct float64
	switch goal {
	case GoalLoseFat:
		proteinPct, fatPct, carbsPct = 0.35, 0.25, 0.40
	case GoalGainMuscle:
		proteinPct, fatPct, carbsPct = 0.30, 0.25, 0.45
	default:
		proteinPct, fatPct, carbsPct = 0.30, 0.30, 0.40
	}

	cal := float64(dailyCalories)
	return MacroSplit{
		ProteinG: int(math.Round(cal * proteinPct / 4)),
		FatG:     int(math.Round(cal * fatPct / 9)),
		CarbsG:   int(math.Round(cal * carbsPct / 4)),
	}
}

// AgeAt returns whole years between birthdate and today, decrementing when
// the birthday has not yet occurred this year.
func AgeAt(birthdate, today time.Time) int {
	age := today.Year() - birthdate.Year()
	if today.Before(birthdate.AddDate(age, 0, 0)) {
		age--
	}
	return age
}

// GoalStrategy selects between the fixed-offset and percentage goal
// adjustments.
type GoalStrategy int

const (
	StrategyOffset GoalStrategy = iota
	StrategyPercent
)

// DailyCalories is the shared recompute used everywhere a profile's
// denormalized calorie target must be refreshed.
func DailyCalories(sex Sex, weightKG, heightCM float64, birthdate, today time.Time, level ActivityLevel, goal Goal, strategy GoalStrategy) (int, error) {
	age := AgeAt(birthdate, today)
	if age < 0 || age > 130 {
		return 0, fmt.Errorf("implausible age %d from birthdate %s", age, birthdate.Format("2006-01-02"))
	}

	bmr := BMR(weightKG, heightCM, age, sex)
	tdee, err := TDEE(bmr, level)
	if err != nil {
		return 0, err
	}

	if strategy == StrategyPercent {
		return CalorieGoalPercent(tdee, goal), nil
	}
	return CalorieGoalOffset(tdee, goal), nil
}
