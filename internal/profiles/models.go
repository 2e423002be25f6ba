package profiles

import (
	"fmt"
	"time"

	"github.com/daiet-app/daiet-server/internal/energy"
	"github.com/google/uuid"
)

// ProfileDTO — DTO для API
type ProfileDTO struct {
	ID            uuid.UUID `json:"id"`
	Sex           string    `json:"sex"`
	Birthdate     string    `json:"birthdate"`
	HeightCM      float64   `json:"height_cm"`
	WeightKG      float64   `json:"weight_kg"`
	Activity      string    `json:"activity"`
	Goal          string    `json:"goal"`
	Allergies     []string  `json:"allergies"`
	Preferences   []string  `json:"preferences"`
	DailyCalories int       `json:"daily_calories"`
	ProteinG      int       `json:"protein_g"`
	FatG          int       `json:"fat_g"`
	CarbsG        int       `json:"carb_g"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpdateProfileRequest — запрос для PATCH /v1/profile. Все поля опциональны.
type UpdateProfileRequest struct {
	Sex         *string   `json:"sex,omitempty"`
	Birthdate   *string   `json:"birthdate,omitempty"`
	HeightCM    *float64  `json:"height_cm,omitempty"`
	WeightKG    *float64  `json:"weight_kg,omitempty"`
	Activity    *string   `json:"activity,omitempty"`
	Goal        *string   `json:"goal,omitempty"`
	Allergies   *[]string `json:"allergies,omitempty"`
	Preferences *[]string `json:"preferences,omitempty"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Sex != nil {
		if _, err := energy.ParseSex(*r.Sex); err != nil {
			return fmt.Errorf("sex must be male or female")
		}
	}
	if r.Birthdate != nil {
		if _, err := time.Parse("2006-01-02", *r.Birthdate); err != nil {
			return fmt.Errorf("birthdate must be YYYY-MM-DD")
		}
	}
	if r.HeightCM != nil && (*r.HeightCM <= 0 || *r.HeightCM > 300) {
		return fmt.Errorf("height_cm must be in (0, 300]")
	}
	if r.WeightKG != nil && (*r.WeightKG <= 0 || *r.WeightKG > 500) {
		return fmt.Errorf("weight_kg must be in (0, 500]")
	}
	if r.Activity != nil {
		if _, err := energy.ParseActivityLevel(*r.Activity); err != nil {
			return fmt.Errorf("activity must be one of sedentary, light, moderate, high")
		}
	}
	if r.Goal != nil {
		if _, err := energy.ParseGoal(*r.Goal); err != nil {
			return fmt.Errorf("goal must be one of lose_fat, maintain, gain_muscle")
		}
	}
	return nil
}

// touchesEnergyInputs reports whether the update changes any input of the
// daily calorie computation.
func (r *UpdateProfileRequest) touchesEnergyInputs() bool {
	return r.Sex != nil || r.Birthdate != nil || r.HeightCM != nil ||
		r.WeightKG != nil || r.Activity != nil || r.Goal != nil
}

// ErrorResponse — формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
