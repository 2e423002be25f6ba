package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/daiet-app/daiet-server/internal/energy"
	"github.com/daiet-app/daiet-server/internal/storage"
	"github.com/daiet-app/daiet-server/internal/userctx"
)

var ErrNotFound = errors.New("profile not found")

// Service содержит бизнес-логику профилей
type Service struct {
	storage storage.ProfilesStorage
	now     func() time.Time
}

// NewService создаёт новый сервис
func NewService(st storage.ProfilesStorage) *Service {
	return &Service{
		storage: st,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetProfile возвращает профиль текущего пользователя
func (s *Service) GetProfile(ctx context.Context) (*ProfileDTO, error) {
	profile, err := s.storage.GetProfile(ctx, userIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	dto := toDTO(profile)
	return &dto, nil
}

// UpdateProfile applies a partial update. Whenever any energy input changes
// (sex, birthdate, height, weight, activity, goal) the daily calorie target
// and macros are recomputed before persisting, so the denormalized values
// never go stale.
func (s *Service) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*ProfileDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	profile, err := s.storage.GetProfile(ctx, userIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Sex != nil {
		profile.Sex = *req.Sex
	}
	if req.Birthdate != nil {
		birthdate, _ := time.Parse("2006-01-02", *req.Birthdate)
		profile.Birthdate = birthdate
	}
	if req.HeightCM != nil {
		profile.HeightCM = *req.HeightCM
	}
	if req.WeightKG != nil {
		profile.WeightKG = *req.WeightKG
	}
	if req.Activity != nil {
		profile.Activity = *req.Activity
	}
	if req.Goal != nil {
		profile.Goal = *req.Goal
	}
	if req.Allergies != nil {
		profile.Allergies = *req.Allergies
	}
	if req.Preferences != nil {
		profile.Preferences = *req.Preferences
	}

	if req.touchesEnergyInputs() {
		if err := RecomputeTargets(profile, s.now()); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
	}

	profile.UpdatedAt = s.now()
	if err := s.storage.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	dto := toDTO(profile)
	return &dto, nil
}

// RecomputeTargets пересчитывает дневную цель и макросы из биометрии.
// Единственная точка пересчёта, все мутации профиля обязаны проходить
// через неё.
func RecomputeTargets(profile *storage.Profile, today time.Time) error {
	sex, err := energy.ParseSex(profile.Sex)
	if err != nil {
		return err
	}
	level, err := energy.ParseActivityLevel(profile.Activity)
	if err != nil {
		return err
	}
	goal, err := energy.ParseGoal(profile.Goal)
	if err != nil {
		return err
	}

	calories, err := energy.DailyCalories(sex, profile.WeightKG, profile.HeightCM, profile.Birthdate, today, level, goal, energy.StrategyOffset)
	if err != nil {
		return err
	}
	split := energy.Macros(calories, goal)

	profile.DailyCalories = calories
	profile.ProteinG = split.ProteinG
	profile.FatG = split.FatG
	profile.CarbsG = split.CarbsG
	return nil
}

// toDTO конвертирует storage.Profile в ProfileDTO
func toDTO(p *storage.Profile) ProfileDTO {
	allergies := p.Allergies
	if allergies == nil {
		allergies = []string{}
	}
	preferences := p.Preferences
	if preferences == nil {
		preferences = []string{}
	}

	return ProfileDTO{
		ID:            p.ID,
		Sex:           p.Sex,
		Birthdate:     p.Birthdate.Format("2006-01-02"),
		HeightCM:      p.HeightCM,
		WeightKG:      p.WeightKG,
		Activity:      p.Activity,
		Goal:          p.Goal,
		Allergies:     allergies,
		Preferences:   preferences,
		DailyCalories: p.DailyCalories,
		ProteinG:      p.ProteinG,
		FatG:          p.FatG,
		CarbsG:        p.CarbsG,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func userIDFromContext(ctx context.Context) string {
	if userID, ok := userctx.GetUserID(ctx); ok && strings.TrimSpace(userID) != "" {
		return userID
	}
	return "default"
}
