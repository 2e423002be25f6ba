package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/daiet-app/daiet-server/internal/energy"
	"github.com/daiet-app/daiet-server/internal/storage"
	"github.com/daiet-app/daiet-server/internal/userctx"
	"github.com/google/uuid"
)

var (
	ErrIncomplete    = errors.New("onboarding is not complete")
	ErrAlreadyExists = errors.New("profile already exists")
)

type draft struct {
	activity *ActivityFragment
	goal     *GoalFragment
	foods    *FoodsFragment
}

// Service накапливает фрагменты онбординга в памяти до создания профиля.
// Черновики короткоживущие, переживать рестарт им не нужно.
type Service struct {
	mu       sync.Mutex
	drafts   map[string]*draft
	profiles storage.ProfilesStorage
	minAge   int
	now      func() time.Time
}

// NewService создаёт новый сервис
func NewService(profiles storage.ProfilesStorage, minAge int) *Service {
	return &Service{
		drafts:   make(map[string]*draft),
		profiles: profiles,
		minAge:   minAge,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SaveActivity validates and stores the biometrics fragment.
func (s *Service) SaveActivity(ctx context.Context, fragment ActivityFragment) error {
	if err := fragment.validate(s.minAge, s.now()); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.draftFor(userIDFromContext(ctx)).activity = &fragment
	return nil
}

// SaveGoal validates and stores the goal fragment.
func (s *Service) SaveGoal(ctx context.Context, fragment GoalFragment) error {
	if err := fragment.validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.draftFor(userIDFromContext(ctx)).goal = &fragment
	return nil
}

// SaveFoods validates and stores the food preferences fragment.
func (s *Service) SaveFoods(ctx context.Context, fragment FoodsFragment) error {
	if err := fragment.validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.draftFor(userIDFromContext(ctx)).foods = &fragment
	return nil
}

// Status reports which fragments are present.
func (s *Service) Status(ctx context.Context) StatusDTO {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[userIDFromContext(ctx)]
	if !ok {
		return StatusDTO{}
	}
	status := StatusDTO{
		Activity: d.activity != nil,
		Goal:     d.goal != nil,
		Foods:    d.foods != nil,
	}
	status.Complete = status.Activity && status.Goal && status.Foods
	return status
}

// Merged returns the complete payload with derived daily targets, or
// ErrIncomplete while any fragment is missing. Targets use the
// percent-of-maintenance calorie formula.
func (s *Service) Merged(ctx context.Context) (*CompletePayload, error) {
	s.mu.Lock()
	d, ok := s.drafts[userIDFromContext(ctx)]
	if !ok || d.activity == nil || d.goal == nil || d.foods == nil {
		s.mu.Unlock()
		return nil, ErrIncomplete
	}
	activity, goalFragment, foods := *d.activity, *d.goal, *d.foods
	s.mu.Unlock()

	sex, _ := energy.ParseSex(activity.Sex)
	level, _ := energy.ParseActivityLevel(activity.Activity)
	goal, _ := energy.ParseGoal(goalFragment.Goal)
	birthdate, _ := time.Parse("2006-01-02", activity.Birthdate)

	calories, err := energy.DailyCalories(sex, activity.WeightKG, activity.HeightCM, birthdate, s.now(), level, goal, energy.StrategyPercent)
	if err != nil {
		return nil, err
	}
	split := energy.Macros(calories, goal)

	allergies := foods.Allergies
	if allergies == nil {
		allergies = []string{}
	}
	preferences := foods.Preferences
	if preferences == nil {
		preferences = []string{}
	}

	return &CompletePayload{
		Sex:           activity.Sex,
		Birthdate:     activity.Birthdate,
		HeightCM:      activity.HeightCM,
		WeightKG:      activity.WeightKG,
		Activity:      activity.Activity,
		Goal:          goalFragment.Goal,
		Allergies:     allergies,
		Preferences:   preferences,
		DailyCalories: calories,
		ProteinG:      split.ProteinG,
		FatG:          split.FatG,
		CarbsG:        split.CarbsG,
	}, nil
}

// Complete creates the profile from the merged payload and clears the draft.
func (s *Service) Complete(ctx context.Context) (*CompletePayload, error) {
	payload, err := s.Merged(ctx)
	if err != nil {
		return nil, err
	}

	userID := userIDFromContext(ctx)
	birthdate, _ := time.Parse("2006-01-02", payload.Birthdate)
	now := s.now()

	profile := &storage.Profile{
		ID:            uuid.New(),
		OwnerUserID:   userID,
		Sex:           payload.Sex,
		Birthdate:     birthdate,
		HeightCM:      payload.HeightCM,
		WeightKG:      payload.WeightKG,
		Activity:      payload.Activity,
		Goal:          payload.Goal,
		Allergies:     payload.Allergies,
		Preferences:   payload.Preferences,
		DailyCalories: payload.DailyCalories,
		ProteinG:      payload.ProteinG,
		FatG:          payload.FatG,
		CarbsG:        payload.CarbsG,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}

	s.Clear(ctx)
	return payload, nil
}

// Clear drops the draft after profile creation.
func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, userIDFromContext(ctx))
}

// draftFor must be called with the mutex held.
func (s *Service) draftFor(userID string) *draft {
	d, ok := s.drafts[userID]
	if !ok {
		d = &draft{}
		s.drafts[userID] = d
	}
	return d
}

func userIDFromContext(ctx context.Context) string {
	if userID, ok := userctx.GetUserID(ctx); ok && strings.TrimSpace(userID) != "" {
		return userID
	}
	return "default"
}
