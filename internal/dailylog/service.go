package dailylog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/daiet-app/daiet-server/internal/mealgen"
	"github.com/daiet-app/daiet-server/internal/storage"
	"github.com/daiet-app/daiet-server/internal/userctx"
	"github.com/google/uuid"
)

var (
	ErrLogNotFound  = errors.New("daily log not found")
	ErrFoodNotFound = errors.New("food item not found")
)

// Service ведёт дневной лог питания: одна запись на (пользователь, дата).
type Service struct {
	logs      storage.DailyLogsStorage
	profiles  storage.ProfilesStorage
	generator mealgen.Generator
}

// NewService создаёт новый сервис
func NewService(logs storage.DailyLogsStorage, profiles storage.ProfilesStorage, generator mealgen.Generator) *Service {
	return &Service{logs: logs, profiles: profiles, generator: generator}
}

// GetOrCreate returns the log for (user, date), creating it on first access.
// A new log starts with generated recommendations when the user has a
// profile; generation failure degrades to four empty slots. An empty date
// means the current UTC date.
func (s *Service) GetOrCreate(ctx context.Context, date string) (*DailyLogDTO, error) {
	userID := userIDFromContext(ctx)
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	existing, err := s.logs.GetDailyLog(ctx, userID, date)
	if err == nil {
		return toDTO(existing), nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	meals := mealgen.EmptyMeals()
	profile, err := s.profiles.GetProfile(ctx, userID)
	switch {
	case err == nil:
		generated, genErr := s.generator.Generate(ctx, mealgen.Profile{
			Sex:           profile.Sex,
			Goal:          profile.Goal,
			DailyCalories: profile.DailyCalories,
			Allergies:     profile.Allergies,
			Preferences:   profile.Preferences,
		})
		if genErr != nil {
			log.Printf("dailylog: meal generation failed for user=%s date=%s: %v", userID, date, genErr)
		} else {
			meals = generated
		}
	case errors.Is(err, storage.ErrNotFound):
		// no profile yet: empty slots, no generation
	default:
		return nil, err
	}

	newLog := &storage.DailyLog{
		ID:          uuid.New(),
		OwnerUserID: userID,
		Date:        date,
		Meals:       meals,
		Totals:      computeTotals(meals),
	}

	if err := s.logs.CreateDailyLog(ctx, newLog); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// lost the creation race: the winner's log is authoritative
			winner, refetchErr := s.logs.GetDailyLog(ctx, userID, date)
			if refetchErr != nil {
				return nil, refetchErr
			}
			return toDTO(winner), nil
		}
		return nil, err
	}

	return toDTO(newLog), nil
}

// ToggleConsumed flips the consumed flag of one food item and recomputes
// totals. Repeating the call with the same value leaves the log unchanged.
func (s *Service) ToggleConsumed(ctx context.Context, req ToggleConsumedRequest) (*DailyLogDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	dayLog, err := s.fetchOwnedLog(ctx, req.LogID, req.Date)
	if err != nil {
		return nil, err
	}

	items := slotItems(&dayLog.Meals, req.MealSlot)
	var item *storage.FoodItem
	for i := range *items {
		if (*items)[i].ID == req.FoodID {
			item = &(*items)[i]
			break
		}
	}
	if item == nil {
		return nil, ErrFoodNotFound
	}

	if req.Consumed {
		if !item.Consumed || item.ConsumedAt == nil {
			now := time.Now().UTC()
			item.ConsumedAt = &now
		}
	} else {
		item.ConsumedAt = nil
	}
	item.Consumed = req.Consumed

	dayLog.Totals = computeTotals(dayLog.Meals)
	if err := s.logs.UpdateDailyLog(ctx, dayLog); err != nil {
		return nil, err
	}

	return toDTO(dayLog), nil
}

// AddFood appends a user-entered item to one meal slot. The item starts
// unconsumed, so totals do not change until it is toggled.
func (s *Service) AddFood(ctx context.Context, req AddFoodRequest) (*DailyLogDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	dayLog, err := s.fetchOwnedLog(ctx, "", req.Date)
	if err != nil {
		return nil, err
	}

	items := slotItems(&dayLog.Meals, req.MealSlot)
	*items = append(*items, storage.FoodItem{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(req.Item.Name),
		Portion:          strings.TrimSpace(req.Item.Portion),
		Calories:         req.Item.Calories,
		ProteinG:         req.Item.ProteinG,
		CarbsG:           req.Item.CarbsG,
		FatG:             req.Item.FatG,
		IsRecommendation: false,
		Consumed:         false,
	})

	dayLog.Totals = computeTotals(dayLog.Meals)
	if err := s.logs.UpdateDailyLog(ctx, dayLog); err != nil {
		return nil, err
	}

	return toDTO(dayLog), nil
}

// fetchOwnedLog loads the caller's log for the given date (empty means the
// current UTC date). When logID is non-empty it must match the stored id,
// so a foreign log id never resolves to another user's record.
func (s *Service) fetchOwnedLog(ctx context.Context, logID string, date string) (*storage.DailyLog, error) {
	userID := userIDFromContext(ctx)
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	dayLog, err := s.logs.GetDailyLog(ctx, userID, date)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}
	if logID != "" && dayLog.ID.String() != logID {
		return nil, ErrLogNotFound
	}
	return dayLog, nil
}

// computeTotals is the single source of truth for daily totals: a full
// recomputation over consumed items, never an incremental adjustment.
func computeTotals(meals storage.Meals) storage.Totals {
	var totals storage.Totals
	for _, slot := range [][]storage.FoodItem{meals.Breakfast, meals.Lunch, meals.Snack, meals.Dinner} {
		for _, item := range slot {
			if !item.Consumed {
				continue
			}
			totals.Calories += item.Calories
			totals.ProteinG += item.ProteinG
			totals.CarbsG += item.CarbsG
			totals.FatG += item.FatG
		}
	}
	return totals
}

func slotItems(meals *storage.Meals, slot string) *[]storage.FoodItem {
	switch slot {
	case SlotBreakfast:
		return &meals.Breakfast
	case SlotLunch:
		return &meals.Lunch
	case SlotSnack:
		return &meals.Snack
	default:
		return &meals.Dinner
	}
}

func userIDFromContext(ctx context.Context) string {
	if userID, ok := userctx.GetUserID(ctx); ok && strings.TrimSpace(userID) != "" {
		return userID
	}
	return "default"
}
