package dailylog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/daiet-app/daiet-server/internal/mealgen"
	"github.com/daiet-app/daiet-server/internal/storage"
	"github.com/daiet-app/daiet-server/internal/storage/memory"
	"github.com/daiet-app/daiet-server/internal/userctx"
	"github.com/google/uuid"
)

type stubGenerator struct {
	mu    sync.Mutex
	meals storage.Meals
	err   error
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, profile mealgen.Profile) (storage.Meals, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.err != nil {
		return storage.Meals{}, g.err
	}
	return g.meals, nil
}

func (g *stubGenerator) AnalyzeFood(ctx context.Context, description string) (mealgen.FoodEstimate, error) {
	return mealgen.FoodEstimate{}, nil
}

func recommendedItem(name string, kcal, protein, carbs, fat float64) storage.FoodItem {
	return storage.FoodItem{
		ID:               uuid.NewString(),
		Name:             name,
		Portion:          "1 serving",
		Calories:         kcal,
		ProteinG:         protein,
		CarbsG:           carbs,
		FatG:             fat,
		IsRecommendation: true,
	}
}

func testMeals() storage.Meals {
	return storage.Meals{
		Breakfast: []storage.FoodItem{recommendedItem("Oatmeal", 300, 10, 50, 6)},
		Lunch:     []storage.FoodItem{recommendedItem("Chicken and rice", 550, 40, 60, 12)},
		Snack:     []storage.FoodItem{},
		Dinner:    []storage.FoodItem{recommendedItem("Salmon", 450, 35, 5, 25)},
	}
}

func testCtx(userID string) context.Context {
	return userctx.WithUserID(context.Background(), userID)
}

func newTestService(gen mealgen.Generator) (*Service, *memory.MemoryStorage) {
	store := memory.New()
	return NewService(store.GetDailyLogsStorage(), store, gen), store
}

func seedProfile(t *testing.T, store *memory.MemoryStorage, userID string) {
	t.Helper()
	err := store.CreateProfile(context.Background(), &storage.Profile{
		ID:            uuid.New(),
		OwnerUserID:   userID,
		Sex:           "male",
		Goal:          "maintain",
		Activity:      "moderate",
		HeightCM:      175,
		WeightKG:      75,
		DailyCalories: 2200,
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func assertTotalsMatchItems(t *testing.T, dto *DailyLogDTO) {
	t.Helper()
	var want storage.Totals
	for _, slot := range [][]storage.FoodItem{dto.Meals.Breakfast, dto.Meals.Lunch, dto.Meals.Snack, dto.Meals.Dinner} {
		for _, item := range slot {
			if !item.Consumed {
				continue
			}
			want.Calories += item.Calories
			want.ProteinG += item.ProteinG
			want.CarbsG += item.CarbsG
			want.FatG += item.FatG
		}
	}
	if dto.Totals != want {
		t.Fatalf("totals drifted from items: got %+v, want %+v", dto.Totals, want)
	}
}

func TestGetOrCreateGeneratesOnFirstAccess(t *testing.T) {
	gen := &stubGenerator{meals: testMeals()}
	svc, store := newTestService(gen)
	seedProfile(t, store, "u1")
	ctx := testCtx("u1")

	dto, err := svc.GetOrCreate(ctx, "2026-08-29")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 generator call, got %d", gen.calls)
	}
	if len(dto.Meals.Breakfast) != 1 || len(dto.Meals.Lunch) != 1 || len(dto.Meals.Dinner) != 1 {
		t.Fatalf("expected generated items in slots, got %+v", dto.Meals)
	}
	if dto.Totals != (storage.Totals{}) {
		t.Errorf("expected zero initial totals, got %+v", dto.Totals)
	}
	for _, item := range dto.Meals.Breakfast {
		if item.Consumed {
			t.Error("generated item must start unconsumed")
		}
		if !item.IsRecommendation {
			t.Error("generated item must be flagged as recommendation")
		}
	}
}

func TestGetOrCreateIdempotent(t *testing.T) {
	gen := &stubGenerator{meals: testMeals()}
	svc, store := newTestService(gen)
	seedProfile(t, store, "u1")
	ctx := testCtx("u1")

	first, err := svc.GetOrCreate(ctx, "2026-08-29")
	if err != nil {
		t.Fatalf("first GetOrCreate: %v", err)
	}
	second, err := svc.GetOrCreate(ctx, "2026-08-29")
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected same log id, got %s and %s", first.ID, second.ID)
	}
	if gen.calls != 1 {
		t.Errorf("expected no regeneration on second access, got %d calls", gen.calls)
	}
	if len(second.Meals.Breakfast) != len(first.Meals.Breakfast) {
		t.Error("second access changed log content")
	}
}

func TestGetOrCreateSeparateDates(t *testing.T) {
	gen := &stubGenerator{meals: testMeals()}
	svc, store := newTestService(gen)
	seedProfile(t, store, "u1")
	ctx := testCtx("u1")

	monday, err := svc.GetOrCreate(ctx, "2026-08-24")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	tuesday, err := svc.GetOrCreate(ctx, "2026-08-25")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if monday.ID == tuesday.ID {
		t.Error("expected distinct logs per date")
	}
	if gen.calls != 2 {
		t.Errorf("expected one generation per new date, got %d calls", gen.calls)
	}
}

func TestGetOrCreateWithoutProfile(t *testing.T) {
	gen := &stubGenerator{meals: testMeals()}
	svc, _ := newTestService(gen)
	ctx := testCtx("no-profile")

	dto, err := svc.GetOrCreate(ctx, "2026-08-29")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("expected no generation without profile, got %d calls", gen.calls)
	}
	if len(dto.Meals.Breakfast)+len(dto.Meals.Lunch)+len(dto.Meals.Snack)+len(dto.Meals.Dinner) != 0 {
		t.Errorf("expected four empty slots, got %+v", dto.Meals)
	}
	if dto.Meals.Breakfast == nil || dto.Meals.Dinner == nil {
		t.Error("expected empty slots to be non-nil")
	}
}

func TestGetOrCreateGenerationFailureFallsBack(t *testing.T) {
	gen := &stubGenerator{err: errors.New("upstream timeout")}
	svc, store := newTestService(gen)
	seedProfile(t, store, "u1")
	ctx := testCtx("u1")

	dto, err := svc.GetOrCreate(ctx, "2026-08-29")
	if err != nil {
		t.Fatalf("expected generation failure to be absorbed, got %v", err)
	}
	if len(dto.Meals.Breakfast)+len(dto.Meals.Lunch)+len(dto.Meals.Snack)+len(dto.Meals.Dinner) != 0 {
		t.Errorf("expected empty fallback slots, got %+v", dto.Meals)
	}
	if dto.Totals != (storage.Totals{}) {
		t.Errorf("expected zero totals, got %+v", dto.Totals)
	}
}

// conflictLogsStore simulates losing the creation race: the log appears
// between the initial lookup and the insert.
type conflictLogsStore struct {
	inner     *memory.DailyLogsMemoryStorage
	winner    *storage.DailyLog
	planted   bool
	conflicts int
}

func (s *conflictLogsStore) GetDailyLog(ctx context.Context, ownerUserID string, date string) (*storage.DailyLog, error) {
	return s.inner.GetDailyLog(ctx, ownerUserID, date)
}

func (s *conflictLogsStore) CreateDailyLog(ctx context.Context, log *storage.DailyLog) error {
	if !s.planted {
		s.planted = true
		s.conflicts++
		if err := s.inner.CreateDailyLog(ctx, s.winner); err != nil {
			return err
		}
		return storage.ErrConflict
	}
	return s.inner.CreateDailyLog(ctx, log)
}

func (s *conflictLogsStore) UpdateDailyLog(ctx context.Context, log *storage.DailyLog) error {
	return s.inner.UpdateDailyLog(ctx, log)
}

func TestGetOrCreateConflictRefetchesWinner(t *testing.T) {
	winner := &storage.DailyLog{
		ID:          uuid.New(),
		OwnerUserID: "u1",
		Date:        "2026-08-29",
		Meals:       testMeals(),
	}
	logs := &conflictLogsStore{inner: memory.NewDailyLogsMemoryStorage(), winner: winner}
	profiles := memory.New()
	seedProfile(t, profiles, "u1")
	svc := NewService(logs, profiles, &stubGenerator{meals: testMeals()})

	dto, err := svc.GetOrCreate(testCtx("u1"), "2026-08-29")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if dto.ID != winner.ID.String() {
		t.Errorf("expected the winner's log, got id %s", dto.ID)
	}
	if logs.conflicts != 1 {
		t.Errorf("expected exactly one conflict, got %d", logs.conflicts)
	}
}

func TestGetOrCreateConcurrent(t *testing.T) {
	svc, store := newTestService(&stubGenerator{meals: testMeals()})
	seedProfile(t, store, "u1")
	ctx := testCtx("u1")

	const workers = 16
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]int)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dto, err := svc.GetOrCreate(ctx, "2026-08-29")
			if err != nil {
				t.Errorf("GetOrCreate: %v", err)
				return
			}
			mu.Lock()
			ids[dto.ID]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != 1 {
		t.Fatalf("expected a single log id across %d concurrent calls, got %d: %v", workers, len(ids), ids)
	}

	// the stored log matches what every caller saw
	stored, err := store.GetDailyLog(context.Background(), "u1", "2026-08-29")
	if err != nil {
		t.Fatalf("GetDailyLog: %v", err)
	}
	if _, ok := ids[stored.ID.String()]; !ok {
		t.Errorf("stored log id %s never returned to callers", stored.ID)
	}
}

func TestToggleConsumedUpdatesTotals(t *testing.T) {
	svc, store := newTestService(&stubGenerator{meals: testMeals()})
	seedProfile(t, store, "u1")
	ctx := testCtx("u1")

	dto, err := svc.GetOrCreate(ctx, "2026-08-29")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	foodID := dto.Meals.Breakfast[0].ID
	updated, err := svc.ToggleConsumed(ctx, ToggleConsumedRequest{
		LogID:    dto.ID,
		Date:     "2026-08-29",
		MealSlot: SlotBreakfast,
		FoodID:   foodID,
		Consumed: true,
	})
	if err != nil {
		t.Fatalf("ToggleConsumed: %v", err)
	}

	if updated.Totals.Calories != 300 || updated.Totals.ProteinG != 10 {
		t.Errorf("unexpected totals %+v", updated.Totals)
	}
	item := updated.Meals.Breakfast[0]
	if !item.Consumed || item.ConsumedAt == nil {
		t.Errorf("expected consumed item with timestamp, got %+v", item)
	}
	assertTotalsMatchItems(t, updated)

	// untoggle: totals return to zero, timestamp cleared
	reverted, err := svc.ToggleConsumed(ctx, ToggleConsumedRequest{
		LogID:    dto.ID,
		Date:     "2026-08-29",
		MealSlot: SlotBreakfast,
		FoodID:   foodID,
		Consumed: false,
	})
	if err != nil {
		t.Fatalf("ToggleConsumed revert: %v", err)
	}
	if reverted.Totals != (storage.Totals{}) {
		t.Errorf("expected zero totals after revert, got %+v", reverted.Totals)
	}
	if reverted.Meals.Breakfast[0].ConsumedAt != nil {
		t.Error("expected timestamp cleared on unconsume")
	}
	assertTotalsMatchItems(t, reverted)
}

func TestToggleConsumedIdempotent(t *testing.T) {
	svc, store := newTestService(&stubGenerator{meals: testMeals()})
	seedProfile(t, store, "u1")
	ctx := testCtx("u1")

	dto, _ := svc.GetOrCreate(ctx, "2026-08-29")
	req := ToggleConsumedRequest{
		LogID:    dto.ID,
		Date:     "2026-08-29",
		MealSlot: SlotLunch,
		FoodID:   dto.Meals.Lunch[0].ID,
		Consumed: true,
	}

	first, err := svc.ToggleConsumed(ctx, req)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	second, err := svc.ToggleConsumed(ctx, req)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}

	if first.Totals != second.Totals {
		t.Errorf("repeat toggle changed totals: %+v vs %+v", first.Totals, second.Totals)
	}
	if !first.Meals.Lunch[0].ConsumedAt.Equal(*second.Meals.Lunch[0].ConsumedAt) {
		t.Error("repeat toggle changed consumption timestamp")
	}
}

func TestToggleConsumedErrors(t *testing.T) {
	svc, store := newTestService(&stubGenerator{meals: testMeals()})
	seedProfile(t, store, "u1")
	ctx := testCtx("u1")

	dto, _ := svc.GetOrCreate(ctx, "2026-08-29")
	foodID := dto.Meals.Breakfast[0].ID

	// item exists, but in a different slot
	if _, err := svc.ToggleConsumed(ctx, ToggleConsumedRequest{
		LogID: dto.ID, Date: "2026-08-29", MealSlot: SlotDinner, FoodID: foodID, Consumed: true,
	}); !errors.Is(err, ErrFoodNotFound) {
		t.Errorf("expected ErrFoodNotFound for wrong slot, got %v", err)
	}

	if _, err := svc.ToggleConsumed(ctx, ToggleConsumedRequest{
		LogID: dto.ID, Date: "2026-08-29", MealSlot: SlotBreakfast, FoodID: "missing", Consumed: true,
	}); !errors.Is(err, ErrFoodNotFound) {
		t.Errorf("expected ErrFoodNotFound, got %v", err)
	}

	if _, err := svc.ToggleConsumed(ctx, ToggleConsumedRequest{
		LogID: uuid.NewString(), Date: "2026-08-29", MealSlot: SlotBreakfast, FoodID: foodID, Consumed: true,
	}); !errors.Is(err, ErrLogNotFound) {
		t.Errorf("expected ErrLogNotFound for foreign log id, got %v", err)
	}

	if _, err := svc.ToggleConsumed(ctx, ToggleConsumedRequest{
		LogID: dto.ID, Date: "2026-08-29", MealSlot: "brunch", FoodID: foodID, Consumed: true,
	}); err == nil || !isValidation(err) {
		t.Errorf("expected validation error for unknown slot, got %v", err)
	}

	if _, err := svc.ToggleConsumed(testCtx("other-user"), ToggleConsumedRequest{
		LogID: dto.ID, Date: "2026-08-29", MealSlot: SlotBreakfast, FoodID: foodID, Consumed: true,
	}); !errors.Is(err, ErrLogNotFound) {
		t.Errorf("expected ErrLogNotFound for another user, got %v", err)
	}
}

func TestAddFood(t *testing.T) {
	svc, store := newTestService(&stubGenerator{meals: testMeals()})
	seedProfile(t, store, "u1")
	ctx := testCtx("u1")

	dto, _ := svc.GetOrCreate(ctx, "2026-08-29")

	updated, err := svc.AddFood(ctx, AddFoodRequest{
		Date:     "2026-08-29",
		MealSlot: SlotSnack,
		Item: AddFoodInput{
			Name:     "  Protein bar ",
			Portion:  "1 bar",
			Calories: 210,
			ProteinG: 20,
			CarbsG:   22,
			FatG:     7,
		},
	})
	if err != nil {
		t.Fatalf("AddFood: %v", err)
	}

	if len(updated.Meals.Snack) != 1 {
		t.Fatalf("expected 1 snack item, got %d", len(updated.Meals.Snack))
	}
	added := updated.Meals.Snack[0]
	if added.ID == "" {
		t.Error("expected a fresh id")
	}
	if added.Name != "Protein bar" {
		t.Errorf("expected trimmed name, got %q", added.Name)
	}
	if added.Consumed || added.IsRecommendation {
		t.Errorf("manual item must start unconsumed and unflagged, got %+v", added)
	}
	if updated.Totals != dto.Totals {
		t.Errorf("adding an unconsumed item changed totals: %+v", updated.Totals)
	}
	assertTotalsMatchItems(t, updated)

	// consuming the added item counts it in
	afterToggle, err := svc.ToggleConsumed(ctx, ToggleConsumedRequest{
		LogID: updated.ID, Date: "2026-08-29", MealSlot: SlotSnack, FoodID: added.ID, Consumed: true,
	})
	if err != nil {
		t.Fatalf("ToggleConsumed: %v", err)
	}
	if afterToggle.Totals.Calories != 210 || afterToggle.Totals.ProteinG != 20 {
		t.Errorf("unexpected totals %+v", afterToggle.Totals)
	}
	assertTotalsMatchItems(t, afterToggle)
}

func TestAddFoodErrors(t *testing.T) {
	svc, store := newTestService(&stubGenerator{meals: testMeals()})
	seedProfile(t, store, "u1")
	ctx := testCtx("u1")

	if _, err := svc.AddFood(ctx, AddFoodRequest{
		Date: "2026-08-29", MealSlot: SlotSnack,
		Item: AddFoodInput{Name: "Bar", Calories: 100},
	}); !errors.Is(err, ErrLogNotFound) {
		t.Errorf("expected ErrLogNotFound before log exists, got %v", err)
	}

	if _, err := svc.GetOrCreate(ctx, "2026-08-29"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	cases := []AddFoodRequest{
		{Date: "2026-08-29", MealSlot: "supper", Item: AddFoodInput{Name: "Bar", Calories: 100}},
		{Date: "2026-08-29", MealSlot: SlotSnack, Item: AddFoodInput{Name: "", Calories: 100}},
		{Date: "2026-08-29", MealSlot: SlotSnack, Item: AddFoodInput{Name: "Bar", Calories: -5}},
		{Date: "2026-08-29", MealSlot: SlotSnack, Item: AddFoodInput{Name: "Bar", ProteinG: 2000}},
		{Date: "bad-date", MealSlot: SlotSnack, Item: AddFoodInput{Name: "Bar", Calories: 100}},
	}
	for i, req := range cases {
		if _, err := svc.AddFood(ctx, req); err == nil || !isValidation(err) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestTotalsInvariantAcrossMutationSequence(t *testing.T) {
	svc, store := newTestService(&stubGenerator{meals: testMeals()})
	seedProfile(t, store, "u1")
	ctx := testCtx("u1")

	dto, err := svc.GetOrCreate(ctx, "2026-08-29")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	latest := dto
	toggle := func(slot, foodID string, consumed bool) {
		t.Helper()
		latest, err = svc.ToggleConsumed(ctx, ToggleConsumedRequest{
			LogID: dto.ID, Date: "2026-08-29", MealSlot: slot, FoodID: foodID, Consumed: consumed,
		})
		if err != nil {
			t.Fatalf("toggle %s: %v", foodID, err)
		}
		assertTotalsMatchItems(t, latest)
	}

	toggle(SlotBreakfast, dto.Meals.Breakfast[0].ID, true)
	toggle(SlotLunch, dto.Meals.Lunch[0].ID, true)

	for i := 0; i < 3; i++ {
		latest, err = svc.AddFood(ctx, AddFoodRequest{
			Date:     "2026-08-29",
			MealSlot: SlotDinner,
			Item:     AddFoodInput{Name: fmt.Sprintf("Extra %d", i), Calories: float64(100 + i), ProteinG: 5, CarbsG: 10, FatG: 2},
		})
		if err != nil {
			t.Fatalf("AddFood: %v", err)
		}
		assertTotalsMatchItems(t, latest)
	}

	toggle(SlotDinner, latest.Meals.Dinner[1].ID, true)
	toggle(SlotBreakfast, dto.Meals.Breakfast[0].ID, false)
	toggle(SlotDinner, dto.Meals.Dinner[0].ID, true)
	toggle(SlotDinner, dto.Meals.Dinner[0].ID, false)
	toggle(SlotLunch, dto.Meals.Lunch[0].ID, false)

	// only the first extra dinner item remains consumed
	if latest.Totals.Calories != 100 {
		t.Errorf("expected 100 kcal, got %v", latest.Totals.Calories)
	}
}
