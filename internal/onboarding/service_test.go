package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/daiet-app/daiet-server/internal/storage"
	"github.com/daiet-app/daiet-server/internal/storage/memory"
	"github.com/daiet-app/daiet-server/internal/userctx"
)

var testToday = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, *memory.MemoryStorage) {
	store := memory.New()
	svc := NewService(store, 13)
	svc.now = func() time.Time { return testToday }
	return svc, store
}

func testCtx(userID string) context.Context {
	return userctx.WithUserID(context.Background(), userID)
}

func validActivity() ActivityFragment {
	return ActivityFragment{
		Sex:       "male",
		Birthdate: "1996-01-10",
		HeightCM:  175,
		WeightKG:  75,
		Activity:  "moderate",
	}
}

func completeDraft(t *testing.T, svc *Service, ctx context.Context) {
	t.Helper()
	if err := svc.SaveActivity(ctx, validActivity()); err != nil {
		t.Fatalf("SaveActivity: %v", err)
	}
	if err := svc.SaveGoal(ctx, GoalFragment{Goal: "lose_fat"}); err != nil {
		t.Fatalf("SaveGoal: %v", err)
	}
	if err := svc.SaveFoods(ctx, FoodsFragment{Allergies: []string{"peanuts"}, Preferences: []string{"chicken", "rice"}}); err != nil {
		t.Fatalf("SaveFoods: %v", err)
	}
}

func TestMergedIncompleteUntilAllFragments(t *testing.T) {
	svc, _ := newTestService()
	ctx := testCtx("u1")

	if _, err := svc.Merged(ctx); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete with no fragments, got %v", err)
	}

	if err := svc.SaveActivity(ctx, validActivity()); err != nil {
		t.Fatalf("SaveActivity: %v", err)
	}
	if _, err := svc.Merged(ctx); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete with one fragment, got %v", err)
	}

	if err := svc.SaveGoal(ctx, GoalFragment{Goal: "maintain"}); err != nil {
		t.Fatalf("SaveGoal: %v", err)
	}
	if _, err := svc.Merged(ctx); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete with two fragments, got %v", err)
	}

	if err := svc.SaveFoods(ctx, FoodsFragment{}); err != nil {
		t.Fatalf("SaveFoods: %v", err)
	}
	payload, err := svc.Merged(ctx)
	if err != nil {
		t.Fatalf("Merged: %v", err)
	}
	if payload.DailyCalories <= 0 {
		t.Errorf("expected derived calories, got %d", payload.DailyCalories)
	}
	if payload.Allergies == nil || payload.Preferences == nil {
		t.Error("expected non-nil lists in merged payload")
	}
}

func TestMergedUsesPercentFormula(t *testing.T) {
	svc, _ := newTestService()
	ctx := testCtx("u1")
	completeDraft(t, svc, ctx)

	payload, err := svc.Merged(ctx)
	if err != nil {
		t.Fatalf("Merged: %v", err)
	}

	// male 75kg/175cm, age 30 on 2026-08-29, moderate:
	// BMR 1762.65, TDEE 2732.1075, lose_fat at 80% -> 2186
	if payload.DailyCalories != 2186 {
		t.Errorf("expected 2186 kcal, got %d", payload.DailyCalories)
	}
	if payload.ProteinG != 191 || payload.FatG != 61 || payload.CarbsG != 219 {
		t.Errorf("unexpected macros %d/%d/%d", payload.ProteinG, payload.FatG, payload.CarbsG)
	}
}

func TestActivityFragmentValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := testCtx("u1")

	cases := []struct {
		name   string
		mutate func(*ActivityFragment)
	}{
		{"bad sex", func(f *ActivityFragment) { f.Sex = "other" }},
		{"bad activity", func(f *ActivityFragment) { f.Activity = "extreme" }},
		{"zero height", func(f *ActivityFragment) { f.HeightCM = 0 }},
		{"height too large", func(f *ActivityFragment) { f.HeightCM = 301 }},
		{"zero weight", func(f *ActivityFragment) { f.WeightKG = 0 }},
		{"weight too large", func(f *ActivityFragment) { f.WeightKG = 501 }},
		{"bad birthdate", func(f *ActivityFragment) { f.Birthdate = "10.01.1996" }},
	}
	for _, tc := range cases {
		fragment := validActivity()
		tc.mutate(&fragment)
		if err := svc.SaveActivity(ctx, fragment); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestMinimumAgeBoundary(t *testing.T) {
	svc, _ := newTestService()
	ctx := testCtx("u1")

	// turns 13 exactly today: accepted
	fragment := validActivity()
	fragment.Birthdate = "2013-08-29"
	if err := svc.SaveActivity(ctx, fragment); err != nil {
		t.Errorf("expected exactly-13 accepted, got %v", err)
	}

	// turns 13 tomorrow: rejected
	fragment.Birthdate = "2013-08-30"
	if err := svc.SaveActivity(ctx, fragment); err == nil {
		t.Error("expected under-13 rejected")
	}
}

func TestGoalAndFoodsValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := testCtx("u1")

	if err := svc.SaveGoal(ctx, GoalFragment{Goal: "bulk"}); err == nil {
		t.Error("expected invalid goal rejected")
	}
	if err := svc.SaveFoods(ctx, FoodsFragment{Allergies: []string{" "}}); err == nil {
		t.Error("expected blank allergy rejected")
	}
	if err := svc.SaveFoods(ctx, FoodsFragment{Preferences: []string{""}}); err == nil {
		t.Error("expected blank preference rejected")
	}
}

func TestCompleteCreatesProfileAndClears(t *testing.T) {
	svc, store := newTestService()
	ctx := testCtx("u1")
	completeDraft(t, svc, ctx)

	payload, err := svc.Complete(ctx)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	profile, err := store.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.DailyCalories != payload.DailyCalories {
		t.Errorf("profile calories %d != payload %d", profile.DailyCalories, payload.DailyCalories)
	}
	if profile.Goal != "lose_fat" || profile.Sex != "male" {
		t.Errorf("unexpected profile %+v", profile)
	}
	if len(profile.Allergies) != 1 || profile.Allergies[0] != "peanuts" {
		t.Errorf("unexpected allergies %v", profile.Allergies)
	}

	// draft cleared
	if _, err := svc.Merged(ctx); !errors.Is(err, ErrIncomplete) {
		t.Errorf("expected cleared draft, got %v", err)
	}
}

func TestCompleteConflictsWithExistingProfile(t *testing.T) {
	svc, store := newTestService()
	ctx := testCtx("u1")

	if err := store.CreateProfile(context.Background(), &storage.Profile{OwnerUserID: "u1", Sex: "male"}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	completeDraft(t, svc, ctx)
	if _, err := svc.Complete(ctx); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestDraftsAreIsolatedPerUser(t *testing.T) {
	svc, _ := newTestService()
	completeDraft(t, svc, testCtx("u1"))

	if _, err := svc.Merged(testCtx("u2")); !errors.Is(err, ErrIncomplete) {
		t.Errorf("expected u2 draft empty, got %v", err)
	}

	status := svc.Status(testCtx("u1"))
	if !status.Complete {
		t.Errorf("expected u1 draft complete, got %+v", status)
	}
}
