package repo

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/tbourn/go-journal-backend/internal/domain"
)

func TestInsertMeals_AndListMealTypesSince(t *testing.T) {
	db := newRepoDB(t, &domain.Meal{})

	day := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)

	// Empty batch is a no-op.
	if err := InsertMeals(context.Background(), db, nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}

	rows := []domain.Meal{
		{ID: "m1", UserID: "u1", CheckinID: "c1", MealType: domain.MealBreakfast, Foods: domain.StringList{"eggs"}, LoggedAt: day.Add(8 * time.Hour)},
		{ID: "m2", UserID: "u1", CheckinID: "c1", MealType: domain.MealLunch, LoggedAt: day.Add(12 * time.Hour)},
		{ID: "m3", UserID: "u1", CheckinID: "c2", MealType: domain.MealLunch, LoggedAt: day.Add(13 * time.Hour)},
		{ID: "m4", UserID: "u1", CheckinID: "c0", MealType: domain.MealDinner, LoggedAt: day.Add(-6 * time.Hour)}, // yesterday
		{ID: "m5", UserID: "u2", CheckinID: "cx", MealType: domain.MealSnack, LoggedAt: day.Add(10 * time.Hour)},
	}
	if err := InsertMeals(context.Background(), db, rows); err != nil {
		t.Fatalf("InsertMeals: %v", err)
	}

	types, err := ListMealTypesSince(context.Background(), db, "u1", day)
	if err != nil {
		t.Fatalf("ListMealTypesSince: %v", err)
	}
	sort.Strings(types)
	if len(types) != 2 || types[0] != "breakfast" || types[1] != "lunch" {
		t.Fatalf("unexpected meal types: %v", types)
	}
}

func TestInsertMeals_EnumCheckRejected(t *testing.T) {
	db := newRepoDB(t, &domain.Meal{})
	err := InsertMeals(context.Background(), db, []domain.Meal{
		{ID: "bad", UserID: "u1", CheckinID: "c1", MealType: "brunch", LoggedAt: time.Now().UTC()},
	})
	if err == nil {
		t.Fatalf("expected check constraint violation for invalid meal_type")
	}
}

func TestLatestMoodSince(t *testing.T) {
	db := newRepoDB(t, &domain.MoodEntry{})

	day := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)

	// No entries yet: (nil, nil).
	mood, err := LatestMoodSince(context.Background(), db, "u1", day)
	if err != nil || mood != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", mood, err)
	}

	rows := []domain.MoodEntry{
		{ID: "e1", UserID: "u1", CheckinID: "c1", MoodScore: 6, EnergyScore: 5, LoggedAt: day.Add(9 * time.Hour)},
		{ID: "e2", UserID: "u1", CheckinID: "c2", MoodScore: 8, EnergyScore: 7, LoggedAt: day.Add(14 * time.Hour)},
		{ID: "e3", UserID: "u2", CheckinID: "cx", MoodScore: 2, EnergyScore: 2, LoggedAt: day.Add(15 * time.Hour)},
	}
	for _, r := range rows {
		if err := InsertMoodEntry(context.Background(), db, &r); err != nil {
			t.Fatalf("seed %s: %v", r.ID, err)
		}
	}

	mood, err = LatestMoodSince(context.Background(), db, "u1", day)
	if err != nil {
		t.Fatalf("LatestMoodSince: %v", err)
	}
	if mood == nil || mood.ID != "e2" {
		t.Fatalf("expected latest entry e2, got %+v", mood)
	}
}

func TestInsertMoodEntry_RangeCheckRejected(t *testing.T) {
	db := newRepoDB(t, &domain.MoodEntry{})
	err := InsertMoodEntry(context.Background(), db, &domain.MoodEntry{
		ID: "bad", UserID: "u1", CheckinID: "c1", MoodScore: 11, EnergyScore: 5, LoggedAt: time.Now().UTC(),
	})
	if err == nil {
		t.Fatalf("expected check constraint violation for mood_score 11")
	}
}

func TestHasWorkEntrySince(t *testing.T) {
	db := newRepoDB(t, &domain.WorkEntry{})

	day := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)

	has, err := HasWorkEntrySince(context.Background(), db, "u1", day)
	if err != nil || has {
		t.Fatalf("expected no work yet, got (%v, %v)", has, err)
	}

	if err := InsertWorkEntries(context.Background(), db, []domain.WorkEntry{
		{ID: "w1", UserID: "u1", CheckinID: "c1", Status: domain.WorkInProgress, LoggedAt: day.Add(10 * time.Hour)},
	}); err != nil {
		t.Fatalf("InsertWorkEntries: %v", err)
	}

	has, err = HasWorkEntrySince(context.Background(), db, "u1", day)
	if err != nil || !has {
		t.Fatalf("expected work logged, got (%v, %v)", has, err)
	}
}

func TestInsertWorriesAnticipationsPeople(t *testing.T) {
	db := newRepoDB(t, &domain.Worry{}, &domain.Anticipation{}, &domain.PersonMention{})

	now := time.Now().UTC()
	ctx := context.Background()

	if err := InsertWorries(ctx, db, []domain.Worry{
		{ID: "w1", UserID: "u1", CheckinID: "c1", Description: "deadline", Category: "work", Intensity: 4, LoggedAt: now},
	}); err != nil {
		t.Fatalf("InsertWorries: %v", err)
	}
	tgt := "next friday"
	if err := InsertAnticipations(ctx, db, []domain.Anticipation{
		{ID: "a1", UserID: "u1", CheckinID: "c1", Description: "trip", Category: "event", TargetDate: &tgt, LoggedAt: now},
	}); err != nil {
		t.Fatalf("InsertAnticipations: %v", err)
	}
	if err := InsertPersonMentions(ctx, db, []domain.PersonMention{
		{ID: "p1", UserID: "u1", CheckinID: "c1", PersonName: "Sam", Sentiment: "positive", LoggedAt: now},
	}); err != nil {
		t.Fatalf("InsertPersonMentions: %v", err)
	}

	var worries, anticipations, people int64
	db.Model(&domain.Worry{}).Count(&worries)
	db.Model(&domain.Anticipation{}).Count(&anticipations)
	db.Model(&domain.PersonMention{}).Count(&people)
	if worries != 1 || anticipations != 1 || people != 1 {
		t.Fatalf("unexpected counts: %d %d %d", worries, anticipations, people)
	}
}

func TestListMealsSince_OldestFirst(t *testing.T) {
	db := newRepoDB(t, &domain.Meal{})

	day := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)
	rows := []domain.Meal{
		{ID: "m2", UserID: "u1", CheckinID: "c1", MealType: domain.MealLunch, LoggedAt: day.Add(12 * time.Hour)},
		{ID: "m1", UserID: "u1", CheckinID: "c1", MealType: domain.MealBreakfast, LoggedAt: day.Add(8 * time.Hour)},
	}
	if err := InsertMeals(context.Background(), db, rows); err != nil {
		t.Fatalf("InsertMeals: %v", err)
	}

	list, err := ListMealsSince(context.Background(), db, "u1", day)
	if err != nil {
		t.Fatalf("ListMealsSince: %v", err)
	}
	if len(list) != 2 || list[0].ID != "m1" || list[1].ID != "m2" {
		t.Fatalf("unexpected order: %#v", list)
	}
}
