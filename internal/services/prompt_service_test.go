package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-journal-backend/internal/domain"
)

func newServiceDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("service_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

// promptDB migrates everything the selector snapshot reads.
func promptDB(t *testing.T) *gorm.DB {
	t.Helper()
	return newServiceDB(t,
		&domain.Checkin{}, &domain.Question{}, &domain.Meal{},
		&domain.MoodEntry{}, &domain.WorkEntry{},
	)
}

// promptSvcAt builds a deterministic selector: fixed clock, first-candidate
// picks.
func promptSvcAt(db *gorm.DB, now time.Time) *PromptService {
	s := NewPromptService(db)
	s.Now = func() time.Time { return now }
	s.randInt = func(int) int { return 0 }
	return s
}

func seedQuestion(t *testing.T, db *gorm.DB, id, userID, category string, createdAt time.Time) {
	t.Helper()
	q := domain.Question{
		ID: id, UserID: userID, Text: "q-" + id, Category: category,
		Active: true, CreatedAt: createdAt,
	}
	if err := db.Create(&q).Error; err != nil {
		t.Fatalf("seed question %s: %v", id, err)
	}
}

func seedFreshMood(t *testing.T, db *gorm.DB, userID string, now time.Time) {
	t.Helper()
	e := domain.MoodEntry{
		ID: "mood-" + userID, UserID: userID, CheckinID: "c", MoodScore: 6,
		EnergyScore: 6, LoggedAt: now.Add(-30 * time.Minute),
	}
	if err := db.Create(&e).Error; err != nil {
		t.Fatalf("seed mood: %v", err)
	}
}

func seedMeal(t *testing.T, db *gorm.DB, userID, mealType string, at time.Time) {
	t.Helper()
	m := domain.Meal{
		ID: "meal-" + userID + "-" + mealType, UserID: userID, CheckinID: "c",
		MealType: mealType, LoggedAt: at,
	}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed meal: %v", err)
	}
}

// A Tuesday. Hour picked per test via Add.
var tuesday = time.Date(2025, 4, 8, 0, 0, 0, 0, time.Local)

func TestNext_RequiresUserID(t *testing.T) {
	s := promptSvcAt(promptDB(t), tuesday.Add(10*time.Hour))
	if _, err := s.Next(context.Background(), "", "", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNext_PostMeeting_DynamicPrompt(t *testing.T) {
	// No questions seeded: post_meeting never touches storage.
	s := promptSvcAt(promptDB(t), tuesday.Add(10*time.Hour))

	p, err := s.Next(context.Background(), "u1", ContextPostMeeting, "Design Review")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.QuestionText != "How did Design Review go?" {
		t.Fatalf("unexpected text: %q", p.QuestionText)
	}
	if p.Category != domain.CategoryPostMeeting || p.Source != SourceDynamic || p.QuestionID != "" {
		t.Fatalf("unexpected prompt: %+v", p)
	}
}

func TestNext_PostMeeting_WithoutName_FallsThrough(t *testing.T) {
	db := promptDB(t)
	seedQuestion(t, db, "aft", "u1", domain.CategoryAfternoon, tuesday)
	s := promptSvcAt(db, tuesday.Add(10*time.Hour)) // mood stale → afternoon

	p, err := s.Next(context.Background(), "u1", ContextPostMeeting, "")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.Category != domain.CategoryAfternoon {
		t.Fatalf("expected ladder to run without meeting name, got %+v", p)
	}
}

func TestNext_ReturnFromBreak_LunchWindowNoLunch(t *testing.T) {
	db := promptDB(t)
	seedQuestion(t, db, "ret", "u1", domain.CategoryReturn, tuesday)
	s := promptSvcAt(db, tuesday.Add(12*time.Hour))

	p, err := s.Next(context.Background(), "u1", ContextReturnFromBreak, "")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.Category != domain.CategoryReturn || p.QuestionID != "ret" || p.Source != SourceDatabase {
		t.Fatalf("unexpected prompt: %+v", p)
	}
}

func TestNext_ReturnFromBreak_LunchAlreadyLogged_SkipsRung(t *testing.T) {
	db := promptDB(t)
	now := tuesday.Add(12 * time.Hour)
	seedMeal(t, db, "u1", domain.MealLunch, now.Add(-time.Hour))
	seedQuestion(t, db, "aft", "u1", domain.CategoryAfternoon, tuesday)
	s := promptSvcAt(db, now)

	p, err := s.Next(context.Background(), "u1", ContextReturnFromBreak, "")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	// Lunch logged ⇒ the return rung misses; mood stale catches next.
	if p.Category != domain.CategoryAfternoon {
		t.Fatalf("expected afternoon, got %+v", p)
	}
}

func TestNext_FirstArrival_Monday_Weekly(t *testing.T) {
	db := promptDB(t)
	monday := time.Date(2025, 4, 7, 9, 0, 0, 0, time.Local)
	seedQuestion(t, db, "wk", "u1", domain.CategoryWeekly, monday.Add(-24*time.Hour))
	s := promptSvcAt(db, monday)

	p, err := s.Next(context.Background(), "u1", ContextFirstArrival, "")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.Category != domain.CategoryWeekly || p.QuestionID != "wk" {
		t.Fatalf("unexpected prompt: %+v", p)
	}
}

func TestNext_FirstArrival_WeekdayMorning(t *testing.T) {
	db := promptDB(t)
	seedQuestion(t, db, "mor", "u1", domain.CategoryMorning, tuesday)
	s := promptSvcAt(db, tuesday.Add(9*time.Hour))

	p, err := s.Next(context.Background(), "u1", ContextFirstArrival, "")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.Category != domain.CategoryMorning {
		t.Fatalf("expected morning, got %+v", p)
	}
}

func TestNext_MoodStale_Afternoon(t *testing.T) {
	db := promptDB(t)
	now := tuesday.Add(15 * time.Hour)
	// Mood logged this morning, more than 4h ago → stale.
	e := domain.MoodEntry{ID: "m", UserID: "u1", CheckinID: "c", MoodScore: 5, EnergyScore: 5, LoggedAt: now.Add(-5 * time.Hour)}
	if err := db.Create(&e).Error; err != nil {
		t.Fatalf("seed mood: %v", err)
	}
	seedQuestion(t, db, "aft", "u1", domain.CategoryAfternoon, tuesday)
	s := promptSvcAt(db, now)

	p, err := s.Next(context.Background(), "u1", "", "")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.Category != domain.CategoryAfternoon {
		t.Fatalf("expected afternoon, got %+v", p)
	}
}

func TestNext_LateDay_EndOfDay(t *testing.T) {
	db := promptDB(t)
	now := tuesday.Add(17 * time.Hour)
	seedFreshMood(t, db, "u1", now)
	seedQuestion(t, db, "eod", "u1", domain.CategoryEndOfDay, tuesday)
	s := promptSvcAt(db, now)

	p, err := s.Next(context.Background(), "u1", "", "")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.Category != domain.CategoryEndOfDay {
		t.Fatalf("expected end_of_day, got %+v", p)
	}
}

func TestNext_NoBreakfastBefore11_Morning(t *testing.T) {
	db := promptDB(t)
	now := tuesday.Add(10 * time.Hour)
	seedFreshMood(t, db, "u1", now)
	seedQuestion(t, db, "mor", "u1", domain.CategoryMorning, tuesday)
	s := promptSvcAt(db, now)

	p, err := s.Next(context.Background(), "u1", "", "")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.Category != domain.CategoryMorning {
		t.Fatalf("expected morning, got %+v", p)
	}
}

func TestNext_NoLunchInWindow_Return(t *testing.T) {
	db := promptDB(t)
	now := tuesday.Add(13 * time.Hour)
	seedFreshMood(t, db, "u1", now)
	seedMeal(t, db, "u1", domain.MealBreakfast, now.Add(-5*time.Hour))
	seedQuestion(t, db, "ret", "u1", domain.CategoryReturn, tuesday)
	s := promptSvcAt(db, now)

	p, err := s.Next(context.Background(), "u1", "", "")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.Category != domain.CategoryReturn {
		t.Fatalf("expected return, got %+v", p)
	}
}

func TestNext_NoWorkLogged_Open(t *testing.T) {
	db := promptDB(t)
	now := tuesday.Add(15 * time.Hour)
	seedFreshMood(t, db, "u1", now)
	seedMeal(t, db, "u1", domain.MealBreakfast, now.Add(-6*time.Hour))
	seedMeal(t, db, "u1", domain.MealLunch, now.Add(-2*time.Hour))
	seedQuestion(t, db, "opn", "u1", domain.CategoryOpen, tuesday)
	s := promptSvcAt(db, now)

	p, err := s.Next(context.Background(), "u1", "", "")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.Category != domain.CategoryOpen {
		t.Fatalf("expected open, got %+v", p)
	}
}

func TestNext_EverythingLogged_FollowUp(t *testing.T) {
	db := promptDB(t)
	now := tuesday.Add(15 * time.Hour)
	seedFreshMood(t, db, "u1", now)
	seedMeal(t, db, "u1", domain.MealBreakfast, now.Add(-6*time.Hour))
	seedMeal(t, db, "u1", domain.MealLunch, now.Add(-2*time.Hour))
	w := domain.WorkEntry{ID: "w", UserID: "u1", CheckinID: "c", Status: domain.WorkInProgress, LoggedAt: now.Add(-time.Hour)}
	if err := db.Create(&w).Error; err != nil {
		t.Fatalf("seed work: %v", err)
	}
	seedQuestion(t, db, "fu", "u1", domain.CategoryFollowUp, tuesday)
	s := promptSvcAt(db, now)

	p, err := s.Next(context.Background(), "u1", "", "")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.Category != domain.CategoryFollowUp || p.QuestionID != "fu" {
		t.Fatalf("expected follow_up, got %+v", p)
	}
}

func TestNext_ExcludesQuestionsAskedToday(t *testing.T) {
	db := promptDB(t)
	now := tuesday.Add(9 * time.Hour)
	seedQuestion(t, db, "m1", "u1", domain.CategoryMorning, tuesday.Add(-time.Hour))
	seedQuestion(t, db, "m2", "u1", domain.CategoryMorning, tuesday.Add(-2*time.Hour))

	// m1 (the newest, the deterministic first pick) was already asked today.
	asked := "m1"
	c := domain.Checkin{ID: "c1", UserID: "u1", Transcript: "t", QuestionID: &asked, RecordedAt: now.Add(-time.Hour)}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed checkin: %v", err)
	}

	s := promptSvcAt(db, now)
	p, err := s.Next(context.Background(), "u1", ContextFirstArrival, "")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.QuestionID != "m2" {
		t.Fatalf("expected unasked m2, got %+v", p)
	}
}

func TestNext_CategoryExhausted_FallsBackToOpen(t *testing.T) {
	db := promptDB(t)
	now := tuesday.Add(9 * time.Hour)
	// No morning questions at all; open exists.
	seedQuestion(t, db, "opn", "u1", domain.CategoryOpen, tuesday)

	s := promptSvcAt(db, now)
	p, err := s.Next(context.Background(), "u1", ContextFirstArrival, "")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.QuestionID != "opn" || p.Category != domain.CategoryOpen || p.Source != SourceDatabase {
		t.Fatalf("expected open fallback from storage, got %+v", p)
	}
}

func TestNext_NothingSelectable_FixedFallback(t *testing.T) {
	s := promptSvcAt(promptDB(t), tuesday.Add(9*time.Hour))

	p, err := s.Next(context.Background(), "u1", ContextFirstArrival, "")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.QuestionText != "What's on your mind right now?" {
		t.Fatalf("unexpected fallback text: %q", p.QuestionText)
	}
	if p.QuestionID != "" || p.Source != SourceFallback || p.Category != domain.CategoryOpen {
		t.Fatalf("unexpected fallback prompt: %+v", p)
	}
}

func TestNext_UniformPickUsesInjectedRand(t *testing.T) {
	db := promptDB(t)
	now := tuesday.Add(9 * time.Hour)
	seedQuestion(t, db, "m1", "u1", domain.CategoryMorning, tuesday.Add(-time.Hour))
	seedQuestion(t, db, "m2", "u1", domain.CategoryMorning, tuesday.Add(-2*time.Hour))

	s := promptSvcAt(db, now)
	s.randInt = func(n int) int {
		if n != 2 {
			t.Fatalf("expected 2 candidates, got %d", n)
		}
		return 1
	}

	p, err := s.Next(context.Background(), "u1", ContextFirstArrival, "")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.QuestionID != "m2" {
		t.Fatalf("expected index-1 candidate m2, got %+v", p)
	}
}
