package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-journal-backend/internal/domain"
)

func TestListActiveQuestions_FilterAndOrder(t *testing.T) {
	db := newRepoDB(t, &domain.Question{})

	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	rows := []domain.Question{
		{ID: "q1", UserID: "u1", Text: "a", Category: domain.CategoryMorning, Active: true, CreatedAt: t1},
		{ID: "q2", UserID: "u1", Text: "b", Category: domain.CategoryMorning, Active: true, CreatedAt: t2},
		{ID: "q3", UserID: "u1", Text: "c", Category: domain.CategoryMorning, Active: false, CreatedAt: t2},
		{ID: "q4", UserID: "u1", Text: "d", Category: domain.CategoryOpen, Active: true, CreatedAt: t2},
		{ID: "q5", UserID: "u2", Text: "e", Category: domain.CategoryMorning, Active: true, CreatedAt: t2},
	}
	for _, q := range rows {
		if err := db.Create(&q).Error; err != nil {
			t.Fatalf("seed %s: %v", q.ID, err)
		}
	}

	list, err := ListActiveQuestions(context.Background(), db, "u1", domain.CategoryMorning)
	if err != nil {
		t.Fatalf("ListActiveQuestions: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 active morning questions, got %d", len(list))
	}
	// Newest-created first: q2, q1
	if list[0].ID != "q2" || list[1].ID != "q1" {
		t.Fatalf("unexpected order: %#v", list)
	}
}

func TestCreateGeneratedQuestions(t *testing.T) {
	db := newRepoDB(t, &domain.Question{})

	// Empty slice is a no-op.
	if err := CreateGeneratedQuestions(context.Background(), db, "u1", "c1", nil); err != nil {
		t.Fatalf("empty: %v", err)
	}

	texts := []string{"How did the deploy go?", "Did the standup help?"}
	if err := CreateGeneratedQuestions(context.Background(), db, "u1", "c1", texts); err != nil {
		t.Fatalf("CreateGeneratedQuestions: %v", err)
	}

	var got []domain.Question
	if err := db.Order("text asc").Find(&got).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	for _, q := range got {
		if q.Category != domain.CategoryFollowUp || !q.Active || !q.IsGenerated {
			t.Fatalf("unexpected question fields: %+v", q)
		}
		if q.SourceCheckinID == nil || *q.SourceCheckinID != "c1" {
			t.Fatalf("expected source check-in c1, got %+v", q.SourceCheckinID)
		}
	}
}

func TestSeedDefaultQuestions_Idempotent(t *testing.T) {
	db := newRepoDB(t, &domain.Question{})

	if err := SeedDefaultQuestions(context.Background(), db, "u1"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var first int64
	if err := db.Model(&domain.Question{}).Where("user_id = ?", "u1").Count(&first).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if first == 0 {
		t.Fatalf("expected seeded questions")
	}

	// Second run must not add more.
	if err := SeedDefaultQuestions(context.Background(), db, "u1"); err != nil {
		t.Fatalf("seed again: %v", err)
	}
	var second int64
	if err := db.Model(&domain.Question{}).Where("user_id = ?", "u1").Count(&second).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if second != first {
		t.Fatalf("seeding was not idempotent: %d -> %d", first, second)
	}

	// Every seeded category is selectable.
	for _, cat := range []string{
		domain.CategoryMorning, domain.CategoryAfternoon, domain.CategoryEndOfDay,
		domain.CategoryReturn, domain.CategoryWeekly, domain.CategoryOpen,
	} {
		qs, err := ListActiveQuestions(context.Background(), db, "u1", cat)
		if err != nil {
			t.Fatalf("list %s: %v", cat, err)
		}
		if len(qs) == 0 {
			t.Fatalf("expected seeded questions in category %s", cat)
		}
	}
}
