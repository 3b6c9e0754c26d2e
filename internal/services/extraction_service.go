// Package services – ExtractionService
//
// This file implements the extraction pipeline: fetch a check-in, invoke the
// language model with the fixed extraction instruction, parse and validate
// the response, fan the resulting rows out into their collections, and mark
// the check-in processed.
//
// Idempotence: the processed-flag check happens before any model call or
// write, and the flag update is guarded (processed=false) and issued last, so
// duplicate trigger signals perform the destructive write pass at most once.
//
// Partial failure: the per-collection inserts run concurrently and fail in
// isolation. Failures are collected and reported alongside the result; they
// never roll back sibling inserts and never prevent the processed-flag
// update.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-journal-backend/internal/domain"
	"github.com/tbourn/go-journal-backend/internal/llm"
	"github.com/tbourn/go-journal-backend/internal/repo"
)

// Pipeline result statuses.
const (
	StatusProcessed        = "processed"
	StatusAlreadyProcessed = "already_processed"
)

// ProcessResult reports how far the pipeline got for one check-in.
type ProcessResult struct {
	Status       string          `json:"status"`
	CheckinID    string          `json:"checkin_id"`
	Extracted    *llm.Extraction `json:"extracted,omitempty"`
	InsertErrors []string        `json:"insert_errors,omitempty"`
}

// ExtractionService runs the extraction pipeline for check-ins.
type ExtractionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Extractor is the black-box language model boundary.
	Extractor llm.Extractor
}

// NewExtractionService constructs an ExtractionService.
func NewExtractionService(db *gorm.DB, x llm.Extractor) *ExtractionService {
	return &ExtractionService{DB: db, Extractor: x}
}

// Process runs the pipeline for checkinID.
//
// Returns, in order of precedence:
//   - ErrValidation when checkinID is empty,
//   - ErrCheckinNotFound when the check-in does not exist,
//   - a result with Status "already_processed" (nil error, zero writes) when
//     the check-in was handled before,
//   - *ExtractionServiceError when the model call fails (check-in stays
//     unprocessed),
//   - *llm.ParseError when the response is not JSON (check-in stays
//     unprocessed; the raw text travels with the error),
//   - otherwise a "processed" result; failed sub-entity inserts are listed in
//     InsertErrors and do not fail the call.
func (s *ExtractionService) Process(ctx context.Context, checkinID string) (*ProcessResult, error) {
	tr := otel.Tracer("services/ExtractionService")
	ctx, span := tr.Start(ctx, "Process",
		trace.WithAttributes(attribute.String("checkin.id", checkinID)),
	)
	defer span.End()

	if checkinID == "" {
		return nil, validationErr("checkin_id")
	}

	checkin, err := repo.GetCheckin(ctx, s.DB, checkinID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCheckinNotFound
		}
		return nil, err
	}

	// Idempotence guard: nothing below runs twice for the same check-in.
	if checkin.Processed {
		return &ProcessResult{Status: StatusAlreadyProcessed, CheckinID: checkin.ID}, nil
	}

	questionText := ""
	if checkin.QuestionText != nil {
		questionText = *checkin.QuestionText
	}
	instruction := llm.BuildInstruction(questionText)

	raw, err := s.Extractor.Extract(ctx, instruction, checkin.Transcript)
	if err != nil {
		return nil, &ExtractionServiceError{Err: err}
	}

	extracted, err := llm.ParseExtraction(raw)
	if err != nil {
		return nil, err
	}
	for _, d := range extracted.Dropped {
		log.Warn().
			Str("checkin_id", checkin.ID).
			Str("item", d).
			Msg("dropped malformed extraction item")
	}

	insertErrs := s.fanOut(ctx, checkin, extracted)
	if len(insertErrs) > 0 {
		perr := &PartialPersistenceError{Errors: insertErrs}
		log.Warn().
			Str("checkin_id", checkin.ID).
			Int("failed_collections", len(insertErrs)).
			Msg(perr.Error())
	}

	// Last action in the pipeline; guarded so the false→true transition
	// happens at most once even under racing triggers.
	flipped, err := repo.MarkCheckinProcessed(ctx, s.DB, checkin.ID)
	if err != nil {
		return nil, err
	}
	if !flipped {
		log.Warn().Str("checkin_id", checkin.ID).Msg("processed flag already set by concurrent trigger")
	}

	result := &ProcessResult{
		Status:    StatusProcessed,
		CheckinID: checkin.ID,
		Extracted: extracted,
	}
	for _, ie := range insertErrs {
		result.InsertErrors = append(result.InsertErrors, ie.Error())
	}
	return result, nil
}

// fanOut maps the extraction into entity rows and issues one insert per
// collection concurrently. Each insert may fail without blocking the others;
// the returned slice is ordered by collection task declaration.
func (s *ExtractionService) fanOut(ctx context.Context, checkin *domain.Checkin, ext *llm.Extraction) []InsertError {
	type task struct {
		collection string
		run        func() error
	}

	now := time.Now().UTC()
	var tasks []task

	if len(ext.Meals) > 0 {
		rows := make([]domain.Meal, 0, len(ext.Meals))
		for _, m := range ext.Meals {
			rows = append(rows, domain.Meal{
				ID:          uuid.NewString(),
				UserID:      checkin.UserID,
				CheckinID:   checkin.ID,
				MealType:    m.MealType,
				Description: optString(m.Description),
				Foods:       domain.StringList(m.Foods),
				LoggedAt:    checkin.RecordedAt,
				CreatedAt:   now,
			})
		}
		tasks = append(tasks, task{"meals", func() error {
			return repo.InsertMeals(ctx, s.DB, rows)
		}})
	}

	if ext.Mood != nil {
		row := &domain.MoodEntry{
			ID:          uuid.NewString(),
			UserID:      checkin.UserID,
			CheckinID:   checkin.ID,
			MoodScore:   ext.Mood.Score,
			EnergyScore: ext.Mood.Energy,
			MoodTags:    domain.StringList(ext.Mood.Tags),
			LoggedAt:    checkin.RecordedAt,
			CreatedAt:   now,
		}
		tasks = append(tasks, task{"mood_entries", func() error {
			return repo.InsertMoodEntry(ctx, s.DB, row)
		}})
	}

	if len(ext.Work) > 0 {
		rows := make([]domain.WorkEntry, 0, len(ext.Work))
		for _, w := range ext.Work {
			rows = append(rows, domain.WorkEntry{
				ID:              uuid.NewString(),
				UserID:          checkin.UserID,
				CheckinID:       checkin.ID,
				Project:         optString(w.Project),
				TaskDescription: optString(w.Task),
				Status:          w.Status,
				LoggedAt:        checkin.RecordedAt,
				CreatedAt:       now,
			})
		}
		tasks = append(tasks, task{"work_entries", func() error {
			return repo.InsertWorkEntries(ctx, s.DB, rows)
		}})
	}

	if len(ext.Worries) > 0 {
		rows := make([]domain.Worry, 0, len(ext.Worries))
		for _, w := range ext.Worries {
			rows = append(rows, domain.Worry{
				ID:          uuid.NewString(),
				UserID:      checkin.UserID,
				CheckinID:   checkin.ID,
				Description: w.Description,
				Category:    w.Category,
				Intensity:   w.Intensity,
				LoggedAt:    checkin.RecordedAt,
				CreatedAt:   now,
			})
		}
		tasks = append(tasks, task{"worries", func() error {
			return repo.InsertWorries(ctx, s.DB, rows)
		}})
	}

	if len(ext.Anticipations) > 0 {
		rows := make([]domain.Anticipation, 0, len(ext.Anticipations))
		for _, a := range ext.Anticipations {
			rows = append(rows, domain.Anticipation{
				ID:          uuid.NewString(),
				UserID:      checkin.UserID,
				CheckinID:   checkin.ID,
				Description: a.Description,
				Category:    a.Category,
				TargetDate:  optString(a.TargetDate),
				LoggedAt:    checkin.RecordedAt,
				CreatedAt:   now,
			})
		}
		tasks = append(tasks, task{"anticipations", func() error {
			return repo.InsertAnticipations(ctx, s.DB, rows)
		}})
	}

	if len(ext.People) > 0 {
		rows := make([]domain.PersonMention, 0, len(ext.People))
		for _, p := range ext.People {
			rows = append(rows, domain.PersonMention{
				ID:         uuid.NewString(),
				UserID:     checkin.UserID,
				CheckinID:  checkin.ID,
				PersonName: p.Name,
				Context:    optString(p.Context),
				Sentiment:  p.Sentiment,
				LoggedAt:   checkin.RecordedAt,
				CreatedAt:  now,
			})
		}
		tasks = append(tasks, task{"people_mentions", func() error {
			return repo.InsertPersonMentions(ctx, s.DB, rows)
		}})
	}

	if len(ext.FollowUpQuestions) > 0 {
		texts := ext.FollowUpQuestions
		tasks = append(tasks, task{"questions", func() error {
			return repo.CreateGeneratedQuestions(ctx, s.DB, checkin.UserID, checkin.ID, texts)
		}})
	}

	if len(tasks) == 0 {
		return nil
	}

	// One goroutine per collection; WaitGroup instead of errgroup because no
	// failure may cancel the siblings.
	errsByTask := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()
			errsByTask[i] = t.run()
		}(i, t)
	}
	wg.Wait()

	var out []InsertError
	for i, err := range errsByTask {
		if err != nil {
			out = append(out, InsertError{Collection: tasks[i].collection, Err: err})
		}
	}
	return out
}

// optString converts a possibly-empty string into the nullable column form.
func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
