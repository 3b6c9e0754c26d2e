// Package services – PromptService
//
// This file implements the PromptService, which decides what question to ask
// next. The decision has two halves: a fixed priority ladder that maps the
// current time, day of week, situational context, and what has already been
// logged today to a question category; and a selection step that draws an
// unused active question from that category, falling back to "open" and then
// to a fixed prompt.
//
// The ladder is evaluated against an explicitly passed wall-clock value (the
// service's Now field), never the ambient clock, so the whole decision is
// deterministic under test. The rung order is product policy; do not reorder
// rungs even where two conditions could both apply.
//
// Observability: Next is OpenTelemetry-instrumented; spans carry the user id,
// situational context, and the chosen category.
package services

import (
	"context"
	"math/rand/v2"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-journal-backend/internal/domain"
	"github.com/tbourn/go-journal-backend/internal/repo"
)

// Situational context hints supplied by the caller.
const (
	ContextFirstArrival    = "first_arrival"
	ContextReturnFromBreak = "return_from_break"
	ContextPostMeeting     = "post_meeting"
)

// Prompt sources.
const (
	SourceDynamic  = "dynamic"  // synthesized text, not drawn from storage
	SourceDatabase = "database" // stored question
	SourceFallback = "fallback" // fixed prompt of last resort
)

// fallbackPromptText is returned when no stored question is selectable. It
// has no question id and is therefore never recorded as "asked".
const fallbackPromptText = "What's on your mind right now?"

// Prompt is the selector's answer: what to ask and where it came from.
type Prompt struct {
	QuestionID   string `json:"question_id,omitempty"`
	QuestionText string `json:"question_text"`
	Category     string `json:"category"`
	Source       string `json:"source"`
}

// PromptService selects the next prompt for a user.
type PromptService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// Now supplies the wall-clock time for every time-dependent branch.
	// Defaults to time.Now.
	Now func() time.Time

	// MoodStaleAfter is how old today's latest mood entry may be before an
	// "afternoon" nudge is due. Defaults to 4 hours.
	MoodStaleAfter time.Duration

	// randInt picks a uniform index in [0,n); swapped out in tests.
	randInt func(n int) int
}

// NewPromptService constructs a PromptService with production defaults.
func NewPromptService(db *gorm.DB) *PromptService {
	return &PromptService{
		DB:             db,
		Now:            time.Now,
		MoodStaleAfter: 4 * time.Hour,
		randInt:        rand.IntN,
	}
}

// daySnapshot captures everything the ladder needs to know about today.
type daySnapshot struct {
	askedQuestionIDs map[string]struct{}
	mealTypes        map[string]struct{}
	lastMoodAt       *time.Time
	hasWork          bool
}

// Next returns the prompt to ask userID given an optional situational context
// and, for post_meeting, the meeting name.
func (s *PromptService) Next(ctx context.Context, userID, situation, meetingName string) (*Prompt, error) {
	tr := otel.Tracer("services/PromptService")
	ctx, span := tr.Start(ctx, "Next",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("prompt.context", situation),
		),
	)
	defer span.End()

	if userID == "" {
		return nil, validationErr("user_id")
	}

	// Post-meeting always wins, regardless of any other state, and is
	// synthesized rather than drawn from storage.
	if situation == ContextPostMeeting && meetingName != "" {
		return &Prompt{
			QuestionText: "How did " + meetingName + " go?",
			Category:     domain.CategoryPostMeeting,
			Source:       SourceDynamic,
		}, nil
	}

	now := s.Now()
	dayStart := startOfDay(now)

	snap, err := s.loadSnapshot(ctx, userID, dayStart)
	if err != nil {
		return nil, err
	}

	category := s.chooseCategory(now, situation, snap)
	span.SetAttributes(attribute.String("prompt.category", category))

	return s.pickQuestion(ctx, userID, category, snap.askedQuestionIDs)
}

// loadSnapshot reads today's asked question ids, logged meal types, latest
// mood time, and work-logged flag.
func (s *PromptService) loadSnapshot(ctx context.Context, userID string, dayStart time.Time) (daySnapshot, error) {
	snap := daySnapshot{
		askedQuestionIDs: make(map[string]struct{}),
		mealTypes:        make(map[string]struct{}),
	}

	checkins, err := repo.ListCheckinsSince(ctx, s.DB, userID, dayStart)
	if err != nil {
		return snap, err
	}
	for _, c := range checkins {
		if c.QuestionID != nil && *c.QuestionID != "" {
			snap.askedQuestionIDs[*c.QuestionID] = struct{}{}
		}
	}

	mealTypes, err := repo.ListMealTypesSince(ctx, s.DB, userID, dayStart)
	if err != nil {
		return snap, err
	}
	for _, mt := range mealTypes {
		snap.mealTypes[mt] = struct{}{}
	}

	mood, err := repo.LatestMoodSince(ctx, s.DB, userID, dayStart)
	if err != nil {
		return snap, err
	}
	if mood != nil {
		t := mood.LoggedAt
		snap.lastMoodAt = &t
	}

	snap.hasWork, err = repo.HasWorkEntrySince(ctx, s.DB, userID, dayStart)
	if err != nil {
		return snap, err
	}
	return snap, nil
}

// chooseCategory walks the priority ladder; the first matching rung wins.
// (The post_meeting rung is handled before the snapshot is loaded.)
func (s *PromptService) chooseCategory(now time.Time, situation string, snap daySnapshot) string {
	hour := now.Hour()
	isMonday := now.Weekday() == time.Monday

	staleAfter := s.MoodStaleAfter
	if staleAfter <= 0 {
		staleAfter = 4 * time.Hour
	}
	moodStale := snap.lastMoodAt == nil || now.Sub(*snap.lastMoodAt) > staleAfter

	_, hadBreakfast := snap.mealTypes[domain.MealBreakfast]
	_, hadLunch := snap.mealTypes[domain.MealLunch]
	lunchWindow := hour >= 11 && hour <= 14

	switch {
	case situation == ContextReturnFromBreak && lunchWindow && !hadLunch:
		return domain.CategoryReturn
	case situation == ContextFirstArrival && isMonday:
		return domain.CategoryWeekly
	case situation == ContextFirstArrival && hour < 11:
		return domain.CategoryMorning
	case moodStale:
		return domain.CategoryAfternoon
	case hour >= 16:
		return domain.CategoryEndOfDay
	case !hadBreakfast && hour < 11:
		return domain.CategoryMorning
	case !hadLunch && lunchWindow:
		return domain.CategoryReturn
	case !snap.hasWork:
		return domain.CategoryOpen
	default:
		return domain.CategoryFollowUp
	}
}

// pickQuestion resolves a category to a concrete question: active questions
// in the category minus those already asked today, then the same for "open",
// then the fixed fallback. The pick among remaining candidates is uniform.
func (s *PromptService) pickQuestion(ctx context.Context, userID, category string, asked map[string]struct{}) (*Prompt, error) {
	candidates, err := s.unaskedQuestions(ctx, userID, category, asked)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 && category != domain.CategoryOpen {
		candidates, err = s.unaskedQuestions(ctx, userID, domain.CategoryOpen, asked)
		if err != nil {
			return nil, err
		}
	}

	if len(candidates) == 0 {
		return &Prompt{
			QuestionText: fallbackPromptText,
			Category:     domain.CategoryOpen,
			Source:       SourceFallback,
		}, nil
	}

	pick := candidates[s.randIntN(len(candidates))]
	return &Prompt{
		QuestionID:   pick.ID,
		QuestionText: pick.Text,
		Category:     pick.Category,
		Source:       SourceDatabase,
	}, nil
}

// unaskedQuestions lists active questions in category excluding asked ids.
func (s *PromptService) unaskedQuestions(ctx context.Context, userID, category string, asked map[string]struct{}) ([]domain.Question, error) {
	qs, err := repo.ListActiveQuestions(ctx, s.DB, userID, category)
	if err != nil {
		return nil, err
	}
	out := qs[:0]
	for _, q := range qs {
		if _, was := asked[q.ID]; !was {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *PromptService) randIntN(n int) int {
	if s.randInt != nil {
		return s.randInt(n)
	}
	return rand.IntN(n)
}

// startOfDay returns local midnight for t. "Today" everywhere in the selector
// means this boundary in the server's location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
