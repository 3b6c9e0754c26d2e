// Extraction response schema.
//
// The model's reply is expected to be one JSON document. Parsing happens in
// two stages:
//
//  1. Strict envelope parse: the raw text must be a JSON object whose known
//     keys hold raw JSON. Anything else is a ParseError (the check-in stays
//     unprocessed so it can be retried).
//  2. Tolerant per-item decode: each section and each array item is decoded
//     and validated individually. An item with a bad enum, an out-of-range
//     score, or the wrong type is dropped with a diagnostic; it never fails
//     the extraction as a whole.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports a model response that was not a valid JSON document.
// Raw carries the full response text for diagnosis.
type ParseError struct {
	Raw string
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("model response is not valid JSON: %v", e.Err)
}

// Unwrap exposes the underlying JSON error.
func (e *ParseError) Unwrap() error { return e.Err }

// MealItem is one validated meal from the model output.
type MealItem struct {
	MealType    string   `json:"meal_type"`
	Description string   `json:"description"`
	Foods       []string `json:"foods"`
}

// MoodItem is the validated mood object (at most one per check-in).
type MoodItem struct {
	Score  int      `json:"score"`
	Energy int      `json:"energy"`
	Tags   []string `json:"tags"`
}

// WorkItem is one validated work activity from the model output.
type WorkItem struct {
	Project string `json:"project"`
	Task    string `json:"task"`
	Status  string `json:"status"`
}

// WorryItem is one validated worry from the model output.
type WorryItem struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	Intensity   int    `json:"intensity"`
}

// AnticipationItem is one validated anticipation from the model output.
type AnticipationItem struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	TargetDate  string `json:"target_date"`
}

// PersonItem is one validated person mention from the model output.
type PersonItem struct {
	Name      string `json:"name"`
	Context   string `json:"context"`
	Sentiment string `json:"sentiment"`
}

// Extraction is the validated result of parsing a model response. Slices are
// nil when the model omitted the section; Dropped lists per-item diagnostics
// for anything that failed validation.
type Extraction struct {
	Meals             []MealItem         `json:"meals,omitempty"`
	Mood              *MoodItem          `json:"mood,omitempty"`
	Work              []WorkItem         `json:"work,omitempty"`
	Worries           []WorryItem        `json:"worries,omitempty"`
	Anticipations     []AnticipationItem `json:"anticipations,omitempty"`
	People            []PersonItem       `json:"people,omitempty"`
	FollowUpQuestions []string           `json:"follow_up_questions,omitempty"`

	Dropped []string `json:"-"`
}

// Empty reports whether the extraction produced nothing to persist.
func (e *Extraction) Empty() bool {
	return len(e.Meals) == 0 && e.Mood == nil && len(e.Work) == 0 &&
		len(e.Worries) == 0 && len(e.Anticipations) == 0 &&
		len(e.People) == 0 && len(e.FollowUpQuestions) == 0
}

// envelope splits the top-level object into raw sections so one malformed
// section cannot take the others down with it.
type envelope struct {
	Meals             json.RawMessage `json:"meals"`
	Mood              json.RawMessage `json:"mood"`
	Work              json.RawMessage `json:"work"`
	Worries           json.RawMessage `json:"worries"`
	Anticipations     json.RawMessage `json:"anticipations"`
	People            json.RawMessage `json:"people"`
	FollowUpQuestions json.RawMessage `json:"follow_up_questions"`
}

// ParseExtraction parses raw model output into a validated Extraction.
// It returns a *ParseError when the text is not a JSON object at all;
// individual malformed sections or items are dropped with diagnostics
// instead of failing the parse.
func ParseExtraction(raw string) (*Extraction, error) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	out := &Extraction{}

	decodeItems(env.Meals, "meals", &out.Dropped, func(it MealItem) bool {
		return validMealType(it.MealType)
	}, &out.Meals)

	if len(env.Mood) > 0 && !isNull(env.Mood) {
		var m MoodItem
		if err := json.Unmarshal(env.Mood, &m); err != nil {
			out.Dropped = append(out.Dropped, "mood: "+err.Error())
		} else if m.Score < 1 || m.Score > 10 || m.Energy < 1 || m.Energy > 10 {
			out.Dropped = append(out.Dropped, fmt.Sprintf("mood: score/energy out of range (%d/%d)", m.Score, m.Energy))
		} else {
			out.Mood = &m
		}
	}

	decodeItems(env.Work, "work", &out.Dropped, func(it WorkItem) bool {
		return validWorkStatus(it.Status)
	}, &out.Work)

	decodeItems(env.Worries, "worries", &out.Dropped, func(it WorryItem) bool {
		return validWorryCategory(it.Category) && it.Intensity >= 1 && it.Intensity <= 5
	}, &out.Worries)

	decodeItems(env.Anticipations, "anticipations", &out.Dropped, func(it AnticipationItem) bool {
		return validAnticipationCategory(it.Category)
	}, &out.Anticipations)

	decodeItems(env.People, "people", &out.Dropped, func(it PersonItem) bool {
		return strings.TrimSpace(it.Name) != "" && validSentiment(it.Sentiment)
	}, &out.People)

	if len(env.FollowUpQuestions) > 0 && !isNull(env.FollowUpQuestions) {
		var qs []string
		if err := json.Unmarshal(env.FollowUpQuestions, &qs); err != nil {
			out.Dropped = append(out.Dropped, "follow_up_questions: "+err.Error())
		} else {
			for _, q := range qs {
				if strings.TrimSpace(q) != "" {
					out.FollowUpQuestions = append(out.FollowUpQuestions, q)
				}
			}
		}
	}

	return out, nil
}

// decodeItems decodes a raw JSON array element by element, keeping items that
// both unmarshal into T and pass valid. Failures are recorded in dropped.
func decodeItems[T any](raw json.RawMessage, section string, dropped *[]string, valid func(T) bool, out *[]T) {
	if len(raw) == 0 || isNull(raw) {
		return
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		*dropped = append(*dropped, section+": "+err.Error())
		return
	}
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			*dropped = append(*dropped, fmt.Sprintf("%s[%d]: %v", section, i, err))
			continue
		}
		if !valid(v) {
			*dropped = append(*dropped, fmt.Sprintf("%s[%d]: failed validation", section, i))
			continue
		}
		*out = append(*out, v)
	}
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

func validMealType(s string) bool {
	switch s {
	case "breakfast", "lunch", "dinner", "snack":
		return true
	}
	return false
}

func validWorkStatus(s string) bool {
	switch s {
	case "starting", "in_progress", "completed", "blocked":
		return true
	}
	return false
}

func validWorryCategory(s string) bool {
	switch s {
	case "work", "health", "financial", "relationship", "general":
		return true
	}
	return false
}

func validAnticipationCategory(s string) bool {
	switch s {
	case "event", "goal", "social", "personal":
		return true
	}
	return false
}

func validSentiment(s string) bool {
	switch s {
	case "positive", "neutral", "negative":
		return true
	}
	return false
}
