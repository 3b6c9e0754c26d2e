package llm

import (
	"errors"
	"strings"
	"testing"
)

func TestParseExtraction_NotJSON(t *testing.T) {
	for _, raw := range []string{"", "I had a great day!", "```json\n{}\n```"} {
		ext, err := ParseExtraction(raw)
		if err == nil || ext != nil {
			t.Fatalf("expected ParseError for %q", raw)
		}
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("expected *ParseError, got %T", err)
		}
		if perr.Raw != raw {
			t.Fatalf("ParseError should carry the raw response")
		}
	}
}

func TestParseExtraction_FullDocument(t *testing.T) {
	raw := `{
		"meals": [{"meal_type": "breakfast", "description": "quick", "foods": ["eggs", "toast"]}],
		"mood": {"score": 7, "energy": 6, "tags": ["focused"]},
		"work": [{"project": "backend", "task": "review PRs", "status": "in_progress"}],
		"worries": [{"description": "deadline", "category": "work", "intensity": 3}],
		"anticipations": [{"description": "trip", "category": "event", "target_date": "friday"}],
		"people": [{"name": "Sam", "context": "pairing", "sentiment": "positive"}],
		"follow_up_questions": ["How did the PR reviews go?"]
	}`

	ext, err := ParseExtraction(raw)
	if err != nil {
		t.Fatalf("ParseExtraction: %v", err)
	}
	if len(ext.Dropped) != 0 {
		t.Fatalf("unexpected drops: %v", ext.Dropped)
	}
	if len(ext.Meals) != 1 || ext.Meals[0].MealType != "breakfast" || len(ext.Meals[0].Foods) != 2 {
		t.Fatalf("unexpected meals: %+v", ext.Meals)
	}
	if ext.Mood == nil || ext.Mood.Score != 7 || ext.Mood.Energy != 6 {
		t.Fatalf("unexpected mood: %+v", ext.Mood)
	}
	if len(ext.Work) != 1 || ext.Work[0].Status != "in_progress" {
		t.Fatalf("unexpected work: %+v", ext.Work)
	}
	if len(ext.Worries) != 1 || ext.Worries[0].Intensity != 3 {
		t.Fatalf("unexpected worries: %+v", ext.Worries)
	}
	if len(ext.Anticipations) != 1 || ext.Anticipations[0].TargetDate != "friday" {
		t.Fatalf("unexpected anticipations: %+v", ext.Anticipations)
	}
	if len(ext.People) != 1 || ext.People[0].Name != "Sam" {
		t.Fatalf("unexpected people: %+v", ext.People)
	}
	if len(ext.FollowUpQuestions) != 1 {
		t.Fatalf("unexpected follow-ups: %+v", ext.FollowUpQuestions)
	}
	if ext.Empty() {
		t.Fatalf("Empty() must be false for a populated extraction")
	}
}

func TestParseExtraction_EmptyObject(t *testing.T) {
	ext, err := ParseExtraction(`{}`)
	if err != nil {
		t.Fatalf("ParseExtraction: %v", err)
	}
	if !ext.Empty() {
		t.Fatalf("expected empty extraction, got %+v", ext)
	}
}

func TestParseExtraction_DropsInvalidItemsKeepsValid(t *testing.T) {
	raw := `{
		"meals": [
			{"meal_type": "brunch", "foods": []},
			{"meal_type": "lunch", "foods": ["salad"]}
		],
		"mood": {"score": 12, "energy": 5},
		"work": [
			{"project": "x", "status": "paused"},
			{"project": "y", "status": "completed"}
		],
		"worries": [{"description": "d", "category": "work", "intensity": 9}],
		"people": [{"name": "", "sentiment": "positive"}],
		"follow_up_questions": ["", "Real question?"]
	}`

	ext, err := ParseExtraction(raw)
	if err != nil {
		t.Fatalf("ParseExtraction: %v", err)
	}

	if len(ext.Meals) != 1 || ext.Meals[0].MealType != "lunch" {
		t.Fatalf("expected only the valid meal, got %+v", ext.Meals)
	}
	if ext.Mood != nil {
		t.Fatalf("out-of-range mood must be dropped, got %+v", ext.Mood)
	}
	if len(ext.Work) != 1 || ext.Work[0].Project != "y" {
		t.Fatalf("expected only the valid work item, got %+v", ext.Work)
	}
	if len(ext.Worries) != 0 {
		t.Fatalf("intensity 9 worry must be dropped, got %+v", ext.Worries)
	}
	if len(ext.People) != 0 {
		t.Fatalf("nameless person must be dropped, got %+v", ext.People)
	}
	if len(ext.FollowUpQuestions) != 1 || ext.FollowUpQuestions[0] != "Real question?" {
		t.Fatalf("blank follow-ups must be skipped, got %+v", ext.FollowUpQuestions)
	}

	if len(ext.Dropped) == 0 {
		t.Fatalf("expected drop diagnostics")
	}
	joined := strings.Join(ext.Dropped, "\n")
	for _, want := range []string{"meals[0]", "mood", "work[0]", "worries[0]", "people[0]"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing diagnostic for %s in %v", want, ext.Dropped)
		}
	}
}

func TestParseExtraction_MalformedSectionIsolated(t *testing.T) {
	// "meals" is an object instead of an array; other sections still parse.
	raw := `{"meals": {"meal_type": "lunch"}, "mood": {"score": 5, "energy": 5}}`
	ext, err := ParseExtraction(raw)
	if err != nil {
		t.Fatalf("ParseExtraction: %v", err)
	}
	if len(ext.Meals) != 0 {
		t.Fatalf("malformed meals section must yield no meals")
	}
	if ext.Mood == nil || ext.Mood.Score != 5 {
		t.Fatalf("sibling section must survive, got %+v", ext.Mood)
	}
	if len(ext.Dropped) != 1 || !strings.HasPrefix(ext.Dropped[0], "meals:") {
		t.Fatalf("expected one meals diagnostic, got %v", ext.Dropped)
	}
}

func TestParseExtraction_NullSections(t *testing.T) {
	ext, err := ParseExtraction(`{"meals": null, "mood": null, "follow_up_questions": null}`)
	if err != nil {
		t.Fatalf("ParseExtraction: %v", err)
	}
	if !ext.Empty() || len(ext.Dropped) != 0 {
		t.Fatalf("null sections must be treated as absent: %+v", ext)
	}
}
