// Package llm builds the extraction instruction sent to the language model,
// invokes the model through a narrow Extractor interface, and parses the raw
// response into validated, typed extraction items.
//
// The model is a black box: this package controls only the instruction, the
// request/response plumbing, and the validation applied to whatever comes
// back. It never retries; retry policy belongs to callers.
package llm

import "strings"

// OpenCheckinQuestion is substituted when a check-in has no originating
// question (a freeform submission).
const OpenCheckinQuestion = "Open check-in"

// extractionTemplate is the fixed instruction enumerating the exact output
// schema. {question} is replaced with the question the user was asked. The
// instruction forbids fabricated data and non-JSON output; parsing is strict
// at the top level and tolerant per item (see schema.go).
const extractionTemplate = `You are a life journal assistant. Extract structured data from the user's voice check-in transcript. The question asked was: "{question}"

Return JSON with any applicable fields:
{
  "meals": [{ "meal_type": "breakfast|lunch|dinner|snack", "description": "", "foods": [] }],
  "mood": { "score": 1-10, "energy": 1-10, "tags": [] },
  "work": [{ "project": "", "task": "", "status": "starting|in_progress|completed|blocked" }],
  "worries": [{ "description": "", "category": "work|health|financial|relationship|general", "intensity": 1-5 }],
  "anticipations": [{ "description": "", "category": "event|goal|social|personal", "target_date": "" }],
  "people": [{ "name": "", "context": "", "sentiment": "positive|neutral|negative" }],
  "follow_up_questions": ["suggested questions to ask later"]
}

Only include fields that are clearly present in the transcript. Do not infer or fabricate data. Return valid JSON only, no markdown.`

// BuildInstruction returns the extraction instruction for the given question
// text. An empty question falls back to OpenCheckinQuestion.
func BuildInstruction(questionText string) string {
	q := strings.TrimSpace(questionText)
	if q == "" {
		q = OpenCheckinQuestion
	}
	return strings.Replace(extractionTemplate, "{question}", q, 1)
}

// BuildUserMessage appends the transcript to the instruction, forming the
// single user message sent to the model.
func BuildUserMessage(instruction, transcript string) string {
	return instruction + "\n\nTranscript: \"" + transcript + "\""
}
