package llm

import (
	"strings"
	"testing"
)

func TestBuildInstruction_SubstitutesQuestion(t *testing.T) {
	ins := BuildInstruction("How did the standup go?")
	if !strings.Contains(ins, `The question asked was: "How did the standup go?"`) {
		t.Fatalf("question not substituted:\n%s", ins)
	}
	if strings.Contains(ins, "{question}") {
		t.Fatalf("placeholder left in instruction")
	}
	// Schema sections must survive verbatim.
	for _, want := range []string{`"meals"`, `"mood"`, `"work"`, `"worries"`, `"anticipations"`, `"people"`, `"follow_up_questions"`} {
		if !strings.Contains(ins, want) {
			t.Fatalf("instruction missing section %s", want)
		}
	}
}

func TestBuildInstruction_EmptyFallsBackToOpenCheckin(t *testing.T) {
	for _, q := range []string{"", "   "} {
		ins := BuildInstruction(q)
		if !strings.Contains(ins, `The question asked was: "Open check-in"`) {
			t.Fatalf("expected open check-in fallback for %q:\n%s", q, ins)
		}
	}
}

func TestBuildUserMessage(t *testing.T) {
	msg := BuildUserMessage("INSTRUCTION", "I had eggs")
	if msg != "INSTRUCTION\n\nTranscript: \"I had eggs\"" {
		t.Fatalf("unexpected message: %q", msg)
	}
}
