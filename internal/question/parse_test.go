package question

import "testing"

func TestParseQuestionListNumbered(t *testing.T) {
	raw := "1. What is a goroutine?\n2. Explain channel buffering.\n\n3. How does the scheduler work?"
	got := ParseQuestionList(raw)
	if len(got) != 3 {
		t.Fatalf("parsed %d questions, want 3: %v", len(got), got)
	}
	if got[0] != "What is a goroutine?" {
		t.Fatalf("first question = %q", got[0])
	}
}

func TestParseQuestionListBulletsAndBareLines(t *testing.T) {
	raw := "- Describe your testing strategy.\n• How do you handle conflict?\nshort line\nWhat trade-offs would you consider when designing a cache?"
	got := ParseQuestionList(raw)
	if len(got) != 3 {
		t.Fatalf("parsed %d questions, want 3: %v", len(got), got)
	}
}

func TestParseEvaluationFullResponse(t *testing.T) {
	raw := `SCORE: 8
STRENGTHS: Clear structure and concrete examples
WEAKNESSES: Missed edge cases
SUGGESTIONS: Mention monitoring
KEYWORDS: caching, invalidation, TTL
COMPLETENESS: Good`

	ev := ParseEvaluation(raw)
	if ev.Score != 8 {
		t.Fatalf("Score = %d, want 8", ev.Score)
	}
	if ev.Strengths != "Clear structure and concrete examples" {
		t.Fatalf("Strengths = %q", ev.Strengths)
	}
	if len(ev.Keywords) != 3 {
		t.Fatalf("Keywords = %v, want 3 entries", ev.Keywords)
	}
	if ev.Completeness != CompletenessGood {
		t.Fatalf("Completeness = %q, want %q", ev.Completeness, CompletenessGood)
	}
}

func TestParseEvaluationDefaultsAndClamping(t *testing.T) {
	ev := ParseEvaluation("nonsense with no labels")
	if ev.Score != 5 || ev.Completeness != CompletenessFair {
		t.Fatalf("defaults not applied: %+v", ev)
	}

	ev = ParseEvaluation("SCORE: 42")
	if ev.Score != 10 {
		t.Fatalf("Score = %d, want clamp to 10", ev.Score)
	}
}

func TestFallbackBankRoleAndDifficulty(t *testing.T) {
	bank := NewFallbackBank()
	qs, err := bank.GenerateQuestions(nil, "Software Engineer", "Advanced", 3)
	if err != nil {
		t.Fatalf("GenerateQuestions() error = %v", err)
	}
	if len(qs) != 3 {
		t.Fatalf("got %d questions, want 3", len(qs))
	}

	generic, err := bank.GenerateQuestions(nil, "Underwater Basket Weaver", "Advanced", 2)
	if err != nil {
		t.Fatalf("GenerateQuestions() error = %v", err)
	}
	if generic[0] != genericQuestions[0] {
		t.Fatalf("unknown role should use generic pool, got %q", generic[0])
	}
}

func TestFallbackBankScoreByLength(t *testing.T) {
	bank := NewFallbackBank()

	empty, _ := bank.ScoreAnswer(nil, "q", "", "role")
	if empty.Score != 1 || empty.Completeness != CompletenessPoor {
		t.Fatalf("empty answer score = %+v", empty)
	}

	long := ""
	for i := 0; i < 120; i++ {
		long += "word "
	}
	best, _ := bank.ScoreAnswer(nil, "q", long, "role")
	if best.Score != 8 || best.Completeness != CompletenessExcellent {
		t.Fatalf("long answer score = %+v", best)
	}
}
