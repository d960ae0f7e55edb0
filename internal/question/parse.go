package question

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	numberedLinePattern = regexp.MustCompile(`^\d+\.?\s+`)
	scoreDigitPattern   = regexp.MustCompile(`\d+`)
)

// ParseQuestionList extracts individual questions from free-form generator
// output. Accepts numbered lists, bulleted lists, and bare question lines.
func ParseQuestionList(raw string) []string {
	var questions []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case numberedLinePattern.MatchString(line):
			q := strings.TrimSpace(numberedLinePattern.ReplaceAllString(line, ""))
			if q != "" {
				questions = append(questions, q)
			}
		case strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•"):
			q := strings.TrimSpace(strings.TrimLeft(line, "-•"))
			if q != "" {
				questions = append(questions, q)
			}
		case len(line) > 20 && strings.Contains(line, "?"):
			questions = append(questions, line)
		}
	}
	return questions
}

// ParseEvaluation parses the labeled SCORE/STRENGTHS/... sections the
// scoring backend returns. Missing sections keep conservative defaults.
func ParseEvaluation(raw string) Evaluation {
	ev := Evaluation{
		Score:        5,
		Strengths:    "Response provided",
		Weaknesses:   "Could be more detailed",
		Suggestions:  "Provide more specific examples",
		Completeness: CompletenessFair,
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "SCORE":
			if m := scoreDigitPattern.FindString(value); m != "" {
				if n, err := strconv.Atoi(m); err == nil {
					ev.Score = clampScore(n)
				}
			}
		case "STRENGTHS":
			ev.Strengths = value
		case "WEAKNESSES":
			ev.Weaknesses = value
		case "SUGGESTIONS":
			ev.Suggestions = value
		case "KEYWORDS":
			for _, kw := range strings.Split(value, ",") {
				if kw = strings.TrimSpace(kw); kw != "" {
					ev.Keywords = append(ev.Keywords, kw)
				}
			}
		case "COMPLETENESS":
			switch strings.ToLower(value) {
			case "poor":
				ev.Completeness = CompletenessPoor
			case "fair":
				ev.Completeness = CompletenessFair
			case "good":
				ev.Completeness = CompletenessGood
			case "excellent":
				ev.Completeness = CompletenessExcellent
			}
		}
	}
	return ev
}

func clampScore(n int) int {
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}
