package sentiment

import (
	"context"
	"strings"
)

// LexicalAnalyzer is a deterministic, dictionary-based analyzer used when
// no model-backed sentiment service is configured. It trades nuance for
// zero dependencies and stable test behavior.
type LexicalAnalyzer struct{}

func NewLexicalAnalyzer() *LexicalAnalyzer { return &LexicalAnalyzer{} }

var (
	positiveWords = wordSet(
		"good", "great", "excellent", "success", "successful", "improved",
		"achieved", "solved", "effective", "confident", "enjoy", "love",
		"strong", "best", "win", "delivered", "led",
	)
	negativeWords = wordSet(
		"bad", "fail", "failed", "failure", "problem", "difficult", "hard",
		"worried", "struggle", "struggled", "wrong", "worse", "hate",
		"blocked", "stress", "stressful",
	)
	hedgeWords = wordSet(
		"maybe", "perhaps", "probably", "possibly", "guess", "hopefully",
		"somewhat", "kinda", "sorta",
	)
	fillerWords = wordSet(
		"um", "uh", "like", "basically", "actually", "literally", "stuff",
	)
	assertiveWords = wordSet(
		"definitely", "certainly", "clearly", "absolutely", "confident",
		"sure", "always", "exactly", "precisely",
	)
	structureWords = wordSet(
		"first", "second", "third", "then", "next", "finally", "because",
		"therefore", "however", "example", "instance", "result",
	)
	casualWords = wordSet(
		"yeah", "nah", "gonna", "wanna", "dunno", "cool", "awesome", "dude",
	)
	emotionLexicon = map[string][]string{
		"joy":     {"happy", "enjoy", "enjoyed", "excited", "proud", "love", "glad"},
		"fear":    {"afraid", "worried", "nervous", "scared", "anxious"},
		"anger":   {"angry", "frustrated", "annoyed", "upset"},
		"sadness": {"sad", "disappointed", "unhappy", "regret"},
	}
)

func (a *LexicalAnalyzer) Sentiment(_ context.Context, text string) (Distribution, error) {
	words := tokenize(text)
	if len(words) == 0 {
		return Distribution{"positive": 0, "negative": 0, "neutral": 1}, nil
	}

	var pos, neg float64
	for _, w := range words {
		if positiveWords[w] {
			pos++
		}
		if negativeWords[w] {
			neg++
		}
	}
	total := float64(len(words))
	posShare := clamp01(pos / total * 5)
	negShare := clamp01(neg / total * 5)
	neutral := clamp01(1 - posShare - negShare)
	return Distribution{"positive": posShare, "negative": negShare, "neutral": neutral}, nil
}

func (a *LexicalAnalyzer) Emotions(_ context.Context, text string) (Distribution, error) {
	words := tokenize(text)
	dist := Distribution{}
	if len(words) == 0 {
		return dist, nil
	}

	counts := map[string]float64{}
	var total float64
	for label, cues := range emotionLexicon {
		for _, w := range words {
			for _, cue := range cues {
				if w == cue {
					counts[label]++
					total++
				}
			}
		}
	}
	if total == 0 {
		return Distribution{"neutral": 1}, nil
	}
	for label, n := range counts {
		dist[label] = n / total
	}
	return dist, nil
}

func (a *LexicalAnalyzer) Confidence(_ context.Context, text string) (float64, error) {
	words := tokenize(text)
	if len(words) == 0 {
		return 0, nil
	}

	score := 0.5
	for _, w := range words {
		switch {
		case assertiveWords[w]:
			score += 0.05
		case hedgeWords[w]:
			score -= 0.06
		case fillerWords[w]:
			score -= 0.03
		}
	}
	// Very short answers read as uncertain regardless of wording.
	if len(words) < 10 {
		score -= 0.15
	}
	return clamp01(score), nil
}

func (a *LexicalAnalyzer) CommunicationMetrics(_ context.Context, text string) (Metrics, error) {
	words := tokenize(text)
	if len(words) == 0 {
		return Metrics{}, nil
	}

	sentences := countSentences(text)
	avgLen := float64(len(words)) / float64(sentences)

	// Clarity favors moderate sentence length over rambling run-ons.
	clarity := 1.0
	if avgLen > 25 {
		clarity -= (avgLen - 25) * 0.03
	}
	var fillers float64
	for _, w := range words {
		if fillerWords[w] {
			fillers++
		}
	}
	clarity -= fillers / float64(len(words)) * 3

	var structural float64
	for _, w := range words {
		if structureWords[w] {
			structural++
		}
	}
	structure := clamp01(0.35 + structural*0.12)

	professionalism := 1.0
	for _, w := range words {
		if casualWords[w] {
			professionalism -= 0.1
		}
		if fillerWords[w] {
			professionalism -= 0.04
		}
	}

	return Metrics{
		Clarity:         clamp01(clarity),
		Structure:       structure,
		Professionalism: clamp01(professionalism),
	}, nil
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func countSentences(text string) int {
	n := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	if n == 0 {
		return 1
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
