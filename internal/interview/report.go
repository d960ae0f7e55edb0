package interview

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	maxWeaknesses      = 3
	maxRecommendations = 4
)

var roleRecommendations = map[string][]string{
	"Software Engineer": {
		"Practice explaining technical concepts in simple terms",
		"Prepare examples of challenging debugging experiences",
		"Study system design fundamentals",
	},
	"Data Scientist": {
		"Practice explaining statistical concepts to non-technical audiences",
		"Prepare examples of end-to-end ML projects",
		"Study business impact of data science work",
	},
	"Product Manager": {
		"Practice prioritization frameworks",
		"Prepare examples of stakeholder management",
		"Study metrics and KPI selection",
	},
}

var genericRecommendations = []string{
	"Practice behavioral interview questions using STAR method",
	"Prepare specific examples from your experience",
	"Research the company and role thoroughly",
}

// BuildReport derives the final session report from the accumulated
// answer records using fixed rule thresholds.
func BuildReport(jobRole string, records []AnswerRecord, duration time.Duration) Report {
	scores := make([]int, len(records))
	confidences := make([]float64, len(records))
	responseTimes := make([]float64, len(records))
	details := make([]QuestionDetail, len(records))
	for i, r := range records {
		scores[i] = r.Analysis.Score
		confidences[i] = r.Analysis.Confidence
		responseTimes[i] = r.ResponseTime
		details[i] = QuestionDetail{
			Number:       r.Number,
			Score:        r.Analysis.Score,
			Confidence:   r.Analysis.Confidence,
			ResponseTime: r.ResponseTime,
		}
	}

	avgScore := meanInt(scores)
	avgConfidence := mean(confidences)
	avgResponseTime := mean(responseTimes)
	scoreTrend := ScoreTrend(scores)
	confidenceTrend := ConfidenceTrend(confidences)

	return Report{
		OverallScore:        round1(avgScore),
		ConfidenceLevel:     round2(avgConfidence),
		AverageResponseTime: round1(avgResponseTime),
		DurationMinutes:     round1(duration.Minutes()),
		ScoreTrend:          scoreTrend,
		ConfidenceTrend:     confidenceTrend,
		Strengths:           identifyStrengths(records, avgScore, avgConfidence, avgResponseTime, scoreTrend),
		Weaknesses:          identifyWeaknesses(records, avgScore, avgConfidence, avgResponseTime),
		Recommendations:     recommendations(jobRole, avgScore, confidenceTrend),
		Details:             details,
	}
}

func identifyStrengths(records []AnswerRecord, avgScore, avgConfidence, avgResponseTime float64, scoreTrend Trend) []string {
	var strengths []string

	if avgScore >= 7 {
		strengths = append(strengths, "Strong technical knowledge")
	}
	if avgConfidence >= 0.7 {
		strengths = append(strengths, "Confident communication")
	}
	if len(records) > 0 && avgResponseTime <= 30 {
		strengths = append(strengths, "Quick thinking")
	}

	var commSum float64
	minScore := math.MaxInt
	for _, r := range records {
		c := r.Analysis.Communication
		commSum += (c.Clarity + c.Structure + c.Professionalism) / 3
		if r.Analysis.Score < minScore {
			minScore = r.Analysis.Score
		}
	}
	if len(records) > 0 && commSum/float64(len(records)) >= 0.7 {
		strengths = append(strengths, "Clear communication")
	}
	if scoreTrend == TrendConsistent && minScore >= 6 {
		strengths = append(strengths, "Consistent performance")
	}

	if len(strengths) == 0 {
		return []string{"Completed the interview"}
	}
	return strengths
}

func identifyWeaknesses(records []AnswerRecord, avgScore, avgConfidence, avgResponseTime float64) []string {
	var weaknesses []string

	if avgScore < 5 {
		weaknesses = append(weaknesses, "Need to provide more detailed technical examples")
	}
	if avgConfidence < 0.5 {
		weaknesses = append(weaknesses, "Could speak with more confidence")
	}
	if avgResponseTime > 40 {
		weaknesses = append(weaknesses, "Take more time to organize thoughts before speaking")
	}

	// Each communication sub-metric contributes at most one weakness.
	var lowClarity, lowStructure, lowProfessionalism bool
	for _, r := range records {
		c := r.Analysis.Communication
		lowClarity = lowClarity || c.Clarity < 0.5
		lowStructure = lowStructure || c.Structure < 0.5
		lowProfessionalism = lowProfessionalism || c.Professionalism < 0.6
	}
	if lowClarity {
		weaknesses = append(weaknesses, "Improve clarity of explanations")
	}
	if lowStructure {
		weaknesses = append(weaknesses, "Better organize responses")
	}
	if lowProfessionalism {
		weaknesses = append(weaknesses, "Use more professional language")
	}

	if len(weaknesses) > maxWeaknesses {
		weaknesses = weaknesses[:maxWeaknesses]
	}
	return weaknesses
}

func recommendations(jobRole string, avgScore float64, confidenceTrend Trend) []string {
	recs, ok := roleRecommendations[jobRole]
	if !ok {
		recs = genericRecommendations
	}
	out := make([]string, len(recs))
	copy(out, recs)

	if avgScore < 6 {
		out = append(out, "Focus on providing concrete examples with measurable results")
	}
	if confidenceTrend == TrendLosing {
		out = append(out, "Practice mock interviews to build confidence")
	}

	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out
}

// SpokenSummary renders the short closing lines delivered via speech:
// an overall score line plus up to two leading strengths.
func SpokenSummary(r Report) (overall, strengths string) {
	score := r.OverallScore
	switch {
	case score >= 8:
		overall = fmt.Sprintf("Excellent work! You scored %.1f out of 10.", score)
	case score >= 6:
		overall = fmt.Sprintf("Good job! You scored %.1f out of 10.", score)
	case score >= 4:
		overall = fmt.Sprintf("You scored %.1f out of 10. There's room for improvement.", score)
	default:
		overall = fmt.Sprintf("You scored %.1f out of 10. Let's work on building your skills.", score)
	}

	if len(r.Strengths) > 0 {
		lead := r.Strengths
		if len(lead) > 2 {
			lead = lead[:2]
		}
		strengths = "Your key strengths include: " + strings.Join(lead, ", ")
	}
	return overall, strengths
}

func meanInt(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
