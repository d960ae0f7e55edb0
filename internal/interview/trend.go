package interview

// Trend classifies how a metric moved between the first and second halves
// of a session.
type Trend string

const (
	TrendInsufficientData Trend = "insufficient_data"
	TrendImproving        Trend = "improving"
	TrendDeclining        Trend = "declining"
	TrendConsistent       Trend = "consistent"
	TrendBuilding         Trend = "building_confidence"
	TrendLosing           Trend = "losing_confidence"
	TrendSteady           Trend = "steady_confidence"
)

const (
	scoreTrendThreshold      = 0.5
	confidenceTrendThreshold = 0.1
	// Fewer records than this cannot support a split comparison.
	trendMinRecords = 3
)

// ScoreTrend compares mean content scores of the first and second halves.
// The middle element of an odd-length sequence belongs to the second half.
func ScoreTrend(scores []int) Trend {
	if len(scores) < trendMinRecords {
		return TrendInsufficientData
	}
	values := make([]float64, len(scores))
	for i, s := range scores {
		values[i] = float64(s)
	}
	switch halvesCompare(values, scoreTrendThreshold) {
	case 1:
		return TrendImproving
	case -1:
		return TrendDeclining
	default:
		return TrendConsistent
	}
}

// ConfidenceTrend applies the same split comparison to confidence scores
// with a tighter threshold.
func ConfidenceTrend(confidences []float64) Trend {
	if len(confidences) < trendMinRecords {
		return TrendInsufficientData
	}
	switch halvesCompare(confidences, confidenceTrendThreshold) {
	case 1:
		return TrendBuilding
	case -1:
		return TrendLosing
	default:
		return TrendSteady
	}
}

// halvesCompare returns 1 when the second half mean exceeds the first by
// more than threshold, -1 for the opposite, 0 otherwise.
func halvesCompare(values []float64, threshold float64) int {
	mid := len(values) / 2
	first := mean(values[:mid])
	second := mean(values[mid:])
	switch {
	case second > first+threshold:
		return 1
	case first > second+threshold:
		return -1
	default:
		return 0
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
