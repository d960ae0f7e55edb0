package question

import (
	"context"
	"strings"
)

// FallbackBank serves curated questions and word-count scoring when no
// generation backend is configured or the backend is unreachable.
type FallbackBank struct{}

func NewFallbackBank() *FallbackBank { return &FallbackBank{} }

var fallbackQuestions = map[string]map[string][]string{
	"software_engineer": {
		"Beginner": {
			"Explain the difference between a class and an object in object-oriented programming.",
			"What is the purpose of version control systems like Git?",
			"Describe the basic structure of an HTML document.",
			"What are the main differences between HTTP and HTTPS?",
			"Explain what a database index is and why it's useful.",
		},
		"Intermediate": {
			"Design a system to handle user authentication and authorization.",
			"Explain the differences between SQL and NoSQL databases with examples.",
			"How would you optimize a slow-performing web application?",
			"Describe your approach to debugging a production issue.",
			"What are design patterns and can you explain a few common ones?",
		},
		"Advanced": {
			"Design a distributed caching system for a high-traffic application.",
			"How would you implement a rate limiting system?",
			"Explain microservices architecture and its trade-offs.",
			"Design a system to handle real-time notifications to millions of users.",
			"How would you approach refactoring a legacy monolithic application?",
		},
		"Expert": {
			"Design a global content delivery network from scratch.",
			"How would you build a system to handle financial transactions at scale?",
			"Design a recommendation engine for a streaming platform.",
			"Architect a system for real-time fraud detection.",
			"How would you design a search engine indexing system?",
		},
	},
	"data_scientist": {
		"Beginner": {
			"What is the difference between supervised and unsupervised learning?",
			"Explain what overfitting means in machine learning.",
			"What are the basic steps in the data science process?",
			"How do you handle missing values in a dataset?",
			"What is the purpose of cross-validation?",
		},
		"Intermediate": {
			"How would you approach a classification problem with imbalanced data?",
			"Explain the bias-variance tradeoff in machine learning.",
			"How do you choose between different machine learning algorithms?",
			"Describe your approach to feature engineering.",
			"How would you design an A/B test for a new product feature?",
		},
		"Advanced": {
			"Design a recommendation system for an e-commerce platform.",
			"How would you build a real-time fraud detection model?",
			"Explain how you would approach time series forecasting for sales data.",
			"Design an ML pipeline for processing streaming data.",
			"How would you optimize hyperparameters for a complex model?",
		},
		"Expert": {
			"Design a complete ML infrastructure for a large organization.",
			"How would you build a multi-armed bandit system for content optimization?",
			"Design a causal inference study to measure marketing campaign effectiveness.",
			"Build a system for automated model monitoring and retraining.",
			"How would you architect a real-time ML serving platform?",
		},
	},
}

var genericQuestions = []string{
	"Tell me about a challenging project you've worked on recently.",
	"How do you approach problem-solving in your field?",
	"Describe a time when you had to learn a new technology quickly.",
	"What interests you most about this role?",
	"How do you stay updated with industry trends?",
}

func (b *FallbackBank) GenerateQuestions(_ context.Context, role, difficulty string, count int) ([]string, error) {
	if count <= 0 {
		return nil, ErrNoQuestions
	}
	roleKey := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(role), " ", "_"))
	pool := genericQuestions
	if byDifficulty, ok := fallbackQuestions[roleKey]; ok {
		if qs, ok := byDifficulty[difficulty]; ok {
			pool = qs
		}
	}
	if count > len(pool) {
		count = len(pool)
	}
	out := make([]string, count)
	copy(out, pool[:count])
	return out, nil
}

// ScoreAnswer grades by answer length alone. It keeps scores honest when
// the evaluation backend is down rather than failing the whole session.
func (b *FallbackBank) ScoreAnswer(_ context.Context, _, answer, _ string) (Evaluation, error) {
	words := len(strings.Fields(answer))

	ev := Evaluation{
		Suggestions: "Try to include specific examples and technical details",
	}
	switch {
	case words == 0:
		ev.Score = 1
		ev.Completeness = CompletenessPoor
	case words < 20:
		ev.Score = 3
		ev.Completeness = CompletenessPoor
	case words < 50:
		ev.Score = 5
		ev.Completeness = CompletenessFair
	case words < 100:
		ev.Score = 7
		ev.Completeness = CompletenessGood
	default:
		ev.Score = 8
		ev.Completeness = CompletenessExcellent
	}

	if words > 20 {
		ev.Strengths = "Response provided with reasonable detail"
	} else {
		ev.Strengths = "Response provided"
	}
	if words < 50 {
		ev.Weaknesses = "Could provide more specific examples"
	} else {
		ev.Weaknesses = "Good response length"
	}
	return ev, nil
}
