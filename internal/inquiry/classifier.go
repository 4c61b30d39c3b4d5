package inquiry

import (
	"context"
	"strings"
)

// Recommendation is one candidate department for an inquiry.
type Recommendation struct {
	Department string  `json:"department"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// Classifier ranks departments for a free-text question, best first.
type Classifier interface {
	Classify(ctx context.Context, query string) ([]Recommendation, error)
}

// KeywordClassifier routes on a few fixed keywords and falls back to
// Student Affairs.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, query string) ([]Recommendation, error) {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "grade"):
		return []Recommendation{
			{Department: "Registrar's Office", Reason: "Handles all inquiries related to student grades, transcripts, and academic records.", Confidence: 0.92},
			{Department: "Academics Office", Reason: "Oversees curriculum and academic policies, may be relevant for grade appeals.", Confidence: 0.65},
		}, nil
	case strings.Contains(q, "enrollment"), strings.Contains(q, "subject"):
		return []Recommendation{
			{Department: "Academics Office", Reason: "Manages subject offerings and enrollment procedures.", Confidence: 0.88},
			{Department: "Registrar's Office", Reason: "Processes official enrollment and manages student records.", Confidence: 0.75},
		}, nil
	default:
		return []Recommendation{
			{Department: "Student Affairs", Reason: "Provides general student support and can direct you if your query is unclear.", Confidence: 0.85},
		}, nil
	}
}
