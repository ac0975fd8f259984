package domain

import "strings"

type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentUrgent   Sentiment = "URGENT"
)

func ParseSentiment(raw string) (Sentiment, bool) {
	switch s := Sentiment(strings.ToUpper(strings.TrimSpace(raw))); s {
	case SentimentPositive, SentimentNeutral, SentimentNegative, SentimentUrgent:
		return s, true
	default:
		return "", false
	}
}

const (
	CategoryUncategorized = "UNCATEGORIZED"
	ActionManualReview    = "Manual review required"
	ActionRequestLinkage  = "Request account linkage for history access"
)

// Analysis is the structured classification the agent is asked to return.
type Analysis struct {
	Sentiment               Sentiment `json:"sentiment"`
	Category                string    `json:"category"`
	Summary                 string    `json:"summary"`
	ConfidenceScore         float64   `json:"confidenceScore"`
	Keywords                []string  `json:"keywords"`
	SuggestedActions        []string  `json:"suggestedActions"`
	RequiresUrgentAttention bool      `json:"requiresUrgentAttention"`
	VerificationRequired    bool      `json:"verificationRequired"`
}

const fallbackExcerptLen = 100

// FallbackAnalysis is the degraded result used whenever agent output cannot be used.
func FallbackAnalysis(raw string, verificationRequired bool) Analysis {
	excerpt := raw
	if r := []rune(raw); len(r) > fallbackExcerptLen {
		excerpt = string(r[:fallbackExcerptLen])
	}
	return Analysis{
		Sentiment:               SentimentNeutral,
		Category:                CategoryUncategorized,
		Summary:                 "Error parsing AI response. Raw: " + excerpt,
		ConfidenceScore:         0,
		Keywords:                []string{},
		SuggestedActions:        []string{ActionManualReview},
		RequiresUrgentAttention: true,
		VerificationRequired:    verificationRequired,
	}
}
