package domain

type AnalysisResultPublished struct {
	MessageID            int64     `json:"messageId"`
	Sentiment            Sentiment `json:"sentiment"`
	Category             string    `json:"category"`
	ConfidenceScore      float64   `json:"confidenceScore"`
	PublicClosingMessage *string   `json:"publicClosingMessage"`
}

func NewAnalysisResultPublished(r *AnalysisResult) AnalysisResultPublished {
	return AnalysisResultPublished{
		MessageID:            r.MessageID,
		Sentiment:            r.Sentiment,
		Category:             r.Category,
		ConfidenceScore:      r.ConfidenceScore,
		PublicClosingMessage: r.PublicClosingMessage,
	}
}
