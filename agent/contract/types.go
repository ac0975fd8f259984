package contract

import (
	"github.com/cloudwego/eino/components/tool"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

type AgentType string

const (
	AgentTypeClassifier AgentType = "classifier"
	AgentTypeSummarizer AgentType = "summarizer"
	AgentTypeResolution AgentType = "resolution"
)

type AgentRequest struct {
	SystemPrompt string
	UserMessage  string
	// Filter scopes the retrieval step. A zero filter disables retrieval.
	Filter domain.RetrievalFilter
	Tools  []tool.BaseTool
}

type Document struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Score    float64           `json:"score"`
}
