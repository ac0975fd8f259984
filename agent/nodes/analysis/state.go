package analysisnode

import (
	"strings"
	"time"

	einotool "github.com/cloudwego/eino/components/tool"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
	promptx "github.com/tanpawarit/brand-intelligence-agent/agent/prompt"
)

type GraphInput struct {
	Message domain.SocialMessage
}

type GraphOutput struct {
	Message *domain.SocialMessage
	Result  *domain.AnalysisResult
	// Parsed is false when the fallback analysis was used.
	Parsed bool
}

type GraphState struct {
	Now     time.Time
	Message *domain.SocialMessage

	Trust  domain.TrustLevel
	Prompt PromptContext
	Tools  []einotool.BaseTool

	RawResponse string
	AgentErr    error

	Analysis domain.Analysis
	Parsed   bool

	Result *domain.AnalysisResult
}

// PromptContext is built once per message and never modified afterwards.
type PromptContext struct {
	systemPrompt         string
	filter               domain.RetrievalFilter
	trust                domain.TrustLevel
	verificationRequired bool
}

func NewPromptContext(
	prompts promptx.PromptSet,
	brandInstructions string,
	trust domain.TrustLevel,
	filter domain.RetrievalFilter,
) PromptContext {
	verificationRequired := trust.VerificationRequired()

	parts := []string{prompts.Classifier}
	if s := strings.TrimSpace(brandInstructions); s != "" {
		parts = append(parts, "BRAND INSTRUCTIONS:\n"+s)
	}
	parts = append(parts, prompts.TrustDirective(verificationRequired))

	return PromptContext{
		systemPrompt:         strings.Join(parts, "\n\n"),
		filter:               filter,
		trust:                trust,
		verificationRequired: verificationRequired,
	}
}

func (p PromptContext) SystemPrompt() string           { return p.systemPrompt }
func (p PromptContext) Filter() domain.RetrievalFilter { return p.filter }
func (p PromptContext) Trust() domain.TrustLevel       { return p.trust }
func (p PromptContext) VerificationRequired() bool     { return p.verificationRequired }

func (p PromptContext) Request(userMessage string, tools []einotool.BaseTool) contractx.AgentRequest {
	return contractx.AgentRequest{
		SystemPrompt: p.systemPrompt,
		UserMessage:  userMessage,
		Filter:       p.filter,
		Tools:        tools,
	}
}
