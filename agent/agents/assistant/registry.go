package assistant

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	llmx "github.com/tanpawarit/brand-intelligence-agent/agent/llm"
)

// Registry holds one agent per role. Only the classifier retrieves history.
type Registry struct {
	Classifier contractx.Agent
	Summarizer contractx.Agent
	Resolution contractx.Agent
}

func NewRegistry(ctx context.Context, cfg llmx.Config, kb contractx.KnowledgeBase) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	build := func(agentType contractx.AgentType, opts ...Option) (*Assistant, error) {
		modelCfg := cfg.OpenRouterFor(agentType)
		model, err := modelCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, agentType, err)
		}
		return New(agentType, model, append(opts, WithMaxSteps(cfg.MaxToolSteps))...)
	}

	classifier, err := build(contractx.AgentTypeClassifier, WithKnowledgeBase(kb), WithHistoryK(cfg.HistoryTopK))
	if err != nil {
		return nil, err
	}
	summarizer, err := build(contractx.AgentTypeSummarizer)
	if err != nil {
		return nil, err
	}
	resolution, err := build(contractx.AgentTypeResolution)
	if err != nil {
		return nil, err
	}

	return &Registry{
		Classifier: classifier,
		Summarizer: summarizer,
		Resolution: resolution,
	}, nil
}
