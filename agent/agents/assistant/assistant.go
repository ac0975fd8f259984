package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

var _ contractx.Agent = (*Assistant)(nil)

const (
	defaultMaxSteps = 4
	defaultHistoryK = 4
)

// Assistant runs one stateless conversation per call: optional scoped retrieval,
// then a generate/tool loop until the model answers without tool calls.
type Assistant struct {
	name     contractx.AgentType
	model    einomodel.ToolCallingChatModel
	kb       contractx.KnowledgeBase
	maxSteps int
	historyK int
}

type Option func(*Assistant)

func WithKnowledgeBase(kb contractx.KnowledgeBase) Option {
	return func(a *Assistant) { a.kb = kb }
}

func WithMaxSteps(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

func WithHistoryK(k int) Option {
	return func(a *Assistant) {
		if k > 0 {
			a.historyK = k
		}
	}
}

func New(name contractx.AgentType, model einomodel.ToolCallingChatModel, opts ...Option) (*Assistant, error) {
	if model == nil {
		return nil, errors.New("chat model is required")
	}
	a := &Assistant{
		name:     name,
		model:    model,
		maxSteps: defaultMaxSteps,
		historyK: defaultHistoryK,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

func (a *Assistant) Run(ctx context.Context, req contractx.AgentRequest) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(a.systemPrompt(ctx, req)),
		schema.UserMessage(req.UserMessage),
	}

	chat := a.model
	var tools *compose.ToolsNode
	if len(req.Tools) > 0 {
		infos := make([]*schema.ToolInfo, 0, len(req.Tools))
		for _, t := range req.Tools {
			info, err := t.Info(ctx)
			if err != nil {
				return "", fmt.Errorf("%w: tool info: %v", contractx.ErrModelInvoke, err)
			}
			infos = append(infos, info)
		}
		bound, err := a.model.WithTools(infos)
		if err != nil {
			return "", fmt.Errorf("%w: bind tools for agent=%s: %v", contractx.ErrModelInvoke, a.name, err)
		}
		chat = bound

		tools, err = compose.NewToolNode(ctx, &compose.ToolsNodeConfig{Tools: req.Tools})
		if err != nil {
			return "", fmt.Errorf("%w: build tools node: %v", contractx.ErrModelInvoke, err)
		}
	}

	for step := 0; step < a.maxSteps; step++ {
		out, err := chat.Generate(ctx, messages)
		if err != nil {
			return "", fmt.Errorf("%w: agent=%s generate: %v", contractx.ErrModelInvoke, a.name, err)
		}
		if out == nil {
			return "", fmt.Errorf("%w: agent=%s returned no message", contractx.ErrSchemaViolation, a.name)
		}
		if len(out.ToolCalls) == 0 || tools == nil {
			return strings.TrimSpace(out.Content), nil
		}

		messages = append(messages, out)
		results, err := tools.Invoke(ctx, out)
		if err != nil {
			return "", fmt.Errorf("%w: agent=%s tools: %v", contractx.ErrModelInvoke, a.name, err)
		}
		messages = append(messages, results...)

		log.Debug().Str("agent", string(a.name)).Int("step", step+1).Int("tool_calls", len(out.ToolCalls)).Msg("agent tool round")
	}

	return "", fmt.Errorf("%w: agent=%s exceeded %d tool rounds", contractx.ErrSchemaViolation, a.name, a.maxSteps)
}

// systemPrompt appends retrieved history for the request's scope. Retrieval failures degrade to no history.
func (a *Assistant) systemPrompt(ctx context.Context, req contractx.AgentRequest) string {
	if a.kb == nil || req.Filter.IsZero() {
		return req.SystemPrompt
	}

	docs, err := a.kb.Search(ctx, req.Filter, req.UserMessage, a.historyK)
	if err != nil {
		log.Warn().Err(err).
			Str("agent", string(a.name)).
			Str("customer_id", req.Filter.CustomerID().String()).
			Msg("history retrieval failed")
		return req.SystemPrompt
	}
	if len(docs) == 0 {
		return req.SystemPrompt
	}

	var b strings.Builder
	b.WriteString(req.SystemPrompt)
	b.WriteString("\n\nPrevious interactions with this customer:\n")
	for _, d := range docs {
		b.WriteString("- ")
		b.WriteString(d.Text)
		if date := d.Metadata[domain.MetaDate]; date != "" {
			b.WriteString(" (" + date + ")")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
