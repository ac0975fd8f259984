package resolution

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
	promptx "github.com/tanpawarit/brand-intelligence-agent/agent/prompt"
	metricsx "github.com/tanpawarit/brand-intelligence-agent/pkg/metrics"
)

type Store interface {
	contractx.MessageStore
	contractx.ResultStore
}

// Workflow moves analysed cases forward and writes the public closing reply.
type Workflow struct {
	store     Store
	agent     contractx.Agent
	publisher contractx.EventPublisher
	prompts   promptx.PromptSet
}

func New(store Store, agent contractx.Agent, publisher contractx.EventPublisher, prompts promptx.PromptSet) (*Workflow, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if agent == nil {
		return nil, errors.New("resolution agent is required")
	}
	if err := prompts.Validate(); err != nil {
		return nil, err
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &Workflow{store: store, agent: agent, publisher: publisher, prompts: prompts}, nil
}

// MarkInProgress moves an OPEN case to IN_PROGRESS.
func (w *Workflow) MarkInProgress(ctx context.Context, resultID int64) (*domain.AnalysisResult, error) {
	res, err := w.store.GetResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if err := res.MarkInProgress(); err != nil {
		return nil, fmt.Errorf("result %d: %w", resultID, err)
	}
	if err := w.store.UpdateResult(ctx, res); err != nil {
		return nil, err
	}

	log.Info().Int64("result_id", res.ID).Str("status", string(res.Status)).Msg("case in progress")
	return res, nil
}

// ResolveCase generates the public closing message and marks the case RESOLVED.
// Nothing is written when the reply cannot be generated.
func (w *Workflow) ResolveCase(ctx context.Context, resultID int64, notes string) (*domain.AnalysisResult, error) {
	res, err := w.store.GetResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if !res.Status.CanTransitionTo(domain.StatusResolved) {
		return nil, fmt.Errorf("result %d is %s: %w", resultID, res.Status, contractx.ErrInvalidTransition)
	}

	msg, err := w.store.GetMessage(ctx, res.MessageID)
	if err != nil {
		return nil, err
	}

	closing, err := w.closingMessage(ctx, msg, notes)
	if err != nil {
		return nil, err
	}

	if err := res.Resolve(closing); err != nil {
		return nil, fmt.Errorf("result %d: %w", resultID, err)
	}
	if err := w.store.UpdateResult(ctx, res); err != nil {
		return nil, err
	}
	metricsx.Resolutions.Inc()

	if err := w.publisher.Publish(ctx, domain.NewAnalysisResultPublished(res)); err != nil {
		metricsx.PublishFailures.Inc()
		log.Error().Err(err).Int64("result_id", res.ID).Msg("publish resolved result failed")
	}

	log.Info().
		Int64("result_id", res.ID).
		Int64("message_id", res.MessageID).
		Str("channel_type", string(msg.ChannelType)).
		Msg("case resolved")
	return res, nil
}

func (w *Workflow) closingMessage(ctx context.Context, msg *domain.SocialMessage, notes string) (string, error) {
	channel := msg.Platform
	if strings.TrimSpace(channel) == "" {
		channel = string(msg.ChannelType)
	}

	input, err := promptx.Render(ctx, w.prompts.ResolutionInput, map[string]any{
		"complaint": msg.Content,
		"notes":     strings.TrimSpace(notes),
		"channel":   channel,
	})
	if err != nil {
		return "", err
	}

	reply, err := w.agent.Run(ctx, contractx.AgentRequest{
		SystemPrompt: w.prompts.Resolution,
		UserMessage:  input,
	})
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", contractx.ErrEmptyReply
	}
	return reply, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.AnalysisResultPublished) error { return nil }
