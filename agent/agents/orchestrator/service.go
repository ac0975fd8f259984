package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
	nodex "github.com/tanpawarit/brand-intelligence-agent/agent/nodes/analysis"
	promptx "github.com/tanpawarit/brand-intelligence-agent/agent/prompt"
)

// Config carries the optional collaborators. Nil ones are replaced by no-ops.
type Config struct {
	Prompts       *promptx.PromptSet
	KnowledgeBase contractx.KnowledgeBase
	Memory        contractx.MemoryRecorder
	Publisher     contractx.EventPublisher
}

type Orchestrator struct {
	store     contractx.Store
	identity  contractx.IdentityResolver
	agent     contractx.Agent
	kb        contractx.KnowledgeBase
	memory    contractx.MemoryRecorder
	publisher contractx.EventPublisher
	prompts   promptx.PromptSet

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

// Inbound is a raw delivery from a channel adapter.
type Inbound struct {
	BrandID      uuid.UUID `json:"brandId"`
	Content      string    `json:"content"`
	Platform     string    `json:"platform"`
	PlatformUser string    `json:"user"`
}

type Outcome struct {
	Message *domain.SocialMessage  `json:"message"`
	Result  *domain.AnalysisResult `json:"result"`
	Parsed  bool                   `json:"parsed"`
}

func New(
	store contractx.Store,
	identity contractx.IdentityResolver,
	agent contractx.Agent,
	cfg Config,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if identity == nil {
		return nil, errors.New("identity resolver is required")
	}
	if agent == nil {
		return nil, errors.New("classification agent is required")
	}

	prompts := promptx.LoadPromptSet()
	if cfg.Prompts != nil {
		prompts = *cfg.Prompts
	}
	if err := prompts.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		store:     store,
		identity:  identity,
		agent:     agent,
		kb:        cfg.KnowledgeBase,
		memory:    cfg.Memory,
		publisher: cfg.Publisher,
		prompts:   prompts,
		now:       time.Now,
	}
	if o.memory == nil {
		o.memory = noopMemory{}
	}
	if o.publisher == nil {
		o.publisher = noopPublisher{}
	}

	graphRunner, err := o.compileAnalyzeGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// Analyze runs the pipeline for msg. Only validation and storage failures are returned;
// agent failures produce a fallback result instead.
func (o *Orchestrator) Analyze(ctx context.Context, msg domain.SocialMessage) (Outcome, error) {
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{Message: msg})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Message: out.Message, Result: out.Result, Parsed: out.Parsed}, nil
}

// ProcessNewMessage maps the platform label to a channel and analyses a new message for it.
func (o *Orchestrator) ProcessNewMessage(ctx context.Context, in Inbound) (Outcome, error) {
	channel, ok := domain.ParseChannelType(in.Platform)
	if !ok {
		log.Warn().
			Str("platform", in.Platform).
			Str("brand_id", in.BrandID.String()).
			Msg("unknown platform, using UNKNOWN channel")
	}

	return o.Analyze(ctx, domain.SocialMessage{
		BrandID:      in.BrandID,
		ChannelType:  channel,
		Content:      in.Content,
		Platform:     in.Platform,
		PlatformUser: in.PlatformUser,
	})
}

type noopMemory struct{}

func (noopMemory) Record(domain.SocialMessage, domain.AnalysisResult) {}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.AnalysisResultPublished) error { return nil }
