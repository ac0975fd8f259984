package memory

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
	promptx "github.com/tanpawarit/brand-intelligence-agent/agent/prompt"
	metricsx "github.com/tanpawarit/brand-intelligence-agent/pkg/metrics"
)

var _ contractx.MemoryRecorder = (*Writer)(nil)

type Config struct {
	Workers   int           `envconfig:"MEMORY_WORKERS" default:"2"`
	QueueSize int           `envconfig:"MEMORY_QUEUE_SIZE" default:"256"`
	Timeout   time.Duration `envconfig:"MEMORY_TIMEOUT" default:"30s"`
}

type job struct {
	msg domain.SocialMessage
	res domain.AnalysisResult
}

// Writer summarizes analysed interactions off the request path and stores them as
// customer history. Jobs that do not fit in the queue are dropped.
type Writer struct {
	agent   contractx.Agent
	kb      contractx.KnowledgeBase
	prompts promptx.PromptSet
	timeout time.Duration

	jobs chan job
	wg   conc.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewWriter(agent contractx.Agent, kb contractx.KnowledgeBase, prompts promptx.PromptSet, cfg Config) (*Writer, error) {
	if agent == nil {
		return nil, errors.New("summarizer agent is required")
	}
	if kb == nil {
		return nil, errors.New("knowledge base is required")
	}
	if err := prompts.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	w := &Writer{
		agent:   agent,
		kb:      kb,
		prompts: prompts,
		timeout: cfg.Timeout,
		jobs:    make(chan job, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		w.wg.Go(w.loop)
	}
	return w, nil
}

// Record queues the interaction and returns immediately.
func (w *Writer) Record(msg domain.SocialMessage, res domain.AnalysisResult) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		metricsx.MemoryWrites.WithLabelValues(metricsx.StatusDropped).Inc()
		log.Warn().Int64("message_id", msg.ID).Msg("memory writer closed, interaction dropped")
		return
	}

	select {
	case w.jobs <- job{msg: msg, res: res}:
	default:
		metricsx.MemoryWrites.WithLabelValues(metricsx.StatusDropped).Inc()
		log.Warn().Int64("message_id", msg.ID).Msg("memory queue full, interaction dropped")
	}
}

// Close stops accepting interactions and waits for queued ones to finish or ctx to end.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) loop() {
	for j := range w.jobs {
		if r := panics.Try(func() { w.process(j) }); r != nil {
			metricsx.MemoryWrites.WithLabelValues(metricsx.StatusFailed).Inc()
			log.Error().Err(r.AsError()).Int64("message_id", j.msg.ID).Msg("memory write panicked")
		}
	}
}

func (w *Writer) process(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	stored, err := w.Write(ctx, j.msg, j.res)
	switch {
	case err != nil:
		metricsx.MemoryWrites.WithLabelValues(metricsx.StatusFailed).Inc()
		log.Error().Err(err).Int64("message_id", j.msg.ID).Msg("memory write failed")
	case !stored:
		metricsx.MemoryWrites.WithLabelValues(metricsx.StatusSkipped).Inc()
	default:
		metricsx.MemoryWrites.WithLabelValues(metricsx.StatusStored).Inc()
	}
}

// Write summarizes one interaction and stores it. It runs with its own agent
// session, so nothing from the classification call leaks into the summary.
func (w *Writer) Write(ctx context.Context, msg domain.SocialMessage, res domain.AnalysisResult) (bool, error) {
	input, err := promptx.Render(ctx, w.prompts.MemoryInput, map[string]any{
		"platform":  msg.Platform,
		"user":      msg.PlatformUser,
		"content":   msg.Content,
		"sentiment": string(res.Sentiment),
		"category":  res.Category,
	})
	if err != nil {
		return false, err
	}

	summary, err := w.agent.Run(ctx, contractx.AgentRequest{
		SystemPrompt: w.prompts.Summarizer,
		UserMessage:  input,
	})
	if err != nil {
		return false, err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		log.Debug().Int64("message_id", msg.ID).Msg("empty memory summary, skipping")
		return false, nil
	}

	if err := w.kb.Ingest(ctx, summary, Metadata(msg, res)); err != nil {
		return false, err
	}
	return true, nil
}

// Metadata tags a stored summary so retrieval filters can scope it to one customer and brand.
func Metadata(msg domain.SocialMessage, res domain.AnalysisResult) map[string]string {
	meta := map[string]string{
		domain.MetaMessageID:   strconv.FormatInt(msg.ID, 10),
		domain.MetaChannelType: string(msg.ChannelType),
		domain.MetaPlatform:    msg.Platform,
		domain.MetaSentiment:   string(res.Sentiment),
		domain.MetaCategory:    res.Category,
		domain.MetaType:        domain.MemoryTypeConversation,
		domain.MetaDate:        res.AnalyzedAt.UTC().Format(time.RFC3339),
	}
	if msg.CustomerID != nil {
		meta[domain.MetaCustomerID] = msg.CustomerID.String()
	}
	if msg.BrandID != uuid.Nil {
		meta[domain.MetaBrandID] = msg.BrandID.String()
	}
	return meta
}
