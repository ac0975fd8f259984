package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tanpawarit/brand-intelligence-agent/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	metricsx "github.com/tanpawarit/brand-intelligence-agent/pkg/metrics"
)

type Config struct {
	Stream   string        `envconfig:"STREAM" default:"social-messages"`
	Group    string        `envconfig:"GROUP" default:"brand-agent"`
	Consumer string        `envconfig:"CONSUMER"`
	Workers  int           `envconfig:"WORKERS" default:"4"`
	Batch    int64         `envconfig:"BATCH" default:"16"`
	Block    time.Duration `envconfig:"BLOCK" default:"5s"`
	// Deliveries left unacked longer than this are claimed back and retried.
	ClaimIdle time.Duration `envconfig:"CLAIM_IDLE" default:"1m"`
}

type Analyzer interface {
	ProcessNewMessage(ctx context.Context, in orchestrator.Inbound) (orchestrator.Outcome, error)
}

type streamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
}

// Consumer reads inbound deliveries from a Redis stream consumer group and analyses
// them on a bounded worker pool. Every delivery is a new message.
type Consumer struct {
	client   streamClient
	analyzer Analyzer
	cfg      Config

	// XAUTOCLAIM cursor; Poll is not safe for concurrent use.
	claimFrom string
}

func NewConsumer(client streamClient, analyzer Analyzer, cfg Config) (*Consumer, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if strings.TrimSpace(cfg.Stream) == "" || strings.TrimSpace(cfg.Group) == "" {
		return nil, fmt.Errorf("%w: stream and group are required", contractx.ErrValidation)
	}
	if cfg.Consumer == "" {
		cfg.Consumer = "consumer-" + uuid.NewString()[:8]
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Batch <= 0 {
		cfg.Batch = int64(cfg.Workers)
	}
	if cfg.ClaimIdle <= 0 {
		cfg.ClaimIdle = time.Minute
	}
	return &Consumer{client: client, analyzer: analyzer, cfg: cfg, claimFrom: "0-0"}, nil
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	log.Info().
		Str("stream", c.cfg.Stream).
		Str("group", c.cfg.Group).
		Str("consumer", c.cfg.Consumer).
		Int("workers", c.cfg.Workers).
		Msg("queue consumer started")

	for {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := c.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Msg("read stream failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	}
}

// Poll retries idle pending deliveries first. When there are none it reads one batch of
// new deliveries. It returns the number of deliveries handled.
func (c *Consumer) Poll(ctx context.Context) (int, error) {
	msgs := c.reclaim(ctx)
	if len(msgs) == 0 {
		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			Streams:  []string{c.cfg.Stream, ">"},
			Count:    c.cfg.Batch,
			Block:    c.cfg.Block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("xreadgroup: %w", err)
		}
		for _, s := range streams {
			msgs = append(msgs, s.Messages...)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for _, msg := range msgs {
		g.Go(func() error {
			c.handle(gctx, msg)
			return nil
		})
	}
	return len(msgs), g.Wait()
}

// reclaim takes over deliveries that stayed pending past ClaimIdle, walking the
// pending list one batch per call.
func (c *Consumer) reclaim(ctx context.Context) []redis.XMessage {
	msgs, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.cfg.Stream,
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		MinIdle:  c.cfg.ClaimIdle,
		Start:    c.claimFrom,
		Count:    c.cfg.Batch,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("xautoclaim failed")
		}
		return nil
	}
	if next == "" {
		next = "0-0"
	}
	c.claimFrom = next

	if len(msgs) > 0 {
		metricsx.QueueDeliveries.WithLabelValues(metricsx.DispositionReclaimed).Add(float64(len(msgs)))
		log.Info().Int("count", len(msgs)).Msg("reclaimed idle deliveries")
	}
	return msgs
}

type delivery struct {
	BrandID  string `json:"brandId"`
	Content  string `json:"content"`
	Platform string `json:"platform"`
	User     string `json:"user"`
}

func (c *Consumer) handle(ctx context.Context, msg redis.XMessage) {
	in, err := decode(msg.Values)
	if err != nil {
		log.Error().Err(err).Str("entry_id", msg.ID).Msg("dropping undecodable delivery")
		metricsx.QueueDeliveries.WithLabelValues(metricsx.DispositionRejected).Inc()
		c.ack(ctx, msg.ID)
		return
	}

	out, err := c.analyzer.ProcessNewMessage(ctx, in)
	if err != nil {
		if errors.Is(err, contractx.ErrValidation) {
			log.Error().Err(err).Str("entry_id", msg.ID).Msg("dropping invalid delivery")
			metricsx.QueueDeliveries.WithLabelValues(metricsx.DispositionRejected).Inc()
			c.ack(ctx, msg.ID)
			return
		}
		// stays pending until reclaim picks it up after ClaimIdle
		log.Error().Err(err).Str("entry_id", msg.ID).Msg("delivery processing failed")
		metricsx.QueueDeliveries.WithLabelValues(metricsx.DispositionPending).Inc()
		return
	}

	c.ack(ctx, msg.ID)
	metricsx.QueueDeliveries.WithLabelValues(metricsx.DispositionAcked).Inc()
	log.Info().
		Str("entry_id", msg.ID).
		Int64("message_id", out.Message.ID).
		Int64("result_id", out.Result.ID).
		Msg("delivery processed")
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, id).Err(); err != nil {
		log.Warn().Err(err).Str("entry_id", id).Msg("xack failed")
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

// decode accepts either a single "payload" JSON field or flat stream fields.
func decode(values map[string]any) (orchestrator.Inbound, error) {
	var d delivery
	if raw, ok := values["payload"].(string); ok {
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return orchestrator.Inbound{}, fmt.Errorf("decode payload: %w", err)
		}
	} else {
		d = delivery{
			BrandID:  str(values["brandId"]),
			Content:  str(values["content"]),
			Platform: str(values["platform"]),
			User:     str(values["user"]),
		}
	}

	brandID, err := uuid.Parse(strings.TrimSpace(d.BrandID))
	if err != nil {
		return orchestrator.Inbound{}, fmt.Errorf("brandId: %w", err)
	}
	return orchestrator.Inbound{
		BrandID:      brandID,
		Content:      d.Content,
		Platform:     d.Platform,
		PlatformUser: d.User,
	}, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
