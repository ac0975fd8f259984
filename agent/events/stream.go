package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

type upstashClient interface {
	XAdd(ctx context.Context, stream string, maxLen int64, fields map[string]string) (string, error)
}

// UpstashStreamPublisher appends results to a Redis stream over the Upstash REST API.
type UpstashStreamPublisher struct {
	client upstashClient
	stream string
	maxLen int64
}

func NewUpstashStreamPublisher(client upstashClient, stream string, maxLen int64) (*UpstashStreamPublisher, error) {
	if client == nil {
		return nil, errors.New("upstash client is required")
	}
	if stream == "" {
		return nil, errors.New("stream name is required")
	}
	return &UpstashStreamPublisher{client: client, stream: stream, maxLen: maxLen}, nil
}

func (p *UpstashStreamPublisher) Publish(ctx context.Context, evt domain.AnalysisResultPublished) error {
	payload, err := encode(evt)
	if err != nil {
		return err
	}
	id, err := p.client.XAdd(ctx, p.stream, p.maxLen, streamFields(evt, payload))
	if err != nil {
		return fmt.Errorf("upstash xadd: %w", err)
	}
	logPublished(SinkUpstash, id, evt)
	return nil
}

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamPublisher appends results to a Redis stream over a native connection.
type RedisStreamPublisher struct {
	client streamAdder
	stream string
	maxLen int64
}

func NewRedisStreamPublisher(client streamAdder, stream string, maxLen int64) (*RedisStreamPublisher, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if stream == "" {
		return nil, errors.New("stream name is required")
	}
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}, nil
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, evt domain.AnalysisResultPublished) error {
	payload, err := encode(evt)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: streamFields(evt, payload),
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("redis xadd: %w", err)
	}
	logPublished(SinkRedis, id, evt)
	return nil
}
