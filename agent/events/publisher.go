package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

const (
	SinkNone    = "none"
	SinkQStash  = "qstash"
	SinkUpstash = "upstash"
	SinkRedis   = "redis"

	EventType = "analysis_result"
)

type Config struct {
	Sink string `envconfig:"EVENTS_SINK" default:"none"`
	// Topic is the QStash destination or the stream name.
	Topic  string `envconfig:"EVENTS_TOPIC" default:"analysis-results"`
	MaxLen int64  `envconfig:"EVENTS_STREAM_MAX_LEN" default:"10000"`
}

func (c Config) Validate() error {
	switch c.Sink {
	case SinkNone, SinkQStash, SinkUpstash, SinkRedis:
	default:
		return fmt.Errorf("%w: unknown events sink %q", contractx.ErrValidation, c.Sink)
	}
	if c.Sink != SinkNone && c.Topic == "" {
		return fmt.Errorf("%w: events topic is required for sink %s", contractx.ErrValidation, c.Sink)
	}
	return nil
}

var (
	_ contractx.EventPublisher = Noop{}
	_ contractx.EventPublisher = (*QStashPublisher)(nil)
	_ contractx.EventPublisher = (*UpstashStreamPublisher)(nil)
	_ contractx.EventPublisher = (*RedisStreamPublisher)(nil)
)

// Noop is the publisher used when no outbound channel is configured.
type Noop struct{}

func (Noop) Publish(context.Context, domain.AnalysisResultPublished) error { return nil }

func encode(evt domain.AnalysisResultPublished) ([]byte, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", EventType, err)
	}
	return payload, nil
}

// streamFields is the entry layout shared by the stream publishers.
func streamFields(evt domain.AnalysisResultPublished, payload []byte) map[string]string {
	return map[string]string{
		"type":       EventType,
		"message_id": strconv.FormatInt(evt.MessageID, 10),
		"payload":    string(payload),
	}
}

func logPublished(sink, id string, evt domain.AnalysisResultPublished) {
	log.Debug().
		Str("sink", sink).
		Str("event_id", id).
		Int64("message_id", evt.MessageID).
		Msg("analysis result published")
}
