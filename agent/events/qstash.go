package events

import (
	"context"
	"errors"

	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

type qstashClient interface {
	Publish(ctx context.Context, destination string, body []byte) (string, error)
}

// QStashPublisher delivers results through a QStash topic or URL.
type QStashPublisher struct {
	client      qstashClient
	destination string
}

func NewQStashPublisher(client qstashClient, destination string) (*QStashPublisher, error) {
	if client == nil {
		return nil, errors.New("qstash client is required")
	}
	if destination == "" {
		return nil, errors.New("qstash destination is required")
	}
	return &QStashPublisher{client: client, destination: destination}, nil
}

func (p *QStashPublisher) Publish(ctx context.Context, evt domain.AnalysisResultPublished) error {
	payload, err := encode(evt)
	if err != nil {
		return err
	}
	id, err := p.client.Publish(ctx, p.destination, payload)
	if err != nil {
		return err
	}
	logPublished(SinkQStash, id, evt)
	return nil
}
