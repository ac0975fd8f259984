package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/redis/go-redis/v9"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
	qstashx "github.com/tanpawarit/brand-intelligence-agent/pkg/qstash"
	upstashx "github.com/tanpawarit/brand-intelligence-agent/pkg/upstash"
)

func sampleEvent() domain.AnalysisResultPublished {
	closing := "We are sorry, a replacement is on its way."
	return domain.AnalysisResultPublished{
		MessageID:            17,
		Sentiment:            domain.SentimentNegative,
		Category:             "COMPLAINT",
		ConfidenceScore:      0.9,
		PublicClosingMessage: &closing,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{Sink: SinkNone}).Validate(); err != nil {
		t.Fatalf("Validate(none) error = %v", err)
	}
	if err := (Config{Sink: "kafka", Topic: "x"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown sink, got %v", err)
	}
	if err := (Config{Sink: SinkRedis}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing topic, got %v", err)
	}
}

func TestQStashPublisher(t *testing.T) {
	t.Parallel()

	var gotPath string
	var got domain.AnalysisResultPublished
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"messageId":"msg_1"}`)
	}))
	t.Cleanup(server.Close)

	client := qstashx.MustNew(qstashx.Config{URL: server.URL, Token: "t"}, qstashx.WithHTTPClient(server.Client()))
	pub, err := NewQStashPublisher(client, "analysis-results")
	if err != nil {
		t.Fatalf("NewQStashPublisher() error = %v", err)
	}

	evt := sampleEvent()
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if gotPath != "/v2/publish/analysis-results" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if got.MessageID != evt.MessageID || got.PublicClosingMessage == nil || *got.PublicClosingMessage != *evt.PublicClosingMessage {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestUpstashStreamPublisher(t *testing.T) {
	t.Parallel()

	var command []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&command); err != nil {
			t.Errorf("decode command: %v", err)
		}
		fmt.Fprint(w, `{"result":"1-0"}`)
	}))
	t.Cleanup(server.Close)

	client := upstashx.MustNew(upstashx.Config{URL: server.URL, Token: "t"}, upstashx.WithHTTPClient(server.Client()))
	pub, err := NewUpstashStreamPublisher(client, "analysis-results", 0)
	if err != nil {
		t.Fatalf("NewUpstashStreamPublisher() error = %v", err)
	}
	if err := pub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(command) != 9 || command[0] != "XADD" || command[1] != "analysis-results" || command[2] != "*" {
		t.Fatalf("unexpected command %v", command)
	}
	fields := map[string]any{}
	for i := 3; i+1 < len(command); i += 2 {
		fields[command[i].(string)] = command[i+1]
	}
	if fields["type"] != EventType || fields["message_id"] != "17" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

type fakeStreamAdder struct {
	args *redis.XAddArgs
	err  error
}

func (f *fakeStreamAdder) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = a
	return redis.NewStringResult("1-0", f.err)
}

func TestRedisStreamPublisher(t *testing.T) {
	t.Parallel()

	adder := &fakeStreamAdder{}
	pub, err := NewRedisStreamPublisher(adder, "analysis-results", 500)
	if err != nil {
		t.Fatalf("NewRedisStreamPublisher() error = %v", err)
	}
	if err := pub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if adder.args.Stream != "analysis-results" || adder.args.MaxLen != 500 || !adder.args.Approx {
		t.Fatalf("unexpected args %+v", adder.args)
	}
	values, ok := adder.args.Values.(map[string]string)
	if !ok {
		t.Fatalf("unexpected values type %T", adder.args.Values)
	}
	var payload domain.AnalysisResultPublished
	if err := json.Unmarshal([]byte(values["payload"]), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Category != "COMPLAINT" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	adder.err = errors.New("READONLY")
	if err := pub.Publish(context.Background(), sampleEvent()); err == nil {
		t.Fatal("expected xadd error")
	}
}
