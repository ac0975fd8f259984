package analysisnode

import (
	"context"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
)

// InvokeAgent never fails the pipeline; agent errors leave an empty response for the fallback.
func InvokeAgent(ctx context.Context, in *GraphState, agent contractx.Agent) (*GraphState, error) {
	raw, err := agent.Run(ctx, in.Prompt.Request(in.Message.Content, in.Tools))
	if err != nil {
		log.Error().Err(err).Int64("message_id", in.Message.ID).Msg("classification agent failed")
		in.AgentErr = err
		raw = ""
	}
	in.RawResponse = raw
	return in, nil
}
