package analysisnode

import (
	"context"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
	metricsx "github.com/tanpawarit/brand-intelligence-agent/pkg/metrics"
)

// DispatchEffects hands the interaction to memory capture and publishes the result.
// Neither can fail the pipeline once the result is persisted.
func DispatchEffects(
	ctx context.Context,
	in *GraphState,
	memory contractx.MemoryRecorder,
	publisher contractx.EventPublisher,
) (*GraphState, error) {
	memory.Record(*in.Message, *in.Result)

	if err := publisher.Publish(ctx, domain.NewAnalysisResultPublished(in.Result)); err != nil {
		metricsx.PublishFailures.Inc()
		log.Error().Err(err).Int64("result_id", in.Result.ID).Msg("publish analysis result failed")
	}
	return in, nil
}

func Finalize(in *GraphState) (GraphOutput, error) {
	return GraphOutput{
		Message: in.Message,
		Result:  in.Result,
		Parsed:  in.Parsed,
	}, nil
}
