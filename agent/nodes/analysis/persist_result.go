package analysisnode

import (
	"context"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
	metricsx "github.com/tanpawarit/brand-intelligence-agent/pkg/metrics"
)

func PersistResult(ctx context.Context, in *GraphState, store contractx.ResultStore) (*GraphState, error) {
	res, err := domain.NewAnalysisResult(in.Message, in.Analysis, in.Now)
	if err != nil {
		return nil, err
	}
	if err := store.SaveResult(ctx, res); err != nil {
		return nil, err
	}
	in.Result = res

	outcome := metricsx.OutcomeParsed
	if !in.Parsed {
		outcome = metricsx.OutcomeFallback
	}
	metricsx.Analyses.WithLabelValues(outcome).Inc()

	log.Info().
		Int64("message_id", in.Message.ID).
		Int64("result_id", res.ID).
		Str("sentiment", string(res.Sentiment)).
		Str("category", res.Category).
		Str("outcome", outcome).
		Msg("analysis persisted")
	return in, nil
}
