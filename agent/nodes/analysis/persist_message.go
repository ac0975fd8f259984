package analysisnode

import (
	"context"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
)

func PersistMessage(ctx context.Context, in *GraphState, store contractx.MessageStore) (*GraphState, error) {
	if err := store.SaveMessage(ctx, in.Message); err != nil {
		return nil, err
	}
	return in, nil
}
