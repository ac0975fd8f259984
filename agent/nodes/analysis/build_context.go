package analysisnode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
	promptx "github.com/tanpawarit/brand-intelligence-agent/agent/prompt"
	toolx "github.com/tanpawarit/brand-intelligence-agent/agent/tool"
)

func BuildContext(
	ctx context.Context,
	in *GraphState,
	brands contractx.BrandStore,
	kb contractx.KnowledgeBase,
	prompts promptx.PromptSet,
) (*GraphState, error) {
	msg := in.Message
	if msg.CustomerID == nil {
		return nil, fmt.Errorf("%w: customer id unresolved", contractx.ErrValidation)
	}

	filter, err := domain.NewRetrievalFilter(*msg.CustomerID, msg.BrandID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}

	in.Prompt = NewPromptContext(prompts, brandInstructions(ctx, brands, msg), in.Trust, filter)
	in.Tools = toolx.CrisisTools(kb, filter)
	return in, nil
}

func brandInstructions(ctx context.Context, brands contractx.BrandStore, msg *domain.SocialMessage) string {
	brand, err := brands.GetBrand(ctx, msg.BrandID)
	if err != nil {
		if !errors.Is(err, contractx.ErrNotFound) {
			log.Warn().Err(err).Str("brand_id", msg.BrandID.String()).Msg("brand lookup failed, using no brand instructions")
		}
		return ""
	}
	return brand.SystemInstructions
}
