package analysisnode

import (
	"context"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
)

// ResolveCustomer attaches a unified customer id when the message has none yet.
func ResolveCustomer(ctx context.Context, in *GraphState, resolver contractx.IdentityResolver) (*GraphState, error) {
	msg := in.Message
	if msg.CustomerID != nil {
		return in, nil
	}
	customerID, err := resolver.Resolve(ctx, msg.BrandID, msg.PlatformUser, msg.ChannelType)
	if err != nil {
		return nil, err
	}
	msg.CustomerID = &customerID
	return in, nil
}

func ResolveTrust(ctx context.Context, in *GraphState, resolver contractx.IdentityResolver) (*GraphState, error) {
	msg := in.Message
	in.Trust = resolver.TrustLevel(ctx, msg.BrandID, msg.PlatformUser, msg.ChannelType)

	log.Info().
		Int64("message_id", msg.ID).
		Str("brand_id", msg.BrandID.String()).
		Str("trust_level", string(in.Trust)).
		Bool("verification_required", in.Trust.VerificationRequired()).
		Msg("trust level resolved")
	return in, nil
}
