package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

// Resolver maps platform identities onto unified customer ids.
type Resolver struct {
	store contractx.IdentityStore
	now   func() time.Time
}

func NewResolver(store contractx.IdentityStore) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("identity store is required")
	}
	return &Resolver{store: store, now: time.Now}, nil
}

// Resolve is an idempotent find-or-create on (brand, channel, platform user).
func (r *Resolver) Resolve(ctx context.Context, brandID uuid.UUID, platformUserID string, channel domain.ChannelType) (uuid.UUID, error) {
	key := domain.IdentityKey{BrandID: brandID, ChannelType: channel, PlatformUserID: platformUserID}
	if err := key.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}

	row, err := r.store.UpsertSighting(ctx, key, r.now().UTC())
	if err != nil {
		return uuid.Nil, err
	}

	log.Debug().
		Str("brand_id", brandID.String()).
		Str("channel_type", string(channel)).
		Str("customer_id", row.CustomerID.String()).
		Msg("identity resolved")
	return row.CustomerID, nil
}

// Link attaches a platform identity to an existing unified customer with the given trust.
// It is the only path that changes which customer an identity belongs to.
func (r *Resolver) Link(
	ctx context.Context,
	brandID uuid.UUID,
	customerID uuid.UUID,
	platformUserID string,
	channel domain.ChannelType,
	level domain.TrustLevel,
) (*domain.CustomerIdentity, error) {
	key := domain.IdentityKey{BrandID: brandID, ChannelType: channel, PlatformUserID: platformUserID}
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer id is empty", contractx.ErrValidation)
	}
	if _, ok := domain.ParseTrustLevel(string(level)); !ok {
		return nil, fmt.Errorf("%w: trust level %q", contractx.ErrValidation, level)
	}

	row, err := r.store.LinkIdentity(ctx, key, customerID, level, r.now().UTC())
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("brand_id", brandID.String()).
		Str("channel_type", string(channel)).
		Str("customer_id", customerID.String()).
		Str("trust_level", string(level)).
		Msg("identity linked")
	return row, nil
}

// TrustLevel never fails: unknown identities and lookup errors read as UNVERIFIED.
func (r *Resolver) TrustLevel(ctx context.Context, brandID uuid.UUID, platformUserID string, channel domain.ChannelType) domain.TrustLevel {
	key := domain.IdentityKey{BrandID: brandID, ChannelType: channel, PlatformUserID: platformUserID}
	row, err := r.store.FindIdentity(ctx, key)
	if err != nil {
		if !errors.Is(err, contractx.ErrNotFound) {
			log.Warn().Err(err).Str("brand_id", brandID.String()).Msg("trust lookup failed, treating as unverified")
		}
		return domain.TrustUnverified
	}
	return row.TrustLevel
}
