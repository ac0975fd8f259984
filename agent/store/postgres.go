package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

var _ contractx.Store = (*PostgresStore)(nil)

const identityConflict = "CONFLICT (brand_id, channel_type, platform_user_id) DO UPDATE"

// PostgresStore persists the core entities with bun. The identity natural key is
// backed by a unique index so concurrent sightings collapse into one row.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates tables and the identity natural-key index when absent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	models := []any{
		(*domain.Brand)(nil),
		(*domain.SocialMessage)(nil),
		(*domain.CustomerIdentity)(nil),
		(*domain.AnalysisResult)(nil),
	}
	for _, m := range models {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table %T: %w", m, err)
		}
	}

	if _, err := s.naturalKeyIndex().Exec(ctx); err != nil {
		return fmt.Errorf("create identity natural key index: %w", err)
	}
	return nil
}

func (s *PostgresStore) naturalKeyIndex() *bun.CreateIndexQuery {
	return s.db.NewCreateIndex().
		Model((*domain.CustomerIdentity)(nil)).
		Index("customer_identities_natural_key").
		Unique().
		IfNotExists().
		Column("brand_id", "channel_type", "platform_user_id")
}

func (s *PostgresStore) GetBrand(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	brand := new(domain.Brand)
	if err := s.db.NewSelect().Model(brand).Where("b.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "brand %s", id)
	}
	return brand, nil
}

func (s *PostgresStore) SaveMessage(ctx context.Context, msg *domain.SocialMessage) error {
	q := s.db.NewInsert().Model(msg).Returning("id")
	if msg.ID != 0 {
		q = q.On("CONFLICT (id) DO NOTHING")
	}
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("insert social message: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetMessage(ctx context.Context, id int64) (*domain.SocialMessage, error) {
	msg := new(domain.SocialMessage)
	if err := s.db.NewSelect().Model(msg).Where("sm.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "message %d", id)
	}
	return msg, nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, res *domain.AnalysisResult) error {
	if _, err := s.db.NewInsert().Model(res).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert analysis result: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateResult(ctx context.Context, res *domain.AnalysisResult) error {
	out, err := s.db.NewUpdate().
		Model(res).
		Column("status", "public_closing_message").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update analysis result: %w", err)
	}
	if n, err := out.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: result %d", contractx.ErrNotFound, res.ID)
	}
	return nil
}

func (s *PostgresStore) GetResult(ctx context.Context, id int64) (*domain.AnalysisResult, error) {
	res := new(domain.AnalysisResult)
	if err := s.db.NewSelect().Model(res).Where("ar.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "result %d", id)
	}
	return res, nil
}

func (s *PostgresStore) UpsertSighting(ctx context.Context, key domain.IdentityKey, now time.Time) (*domain.CustomerIdentity, error) {
	row := domain.NewSighting(key, now)
	if err := s.sightingQuery(row).Scan(ctx); err != nil {
		return nil, fmt.Errorf("upsert identity sighting: %w", err)
	}
	return row, nil
}

// A sighting of a known key only touches last_seen_at; the returned row carries the
// existing customer id and trust level.
func (s *PostgresStore) sightingQuery(row *domain.CustomerIdentity) *bun.InsertQuery {
	return s.db.NewInsert().
		Model(row).
		On(identityConflict).
		Set("last_seen_at = EXCLUDED.last_seen_at").
		Returning("*")
}

func (s *PostgresStore) FindIdentity(ctx context.Context, key domain.IdentityKey) (*domain.CustomerIdentity, error) {
	row := new(domain.CustomerIdentity)
	err := s.db.NewSelect().
		Model(row).
		Where("ci.brand_id = ?", key.BrandID).
		Where("ci.channel_type = ?", key.ChannelType).
		Where("ci.platform_user_id = ?", key.PlatformUserID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "identity %s", key)
	}
	return row, nil
}

func (s *PostgresStore) LinkIdentity(
	ctx context.Context,
	key domain.IdentityKey,
	customerID uuid.UUID,
	level domain.TrustLevel,
	now time.Time,
) (*domain.CustomerIdentity, error) {
	row := domain.NewSighting(key, now)
	row.CustomerID = customerID
	row.TrustLevel = level
	row.VerifiedAt = &now

	if err := s.linkQuery(row).Scan(ctx); err != nil {
		return nil, fmt.Errorf("link identity: %w", err)
	}
	return row, nil
}

func (s *PostgresStore) linkQuery(row *domain.CustomerIdentity) *bun.InsertQuery {
	return s.db.NewInsert().
		Model(row).
		On(identityConflict).
		Set("customer_id = EXCLUDED.customer_id").
		Set("trust_level = EXCLUDED.trust_level").
		Set("last_seen_at = EXCLUDED.last_seen_at").
		Set("verified_at = EXCLUDED.verified_at").
		Returning("*")
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: "+format, append([]any{contractx.ErrNotFound}, args...)...)
	}
	return fmt.Errorf("select "+format+": %w", append(args, err)...)
}
