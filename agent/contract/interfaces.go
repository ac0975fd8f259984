package contract

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

type BrandStore interface {
	GetBrand(ctx context.Context, id uuid.UUID) (*domain.Brand, error)
}

type MessageStore interface {
	// SaveMessage inserts msg, assigning an id when zero. A message whose id already exists is reused as is.
	SaveMessage(ctx context.Context, msg *domain.SocialMessage) error
	GetMessage(ctx context.Context, id int64) (*domain.SocialMessage, error)
}

type ResultStore interface {
	SaveResult(ctx context.Context, res *domain.AnalysisResult) error
	UpdateResult(ctx context.Context, res *domain.AnalysisResult) error
	GetResult(ctx context.Context, id int64) (*domain.AnalysisResult, error)
}

// IdentityStore must enforce one row per natural key.
type IdentityStore interface {
	// UpsertSighting creates the identity as UNVERIFIED on first sighting, otherwise only bumps last_seen_at.
	UpsertSighting(ctx context.Context, key domain.IdentityKey, now time.Time) (*domain.CustomerIdentity, error)
	FindIdentity(ctx context.Context, key domain.IdentityKey) (*domain.CustomerIdentity, error)
	// LinkIdentity creates or overwrites the identity's customer id and trust level and stamps verified_at.
	LinkIdentity(ctx context.Context, key domain.IdentityKey, customerID uuid.UUID, level domain.TrustLevel, now time.Time) (*domain.CustomerIdentity, error)
}

type Store interface {
	BrandStore
	MessageStore
	ResultStore
	IdentityStore
}

type Agent interface {
	Run(ctx context.Context, req AgentRequest) (string, error)
}

type KnowledgeBase interface {
	Ingest(ctx context.Context, text string, metadata map[string]string) error
	Search(ctx context.Context, filter domain.RetrievalFilter, query string, k int) ([]Document, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, evt domain.AnalysisResultPublished) error
}

// MemoryRecorder accepts an interaction for asynchronous capture. It never blocks on the capture itself.
type MemoryRecorder interface {
	Record(msg domain.SocialMessage, res domain.AnalysisResult)
}

type IdentityResolver interface {
	Resolve(ctx context.Context, brandID uuid.UUID, platformUserID string, channel domain.ChannelType) (uuid.UUID, error)
	TrustLevel(ctx context.Context, brandID uuid.UUID, platformUserID string, channel domain.ChannelType) domain.TrustLevel
}
