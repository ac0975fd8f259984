package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Brand struct {
	bun.BaseModel `bun:"table:brands,alias:b"`

	ID                 uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name               string    `bun:"name,notnull" json:"name"`
	SystemInstructions string    `bun:"system_instructions" json:"systemInstructions,omitempty"`
}

type SocialMessage struct {
	bun.BaseModel `bun:"table:social_messages,alias:sm"`

	ID           int64       `bun:"id,pk,autoincrement" json:"id"`
	BrandID      uuid.UUID   `bun:"brand_id,type:uuid,notnull" json:"brandId"`
	CustomerID   *uuid.UUID  `bun:"customer_id,type:uuid" json:"customerId,omitempty"`
	ChannelType  ChannelType `bun:"channel_type,notnull" json:"channelType"`
	Content      string      `bun:"content,notnull" json:"content"`
	Platform     string      `bun:"platform" json:"platform"`
	PlatformUser string      `bun:"platform_user" json:"platformUser"`
	CapturedAt   time.Time   `bun:"captured_at,notnull" json:"capturedAt"`
}

// IdentityKey is the natural key of a CustomerIdentity.
type IdentityKey struct {
	BrandID        uuid.UUID
	ChannelType    ChannelType
	PlatformUserID string
}

var ErrInvalidIdentityKey = errors.New("invalid identity key")

func (k IdentityKey) Validate() error {
	if k.BrandID == uuid.Nil {
		return fmt.Errorf("%w: brand id is empty", ErrInvalidIdentityKey)
	}
	if strings.TrimSpace(k.PlatformUserID) == "" {
		return fmt.Errorf("%w: platform user id is empty", ErrInvalidIdentityKey)
	}
	if !k.ChannelType.Valid() {
		return fmt.Errorf("%w: channel type %q", ErrInvalidIdentityKey, k.ChannelType)
	}
	return nil
}

func (k IdentityKey) String() string {
	return k.BrandID.String() + "|" + string(k.ChannelType) + "|" + k.PlatformUserID
}

type CustomerIdentity struct {
	bun.BaseModel `bun:"table:customer_identities,alias:ci"`

	ID             uuid.UUID   `bun:"id,pk,type:uuid" json:"id"`
	CustomerID     uuid.UUID   `bun:"customer_id,type:uuid,notnull" json:"customerId"`
	BrandID        uuid.UUID   `bun:"brand_id,type:uuid,notnull" json:"brandId"`
	ChannelType    ChannelType `bun:"channel_type,notnull" json:"channelType"`
	PlatformUserID string      `bun:"platform_user_id,notnull" json:"platformUserId"`
	TrustLevel     TrustLevel  `bun:"trust_level,notnull" json:"trustLevel"`
	CreatedAt      time.Time   `bun:"created_at,notnull" json:"createdAt"`
	LastSeenAt     time.Time   `bun:"last_seen_at,notnull" json:"lastSeenAt"`
	VerifiedAt     *time.Time  `bun:"verified_at" json:"verifiedAt,omitempty"`
}

func (c *CustomerIdentity) Key() IdentityKey {
	return IdentityKey{BrandID: c.BrandID, ChannelType: c.ChannelType, PlatformUserID: c.PlatformUserID}
}

// NewSighting builds the identity row created on first sighting of a key.
func NewSighting(key IdentityKey, now time.Time) *CustomerIdentity {
	return &CustomerIdentity{
		ID:             uuid.New(),
		CustomerID:     uuid.New(),
		BrandID:        key.BrandID,
		ChannelType:    key.ChannelType,
		PlatformUserID: key.PlatformUserID,
		TrustLevel:     TrustUnverified,
		CreatedAt:      now,
		LastSeenAt:     now,
	}
}

// AnalysisResult is owned by the result side of the 1:1 relation; messages hold no back-reference.
type AnalysisResult struct {
	bun.BaseModel `bun:"table:analysis_results,alias:ar"`

	ID                   int64      `bun:"id,pk,autoincrement" json:"id"`
	MessageID            int64      `bun:"message_id,notnull,unique" json:"messageId"`
	BrandID              uuid.UUID  `bun:"brand_id,type:uuid,notnull" json:"brandId"`
	Sentiment            Sentiment  `bun:"sentiment,notnull" json:"sentiment"`
	Category             string     `bun:"category,notnull" json:"category"`
	Summary              string     `bun:"summary" json:"summary"`
	ConfidenceScore      float64    `bun:"confidence_score" json:"confidenceScore"`
	AnalyzedAt           time.Time  `bun:"analyzed_at,notnull" json:"analyzedAt"`
	RawAIResponse        string     `bun:"raw_ai_response,type:jsonb" json:"rawAiResponse"`
	PublicClosingMessage *string    `bun:"public_closing_message" json:"publicClosingMessage,omitempty"`
	Status               CaseStatus `bun:"status,notnull" json:"status"`
}

// NewAnalysisResult builds an OPEN result for msg, serializing the full analysis as the audit record.
func NewAnalysisResult(msg *SocialMessage, a Analysis, now time.Time) (*AnalysisResult, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}
	return &AnalysisResult{
		MessageID:       msg.ID,
		BrandID:         msg.BrandID,
		Sentiment:       a.Sentiment,
		Category:        a.Category,
		Summary:         a.Summary,
		ConfidenceScore: a.ConfidenceScore,
		AnalyzedAt:      now,
		RawAIResponse:   string(raw),
		Status:          StatusOpen,
	}, nil
}

// Analysis decodes the audit record back into the structured analysis.
func (r *AnalysisResult) Analysis() (Analysis, error) {
	var a Analysis
	if err := json.Unmarshal([]byte(r.RawAIResponse), &a); err != nil {
		return Analysis{}, fmt.Errorf("decode raw analysis: %w", err)
	}
	return a, nil
}

func (r *AnalysisResult) MarkInProgress() error {
	if err := checkTransition(r.Status, StatusInProgress); err != nil {
		return err
	}
	r.Status = StatusInProgress
	return nil
}

func (r *AnalysisResult) Resolve(closingMessage string) error {
	if err := checkTransition(r.Status, StatusResolved); err != nil {
		return err
	}
	r.PublicClosingMessage = &closingMessage
	r.Status = StatusResolved
	return nil
}
