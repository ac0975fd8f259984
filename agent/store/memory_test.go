package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

func TestMemoryStoreSaveMessageReusesExistingID(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	msg := &domain.SocialMessage{BrandID: uuid.New(), Content: "hello"}
	if err := s.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}
	if msg.ID == 0 {
		t.Fatal("SaveMessage() did not assign an id")
	}

	again := &domain.SocialMessage{ID: msg.ID, BrandID: msg.BrandID, Content: "changed"}
	if err := s.SaveMessage(ctx, again); err != nil {
		t.Fatalf("SaveMessage(existing) error = %v", err)
	}
	if s.MessageCount() != 1 {
		t.Fatalf("MessageCount() = %d, want 1", s.MessageCount())
	}
	got, err := s.GetMessage(ctx, msg.ID)
	if err != nil {
		t.Fatalf("GetMessage() error = %v", err)
	}
	if got.Content != "hello" {
		t.Fatalf("existing message was overwritten: %q", got.Content)
	}
}

func TestMemoryStoreResultIsOnePerMessage(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	first := &domain.AnalysisResult{MessageID: 1, Status: domain.StatusOpen}
	if err := s.SaveResult(ctx, first); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}
	second := &domain.AnalysisResult{MessageID: 1, Status: domain.StatusOpen}
	if err := s.SaveResult(ctx, second); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("SaveResult(duplicate) error = %v, want ErrValidation", err)
	}
}

func TestMemoryStoreUpdateUnknownResult(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	err := s.UpdateResult(context.Background(), &domain.AnalysisResult{ID: 42})
	if !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("UpdateResult() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreUpsertSightingKeepsCustomer(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()
	key := domain.IdentityKey{BrandID: uuid.New(), ChannelType: domain.ChannelTwitter, PlatformUserID: "@a"}

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	first, _ := s.UpsertSighting(ctx, key, t0)
	second, _ := s.UpsertSighting(ctx, key, t0.Add(time.Hour))

	if first.CustomerID != second.CustomerID {
		t.Fatalf("customer id changed: %s -> %s", first.CustomerID, second.CustomerID)
	}
	if !second.LastSeenAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("last seen not bumped: %v", second.LastSeenAt)
	}
	if !second.CreatedAt.Equal(t0) {
		t.Fatalf("created at changed: %v", second.CreatedAt)
	}
	if second.TrustLevel != domain.TrustUnverified || second.VerifiedAt != nil {
		t.Fatalf("sighting must not touch trust: %+v", second)
	}
}
