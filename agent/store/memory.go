package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

var _ contractx.Store = (*MemoryStore)(nil)

// MemoryStore is a process-local Store. Identity writes go through xsync's
// per-key Compute so racing sightings of one key produce a single row.
type MemoryStore struct {
	identities *xsync.MapOf[string, domain.CustomerIdentity]

	mu           sync.RWMutex
	brands       map[uuid.UUID]domain.Brand
	messages     map[int64]domain.SocialMessage
	results      map[int64]domain.AnalysisResult
	resultOwners map[int64]int64
	nextMessage  int64
	nextResult   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		identities:   xsync.NewMapOf[string, domain.CustomerIdentity](),
		brands:       make(map[uuid.UUID]domain.Brand),
		messages:     make(map[int64]domain.SocialMessage),
		results:      make(map[int64]domain.AnalysisResult),
		resultOwners: make(map[int64]int64),
	}
}

func (s *MemoryStore) PutBrand(b domain.Brand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brands[b.ID] = b
}

func (s *MemoryStore) GetBrand(_ context.Context, id uuid.UUID) (*domain.Brand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.brands[id]
	if !ok {
		return nil, fmt.Errorf("%w: brand %s", contractx.ErrNotFound, id)
	}
	return &b, nil
}

func (s *MemoryStore) SaveMessage(_ context.Context, msg *domain.SocialMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID != 0 {
		if _, ok := s.messages[msg.ID]; ok {
			return nil
		}
		if msg.ID > s.nextMessage {
			s.nextMessage = msg.ID
		}
	} else {
		s.nextMessage++
		msg.ID = s.nextMessage
	}
	s.messages[msg.ID] = *msg
	return nil
}

func (s *MemoryStore) GetMessage(_ context.Context, id int64) (*domain.SocialMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("%w: message %d", contractx.ErrNotFound, id)
	}
	return &msg, nil
}

func (s *MemoryStore) SaveResult(_ context.Context, res *domain.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resultOwners[res.MessageID]; ok {
		return fmt.Errorf("%w: message %d already has a result", contractx.ErrValidation, res.MessageID)
	}
	s.nextResult++
	res.ID = s.nextResult
	s.results[res.ID] = *res
	s.resultOwners[res.MessageID] = res.ID
	return nil
}

func (s *MemoryStore) UpdateResult(_ context.Context, res *domain.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.results[res.ID]
	if !ok {
		return fmt.Errorf("%w: result %d", contractx.ErrNotFound, res.ID)
	}
	cur.Status = res.Status
	cur.PublicClosingMessage = res.PublicClosingMessage
	s.results[res.ID] = cur
	return nil
}

func (s *MemoryStore) GetResult(_ context.Context, id int64) (*domain.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[id]
	if !ok {
		return nil, fmt.Errorf("%w: result %d", contractx.ErrNotFound, id)
	}
	return &res, nil
}

// ResultsForMessage returns every result stored for messageID.
func (s *MemoryStore) ResultsForMessage(messageID int64) []domain.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AnalysisResult
	for _, r := range s.results {
		if r.MessageID == messageID {
			out = append(out, r)
		}
	}
	return out
}

func (s *MemoryStore) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

func (s *MemoryStore) UpsertSighting(_ context.Context, key domain.IdentityKey, now time.Time) (*domain.CustomerIdentity, error) {
	row, _ := s.identities.Compute(key.String(), func(old domain.CustomerIdentity, loaded bool) (domain.CustomerIdentity, bool) {
		if !loaded {
			return *domain.NewSighting(key, now), false
		}
		old.LastSeenAt = now
		return old, false
	})
	return &row, nil
}

func (s *MemoryStore) FindIdentity(_ context.Context, key domain.IdentityKey) (*domain.CustomerIdentity, error) {
	row, ok := s.identities.Load(key.String())
	if !ok {
		return nil, fmt.Errorf("%w: identity %s", contractx.ErrNotFound, key)
	}
	return &row, nil
}

func (s *MemoryStore) LinkIdentity(
	_ context.Context,
	key domain.IdentityKey,
	customerID uuid.UUID,
	level domain.TrustLevel,
	now time.Time,
) (*domain.CustomerIdentity, error) {
	row, _ := s.identities.Compute(key.String(), func(old domain.CustomerIdentity, loaded bool) (domain.CustomerIdentity, bool) {
		if !loaded {
			old = *domain.NewSighting(key, now)
		}
		verified := now
		old.CustomerID = customerID
		old.TrustLevel = level
		old.LastSeenAt = now
		old.VerifiedAt = &verified
		return old, false
	})
	return &row, nil
}

// IdentityCount returns the number of identity rows.
func (s *MemoryStore) IdentityCount() int {
	return s.identities.Size()
}
