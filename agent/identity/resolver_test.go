package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
	storex "github.com/tanpawarit/brand-intelligence-agent/agent/store"
)

func newTestResolver(t *testing.T, store contractx.IdentityStore) *Resolver {
	t.Helper()
	r, err := NewResolver(store)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	r.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestResolveIsIdempotent(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, storex.NewMemoryStore())
	ctx := context.Background()
	brand := uuid.New()

	first, err := r.Resolve(ctx, brand, "@angry", domain.ChannelTwitter)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	second, err := r.Resolve(ctx, brand, "@angry", domain.ChannelTwitter)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if first != second {
		t.Fatalf("Resolve() returned %s then %s", first, second)
	}
	if got := r.TrustLevel(ctx, brand, "@angry", domain.ChannelTwitter); got != domain.TrustUnverified {
		t.Fatalf("TrustLevel() = %s, want UNVERIFIED", got)
	}
}

func TestResolveSeparatesBrands(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, storex.NewMemoryStore())
	ctx := context.Background()

	a, err := r.Resolve(ctx, uuid.New(), "@same", domain.ChannelInstagram)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	b, err := r.Resolve(ctx, uuid.New(), "@same", domain.ChannelInstagram)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if a == b {
		t.Fatal("same user under two brands must get distinct customer ids")
	}
}

func TestResolveConcurrentCreatesOneRow(t *testing.T) {
	t.Parallel()

	store := storex.NewMemoryStore()
	r := newTestResolver(t, store)
	brand := uuid.New()

	const workers = 32
	ids := make([]uuid.UUID, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := r.Resolve(context.Background(), brand, "racer", domain.ChannelWhatsApp)
			if err != nil {
				t.Errorf("Resolve() error = %v", err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("racing resolves returned different ids: %s vs %s", ids[0], id)
		}
	}
	if store.IdentityCount() != 1 {
		t.Fatalf("IdentityCount() = %d, want 1", store.IdentityCount())
	}
}

func TestLinkMergesIdentity(t *testing.T) {
	t.Parallel()

	store := storex.NewMemoryStore()
	r := newTestResolver(t, store)
	ctx := context.Background()
	brand := uuid.New()

	primary, err := r.Resolve(ctx, brand, "5511999999999", domain.ChannelWhatsApp)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, err := r.Resolve(ctx, brand, "@secondary", domain.ChannelTwitter); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	row, err := r.Link(ctx, brand, primary, "@secondary", domain.ChannelTwitter, domain.TrustTrusted)
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	if row.VerifiedAt == nil {
		t.Fatal("Link() must stamp verified_at")
	}

	got, err := r.Resolve(ctx, brand, "@secondary", domain.ChannelTwitter)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != primary {
		t.Fatalf("linked identity resolves to %s, want %s", got, primary)
	}
	if lvl := r.TrustLevel(ctx, brand, "@secondary", domain.ChannelTwitter); lvl != domain.TrustTrusted {
		t.Fatalf("TrustLevel() = %s, want TRUSTED", lvl)
	}
	if store.IdentityCount() != 2 {
		t.Fatalf("IdentityCount() = %d, want 2", store.IdentityCount())
	}
}

func TestLinkCreatesMissingIdentity(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, storex.NewMemoryStore())
	ctx := context.Background()
	brand, customer := uuid.New(), uuid.New()

	if _, err := r.Link(ctx, brand, customer, "new@example.com", domain.ChannelEmail, domain.TrustBlocked); err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	if lvl := r.TrustLevel(ctx, brand, "new@example.com", domain.ChannelEmail); lvl != domain.TrustBlocked {
		t.Fatalf("TrustLevel() = %s, want BLOCKED", lvl)
	}
}

func TestLinkRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, storex.NewMemoryStore())
	_, err := r.Link(context.Background(), uuid.New(), uuid.Nil, "u", domain.ChannelEmail, domain.TrustTrusted)
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Link(nil customer) error = %v, want ErrValidation", err)
	}
	_, err = r.Link(context.Background(), uuid.New(), uuid.New(), "u", domain.ChannelEmail, "SUPER")
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Link(bad level) error = %v, want ErrValidation", err)
	}
}

type failingIdentityStore struct {
	contractx.IdentityStore
}

func (failingIdentityStore) FindIdentity(context.Context, domain.IdentityKey) (*domain.CustomerIdentity, error) {
	return nil, errors.New("connection refused")
}

func TestTrustLevelFailsOpen(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, failingIdentityStore{})
	if lvl := r.TrustLevel(context.Background(), uuid.New(), "u", domain.ChannelEmail); lvl != domain.TrustUnverified {
		t.Fatalf("TrustLevel() = %s, want UNVERIFIED", lvl)
	}
}
