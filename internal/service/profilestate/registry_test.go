package profilestate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mennan0809/medtik-portal/internal/service/backend"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRegistryReturnsSameStorePerToken(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(backend.NewMockService(backend.CompleteProfile()))

	a := r.Store("token-a")
	if _, err := a.LoadProfile(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Store(" token-a ") != a {
		t.Fatal("expected the same store for the same token")
	}
	b := r.Store("token-b")
	if b == a {
		t.Fatal("expected distinct stores for distinct tokens")
	}
	if _, err := b.LoadProfile(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 stores, got %d", r.Len())
	}
}

func TestRegistryRegistersOnlyConfirmedTokens(t *testing.T) {
	ctx := context.Background()
	svc := backend.NewMockService(backend.CompleteProfile())
	svc.SetGetErr(&backend.Error{Status: 401, Message: "Invalid token"})
	r := NewRegistry(svc)

	for _, token := range []string{"forged-1", "forged-2", "forged-3"} {
		s := r.Store(token)
		if _, err := s.LoadProfile(ctx, false); err == nil {
			t.Fatalf("expected %s to be rejected", token)
		}
	}
	if r.Len() != 0 {
		t.Fatalf("rejected tokens must not be registered, got %d", r.Len())
	}

	// An unloaded store is request-scoped: asking again yields a new one.
	if r.Store("forged-1") == r.Store("forged-1") {
		t.Fatal("expected unregistered tokens to get fresh stores")
	}

	svc.SetGetErr(nil)
	s := r.Store("forged-1")
	if _, err := s.LoadProfile(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Len() != 1 || r.Store("forged-1") != s {
		t.Fatal("expected the store to be registered after a successful load")
	}
}

func TestRegistryRegistersOnUpdate(t *testing.T) {
	r := NewRegistry(backend.NewMockService(backend.CompleteProfile()))
	phone := "+20 111"

	s := r.Store("token-a")
	if _, err := s.UpdateProfile(context.Background(), backend.UpdatePayload{Phone: &phone}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Store("token-a") != s {
		t.Fatal("expected the updated store to be registered")
	}
}

func TestRegistryKeepsFirstConfirmedStore(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(backend.NewMockService(backend.CompleteProfile()))

	first, second := r.Store("token-a"), r.Store("token-a")
	for _, s := range []*Store{first, second} {
		if _, err := s.LoadProfile(ctx, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if r.Len() != 1 || r.Store("token-a") != first {
		t.Fatal("expected the first confirmed store to win")
	}
}

func TestRegistryStoresAreIsolated(t *testing.T) {
	svc := backend.NewMockService(backend.CompleteProfile())
	r := NewRegistry(svc)

	if _, err := r.Store("token-a").LoadProfile(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.LastToken() != "token-a" {
		t.Fatalf("expected token-a to reach the backend, got %q", svc.LastToken())
	}
	if st := r.Store("token-b").Snapshot(); st.Profile != nil || !st.Locked {
		t.Fatalf("expected token-b store to be empty, got %+v", st)
	}
}

func TestRegistryBlankTokenIsNotRegistered(t *testing.T) {
	svc := backend.NewMockService(backend.CompleteProfile())
	r := NewRegistry(svc)

	s := r.Store("  ")
	if r.Len() != 0 {
		t.Fatal("blank token must not be registered")
	}
	if _, err := s.LoadProfile(context.Background(), false); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if svc.GetCalls() != 0 {
		t.Fatal("expected no backend call")
	}
}

func TestRegistryForget(t *testing.T) {
	r := NewRegistry(backend.NewMockService(backend.CompleteProfile()))
	a := r.Store("token-a")
	if _, err := a.LoadProfile(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Forget("token-a")
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
	if r.Store("token-a") == a {
		t.Fatal("expected a fresh store after Forget")
	}
}

func TestRegistrySweepEvictsIdleStores(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	r := NewRegistry(
		backend.NewMockService(backend.CompleteProfile()),
		WithIdleTTL(30*time.Minute),
		WithRegistryClock(clock.Now),
	)

	if _, err := r.Store("idle").LoadProfile(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock.Advance(20 * time.Minute)
	active := r.Store("active")
	clock.Advance(15 * time.Minute)
	if _, err := active.LoadProfile(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if removed := r.Sweep(); removed != 1 {
		t.Fatalf("expected 1 eviction, got %d", removed)
	}
	if r.Len() != 1 || r.Store("active") != active {
		t.Fatal("expected the active store to survive")
	}
}

func TestRegistrySweepDisabledWithoutTTL(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	r := NewRegistry(backend.NewMockService(nil), WithRegistryClock(clock.Now))
	if _, err := r.Store("token").LoadProfile(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock.Advance(24 * time.Hour)
	if removed := r.Sweep(); removed != 0 || r.Len() != 1 {
		t.Fatalf("expected no eviction, removed=%d len=%d", removed, r.Len())
	}
}
