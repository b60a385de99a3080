// Package profilestate caches a doctor's profile and its derived locked flag, one store per session.
package profilestate

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mennan0809/medtik-portal/internal/platform/auth"
	"github.com/mennan0809/medtik-portal/internal/platform/logging"
	"github.com/mennan0809/medtik-portal/internal/platform/metrics"
	"github.com/mennan0809/medtik-portal/internal/service/backend"
)

// State is one consistent view of the store. Profile is a private copy.
type State struct {
	Profile *backend.DoctorProfile
	Locked  bool
	Loading bool
}

// Store holds the last-known profile of one doctor session.
//
// Publishes are delivered to subscribers in order while holding a delivery lock, so a
// subscriber callback must not call back into the Store.
type Store struct {
	svc     backend.Service
	tokens  auth.TokenSource
	metrics *metrics.PortalMetrics
	now     func() time.Time

	shareFetches bool
	group        singleflight.Group
	onConfirmed  func(*Store)

	mu       sync.Mutex
	profile  *backend.DoctorProfile
	locked   bool
	inflight int
	lastUsed time.Time
	subs     map[uint64]func(State)
	nextSub  uint64

	notifyMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithSharedFetches makes concurrent non-forced loads share one backend request.
func WithSharedFetches() Option {
	return func(s *Store) {
		s.shareFetches = true
	}
}

// WithMetrics counts loads and updates.
func WithMetrics(m *metrics.PortalMetrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithClock overrides time.Now for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// withConfirmHook runs fn after every load or update the backend accepted.
func withConfirmHook(fn func(*Store)) Option {
	return func(s *Store) {
		s.onConfirmed = fn
	}
}

// NewStore creates an empty, locked store.
func NewStore(svc backend.Service, tokens auth.TokenSource, opts ...Option) *Store {
	s := &Store{
		svc:    svc,
		tokens: tokens,
		now:    time.Now,
		locked: true,
		subs:   make(map[uint64]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastUsed = s.now()
	return s
}

// LoadProfile returns the cached profile unless force is set or nothing is cached,
// in which case it fetches from the backend. A failed fetch leaves the cache untouched.
func (s *Store) LoadProfile(ctx context.Context, force bool) (*backend.DoctorProfile, error) {
	s.mu.Lock()
	s.lastUsed = s.now()
	if s.profile != nil && !force {
		p := s.profile.Clone()
		s.mu.Unlock()
		s.metrics.ObserveProfileFetch(metrics.ResultCached)
		return p, nil
	}
	s.mu.Unlock()

	token, ok := s.tokens.Token(ctx)
	if !ok {
		return nil, ErrSessionExpired
	}
	if !s.shareFetches || force {
		return s.fetch(ctx, token)
	}

	ch := s.group.DoChan(token, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), token)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*backend.DoctorProfile).Clone(), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("load profile: %w", ctx.Err())
	}
}

func (s *Store) fetch(ctx context.Context, token string) (*backend.DoctorProfile, error) {
	s.mu.Lock()
	s.inflight++
	s.unlockAndPublish()

	p, err := s.svc.GetProfile(ctx, token)

	s.mu.Lock()
	s.inflight--
	if err != nil {
		s.unlockAndPublish()
		s.metrics.ObserveProfileFetch(metrics.ResultFailure)
		logging.LogWarn(ctx, "doctor profile load failed", zap.Error(err))
		return nil, err
	}
	s.profile = p.Clone()
	s.locked = IsLocked(p)
	s.unlockAndPublish()
	s.metrics.ObserveProfileFetch(metrics.ResultSuccess)
	s.confirmed()
	return p, nil
}

// RefreshProfile drops the cache, publishes the empty locked state, then force-loads.
func (s *Store) RefreshProfile(ctx context.Context) (*backend.DoctorProfile, error) {
	s.mu.Lock()
	s.profile = nil
	s.locked = true
	s.unlockAndPublish()
	return s.LoadProfile(ctx, true)
}

// UpdateProfile sends payload to the backend and caches the returned profile.
func (s *Store) UpdateProfile(ctx context.Context, payload backend.UpdatePayload) (*backend.DoctorProfile, error) {
	token, ok := s.tokens.Token(ctx)
	if !ok {
		return nil, ErrSessionExpired
	}

	p, err := s.svc.UpdateProfile(ctx, token, payload)
	if err != nil {
		s.metrics.ObserveProfileUpdate(metrics.ResultFailure)
		return nil, err
	}

	s.mu.Lock()
	s.lastUsed = s.now()
	s.profile = p.Clone()
	s.locked = IsLocked(p)
	s.unlockAndPublish()
	s.metrics.ObserveProfileUpdate(metrics.ResultSuccess)
	s.confirmed()
	return p, nil
}

func (s *Store) confirmed() {
	if s.onConfirmed != nil {
		s.onConfirmed(s)
	}
}

// IsProfileLocked evaluates p without touching the cache or the network.
func (s *Store) IsProfileLocked(p *backend.DoctorProfile) bool {
	return IsLocked(p)
}

// Locked evaluates the cached profile.
func (s *Store) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return IsLocked(s.profile)
}

// Recompute re-derives the locked flag from the cached profile and publishes it.
func (s *Store) Recompute() {
	s.mu.Lock()
	s.locked = IsLocked(s.profile)
	s.unlockAndPublish()
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Subscribe registers fn and immediately delivers the current state to it.
// The returned function unsubscribes; calling it more than once is harmless.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	st := s.stateLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()
	fn(st)
	s.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// LastUsed reports when the store was last loaded or updated.
func (s *Store) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Store) stateLocked() State {
	return State{
		Profile: s.profile.Clone(),
		Locked:  s.locked,
		Loading: s.inflight > 0,
	}
}

// unlockAndPublish must be called with mu held. It takes the delivery lock before
// releasing mu so that deliveries happen in the same order as the state changes.
func (s *Store) unlockAndPublish() {
	st := s.stateLocked()
	ids := slices.Sorted(maps.Keys(s.subs))
	subs := make([]func(State), len(ids))
	for i, id := range ids {
		subs[i] = s.subs[id]
	}
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}
