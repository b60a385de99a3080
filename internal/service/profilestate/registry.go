package profilestate

import (
	"strings"
	"sync"
	"time"

	"github.com/mennan0809/medtik-portal/internal/platform/auth"
	"github.com/mennan0809/medtik-portal/internal/platform/metrics"
	"github.com/mennan0809/medtik-portal/internal/service/backend"
)

// Registry hands out one Store per session token. A token is only registered once the
// backend has accepted it, so unverified tokens never accumulate.
type Registry struct {
	svc       backend.Service
	idleTTL   time.Duration
	now       func() time.Time
	metrics   *metrics.PortalMetrics
	storeOpts []Option

	mu     sync.Mutex
	stores map[string]*Store
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithIdleTTL sets how long an unused store survives Sweep. Zero disables eviction.
func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		r.idleTTL = ttl
	}
}

// WithStoreOptions applies opts to every store the registry creates.
func WithStoreOptions(opts ...Option) RegistryOption {
	return func(r *Registry) {
		r.storeOpts = append(r.storeOpts, opts...)
	}
}

// WithRegistryMetrics reports the number of live stores.
func WithRegistryMetrics(m *metrics.PortalMetrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithRegistryClock overrides time.Now for stores and sweeping.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates an empty registry backed by svc.
func NewRegistry(svc backend.Service, opts ...RegistryOption) *Registry {
	r := &Registry{
		svc:    svc,
		now:    time.Now,
		stores: make(map[string]*Store),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the registered store for token. Otherwise it returns a fresh store that
// registers itself after its first successful load or update. A blank token yields a
// store whose loads fail with ErrSessionExpired.
func (r *Registry) Store(token string) *Store {
	token = strings.TrimSpace(token)
	if token == "" {
		return r.newStore("", nil)
	}
	r.mu.Lock()
	s, ok := r.stores[token]
	r.mu.Unlock()
	if ok {
		return s
	}
	return r.newStore(token, func(s *Store) { r.register(token, s) })
}

func (r *Registry) newStore(token string, onConfirmed func(*Store)) *Store {
	opts := append([]Option{WithClock(r.now)}, r.storeOpts...)
	if onConfirmed != nil {
		opts = append(opts, withConfirmHook(onConfirmed))
	}
	return NewStore(r.svc, auth.StaticToken(token), opts...)
}

// register keeps the first confirmed store for token; later ones stay request-scoped.
func (r *Registry) register(token string, s *Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stores[token]; ok {
		return
	}
	r.stores[token] = s
	r.metrics.SetActiveSessions(len(r.stores))
}

// Forget drops the store for token, e.g. on logout.
func (r *Registry) Forget(token string) {
	token = strings.TrimSpace(token)
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, token)
	r.metrics.SetActiveSessions(len(r.stores))
}

// Sweep evicts stores idle for longer than the TTL and returns how many were removed.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for token, s := range r.stores {
		if s.LastUsed().Before(cutoff) {
			delete(r.stores, token)
			removed++
		}
	}
	r.metrics.SetActiveSessions(len(r.stores))
	return removed
}

// Len reports the number of registered stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
