// Package gate decides whether a navigation into the doctor area may proceed.
package gate

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/mennan0809/medtik-portal/internal/platform/logging"
	"github.com/mennan0809/medtik-portal/internal/platform/metrics"
	"github.com/mennan0809/medtik-portal/internal/platform/respond"
	"github.com/mennan0809/medtik-portal/internal/service/backend"
)

// Outcome is the result of one gate evaluation.
type Outcome string

const (
	Allowed           Outcome = "ALLOWED"
	RedirectToProfile Outcome = "REDIRECT_TO_PROFILE"
	RedirectToLogin   Outcome = "REDIRECT_TO_LOGIN"
)

const (
	// ProfilePath is the child route that stays reachable while the profile is locked.
	ProfilePath = "profile"

	profileLocation = "/doctor/profile"
	loginLocation   = "/auth/login?reason=session-expired"
)

// Decision is an outcome plus the location to send the client to, if any.
type Decision struct {
	Outcome  Outcome `json:"outcome" doc:"Gate outcome" enum:"ALLOWED,REDIRECT_TO_PROFILE,REDIRECT_TO_LOGIN"`
	Location string  `json:"location,omitempty" doc:"Redirect target; empty when allowed"`
}

// ProfileSource is the part of a profile store the gate depends on.
type ProfileSource interface {
	LoadProfile(ctx context.Context, force bool) (*backend.DoctorProfile, error)
	IsProfileLocked(p *backend.DoctorProfile) bool
}

// Decide maps a lock state to a decision without any I/O.
func Decide(childPath, requestedURL string, locked bool) Decision {
	if !locked || childPath == ProfilePath {
		return Decision{Outcome: Allowed}
	}
	return Decision{
		Outcome:  RedirectToProfile,
		Location: ProfileRedirect(requestedURL),
	}
}

// ProfileRedirect builds the profile-completion location that returns to requestedURL.
func ProfileRedirect(requestedURL string) string {
	return profileLocation + "?reason=complete-profile&redirect=" + url.QueryEscape(requestedURL)
}

// LoginRedirect is the location used when the session cannot be resolved.
func LoginRedirect() string {
	return loginLocation
}

// Gate evaluates navigations. It keeps no per-request state.
type Gate struct {
	metrics *metrics.PortalMetrics
}

// Option configures a Gate.
type Option func(*Gate)

// WithMetrics counts decisions by outcome.
func WithMetrics(m *metrics.PortalMetrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

// New creates a Gate.
func New(opts ...Option) *Gate {
	g := &Gate{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate ensures the profile is loaded and decides. Any load failure sends the client to login.
func (g *Gate) Evaluate(ctx context.Context, source ProfileSource, childPath, requestedURL string) Decision {
	var d Decision
	p, err := source.LoadProfile(ctx, false)
	if err != nil {
		logging.LogWarn(ctx, "doctor area gate: profile unavailable",
			zap.String("path", childPath), zap.Error(err))
		d = Decision{Outcome: RedirectToLogin, Location: LoginRedirect()}
	} else {
		d = Decide(childPath, requestedURL, source.IsProfileLocked(p))
	}
	g.metrics.ObserveGateDecision(string(d.Outcome))
	return d
}

// Middleware gates every request it wraps. resolve returns the caller's profile source and
// childPath names the child route being entered. Redirects are written as 302 Found.
func (g *Gate) Middleware(
	resolve func(*http.Request) ProfileSource,
	childPath func(*http.Request) string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Evaluate(r.Context(), resolve(r), childPath(r), r.URL.RequestURI())
			if d.Outcome != Allowed {
				respond.WriteRedirect(w, r, d.Location, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
