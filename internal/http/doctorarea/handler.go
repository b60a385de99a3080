// Package doctorarea serves the gated doctor area as JSON page descriptors.
package doctorarea

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mennan0809/medtik-portal/internal/gate"
	"github.com/mennan0809/medtik-portal/internal/platform/auth"
	"github.com/mennan0809/medtik-portal/internal/platform/logging"
	"github.com/mennan0809/medtik-portal/internal/platform/respond"
	"github.com/mennan0809/medtik-portal/internal/service/profilestate"
)

// DefaultPage is where /doctor lands.
const DefaultPage = "dashboard"

var pageTitles = map[string]string{
	"dashboard":     "Doctor Dashboard",
	"schedule":      "Schedule",
	"patients":      "Patients",
	"appointments":  "Appointments",
	"inbox":         "Inbox",
	"profile":       "Profile",
	"settings":      "Settings",
	"notifications": "Notifications",
	"help":          "Help & Support",
}

// Page describes a doctor area child route.
type Page struct {
	Page  string `json:"page"`
	Title string `json:"title"`
}

// Area resolves the caller's profile store and gates every child route.
type Area struct {
	registry *profilestate.Registry
	verifier auth.Verifier
	gate     *gate.Gate
}

// New creates the doctor area.
func New(registry *profilestate.Registry, verifier auth.Verifier, g *gate.Gate) *Area {
	return &Area{registry: registry, verifier: verifier, gate: g}
}

// Register mounts /doctor on router.
func (a *Area) Register(router chi.Router) {
	router.Route("/doctor", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			respond.WriteRedirect(w, req, "/doctor/"+DefaultPage, http.StatusFound)
		})
		r.With(knownPage, a.gate.Middleware(a.resolve, pageParam)).Get("/{page}", pageHandler)
	})
}

// resolve maps the request credential to its session store. Missing, unreadable or
// non-doctor credentials get an empty store, which the gate sends to login.
func (a *Area) resolve(r *http.Request) gate.ProfileSource {
	token, err := auth.TokenFromRequest(r)
	if err != nil {
		return a.registry.Store("")
	}
	session, err := a.verifier.Verify(r.Context(), token)
	if err != nil {
		logging.LogWarn(r.Context(), "doctor area: credential rejected", zap.Error(err))
		return a.registry.Store("")
	}
	if !session.IsDoctor() {
		logging.LogWarn(r.Context(), "doctor area: non-doctor session", zap.String("role", session.Role))
		return a.registry.Store("")
	}
	return a.registry.Store(token)
}

func pageParam(r *http.Request) string {
	return chi.URLParam(r, "page")
}

func knownPage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := pageTitles[pageParam(r)]; !ok {
			respond.NotFoundHandler()(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func pageHandler(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Page{Page: page, Title: pageTitles[page]})
}
