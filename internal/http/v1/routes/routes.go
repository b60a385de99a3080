package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/mennan0809/medtik-portal/internal/gate"
	"github.com/mennan0809/medtik-portal/internal/http/v1/profile"
	"github.com/mennan0809/medtik-portal/internal/http/v1/session"
	"github.com/mennan0809/medtik-portal/internal/platform/auth"
	"github.com/mennan0809/medtik-portal/internal/service/backend"
	"github.com/mennan0809/medtik-portal/internal/service/profilestate"
)

// Deps are the collaborators shared by the /v1 handlers.
type Deps struct {
	Backend      backend.Service
	Verifier     auth.Verifier
	Registry     *profilestate.Registry
	Gate         *gate.Gate
	SecureCookie bool
}

// Register wires all /v1 routes into the provided API router.
func Register(api huma.API, deps Deps) {
	// Apply auth middleware for protected endpoints
	api.UseMiddleware(auth.NewAuthMiddleware(api, deps.Verifier))

	session.Register(api, deps.Backend, deps.Verifier, deps.Registry, deps.SecureCookie)
	profile.Register(api, deps.Registry, deps.Gate)
}
