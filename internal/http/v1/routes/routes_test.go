package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mennan0809/medtik-portal/internal/gate"
	"github.com/mennan0809/medtik-portal/internal/platform/auth"
	applog "github.com/mennan0809/medtik-portal/internal/platform/logging"
	appmiddleware "github.com/mennan0809/medtik-portal/internal/platform/middleware"
	"github.com/mennan0809/medtik-portal/internal/platform/respond"
	"github.com/mennan0809/medtik-portal/internal/service/backend"
	"github.com/mennan0809/medtik-portal/internal/service/profilestate"
)

func newTestRouter() chi.Router {
	router := chi.NewRouter()
	router.Use(
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		applog.RequestLogger(),
		respond.Recoverer(),
	)
	svc := backend.NewMockService(backend.CompleteProfile())
	api := humachi.New(router, huma.DefaultConfig("RoutesTest", "test"))
	Register(api, Deps{
		Backend:  svc,
		Verifier: &auth.MockVerifier{},
		Registry: profilestate.NewRegistry(svc),
		Gate:     gate.New(),
	})
	return router
}

func TestRegisterRoutesProfileIsProtected(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/doctor/profile", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "routes-profile")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestRegisterRoutesProfile(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/doctor/profile/status", nil)
	req.Header.Set("Authorization", "Bearer doctor-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestRegisterRoutesLoginIsPublic(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"email":"doctor@medtik.example","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRegisterRoutesCBOR(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/doctor/profile", nil)
	req.Header.Set("Authorization", "Bearer doctor-token")
	req.Header.Set("Accept", "application/cbor")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/cbor" {
		t.Fatalf("expected application/cbor, got %q", ct)
	}
}
