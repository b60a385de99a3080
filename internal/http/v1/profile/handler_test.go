package profile

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mennan0809/medtik-portal/internal/gate"
	"github.com/mennan0809/medtik-portal/internal/platform/auth"
	applog "github.com/mennan0809/medtik-portal/internal/platform/logging"
	appmiddleware "github.com/mennan0809/medtik-portal/internal/platform/middleware"
	"github.com/mennan0809/medtik-portal/internal/platform/respond"
	"github.com/mennan0809/medtik-portal/internal/service/backend"
	"github.com/mennan0809/medtik-portal/internal/service/profilestate"
)

type testEnv struct {
	router   chi.Router
	svc      *backend.MockService
	registry *profilestate.Registry
	logs     *observer.ObservedLogs
}

func newTestEnv(profile *backend.DoctorProfile, verifier auth.Verifier) *testEnv {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	svc := backend.NewMockService(profile)
	registry := profilestate.NewRegistry(svc)

	router := chi.NewRouter()
	router.Use(
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(applog.ContextWithLogger(r.Context(), logger)))
			})
		},
		respond.Recoverer(),
	)
	api := humachi.New(router, huma.DefaultConfig("DoctorProfileTest", "test"))
	api.UseMiddleware(auth.NewAuthMiddleware(api, verifier))
	Register(api, registry, gate.New())

	return &testEnv{router: router, svc: svc, registry: registry, logs: logs}
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer doctor-token")
	req.Header.Set(chimiddleware.RequestIDHeader, "doctor-profile-test")
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func lockedProfile() *backend.DoctorProfile {
	p := backend.CompleteProfile()
	p.Bio = ""
	p.Availability = &backend.Availability{}
	return p
}

func decodeState(t *testing.T, resp *httptest.ResponseRecorder) ProfileState {
	t.Helper()
	var st ProfileState
	if err := json.Unmarshal(resp.Body.Bytes(), &st); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	return st
}

func TestGetProfileComplete(t *testing.T) {
	env := newTestEnv(backend.CompleteProfile(), &auth.MockVerifier{})

	resp := env.do(http.MethodGet, "/v1/doctor/profile", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	st := decodeState(t, resp)
	if st.Locked || len(st.Missing) != 0 {
		t.Fatalf("expected unlocked profile, got %+v", st)
	}
	if st.Profile == nil || st.Profile.ID != 42 || len(st.Profile.Pricing) != 3 {
		t.Fatalf("unexpected profile %+v", st.Profile)
	}
	if env.svc.LastToken() != "doctor-token" {
		t.Fatalf("expected session token to reach the backend, got %q", env.svc.LastToken())
	}
}

func TestGetProfileUsesCacheUnlessForced(t *testing.T) {
	env := newTestEnv(backend.CompleteProfile(), &auth.MockVerifier{})

	env.do(http.MethodGet, "/v1/doctor/profile", "")
	env.do(http.MethodGet, "/v1/doctor/profile", "")
	if env.svc.GetCalls() != 1 {
		t.Fatalf("expected 1 fetch, got %d", env.svc.GetCalls())
	}

	env.do(http.MethodGet, "/v1/doctor/profile?force=true", "")
	if env.svc.GetCalls() != 2 {
		t.Fatalf("expected forced fetch, got %d calls", env.svc.GetCalls())
	}
}

func TestGetProfileLockedListsMissing(t *testing.T) {
	env := newTestEnv(lockedProfile(), &auth.MockVerifier{})

	st := decodeState(t, env.do(http.MethodGet, "/v1/doctor/profile", ""))
	if !st.Locked {
		t.Fatal("expected locked profile")
	}
	want := []string{profilestate.ItemBio, profilestate.ItemAvailability}
	if strings.Join(st.Missing, "|") != strings.Join(want, "|") {
		t.Fatalf("expected missing %v, got %v", want, st.Missing)
	}
}

func TestGetProfileBackendErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"unauthorized", &backend.Error{Status: 401, Message: "Token expired"}, http.StatusUnauthorized, "Token expired"},
		{"forbidden", &backend.Error{Status: 403, Message: "Forbidden"}, http.StatusUnauthorized, "Forbidden"},
		{"not found", &backend.Error{Status: 404, Message: "Doctor not found"}, http.StatusNotFound, "Doctor not found"},
		{"server error", &backend.Error{Status: 500}, http.StatusBadGateway, backend.FallbackProfileMessage},
		{"transport", &backend.Error{Status: 0, Message: "connection refused"}, http.StatusBadGateway, "connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(nil, &auth.MockVerifier{})
			env.svc.SetGetErr(tt.err)

			resp := env.do(http.MethodGet, "/v1/doctor/profile", "")
			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, resp.Code, resp.Body.String())
			}
			var problem huma.ErrorModel
			if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
				t.Fatalf("json unmarshal: %v", err)
			}
			if problem.Detail != tt.detail {
				t.Fatalf("expected detail %q, got %q", tt.detail, problem.Detail)
			}
		})
	}
}

func TestProfileRequiresCredential(t *testing.T) {
	env := newTestEnv(backend.CompleteProfile(), &auth.MockVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/v1/doctor/profile", nil)
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if resp.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("expected WWW-Authenticate: Bearer, got %q", resp.Header().Get("WWW-Authenticate"))
	}
	if env.svc.GetCalls() != 0 {
		t.Fatal("expected no backend call")
	}
}

func TestProfileAcceptsSessionCookie(t *testing.T) {
	env := newTestEnv(backend.CompleteProfile(), &auth.MockVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/v1/doctor/profile", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "cookie-token"})
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if env.svc.LastToken() != "cookie-token" {
		t.Fatalf("expected cookie token, got %q", env.svc.LastToken())
	}
}

func TestProfileRejectsNonDoctor(t *testing.T) {
	verifier := &auth.MockVerifier{Session: &auth.Session{Role: auth.RolePatient, Subject: "7"}}
	env := newTestEnv(backend.CompleteProfile(), verifier)

	resp := env.do(http.MethodGet, "/v1/doctor/profile", "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestUpdateProfileUnlocks(t *testing.T) {
	env := newTestEnv(lockedProfile(), &auth.MockVerifier{})
	env.do(http.MethodGet, "/v1/doctor/profile", "")

	body := `{"bio":"Cardiologist","availability":{"chat":false,"voice":true,"video":false}}`
	resp := env.do(http.MethodPut, "/v1/doctor/profile", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	st := decodeState(t, resp)
	if st.Locked || st.Profile.Bio != "Cardiologist" || !st.Profile.Availability.Voice {
		t.Fatalf("unexpected state %+v", st)
	}

	payload := env.svc.LastPayload()
	if payload == nil || payload.Title != nil || payload.Bio == nil {
		t.Fatalf("expected only provided fields to be sent, got %+v", payload)
	}

	status := env.do(http.MethodGet, "/v1/doctor/profile/status", "")
	var ps ProfileStatus
	if err := json.Unmarshal(status.Body.Bytes(), &ps); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if ps.Locked {
		t.Fatal("expected cached status to be unlocked after update")
	}

	entries := env.logs.FilterMessage("Audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["audit.action"] != "update" || fields["audit.result"] != applog.AuditSuccess || fields["audit.actor"] != "42" {
		t.Fatalf("unexpected audit fields %v", fields)
	}
}

func TestUpdateProfileInvalidPayload(t *testing.T) {
	env := newTestEnv(lockedProfile(), &auth.MockVerifier{})

	resp := env.do(http.MethodPut, "/v1/doctor/profile", `{"languages":["English",""]}`)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.Code, resp.Body.String())
	}
	var problem huma.ErrorModel
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if len(problem.Errors) != 1 || problem.Errors[0].Location != "body.languages[1]" {
		t.Fatalf("unexpected error details %+v", problem.Errors)
	}
	if env.svc.UpdateCalls() != 0 {
		t.Fatal("expected no backend call for an invalid payload")
	}

	entries := env.logs.FilterMessage("Audit event").All()
	if len(entries) != 1 || entries[0].ContextMap()["audit.result"] != applog.AuditFailure {
		t.Fatalf("expected a failure audit entry, got %v", entries)
	}
}

func TestUpdateProfileSchemaValidation(t *testing.T) {
	env := newTestEnv(lockedProfile(), &auth.MockVerifier{})

	resp := env.do(http.MethodPut, "/v1/doctor/profile", `{"pricing":[{"service":"FAX","currency":"EGP","price":1}]}`)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUpdateProfileBackendRejects(t *testing.T) {
	env := newTestEnv(lockedProfile(), &auth.MockVerifier{})
	env.svc.UpdateErr = &backend.Error{Status: http.StatusBadRequest, Message: "Invalid department"}

	resp := env.do(http.MethodPut, "/v1/doctor/profile", `{"departmentId":9}`)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Invalid department") {
		t.Fatalf("expected backend message in body, got %s", resp.Body.String())
	}
}

func TestRefreshProfile(t *testing.T) {
	env := newTestEnv(lockedProfile(), &auth.MockVerifier{})
	env.do(http.MethodGet, "/v1/doctor/profile", "")
	env.svc.SetProfile(backend.CompleteProfile())

	resp := env.do(http.MethodPost, "/v1/doctor/profile/refresh", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if st := decodeState(t, resp); st.Locked {
		t.Fatal("expected refreshed profile to be unlocked")
	}
	if env.svc.GetCalls() != 2 {
		t.Fatalf("expected refresh to refetch, got %d calls", env.svc.GetCalls())
	}
}

func TestStatusNeverFetches(t *testing.T) {
	env := newTestEnv(backend.CompleteProfile(), &auth.MockVerifier{})

	resp := env.do(http.MethodGet, "/v1/doctor/profile/status", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var ps ProfileStatus
	if err := json.Unmarshal(resp.Body.Bytes(), &ps); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if !ps.Locked || ps.Loading || len(ps.Missing) != 10 {
		t.Fatalf("expected empty locked status, got %+v", ps)
	}
	if env.svc.GetCalls() != 0 {
		t.Fatal("status must not call the backend")
	}
}

func TestAccessCheck(t *testing.T) {
	tests := []struct {
		name     string
		profile  *backend.DoctorProfile
		query    string
		outcome  gate.Outcome
		location string
	}{
		{"unlocked", backend.CompleteProfile(), "path=settings", gate.Allowed, ""},
		{"locked profile page", lockedProfile(), "path=profile", gate.Allowed, ""},
		{"locked dashboard", lockedProfile(), "path=dashboard", gate.RedirectToProfile,
			gate.ProfileRedirect("/doctor/dashboard")},
		{"locked with url", lockedProfile(), "path=inbox&url=%2Fdoctor%2Finbox%3Fthread%3D3", gate.RedirectToProfile,
			gate.ProfileRedirect("/doctor/inbox?thread=3")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(tt.profile, &auth.MockVerifier{})
			resp := env.do(http.MethodGet, "/v1/doctor/access?"+tt.query, "")
			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
			}
			var d gate.Decision
			if err := json.Unmarshal(resp.Body.Bytes(), &d); err != nil {
				t.Fatalf("json unmarshal: %v", err)
			}
			if d.Outcome != tt.outcome || d.Location != tt.location {
				t.Fatalf("got %+v, want %s %q", d, tt.outcome, tt.location)
			}
		})
	}
}

func TestAccessCheckBackendFailure(t *testing.T) {
	env := newTestEnv(nil, &auth.MockVerifier{})
	env.svc.SetGetErr(&backend.Error{Status: 500})

	resp := env.do(http.MethodGet, "/v1/doctor/access?path=dashboard", "")
	var d gate.Decision
	if err := json.Unmarshal(resp.Body.Bytes(), &d); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if d.Outcome != gate.RedirectToLogin || d.Location != gate.LoginRedirect() {
		t.Fatalf("expected login redirect, got %+v", d)
	}
}
