package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mennan0809/medtik-portal/internal/config"
	"github.com/mennan0809/medtik-portal/internal/gate"
	"github.com/mennan0809/medtik-portal/internal/http/doctorarea"
	"github.com/mennan0809/medtik-portal/internal/http/health"
	"github.com/mennan0809/medtik-portal/internal/http/v1/routes"
	"github.com/mennan0809/medtik-portal/internal/http/v1/session"
	"github.com/mennan0809/medtik-portal/internal/platform/auth"
	"github.com/mennan0809/medtik-portal/internal/platform/logging"
	"github.com/mennan0809/medtik-portal/internal/platform/metrics"
	appmiddleware "github.com/mennan0809/medtik-portal/internal/platform/middleware"
	"github.com/mennan0809/medtik-portal/internal/platform/respond"
	"github.com/mennan0809/medtik-portal/internal/service/backend"
	"github.com/mennan0809/medtik-portal/internal/service/profilestate"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

const docsPath = "/api-docs"

// app holds the long-lived collaborators behind the HTTP surface.
type app struct {
	cfg      *config.Config
	backend  backend.Service
	verifier auth.Verifier
	registry *profilestate.Registry
	gate     *gate.Gate
	metrics  *prometheus.Registry
}

func newApp(cfg *config.Config, svc backend.Service, verifier auth.Verifier, reg *prometheus.Registry, m *metrics.PortalMetrics) *app {
	storeOpts := []profilestate.Option{profilestate.WithMetrics(m)}
	if cfg.ShareInflightFetches {
		storeOpts = append(storeOpts, profilestate.WithSharedFetches())
	}
	return &app{
		cfg:      cfg,
		backend:  svc,
		verifier: verifier,
		registry: profilestate.NewRegistry(svc,
			profilestate.WithIdleTTL(cfg.SessionIdleTTL),
			profilestate.WithStoreOptions(storeOpts...),
			profilestate.WithRegistryMetrics(m),
		),
		gate:    gate.New(gate.WithMetrics(m)),
		metrics: reg,
	}
}

func (a *app) routes() chi.Router {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	// Base middleware stack
	router.Use(
		appmiddleware.Security(appmiddleware.SecurityPolicy{
			SkipPaths:  []string{docsPath},
			HSTS:       a.cfg.CookieSecure,
			LogoutPath: session.LogoutPath,
		}),
		appmiddleware.Vary(),
		appmiddleware.CORS(a.cfg.AllowedOrigins...),
		appmiddleware.RequestID(),
		// RealIP trusts X-Real-IP / X-Forwarded-For; deploy behind a trusted proxy only.
		chimiddleware.RealIP,
		chimiddleware.RequestSize(1<<20), // 1 MB limit
		logging.RequestLogger(),
		logging.AccessLogger(),
		respond.Recoverer(),
	)

	router.Get("/health", health.Handler(Version))
	router.Handle("/metrics", promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}))
	doctorarea.New(a.registry, a.verifier, a.gate).Register(router)

	cfg := huma.DefaultConfig("Medtik Doctor Portal API", Version)
	cfg.DocsPath = docsPath
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  "Backend-issued token, sent as a bearer header or the medtik_token cookie.",
		},
	}
	api := humachi.New(router, cfg)

	// Advertise CBOR next to JSON for every request and response body.
	api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation,
		func(_ *huma.OpenAPI, op *huma.Operation) {
			if op.RequestBody != nil && op.RequestBody.Content != nil {
				if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
					op.RequestBody.Content["application/cbor"] = jsonContent
				}
			}
			for _, resp := range op.Responses {
				if resp.Content == nil {
					continue
				}
				if jsonContent, ok := resp.Content["application/json"]; ok {
					resp.Content["application/cbor"] = jsonContent
				}
			}
		},
	)

	routes.Register(api, routes.Deps{
		Backend:      a.backend,
		Verifier:     a.verifier,
		Registry:     a.registry,
		Gate:         a.gate,
		SecureCookie: a.cfg.CookieSecure,
	})
	return router
}

// sweepSessions evicts idle session stores until ctx is done.
func (a *app) sweepSessions(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.registry.Sweep(); n > 0 {
				logging.LogInfo(ctx, "evicted idle doctor sessions", zap.Int("count", n))
			}
		}
	}
}

func main() {
	defer func() {
		if err := logging.Sync(); err != nil {
			logging.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := logging.Err(); err != nil {
		logging.LogError(context.Background(), "logger init error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.LogError(context.Background(), "config load failed", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewPortalMetrics(reg)

	svc := backend.NewClient(
		&http.Client{Timeout: cfg.BackendTimeout},
		backend.WithBaseURL(cfg.BackendBaseURL),
		backend.WithMetrics(m),
	)
	a := newApp(cfg, svc, auth.NewJWTVerifier(cfg.JWTSecret), reg, m)
	if cfg.JWTSecret == "" {
		logging.LogWarn(context.Background(), "JWT_SECRET not set; token signatures are left to the backend")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.routes(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      cfg.BackendTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go a.sweepSessions(sweepCtx, cfg.SessionIdleTTL/2)

	listenErr := make(chan error, 1)
	go func() {
		logging.LogInfo(context.Background(), "server listening",
			zap.String("addr", srv.Addr), zap.String("backend", cfg.BackendBaseURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		logging.LogError(context.Background(), "listen failed", err, zap.String("addr", srv.Addr))
		os.Exit(1)
	case <-stop:
		logging.LogInfo(context.Background(), "shutdown signal received")
	}
	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.LogError(ctx, "server shutdown error", err)
	}
	logging.LogInfo(context.Background(), "server exited")
}
