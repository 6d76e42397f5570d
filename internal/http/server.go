package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"fanatitra/internal/auth"
	"fanatitra/internal/core"
	"fanatitra/internal/ledger"
	"fanatitra/internal/log"
	"fanatitra/internal/middleware/ratelimit"
	"fanatitra/internal/middleware/security"
	"fanatitra/internal/middleware/trace"
	"fanatitra/internal/stats"
)

// Directory is what the persons handlers need from the directory.
type Directory interface {
	Create(ctx context.Context, in core.NewContributor) (core.Contributor, error)
	Get(ctx context.Context, rawID string) (core.Contributor, error)
	List(ctx context.Context) ([]core.Contributor, error)
	Update(ctx context.Context, rawID string, patch core.ContributorPatch) (core.Contributor, error)
	Delete(ctx context.Context, rawID string) error
}

// Ledger is what the versements handlers need from the ledger.
type Ledger interface {
	Create(ctx context.Context, draft core.ContributionDraft) (core.Contribution, error)
	Get(ctx context.Context, rawID string) (core.Contribution, error)
	List(ctx context.Context, q ledger.Query) ([]core.Contribution, error)
	Update(ctx context.Context, rawID string, patch core.ContributionPatch) (core.Contribution, error)
	Delete(ctx context.Context, rawID string) error
}

// Stats serves the reporting views.
type Stats interface {
	ResolveToday(raw string) (core.Date, error)
	Summary(ctx context.Context, today core.Date) (stats.Totals, error)
	Monthly(ctx context.Context) ([]stats.MonthTotal, error)
	Top(ctx context.Context, n int) ([]stats.Ranked, error)
	Dashboard(ctx context.Context, today core.Date, recent int) (stats.Dashboard, error)
	DirectoryWithTotals(ctx context.Context) ([]stats.ContributorTotals, error)
	ContributorSummary(ctx context.Context, rawID string, period stats.Bucket, today core.Date) (stats.ContributorSummary, error)
}

// Pinger reports storage readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Directory Directory
	Ledger    Ledger
	Stats     Stats
	Auth      *auth.Service
	Store     Pinger
	Logger    *log.Logger
}

type Options struct {
	AuthRequired       bool
	RateLimitPerMinute int
	CORSAllowedOrigin  string
}

type Server struct {
	http.Server

	directory Directory
	ledger    Ledger
	stats     Stats
	auth      *auth.Service
	store     Pinger
	logger    *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
}

// NewServer wires the router. Call Shutdown to stop the limiter's cleanup
// loop along with the listener.
func NewServer(addr string, deps Deps, opts Options) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Nop()
	}
	s := &Server{
		directory: deps.Directory,
		ledger:    deps.Ledger,
		stats:     deps.Stats,
		auth:      deps.Auth,
		store:     deps.Store,
		logger:    logger.WithComponent(log.ComponentHTTP),
		detector:  security.NewDetector(logger),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	headers := security.DefaultHeadersConfig()
	headers.AllowedOrigin = opts.CORSAllowedOrigin

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(headers).Middleware)
	r.Use(s.detector.Middleware)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		plainFail(http.StatusNotFound, "route_not_found", "route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		plainFail(http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed").Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			plainFail(http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please try again later.").Write(w)
		}))

		r.Post("/auth/admin", s.handleAdminLogin)

		r.Group(func(r chi.Router) {
			if opts.AuthRequired && s.auth != nil {
				r.Use(s.auth.Middleware(func(w http.ResponseWriter, r *http.Request, msg string) {
					plainFail(http.StatusUnauthorized, "unauthorized", msg).Write(w)
				}))
			}

			r.Route("/persons", func(r chi.Router) {
				r.Get("/", s.handleListPersons)
				r.Post("/", s.handleCreatePerson)
				r.Get("/{id}", s.handleGetPerson)
				r.Patch("/{id}", s.handleUpdatePerson)
				r.Delete("/{id}", s.handleDeletePerson)
				r.Get("/{id}/summary", s.handlePersonSummary)
			})

			r.Route("/versements", func(r chi.Router) {
				r.Get("/", s.handleListVersements)
				r.Post("/", s.handleCreateVersement)
				r.Get("/{id}", s.handleGetVersement)
				r.Patch("/{id}", s.handleUpdateVersement)
				r.Delete("/{id}", s.handleDeleteVersement)
			})

			r.Route("/stats", func(r chi.Router) {
				r.Get("/summary", s.handleStatsSummary)
				r.Get("/monthly", s.handleStatsMonthly)
				r.Get("/top", s.handleStatsTop)
				r.Get("/dashboard", s.handleStatsDashboard)
			})
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown drains the listener and stops background loops.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}
