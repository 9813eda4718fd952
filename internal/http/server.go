package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"finanzas/internal/auth"
	"finanzas/internal/log"
	"finanzas/internal/middleware/ratelimit"
	"finanzas/internal/middleware/security"
	"finanzas/internal/middleware/trace"
	"finanzas/internal/services"
)

// ReadinessCheck is one dependency probed by /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(context.Context) error
}

// Deps are the services the API fronts.
type Deps struct {
	Accounts      *services.AccountService
	Categories    *services.CategoryService
	Goals         *services.GoalService
	Subscriptions *services.SubscriptionService
	Transactions  *services.TransactionService
	Summary       *services.SummaryService
	Auth          auth.Authenticator
	Ready         []ReadinessCheck
}

type Options struct {
	// HideForeignResources answers 404 instead of 403 for records owned by
	// someone else.
	HideForeignResources bool
	RateLimit            ratelimit.Config
	TrustedProxies       []string
	Logger               *log.Logger
	// Now is the clock used for request defaults such as the current month.
	Now func() time.Time
}

type Server struct {
	http.Server
	deps        Deps
	hideForeign bool
	now         func() time.Time
	started     time.Time
	logger      *log.Logger

	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

type ownerKey struct{}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps, opts Options) (*Server, error) {
	if deps.Auth == nil {
		return nil, errors.New("http server requires an authenticator")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	detector, err := security.NewDetector(opts.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	s := &Server{
		deps:        deps,
		hideForeign: opts.HideForeignResources,
		now:         now,
		started:     now(),
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: ratelimit.NewLimiter(opts.RateLimit),
		detector:    detector,
		tracer:      trace.NewMiddleware(detector.ExtractClientIP),
	}

	api := http.NewServeMux()
	s.routes(api)
	authed := s.withOwner(s.rateLimiter.Middleware(func(r *http.Request) string {
		return "owner:" + ownerFrom(r.Context())
	})(api))

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", s.handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	root.Handle("/", authed)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = root
	handler = s.detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /transactions", s.handleListTransactions)
	mux.HandleFunc("GET /transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /accounts", s.handleListAccounts)
	mux.HandleFunc("GET /accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PUT /accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /accounts/{id}", s.handleDeleteAccount)

	mux.HandleFunc("POST /categories", s.handleCreateCategory)
	mux.HandleFunc("GET /categories", s.handleListCategories)
	mux.HandleFunc("DELETE /categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("POST /goals", s.handleCreateGoal)
	mux.HandleFunc("GET /goals", s.handleListGoals)
	mux.HandleFunc("GET /goals/{id}", s.handleGetGoal)
	mux.HandleFunc("PUT /goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("DELETE /goals/{id}", s.handleDeleteGoal)

	mux.HandleFunc("POST /subscriptions", s.handleCreateSubscription)
	mux.HandleFunc("GET /subscriptions", s.handleListSubscriptions)
	mux.HandleFunc("GET /subscriptions/{id}", s.handleGetSubscription)
	mux.HandleFunc("PUT /subscriptions/{id}", s.handleUpdateSubscription)
	mux.HandleFunc("DELETE /subscriptions/{id}", s.handleDeleteSubscription)
	mux.HandleFunc("POST /subscriptions/{id}/charge", s.handleChargeSubscription)

	mux.HandleFunc("GET /reports/monthly", s.handleMonthlyReport)
}

// withOwner authenticates the caller and stores the owner in the context.
func (s *Server) withOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, err := s.deps.Auth.Authenticate(r)
		if err != nil {
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).
				InfoContext(r.Context(), "Authentication failed", log.FieldError, err.Error())
			ErrorResponse(http.StatusUnauthorized, "unauthenticated", "authentication required").Write(w)
			return
		}
		ctx := context.WithValue(r.Context(), ownerKey{}, owner)
		ctx = log.WithOwner(ctx, owner)
		trace.SetLogContext(w, ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ownerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// Shutdown stops background work and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
