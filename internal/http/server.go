package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"

	"tracker/internal/cache"
	"tracker/internal/charts"
	applog "tracker/internal/log"
	"tracker/internal/middleware/ratelimit"
	"tracker/internal/middleware/security"
	"tracker/internal/middleware/trace"
	"tracker/internal/services"
)

const cacheCleanupInterval = time.Minute

type Server struct {
	http.Server
	svc    *services.TransactionService
	charts *charts.Generator
	logger *applog.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	cacheManager     *cache.Manager

	metrics      appMetrics
	shutdownOnce sync.Once
}

type serverOptions struct {
	logger             *applog.Logger
	readTimeout        time.Duration
	writeTimeout       time.Duration
	corsAllowedOrigins []string
	rateLimitPerMinute int
}

type Option func(*serverOptions)

func WithLogger(logger *applog.Logger) Option {
	return func(o *serverOptions) { o.logger = logger }
}

func WithTimeouts(read, write time.Duration) Option {
	return func(o *serverOptions) {
		o.readTimeout = read
		o.writeTimeout = write
	}
}

// WithCORSOrigins sets the browser origins allowed to call the API.
func WithCORSOrigins(origins []string) Option {
	return func(o *serverOptions) { o.corsAllowedOrigins = origins }
}

// WithRateLimit sets how many write requests a client may send per minute.
func WithRateLimit(perMinute int) Option {
	return func(o *serverOptions) { o.rateLimitPerMinute = perMinute }
}

func NewServer(addr string, svc *services.TransactionService, opts ...Option) *Server {
	o := serverOptions{
		readTimeout:        10 * time.Second,
		writeTimeout:       10 * time.Second,
		corsAllowedOrigins: []string{"http://localhost:3000"},
		rateLimitPerMinute: ratelimit.DefaultConfig().RequestsPerMinute,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		svc:              svc,
		charts:           charts.NewGenerator(),
		logger:           o.logger.WithComponent(applog.ComponentHTTP),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: o.rateLimitPerMinute}),
		securityDetector: security.NewDetector(),
		cacheManager:     cache.NewManager(o.logger),
		metrics:          appMetrics{startedAt: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(o.logger, s.securityDetector.ExtractClientIP)

	if c := svc.Cache(); c != nil {
		s.cacheManager.Register("aggregates", c)
	}
	s.cacheManager.StartCleanup(cacheCleanupInterval)

	mux := http.NewServeMux()
	s.routes(mux)

	s.Addr = addr
	s.Handler = s.middleware(mux, o.corsAllowedOrigins)
	s.ReadTimeout = o.readTimeout
	s.WriteTimeout = o.writeTimeout
	s.ReadHeaderTimeout = 5 * time.Second
	s.IdleTimeout = 60 * time.Second

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	handle(mux, "GET /api/transactions", s.handleListTransactions)
	handle(mux, "POST /api/transactions", s.handleCreateTransaction)
	handle(mux, "GET /api/transactions/monthly_stats", s.handleMonthlyStats)
	handle(mux, "GET /api/transactions/current_month_summary", s.handleCurrentMonthSummary)
	handle(mux, "GET /api/transactions/{id}", s.handleGetTransaction)
	handle(mux, "PUT /api/transactions/{id}", s.handleReplaceTransaction)
	handle(mux, "PATCH /api/transactions/{id}", s.handlePatchTransaction)
	handle(mux, "DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	handle(mux, "GET /api/categories", s.handleCategories)

	mux.HandleFunc("GET /api/transactions/monthly_chart.png", s.handleMonthlyChart)
	mux.HandleFunc("GET /api/transactions/balance_chart.png", s.handleBalanceChart)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
}

// handle registers pattern both without and with a trailing slash.
func handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, h)
	mux.HandleFunc(pattern+"/{$}", h)
}

// middleware wraps the router, outermost first: tracing, security headers,
// suspicious request logging, CORS and rate limiting of writes.
func (s *Server) middleware(next http.Handler, origins []string) http.Handler {
	h := s.limitWrites(next)

	h = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{trace.HeaderRequestID, "Retry-After", "Location"},
		MaxAge:         600,
	}).Handler(h)

	h = s.securityDetector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return s.traceMiddleware.Middleware(h)
}

// limitWrites applies the per-client rate limit to mutating methods only.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimited)(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			limited.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		"retry_after", w.Header().Get("Retry-After"))
	TooManyRequestsError().Write(w)
}

// Shutdown stops background workers and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		s.cacheManager.Stop()
	})
	return s.Server.Shutdown(ctx)
}

// ListenAndServe serves until Shutdown is called. http.ErrServerClosed is
// not reported as an error.
func (s *Server) ListenAndServe() error {
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
