// Package server sets up the HTTP server and the tenant middleware chain.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/mbd888/tenantgate/internal/config"
	"github.com/mbd888/tenantgate/internal/health"
	"github.com/mbd888/tenantgate/internal/logging"
	"github.com/mbd888/tenantgate/internal/ratelimit"
	"github.com/mbd888/tenantgate/internal/tenant"
	"github.com/mbd888/tenantgate/internal/traces"
	"github.com/mbd888/tenantgate/internal/trust"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg       *config.Config
	store     tenant.Store
	directory *tenant.Directory
	resolver  *trust.Resolver
	limiter   *ratelimit.Limiter
	checks    *health.Registry
	db        *sql.DB       // nil if using in-memory store
	rdb       *redis.Client // nil if using in-process counters
	router    *gin.Engine
	httpSrv   *http.Server
	logger    *slog.Logger

	shutdownTraces func(context.Context) error

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStore sets a custom tenant store (for testing)
func WithStore(store tenant.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithLimiter sets a custom rate limiter (for testing)
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		checks: health.NewRegistry(),
		logger: logging.New(cfg.LogLevel, "json"),
	}

	// Apply options first (may set store/logger/limiter)
	for _, opt := range opts {
		opt(s)
	}

	// Tenant repository (Postgres if DATABASE_URL set, otherwise in-memory)
	if s.store == nil {
		if cfg.DatabaseURL != "" {
			db, err := sql.Open("postgres", cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("failed to open database: %w", err)
			}
			if err := db.Ping(); err != nil {
				return nil, fmt.Errorf("failed to connect to database: %w", err)
			}
			s.db = db
			s.store = tenant.NewPostgresStore(db)
			s.checks.Register("postgres", health.PostgresChecker(db))
			s.logger.Info("tenant store: postgres", "dsn", maskDSN(cfg.DatabaseURL))
		} else {
			s.store = tenant.NewMemoryStore()
			s.logger.Info("tenant store: in-memory (set DATABASE_URL for persistence)")
		}
	}

	s.directory = tenant.NewDirectory(s.store, tenant.WithTTL(cfg.CacheTTL))

	// Trust resolver
	verifier, err := trust.NewHMACTokenVerifier(cfg.JWTSecret, cfg.RequireTenantClaim)
	if err != nil {
		return nil, err
	}
	resolver, err := trust.NewResolver(trust.ResolverConfig{
		Mode:            trust.Mode(cfg.TrustMode),
		Verifier:        verifier,
		HeaderSecret:    cfg.TenantHeaderSecret,
		TrustedNetworks: cfg.TrustedNetworks,
		Logger:          s.logger,
	})
	if err != nil {
		return nil, err
	}
	s.resolver = resolver
	s.logger.Info("trust resolution configured", "mode", cfg.TrustMode)

	// Rate-limit counter store (Redis if REDIS_URL set, otherwise in-process)
	if s.limiter == nil {
		if cfg.RedisURL != "" {
			redisOpts, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
			}
			s.rdb = redis.NewClient(redisOpts)
			s.limiter = ratelimit.New(ratelimit.NewRedisStore(s.rdb))
			s.checks.Register("redis", health.RedisChecker(s.rdb))
			s.logger.Info("rate limit counters: redis")
		} else {
			s.limiter = ratelimit.New(ratelimit.NewMemoryStore(nil))
			s.logger.Info("rate limit counters: in-process (set REDIS_URL for fleet-wide limits)")
		}
	}

	// Configure gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	// Forwarded-for headers are believed only from explicitly listed proxies.
	// With none configured, ClientIP() is the peer address, so a caller
	// cannot forge its way into the trusted perimeter.
	if err := s.router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s, nil
}

// maskDSN hides password in connection string for logging
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	shutdownTraces, err := traces.Init(ctx, s.cfg.OTLPEndpoint, s.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	s.shutdownTraces = shutdownTraces

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port, "trust_mode", s.cfg.TrustMode)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	// Wait for shutdown signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http shutdown error", "error", err)
		}
	}
	if s.shutdownTraces != nil {
		if err := s.shutdownTraces(shutdownCtx); err != nil {
			s.logger.Error("trace shutdown error", "error", err)
		}
	}
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			s.logger.Error("redis close error", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		}
	}

	s.logger.Info("server stopped")
	return nil
}
