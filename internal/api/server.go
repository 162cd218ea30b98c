// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wallet-watchdog/internal/adapter"
	"github.com/wallet-watchdog/internal/logging"
	"github.com/wallet-watchdog/internal/models"
	"github.com/wallet-watchdog/internal/service"
	"github.com/wallet-watchdog/internal/types"
)

// Service interfaces for dependency injection and testing

// ReportServiceInterface defines report generation operations
type ReportServiceInterface interface {
	BuildReport(ctx context.Context, email, address string, chain types.ChainID) (*models.WalletReport, error)
	GetReport(ctx context.Context, email, id string) (*models.WalletReport, error)
	ListReports(ctx context.Context, email string, limit int) ([]*models.WalletReport, error)
}

// WatchlistServiceInterface defines watchlist operations
type WatchlistServiceInterface interface {
	Add(ctx context.Context, email string, req service.AddRequest) (*models.WatchedWallet, error)
	List(ctx context.Context, email string, filter service.ListFilter) ([]*models.WatchedWallet, error)
	Summary(ctx context.Context, email string) (*service.AggregateView, error)
	UpdateTag(ctx context.Context, email, id string, tag types.OwnershipTag) error
	Remove(ctx context.Context, email, id string) error
	Reanalyze(ctx context.Context, email string) (*service.ReanalyzeResult, error)
	BulkUpload(ctx context.Context, email, content string) (*service.BulkResult, error)
	Compare(ctx context.Context, email string, ids []string) ([]service.ComparisonEntry, error)
}

// SubscriptionServiceInterface defines subscription operations
type SubscriptionServiceInterface interface {
	GetOrCreate(ctx context.Context, email string) (*models.UserSubscription, error)
	Upgrade(ctx context.Context, email string, planID types.PlanID) (*models.UserSubscription, error)
}

// AnalyticsServiceInterface defines business analytics operations
type AnalyticsServiceInterface interface {
	Summary(ctx context.Context, since time.Time) (*service.BusinessSummary, error)
	Daily(ctx context.Context, days int, now time.Time) ([]service.DailyPoint, error)
}

// CheckoutClient creates payment checkout sessions
type CheckoutClient interface {
	CreateCheckoutSession(ctx context.Context, email, planName string, amountCents int) (*adapter.CheckoutSession, error)
}

// CacheInterface defines the view cache used by read-heavy endpoints
type CacheInterface interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	AggregateKey(email string) string
	InvalidateUser(ctx context.Context, email string) error
}

// MetricsInterface records API usage events
type MetricsInterface interface {
	TrackAPICall(ctx context.Context, userEmail, endpoint string, costCents int64, responseTime time.Duration, success bool)
	TrackPayment(ctx context.Context, userEmail string, amountCents int64, transactionID string, success bool)
	TrackError(ctx context.Context, userEmail, where string, err error)
}

// Server represents the HTTP API server.
type Server struct {
	router          *mux.Router
	httpServer      *http.Server
	reportService   ReportServiceInterface
	watchlistSvc    WatchlistServiceInterface
	subscriptionSvc SubscriptionServiceInterface
	analyticsSvc    AnalyticsServiceInterface
	checkout        CheckoutClient
	cache           CacheInterface
	metrics         MetricsInterface
	config          *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	FreeTierRPS     int
	PaidTierRPS     int
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	reportService ReportServiceInterface,
	watchlistSvc WatchlistServiceInterface,
	subscriptionSvc SubscriptionServiceInterface,
	analyticsSvc AnalyticsServiceInterface,
	checkout CheckoutClient,
	cache CacheInterface,
	metrics MetricsInterface,
) *Server {
	s := &Server{
		router:          mux.NewRouter(),
		reportService:   reportService,
		watchlistSvc:    watchlistSvc,
		subscriptionSvc: subscriptionSvc,
		analyticsSvc:    analyticsSvc,
		checkout:        checkout,
		cache:           cache,
		metrics:         metrics,
		config:          config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.FreeTierRPS, s.config.PaidTierRPS)

	// Middleware order matters: logging wraps everything, rate limiting
	// runs after CORS so preflights are never throttled
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter, nil))
	s.router.Use(CompressionMiddleware)
	s.router.Use(s.usageMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Report endpoints
	api.HandleFunc("/reports", s.handleCreateReport).Methods("POST")
	api.HandleFunc("/reports", s.handleListReports).Methods("GET")
	api.HandleFunc("/reports/{id}", s.handleGetReport).Methods("GET")

	// Watchlist endpoints
	api.HandleFunc("/watchlist", s.handleAddToWatchlist).Methods("POST")
	api.HandleFunc("/watchlist", s.handleListWatchlist).Methods("GET")
	api.HandleFunc("/watchlist/summary", s.handleWatchlistSummary).Methods("GET")
	api.HandleFunc("/watchlist/reanalyze", s.handleReanalyze).Methods("POST")
	api.HandleFunc("/watchlist/bulk", s.handleBulkUpload).Methods("POST")
	api.HandleFunc("/watchlist/compare", s.handleCompare).Methods("POST")
	api.HandleFunc("/watchlist/{id}/tag", s.handleUpdateTag).Methods("PATCH")
	api.HandleFunc("/watchlist/{id}", s.handleRemoveFromWatchlist).Methods("DELETE")

	// Subscription and payment endpoints
	api.HandleFunc("/subscription", s.handleGetSubscription).Methods("GET")
	api.HandleFunc("/subscription/upgrade", s.handleUpgrade).Methods("POST")
	api.HandleFunc("/checkout", s.handleCheckout).Methods("POST")

	// Business analytics endpoints
	api.HandleFunc("/analytics/summary", s.handleAnalyticsSummary).Methods("GET")
	api.HandleFunc("/analytics/daily", s.handleAnalyticsDaily).Methods("GET")
}

// usageMiddleware records every API call as a usage metric, plus an error
// event for 5xx responses. Tracking never blocks the response path.
func (s *Server) usageMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.metrics.TrackAPICall(
			r.Context(),
			userEmail(r),
			r.URL.Path,
			0,
			time.Since(start),
			wrapped.statusCode < http.StatusBadRequest,
		)

		if wrapped.statusCode >= http.StatusInternalServerError {
			s.metrics.TrackError(
				r.Context(),
				userEmail(r),
				r.URL.Path,
				fmt.Errorf("request failed with status %d", wrapped.statusCode),
			)
		}
	})
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "wallet-watchdog",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.GetGlobalLogger().WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.GetGlobalLogger().Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
