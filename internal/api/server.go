// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/service"
)

// Service interfaces for dependency injection and testing

// WalletServiceInterface defines the interface for wallet analysis operations
type WalletServiceInterface interface {
	Analyze(ctx context.Context, in service.AnalyzeInput) (*service.AnalysisReport, error)
}

// UserStore defines the user persistence operations the API needs
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateWalletAddress(ctx context.Context, userID, address string) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// NoteStore defines the note persistence operations the API needs
type NoteStore interface {
	Create(ctx context.Context, note *models.Note) error
	ListByUser(ctx context.Context, userID string) ([]*models.Note, error)
	Delete(ctx context.Context, userID, noteID string) error
}

// Server represents the HTTP API server.
type Server struct {
	router        *mux.Router
	httpServer    *http.Server
	walletService WalletServiceInterface
	users         UserStore
	notes         NoteStore
	config        *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
}

// NewServer creates a new API server instance.
func NewServer(config *ServerConfig, walletService WalletServiceInterface, users UserStore, notes NoteStore) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		walletService: walletService,
		users:         users,
		notes:         notes,
		config:        config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)

	// Middleware order matters: logging wraps everything, CORS must run
	// before rate limiting so preflights are never throttled.
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         s.config.Host + ":" + s.config.Port,
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

	// Wallet analysis endpoints
	api.HandleFunc("/wallets/{address}/report", s.handleWalletReport).Methods("GET")
	api.HandleFunc("/wallets/{address}/ledger", s.handleWalletLedger).Methods("GET")
	api.HandleFunc("/wallets/{address}/valuation", s.handleWalletValuation).Methods("GET")
	api.HandleFunc("/wallets/{address}/activity", s.handleWalletActivity).Methods("GET")

	// User endpoints
	api.HandleFunc("/users", s.handleRegisterUser).Methods("POST")
	api.HandleFunc("/users/login", s.handleLogin).Methods("POST")
	api.HandleFunc("/users/{id}", s.handleGetUser).Methods("GET")
	api.HandleFunc("/users/{id}/wallet", s.handleUpdateWallet).Methods("PUT")

	// Note endpoints
	api.HandleFunc("/notes", s.handleCreateNote).Methods("POST")
	api.HandleFunc("/notes", s.handleListNotes).Methods("GET")
	api.HandleFunc("/notes/{id}", s.handleDeleteNote).Methods("DELETE")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "wallet-insight",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.WithField("addr", s.httpServer.Addr).Info("starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
