package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dmarsh/docketmind/internal/agents"
	"github.com/dmarsh/docketmind/internal/billing"
	"github.com/dmarsh/docketmind/internal/config"
	"github.com/dmarsh/docketmind/internal/db"
	"github.com/dmarsh/docketmind/internal/llm"
	"github.com/dmarsh/docketmind/internal/processing"
	"github.com/dmarsh/docketmind/internal/report"
	"github.com/dmarsh/docketmind/internal/server/middleware"
	"github.com/dmarsh/docketmind/internal/server/ratelimit"
	"github.com/dmarsh/docketmind/internal/storage"
	"github.com/dmarsh/docketmind/internal/swarm"
)

// DBClient is the database surface the HTTP layer depends on, satisfied by
// *db.DB and by mocks in tests.
type DBClient interface {
	// Users
	CreateUser(ctx context.Context, name, email string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Documents
	CreateDocument(ctx context.Context, input *db.DocumentCreateInput) (*db.Document, error)
	GetDocument(ctx context.Context, ownerID, id uuid.UUID) (*db.Document, error)
	ListDocuments(ctx context.Context, ownerID uuid.UUID) ([]db.Document, error)
	GetAgentOutput(ctx context.Context, documentID uuid.UUID) (*db.AgentOutput, error)
	DeleteDocument(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
	DeleteDocumentsForOwner(ctx context.Context, ownerID uuid.UUID) ([]string, error)

	// Billing
	GetSubscription(ctx context.Context, userID uuid.UUID) (*db.Subscription, error)
	ListPayments(ctx context.Context, userID uuid.UUID) ([]db.Payment, error)
	UpsertSubscription(ctx context.Context, input *db.SubscriptionInput) error
	InsertPayment(ctx context.Context, userID uuid.UUID, providerEventID string, amountCents int64, currency, status string) error

	// Integrations
	UpsertIntegration(ctx context.Context, userID uuid.UUID, provider, externalID string) error
	ListIntegrations(ctx context.Context, userID uuid.UUID) ([]db.IntegrationConnection, error)
	DeleteIntegration(ctx context.Context, userID uuid.UUID, provider string) (bool, error)
}

// documentProcessor runs the structured three-persona processing flow.
type documentProcessor interface {
	Process(ctx context.Context, ownerID, documentID uuid.UUID, documentText string) (*processing.Result, error)
}

// swarmOrchestrator starts swarm runs and serves owner-scoped snapshots.
type swarmOrchestrator interface {
	Start(ownerID, documentID uuid.UUID, division agents.Division, documentText string) (uuid.UUID, error)
	Snapshot(ownerID, sessionID uuid.UUID) (*swarm.Session, error)
}

// reportBuilder assembles report payloads.
type reportBuilder interface {
	Build(ctx context.Context, ownerID, documentID uuid.UUID, opts report.Options) (*report.Payload, error)
}

// agentDispatcher routes input to a single agent persona.
type agentDispatcher interface {
	Dispatch(ctx context.Context, agentID, input string) (*agents.DispatchResult, error)
}

// webhookApplier applies verified billing events.
type webhookApplier interface {
	Apply(ctx context.Context, event *billing.Event) error
}

// Server is the docketmind HTTP server.
type Server struct {
	httpServer *http.Server

	db         DBClient
	blobs      storage.Store
	processor  documentProcessor
	swarms     swarmOrchestrator
	reports    reportBuilder
	dispatcher agentDispatcher
	events     webhookApplier

	webhookSecret  string
	maxUploadBytes int64

	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler
	validator   *validator.Validate
}

// New creates a server instance: database pool, Gemini client, blob store,
// and all domain services, wired to the configured environment.
func New(cfg *config.ServerConfig) (*Server, error) {
	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	llmClient, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	blobs, err := storage.NewFileStore(cfg.StorageDir, cfg.StorageBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob store: %w", err)
	}

	authConfig, err := config.NewAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create auth config: %w", err)
	}

	s := &Server{
		db:             database,
		blobs:          blobs,
		processor:      processing.New(database, llmClient),
		swarms:         swarm.NewOrchestrator(agents.NewDispatcher(llmClient)),
		reports:        report.New(database, llmClient),
		dispatcher:     agents.NewDispatcher(llmClient),
		events:         billing.NewProcessor(database),
		webhookSecret:  cfg.WebhookSecret,
		maxUploadBytes: cfg.MaxUploadBytes,
		rateLimiter:    ratelimit.NewLimiter(ratelimit.LoadConfig()),
		jwtService:     NewJWTService(authConfig),
		validator:      validator.New(),
	}
	s.userService = NewUserService(database, authConfig)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(s.routes()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // long enough for swarm SSE streams
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// routes builds the request mux. Authenticated routes are wrapped
// individually so public endpoints stay outside the JWT check.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	authed := middleware.Auth(s.jwtService.AsTokenValidator())
	protect := func(h http.HandlerFunc) http.Handler { return authed(h) }

	// Public
	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)
	mux.HandleFunc("POST /billing/webhook", s.handleBillingWebhook)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Account
	mux.Handle("GET /auth/me", protect(s.handleMe))
	mux.Handle("PUT /auth/password", protect(s.handleUpdatePassword))
	mux.Handle("DELETE /account", protect(s.handleDeleteAccount))

	// Documents
	mux.Handle("POST /documents", protect(s.handleUploadDocument))
	mux.Handle("GET /documents", protect(s.handleListDocuments))
	mux.Handle("GET /documents/{id}", protect(s.handleGetDocument))
	mux.Handle("DELETE /documents/{id}", protect(s.handleDeleteDocument))
	mux.Handle("DELETE /documents", protect(s.handleDeleteAllDocuments))
	mux.Handle("POST /documents/{id}/process", protect(s.handleProcessDocument))
	mux.Handle("POST /documents/{id}/extract", protect(s.handleExtractDocument))

	// Agents
	mux.Handle("GET /agents", protect(s.handleListAgents))
	mux.Handle("POST /agents/dispatch", protect(s.handleDispatchAgent))

	// Swarms
	mux.Handle("POST /swarms", protect(s.handleStartSwarm))
	mux.Handle("GET /swarms/{id}", protect(s.handleGetSwarm))
	mux.Handle("GET /swarms/{id}/stream", protect(s.handleStreamSwarm))

	// Reports
	mux.Handle("POST /reports", protect(s.handleGenerateReport))

	// Billing and integrations
	mux.Handle("GET /billing/subscription", protect(s.handleGetSubscription))
	mux.Handle("GET /integrations", protect(s.handleListIntegrations))
	mux.Handle("POST /integrations", protect(s.handleCreateIntegration))
	mux.Handle("DELETE /integrations/{provider}", protect(s.handleDeleteIntegration))

	return mux
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if database, ok := s.db.(*db.DB); ok {
		database.Close()
	}
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, healthResponse{Status: "ok", Time: time.Now().UTC()})
}

// handleMe returns the authenticated user's account.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := s.userService.GetUser(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, user)
}

// handleUpdatePassword changes the authenticated user's password.
func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	s.authHandler.UpdatePasswordWithUserID(w, r, userID)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier from the request.
// Uses the IP from RemoteAddr; X-Forwarded-For is deliberately ignored
// because it is spoofable without a trusted proxy.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}
	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
