// Package server provides the HTTP REST API for candidate summary
// generation and the admin surface behind it.
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

	"cloud.google.com/go/firestore"

	"github.com/outstaffer/candidate-summary-api/internal/alpharun"
	"github.com/outstaffer/candidate-summary-api/internal/bulkjobs"
	"github.com/outstaffer/candidate-summary-api/internal/fireflies"
	"github.com/outstaffer/candidate-summary-api/internal/gmail"
	"github.com/outstaffer/candidate-summary-api/internal/llm"
	"github.com/outstaffer/candidate-summary-api/internal/pdf"
	"github.com/outstaffer/candidate-summary-api/internal/prompts"
	"github.com/outstaffer/candidate-summary-api/internal/quil"
	"github.com/outstaffer/candidate-summary-api/internal/recruitcrm"
	"github.com/outstaffer/candidate-summary-api/internal/server/ratelimit"
	"github.com/outstaffer/candidate-summary-api/internal/store"
	"github.com/outstaffer/candidate-summary-api/internal/summary"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server

	ats        *recruitcrm.Client
	interviews *alpharun.Client
	fireflies  *fireflies.Client
	llm        llm.Client
	prompts    prompts.Repository
	generator  *summary.Generator
	quil       *quil.Selector
	bulkStore  bulkjobs.Store
	bulkRunner *bulkjobs.Runner

	// store and gmail are nil when their credentials are not configured;
	// the endpoints that need them respond 500 with a config error.
	store *store.Store
	gmail *gmail.Service

	fs          *firestore.Client
	rateLimiter *ratelimit.Limiter
}

// Config holds server configuration
type Config struct {
	Port int

	RecruitCRMAPIKey string
	AlphaRunAPIKey   string
	FirefliesAPIKey  string
	GoogleAPIKey     string

	GmailClientID     string
	GmailClientSecret string

	// PromptStore selects the prompt backend: "firestore", "file" or
	// "memory" (embedded seeds, the default).
	PromptStore string
	PromptDir   string

	FirestoreProject string
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	ctx := context.Background()

	llmClient, err := llm.NewClient(ctx, llm.FromEnv(), cfg.GoogleAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	var fsClient *firestore.Client
	if cfg.FirestoreProject != "" {
		fsClient, err = firestore.NewClient(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Firestore: %w", err)
		}
	}

	repo, err := promptRepository(cfg, fsClient)
	if err != nil {
		return nil, err
	}

	s := &Server{
		ats:        recruitcrm.NewClient(cfg.RecruitCRMAPIKey),
		interviews: alpharun.NewClient(cfg.AlphaRunAPIKey),
		fireflies:  fireflies.NewClient(cfg.FirefliesAPIKey),
		llm:        llmClient,
		prompts:    repo,
		quil:       quil.NewSelector(llmClient),
		fs:         fsClient,
	}
	s.generator = summary.NewGenerator(llmClient, repo)
	s.bulkStore = bulkjobs.NewMemoryStore()
	s.bulkRunner = bulkjobs.NewRunner(s.bulkStore, s.ats, s.interviews, s.generator)

	if fsClient != nil {
		s.store = store.New(fsClient)
	}
	if cfg.GmailClientID != "" {
		s.gmail = gmail.NewService(cfg.GmailClientID, cfg.GmailClientSecret, pdf.NewRenderer())
	}

	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(s.routes()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for generation calls
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// promptRepository selects the configured prompt backend
func promptRepository(cfg Config, fsClient *firestore.Client) (prompts.Repository, error) {
	switch cfg.PromptStore {
	case "firestore":
		if fsClient == nil {
			return nil, fmt.Errorf("prompt store %q requires a Firestore project", cfg.PromptStore)
		}
		return prompts.NewFirestoreRepository(fsClient), nil
	case "file":
		repo, err := prompts.NewFileRepository(cfg.PromptDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load prompt directory: %w", err)
		}
		return repo, nil
	default:
		repo, err := prompts.NewMemoryRepository()
		if err != nil {
			return nil, fmt.Errorf("failed to load embedded prompts: %w", err)
		}
		return repo, nil
	}
}

// routes builds the request router
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/prompts", s.handleListPrompts)

	// Connection probes used by the UI before a generation run
	mux.HandleFunc("POST /api/test-candidate", s.handleTestCandidate)
	mux.HandleFunc("POST /api/test-job", s.handleTestJob)
	mux.HandleFunc("POST /api/test-interview", s.handleTestInterview)
	mux.HandleFunc("POST /api/test-fireflies", s.handleTestFireflies)
	mux.HandleFunc("POST /api/test-resume", s.handleTestResume)
	mux.HandleFunc("POST /api/test-quil", s.handleTestQuil)

	// Single-candidate generation and write-backs
	mux.HandleFunc("POST /api/generate-summary", s.handleGenerateSummary)
	mux.HandleFunc("POST /api/push-to-recruitcrm", s.handlePushToRecruitCRM)
	mux.HandleFunc("POST /api/create-note", s.handleCreateNote)
	mux.HandleFunc("POST /api/move-stage", s.handleMoveStage)
	mux.HandleFunc("POST /api/log-feedback", s.handleLogFeedback)

	// Bulk processing
	mux.HandleFunc("POST /api/bulk-process-job", s.handleBulkProcessJob)
	mux.HandleFunc("GET /api/bulk-job-status/{job_id}", s.handleBulkJobStatus)
	mux.HandleFunc("POST /api/generate-bulk-email", s.handleGenerateBulkEmail)
	mux.HandleFunc("GET /api/job-stages-with-counts/{job_slug}", s.handleJobStagesWithCounts)
	mux.HandleFunc("GET /api/candidates-in-stage/{job_slug}/{stage_id}", s.handleCandidatesInStage)

	// Multi-candidate generation
	mux.HandleFunc("POST /api/generate-multiple-candidates", s.handleGenerateMultipleCandidates)
	mux.HandleFunc("POST /api/process-curated-candidates", s.handleProcessCuratedCandidates)

	// Gmail draft creation
	mux.HandleFunc("POST /api/create-gmail-draft", s.handleCreateGmailDraft)

	// Admin surface
	mux.HandleFunc("GET /api/admin/prompts", s.handleAdminListPrompts)
	mux.HandleFunc("POST /api/admin/prompts", s.handleAdminCreatePrompt)
	mux.HandleFunc("GET /api/admin/prompts/{prompt_id}", s.handleAdminGetPrompt)
	mux.HandleFunc("PUT /api/admin/prompts/{prompt_id}", s.handleAdminUpdatePrompt)
	mux.HandleFunc("DELETE /api/admin/prompts/{prompt_id}", s.handleAdminDeletePrompt)
	mux.HandleFunc("POST /api/admin/prompts/{prompt_id}/set-default", s.handleAdminSetDefaultPrompt)
	mux.HandleFunc("GET /api/webhook-config", s.handleGetWebhookConfig)
	mux.HandleFunc("PUT /api/webhook-config", s.handleUpdateWebhookConfig)
	mux.HandleFunc("GET /api/summary-runs", s.handleSummaryRuns)

	return mux
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
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

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	if err := s.llm.Close(); err != nil {
		log.Printf("Error closing model client: %v", err)
	}
	if s.fs != nil {
		if err := s.fs.Close(); err != nil {
			log.Printf("Error closing Firestore client: %v", err)
		}
	}

	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

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
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
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

// adminError writes an error in the admin response shape
func (s *Server) adminError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]any{"success": false, "error": message})
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For would only be
// safe to honor behind a trusted proxy.
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

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
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
