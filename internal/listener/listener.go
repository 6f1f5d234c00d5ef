// Package listener receives RecruitCRM stage-change webhooks and forwards
// qualifying events to the summary worker queue. It is deliberately thin:
// inspect the stage, enqueue, acknowledge. All heavy lifting happens in the
// worker so the ATS never waits on generation.
package listener

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tidwall/gjson"

	"github.com/outstaffer/candidate-summary-api/internal/tasks"
)

// Server is the webhook listener HTTP server.
type Server struct {
	httpServer    *http.Server
	enqueuer      tasks.Enqueuer
	targetStageID int
}

// New creates a listener that enqueues a task whenever a candidate lands on
// targetStageID.
func New(port string, enqueuer tasks.Enqueuer, targetStageID int) *Server {
	s := &Server{
		enqueuer:      enqueuer,
		targetStageID: targetStageID,
	}
	s.httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start runs the listener until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[listener] listening on %s (target stage %d)", s.httpServer.Addr, s.targetStageID)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("[listener] received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// routes registers the webhook endpoint. The handler owns method checking so
// callers hitting it with the wrong verb get the JSON error the ATS retry
// logic expects rather than a plain-text 405.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWebhook)
	return mux
}

// taskPayload is what the worker receives from the queue. The full webhook
// body rides along untouched so the worker can pull updated_by and anything
// the ATS adds later without a listener redeploy.
type taskPayload struct {
	CandidateSlug  string          `json:"candidate_slug"`
	JobSlug        string          `json:"job_slug"`
	WebhookPayload json.RawMessage `json:"webhook_payload"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.jsonResponse(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method Not Allowed"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 || !gjson.ValidBytes(body) {
		log.Printf("[listener] rejecting request: no parseable JSON body")
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid payload"})
		return
	}

	// Webhooks fire for every pipeline transition; only the configured stage
	// triggers a summary run. Everything else is acknowledged and dropped so
	// the ATS never retries.
	stage := gjson.GetBytes(body, "status.status_id")
	if !stage.Exists() || int(stage.Int()) != s.targetStageID {
		log.Printf("[listener] skipping event: stage %q does not match target %d", stage.Raw, s.targetStageID)
		s.jsonResponse(w, http.StatusOK, map[string]string{"status": "skipped"})
		return
	}

	candidateSlug := gjson.GetBytes(body, "candidate_slug").String()
	jobSlug := gjson.GetBytes(body, "job_slug").String()
	if candidateSlug == "" || jobSlug == "" {
		log.Printf("[listener] stage matched but slugs missing (candidate=%q job=%q)", candidateSlug, jobSlug)
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "Missing candidate_slug or job_slug"})
		return
	}

	payload, err := json.Marshal(taskPayload{
		CandidateSlug:  candidateSlug,
		JobSlug:        jobSlug,
		WebhookPayload: json.RawMessage(body),
	})
	if err != nil {
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "Failed to enqueue task"})
		return
	}

	taskName, err := s.enqueuer.Enqueue(r.Context(), payload)
	if err != nil {
		log.Printf("[listener] enqueue failed for %s/%s: %v", candidateSlug, jobSlug, err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "Failed to enqueue task"})
		return
	}

	log.Printf("[listener] queued %s for %s/%s", taskName, candidateSlug, jobSlug)
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "queued"})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[listener] failed to encode response: %v", err)
	}
}
