package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// Server receives Cloud Tasks pushes and hands each task to the
// orchestrator. Cloud Tasks retries on 5xx, so permanent failures such as a
// deleted candidate come back as 4xx to stop the retry loop.
type Server struct {
	httpServer   *http.Server
	orchestrator *Orchestrator
}

// New creates the worker server on the given port.
func New(port string, orchestrator *Orchestrator) *Server {
	s := &Server{orchestrator: orchestrator}
	s.httpServer = &http.Server{
		Addr:    ":" + port,
		Handler: s.routes(),
		// A single task can spend two generation timeouts plus the post
		// actions, so the write timeout is generous.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start runs the worker until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[worker] listening on %s", s.httpServer.Addr)
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
		log.Printf("[worker] received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	// Cloud Tasks delivers to the function root. The handler owns the
	// method check so rejections come back as JSON.
	mux.HandleFunc("/", s.handleTask)
	return mux
}

// taskRequest is the payload the listener enqueued.
type taskRequest struct {
	CandidateSlug  string         `json:"candidate_slug"`
	JobSlug        string         `json:"job_slug"`
	WebhookPayload map[string]any `json:"webhook_payload"`
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[worker] panic while processing task: %v", rec)
			s.jsonResponse(w, http.StatusInternalServerError, map[string]any{
				"status":  "error",
				"message": "Internal server error",
				"error":   fmt.Sprint(rec),
			})
		}
	}()

	if r.Method != http.MethodPost {
		s.jsonResponse(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method Not Allowed"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid payload"})
		return
	}
	var task taskRequest
	if err := json.Unmarshal(body, &task); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid payload"})
		return
	}
	if task.CandidateSlug == "" || task.JobSlug == "" {
		s.jsonResponse(w, http.StatusBadRequest, map[string]any{
			"error":    "Missing required fields",
			"required": []string{"candidate_slug", "job_slug"},
		})
		return
	}

	meta := TaskMeta{
		CloudTaskID:  headerOr(r, "X-CloudTasks-TaskName", "unknown"),
		RetryAttempt: headerInt(r, "X-CloudTasks-TaskRetryCount"),
	}
	var updatedBy map[string]any
	if v, ok := task.WebhookPayload["updated_by"].(map[string]any); ok {
		updatedBy = v
	}

	success, message, run := s.orchestrator.ProcessTask(r.Context(), task.CandidateSlug, task.JobSlug, meta, updatedBy)
	if success {
		s.jsonResponse(w, http.StatusOK, map[string]any{
			"status":         "success",
			"message":        message,
			"candidate_slug": task.CandidateSlug,
			"job_slug":       task.JobSlug,
			"sources_used":   run["sources_used"],
			"summary_length": summaryLength(run),
		})
		return
	}

	// Missing records are permanent; everything else is worth a retry.
	status := http.StatusInternalServerError
	if strings.Contains(strings.ToLower(message), "not found") {
		status = http.StatusBadRequest
	}
	s.jsonResponse(w, status, map[string]any{
		"status":         "error",
		"message":        message,
		"candidate_slug": task.CandidateSlug,
		"job_slug":       task.JobSlug,
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[worker] failed to write response: %v", err)
	}
}

func headerOr(r *http.Request, key, def string) string {
	if v := r.Header.Get(key); v != "" {
		return v
	}
	return def
}

func headerInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.Header.Get(key))
	if err != nil {
		return 0
	}
	return n
}

func summaryLength(run map[string]any) int {
	gen, _ := run["generation"].(map[string]any)
	n, _ := gen["summary_length"].(int)
	return n
}
