// Package worker executes queued summary-generation tasks. Each task drives
// the main API over HTTP the way a UI session would: probe the data sources,
// request generation, run the configured post-generation actions, and record
// the whole run in Firestore.
package worker

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/outstaffer/candidate-summary-api/internal/types"
)

// Version is stamped into the worker_metadata block of every run record.
const Version = "1.0.0"

// DefaultTargetStageID is the hiring stage candidates move to after a
// successful run when no stage is configured.
const DefaultTargetStageID = 726195

// RunConfig is the dynamic configuration for one run, resolved from the
// webhook_config document with hard fallbacks so a broken or missing
// document never blocks processing.
type RunConfig struct {
	UseQuil                 bool   `json:"use_quil" firestore:"use_quil"`
	IncludeFireflies        bool   `json:"include_fireflies" firestore:"include_fireflies"`
	ProceedWithoutInterview bool   `json:"proceed_without_interview" firestore:"proceed_without_interview"`
	AdditionalContext       string `json:"additional_context" firestore:"additional_context"`
	PromptType              string `json:"prompt_type" firestore:"prompt_type"`
	PushSummaryToCandidate  bool   `json:"push_summary_to_candidate" firestore:"push_summary_to_candidate"`
	CreateTrackingNote      bool   `json:"create_tracking_note" firestore:"create_tracking_note"`
	MoveToNextStage         bool   `json:"move_to_next_stage" firestore:"move_to_next_stage"`
	AutoPushDelaySeconds    int    `json:"auto_push_delay_seconds" firestore:"auto_push_delay_seconds"`
	TargetStageID           int    `json:"target_stage_id" firestore:"target_stage_id"`
}

// FallbackConfig is the configuration used when the webhook_config document
// cannot be read.
func FallbackConfig() RunConfig {
	return RunConfig{
		UseQuil:       true,
		PromptType:    "summary-for-platform-v2",
		TargetStageID: DefaultTargetStageID,
	}
}

// Store is the subset of the Firestore layer the worker needs. A nil Store
// runs on fallback configuration and skips audit persistence.
type Store interface {
	GetWebhookConfig(ctx context.Context) (map[string]any, error)
	LogRun(ctx context.Context, run map[string]any) (string, error)
}

// TaskMeta identifies the Cloud Tasks delivery that carried the job.
type TaskMeta struct {
	CloudTaskID  string
	RetryAttempt int
}

// Orchestrator runs the full pipeline for one queued task.
type Orchestrator struct {
	api   *Client
	store Store
}

// NewOrchestrator wires the API client and the audit store together.
func NewOrchestrator(api *Client, store Store) *Orchestrator {
	return &Orchestrator{api: api, store: store}
}

// ProcessTask runs the pipeline for one candidate/job pair: blocking record
// checks, optional source probes, generation, post-generation actions, then
// the audit write. The run is logged whether it succeeds or not, and the
// full run record is returned so the HTTP layer can answer Cloud Tasks.
func (o *Orchestrator) ProcessTask(ctx context.Context, candidateSlug, jobSlug string, meta TaskMeta, updatedBy map[string]any) (bool, string, map[string]any) {
	cfg := o.resolveConfig(ctx)
	log.Printf("[worker] processing %s/%s (prompt %s, task %s, attempt %d)",
		candidateSlug, jobSlug, cfg.PromptType, meta.CloudTaskID, meta.RetryAttempt)

	sources := &types.SourcesUsed{}
	tests := map[string]any{}
	run := map[string]any{
		"candidate_slug": candidateSlug,
		"job_slug":       jobSlug,
		"tests":          tests,
		"sources_used":   sources,
		"generation":     map[string]any{},
		"worker_metadata": map[string]any{
			"worker_version": Version,
			"triggered_by":   updatedBy,
			"cloud_task_id":  meta.CloudTaskID,
			"retry_attempt":  meta.RetryAttempt,
		},
		"config_used":    cfg,
		"post_actions":   map[string]any{"summary_push": nil, "note_creation": nil, "stage_move": nil},
		"prompt_sources": map[string]bool{},
		"success":        false,
		"prompt_id":      cfg.PromptType,
	}
	var triggeredBy string
	if updatedBy != nil {
		triggeredBy, _ = updatedBy["email"].(string)
		run["triggered_by_email"] = triggeredBy
	}

	// The candidate and job records are required; their probes block the
	// run so a bad slug fails fast without burning a generation call.
	candidateProbe := o.api.Probe(ctx, "/api/test-candidate", candidateSlug, jobSlug)
	tests["candidate_data"] = probeRecord(candidateProbe)
	if name := stringField(candidateProbe.Data, "candidate_name"); name != "" {
		run["candidate_name"] = name
	}
	if !candidateProbe.Success {
		run["generation"] = failedGeneration("Candidate data not found (blocking)")
		o.logRun(ctx, run)
		return false, "Candidate data not found", run
	}

	jobProbe := o.api.Probe(ctx, "/api/test-job", candidateSlug, jobSlug)
	tests["job_data"] = probeRecord(jobProbe)
	if name := stringField(jobProbe.Data, "job_name"); name != "" {
		run["job_name"] = name
	}
	if !jobProbe.Success {
		run["generation"] = failedGeneration("Job data not found (blocking)")
		o.logRun(ctx, run)
		return false, "Job data not found", run
	}

	// The optional probes are independent reads and run concurrently. A
	// failed probe only means that source is skipped.
	var resumeProbe, interviewProbe, quilProbe ProbeResult
	var g errgroup.Group
	g.Go(func() error {
		resumeProbe = o.api.Probe(ctx, "/api/test-resume", candidateSlug, jobSlug)
		return nil
	})
	g.Go(func() error {
		interviewProbe = o.api.Probe(ctx, "/api/test-interview", candidateSlug, jobSlug)
		return nil
	})
	g.Go(func() error {
		quilProbe = o.api.Probe(ctx, "/api/test-quil", candidateSlug, jobSlug)
		return nil
	})
	_ = g.Wait()

	tests["cv_data"] = probeRecord(resumeProbe)
	sources.Resume = resumeProbe.Success

	tests["ai_interview"] = probeRecord(interviewProbe)
	sources.AnnaAI = interviewProbe.Success

	quilRecord := probeRecord(quilProbe)
	if quilProbe.Success {
		// A Quil hit only counts when a concrete note matched the job.
		if id, ok := noteID(quilProbe.Data); ok {
			quilRecord["note_id"] = id
			sources.Quil = true
		}
	}
	tests["quil_interview"] = quilRecord

	log.Printf("[worker] sources for %s/%s: resume=%t anna_ai=%t quil=%t",
		candidateSlug, jobSlug, sources.Resume, sources.AnnaAI, sources.Quil)

	if !sources.AnnaAI && !sources.Quil && !cfg.ProceedWithoutInterview {
		run["generation"] = failedGeneration("No interview data found and proceeding without it is disabled")
		o.logRun(ctx, run)
		return false, "No interview data found", run
	}

	gen := o.api.Generate(ctx, candidateSlug, jobSlug, cfg)
	run["generation"] = generationRecord(gen)
	run["success"] = gen.Success

	// The generate endpoint reports which sources actually fed the prompt.
	// That report is authoritative, so it is merged over the probe view.
	if rawSources, ok := gen.Data["sources_used"].(map[string]any); ok {
		promptSources := make(map[string]bool, len(rawSources))
		for k, v := range rawSources {
			b, _ := v.(bool)
			promptSources[k] = b
		}
		run["prompt_sources"] = promptSources
		sources.Merge(types.SourcesUsed{
			Resume:    promptSources["resume"],
			AnnaAI:    promptSources["anna_ai"],
			Quil:      promptSources["quil"],
			Fireflies: promptSources["fireflies"],
		})
	}

	var summaryHTML string
	if gen.Success {
		summaryHTML = stringField(gen.Data, "html_summary")
		run["summary_html"] = summaryHTML
	}

	if gen.Success {
		post := run["post_actions"].(map[string]any)
		if cfg.PushSummaryToCandidate {
			res := o.api.PushSummary(ctx, candidateSlug, jobSlug, summaryHTML, triggeredBy)
			post["summary_push"] = res
			log.Printf("[worker] summary push: %s", res.Message)
		} else {
			log.Printf("[worker] summary push disabled, skipping")
		}
		if cfg.CreateTrackingNote {
			res := o.api.CreateNote(ctx, candidateSlug, jobSlug, noteText(run, *sources, updatedBy), triggeredBy)
			post["note_creation"] = res
			log.Printf("[worker] note creation: %s", res.Message)
		}
		if cfg.MoveToNextStage {
			if cfg.AutoPushDelaySeconds > 0 {
				// Any delay is applied by the stage endpoint, not here.
				log.Printf("[worker] stage move delay configured at %ds", cfg.AutoPushDelaySeconds)
			}
			res := o.api.MoveStage(ctx, candidateSlug, jobSlug, cfg.TargetStageID, triggeredBy)
			post["stage_move"] = res
			log.Printf("[worker] stage move: %s", res.Message)
		}
	}

	o.logRun(ctx, run)
	if gen.Success {
		return true, "Summary generated successfully", run
	}
	message := gen.Error
	if message == "" {
		message = "Unknown error"
	}
	return false, message, run
}

// resolveConfig loads the webhook configuration, falling back to hard
// defaults on any failure so the worker keeps processing.
func (o *Orchestrator) resolveConfig(ctx context.Context) RunConfig {
	cfg := FallbackConfig()
	if o.store == nil {
		return cfg
	}
	doc, err := o.store.GetWebhookConfig(ctx)
	if err != nil {
		log.Printf("[worker] webhook config read failed, using fallback: %v", err)
		return cfg
	}
	applyConfigDoc(&cfg, doc)
	if v, ok := doc["max_concurrent_tasks"]; ok {
		// Concurrency is a queue-level setting enforced by Cloud Tasks.
		log.Printf("[worker] config max_concurrent_tasks=%v", v)
	}
	return cfg
}

// applyConfigDoc overlays document fields onto cfg. The document stores the
// Fireflies toggle as use_fireflies and the prompt as default_prompt_id.
func applyConfigDoc(cfg *RunConfig, doc map[string]any) {
	cfg.UseQuil = boolOr(doc, "use_quil", cfg.UseQuil)
	cfg.IncludeFireflies = boolOr(doc, "use_fireflies", cfg.IncludeFireflies)
	cfg.ProceedWithoutInterview = boolOr(doc, "proceed_without_interview", cfg.ProceedWithoutInterview)
	cfg.AdditionalContext = stringOr(doc, "additional_context", cfg.AdditionalContext)
	cfg.PromptType = stringOr(doc, "default_prompt_id", cfg.PromptType)
	cfg.PushSummaryToCandidate = boolOr(doc, "push_summary_to_candidate", cfg.PushSummaryToCandidate)
	cfg.CreateTrackingNote = boolOr(doc, "create_tracking_note", cfg.CreateTrackingNote)
	cfg.MoveToNextStage = boolOr(doc, "move_to_next_stage", cfg.MoveToNextStage)
	cfg.AutoPushDelaySeconds = intOr(doc, "auto_push_delay_seconds", cfg.AutoPushDelaySeconds)
	cfg.TargetStageID = intOr(doc, "target_stage_id", cfg.TargetStageID)
}

// logRun persists the audit record. A write failure never fails the run.
func (o *Orchestrator) logRun(ctx context.Context, run map[string]any) {
	if o.store == nil {
		run["firestore_id"] = nil
		return
	}
	id, err := o.store.LogRun(ctx, run)
	if err != nil {
		log.Printf("[worker] audit write failed: %v", err)
		run["firestore_id"] = nil
		return
	}
	run["firestore_id"] = id
}

// noteText renders the plain-text tracking note summarizing a successful
// run.
func noteText(run map[string]any, sources types.SourcesUsed, updatedBy map[string]any) string {
	sourcesStr := "None"
	if names := sources.Names(); len(names) > 0 {
		sourcesStr = strings.Join(names, ", ")
	}
	trigger := "System"
	if updatedBy != nil {
		trigger = "Unknown"
		if email, ok := updatedBy["email"].(string); ok && email != "" {
			trigger = email
		}
	}
	return fmt.Sprintf(`🤖 AI Summary Run - Report
Status: Success
Candidate: %s
Job: %s
Prompt Used: %s
Sources Used: %s
Triggered by: %s

This is an automated note from the AI Summary Worker.`,
		stringOrDefault(run, "candidate_name", "N/A"),
		stringOrDefault(run, "job_name", "N/A"),
		stringOrDefault(run, "prompt_id", "unknown"),
		sourcesStr,
		trigger)
}

func probeRecord(p ProbeResult) map[string]any {
	return map[string]any{"success": p.Success, "error": nilIfEmpty(p.Error)}
}

func failedGeneration(msg string) map[string]any {
	return map[string]any{
		"success":          false,
		"summary_length":   0,
		"duration_seconds": 0,
		"error":            msg,
	}
}

func generationRecord(g GenerateResult) map[string]any {
	return map[string]any{
		"success":          g.Success,
		"summary_length":   g.SummaryLength,
		"duration_seconds": g.DurationSeconds,
		"error":            nilIfEmpty(g.Error),
		"data":             g.Data,
	}
}

// noteID extracts a usable Quil note id from a probe response.
func noteID(data map[string]any) (int, bool) {
	switch v := data["note_id"].(type) {
	case float64:
		if v != 0 {
			return int(v), true
		}
	case int:
		if v != 0 {
			return v, true
		}
	}
	return 0, false
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func stringOrDefault(m map[string]any, key, def string) string {
	if s := stringField(m, key); s != "" {
		return s
	}
	return def
}

func boolOr(doc map[string]any, key string, def bool) bool {
	if b, ok := doc[key].(bool); ok {
		return b
	}
	return def
}

func stringOr(doc map[string]any, key, def string) string {
	if s, ok := doc[key].(string); ok {
		return s
	}
	return def
}

func intOr(doc map[string]any, key string, def int) int {
	switch v := doc[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}
