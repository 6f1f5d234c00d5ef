// Package store persists operational state in Firestore: the webhook
// processing configuration, per-run audit records and user feedback on
// generated summaries.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	webhookConfigCollection = "webhook_config"
	webhookConfigDoc        = "default"
	runsCollection          = "candidate_summary_runs"
	feedbackCollection      = "feedback"
)

// ErrNotFound is returned when a requested document does not exist
var ErrNotFound = errors.New("document not found")

// allowedConfigFields are the only keys a config update may touch
var allowedConfigFields = []string{
	"enabled", "default_prompt_id", "prompt_category", "use_quil",
	"use_fireflies", "proceed_without_interview", "additional_context",
	"auto_push", "auto_push_delay_seconds", "create_tracking_note",
	"max_concurrent_tasks", "rate_limit_per_minute",
	"push_summary_to_candidate", "move_to_next_stage", "target_stage_id",
}

// DefaultWebhookConfig is the configuration served when no document has
// been written yet.
func DefaultWebhookConfig() map[string]any {
	return map[string]any{
		"enabled":                   true,
		"default_prompt_id":         "summary-for-platform-v2",
		"prompt_category":           "single",
		"use_quil":                  true,
		"use_fireflies":             false,
		"proceed_without_interview": true,
		"additional_context":        "",
		"auto_push":                 false,
		"auto_push_delay_seconds":   0,
		"create_tracking_note":      false,
		"max_concurrent_tasks":      5,
		"rate_limit_per_minute":     10,
		"push_summary_to_candidate": false,
		"move_to_next_stage":        false,
	}
}

// Feedback is one user rating of a generated summary.
type Feedback struct {
	Rating               any       `firestore:"rating"`
	Comments             string    `firestore:"comments"`
	PromptType           string    `firestore:"prompt_type"`
	GeneratedSummaryHTML string    `firestore:"generated_summary_html"`
	CandidateSlug        string    `firestore:"candidate_slug"`
	JobSlug              string    `firestore:"job_slug"`
	Timestamp            time.Time `firestore:"timestamp"`
}

// Store wraps the Firestore collections used for configuration and audit.
type Store struct {
	client *firestore.Client
}

// New wraps an existing Firestore client
func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

// GetWebhookConfig returns the webhook configuration document as stored.
// A missing document returns ErrNotFound so callers can apply their own
// defaults.
func (s *Store) GetWebhookConfig(ctx context.Context) (map[string]any, error) {
	snap, err := s.client.Collection(webhookConfigCollection).Doc(webhookConfigDoc).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch webhook config: %w", err)
	}
	return snap.Data(), nil
}

// UpdateWebhookConfig merges the allowed fields from updates into the
// config document, stamping updated_at/updated_by. It returns the names of
// the fields actually applied.
func (s *Store) UpdateWebhookConfig(ctx context.Context, updates map[string]any) ([]string, error) {
	filtered, applied := filterConfigFields(updates)
	filtered["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	filtered["updated_by"] = "admin_ui"

	_, err := s.client.Collection(webhookConfigCollection).Doc(webhookConfigDoc).Set(ctx, filtered, firestore.MergeAll)
	if err != nil {
		return nil, fmt.Errorf("failed to update webhook config: %w", err)
	}
	return applied, nil
}

// filterConfigFields keeps only the allowed keys from an update payload
func filterConfigFields(updates map[string]any) (map[string]any, []string) {
	filtered := make(map[string]any, len(updates)+2)
	applied := make([]string, 0, len(updates))
	for _, field := range allowedConfigFields {
		if value, ok := updates[field]; ok {
			filtered[field] = value
			applied = append(applied, field)
		}
	}
	return filtered, applied
}

// LogRun writes one summary-run audit record and returns its document id.
// The id is structured for easy scanning:
// YYYYMMDD_HHMMSS_{candidate_slug}_{job_slug}.
func (s *Store) LogRun(ctx context.Context, run map[string]any) (string, error) {
	docID := runDocID(run, time.Now())

	record := make(map[string]any, len(run)+1)
	for k, v := range run {
		record[k] = v
	}
	record["timestamp"] = firestore.ServerTimestamp

	if _, err := s.client.Collection(runsCollection).Doc(docID).Set(ctx, record); err != nil {
		return "", fmt.Errorf("failed to log run: %w", err)
	}
	return docID, nil
}

// ListRuns returns the newest runs first, at most limit of them, with
// optional case-insensitive substring filters on candidate and job names.
// Filtering happens in process after the limit is applied, matching how
// the admin UI has always queried this collection.
func (s *Store) ListRuns(ctx context.Context, limit int, candidateFilter, jobFilter string) ([]map[string]any, error) {
	if limit <= 0 {
		limit = 50
	}

	iter := s.client.Collection(runsCollection).
		OrderBy("timestamp", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	runs := make([]map[string]any, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}

		data := snap.Data()
		if candidateFilter != "" && !containsFold(stringField(data, "candidate_name", ""), candidateFilter) {
			continue
		}
		if jobFilter != "" && !containsFold(stringField(data, "job_name", ""), jobFilter) {
			continue
		}
		if ts, ok := data["timestamp"].(time.Time); ok {
			data["timestamp"] = ts.UTC().Format(time.RFC3339)
		}
		data["id"] = snap.Ref.ID
		runs = append(runs, data)
	}
	return runs, nil
}

// LogFeedback stores one feedback record under an auto-generated id
func (s *Store) LogFeedback(ctx context.Context, fb *Feedback) error {
	fb.Timestamp = time.Now().UTC()
	if _, err := s.client.Collection(feedbackCollection).NewDoc().Set(ctx, fb); err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	return nil
}

// runDocID builds the structured audit document id for a run record
func runDocID(run map[string]any, now time.Time) string {
	candidateSlug := stringField(run, "candidate_slug", "unknown")
	jobSlug := stringField(run, "job_slug", "unknown")
	return fmt.Sprintf("%s_%s_%s", now.Format("20060102_150405"), candidateSlug, jobSlug)
}

func stringField(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
