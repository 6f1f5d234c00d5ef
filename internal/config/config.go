// Package config provides environment-driven configuration shared by the API
// server, the webhook listener, and the summary worker.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultTargetStageID is the pipeline stage that triggers summary generation
// when no override is configured.
const DefaultTargetStageID = 726195

// FallbackPromptID is used when no default prompt is configured.
const FallbackPromptID = "summary-for-platform-v2"

// Config holds every externally supplied setting. All fields come from the
// environment. A missing integration key does not stop startup; the call
// using it fails later instead.
type Config struct {
	// External API credentials
	RecruitCRMAPIKey string
	AlphaRunAPIKey   string
	GoogleAPIKey     string
	FirefliesAPIKey  string

	// Gmail OAuth app credentials for draft creation
	GmailClientID     string
	GmailClientSecret string

	// Deployment plumbing
	GCPProjectID        string
	CloudTasksQueue     string
	CloudTasksLocation  string
	TasksServiceAccount string // OIDC identity attached to queued tasks
	WorkerURL           string // URL the Cloud Task invokes
	AppURL              string // base URL of the main API, used by the worker

	// Webhook listener
	TargetStageID int

	// Prompt store selection: "memory", "file" or "firestore"
	PromptStore string
	PromptDir   string
}

// FromEnv builds a Config from environment variables, applying defaults for
// optional settings.
func FromEnv() *Config {
	cfg := &Config{
		RecruitCRMAPIKey:    os.Getenv("RECRUITCRM_API_KEY"),
		AlphaRunAPIKey:      os.Getenv("ALPHARUN_API_KEY"),
		GoogleAPIKey:        os.Getenv("GOOGLE_API_KEY"),
		FirefliesAPIKey:     os.Getenv("FIREFLIES_API_KEY"),
		GmailClientID:       os.Getenv("GMAIL_CLIENT_ID"),
		GmailClientSecret:   os.Getenv("GMAIL_CLIENT_SECRET"),
		GCPProjectID:        os.Getenv("GCP_PROJECT_ID"),
		CloudTasksQueue:     os.Getenv("CLOUD_TASKS_QUEUE"),
		CloudTasksLocation:  os.Getenv("CLOUD_TASKS_LOCATION"),
		TasksServiceAccount: os.Getenv("TASKS_SERVICE_ACCOUNT"),
		WorkerURL:           os.Getenv("WORKER_FUNCTION_URL"),
		AppURL:              os.Getenv("APP_URL"),
		TargetStageID:       DefaultTargetStageID,
		PromptStore:         os.Getenv("PROMPT_STORE"),
		PromptDir:           os.Getenv("PROMPT_DIR"),
	}

	if raw := os.Getenv("TARGET_STAGE_ID"); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil {
			cfg.TargetStageID = id
		}
	}
	if cfg.PromptStore == "" {
		cfg.PromptStore = "memory"
	}

	return cfg
}

// MissingKeys returns the names of integration keys that are unset. Callers
// log these at startup; requests depending on a missing key fail when made.
func (c *Config) MissingKeys() []string {
	var missing []string
	for _, kv := range []struct {
		name  string
		value string
	}{
		{"RECRUITCRM_API_KEY", c.RecruitCRMAPIKey},
		{"ALPHARUN_API_KEY", c.AlphaRunAPIKey},
		{"GOOGLE_API_KEY", c.GoogleAPIKey},
		{"FIREFLIES_API_KEY", c.FirefliesAPIKey},
	} {
		if kv.value == "" {
			missing = append(missing, kv.name)
		}
	}
	return missing
}

// Validate checks settings that would make a subcommand misbehave in a way a
// later API error would not surface.
func (c *Config) Validate() error {
	switch c.PromptStore {
	case "memory", "file", "firestore":
	default:
		return fmt.Errorf("config error: unknown prompt store %q (want memory, file or firestore)", c.PromptStore)
	}
	if c.PromptStore == "file" && c.PromptDir == "" {
		return fmt.Errorf("config error: PROMPT_DIR is required when PROMPT_STORE=file")
	}
	if c.PromptStore == "firestore" && c.GCPProjectID == "" {
		return fmt.Errorf("config error: GCP_PROJECT_ID is required when PROMPT_STORE=firestore")
	}
	if c.TargetStageID <= 0 {
		return fmt.Errorf("config error: target stage id must be positive, got %d", c.TargetStageID)
	}
	return nil
}

// ListenerReady reports whether the listener has everything it needs to
// enqueue tasks.
func (c *Config) ListenerReady() error {
	if c.GCPProjectID == "" || c.CloudTasksQueue == "" || c.CloudTasksLocation == "" {
		return fmt.Errorf("config error: GCP_PROJECT_ID, CLOUD_TASKS_QUEUE and CLOUD_TASKS_LOCATION are required for the listener")
	}
	if c.WorkerURL == "" {
		return fmt.Errorf("config error: WORKER_FUNCTION_URL is required for the listener")
	}
	return nil
}

// WorkerReady reports whether the worker can reach the main API.
func (c *Config) WorkerReady() error {
	if c.AppURL == "" {
		return fmt.Errorf("config error: APP_URL is required for the worker")
	}
	return nil
}
