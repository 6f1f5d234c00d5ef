package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("TARGET_STAGE_ID", "")
	t.Setenv("PROMPT_STORE", "")

	cfg := FromEnv()
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultTargetStageID, cfg.TargetStageID)
	assert.Equal(t, "memory", cfg.PromptStore)
}

func TestFromEnv_ReadsEnvironment(t *testing.T) {
	t.Setenv("RECRUITCRM_API_KEY", "rc-key")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("TARGET_STAGE_ID", "12345")
	t.Setenv("PROMPT_STORE", "firestore")
	t.Setenv("GCP_PROJECT_ID", "candidate-summary-ai")

	cfg := FromEnv()

	assert.Equal(t, "rc-key", cfg.RecruitCRMAPIKey)
	assert.Equal(t, "g-key", cfg.GoogleAPIKey)
	assert.Equal(t, 12345, cfg.TargetStageID)
	assert.Equal(t, "firestore", cfg.PromptStore)
	assert.Equal(t, "candidate-summary-ai", cfg.GCPProjectID)
}

func TestFromEnv_BadStageIDKeepsDefault(t *testing.T) {
	t.Setenv("TARGET_STAGE_ID", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, DefaultTargetStageID, cfg.TargetStageID)
}

func TestMissingKeys(t *testing.T) {
	cfg := &Config{
		RecruitCRMAPIKey: "set",
		GoogleAPIKey:     "set",
	}

	missing := cfg.MissingKeys()
	assert.ElementsMatch(t, []string{"ALPHARUN_API_KEY", "FIREFLIES_API_KEY"}, missing)
}

func TestMissingKeys_NoneMissing(t *testing.T) {
	cfg := &Config{
		RecruitCRMAPIKey: "a",
		AlphaRunAPIKey:   "b",
		GoogleAPIKey:     "c",
		FirefliesAPIKey:  "d",
	}

	assert.Empty(t, cfg.MissingKeys())
}

func TestValidate_UnknownPromptStore(t *testing.T) {
	cfg := &Config{PromptStore: "redis", TargetStageID: 1}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown prompt store")
}

func TestValidate_FileStoreNeedsDir(t *testing.T) {
	cfg := &Config{PromptStore: "file", TargetStageID: 1}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "PROMPT_DIR")
}

func TestValidate_FirestoreNeedsProject(t *testing.T) {
	cfg := &Config{PromptStore: "firestore", TargetStageID: 1}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "GCP_PROJECT_ID")
}

func TestValidate_OK(t *testing.T) {
	cfg := &Config{PromptStore: "memory", TargetStageID: DefaultTargetStageID}
	assert.NoError(t, cfg.Validate())
}

func TestListenerReady(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.ListenerReady())

	cfg = &Config{
		GCPProjectID:       "proj",
		CloudTasksQueue:    "summary-tasks",
		CloudTasksLocation: "us-central1",
	}
	err := cfg.ListenerReady()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKER_FUNCTION_URL")

	cfg.WorkerURL = "https://worker.example.com"
	assert.NoError(t, cfg.ListenerReady())
}
