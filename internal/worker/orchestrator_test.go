package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/outstaffer/candidate-summary-api/internal/types"
)

func TestFallbackConfig(t *testing.T) {
	cfg := FallbackConfig()
	assert.True(t, cfg.UseQuil)
	assert.False(t, cfg.IncludeFireflies)
	assert.False(t, cfg.ProceedWithoutInterview)
	assert.Equal(t, "summary-for-platform-v2", cfg.PromptType)
	assert.Equal(t, DefaultTargetStageID, cfg.TargetStageID)
	assert.False(t, cfg.PushSummaryToCandidate)
	assert.False(t, cfg.CreateTrackingNote)
	assert.False(t, cfg.MoveToNextStage)
}

func TestApplyConfigDoc(t *testing.T) {
	cfg := FallbackConfig()
	applyConfigDoc(&cfg, map[string]any{
		"use_fireflies":             true,
		"default_prompt_id":         "recruitment-detailed",
		"proceed_without_interview": true,
		"target_stage_id":           int64(841),
		"auto_push_delay_seconds":   float64(30),
	})

	assert.True(t, cfg.IncludeFireflies)
	assert.Equal(t, "recruitment-detailed", cfg.PromptType)
	assert.True(t, cfg.ProceedWithoutInterview)
	assert.Equal(t, 841, cfg.TargetStageID)
	assert.Equal(t, 30, cfg.AutoPushDelaySeconds)

	// Keys absent from the document keep their fallbacks.
	assert.True(t, cfg.UseQuil)
	assert.False(t, cfg.PushSummaryToCandidate)
}

func TestNoteText(t *testing.T) {
	run := map[string]any{
		"candidate_name": "Ana Reyes",
		"job_name":       "Platform Engineer",
		"prompt_id":      "summary-for-platform-v2",
	}
	sources := types.SourcesUsed{Resume: true, Quil: true}

	note := noteText(run, sources, map[string]any{"email": "recruiter@acme.test"})
	assert.Contains(t, note, "Status: Success")
	assert.Contains(t, note, "Candidate: Ana Reyes")
	assert.Contains(t, note, "Job: Platform Engineer")
	assert.Contains(t, note, "Sources Used: Resume, Quil")
	assert.Contains(t, note, "Triggered by: recruiter@acme.test")
	assert.Contains(t, note, "This is an automated note from the AI Summary Worker.")

	note = noteText(run, types.SourcesUsed{}, nil)
	assert.Contains(t, note, "Sources Used: None")
	assert.Contains(t, note, "Triggered by: System")

	note = noteText(map[string]any{}, sources, map[string]any{"name": "Webhook"})
	assert.Contains(t, note, "Candidate: N/A")
	assert.Contains(t, note, "Job: N/A")
	assert.Contains(t, note, "Prompt Used: unknown")
	assert.Contains(t, note, "Triggered by: Unknown")
}

func TestNoteIDExtraction(t *testing.T) {
	id, ok := noteID(map[string]any{"note_id": float64(41)})
	assert.True(t, ok)
	assert.Equal(t, 41, id)

	_, ok = noteID(map[string]any{"note_id": float64(0)})
	assert.False(t, ok)

	_, ok = noteID(map[string]any{})
	assert.False(t, ok)

	_, ok = noteID(map[string]any{"note_id": "41"})
	assert.False(t, ok)
}
