package quil

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/outstaffer/candidate-summary-api/internal/llm"
	"github.com/outstaffer/candidate-summary-api/internal/schemas"
	"github.com/outstaffer/candidate-summary-api/internal/types"
)

// Generator is the LLM capability the selector depends on
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

// Selection is the model's verdict when choosing among Quil notes
type Selection struct {
	SelectedNoteID    *int   `json:"selected_note_id"`
	HasValidInterview bool   `json:"has_valid_interview"`
	Reasoning         string `json:"reasoning"`
}

// Selector picks the Quil note that best matches a job. A single model call
// does both content validation (is this a real interview?) and job matching.
type Selector struct {
	generator Generator
}

// NewSelector creates a Selector. A nil generator disables model-assisted
// selection; the association-order fallback is used instead.
func NewSelector(generator Generator) *Selector {
	return &Selector{generator: generator}
}

// InterviewForJob finds the Quil interview note matching the job among a
// candidate's notes and parses it. Returns nil when the candidate has no
// usable Quil interview.
func (s *Selector) InterviewForJob(ctx context.Context, notes []types.Note, jobSlug, jobTitle, jobDescription string) *Interview {
	quilNotes := FilterNotes(notes)
	if len(quilNotes) == 0 {
		return nil
	}

	best := s.BestNote(ctx, quilNotes, jobSlug, jobTitle, jobDescription)
	if best == nil {
		return nil
	}

	interview := Parse(best.Description)
	if interview != nil {
		interview.NoteID = best.ID
	}
	return interview
}

// BestNote returns the note judged to contain a real interview matching the
// job, or nil when none qualifies. When no generator is configured or the
// model call fails, selection falls back to the first note manually
// associated with the job, then the first note.
func (s *Selector) BestNote(ctx context.Context, quilNotes []types.Note, jobSlug, jobTitle, jobDescription string) *types.Note {
	if len(quilNotes) == 0 {
		return nil
	}
	if s.generator == nil {
		log.Printf("[quil] no selection model configured, using association fallback")
		return fallbackNote(quilNotes, jobSlug)
	}

	prompt := buildSelectionPrompt(quilNotes, jobSlug, jobTitle, jobDescription)
	raw, err := s.generator.GenerateJSON(ctx, prompt, llm.TierSelection)
	if err != nil {
		log.Printf("[quil] note selection call failed: %v", err)
		return fallbackNote(quilNotes, jobSlug)
	}

	if err := schemas.ValidateNoteSelection(raw); err != nil {
		log.Printf("[quil] note selection response rejected: %v", err)
		return fallbackNote(quilNotes, jobSlug)
	}

	var selection Selection
	if err := json.Unmarshal([]byte(raw), &selection); err != nil {
		log.Printf("[quil] note selection response unparseable: %v", err)
		return fallbackNote(quilNotes, jobSlug)
	}

	if !selection.HasValidInterview || selection.SelectedNoteID == nil {
		log.Printf("[quil] model found no valid interview: %s", selection.Reasoning)
		return nil
	}

	for i := range quilNotes {
		if quilNotes[i].ID == *selection.SelectedNoteID {
			return &quilNotes[i]
		}
	}

	log.Printf("[quil] selected note id %d not in candidate set", *selection.SelectedNoteID)
	return nil
}

// noteSummary is the per-note digest handed to the selection model
type noteSummary struct {
	ID                   int    `json:"id"`
	CreatedOn            string `json:"created_on,omitempty"`
	DescriptionPreview   string `json:"description_preview"`
	IsManuallyAssociated bool   `json:"is_manually_associated"`
	Title                string `json:"title,omitempty"`
}

func buildSelectionPrompt(quilNotes []types.Note, jobSlug, jobTitle, jobDescription string) string {
	summaries := make([]noteSummary, 0, len(quilNotes))
	for _, note := range quilNotes {
		summary := noteSummary{
			ID:                   note.ID,
			CreatedOn:            note.CreatedOn,
			DescriptionPreview:   truncate(note.Description, 800),
			IsManuallyAssociated: associatedWith(note, jobSlug),
		}
		if interview := Parse(note.Description); interview != nil {
			summary.Title = interview.Title
		}
		summaries = append(summaries, summary)
	}
	notesJSON, _ := json.MarshalIndent(summaries, "", "  ")

	return fmt.Sprintf(`You are analyzing Quil meeting notes to find the best interview note for a specific job.

**Job Details:**
Title: %s
Description: %s

**Available Quil Notes (%d total):**
%s

**Your Task:**
1. Identify which note (if any) contains a REAL INTERVIEW with substantive content
   - Must have discussion points, Q&A, details about candidate experience/skills
   - NOT just call logs, empty placeholders, or brief check-ins

2. If multiple valid interviews exist, pick the one that best matches THIS job:
   - Consider role title mentioned
   - Technical requirements discussed
   - Date proximity (more recent is better)
   - Manual job association (is_manually_associated=true is a strong signal)

**Return:**
- selected_note_id: The ID of the best interview note, or null if none are valid
- has_valid_interview: true only if you found a real interview with content
- reasoning: Brief explanation of your decision

If no notes contain actual interview content, return has_valid_interview=false and selected_note_id=null.`,
		jobTitle, truncate(jobDescription, 1000), len(quilNotes), notesJSON)
}

// fallbackNote prefers the first note manually associated with the job
func fallbackNote(quilNotes []types.Note, jobSlug string) *types.Note {
	for i := range quilNotes {
		if associatedWith(quilNotes[i], jobSlug) {
			return &quilNotes[i]
		}
	}
	if len(quilNotes) > 0 {
		return &quilNotes[0]
	}
	return nil
}

func associatedWith(note types.Note, jobSlug string) bool {
	for _, slug := range note.AssociatedJobs {
		if slug == jobSlug {
			return true
		}
	}
	return false
}

// truncate limits s to at most n runes
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
