package quil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outstaffer/candidate-summary-api/internal/llm"
	"github.com/outstaffer/candidate-summary-api/internal/types"
)

type fakeGenerator struct {
	calls    int
	prompt   string
	response string
	err      error
}

func (f *fakeGenerator) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func selectorNotes() []types.Note {
	return []types.Note{
		{ID: 11, Description: "Quil 2/1/2025: Intro Call<br/>brief check-in", CreatedOn: "2025-02-01"},
		{ID: 22, Description: sampleNote, CreatedOn: "2025-03-14", AssociatedJobs: []string{"job-backend"}},
		{ID: 33, Description: "Quil 3/20/2025: Frontend Chat<br/>mostly React", CreatedOn: "2025-03-20"},
	}
}

func TestBestNote_SelectsByID(t *testing.T) {
	gen := &fakeGenerator{response: `{"selected_note_id": 22, "has_valid_interview": true, "reasoning": "matches role and is associated"}`}
	selector := NewSelector(gen)

	note := selector.BestNote(context.Background(), selectorNotes(), "job-backend", "Backend Engineer", "Go services on GCP")
	require.NotNil(t, note)
	assert.Equal(t, 22, note.ID)

	// The model sees job details and the association signal
	assert.Contains(t, gen.prompt, "Backend Engineer")
	assert.Contains(t, gen.prompt, "Go services on GCP")
	assert.Contains(t, gen.prompt, `"is_manually_associated": true`)
	assert.Contains(t, gen.prompt, "(3 total)")
}

func TestBestNote_NoValidInterview(t *testing.T) {
	gen := &fakeGenerator{response: `{"selected_note_id": null, "has_valid_interview": false, "reasoning": "call logs only"}`}
	selector := NewSelector(gen)

	note := selector.BestNote(context.Background(), selectorNotes(), "job-backend", "Backend Engineer", "desc")
	assert.Nil(t, note)
}

func TestBestNote_ModelErrorFallsBackToAssociated(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	selector := NewSelector(gen)

	note := selector.BestNote(context.Background(), selectorNotes(), "job-backend", "Backend Engineer", "desc")
	require.NotNil(t, note)
	assert.Equal(t, 22, note.ID)
}

func TestBestNote_ModelErrorNoAssociationFallsBackToFirst(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	selector := NewSelector(gen)

	note := selector.BestNote(context.Background(), selectorNotes(), "job-unrelated", "Data Engineer", "desc")
	require.NotNil(t, note)
	assert.Equal(t, 11, note.ID)
}

func TestBestNote_SchemaRejectFallsBack(t *testing.T) {
	// Wrong type for selected_note_id fails schema validation
	gen := &fakeGenerator{response: `{"selected_note_id": "22", "has_valid_interview": true, "reasoning": "x"}`}
	selector := NewSelector(gen)

	note := selector.BestNote(context.Background(), selectorNotes(), "job-backend", "Backend Engineer", "desc")
	require.NotNil(t, note)
	assert.Equal(t, 22, note.ID)
}

func TestBestNote_UnknownIDReturnsNothing(t *testing.T) {
	gen := &fakeGenerator{response: `{"selected_note_id": 999, "has_valid_interview": true, "reasoning": "x"}`}
	selector := NewSelector(gen)

	note := selector.BestNote(context.Background(), selectorNotes(), "job-backend", "Backend Engineer", "desc")
	assert.Nil(t, note)
}

func TestBestNote_NilGeneratorUsesFallback(t *testing.T) {
	selector := NewSelector(nil)

	note := selector.BestNote(context.Background(), selectorNotes(), "job-backend", "Backend Engineer", "desc")
	require.NotNil(t, note)
	assert.Equal(t, 22, note.ID)
}

func TestInterviewForJob(t *testing.T) {
	gen := &fakeGenerator{response: `{"selected_note_id": 22, "has_valid_interview": true, "reasoning": "real interview"}`}
	selector := NewSelector(gen)

	notes := append([]types.Note{{ID: 1, Description: "Left voicemail."}}, selectorNotes()...)
	interview := selector.InterviewForJob(context.Background(), notes, "job-backend", "Backend Engineer", "desc")

	require.NotNil(t, interview)
	assert.Equal(t, 22, interview.NoteID)
	assert.Equal(t, "Backend Engineer Interview", interview.Title)
	assert.Contains(t, interview.SummaryHTML, "8 years of Go experience")
}

func TestInterviewForJob_NoQuilNotes(t *testing.T) {
	gen := &fakeGenerator{response: `{"selected_note_id": 1, "has_valid_interview": true, "reasoning": "x"}`}
	selector := NewSelector(gen)

	notes := []types.Note{
		{ID: 1, Description: "Left voicemail."},
		{ID: 2, Description: "Sent follow-up email."},
	}
	interview := selector.InterviewForJob(context.Background(), notes, "job-backend", "Backend Engineer", "desc")

	assert.Nil(t, interview)
	assert.Zero(t, gen.calls, "model should not be called without Quil notes")
}
