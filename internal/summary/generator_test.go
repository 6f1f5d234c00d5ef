package summary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outstaffer/candidate-summary-api/internal/alpharun"
	"github.com/outstaffer/candidate-summary-api/internal/llm"
	"github.com/outstaffer/candidate-summary-api/internal/prompts"
	"github.com/outstaffer/candidate-summary-api/internal/types"
)

type fakeLLM struct {
	response  string
	err       error
	uploaded  *llm.FileRef
	uploadErr error

	lastPrompt string
	lastFiles  []llm.FileRef
	lastMIME   string
	deleted    []string
}

func (f *fakeLLM) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier, files ...llm.FileRef) (string, error) {
	f.lastPrompt = prompt
	f.lastFiles = files
	return f.response, f.err
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.lastPrompt = prompt
	return f.response, f.err
}

func (f *fakeLLM) UploadFile(_ context.Context, _ []byte, mimeType string) (*llm.FileRef, error) {
	f.lastMIME = mimeType
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.uploaded, nil
}

func (f *fakeLLM) DeleteFile(_ context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *fakeLLM) Close() error { return nil }

func newTestGenerator(t *testing.T, fake *fakeLLM) (*Generator, *prompts.MemoryRepository) {
	t.Helper()
	repo, err := prompts.NewMemoryRepository()
	require.NoError(t, err)
	return NewGenerator(fake, repo), repo
}

func TestSources(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want types.SourcesUsed
	}{
		{
			name: "nothing optional",
			in:   Input{},
			want: types.SourcesUsed{},
		},
		{
			name: "resume only",
			in:   Input{ResumeFile: &llm.FileRef{Name: "files/r1"}},
			want: types.SourcesUsed{Resume: true},
		},
		{
			name: "interview only",
			in:   Input{Interview: &alpharun.Interview{}},
			want: types.SourcesUsed{AnnaAI: true},
		},
		{
			name: "quil transcript",
			in: Input{
				Transcript:       &types.Transcript{Content: "notes"},
				TranscriptSource: SourceQuil,
			},
			want: types.SourcesUsed{Quil: true},
		},
		{
			name: "fireflies transcript",
			in: Input{
				Transcript:       &types.Transcript{Content: "notes"},
				TranscriptSource: SourceFireflies,
			},
			want: types.SourcesUsed{Fireflies: true},
		},
		{
			name: "unlabeled transcript counts for neither",
			in:   Input{Transcript: &types.Transcript{Content: "notes"}},
			want: types.SourcesUsed{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Sources(); got != tt.want {
				t.Errorf("Sources() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGenerateSummary(t *testing.T) {
	fake := &fakeLLM{response: "```html\n<div>Summary</div>\n```"}
	g, _ := newTestGenerator(t, fake)

	in := Input{
		PromptID:  "summary-for-platform-v2",
		Candidate: &types.Candidate{Fields: map[string]any{"first_name": "Jane", "last_name": "Doe"}},
		Job:       &types.Job{Fields: map[string]any{"name": "Backend Engineer"}},
	}
	html, sources, err := g.GenerateSummary(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "<div>Summary</div>", html)
	assert.Equal(t, types.SourcesUsed{}, sources)
	assert.Contains(t, fake.lastPrompt, `"first_name": "Jane"`)
	assert.Contains(t, fake.lastPrompt, `"name": "Backend Engineer"`)
	assert.Empty(t, fake.lastFiles)
}

func TestGenerateSummary_NilInterviewRendersEmptyObject(t *testing.T) {
	fake := &fakeLLM{response: "ok"}
	g, repo := newTestGenerator(t, fake)
	require.NoError(t, repo.Create(context.Background(), &prompts.Prompt{
		Name:         "Probe",
		Category:     prompts.CategorySingle,
		Type:         prompts.TypeSummary,
		SystemPrompt: "sys",
		UserPrompt:   "INTERVIEW={interview_data}=END",
		Template:     "<p></p>",
	}))

	in := Input{
		PromptID:  "probe",
		Candidate: &types.Candidate{Fields: map[string]any{}},
		Job:       &types.Job{Fields: map[string]any{}},
	}
	_, _, err := g.GenerateSummary(context.Background(), in)
	require.NoError(t, err)
	assert.Contains(t, fake.lastPrompt, "INTERVIEW={}=END")

	in.Interview = &alpharun.Interview{Fields: map[string]any{"overall_score": "4/5"}}
	_, sources, err := g.GenerateSummary(context.Background(), in)
	require.NoError(t, err)
	assert.Contains(t, fake.lastPrompt, `"overall_score": "4/5"`)
	assert.True(t, sources.AnnaAI)
}

func TestGenerateSummary_TranscriptAndResume(t *testing.T) {
	fake := &fakeLLM{response: "ok"}
	g, _ := newTestGenerator(t, fake)

	in := Input{
		PromptID:         "summary-for-platform-v2",
		Candidate:        &types.Candidate{Fields: map[string]any{}},
		Job:              &types.Job{Fields: map[string]any{}},
		Transcript:       &types.Transcript{Title: "Screen with Jane", Content: "We talked about Go."},
		TranscriptSource: SourceQuil,
		ResumeFile:       &llm.FileRef{Name: "files/r1", URI: "uri://r1", MIMEType: "application/pdf"},
	}
	_, sources, err := g.GenerateSummary(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, sources.Quil)
	assert.True(t, sources.Resume)
	assert.False(t, sources.Fireflies)
	assert.Contains(t, fake.lastPrompt, "RECRUITER-LED INTERVIEW TRANSCRIPT")
	assert.Contains(t, fake.lastPrompt, "We talked about Go.")
	require.Len(t, fake.lastFiles, 1)
	assert.Equal(t, "files/r1", fake.lastFiles[0].Name)
}

func TestGenerate_UnknownPrompt(t *testing.T) {
	g, _ := newTestGenerator(t, &fakeLLM{response: "ok"})

	_, err := g.Generate(context.Background(), "no-such-prompt", prompts.Vars{})
	require.ErrorIs(t, err, prompts.ErrNotFound)
}

func TestGenerate_ModelError(t *testing.T) {
	fake := &fakeLLM{err: errors.New("model unavailable")}
	g, _ := newTestGenerator(t, fake)

	_, err := g.Generate(context.Background(), "summary-for-platform-v2", prompts.Vars{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestUploadResume(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/resume.pdf", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("%PDF-1.4 test resume"))
	}))
	defer srv.Close()

	fake := &fakeLLM{uploaded: &llm.FileRef{Name: "files/r1", URI: "uri://r1", MIMEType: "application/pdf"}}
	g, _ := newTestGenerator(t, fake)

	file := g.UploadResume(context.Background(), &types.Resume{
		Filename: "resume.pdf",
		FileLink: srv.URL + "/files/resume.pdf",
	})
	require.NotNil(t, file)
	assert.Equal(t, "files/r1", file.Name)
	assert.Equal(t, "application/pdf", fake.lastMIME)
}

func TestUploadResume_NoFile(t *testing.T) {
	fake := &fakeLLM{}
	g, _ := newTestGenerator(t, fake)

	assert.Nil(t, g.UploadResume(context.Background(), nil))
	assert.Nil(t, g.UploadResume(context.Background(), &types.Resume{Filename: "resume.pdf"}))
	assert.Empty(t, fake.lastMIME)
}

func TestUploadResume_FailuresDegrade(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	fake := &fakeLLM{}
	g, _ := newTestGenerator(t, fake)
	assert.Nil(t, g.UploadResume(context.Background(), &types.Resume{FileLink: srv.URL + "/gone.pdf"}))
	assert.Empty(t, fake.lastMIME)

	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4 test resume"))
	}))
	defer okSrv.Close()

	fake = &fakeLLM{uploadErr: errors.New("quota exceeded")}
	g, _ = newTestGenerator(t, fake)
	assert.Nil(t, g.UploadResume(context.Background(), &types.Resume{FileLink: okSrv.URL + "/resume.pdf"}))
}

func TestCleanupFile(t *testing.T) {
	fake := &fakeLLM{}
	g, _ := newTestGenerator(t, fake)

	g.CleanupFile(context.Background(), nil)
	assert.Empty(t, fake.deleted)

	g.CleanupFile(context.Background(), &llm.FileRef{Name: "files/r1"})
	assert.Equal(t, []string{"files/r1"}, fake.deleted)
}
