package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outstaffer/candidate-summary-api/internal/types"
)

func TestBuildFull_Composition(t *testing.T) {
	p := &Prompt{
		Slug:         "test-prompt",
		Name:         "Test Prompt",
		SystemPrompt: "You are a recruiter.",
		Template:     "<div>{candidate_data}</div>",
		UserPrompt:   "Candidate:\n{candidate_data}\n\nJob:\n{job_data}",
	}
	full := BuildFull(p, Vars{CandidateData: `{"name": "Jane"}`, JobData: `{"title": "Engineer"}`})

	want := "You are a recruiter." +
		"\n\n**HTML template (paste into ATS)**\n```html\n<div>{candidate_data}</div>\n```" +
		"\n\n" +
		"Candidate:\n{\"name\": \"Jane\"}\n\nJob:\n{\"title\": \"Engineer\"}"
	assert.Equal(t, want, full)
}

func TestBuildFull_OnlyUserPromptFormatted(t *testing.T) {
	p := &Prompt{
		SystemPrompt: "System says {candidate_data}",
		Template:     "Template says {candidate_data}",
		UserPrompt:   "User says {candidate_data}",
	}
	full := BuildFull(p, Vars{CandidateData: "REPLACED"})

	assert.Contains(t, full, "System says {candidate_data}")
	assert.Contains(t, full, "Template says {candidate_data}")
	assert.Contains(t, full, "User says REPLACED")
}

func TestBuildFull_TranscriptFillsBothSectionNames(t *testing.T) {
	tr := &types.Transcript{Title: "Screening Call", Content: "Q: Tell me about yourself."}

	v2 := &Prompt{UserPrompt: "Interview:\n{interview_section}"}
	legacy := &Prompt{UserPrompt: "Interview:\n{fireflies_section}"}

	section := "\n**RECRUITER-LED INTERVIEW TRANSCRIPT:**\nTitle: Screening Call\nQ: Tell me about yourself."
	assert.Contains(t, BuildFull(v2, Vars{Transcript: tr}), section)
	assert.Contains(t, BuildFull(legacy, Vars{Transcript: tr}), section)
}

func TestTranscriptSection(t *testing.T) {
	tests := []struct {
		name       string
		transcript *types.Transcript
		want       string
	}{
		{
			name:       "with title and content",
			transcript: &types.Transcript{Title: "First Round", Content: "Answered well."},
			want:       "\n**RECRUITER-LED INTERVIEW TRANSCRIPT:**\nTitle: First Round\nAnswered well.",
		},
		{
			name:       "missing title",
			transcript: &types.Transcript{Content: "Answered well."},
			want:       "\n**RECRUITER-LED INTERVIEW TRANSCRIPT:**\nTitle: N/A\nAnswered well.",
		},
		{
			name:       "nil transcript",
			transcript: nil,
			want:       "**RECRUITER-LED INTERVIEW TRANSCRIPT:**\nNot provided.",
		},
		{
			name:       "empty content",
			transcript: &types.Transcript{Title: "First Round"},
			want:       "**RECRUITER-LED INTERVIEW TRANSCRIPT:**\nNot provided.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TranscriptSection(tt.transcript); got != tt.want {
				t.Errorf("TranscriptSection() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		want     string
	}{
		{
			name:     "single placeholder",
			template: "Hello {name}",
			data:     map[string]string{"name": "Jane"},
			want:     "Hello Jane",
		},
		{
			name:     "repeated placeholder",
			template: "{x} and {x}",
			data:     map[string]string{"x": "1"},
			want:     "1 and 1",
		},
		{
			name:     "unknown placeholder left intact",
			template: "Hello {name}, see {unknown}",
			data:     map[string]string{"name": "Jane"},
			want:     "Hello Jane, see {unknown}",
		},
		{
			name:     "empty value",
			template: "ctx: {additional_context}",
			data:     map[string]string{"additional_context": ""},
			want:     "ctx: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.template, tt.data); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"basic", "Summary For Platform V2", "summary-for-platform-v2"},
		{"punctuation stripped", "Recruiter's #1 Pick!", "recruiters-1-pick"},
		{"whitespace runs collapse", "Too   Many    Spaces", "too-many-spaces"},
		{"leading and trailing dashes trimmed", "- Edge Case -", "edge-case"},
		{"already a slug", "recruitment-detailed", "recruitment-detailed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"legacy dotted id", "recruitment.detailed", "recruitment-detailed"},
		{"slug passes through", "summary-for-platform-v2", "summary-for-platform-v2"},
		{"mixed case", "Anonymous.Detailed", "anonymous-detailed"},
		{"surrounding whitespace", "  recruitment.detailed ", "recruitment-detailed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeID(tt.in); got != tt.want {
				t.Errorf("NormalizeID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMarshalData(t *testing.T) {
	require.Equal(t, "", MarshalData(nil))

	out := MarshalData(map[string]any{"name": "Jane", "years": 8})
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"name": "Jane"`)
	assert.Contains(t, out, `"years": 8`)
}
