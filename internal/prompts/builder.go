package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/outstaffer/candidate-summary-api/internal/types"
)

// Vars holds the data interpolated into a prompt's user template. Only the
// fields the template references need to be set; unreferenced placeholders
// are left alone.
type Vars struct {
	CandidateData     string
	JobData           string
	InterviewData     string
	AdditionalContext string

	// Transcript is the recruiter-led interview rendered into the
	// conditional transcript section. Callers decide precedence between
	// sources before handing one over.
	Transcript *types.Transcript

	// Multiple-candidates fields
	ClientName         string
	JobURL             string
	JobTitle           string
	CandidatesData     string
	ProcessedSummaries string
	CandidateNames     string
	PreferredCandidate string
}

// BuildFull assembles the complete model prompt: the system prompt, the HTML
// output template fenced as a code block, and the user prompt with its
// placeholders substituted. The system prompt and template are never
// formatted; placeholder substitution applies to the user prompt only.
func BuildFull(p *Prompt, vars Vars) string {
	section := TranscriptSection(vars.Transcript)

	userPrompt := Format(p.UserPrompt, map[string]string{
		"candidate_data":      vars.CandidateData,
		"job_data":            vars.JobData,
		"interview_data":      vars.InterviewData,
		"additional_context":  vars.AdditionalContext,
		"interview_section":   section,
		"fireflies_section":   section,
		"client_name":         vars.ClientName,
		"job_url":             vars.JobURL,
		"job_title":           vars.JobTitle,
		"candidates_data":     vars.CandidatesData,
		"processed_summaries": vars.ProcessedSummaries,
		"candidate_names":     vars.CandidateNames,
		"preferred_candidate": vars.PreferredCandidate,
	})

	fullSystem := p.SystemPrompt + "\n\n**HTML template (paste into ATS)**\n```html\n" + p.Template + "\n```"

	return fullSystem + "\n\n" + userPrompt
}

// TranscriptSection renders the conditional recruiter-transcript block. A
// missing or empty transcript renders as an explicit "Not provided." so the
// model knows the source was absent rather than withheld.
func TranscriptSection(tr *types.Transcript) string {
	if tr == nil || tr.Content == "" {
		return "**RECRUITER-LED INTERVIEW TRANSCRIPT:**\nNot provided."
	}
	title := tr.Title
	if title == "" {
		title = "N/A"
	}
	return "\n**RECRUITER-LED INTERVIEW TRANSCRIPT:**\nTitle: " + title + "\n" + tr.Content
}

// Format replaces {key} placeholders with values from data. Placeholders
// without a matching key are left intact.
func Format(template string, data map[string]string) string {
	result := template
	for key, value := range data {
		result = strings.ReplaceAll(result, "{"+key+"}", value)
	}
	return result
}

// MarshalData renders an arbitrary record as indented JSON for prompt
// interpolation. Values that cannot be marshalled fall back to fmt printing.
func MarshalData(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
