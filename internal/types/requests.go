// Package types provides type definitions for ATS records and interview data
// shared across the candidate-summary system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/go-playground/validator/v10"
)

// TestCandidateRequest checks that a candidate record is reachable.
type TestCandidateRequest struct {
	CandidateSlug string `json:"candidate_slug" validate:"required"`
	JobSlug       string `json:"job_slug,omitempty"`
}

// TestJobRequest checks that a job record is reachable.
type TestJobRequest struct {
	JobSlug       string `json:"job_slug" validate:"required"`
	CandidateSlug string `json:"candidate_slug,omitempty"`
}

// TestResumeRequest checks whether a candidate has a resume on file.
type TestResumeRequest struct {
	CandidateSlug string `json:"candidate_slug" validate:"required"`
	JobSlug       string `json:"job_slug,omitempty"`
}

// TestInterviewRequest checks that an AI interview is reachable. The
// interview ID is accepted as pasted; tracking query strings are stripped
// server-side.
type TestInterviewRequest struct {
	InterviewID   string `json:"interview_id" validate:"required"`
	AlpharunJobID string `json:"alpharun_job_id" validate:"required"`
}

// TestFirefliesRequest checks that a Fireflies transcript is reachable.
type TestFirefliesRequest struct {
	TranscriptURL string `json:"transcript_url" validate:"required"`
}

// TestQuilRequest checks whether a usable Quil interview note exists for a
// candidate-job pair.
type TestQuilRequest struct {
	CandidateSlug string `json:"candidate_slug" validate:"required"`
	JobSlug       string `json:"job_slug" validate:"required"`
}

// GenerateSummaryRequest is the payload for the single-candidate summary
// endpoint. Only the two slugs are mandatory; the interview attaches when
// both identifiers are present, which the probe endpoints surface from ATS
// custom fields.
type GenerateSummaryRequest struct {
	CandidateSlug     string `json:"candidate_slug" validate:"required"`
	JobSlug           string `json:"job_slug" validate:"required"`
	AlpharunJobID     string `json:"alpharun_job_id,omitempty"`
	InterviewID       string `json:"interview_id,omitempty"`
	FirefliesURL      string `json:"fireflies_url,omitempty"`
	AdditionalContext string `json:"additional_context,omitempty"`
	PromptType        string `json:"prompt_type,omitempty"`
	UseQuil           bool   `json:"use_quil,omitempty"`
}

// PushSummaryRequest writes a generated summary into the candidate's ATS
// record.
type PushSummaryRequest struct {
	CandidateSlug    string `json:"candidate_slug" validate:"required"`
	HTMLSummary      string `json:"html_summary" validate:"required"`
	JobSlug          string `json:"job_slug,omitempty"`
	TriggeredByEmail string `json:"triggered_by_email,omitempty"`
}

// CreateNoteRequest attaches a tracking note to a candidate record.
type CreateNoteRequest struct {
	CandidateSlug    string `json:"candidate_slug" validate:"required"`
	JobSlug          string `json:"job_slug,omitempty"`
	NoteHTML         string `json:"note_html" validate:"required"`
	TriggeredByEmail string `json:"triggered_by_email,omitempty"`
}

// MoveStageRequest moves a candidate to another pipeline stage on a job.
type MoveStageRequest struct {
	CandidateSlug    string `json:"candidate_slug" validate:"required"`
	JobSlug          string `json:"job_slug" validate:"required"`
	TargetStageID    int    `json:"target_stage_id" validate:"required"`
	TriggeredByEmail string `json:"triggered_by_email,omitempty"`
}

// FeedbackRequest records reviewer feedback on a generated summary. Nothing
// is mandatory; partial feedback is still worth keeping.
type FeedbackRequest struct {
	Rating               int    `json:"rating"`
	Comments             string `json:"comments"`
	PromptType           string `json:"prompt_type"`
	GeneratedSummaryHTML string `json:"generated_summary_html"`
	CandidateSlug        string `json:"candidate_slug"`
	JobSlug              string `json:"job_slug"`
}

// BulkProcessJobRequest starts an asynchronous bulk summary job.
type BulkProcessJobRequest struct {
	JobURL         string   `json:"job_url" validate:"required"`
	SinglePrompt   string   `json:"single_candidate_prompt" validate:"required"`
	CandidateSlugs []string `json:"candidate_slugs" validate:"required,min=1"`
}

// BulkEmailRequest generates the client email from a completed bulk job.
type BulkEmailRequest struct {
	JobID                 string `json:"job_id" validate:"required"`
	MultiPrompt           string `json:"multi_candidate_prompt" validate:"required"`
	ClientName            string `json:"client_name,omitempty"`
	OutstafferPlatformURL string `json:"outstaffer_platform_url,omitempty"`
	PreferredCandidate    string `json:"preferred_candidate,omitempty"`
	AdditionalContext     string `json:"additional_context,omitempty"`
}

// MultiGenerateRequest generates one document covering several candidates.
type MultiGenerateRequest struct {
	CandidateSlugs     []string `json:"candidate_slugs" validate:"required,min=1"`
	JobSlug            string   `json:"job_slug" validate:"required"`
	PromptType         string   `json:"prompt_type,omitempty"`
	ClientName         string   `json:"client_name,omitempty"`
	PreferredCandidate string   `json:"preferred_candidate,omitempty"`
	AdditionalContext  string   `json:"additional_context,omitempty"`
}

// CuratedProcessRequest runs the per-candidate summary pipeline over a
// curated slug list and optionally builds the client email afterwards.
type CuratedProcessRequest struct {
	JobSlug            string   `json:"job_slug" validate:"required"`
	CandidateSlugs     []string `json:"candidate_slugs" validate:"required,min=1"`
	SinglePromptType   string   `json:"single_prompt_type,omitempty"`
	MultiPromptType    string   `json:"multi_prompt_type,omitempty"`
	AutoPush           bool     `json:"auto_push,omitempty"`
	GenerateSummaries  bool     `json:"generate_summaries,omitempty"`
	GenerateEmail      bool     `json:"generate_email"`
	ClientName         string   `json:"client_name,omitempty"`
	JobURL             string   `json:"job_url,omitempty"`
	PreferredCandidate string   `json:"preferred_candidate,omitempty"`
	AdditionalContext  string   `json:"additional_context,omitempty"`
}

// NewCuratedProcessRequest returns a request with defaults applied. Decode
// JSON into the returned value so absent keys keep their defaults.
func NewCuratedProcessRequest() CuratedProcessRequest {
	return CuratedProcessRequest{GenerateEmail: true}
}

// GmailDraftRequest creates a Gmail draft of the client email, optionally
// with the summary rendered to a PDF attachment.
type GmailDraftRequest struct {
	AccessToken   string `json:"access_token" validate:"required"`
	Subject       string `json:"subject" validate:"required"`
	HTMLBody      string `json:"html_body" validate:"required"`
	ToEmail       string `json:"to_email,omitempty"`
	RefreshToken  string `json:"refresh_token,omitempty"`
	SummaryHTML   string `json:"summary_html,omitempty"`
	CandidateName string `json:"candidate_name,omitempty"`
	JobName       string `json:"job_name,omitempty"`
}

// Validate validates the TestCandidateRequest using the validator.
func (r *TestCandidateRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the TestJobRequest using the validator.
func (r *TestJobRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the TestResumeRequest using the validator.
func (r *TestResumeRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the TestInterviewRequest using the validator.
func (r *TestInterviewRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the TestFirefliesRequest using the validator.
func (r *TestFirefliesRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the TestQuilRequest using the validator.
func (r *TestQuilRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the GenerateSummaryRequest using the validator.
func (r *GenerateSummaryRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the PushSummaryRequest using the validator.
func (r *PushSummaryRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the CreateNoteRequest using the validator.
func (r *CreateNoteRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the MoveStageRequest using the validator.
func (r *MoveStageRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the BulkProcessJobRequest using the validator.
func (r *BulkProcessJobRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the BulkEmailRequest using the validator.
func (r *BulkEmailRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the MultiGenerateRequest using the validator.
func (r *MultiGenerateRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the CuratedProcessRequest using the validator.
func (r *CuratedProcessRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the GmailDraftRequest using the validator.
func (r *GmailDraftRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
