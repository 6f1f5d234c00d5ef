// Package summary assembles generation prompts from candidate, job and
// interview data and runs them through the model. It is the shared engine
// behind the single-candidate endpoint, the bulk runner, the worker and the
// CLI.
package summary

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/outstaffer/candidate-summary-api/internal/alpharun"
	"github.com/outstaffer/candidate-summary-api/internal/convert"
	"github.com/outstaffer/candidate-summary-api/internal/llm"
	"github.com/outstaffer/candidate-summary-api/internal/prompts"
	"github.com/outstaffer/candidate-summary-api/internal/types"
)

// Transcript sources
const (
	SourceQuil      = "quil"
	SourceFireflies = "fireflies"
)

// downloadTimeout bounds a resume file download
const downloadTimeout = 30 * time.Second

// Input carries everything one single-candidate generation may use. Only
// Candidate, Job and PromptID are required.
type Input struct {
	PromptID  string
	Candidate *types.Candidate
	Job       *types.Job

	// Interview is the AI interview record, or nil
	Interview *alpharun.Interview
	// Transcript is the recruiter-led interview, or nil. TranscriptSource
	// labels where it came from for source reporting.
	Transcript       *types.Transcript
	TranscriptSource string

	AdditionalContext string
	ResumeFile        *llm.FileRef
}

// Sources reports which optional inputs are present.
func (in Input) Sources() types.SourcesUsed {
	return types.SourcesUsed{
		Resume:    in.ResumeFile != nil,
		AnnaAI:    in.Interview != nil,
		Quil:      in.Transcript != nil && in.TranscriptSource == SourceQuil,
		Fireflies: in.Transcript != nil && in.TranscriptSource == SourceFireflies,
	}
}

// Generator resolves prompts and runs model calls.
type Generator struct {
	llm     llm.Client
	prompts prompts.Repository
	files   *resty.Client
}

// NewGenerator wires a model client and a prompt store
func NewGenerator(client llm.Client, repo prompts.Repository) *Generator {
	return &Generator{
		llm:     client,
		prompts: repo,
		files:   resty.New().SetTimeout(downloadTimeout),
	}
}

// Generate resolves the prompt, interpolates vars and runs the model,
// returning fence-stripped HTML.
func (g *Generator) Generate(ctx context.Context, promptID string, vars prompts.Vars, files ...llm.FileRef) (string, error) {
	p, err := g.prompts.Get(ctx, promptID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve prompt %s: %w", promptID, err)
	}

	fullPrompt := prompts.BuildFull(p, vars)
	text, err := g.llm.GenerateContent(ctx, fullPrompt, llm.TierGeneration, files...)
	if err != nil {
		return "", err
	}
	return llm.StripFences(text), nil
}

// GenerateSummary runs the single-candidate flow and reports which sources
// fed the prompt.
func (g *Generator) GenerateSummary(ctx context.Context, in Input) (string, types.SourcesUsed, error) {
	sources := in.Sources()

	interviewData := "{}"
	if in.Interview != nil {
		interviewData = prompts.MarshalData(in.Interview.Fields)
	}
	vars := prompts.Vars{
		CandidateData:     prompts.MarshalData(in.Candidate.Fields),
		JobData:           prompts.MarshalData(in.Job.Fields),
		InterviewData:     interviewData,
		AdditionalContext: in.AdditionalContext,
		Transcript:        in.Transcript,
	}

	var files []llm.FileRef
	if in.ResumeFile != nil {
		files = append(files, *in.ResumeFile)
	}

	html, err := g.Generate(ctx, in.PromptID, vars, files...)
	if err != nil {
		return "", sources, err
	}
	return html, sources, nil
}

// UploadResume downloads a candidate's resume, converts it to a
// model-supported format and uploads it to the file store. Any failure is
// logged and reported as a missing file so generation can proceed on the
// remaining sources.
func (g *Generator) UploadResume(ctx context.Context, resume *types.Resume) *llm.FileRef {
	if resume == nil {
		return nil
	}
	url := resume.Link()
	if url == "" {
		return nil
	}

	resp, err := g.files.R().SetContext(ctx).Get(url)
	if err != nil {
		log.Printf("[summary] resume download failed: %v", err)
		return nil
	}
	if resp.IsError() {
		log.Printf("[summary] resume download failed: status %d", resp.StatusCode())
		return nil
	}

	filename := resume.Filename
	if filename == "" {
		filename = "resume.bin"
	}
	converted, mimeType, err := convert.ToSupportedFormat(resp.Body(), filename)
	if err != nil {
		log.Printf("[summary] resume conversion failed: %v", err)
		return nil
	}

	file, err := g.llm.UploadFile(ctx, converted, mimeType)
	if err != nil {
		log.Printf("[summary] resume upload failed: %v", err)
		return nil
	}
	log.Printf("[summary] resume uploaded as %s (%s)", file.Name, file.MIMEType)
	return file
}

// CleanupFile deletes an uploaded resume, logging rather than failing when
// the delete does not go through.
func (g *Generator) CleanupFile(ctx context.Context, file *llm.FileRef) {
	if file == nil {
		return
	}
	if err := g.llm.DeleteFile(ctx, file.Name); err != nil {
		log.Printf("[summary] failed to delete uploaded file %s: %v", file.Name, err)
	}
}
