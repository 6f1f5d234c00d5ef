package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/outstaffer/candidate-summary-api/internal/fireflies"
	"github.com/outstaffer/candidate-summary-api/internal/recruitcrm"
	"github.com/outstaffer/candidate-summary-api/internal/store"
	"github.com/outstaffer/candidate-summary-api/internal/summary"
	"github.com/outstaffer/candidate-summary-api/internal/types"
)

// handleGenerateSummary assembles every available data source for the
// candidate and generates an HTML brief. Candidate and job records are
// required; interview, resume and transcripts attach when reachable.
func (s *Server) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.CandidateSlug == "" || req.JobSlug == "" {
		s.errorResponse(w, http.StatusBadRequest, "Missing required RecruitCRM fields")
		return
	}
	if req.PromptType == "" {
		req.PromptType = "recruitment.detailed"
	}
	ctx := r.Context()

	var (
		candidate *types.Candidate
		job       *types.Job
	)
	var g errgroup.Group
	g.Go(func() error {
		c, err := s.ats.Candidate(ctx, req.CandidateSlug)
		if err != nil {
			return fmt.Errorf("candidate fetch: %w", err)
		}
		candidate = c
		return nil
	})
	g.Go(func() error {
		j, err := s.ats.Job(ctx, req.JobSlug)
		if err != nil {
			return fmt.Errorf("job fetch: %w", err)
		}
		job = j
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Printf("[generate] %v", err)
	}

	var missing []string
	if candidate == nil {
		missing = append(missing, "candidate")
	}
	if job == nil {
		missing = append(missing, "job")
	}
	if len(missing) > 0 {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to fetch data from: "+strings.Join(missing, ", "))
		return
	}

	if fields, err := s.ats.AssociatedFields(ctx, req.CandidateSlug, req.JobSlug); err != nil {
		log.Printf("[generate] associated fields fetch failed: %v", err)
	} else {
		candidate.MergeAssociatedFields(fields)
	}

	in := summary.Input{
		PromptID:          req.PromptType,
		Candidate:         candidate,
		Job:               job,
		AdditionalContext: req.AdditionalContext,
	}

	if interviewID := recruitcrm.CleanInterviewID(req.InterviewID); interviewID != "" && req.AlpharunJobID != "" {
		iv, err := s.interviews.Interview(ctx, req.AlpharunJobID, interviewID)
		if err != nil {
			log.Printf("[generate] interview fetch failed: %v", err)
		} else {
			in.Interview = iv
		}
	}

	if candidate.HasResume() {
		if file := s.generator.UploadResume(ctx, candidate.Resume); file != nil {
			in.ResumeFile = file
			defer s.generator.CleanupFile(context.Background(), file)
		}
	}

	// A Quil note takes precedence over a Fireflies transcript when both
	// are requested.
	if req.UseQuil {
		if transcript := s.quilTranscript(ctx, req.CandidateSlug, req.JobSlug, job); transcript != nil {
			in.Transcript = transcript
			in.TranscriptSource = summary.SourceQuil
		}
	}
	if in.Transcript == nil && req.FirefliesURL != "" {
		if id := fireflies.ExtractTranscriptID(req.FirefliesURL); id == "" {
			log.Printf("[generate] invalid fireflies transcript reference: %q", req.FirefliesURL)
		} else if raw, err := s.fireflies.Transcript(ctx, id); err != nil {
			log.Printf("[generate] fireflies fetch failed: %v", err)
		} else {
			t := fireflies.Normalize(raw)
			in.Transcript = &t
			in.TranscriptSource = summary.SourceFireflies
		}
	}

	html, sources, err := s.generator.GenerateSummary(ctx, in)
	if err != nil {
		log.Printf("[generate] generation failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if html == "" {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to generate summary from AI model")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":        true,
		"html_summary":   html,
		"candidate_slug": req.CandidateSlug,
		"sources_used":   sources,
	})
}

// quilTranscript looks for a Quil interview note matching the job among the
// candidate's notes. Failures are logged and reported as no transcript.
func (s *Server) quilTranscript(ctx context.Context, candidateSlug, jobSlug string, job *types.Job) *types.Transcript {
	notes, err := s.ats.Notes(ctx, candidateSlug)
	if err != nil {
		log.Printf("[quil] notes fetch failed: %v", err)
		return nil
	}
	var jobTitle, description string
	if job != nil {
		jobTitle = job.Name
		description = jobDescription(job)
	}
	iv := s.quil.InterviewForJob(ctx, notes, jobSlug, jobTitle, description)
	if iv == nil {
		return nil
	}
	return &types.Transcript{Title: iv.Title, Content: iv.SummaryHTML}
}

// jobDescription pulls the plain-text description from the raw job payload.
func jobDescription(job *types.Job) string {
	if job == nil {
		return ""
	}
	if text, ok := job.Fields["job_description_text"].(string); ok {
		return text
	}
	return ""
}

// handlePushToRecruitCRM writes a generated summary back onto the candidate
// record
func (s *Server) handlePushToRecruitCRM(w http.ResponseWriter, r *http.Request) {
	var req types.PushSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.CandidateSlug == "" || req.HTMLSummary == "" {
		s.errorResponse(w, http.StatusBadRequest, "Missing candidate slug or HTML summary")
		return
	}

	if err := s.ats.UpdateSummary(r.Context(), req.CandidateSlug, req.HTMLSummary); err != nil {
		log.Printf("[push] summary update failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to update RecruitCRM: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Summary pushed to RecruitCRM successfully",
	})
}

// handleCreateNote creates a tracking note on the candidate, associated with
// the job when a slug is given
func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req types.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.CandidateSlug == "" || req.NoteHTML == "" {
		s.errorResponse(w, http.StatusBadRequest, "Missing candidate_slug or note_html")
		return
	}

	if req.TriggeredByEmail != "" {
		log.Printf("[note] creating tracking note for %s triggered by %s", req.CandidateSlug, req.TriggeredByEmail)
	}
	if err := s.ats.CreateNote(r.Context(), req.CandidateSlug, req.NoteHTML, req.JobSlug); err != nil {
		log.Printf("[note] note creation failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to create note: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Note created successfully",
	})
}

// handleMoveStage moves the candidate to a hiring pipeline stage on the job
func (s *Server) handleMoveStage(w http.ResponseWriter, r *http.Request) {
	var req types.MoveStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.CandidateSlug == "" || req.JobSlug == "" || req.TargetStageID == 0 {
		s.errorResponse(w, http.StatusBadRequest, "Missing candidate_slug, job_slug, or target_stage_id")
		return
	}

	if err := s.ats.MoveStage(r.Context(), req.CandidateSlug, req.JobSlug, req.TargetStageID); err != nil {
		log.Printf("[stage] stage move failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to move stage: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Stage move triggered",
	})
}

// handleLogFeedback records reviewer feedback on a generated summary
func (s *Server) handleLogFeedback(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusInternalServerError, "Firestore is not configured on the server")
		return
	}

	var req types.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	fb := &store.Feedback{
		Rating:               req.Rating,
		Comments:             req.Comments,
		PromptType:           req.PromptType,
		GeneratedSummaryHTML: req.GeneratedSummaryHTML,
		CandidateSlug:        req.CandidateSlug,
		JobSlug:              req.JobSlug,
	}
	if err := s.store.LogFeedback(r.Context(), fb); err != nil {
		log.Printf("[feedback] logging failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "An error occurred: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Feedback logged successfully",
	})
}
