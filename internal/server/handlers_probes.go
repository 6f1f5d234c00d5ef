package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/outstaffer/candidate-summary-api/internal/fireflies"
	"github.com/outstaffer/candidate-summary-api/internal/prompts"
	"github.com/outstaffer/candidate-summary-api/internal/recruitcrm"
	"github.com/outstaffer/candidate-summary-api/internal/types"
)

// handleListPrompts returns the prompt options for a category
func (s *Server) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = prompts.CategorySingle
	}

	options, err := s.prompts.List(r.Context(), category)
	if err != nil {
		log.Printf("[prompts] list failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "Could not retrieve prompt list from server")
		return
	}
	s.jsonResponse(w, http.StatusOK, options)
}

// handleTestCandidate verifies the candidate record is reachable in the ATS
func (s *Server) handleTestCandidate(w http.ResponseWriter, r *http.Request) {
	var req types.TestCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.CandidateSlug == "" {
		s.errorResponse(w, http.StatusBadRequest, "Missing candidate_slug")
		return
	}

	candidate, err := s.ats.Candidate(r.Context(), req.CandidateSlug)
	if err != nil {
		log.Printf("[probe] candidate fetch failed: %v", err)
		s.errorResponse(w, http.StatusNotFound, "Failed to fetch candidate data")
		return
	}

	var interviewID any
	if id := recruitcrm.CleanInterviewID(candidate.CustomFields.Value(recruitcrm.FieldInterviewID)); id != "" {
		interviewID = id
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        "Candidate confirmed",
		"candidate_name": candidate.FullName(),
		"interview_id":   interviewID,
	})
}

// handleTestJob verifies the job record is reachable in the ATS
func (s *Server) handleTestJob(w http.ResponseWriter, r *http.Request) {
	var req types.TestJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.JobSlug == "" {
		s.errorResponse(w, http.StatusBadRequest, "Missing job_slug")
		return
	}

	job, err := s.ats.Job(r.Context(), req.JobSlug)
	if err != nil {
		log.Printf("[probe] job fetch failed: %v", err)
		s.errorResponse(w, http.StatusNotFound, "Failed to fetch job data")
		return
	}

	jobName := job.Name
	if jobName == "" {
		jobName = "Unknown Job"
	}
	var alpharunJobID any
	if id := job.CustomFields.Value(recruitcrm.FieldJobID); id != "" {
		alpharunJobID = id
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         "Job confirmed",
		"job_name":        jobName,
		"alpharun_job_id": alpharunJobID,
	})
}

// handleTestInterview verifies an AI interview can be fetched
func (s *Server) handleTestInterview(w http.ResponseWriter, r *http.Request) {
	var req types.TestInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.InterviewID == "" || req.AlpharunJobID == "" {
		s.errorResponse(w, http.StatusBadRequest, "Missing interview_id or alpharun_job_id")
		return
	}

	interview, err := s.interviews.Interview(r.Context(), req.AlpharunJobID, recruitcrm.CleanInterviewID(req.InterviewID))
	if err != nil {
		log.Printf("[probe] interview fetch failed: %v", err)
		s.errorResponse(w, http.StatusNotFound, "Failed to fetch interview data")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        "Interview confirmed",
		"candidate_name": interview.Contact.FullName(),
	})
}

// handleTestFireflies verifies a Fireflies transcript can be fetched
func (s *Server) handleTestFireflies(w http.ResponseWriter, r *http.Request) {
	var req types.TestFirefliesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.TranscriptURL == "" {
		s.errorResponse(w, http.StatusBadRequest, "Missing transcript_url")
		return
	}

	transcriptID := fireflies.ExtractTranscriptID(req.TranscriptURL)
	if transcriptID == "" {
		s.errorResponse(w, http.StatusBadRequest, "Invalid Fireflies URL or Transcript ID")
		return
	}

	transcript, err := s.fireflies.Transcript(r.Context(), transcriptID)
	if err != nil {
		log.Printf("[probe] fireflies fetch failed: %v", err)
		s.errorResponse(w, http.StatusNotFound, "Failed to fetch transcript data from Fireflies.ai")
		return
	}

	title := transcript.Title
	if title == "" {
		title = "Unknown Title"
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Transcript confirmed",
		"meeting_title": title,
	})
}

// handleTestResume checks whether the candidate has a resume on file
func (s *Server) handleTestResume(w http.ResponseWriter, r *http.Request) {
	var req types.TestResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.CandidateSlug == "" {
		s.errorResponse(w, http.StatusBadRequest, "Missing candidate_slug")
		return
	}

	candidate, err := s.ats.Candidate(r.Context(), req.CandidateSlug)
	if err != nil {
		log.Printf("[probe] candidate fetch failed: %v", err)
		s.errorResponse(w, http.StatusNotFound, "Failed to fetch candidate data to check for resume")
		return
	}

	if !candidate.HasResume() {
		s.jsonResponse(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "No resume on file for this candidate.",
		})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Resume Found",
		"resume_name": candidate.Resume.Filename,
	})
}

// handleTestQuil looks for a Quil interview note matching the job among the
// candidate's notes
func (s *Server) handleTestQuil(w http.ResponseWriter, r *http.Request) {
	var req types.TestQuilRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.CandidateSlug == "" || req.JobSlug == "" {
		s.errorResponse(w, http.StatusBadRequest, "Missing candidate_slug or job_slug")
		return
	}

	notes, err := s.ats.Notes(r.Context(), req.CandidateSlug)
	if err != nil {
		log.Printf("[probe] notes fetch failed: %v", err)
		s.errorResponse(w, http.StatusNotFound, "Failed to fetch candidate notes")
		return
	}

	// The job record only sharpens note matching; a fetch failure falls
	// back to association-order selection.
	var jobTitle, description string
	if job, err := s.ats.Job(r.Context(), req.JobSlug); err == nil {
		jobTitle = job.Name
		description = jobDescription(job)
	} else {
		log.Printf("[probe] job fetch failed during quil lookup: %v", err)
	}

	interview := s.quil.InterviewForJob(r.Context(), notes, req.JobSlug, jobTitle, description)
	if interview == nil {
		s.jsonResponse(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "No Quil interview note found for this candidate and job.",
		})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Quil interview found",
		"note_id":       interview.NoteID,
		"meeting_title": interview.Title,
	})
}
