package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/outstaffer/candidate-summary-api/internal/bulkjobs"
	"github.com/outstaffer/candidate-summary-api/internal/prompts"
	"github.com/outstaffer/candidate-summary-api/internal/types"
)

// handleJobStagesWithCounts lists the pipeline stages that hold at least one
// of the job's candidates, with per-stage counts
func (s *Server) handleJobStagesWithCounts(w http.ResponseWriter, r *http.Request) {
	jobSlug := r.PathValue("job_slug")

	candidates, err := s.ats.AssignedCandidates(r.Context(), jobSlug, "")
	if err != nil {
		log.Printf("[bulk] assigned candidates fetch failed: %v", err)
	}
	if len(candidates) == 0 {
		s.errorResponse(w, http.StatusNotFound, "No candidates found for this job or job not found.")
		return
	}

	stageCounts := make(map[int]int)
	for _, c := range candidates {
		if c.Status.StatusID != 0 {
			stageCounts[c.Status.StatusID]++
		}
	}

	pipeline, err := s.ats.Pipeline(r.Context())
	if err != nil || len(pipeline) == 0 {
		log.Printf("[bulk] pipeline fetch failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "Could not fetch the hiring pipeline.")
		return
	}

	stages := []map[string]any{}
	for _, stage := range pipeline {
		if count := stageCounts[stage.StatusID]; count > 0 {
			stages = append(stages, map[string]any{
				"status_id":       stage.StatusID,
				"label":           stage.Label,
				"candidate_count": count,
			})
		}
	}
	s.jsonResponse(w, http.StatusOK, stages)
}

// handleCandidatesInStage lists slug and name for every candidate sitting in
// one pipeline stage of a job
func (s *Server) handleCandidatesInStage(w http.ResponseWriter, r *http.Request) {
	jobSlug := r.PathValue("job_slug")
	stageID := r.PathValue("stage_id")

	candidates, err := s.ats.AssignedCandidates(r.Context(), jobSlug, stageID)
	if err != nil {
		log.Printf("[bulk] assigned candidates fetch failed: %v", err)
	}

	formatted := []map[string]any{}
	for _, c := range candidates {
		if c.Candidate.Slug == "" {
			continue
		}
		formatted = append(formatted, map[string]any{
			"slug": c.Candidate.Slug,
			"name": c.Candidate.FullName(),
		})
	}
	s.jsonResponse(w, http.StatusOK, formatted)
}

// handleBulkProcessJob accepts a bulk summary run and processes it in the
// background. The response carries the job ID for status polling.
func (s *Server) handleBulkProcessJob(w http.ResponseWriter, r *http.Request) {
	var req types.BulkProcessJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.JobURL == "" || req.SinglePrompt == "" || len(req.CandidateSlugs) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "Missing job_url, single_candidate_prompt, or candidate_slugs")
		return
	}

	parts := strings.Split(req.JobURL, "/")
	jobSlug := parts[len(parts)-1]

	job := bulkjobs.NewJob(jobSlug, req.SinglePrompt, req.CandidateSlugs)
	s.bulkStore.Create(job)
	// The run outlives this request, so it cannot inherit its context.
	go s.bulkRunner.Run(context.Background(), job.ID)

	s.jsonResponse(w, http.StatusAccepted, map[string]any{
		"message": "Job started",
		"job_id":  job.ID,
	})
}

// handleBulkJobStatus reports progress and per-candidate results for a bulk
// run
func (s *Server) handleBulkJobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.bulkStore.Get(r.PathValue("job_id"))
	if !ok {
		s.errorResponse(w, http.StatusNotFound, "Job not found")
		return
	}

	processed, failed := job.Progress()
	var emailHTML, jobErr any
	if job.EmailHTML != "" {
		emailHTML = job.EmailHTML
	}
	if job.Error != "" {
		jobErr = job.Error
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":           job.Status,
		"total_candidates": job.TotalCandidates,
		"processed_count":  processed,
		"failed_count":     failed,
		"results":          job.Results,
		"email_html":       emailHTML,
		"error":            jobErr,
	})
}

// handleGenerateBulkEmail produces the client-facing email from a completed
// bulk run's summaries and stores it on the job
func (s *Server) handleGenerateBulkEmail(w http.ResponseWriter, r *http.Request) {
	var req types.BulkEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.JobID == "" || req.MultiPrompt == "" {
		s.errorResponse(w, http.StatusBadRequest, "Missing job_id or multi_candidate_prompt")
		return
	}

	job, ok := s.bulkStore.Get(req.JobID)
	if !ok || job.Status != bulkjobs.StatusComplete {
		s.errorResponse(w, http.StatusNotFound, "Job not found or not yet complete")
		return
	}
	ctx := r.Context()

	// The job record only feeds prompt context; generation proceeds with
	// empty fields when the fetch fails.
	jobTitle := ""
	jobData := "{}"
	companyName := ""
	if jobRecord, err := s.ats.Job(ctx, job.JobSlug); err != nil {
		log.Printf("[bulk-email] job fetch failed: %v", err)
	} else {
		jobTitle = jobRecord.Name
		jobData = prompts.MarshalData(jobRecord.Fields)
		companyName = jobRecord.CompanyName()
	}

	nameBySlug := make(map[string]string)
	if assigned, err := s.ats.AssignedCandidates(ctx, job.JobSlug, ""); err != nil {
		log.Printf("[bulk-email] assigned candidates fetch failed: %v", err)
	} else {
		for _, a := range assigned {
			if a.Candidate.Slug != "" {
				nameBySlug[a.Candidate.Slug] = a.Candidate.FullName()
			}
		}
	}

	summaries := make(map[string]string)
	var names []string
	for _, slug := range job.CandidateSlugs {
		result, ok := job.Results[slug]
		if !ok || result.Status != bulkjobs.StatusSuccess {
			continue
		}
		key := nameBySlug[slug]
		if key == "" {
			key = slug
		}
		summaries[key] = result.Summary
		names = append(names, key)
	}
	if len(summaries) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "No successful summaries available to generate an email.")
		return
	}

	summariesJSON, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	clientName := req.ClientName
	if clientName == "" {
		clientName = companyName
	}
	if clientName == "" {
		clientName = "Valued Client"
	}

	vars := prompts.Vars{
		ClientName:         clientName,
		JobURL:             req.OutstafferPlatformURL,
		JobTitle:           jobTitle,
		JobData:            jobData,
		ProcessedSummaries: string(summariesJSON),
		CandidateNames:     strings.Join(names, "\n"),
		PreferredCandidate: req.PreferredCandidate,
		AdditionalContext:  req.AdditionalContext,
	}

	email, err := s.generator.Generate(ctx, req.MultiPrompt, vars)
	if err != nil {
		log.Printf("[bulk-email] generation failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if email == "" {
		s.errorResponse(w, http.StatusInternalServerError, "AI model failed to generate email content.")
		return
	}

	linkURL := req.OutstafferPlatformURL
	if linkURL == "" {
		linkURL = "https://app.recruitcrm.io/jobs/" + job.JobSlug
	}
	email = strings.ReplaceAll(email, "[HERE_LINK]", `<a href="`+linkURL+`">here</a>`)

	s.bulkStore.Update(job.ID, func(j *bulkjobs.Job) {
		j.EmailHTML = email
	})
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":    true,
		"email_html": email,
	})
}
