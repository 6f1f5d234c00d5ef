package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/outstaffer/candidate-summary-api/internal/llm"
	"github.com/outstaffer/candidate-summary-api/internal/prompts"
	"github.com/outstaffer/candidate-summary-api/internal/recruitcrm"
	"github.com/outstaffer/candidate-summary-api/internal/summary"
	"github.com/outstaffer/candidate-summary-api/internal/types"
)

// handleGenerateMultipleCandidates produces one comparison document covering
// several candidates on a job. Candidate records come from the job's
// assigned-candidates list; resumes are attached to the model call directly.
func (s *Server) handleGenerateMultipleCandidates(w http.ResponseWriter, r *http.Request) {
	var req types.MultiGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.CandidateSlugs) == 0 || req.JobSlug == "" {
		s.errorResponse(w, http.StatusBadRequest, "At least one candidate slug and a job slug are required")
		return
	}
	if req.PromptType == "" {
		req.PromptType = "candidate-submission"
	}
	ctx := r.Context()

	job, err := s.ats.Job(ctx, req.JobSlug)
	if err != nil {
		log.Printf("[multi] job fetch failed: %v", err)
		s.errorResponse(w, http.StatusNotFound, "Failed to fetch job data")
		return
	}

	alpharunJobID := job.CustomFields.Value(recruitcrm.FieldJobID)
	if alpharunJobID == "" {
		log.Printf("[multi] job %s has no AI Job ID, skipping interviews", req.JobSlug)
	}

	assigned, err := s.ats.AssignedCandidates(ctx, req.JobSlug, "")
	if err != nil {
		log.Printf("[multi] assigned candidates fetch failed: %v", err)
	}
	candidateBySlug := make(map[string]*types.Candidate, len(assigned))
	for i := range assigned {
		if c := &assigned[i].Candidate; c.Slug != "" {
			candidateBySlug[c.Slug] = c
		}
	}

	var (
		block       strings.Builder
		resumeFiles []llm.FileRef
		found       int
	)
	defer func() {
		for i := range resumeFiles {
			s.generator.CleanupFile(context.Background(), &resumeFiles[i])
		}
	}()

	for i, slug := range req.CandidateSlugs {
		candidate, ok := candidateBySlug[slug]
		if !ok {
			log.Printf("[multi] candidate %s is not assigned to job %s", slug, req.JobSlug)
			continue
		}
		found++

		if fields, err := s.ats.AssociatedFields(ctx, slug, req.JobSlug); err != nil {
			log.Printf("[multi] associated fields fetch failed for %s: %v", slug, err)
		} else {
			candidate.MergeAssociatedFields(fields)
		}

		var resumeFile *llm.FileRef
		if candidate.HasResume() {
			if resumeFile = s.generator.UploadResume(ctx, candidate.Resume); resumeFile != nil {
				resumeFiles = append(resumeFiles, *resumeFile)
			}
		}

		var interview bool
		if alpharunJobID != "" {
			interviewID, err := s.ats.InterviewID(ctx, slug, req.JobSlug)
			if err != nil || interviewID == "" {
				log.Printf("[multi] candidate %s has no AI interview ID", slug)
			} else if _, err := s.interviews.Interview(ctx, alpharunJobID, interviewID); err != nil {
				log.Printf("[multi] interview fetch failed for %s: %v", slug, err)
			} else {
				interview = true
			}
		}

		// Candidate numbers follow the requested order, keeping gaps
		// where a slug could not be resolved.
		fmt.Fprintf(&block, "\n**CANDIDATE %d: %s %s**\n", i+1, candidate.FirstName, candidate.LastName)
		if resumeFile != nil {
			block.WriteString("Resume: Available for AI analysis\n")
		}
		if interview {
			block.WriteString("Interview: Completed\n")
		}
	}

	if found == 0 {
		s.errorResponse(w, http.StatusBadRequest, "No valid candidate data could be retrieved")
		return
	}

	jobLink := "https://app.recruitcrm.io/jobs/" + req.JobSlug
	vars := prompts.Vars{
		ClientName:         req.ClientName,
		JobURL:             jobLink,
		JobTitle:           job.Name,
		JobData:            prompts.MarshalData(job.Fields),
		CandidatesData:     block.String(),
		PreferredCandidate: req.PreferredCandidate,
		AdditionalContext:  req.AdditionalContext,
	}

	content, err := s.generator.Generate(ctx, req.PromptType, vars, resumeFiles...)
	if err != nil {
		log.Printf("[multi] generation failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "An error occurred: "+err.Error())
		return
	}
	content = strings.ReplaceAll(content, "[HERE_LINK]", `<a href="`+jobLink+`">here</a>`)

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":           true,
		"generated_content": content,
	})
}

type curatedSummary struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	HTML string `json:"html"`
}

// handleProcessCuratedCandidates runs per-candidate summaries for a curated
// slug list and optionally composes the client email from the results, in
// one synchronous request
func (s *Server) handleProcessCuratedCandidates(w http.ResponseWriter, r *http.Request) {
	req := types.NewCuratedProcessRequest()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if !req.GenerateSummaries && !req.GenerateEmail {
		s.errorResponse(w, http.StatusBadRequest, "No action requested.")
		return
	}
	if req.JobSlug == "" || len(req.CandidateSlugs) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "job_slug and candidate_slugs are required.")
		return
	}
	ctx := r.Context()

	job, err := s.ats.Job(ctx, req.JobSlug)
	if err != nil {
		log.Printf("[curated] job fetch failed: %v", err)
		s.errorResponse(w, http.StatusNotFound, "Could not fetch job data for slug: "+req.JobSlug)
		return
	}
	alpharunJobID := job.CustomFields.Value(recruitcrm.FieldJobID)

	summaries := []curatedSummary{}
	failures := map[string]string{}

	for _, slug := range req.CandidateSlugs {
		candidate, err := s.ats.Candidate(ctx, slug)
		if err != nil {
			log.Printf("[curated] candidate fetch failed for %s: %v", slug, err)
			failures[slug] = "Could not fetch candidate data."
			continue
		}
		if fields, err := s.ats.AssociatedFields(ctx, slug, req.JobSlug); err != nil {
			log.Printf("[curated] associated fields fetch failed for %s: %v", slug, err)
		} else {
			candidate.MergeAssociatedFields(fields)
		}
		name := candidate.FullName()

		in := summary.Input{
			PromptID:  req.SinglePromptType,
			Candidate: candidate,
			Job:       job,
		}
		if candidate.HasResume() {
			in.ResumeFile = s.generator.UploadResume(ctx, candidate.Resume)
		}
		if alpharunJobID != "" {
			interviewID, err := s.ats.InterviewID(ctx, slug, req.JobSlug)
			if err == nil && interviewID != "" {
				if iv, err := s.interviews.Interview(ctx, alpharunJobID, interviewID); err != nil {
					log.Printf("[curated] interview fetch failed for %s: %v", slug, err)
				} else {
					in.Interview = iv
				}
			}
		}

		html, _, err := s.generator.GenerateSummary(ctx, in)
		s.generator.CleanupFile(ctx, in.ResumeFile)
		if err != nil || html == "" {
			if err != nil {
				log.Printf("[curated] generation failed for %s: %v", slug, err)
			}
			key := name
			if key == "" {
				key = slug
			}
			failures[key] = "AI failed to generate summary."
			continue
		}

		summaries = append(summaries, curatedSummary{Name: name, Slug: slug, HTML: html})
		if req.AutoPush && req.GenerateSummaries {
			if err := s.ats.UpdateSummary(ctx, slug, html); err != nil {
				log.Printf("[curated] auto push failed for %s: %v", slug, err)
			}
		}
	}

	var emailHTML any
	if req.GenerateEmail && len(summaries) > 0 {
		byName := make(map[string]string, len(summaries))
		var names []string
		for _, item := range summaries {
			byName[item.Name] = item.HTML
			names = append(names, item.Name)
		}
		summariesJSON, err := json.MarshalIndent(byName, "", "  ")
		if err == nil {
			vars := prompts.Vars{
				ClientName:         req.ClientName,
				JobURL:             req.JobURL,
				JobTitle:           job.Name,
				JobData:            prompts.MarshalData(job.Fields),
				ProcessedSummaries: string(summariesJSON),
				CandidateNames:     strings.Join(names, "\n"),
				PreferredCandidate: req.PreferredCandidate,
				AdditionalContext:  req.AdditionalContext,
			}
			email, err := s.generator.Generate(ctx, req.MultiPromptType, vars)
			if err != nil {
				log.Printf("[curated] email generation failed: %v", err)
			} else if email != "" {
				if req.JobURL != "" {
					email = strings.ReplaceAll(email, "[HERE_LINK]", `<a href="`+req.JobURL+`">here</a>`)
				}
				emailHTML = email
			}
		}
	}

	resp := map[string]any{"success": true}
	if req.GenerateSummaries {
		resp["summaries"] = summaries
		resp["failures"] = failures
	}
	if req.GenerateEmail {
		resp["email_html"] = emailHTML
	}
	s.jsonResponse(w, http.StatusOK, resp)
}
