package bulkjobs

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/outstaffer/candidate-summary-api/internal/alpharun"
	"github.com/outstaffer/candidate-summary-api/internal/llm"
	"github.com/outstaffer/candidate-summary-api/internal/recruitcrm"
	"github.com/outstaffer/candidate-summary-api/internal/summary"
	"github.com/outstaffer/candidate-summary-api/internal/types"
)

// Failure messages surfaced verbatim in job and per-candidate results.
var (
	errJobFetch       = errors.New("Could not fetch job data.")
	errCandidateFetch = errors.New("Could not fetch candidate data.")
	errNoSummary      = errors.New("AI failed to generate summary.")
)

// ATS is the slice of the RecruitCRM client the runner consumes.
type ATS interface {
	Candidate(ctx context.Context, slug string) (*types.Candidate, error)
	Job(ctx context.Context, slug string) (*types.Job, error)
	AssociatedFields(ctx context.Context, candidateSlug, jobSlug string) (types.CustomFields, error)
	InterviewID(ctx context.Context, candidateSlug, jobSlug string) (string, error)
}

// Interviews fetches AI interview records.
type Interviews interface {
	Interview(ctx context.Context, jobOpeningID, interviewID string) (*alpharun.Interview, error)
}

// Generator produces candidate summaries.
type Generator interface {
	UploadResume(ctx context.Context, resume *types.Resume) *llm.FileRef
	GenerateSummary(ctx context.Context, in summary.Input) (string, types.SourcesUsed, error)
}

// Runner works through a bulk job's candidates sequentially, recording each
// outcome in the store.
type Runner struct {
	store      Store
	ats        ATS
	interviews Interviews
	generator  Generator
}

// NewRunner wires a runner to its store and upstream clients.
func NewRunner(store Store, ats ATS, interviews Interviews, generator Generator) *Runner {
	return &Runner{store: store, ats: ats, interviews: interviews, generator: generator}
}

// Run processes every candidate in the job and moves the job to a terminal
// status. A candidate failure is recorded in its result and does not stop
// the run. Intended to be launched in its own goroutine after Store.Create.
func (r *Runner) Run(ctx context.Context, jobID string) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[bulk] job %s: fatal: %v", jobID, p)
			r.fail(jobID, fmt.Sprintf("%v", p))
		}
	}()

	job, ok := r.store.Get(jobID)
	if !ok {
		log.Printf("[bulk] job %s missing from store", jobID)
		return
	}

	jobRecord, err := r.ats.Job(ctx, job.JobSlug)
	if err != nil {
		log.Printf("[bulk] job %s: fetching job %s: %v", jobID, job.JobSlug, err)
		r.fail(jobID, errJobFetch.Error())
		return
	}
	alpharunJobID := jobRecord.CustomFields.Value(recruitcrm.FieldJobID)

	for _, slug := range job.CandidateSlugs {
		if err := r.processCandidate(ctx, job, jobRecord, alpharunJobID, slug); err != nil {
			log.Printf("[bulk] job %s: candidate %s: %v", jobID, slug, err)
			r.store.Update(jobID, func(j *Job) {
				j.Results[slug] = CandidateResult{Status: StatusFailed, Error: err.Error()}
			})
		}
		r.store.Update(jobID, func(j *Job) { j.ProcessedCount++ })
	}

	r.store.Update(jobID, func(j *Job) { j.Status = StatusComplete })
	log.Printf("[bulk] job %s complete", jobID)
}

func (r *Runner) processCandidate(ctx context.Context, job *Job, jobRecord *types.Job, alpharunJobID, slug string) error {
	cand, err := r.ats.Candidate(ctx, slug)
	if err != nil {
		log.Printf("[bulk] candidate %s: %v", slug, err)
		return errCandidateFetch
	}

	if fields, err := r.ats.AssociatedFields(ctx, slug, job.JobSlug); err != nil {
		log.Printf("[bulk] candidate %s: associated fields lookup failed: %v", slug, err)
	} else {
		cand.MergeAssociatedFields(fields)
	}

	var resumeFile *llm.FileRef
	if cand.HasResume() {
		resumeFile = r.generator.UploadResume(ctx, cand.Resume)
	}

	// Interview lookup is candidate-level here: bulk candidates may not
	// have the interview ID stored on the job association yet.
	var interview *alpharun.Interview
	if alpharunJobID != "" {
		interviewID, err := r.ats.InterviewID(ctx, slug, "")
		if err != nil {
			log.Printf("[bulk] candidate %s: interview id lookup failed: %v", slug, err)
		} else if interviewID != "" {
			interview, err = r.interviews.Interview(ctx, alpharunJobID, interviewID)
			if err != nil {
				log.Printf("[bulk] candidate %s: interview fetch failed: %v", slug, err)
				interview = nil
			}
		}
	}

	html, _, err := r.generator.GenerateSummary(ctx, summary.Input{
		PromptID:   job.PromptID,
		Candidate:  cand,
		Job:        jobRecord,
		Interview:  interview,
		ResumeFile: resumeFile,
	})
	if err != nil {
		log.Printf("[bulk] candidate %s: generation failed: %v", slug, err)
		return errNoSummary
	}
	if html == "" {
		return errNoSummary
	}

	r.store.Update(job.ID, func(j *Job) {
		j.Results[slug] = CandidateResult{Status: StatusSuccess, Summary: html}
	})
	return nil
}

func (r *Runner) fail(jobID, msg string) {
	r.store.Update(jobID, func(j *Job) {
		j.Status = StatusFailed
		j.Error = msg
	})
}
