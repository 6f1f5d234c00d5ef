// Package bulkjobs tracks asynchronous multi-candidate summary runs. A job
// is created when the bulk endpoint accepts a request, mutated by the runner
// as candidates are processed, and polled through the status endpoint.
package bulkjobs

import (
	"sync"

	"github.com/google/uuid"
)

// Job statuses. A job moves processing -> complete or processing -> failed
// and never leaves a terminal status.
const (
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusFailed     = "failed"
)

// Per-candidate result statuses
const (
	StatusPending = "pending"
	StatusSuccess = "success"
)

// CandidateResult is the outcome for one candidate within a bulk job.
type CandidateResult struct {
	Status  string `json:"status"`
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Job is the tracked state of one bulk summary run.
type Job struct {
	ID              string
	Status          string
	JobSlug         string
	PromptID        string
	CandidateSlugs  []string
	TotalCandidates int
	ProcessedCount  int
	Results         map[string]CandidateResult
	EmailHTML       string
	Error           string
}

// NewJob builds a job in the processing state with every candidate pending.
func NewJob(jobSlug, promptID string, candidateSlugs []string) *Job {
	results := make(map[string]CandidateResult, len(candidateSlugs))
	for _, slug := range candidateSlugs {
		results[slug] = CandidateResult{Status: StatusPending}
	}
	return &Job{
		ID:              uuid.NewString(),
		Status:          StatusProcessing,
		JobSlug:         jobSlug,
		PromptID:        promptID,
		CandidateSlugs:  append([]string(nil), candidateSlugs...),
		TotalCandidates: len(candidateSlugs),
		Results:         results,
	}
}

// Progress derives processed and failed counts from per-candidate results,
// so a poll sees counts consistent with the results map it ships with.
func (j *Job) Progress() (processed, failed int) {
	for _, r := range j.Results {
		if r.Status != StatusPending {
			processed++
		}
		if r.Status == StatusFailed {
			failed++
		}
	}
	return processed, failed
}

func (j *Job) clone() *Job {
	copied := *j
	copied.CandidateSlugs = append([]string(nil), j.CandidateSlugs...)
	copied.Results = make(map[string]CandidateResult, len(j.Results))
	for slug, r := range j.Results {
		copied.Results[slug] = r
	}
	return &copied
}

// Store tracks bulk jobs. Implementations must be safe for concurrent use;
// the runner mutates jobs from a background goroutine while the status
// endpoint reads them.
type Store interface {
	// Create registers a new job under its ID
	Create(job *Job)
	// Get returns a snapshot of a job, or false when the ID is unknown
	Get(id string) (*Job, bool)
	// Update applies fn to the stored job under the store's lock
	Update(id string, fn func(*Job))
}

// MemoryStore keeps jobs in a mutex-guarded map. Job state does not survive
// a restart; a multi-instance deploy would back this with Redis or
// Firestore instead.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryStore returns an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

// Create registers a new job under its ID.
func (s *MemoryStore) Create(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Get returns a snapshot of a job. Mutating the snapshot does not affect
// the stored job.
func (s *MemoryStore) Get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return job.clone(), true
}

// Update applies fn to the stored job while holding the write lock. Unknown
// IDs are ignored.
func (s *MemoryStore) Update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}
