package bulkjobs

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	job := NewJob("backend-eng", "summary-for-platform-v2", []string{"cand-1", "cand-2"})

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, StatusProcessing, job.Status)
	assert.Equal(t, "backend-eng", job.JobSlug)
	assert.Equal(t, "summary-for-platform-v2", job.PromptID)
	assert.Equal(t, 2, job.TotalCandidates)
	assert.Equal(t, 0, job.ProcessedCount)
	require.Len(t, job.Results, 2)
	assert.Equal(t, CandidateResult{Status: StatusPending}, job.Results["cand-1"])
	assert.Equal(t, CandidateResult{Status: StatusPending}, job.Results["cand-2"])
}

func TestProgress(t *testing.T) {
	job := NewJob("backend-eng", "p", []string{"a", "b", "c"})
	job.Results["a"] = CandidateResult{Status: StatusSuccess, Summary: "<p>ok</p>"}
	job.Results["b"] = CandidateResult{Status: StatusFailed, Error: "boom"}

	processed, failed := job.Progress()
	assert.Equal(t, 2, processed)
	assert.Equal(t, 1, failed)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	job := NewJob("backend-eng", "p", []string{"a"})
	store.Create(job)

	got, ok := store.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, job.ID, got.ID)

	// A snapshot must not share state with the stored job.
	got.Results["a"] = CandidateResult{Status: StatusFailed, Error: "tampered"}
	got.Status = StatusFailed
	fresh, ok := store.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusProcessing, fresh.Status)
	assert.Equal(t, StatusPending, fresh.Results["a"].Status)

	store.Update(job.ID, func(j *Job) {
		j.Status = StatusComplete
		j.Results["a"] = CandidateResult{Status: StatusSuccess, Summary: "<p>ok</p>"}
	})
	updated, ok := store.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusComplete, updated.Status)
	assert.Equal(t, "<p>ok</p>", updated.Results["a"].Summary)

	_, ok = store.Get("nope")
	assert.False(t, ok)

	// Update on an unknown id is a no-op
	store.Update("nope", func(j *Job) { j.Status = StatusFailed })
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	job := NewJob("backend-eng", "p", []string{"a"})
	store.Create(job)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Update(job.ID, func(j *Job) { j.ProcessedCount++ })
		}()
		go func() {
			defer wg.Done()
			store.Get(job.ID)
		}()
	}
	wg.Wait()

	got, ok := store.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, 50, got.ProcessedCount)
}
