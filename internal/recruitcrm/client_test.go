package recruitcrm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanInterviewID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain id", raw: "cint_abc123", want: "cint_abc123"},
		{name: "tracking query stripped", raw: "cint_abc123?utm_source=mail", want: "cint_abc123"},
		{name: "query only", raw: "?utm_source=mail", want: ""},
		{name: "surrounding whitespace", raw: "  cint_abc123  ", want: "cint_abc123"},
		{name: "empty", raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanInterviewID(tt.raw))
		})
	}
}

func TestCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/candidates/cand-1", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"slug": "cand-1", "first_name": "Ana", "last_name": "Reyes"}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key").WithBaseURL(srv.URL)
	cand, err := client.Candidate(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, "cand-1", cand.Slug)
	assert.Equal(t, "Ana Reyes", cand.FullName())
}

func TestCandidate_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "no such record"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient("test-key").WithBaseURL(srv.URL)
	_, err := client.Candidate(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInterviewID_PrefersJobAssociation(t *testing.T) {
	candidateCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/candidates/associated-field/cand-1/job-1":
			_, _ = w.Write([]byte(`{"data": {
				"17": {"label": "AI Interview ID", "value": "cint_job?utm_source=crm"},
				"18": {"label": "Notice Period", "value": "30 days"}
			}}`))
		case "/candidates/cand-1":
			candidateCalls++
			_, _ = w.Write([]byte(`{"data": {"slug": "cand-1", "custom_fields": [{"field_name": "AI Interview ID", "value": "cint_candidate"}]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient("test-key").WithBaseURL(srv.URL)
	id, err := client.InterviewID(context.Background(), "cand-1", "job-1")
	require.NoError(t, err)
	assert.Equal(t, "cint_job", id)
	assert.Zero(t, candidateCalls, "candidate record should not be fetched when the association has an ID")
}

func TestInterviewID_FallsBackToCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/candidates/associated-field/cand-1/job-1":
			_, _ = w.Write([]byte(`{"data": {"18": {"label": "Notice Period", "value": "30 days"}}}`))
		case "/candidates/cand-1":
			_, _ = w.Write([]byte(`{"data": {"slug": "cand-1", "custom_fields": [{"field_name": "AI Interview ID", "value": "cint_candidate?ref=x"}]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient("test-key").WithBaseURL(srv.URL)
	id, err := client.InterviewID(context.Background(), "cand-1", "job-1")
	require.NoError(t, err)
	assert.Equal(t, "cint_candidate", id)
}

func TestInterviewID_NoneRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/candidates/associated-field/cand-1/job-1":
			http.Error(w, "{}", http.StatusInternalServerError)
		case "/candidates/cand-1":
			_, _ = w.Write([]byte(`{"data": {"slug": "cand-1", "custom_fields": []}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient("test-key").WithBaseURL(srv.URL)
	id, err := client.InterviewID(context.Background(), "cand-1", "job-1")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestJob_RequestsCustomFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/job-1", r.URL.Path)
		assert.Equal(t, "custom_fields", r.URL.Query().Get("include"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"slug": "job-1", "name": "Backend Engineer", "custom_fields": [{"field_name": "AI Job ID", "value": "jo_42"}]}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key").WithBaseURL(srv.URL)
	job, err := client.Job(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", job.Name)
	assert.Equal(t, "jo_42", job.CustomFields.Value(FieldJobID))
}

func TestUpdateSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/candidates/cand-1", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "<p>Summary</p>", r.FormValue("candidate_summary"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient("test-key").WithBaseURL(srv.URL)
	require.NoError(t, client.UpdateSummary(context.Background(), "cand-1", "<p>Summary</p>"))
}

func TestUpdateSummary_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "field is read only"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient("test-key").WithBaseURL(srv.URL)
	err := client.UpdateSummary(context.Background(), "cand-1", "<p>Summary</p>")
	require.Error(t, err)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
}

func TestAssignedCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/job-1/assigned-candidates", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("status_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [
			{"candidate": {"slug": "cand-1", "first_name": "Ana", "last_name": "Reyes"}, "status": {"status_id": 42}},
			{"candidate": {"slug": "cand-2", "first_name": "Ben", "last_name": "Cruz"}, "status": {"status_id": 42}}
		]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key").WithBaseURL(srv.URL)
	assigned, err := client.AssignedCandidates(context.Background(), "job-1", "42")
	require.NoError(t, err)
	require.Len(t, assigned, 2)
	assert.Equal(t, "Ana Reyes", assigned[0].Candidate.FullName())
	assert.Equal(t, 42, assigned[0].Status.StatusID)
}

func TestPipeline(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bare array", body: `[{"status_id": 1, "label": "Sourced"}, {"status_id": 2, "label": "Interviewing"}]`},
		{name: "data wrapped", body: `{"data": [{"status_id": 1, "label": "Sourced"}, {"status_id": 2, "label": "Interviewing"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/hiring-pipeline", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key").WithBaseURL(srv.URL)
			stages, err := client.Pipeline(context.Background())
			require.NoError(t, err)
			require.Len(t, stages, 2)
			assert.Equal(t, "Sourced", stages[0].Label)
		})
	}
}

func TestNotesAndCreateNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/candidates/cand-1/notes":
			_, _ = w.Write([]byte(`{"data": [{"id": 7, "description": "Quil 5/2/2024: Final round", "associated_jobs": ["job-1"]}]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/candidates/cand-1/notes":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Contains(t, r.FormValue("description"), "AI Summary Run")
			assert.Equal(t, "job-1", r.FormValue("related_job_slug"))
			w.WriteHeader(http.StatusCreated)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient("test-key").WithBaseURL(srv.URL)
	notes, err := client.Notes(context.Background(), "cand-1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, 7, notes[0].ID)
	assert.Contains(t, notes[0].AssociatedJobs, "job-1")

	require.NoError(t, client.CreateNote(context.Background(), "cand-1", "AI Summary Run - Report", "job-1"))
}

func TestMoveStage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/candidates/cand-1/hiring-stages/job-1", r.URL.Path)
		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 726195, body["status_id"])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient("test-key").WithBaseURL(srv.URL)
	require.NoError(t, client.MoveStage(context.Background(), "cand-1", "job-1", 726195))
}
