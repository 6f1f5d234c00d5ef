// Package recruitcrm is a client for the RecruitCRM v1 REST API. It covers
// the record reads the summary pipeline needs plus the three write
// operations used by post-generation actions (summary push, note creation,
// stage move).
package recruitcrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/outstaffer/candidate-summary-api/internal/types"
)

// BaseURL is the production RecruitCRM API root.
const BaseURL = "https://api.recruitcrm.io/v1"

// DefaultTimeout bounds every API call.
const DefaultTimeout = 30 * time.Second

// Custom field names provisioned in the RecruitCRM workspace. The interview
// ID lives either on the candidate record or on the candidate-job
// association; the AlphaRun job opening ID lives on the job record.
const (
	FieldInterviewID = "AI Interview ID"
	FieldJobID       = "AI Job ID"
)

// ErrNotFound reports that the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Error represents a failed RecruitCRM API call.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("recruitcrm %s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("recruitcrm %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Client calls the RecruitCRM API on behalf of one workspace.
type Client struct {
	http *resty.Client
}

// NewClient returns a client authenticated with the workspace API key.
func NewClient(apiKey string) *Client {
	httpClient := resty.New().
		SetBaseURL(BaseURL).
		SetTimeout(DefaultTimeout).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Accept", "application/json")
	return &Client{http: httpClient}
}

// WithBaseURL points the client at a different API root. Tests use this to
// target a local fake server.
func (c *Client) WithBaseURL(url string) *Client {
	c.http.SetBaseURL(url)
	return c
}

// Candidate fetches a candidate record by slug.
func (c *Client) Candidate(ctx context.Context, slug string) (*types.Candidate, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/candidates/" + slug)
	if err != nil {
		return nil, &Error{Op: "fetch candidate", Message: slug, Cause: err}
	}
	if err := checkStatus("fetch candidate", resp); err != nil {
		return nil, err
	}
	cand, err := types.CandidateFromJSON(resp.Body())
	if err != nil {
		return nil, &Error{Op: "fetch candidate", Message: slug, Cause: err}
	}
	return cand, nil
}

// Job fetches a job record by slug, including its custom fields.
func (c *Client) Job(ctx context.Context, slug string) (*types.Job, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("include", "custom_fields").
		Get("/jobs/" + slug)
	if err != nil {
		return nil, &Error{Op: "fetch job", Message: slug, Cause: err}
	}
	if err := checkStatus("fetch job", resp); err != nil {
		return nil, err
	}
	job, err := types.JobFromJSON(resp.Body())
	if err != nil {
		return nil, &Error{Op: "fetch job", Message: slug, Cause: err}
	}
	return job, nil
}

// AssociatedFields fetches the job-specific custom fields recorded against a
// candidate-job pairing. The endpoint keys each field object by an opaque
// ID; only the field objects are returned.
func (c *Client) AssociatedFields(ctx context.Context, candidateSlug, jobSlug string) (types.CustomFields, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/candidates/associated-field/" + candidateSlug + "/" + jobSlug)
	if err != nil {
		return nil, &Error{Op: "fetch associated fields", Message: candidateSlug, Cause: err}
	}
	if err := checkStatus("fetch associated fields", resp); err != nil {
		return nil, err
	}
	var payload struct {
		Data map[string]types.CustomField `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &Error{Op: "fetch associated fields", Message: candidateSlug, Cause: err}
	}
	fields := make(types.CustomFields, 0, len(payload.Data))
	for _, f := range payload.Data {
		fields = append(fields, f)
	}
	return fields, nil
}

// InterviewID resolves the AI interview ID for a candidate, preferring the
// job-specific association over the candidate-level custom field. Returns ""
// when no ID is recorded anywhere. Association lookup failures fall through
// to the candidate record rather than aborting.
func (c *Client) InterviewID(ctx context.Context, candidateSlug, jobSlug string) (string, error) {
	if jobSlug != "" {
		fields, err := c.AssociatedFields(ctx, candidateSlug, jobSlug)
		if err == nil {
			if id := CleanInterviewID(fields.Value(FieldInterviewID)); id != "" {
				return id, nil
			}
		}
	}
	cand, err := c.Candidate(ctx, candidateSlug)
	if err != nil {
		return "", err
	}
	return CleanInterviewID(cand.CustomFields.Value(FieldInterviewID)), nil
}

// Pipeline fetches the account's hiring pipeline stages.
func (c *Client) Pipeline(ctx context.Context) ([]types.PipelineStage, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/hiring-pipeline")
	if err != nil {
		return nil, &Error{Op: "fetch pipeline", Cause: err}
	}
	if err := checkStatus("fetch pipeline", resp); err != nil {
		return nil, err
	}
	body := resp.Body()
	if res := gjson.GetBytes(body, "data"); res.IsArray() {
		body = []byte(res.Raw)
	}
	var stages []types.PipelineStage
	if err := json.Unmarshal(body, &stages); err != nil {
		return nil, &Error{Op: "fetch pipeline", Cause: err}
	}
	return stages, nil
}

// AssignedCandidates lists candidates assigned to a job, optionally filtered
// to one pipeline stage.
func (c *Client) AssignedCandidates(ctx context.Context, jobSlug, statusID string) ([]types.AssignedCandidate, error) {
	req := c.http.R().SetContext(ctx)
	if statusID != "" {
		req.SetQueryParam("status_id", statusID)
	}
	resp, err := req.Get("/jobs/" + jobSlug + "/assigned-candidates")
	if err != nil {
		return nil, &Error{Op: "fetch assigned candidates", Message: jobSlug, Cause: err}
	}
	if err := checkStatus("fetch assigned candidates", resp); err != nil {
		return nil, err
	}
	var payload struct {
		Data []types.AssignedCandidate `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &Error{Op: "fetch assigned candidates", Message: jobSlug, Cause: err}
	}
	return payload.Data, nil
}

// UpdateSummary writes generated HTML into the candidate_summary field of
// the candidate record. RecruitCRM only accepts this update as a multipart
// form post.
func (c *Client) UpdateSummary(ctx context.Context, candidateSlug, html string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{"candidate_summary": html}).
		Post("/candidates/" + candidateSlug)
	if err != nil {
		return &Error{Op: "push summary", Message: candidateSlug, Cause: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return &Error{Op: "push summary", StatusCode: resp.StatusCode(), Message: snippet(resp.String())}
	}
	return nil
}

// Notes lists the notes attached to a candidate record.
func (c *Client) Notes(ctx context.Context, candidateSlug string) ([]types.Note, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/candidates/" + candidateSlug + "/notes")
	if err != nil {
		return nil, &Error{Op: "fetch notes", Message: candidateSlug, Cause: err}
	}
	if err := checkStatus("fetch notes", resp); err != nil {
		return nil, err
	}
	var payload struct {
		Data []types.Note `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &Error{Op: "fetch notes", Message: candidateSlug, Cause: err}
	}
	return payload.Data, nil
}

// CreateNote attaches a note to a candidate record, optionally associating
// it with a job.
func (c *Client) CreateNote(ctx context.Context, candidateSlug, description, jobSlug string) error {
	form := map[string]string{"description": description}
	if jobSlug != "" {
		form["related_job_slug"] = jobSlug
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(form).
		Post("/candidates/" + candidateSlug + "/notes")
	if err != nil {
		return &Error{Op: "create note", Message: candidateSlug, Cause: err}
	}
	if resp.IsError() {
		return &Error{Op: "create note", StatusCode: resp.StatusCode(), Message: snippet(resp.String())}
	}
	return nil
}

// MoveStage moves a candidate to the given pipeline stage on a job.
func (c *Client) MoveStage(ctx context.Context, candidateSlug, jobSlug string, stageID int) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]int{"status_id": stageID}).
		Post("/candidates/" + candidateSlug + "/hiring-stages/" + jobSlug)
	if err != nil {
		return &Error{Op: "move stage", Message: candidateSlug, Cause: err}
	}
	if resp.IsError() {
		return &Error{Op: "move stage", StatusCode: resp.StatusCode(), Message: snippet(resp.String())}
	}
	return nil
}

// CleanInterviewID strips anything after a "?" from a pasted interview ID.
// Recruiters paste interview links with tracking query strings attached.
func CleanInterviewID(raw string) string {
	id, _, _ := strings.Cut(raw, "?")
	return strings.TrimSpace(id)
}

func checkStatus(op string, resp *resty.Response) error {
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return &Error{Op: op, StatusCode: http.StatusNotFound, Message: "not found", Cause: ErrNotFound}
	case resp.IsError():
		return &Error{Op: op, StatusCode: resp.StatusCode(), Message: snippet(resp.String())}
	}
	return nil
}

// snippet trims an error body for inclusion in an error message.
func snippet(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > 200 {
		return body[:200]
	}
	if body == "" {
		return "request failed"
	}
	return body
}
