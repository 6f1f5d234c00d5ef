package worker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// RequestTimeout bounds probe and post-action calls. Generation gets twice
// this long since the model call dominates its latency.
const RequestTimeout = 60 * time.Second

// Client drives the candidate-summary API on behalf of the worker,
// replaying the same HTTP flow a UI session would.
type Client struct {
	http       *resty.Client
	generation *resty.Client
}

// NewClient returns a client rooted at the API base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		http:       newAPIClient(baseURL, RequestTimeout),
		generation: newAPIClient(baseURL, 2*RequestTimeout),
	}
}

func newAPIClient(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
}

// ProbeResult is the outcome of one data-source availability check.
type ProbeResult struct {
	Success bool
	Error   string
	Data    map[string]any
}

// Probe posts the slug pair to one of the test endpoints. Transport and
// HTTP failures land in Error rather than an error return so the
// orchestrator treats every probe outcome uniformly.
func (c *Client) Probe(ctx context.Context, path, candidateSlug, jobSlug string) ProbeResult {
	var body map[string]any
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"candidate_slug": candidateSlug, "job_slug": jobSlug}).
		SetResult(&body).
		Post(path)
	if err != nil {
		return ProbeResult{Error: err.Error()}
	}
	if resp.IsError() {
		return ProbeResult{Error: fmt.Sprintf("%s returned status %d", path, resp.StatusCode())}
	}
	if boolField(body, "available") || boolField(body, "success") {
		return ProbeResult{Success: true, Data: body}
	}
	msg, _ := body["message"].(string)
	if msg == "" {
		msg = "Not available"
	}
	return ProbeResult{Error: msg, Data: body}
}

// GenerateResult reports one generation attempt.
type GenerateResult struct {
	Success         bool
	SummaryLength   int
	DurationSeconds float64
	Error           string
	Data            map[string]any
}

// Generate asks the API to build the summary, forwarding the resolved run
// configuration so the server applies the same prompt and source toggles a
// UI user would have picked.
func (c *Client) Generate(ctx context.Context, candidateSlug, jobSlug string, cfg RunConfig) GenerateResult {
	payload := struct {
		CandidateSlug string `json:"candidate_slug"`
		JobSlug       string `json:"job_slug"`
		AlphaRunJobID string `json:"alpharun_job_id"`
		InterviewID   string `json:"interview_id"`
		FirefliesURL  string `json:"fireflies_url"`
		RunConfig
	}{CandidateSlug: candidateSlug, JobSlug: jobSlug, RunConfig: cfg}

	start := time.Now()
	var body map[string]any
	resp, err := c.generation.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&body).
		Post("/api/generate-summary")
	duration := roundSeconds(time.Since(start))
	if err != nil {
		return GenerateResult{DurationSeconds: duration, Error: err.Error()}
	}
	if resp.IsError() {
		msg := errorBody(resp.Body())
		if msg == "" {
			msg = fmt.Sprintf("generate-summary returned status %d", resp.StatusCode())
		}
		return GenerateResult{DurationSeconds: duration, Error: msg}
	}
	if !boolField(body, "success") {
		msg, _ := body["error"].(string)
		if msg == "" {
			msg = "Unknown error"
		}
		return GenerateResult{DurationSeconds: duration, Error: msg, Data: body}
	}
	summary, _ := body["html_summary"].(string)
	return GenerateResult{
		Success:         true,
		SummaryLength:   len(summary),
		DurationSeconds: duration,
		Data:            body,
	}
}

// ActionResult is the audit record for one post-generation action.
type ActionResult struct {
	Success bool   `json:"success" firestore:"success"`
	Error   any    `json:"error" firestore:"error"`
	Message string `json:"message" firestore:"message"`
}

// PushSummary writes the generated HTML back onto the candidate record.
func (c *Client) PushSummary(ctx context.Context, candidateSlug, jobSlug, summaryHTML, triggeredBy string) ActionResult {
	payload := map[string]any{
		"candidate_slug":     candidateSlug,
		"html_summary":       summaryHTML,
		"job_slug":           jobSlug,
		"triggered_by_email": emailOrNil(triggeredBy),
	}
	res, _ := c.postAction(ctx, "/api/push-to-recruitcrm", payload, "Failed to push summary")
	if res.Success {
		res.Message = "Summary pushed successfully"
	}
	return res
}

// CreateNote attaches a tracking note to the candidate.
func (c *Client) CreateNote(ctx context.Context, candidateSlug, jobSlug, noteText, triggeredBy string) ActionResult {
	payload := map[string]any{
		"candidate_slug":     candidateSlug,
		"job_slug":           jobSlug,
		"note_html":          noteText,
		"triggered_by_email": emailOrNil(triggeredBy),
	}
	res, _ := c.postAction(ctx, "/api/create-note", payload, "Failed to create note")
	if res.Success {
		res.Message = "Note created successfully"
	}
	return res
}

// MoveStage advances the candidate to the target hiring stage.
func (c *Client) MoveStage(ctx context.Context, candidateSlug, jobSlug string, targetStageID int, triggeredBy string) ActionResult {
	payload := map[string]any{
		"candidate_slug":     candidateSlug,
		"job_slug":           jobSlug,
		"target_stage_id":    targetStageID,
		"triggered_by_email": emailOrNil(triggeredBy),
	}
	res, body := c.postAction(ctx, "/api/move-stage", payload, "Failed to trigger stage move")
	if res.Success {
		res.Message = "Stage move triggered"
		if msg, ok := body["message"].(string); ok && msg != "" {
			res.Message = msg
		}
	}
	return res
}

func (c *Client) postAction(ctx context.Context, path string, payload map[string]any, failMsg string) (ActionResult, map[string]any) {
	var body map[string]any
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&body).
		Post(path)
	if err != nil {
		return ActionResult{Error: err.Error(), Message: failMsg}, nil
	}
	if resp.IsError() {
		msg := errorBody(resp.Body())
		if msg == "" {
			msg = fmt.Sprintf("%s returned status %d", path, resp.StatusCode())
		}
		return ActionResult{Error: msg, Message: failMsg}, nil
	}
	if !boolField(body, "success") {
		msg, _ := body["error"].(string)
		if msg == "" {
			msg = "API returned success=false"
		}
		return ActionResult{Error: msg, Message: failMsg}, body
	}
	return ActionResult{Success: true}, body
}

// errorBody pulls the message out of the API's standard failure shape,
// a JSON object with an "error" key.
func errorBody(body []byte) string {
	return gjson.GetBytes(body, "error").String()
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func emailOrNil(email string) any {
	if email == "" {
		return nil
	}
	return email
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
