// Package alpharun is a client for the AlphaRun AI-interview platform API.
package alpharun

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
)

// BaseURL is the production AlphaRun API root.
const BaseURL = "https://api.alpharun.com/api/v1"

// DefaultTimeout bounds every API call.
const DefaultTimeout = 30 * time.Second

// ErrNotFound reports that the requested interview does not exist.
var ErrNotFound = errors.New("interview not found")

// Error represents a failed AlphaRun API call.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("alpharun %s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("alpharun %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Contact identifies the interviewed candidate.
type Contact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FullName returns the contact's display name.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Interview is an AI interview record. Fields preserves the complete API
// response so prompt assembly can serialize the whole thing.
type Interview struct {
	Contact Contact
	Fields  map[string]any
}

// Client calls the AlphaRun API.
type Client struct {
	http *resty.Client
}

// NewClient returns a client authenticated with the platform API key.
func NewClient(apiKey string) *Client {
	httpClient := resty.New().
		SetBaseURL(BaseURL).
		SetTimeout(DefaultTimeout).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Content-Type", "application/json")
	return &Client{http: httpClient}
}

// WithBaseURL points the client at a different API root. Tests use this to
// target a local fake server.
func (c *Client) WithBaseURL(url string) *Client {
	c.http.SetBaseURL(url)
	return c
}

// Interview fetches one interview from a job opening.
func (c *Client) Interview(ctx context.Context, jobOpeningID, interviewID string) (*Interview, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/job-openings/" + jobOpeningID + "/interviews/" + interviewID)
	if err != nil {
		return nil, &Error{Op: "fetch interview", Message: interviewID, Cause: err}
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, &Error{Op: "fetch interview", StatusCode: http.StatusNotFound, Message: interviewID, Cause: ErrNotFound}
	}
	if resp.IsError() {
		return nil, &Error{Op: "fetch interview", StatusCode: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
	}

	iv := &Interview{}
	if err := json.Unmarshal(resp.Body(), &iv.Fields); err != nil {
		return nil, &Error{Op: "fetch interview", Message: interviewID, Cause: err}
	}
	contact := gjson.GetBytes(resp.Body(), "data.interview.contact")
	iv.Contact.FirstName = contact.Get("first_name").String()
	iv.Contact.LastName = contact.Get("last_name").String()
	return iv, nil
}
