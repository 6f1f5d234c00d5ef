// Package fireflies fetches meeting transcripts from the Fireflies.ai
// GraphQL API and normalizes them for prompt assembly.
package fireflies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/outstaffer/candidate-summary-api/internal/types"
)

// GraphQLURL is the production Fireflies API endpoint.
const GraphQLURL = "https://api.fireflies.ai/graphql"

// DefaultTimeout bounds every API call.
const DefaultTimeout = 30 * time.Second

const transcriptQuery = `
query Transcript($id: String!) {
  transcript(id: $id) {
    id
    title
    transcript_url
    speakers { id name }
    sentences { speaker_name text }
  }
}`

// Transcript IDs are 26-character Crockford ULIDs.
var ulidPattern = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)

// ErrNotFound reports that the requested transcript does not exist.
var ErrNotFound = errors.New("transcript not found")

// Error represents a failed Fireflies API call.
type Error struct {
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fireflies %s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("fireflies %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExtractTranscriptID finds a transcript ID in a pasted value, which is
// either a share URL whose last path segment ends in "::<id>" or a bare ID.
// Returns "" when the value holds neither.
func ExtractTranscriptID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		if u, err := url.Parse(s); err == nil {
			segment := u.Path
			if idx := strings.LastIndex(segment, "/"); idx >= 0 {
				segment = segment[idx+1:]
			}
			if _, id, found := strings.Cut(segment, "::"); found && ulidPattern.MatchString(id) {
				return id
			}
		}
	}
	if ulidPattern.MatchString(s) {
		return s
	}
	return ""
}

// Speaker is a meeting participant.
type Speaker struct {
	Name string `json:"name"`
}

// Sentence is one attributed line of the transcript.
type Sentence struct {
	SpeakerName string `json:"speaker_name"`
	Text        string `json:"text"`
}

// Transcript is the raw transcript record returned by the API.
type Transcript struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	TranscriptURL string     `json:"transcript_url"`
	Speakers      []Speaker  `json:"speakers"`
	Sentences     []Sentence `json:"sentences"`
}

// Client calls the Fireflies GraphQL API.
type Client struct {
	http *resty.Client
}

// NewClient returns a client authenticated with the workspace API key.
func NewClient(apiKey string) *Client {
	httpClient := resty.New().
		SetBaseURL(GraphQLURL).
		SetTimeout(DefaultTimeout).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Content-Type", "application/json")
	return &Client{http: httpClient}
}

// WithBaseURL points the client at a different endpoint. Tests use this to
// target a local fake server.
func (c *Client) WithBaseURL(url string) *Client {
	c.http.SetBaseURL(url)
	return c
}

// Transcript fetches a transcript by ID. A GraphQL errors array counts as a
// fetch failure even when the HTTP status is 200.
func (c *Client) Transcript(ctx context.Context, id string) (*Transcript, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"query":     transcriptQuery,
			"variables": map[string]string{"id": id},
		}).
		Post("")
	if err != nil {
		return nil, &Error{Op: "fetch transcript", Message: id, Cause: err}
	}
	if resp.IsError() {
		return nil, &Error{Op: "fetch transcript", Message: fmt.Sprintf("%s: HTTP %d", id, resp.StatusCode())}
	}

	body := resp.Body()
	if gjson.GetBytes(body, "errors").Exists() {
		msg := gjson.GetBytes(body, "errors.0.message").String()
		if msg == "" {
			msg = "graphql error"
		}
		return nil, &Error{Op: "fetch transcript", Message: msg}
	}
	data := gjson.GetBytes(body, "data.transcript")
	if !data.Exists() || data.Type == gjson.Null {
		return nil, &Error{Op: "fetch transcript", Message: id, Cause: ErrNotFound}
	}

	var tr Transcript
	if err := json.Unmarshal([]byte(data.Raw), &tr); err != nil {
		return nil, &Error{Op: "fetch transcript", Message: id, Cause: err}
	}
	return &tr, nil
}

// Normalize flattens a transcript into the prompt-assembly shape: the
// meeting title plus one "speaker: text" line per sentence.
func Normalize(raw *Transcript) types.Transcript {
	if raw == nil {
		return types.Transcript{Content: "Not provided."}
	}
	title := raw.Title
	if title == "" {
		title = "N/A"
	}
	lines := make([]string, 0, len(raw.Sentences))
	for _, s := range raw.Sentences {
		name := s.SpeakerName
		if name == "" {
			name = "Unknown"
		}
		lines = append(lines, name+": "+s.Text)
	}
	content := strings.Join(lines, "\n")
	if content == "" {
		content = "Transcript content is empty."
	}
	return types.Transcript{Title: title, Content: content}
}
