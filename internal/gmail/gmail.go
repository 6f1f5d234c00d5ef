// Package gmail creates draft emails in a recruiter's mailbox using their
// OAuth credentials. Drafts carry the summary as an HTML body and, when a
// renderer is available, as a PDF attachment.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"mime"
	"mime/multipart"
	"net/textproto"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Renderer produces a PDF attachment from summary HTML.
type Renderer interface {
	Generate(ctx context.Context, htmlContent, candidateName, jobName string) ([]byte, string, error)
}

// DraftParams carries everything needed to create one draft.
type DraftParams struct {
	AccessToken  string
	RefreshToken string
	Subject      string
	HTMLBody     string
	ToEmail      string

	// SummaryHTML plus the candidate and job names drive the optional PDF
	// attachment. An empty SummaryHTML skips the attachment entirely.
	SummaryHTML   string
	CandidateName string
	JobName       string
}

// DraftResult reports the created draft.
type DraftResult struct {
	DraftID  string `json:"draft_id"`
	DraftURL string `json:"draft_url"`
	// PDFGenerated is false when the attachment was skipped or rendering
	// failed and the draft went out body-only.
	PDFGenerated bool `json:"pdf_generated"`
	// NewAccessToken is set when the token was refreshed during the call so
	// the frontend can store the replacement.
	NewAccessToken string `json:"new_access_token,omitempty"`
}

// Service creates Gmail drafts on behalf of users.
type Service struct {
	clientID     string
	clientSecret string
	renderer     Renderer

	// endpoint overrides the Gmail API base URL in tests
	endpoint string
}

// NewService returns a draft service. The OAuth client credentials enable
// token refresh; without them expired access tokens fail outright. A nil
// renderer disables PDF attachments.
func NewService(clientID, clientSecret string, renderer Renderer) *Service {
	return &Service{clientID: clientID, clientSecret: clientSecret, renderer: renderer}
}

// CreateDraft renders the optional attachment, assembles the MIME message
// and creates the draft. PDF rendering failures degrade to a draft without
// an attachment rather than failing the call.
func (s *Service) CreateDraft(ctx context.Context, params DraftParams) (*DraftResult, error) {
	if params.AccessToken == "" {
		return nil, errors.New("access token is required")
	}

	var attachment []byte
	var filename string
	if params.SummaryHTML != "" && s.renderer != nil {
		pdfBytes, pdfName, err := s.renderer.Generate(ctx, params.SummaryHTML, params.CandidateName, params.JobName)
		if err != nil {
			log.Printf("[gmail] pdf generation failed, creating draft without attachment: %v", err)
		} else {
			attachment = pdfBytes
			filename = pdfName
		}
	}

	token := &oauth2.Token{AccessToken: params.AccessToken}
	var source oauth2.TokenSource
	if params.RefreshToken != "" && s.clientID != "" && s.clientSecret != "" {
		conf := &oauth2.Config{
			ClientID:     s.clientID,
			ClientSecret: s.clientSecret,
			Endpoint:     google.Endpoint,
		}
		token.RefreshToken = params.RefreshToken
		source = conf.TokenSource(ctx, token)
	} else {
		source = oauth2.StaticTokenSource(token)
	}

	opts := []option.ClientOption{option.WithTokenSource(source)}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}
	svc, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build Gmail service: %w", err)
	}

	raw, err := BuildRawMessage(params.Subject, params.ToEmail, params.HTMLBody, attachment, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build message: %w", err)
	}

	created, err := svc.Users.Drafts.Create("me", &gmailapi.Draft{
		Message: &gmailapi.Message{Raw: raw},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	result := &DraftResult{
		DraftID:      created.Id,
		DraftURL:     fmt.Sprintf("https://mail.google.com/mail/u/0/#drafts?compose=%s", created.Id),
		PDFGenerated: len(attachment) > 0,
	}
	if current, err := source.Token(); err == nil && current.AccessToken != params.AccessToken {
		result.NewAccessToken = current.AccessToken
	}

	log.Printf("[gmail] draft %s created (attachment: %t)", created.Id, result.PDFGenerated)
	return result, nil
}

// BuildRawMessage assembles the RFC 822 message and encodes it the way the
// Gmail API expects raw messages: URL-safe base64. An empty attachment
// produces a plain HTML message, otherwise a multipart/mixed message with
// the PDF attached.
func BuildRawMessage(subject, toEmail, htmlBody string, attachment []byte, filename string) (string, error) {
	var buf bytes.Buffer
	if toEmail != "" {
		fmt.Fprintf(&buf, "To: %s\r\n", toEmail)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(attachment) == 0 {
		buf.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		buf.WriteString(htmlBody)
		return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	htmlPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {`text/html; charset="UTF-8"`},
	})
	if err != nil {
		return "", err
	}
	if _, err := htmlPart.Write([]byte(htmlBody)); err != nil {
		return "", err
	}

	pdfPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"application/pdf"},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", filename)},
	})
	if err != nil {
		return "", err
	}
	if _, err := pdfPart.Write([]byte(base64.StdEncoding.EncodeToString(attachment))); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())
	buf.Write(body.Bytes())
	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}
