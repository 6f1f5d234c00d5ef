package llm

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	// uploadPollInterval is how often an uploaded file's processing state is checked
	uploadPollInterval = 2 * time.Second
	// uploadPollTimeout bounds how long to wait for an uploaded file to become active
	uploadPollTimeout = 60 * time.Second
)

// FileRef identifies a file uploaded to the model provider's file store
type FileRef struct {
	Name     string
	URI      string
	MIMEType string
}

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateContent generates text from a prompt, optionally attaching uploaded files
	GenerateContent(ctx context.Context, prompt string, tier ModelTier, files ...FileRef) (string, error)
	// GenerateJSON generates a JSON response from a prompt
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// UploadFile uploads raw bytes to the provider's file store and waits for processing
	UploadFile(ctx context.Context, data []byte, mimeType string) (*FileRef, error)
	// DeleteFile removes a previously uploaded file
	DeleteFile(ctx context.Context, name string) error
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	return NewGeminiClient(ctx, config, apiKey)
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// GenerateContent generates text from a prompt, attaching any uploaded files as parts
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier, files ...FileRef) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	parts := make([]genai.Part, 0, len(files)+1)
	parts = append(parts, genai.Text(prompt))
	for _, f := range files {
		parts = append(parts, genai.FileData{MIMEType: f.MIMEType, URI: f.URI})
	}

	model := c.client.GenerativeModel(modelName)
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(resp)
}

// GenerateJSON generates a JSON response from a prompt
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	model := c.client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}

	// Models occasionally wrap JSON in code fences even with a JSON MIME type set
	return CleanJSONBlock(text), nil
}

// UploadFile uploads raw bytes to the Gemini file store and polls until the
// file leaves the processing state. PDFs in particular are not usable as
// prompt parts until processing completes.
func (c *GeminiClient) UploadFile(ctx context.Context, data []byte, mimeType string) (*FileRef, error) {
	opts := &genai.UploadFileOptions{MIMEType: mimeType}
	file, err := c.client.UploadFile(ctx, "", bytes.NewReader(data), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	deadline := time.Now().Add(uploadPollTimeout)
	for file.State == genai.FileStateProcessing {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("file %s still processing after %s", file.Name, uploadPollTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(uploadPollInterval):
		}
		file, err = c.client.GetFile(ctx, file.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to check file state: %w", err)
		}
	}

	if file.State == genai.FileStateFailed {
		return nil, fmt.Errorf("file %s failed processing", file.Name)
	}

	return &FileRef{Name: file.Name, URI: file.URI, MIMEType: file.MIMEType}, nil
}

// DeleteFile removes a previously uploaded file from the Gemini file store
func (c *GeminiClient) DeleteFile(ctx context.Context, name string) error {
	return c.client.DeleteFile(ctx, name)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
