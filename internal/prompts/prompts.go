// Package prompts manages the prompt configurations used for candidate
// summary and email generation. Prompts are documents (system prompt, user
// prompt template, HTML output template plus metadata) resolved by slug from
// one of three backing stores: the embedded seed set, a directory of JSON
// files, or Firestore.
package prompts

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// Prompt categories
const (
	CategorySingle   = "single"
	CategoryMultiple = "multiple"
)

// Prompt types
const (
	TypeSummary = "summary"
	TypeEmail   = "email"
)

var (
	// ErrNotFound is returned when no prompt matches the requested id
	ErrNotFound = errors.New("prompt not found")
	// ErrExists is returned when creating a prompt whose slug is taken
	ErrExists = errors.New("prompt slug already exists")
	// ErrReadOnly is returned by stores that do not support writes
	ErrReadOnly = errors.New("prompt store is read-only")
)

// Prompt is a single prompt configuration document
type Prompt struct {
	Slug         string `json:"slug" firestore:"slug"`
	Name         string `json:"name" firestore:"name"`
	Description  string `json:"description" firestore:"description"`
	Type         string `json:"type" firestore:"type"`
	Category     string `json:"category" firestore:"category"`
	SystemPrompt string `json:"system_prompt" firestore:"system_prompt"`
	UserPrompt   string `json:"user_prompt" firestore:"user_prompt"`
	Template     string `json:"template" firestore:"template"`
	Enabled      bool   `json:"enabled" firestore:"enabled"`
	IsDefault    bool   `json:"is_default" firestore:"is_default"`
	SortOrder    int    `json:"sort_order" firestore:"sort_order"`
	CreatedAt    string `json:"created_at,omitempty" firestore:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty" firestore:"updated_at,omitempty"`
	CreatedBy    string `json:"created_by,omitempty" firestore:"created_by,omitempty"`
	UpdatedBy    string `json:"updated_by,omitempty" firestore:"updated_by,omitempty"`
}

// Option is one entry in the prompt picker shown by the UI
type Option struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// Repository resolves and manages prompt documents. Read-only
// implementations return ErrReadOnly from the write methods.
type Repository interface {
	// Get resolves a prompt by slug. Legacy dotted ids ("recruitment.detailed")
	// are accepted and normalized.
	Get(ctx context.Context, id string) (*Prompt, error)
	// Default returns the default prompt for a category
	Default(ctx context.Context, category string) (*Prompt, error)
	// List returns the enabled prompts for a category ordered by sort_order
	List(ctx context.Context, category string) ([]Option, error)
	// All returns every prompt ordered by sort_order (admin view)
	All(ctx context.Context) ([]Prompt, error)
	// Create stores a new prompt. When the prompt is flagged default, other
	// defaults in its category are unset.
	Create(ctx context.Context, p *Prompt) error
	// Update rewrites an existing prompt, refreshing its updated_at stamp
	Update(ctx context.Context, p *Prompt) error
	// Delete removes a prompt by slug
	Delete(ctx context.Context, slug string) error
	// SetDefault marks a prompt as its category's default and unsets others
	SetDefault(ctx context.Context, slug, updatedBy string) error
}

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts a prompt name to its document id form
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = slugStrip.ReplaceAllString(slug, "")
	slug = slugCollapse.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// NormalizeID maps legacy dotted prompt keys onto slugs. Ids that are
// already slugs pass through unchanged.
func NormalizeID(id string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(id), ".", "-"))
}
