package prompts

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/outstaffer/candidate-summary-api/internal/schemas"
)

//go:embed *.json
var seedFiles embed.FS

// MemoryRepository serves prompts from process memory, initialized from the
// embedded seed set. It backs local development and tests and is the
// fallback when no document store is configured.
type MemoryRepository struct {
	mu      sync.RWMutex
	prompts map[string]*Prompt
}

// NewMemoryRepository loads the embedded seed prompts
func NewMemoryRepository() (*MemoryRepository, error) {
	repo := &MemoryRepository{prompts: make(map[string]*Prompt)}

	entries, err := seedFiles.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded prompts: %w", err)
	}
	for _, entry := range entries {
		data, err := seedFiles.ReadFile(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read seed prompt %s: %w", entry.Name(), err)
		}
		if err := schemas.ValidatePromptDefinition(string(data)); err != nil {
			return nil, fmt.Errorf("seed prompt %s is invalid: %w", entry.Name(), err)
		}
		var p Prompt
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse seed prompt %s: %w", entry.Name(), err)
		}
		if p.Slug == "" {
			p.Slug = Slugify(p.Name)
		}
		repo.prompts[p.Slug] = &p
	}

	return repo, nil
}

// Get resolves a prompt by slug or legacy dotted id
func (r *MemoryRepository) Get(_ context.Context, id string) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.prompts[NormalizeID(id)]; ok {
		out := *p
		return &out, nil
	}
	return nil, ErrNotFound
}

// Default returns the default prompt for a category
func (r *MemoryRepository) Default(_ context.Context, category string) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.prompts {
		if p.Category == category && p.IsDefault {
			out := *p
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// List returns the enabled prompts for a category ordered by sort_order
func (r *MemoryRepository) List(_ context.Context, category string) ([]Option, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	options := make([]Option, 0)
	for _, p := range r.prompts {
		if p.Category == category && p.Enabled {
			options = append(options, Option{ID: p.Slug, Name: p.Name, SortOrder: p.SortOrder})
		}
	}
	sort.Slice(options, func(i, j int) bool { return options[i].SortOrder < options[j].SortOrder })
	return options, nil
}

// All returns every prompt ordered by sort_order
func (r *MemoryRepository) All(_ context.Context) ([]Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Prompt, 0, len(r.prompts))
	for _, p := range r.prompts {
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SortOrder < all[j].SortOrder })
	return all, nil
}

// Create stores a new prompt
func (r *MemoryRepository) Create(_ context.Context, p *Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slug := p.Slug
	if slug == "" {
		slug = Slugify(p.Name)
		p.Slug = slug
	}
	if _, exists := r.prompts[slug]; exists {
		return ErrExists
	}
	if p.IsDefault {
		r.unsetDefaultsLocked(p.Category, "")
	}

	stored := *p
	now := nowStamp()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.prompts[slug] = &stored
	return nil
}

// Update rewrites an existing prompt
func (r *MemoryRepository) Update(_ context.Context, p *Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.prompts[p.Slug]
	if !ok {
		return ErrNotFound
	}
	if p.IsDefault {
		r.unsetDefaultsLocked(p.Category, p.Slug)
	}

	stored := *p
	stored.CreatedAt = existing.CreatedAt
	if stored.CreatedBy == "" {
		stored.CreatedBy = existing.CreatedBy
	}
	stored.UpdatedAt = nowStamp()
	r.prompts[p.Slug] = &stored
	return nil
}

// Delete removes a prompt by slug
func (r *MemoryRepository) Delete(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.prompts[slug]; !ok {
		return ErrNotFound
	}
	delete(r.prompts, slug)
	return nil
}

// SetDefault marks a prompt as its category's default and unsets others
func (r *MemoryRepository) SetDefault(_ context.Context, slug, updatedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.prompts[slug]
	if !ok {
		return ErrNotFound
	}
	r.unsetDefaultsLocked(p.Category, slug)
	p.IsDefault = true
	p.UpdatedAt = nowStamp()
	p.UpdatedBy = updatedBy
	return nil
}

// unsetDefaultsLocked clears the default flag on every prompt in the
// category except the named slug. Callers must hold the write lock.
func (r *MemoryRepository) unsetDefaultsLocked(category, exceptSlug string) {
	for slug, p := range r.prompts {
		if p.Category == category && p.IsDefault && slug != exceptSlug {
			p.IsDefault = false
		}
	}
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
