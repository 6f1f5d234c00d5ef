package prompts

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/outstaffer/candidate-summary-api/internal/schemas"
)

const (
	singlePromptsDir   = "single-candidate-prompts"
	multiplePromptsDir = "multiple-candidates-prompts"
)

// typeMapping normalizes path-derived type tokens onto the two canonical
// prompt types the UI understands.
var typeMapping = map[string]string{
	"recruitment":                   TypeSummary,
	"anonymous":                     TypeSummary,
	"candidate-submission":          TypeEmail,
	"email-summary-using-summaries": TypeEmail,
}

// FileRepository serves prompt definitions from JSON files on disk. The
// layout mirrors the legacy prompt trees: single-candidate prompts under
// single-candidate-prompts/ (searched recursively, sort order assigned
// from 10) and multiple-candidate prompts under
// multiple-candidates-prompts/ (sort order from 100). The tree is read
// once at construction; mutation calls return ErrReadOnly.
type FileRepository struct {
	mem *MemoryRepository
}

// NewFileRepository loads every prompt definition under dir. Files that
// fail validation are logged and skipped rather than failing the load.
func NewFileRepository(dir string) (*FileRepository, error) {
	mem := &MemoryRepository{prompts: make(map[string]*Prompt)}

	single, err := loadPromptTree(filepath.Join(dir, singlePromptsDir), CategorySingle, 10, true)
	if err != nil {
		return nil, err
	}
	multiple, err := loadPromptTree(filepath.Join(dir, multiplePromptsDir), CategoryMultiple, 100, false)
	if err != nil {
		return nil, err
	}
	for _, p := range append(single, multiple...) {
		mem.prompts[p.Slug] = p
	}
	if len(mem.prompts) == 0 {
		return nil, fmt.Errorf("no prompt definitions found under %s", dir)
	}
	return &FileRepository{mem: mem}, nil
}

// loadPromptTree reads the prompt files under root into complete prompt
// documents for the given category, assigning sort order sortStart,
// sortStart+1, ... to files that do not declare their own.
func loadPromptTree(root, category string, sortStart int, recursive bool) ([]*Prompt, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	if recursive {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".json") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", root, err)
		}
	} else {
		matches, err := filepath.Glob(filepath.Join(root, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", root, err)
		}
		files = matches
	}
	sort.Strings(files)

	prompts := make([]*Prompt, 0, len(files))
	for i, path := range files {
		p, err := loadPromptFile(path, category, sortStart+i)
		if err != nil {
			log.Printf("[prompts] skipping %s: %v", path, err)
			continue
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}

func loadPromptFile(path, category string, sortOrder int) (*Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Name         string `json:"name"`
		Slug         string `json:"slug"`
		Description  string `json:"description"`
		Type         string `json:"type"`
		Enabled      *bool  `json:"enabled"`
		IsDefault    bool   `json:"is_default"`
		SortOrder    *int   `json:"sort_order"`
		SystemPrompt string `json:"system_prompt"`
		Template     string `json:"template"`
		UserPrompt   string `json:"user_prompt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	name := raw.Name
	if name == "" {
		name = titleFromStem(path)
	}
	p := &Prompt{
		Slug:         Slugify(name),
		Name:         name,
		Description:  raw.Description,
		Type:         canonicalType(typeFromPath(path, raw.Type)),
		Category:     category,
		SystemPrompt: raw.SystemPrompt,
		UserPrompt:   raw.UserPrompt,
		Template:     raw.Template,
		Enabled:      true,
		IsDefault:    raw.IsDefault,
		SortOrder:    sortOrder,
	}
	if raw.Slug != "" {
		p.Slug = raw.Slug
	}
	if raw.Enabled != nil {
		p.Enabled = *raw.Enabled
	}
	if raw.SortOrder != nil {
		p.SortOrder = *raw.SortOrder
	}

	doc, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	if err := schemas.ValidatePromptDefinition(string(doc)); err != nil {
		return nil, err
	}
	return p, nil
}

// typeFromPath derives the raw type token for a prompt file: an explicit
// type field wins, then a directory named email, recruitment or anonymous
// anywhere on the path, then the filename stem.
func typeFromPath(path, explicit string) string {
	if explicit != "" {
		return explicit
	}
	parts := strings.Split(filepath.ToSlash(path), "/")
	switch {
	case slices.Contains(parts, "email"):
		return "email"
	case slices.Contains(parts, "recruitment"):
		return "recruitment"
	case slices.Contains(parts, "anonymous"):
		return "anonymous"
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.ReplaceAll(stem, "_", "-")
}

// canonicalType maps a raw type token onto summary or email.
func canonicalType(raw string) string {
	if mapped, ok := typeMapping[raw]; ok {
		return mapped
	}
	if raw == TypeEmail {
		return TypeEmail
	}
	return TypeSummary
}

func titleFromStem(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.Fields(strings.ReplaceAll(stem, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Get resolves a prompt by slug or legacy dotted id
func (r *FileRepository) Get(ctx context.Context, id string) (*Prompt, error) {
	return r.mem.Get(ctx, id)
}

// Default returns the default prompt for a category
func (r *FileRepository) Default(ctx context.Context, category string) (*Prompt, error) {
	return r.mem.Default(ctx, category)
}

// List returns the enabled prompts for a category ordered by sort_order
func (r *FileRepository) List(ctx context.Context, category string) ([]Option, error) {
	return r.mem.List(ctx, category)
}

// All returns every prompt ordered by sort_order
func (r *FileRepository) All(ctx context.Context) ([]Prompt, error) {
	return r.mem.All(ctx)
}

// Create is not supported on the file-backed store
func (r *FileRepository) Create(context.Context, *Prompt) error { return ErrReadOnly }

// Update is not supported on the file-backed store
func (r *FileRepository) Update(context.Context, *Prompt) error { return ErrReadOnly }

// Delete is not supported on the file-backed store
func (r *FileRepository) Delete(context.Context, string) error { return ErrReadOnly }

// SetDefault is not supported on the file-backed store
func (r *FileRepository) SetDefault(context.Context, string, string) error { return ErrReadOnly }
