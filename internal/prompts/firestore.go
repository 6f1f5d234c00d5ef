package prompts

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const promptsCollection = "prompts"

// FirestoreRepository stores prompts in the prompts collection, one
// document per slug.
type FirestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository wraps an existing Firestore client
func NewFirestoreRepository(client *firestore.Client) *FirestoreRepository {
	return &FirestoreRepository{client: client}
}

func (r *FirestoreRepository) col() *firestore.CollectionRef {
	return r.client.Collection(promptsCollection)
}

// Get resolves a prompt by slug or legacy dotted id
func (r *FirestoreRepository) Get(ctx context.Context, id string) (*Prompt, error) {
	slug := NormalizeID(id)
	snap, err := r.col().Doc(slug).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch prompt %s: %w", slug, err)
	}
	return promptFromSnapshot(snap)
}

// Default returns the default prompt for a category
func (r *FirestoreRepository) Default(ctx context.Context, category string) (*Prompt, error) {
	iter := r.col().
		Where("category", "==", category).
		Where("is_default", "==", true).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query default %s prompt: %w", category, err)
	}
	return promptFromSnapshot(snap)
}

// List returns the enabled prompts for a category ordered by sort_order
func (r *FirestoreRepository) List(ctx context.Context, category string) ([]Option, error) {
	all, err := r.stream(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(all))
	for _, p := range all {
		if p.Category == category && p.Enabled {
			options = append(options, Option{ID: p.Slug, Name: p.Name, SortOrder: p.SortOrder})
		}
	}
	return options, nil
}

// All returns every prompt ordered by sort_order
func (r *FirestoreRepository) All(ctx context.Context) ([]Prompt, error) {
	return r.stream(ctx)
}

// stream reads the whole collection ordered by sort_order. Category and
// enabled filtering happens in process so no composite index is needed.
func (r *FirestoreRepository) stream(ctx context.Context) ([]Prompt, error) {
	iter := r.col().OrderBy("sort_order", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	prompts := make([]Prompt, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list prompts: %w", err)
		}
		p, err := promptFromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, *p)
	}
	return prompts, nil
}

// Create stores a new prompt
func (r *FirestoreRepository) Create(ctx context.Context, p *Prompt) error {
	slug := p.Slug
	if slug == "" {
		slug = Slugify(p.Name)
		p.Slug = slug
	}

	doc := r.col().Doc(slug)
	if _, err := doc.Get(ctx); err == nil {
		return ErrExists
	} else if status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to check prompt %s: %w", slug, err)
	}

	if p.IsDefault {
		if err := r.unsetDefaults(ctx, p.Category, ""); err != nil {
			return err
		}
	}

	stored := *p
	now := nowStamp()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if _, err := doc.Set(ctx, &stored); err != nil {
		return fmt.Errorf("failed to create prompt %s: %w", slug, err)
	}
	return nil
}

// Update rewrites an existing prompt
func (r *FirestoreRepository) Update(ctx context.Context, p *Prompt) error {
	doc := r.col().Doc(p.Slug)
	snap, err := doc.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to check prompt %s: %w", p.Slug, err)
	}
	existing, err := promptFromSnapshot(snap)
	if err != nil {
		return err
	}

	if p.IsDefault {
		if err := r.unsetDefaults(ctx, p.Category, p.Slug); err != nil {
			return err
		}
	}

	stored := *p
	stored.CreatedAt = existing.CreatedAt
	if stored.CreatedBy == "" {
		stored.CreatedBy = existing.CreatedBy
	}
	stored.UpdatedAt = nowStamp()
	if _, err := doc.Set(ctx, &stored); err != nil {
		return fmt.Errorf("failed to update prompt %s: %w", p.Slug, err)
	}
	return nil
}

// Delete removes a prompt by slug
func (r *FirestoreRepository) Delete(ctx context.Context, slug string) error {
	doc := r.col().Doc(slug)
	if _, err := doc.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to check prompt %s: %w", slug, err)
	}
	if _, err := doc.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete prompt %s: %w", slug, err)
	}
	return nil
}

// SetDefault marks a prompt as its category's default and unsets others
func (r *FirestoreRepository) SetDefault(ctx context.Context, slug, updatedBy string) error {
	doc := r.col().Doc(slug)
	snap, err := doc.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to check prompt %s: %w", slug, err)
	}
	p, err := promptFromSnapshot(snap)
	if err != nil {
		return err
	}

	if err := r.unsetDefaults(ctx, p.Category, slug); err != nil {
		return err
	}
	_, err = doc.Update(ctx, []firestore.Update{
		{Path: "is_default", Value: true},
		{Path: "updated_at", Value: nowStamp()},
		{Path: "updated_by", Value: updatedBy},
	})
	if err != nil {
		return fmt.Errorf("failed to set default prompt %s: %w", slug, err)
	}
	return nil
}

// unsetDefaults clears is_default on every prompt in the category except
// the named slug.
func (r *FirestoreRepository) unsetDefaults(ctx context.Context, category, exceptSlug string) error {
	iter := r.col().
		Where("category", "==", category).
		Where("is_default", "==", true).
		Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to query default %s prompts: %w", category, err)
		}
		if snap.Ref.ID == exceptSlug {
			continue
		}
		if _, err := snap.Ref.Update(ctx, []firestore.Update{{Path: "is_default", Value: false}}); err != nil {
			return fmt.Errorf("failed to unset default on %s: %w", snap.Ref.ID, err)
		}
	}
}

func promptFromSnapshot(snap *firestore.DocumentSnapshot) (*Prompt, error) {
	var p Prompt
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode prompt %s: %w", snap.Ref.ID, err)
	}
	if p.Slug == "" {
		p.Slug = snap.Ref.ID
	}
	return &p, nil
}
