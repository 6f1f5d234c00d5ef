package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryRepo(t *testing.T) *MemoryRepository {
	t.Helper()
	repo, err := NewMemoryRepository()
	require.NoError(t, err)
	return repo
}

func TestNewMemoryRepository_Seeds(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()

	p, err := repo.Get(ctx, "summary-for-platform-v2")
	require.NoError(t, err)
	assert.Equal(t, "Summary For Platform V2", p.Name)
	assert.Equal(t, CategorySingle, p.Category)
	assert.Equal(t, TypeSummary, p.Type)
	assert.True(t, p.IsDefault)
	assert.True(t, p.Enabled)
	assert.Contains(t, p.UserPrompt, "{interview_section}")
	assert.NotEmpty(t, p.SystemPrompt)
	assert.NotEmpty(t, p.Template)
}

func TestMemoryGet_LegacyDottedID(t *testing.T) {
	repo := newMemoryRepo(t)

	p, err := repo.Get(context.Background(), "recruitment.detailed")
	require.NoError(t, err)
	assert.Equal(t, "recruitment-detailed", p.Slug)
	assert.Contains(t, p.UserPrompt, "{fireflies_section}")
}

func TestMemoryGet_NotFound(t *testing.T) {
	repo := newMemoryRepo(t)

	_, err := repo.Get(context.Background(), "no-such-prompt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGet_ReturnsCopy(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()

	first, err := repo.Get(ctx, "summary-for-platform-v2")
	require.NoError(t, err)
	first.Name = "mutated"

	second, err := repo.Get(ctx, "summary-for-platform-v2")
	require.NoError(t, err)
	assert.Equal(t, "Summary For Platform V2", second.Name)
}

func TestMemoryDefault(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()

	p, err := repo.Default(ctx, CategorySingle)
	require.NoError(t, err)
	assert.Equal(t, "summary-for-platform-v2", p.Slug)

	_, err = repo.Default(ctx, CategoryMultiple)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryList_SortedAndEnabledOnly(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Prompt{
		Slug:     "disabled-prompt",
		Name:     "Disabled Prompt",
		Category: CategorySingle,
		Type:     TypeSummary,
		Enabled:  false,
	}))

	options, err := repo.List(ctx, CategorySingle)
	require.NoError(t, err)
	require.Len(t, options, 3)
	assert.Equal(t, "summary-for-platform-v2", options[0].ID)
	assert.Equal(t, "recruitment-detailed", options[1].ID)
	assert.Equal(t, "anonymous-detailed", options[2].ID)
	for _, opt := range options {
		assert.NotEqual(t, "disabled-prompt", opt.ID)
	}
}

func TestMemoryCreate(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()

	p := &Prompt{
		Slug:         "compare-shortlist",
		Name:         "Compare Shortlist",
		Category:     CategoryMultiple,
		Type:         TypeSummary,
		SystemPrompt: "Compare the candidates.",
		UserPrompt:   "Candidates:\n{candidates_data}",
		Template:     "<table></table>",
		Enabled:      true,
		SortOrder:    100,
		CreatedBy:    "admin_ui",
	}
	require.NoError(t, repo.Create(ctx, p))

	stored, err := repo.Get(ctx, "compare-shortlist")
	require.NoError(t, err)
	assert.Equal(t, "Compare Shortlist", stored.Name)
	assert.NotEmpty(t, stored.CreatedAt)
	assert.Equal(t, stored.CreatedAt, stored.UpdatedAt)

	assert.ErrorIs(t, repo.Create(ctx, p), ErrExists)
}

func TestMemoryCreate_DefaultUnsetsOthers(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Prompt{
		Slug:      "new-default",
		Name:      "New Default",
		Category:  CategorySingle,
		Type:      TypeSummary,
		Enabled:   true,
		IsDefault: true,
	}))

	old, err := repo.Get(ctx, "summary-for-platform-v2")
	require.NoError(t, err)
	assert.False(t, old.IsDefault)

	current, err := repo.Default(ctx, CategorySingle)
	require.NoError(t, err)
	assert.Equal(t, "new-default", current.Slug)
}

func TestMemoryUpdate(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()

	existing, err := repo.Get(ctx, "recruitment-detailed")
	require.NoError(t, err)

	existing.Name = "Recruitment Detailed (Revised)"
	existing.UpdatedBy = "admin_ui"
	require.NoError(t, repo.Update(ctx, existing))

	updated, err := repo.Get(ctx, "recruitment-detailed")
	require.NoError(t, err)
	assert.Equal(t, "Recruitment Detailed (Revised)", updated.Name)
	assert.NotEmpty(t, updated.UpdatedAt)

	err = repo.Update(ctx, &Prompt{Slug: "no-such-prompt", Name: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDelete(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Delete(ctx, "anonymous-detailed"))

	_, err := repo.Get(ctx, "anonymous-detailed")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "anonymous-detailed"), ErrNotFound)
}

func TestMemorySetDefault(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetDefault(ctx, "recruitment-detailed", "admin_ui"))

	current, err := repo.Default(ctx, CategorySingle)
	require.NoError(t, err)
	assert.Equal(t, "recruitment-detailed", current.Slug)
	assert.Equal(t, "admin_ui", current.UpdatedBy)

	old, err := repo.Get(ctx, "summary-for-platform-v2")
	require.NoError(t, err)
	assert.False(t, old.IsDefault)

	assert.ErrorIs(t, repo.SetDefault(ctx, "no-such-prompt", "admin_ui"), ErrNotFound)
}
