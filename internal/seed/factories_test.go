package seed

import (
	"strings"
	"testing"

	"codesync/internal/models"
	"codesync/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_CreateUser_DryRun(t *testing.T) {
	f := NewFactory(nil, SeedOptions{DryRun: true, SkipBcrypt: true})

	first, err := f.CreateUser()
	require.NoError(t, err)
	second, err := f.CreateUser()
	require.NoError(t, err)

	assert.NotZero(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEmpty(t, first.Email)
	assert.Equal(t, "password123", first.Password)
	assert.Equal(t, strings.ToLower(first.Username), first.Username)
}

func TestFactory_CreateUser_Overrides(t *testing.T) {
	f := NewFactory(nil, SeedOptions{DryRun: true, SkipBcrypt: true})

	user, err := f.CreateUser(func(u *models.User) {
		u.Username = "pinned_name"
		u.Email = "pinned@example.com"
	})
	require.NoError(t, err)
	assert.Equal(t, "pinned_name", user.Username)
	assert.Equal(t, "pinned@example.com", user.Email)
}

func TestFactory_BuildSnippet(t *testing.T) {
	f := NewFactory(nil, SeedOptions{DryRun: true})
	author := &models.User{ID: 7}

	for i := 0; i < 50; i++ {
		snippet := f.BuildSnippet(author)

		assert.Equal(t, uint(7), snippet.AuthorID)
		assert.True(t, validation.KnownLanguage(snippet.Language),
			"generated language %q must be in the registry", snippet.Language)
		assert.NoError(t, validation.ValidateSnippet(snippet.Title, snippet.Description,
			snippet.Content, snippet.Language, snippet.Tags))
		assert.NotEmpty(t, snippet.Tags)
		assert.LessOrEqual(t, len(snippet.Tags), 4)
		assert.False(t, snippet.CreatedAt.IsZero())

		seen := map[string]bool{}
		for _, tag := range snippet.Tags {
			assert.False(t, seen[tag], "duplicate tag %q", tag)
			seen[tag] = true
		}
	}
}

func TestFactory_SnippetContentMatchesLanguage(t *testing.T) {
	f := NewFactory(nil, SeedOptions{DryRun: true})

	assert.Contains(t, f.snippetContent("python"), "def ")
	assert.Contains(t, f.snippetContent("go"), "func ")
	assert.Contains(t, f.snippetContent("rust"), "fn ")
	assert.Contains(t, f.snippetContent("sql"), "SELECT")
}
