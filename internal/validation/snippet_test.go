package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSnippet(t *testing.T) {
	t.Parallel()
	valid := func() (string, string, string, string, []string) {
		return "Binary search", "Classic implementation", "func search() {}", "go", []string{"algorithms"}
	}

	t.Run("Valid", func(t *testing.T) {
		title, desc, content, lang, tags := valid()
		assert.NoError(t, ValidateSnippet(title, desc, content, lang, tags))
	})

	t.Run("Empty Title", func(t *testing.T) {
		_, desc, content, lang, tags := valid()
		assert.Error(t, ValidateSnippet("  ", desc, content, lang, tags))
	})

	t.Run("Title Too Long", func(t *testing.T) {
		_, desc, content, lang, tags := valid()
		assert.Error(t, ValidateSnippet(strings.Repeat("t", 101), desc, content, lang, tags))
	})

	t.Run("Description Too Long", func(t *testing.T) {
		title, _, content, lang, tags := valid()
		assert.Error(t, ValidateSnippet(title, strings.Repeat("d", 501), content, lang, tags))
	})

	t.Run("Empty Content", func(t *testing.T) {
		title, desc, _, lang, tags := valid()
		assert.Error(t, ValidateSnippet(title, desc, "", lang, tags))
	})

	t.Run("Content Too Long", func(t *testing.T) {
		title, desc, _, lang, tags := valid()
		assert.Error(t, ValidateSnippet(title, desc, strings.Repeat("c", 50001), lang, tags))
	})

	t.Run("Missing Language", func(t *testing.T) {
		title, desc, content, _, tags := valid()
		assert.Error(t, ValidateSnippet(title, desc, content, "", tags))
	})

	t.Run("Too Many Tags", func(t *testing.T) {
		title, desc, content, lang, _ := valid()
		tags := make([]string, 11)
		for i := range tags {
			tags[i] = "tag"
		}
		assert.Error(t, ValidateSnippet(title, desc, content, lang, tags))
	})

	t.Run("Blank Tag", func(t *testing.T) {
		title, desc, content, lang, _ := valid()
		assert.Error(t, ValidateSnippet(title, desc, content, lang, []string{" "}))
	})
}

func TestValidateComment(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateComment("nice one"))
	assert.Error(t, ValidateComment(""))
	assert.Error(t, ValidateComment("   "))
	assert.Error(t, ValidateComment(strings.Repeat("c", 1001)))
}

func TestLanguages(t *testing.T) {
	t.Parallel()
	assert.True(t, KnownLanguage("go"))
	assert.True(t, KnownLanguage("TypeScript"))
	assert.False(t, KnownLanguage("cobol77"))

	assert.Equal(t, "C++", LanguageDisplayName("cpp"))
	assert.Equal(t, "weird", LanguageDisplayName("weird"))

	assert.Equal(t, "go", NormalizeLanguage(" Go "))
	assert.Equal(t, "other", NormalizeLanguage("cobol77"))
	assert.Equal(t, "other", NormalizeLanguage(""))
}
