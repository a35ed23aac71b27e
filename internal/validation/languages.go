package validation

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed languages.yml
var languagesYAML []byte

var languageNames map[string]string

func init() {
	var doc struct {
		Languages map[string]string `yaml:"languages"`
	}
	if err := yaml.Unmarshal(languagesYAML, &doc); err != nil {
		panic(fmt.Sprintf("validation: bad languages.yml: %v", err))
	}
	languageNames = doc.Languages
}

// KnownLanguage reports whether the slug names a supported language.
func KnownLanguage(slug string) bool {
	_, ok := languageNames[strings.ToLower(slug)]
	return ok
}

// LanguageDisplayName returns the display name for a language slug, falling
// back to the slug itself for unknown values.
func LanguageDisplayName(slug string) string {
	if name, ok := languageNames[strings.ToLower(slug)]; ok {
		return name
	}
	return slug
}

// NormalizeLanguage lowercases the slug, mapping unknown values to "other".
func NormalizeLanguage(slug string) string {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" || !KnownLanguage(slug) {
		return "other"
	}
	return slug
}
