package validation

import (
	"fmt"
	"strings"
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 500
	maxContentLength     = 50000
	maxTagCount          = 10
	maxTagLength         = 30
	maxCommentLength     = 1000
)

// ValidateSnippet validates the writable fields of a snippet.
func ValidateSnippet(title, description, content, language string, tags []string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(title) > maxTitleLength {
		return fmt.Errorf("title must not exceed %d characters", maxTitleLength)
	}
	if len(description) > maxDescriptionLength {
		return fmt.Errorf("description must not exceed %d characters", maxDescriptionLength)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required")
	}
	if len(content) > maxContentLength {
		return fmt.Errorf("content must not exceed %d characters", maxContentLength)
	}
	if strings.TrimSpace(language) == "" {
		return fmt.Errorf("language is required")
	}
	return ValidateTags(tags)
}

// ValidateTags validates tag count and individual tag shape.
func ValidateTags(tags []string) error {
	if len(tags) > maxTagCount {
		return fmt.Errorf("a snippet can have at most %d tags", maxTagCount)
	}
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("tags cannot be empty")
		}
		if len(tag) > maxTagLength {
			return fmt.Errorf("tags must not exceed %d characters", maxTagLength)
		}
	}
	return nil
}

// ValidateComment validates comment content.
func ValidateComment(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("comment content is required")
	}
	if len(content) > maxCommentLength {
		return fmt.Errorf("comment must not exceed %d characters", maxCommentLength)
	}
	return nil
}
