package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "test_user123", false},
		{"Exactly Min Length", "abc", false},
		{"Exactly Max Length", strings.Repeat("a", 20), false},
		{"Too Short", "tu", true},
		{"Too Long", strings.Repeat("a", 21), true},
		{"Illegal Chars", "user@123", true},
		{"Hyphen Not Allowed", "user-name", true},
		{"Reserved", "admin", true},
		{"Reserved Mixed Case", "Admin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "test@example.com", false},
		{"Invalid Format", "not-an-email", true},
		{"Missing Domain", "user@", true},
		{"Multiple At Symbols", "user@@example.com", true},
		{"Space In Local Part", "user @example.com", true},
		{"Trailing Dot In Domain", "user@example.com.", true},
		{"Too Long", strings.Repeat("a", 250) + "@x.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "Secure1", false},
		{"Exactly Min Length", "Abcde1", false},
		{"Too Short", "Ab1", true},
		{"Too Long", "A1" + strings.Repeat("b", 127), true},
		{"No Upper", "secure1", true},
		{"No Lower", "SECURE1", true},
		{"No Digit", "Securee", true},
		{"Special Chars Allowed", "Secure1!@#", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateProfile(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateProfile("hello", "Lisbon", "https://example.com"))
	assert.NoError(t, ValidateProfile("", "", ""))
	assert.Error(t, ValidateProfile(strings.Repeat("b", 161), "", ""))
	assert.Error(t, ValidateProfile("", strings.Repeat("l", 51), ""))
	assert.Error(t, ValidateProfile("", "", "ftp://example.com"))
	assert.Error(t, ValidateProfile("", "", "https://"+strings.Repeat("x", 200)))
}
