// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"codesync/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedOptions tune factory behavior.
type SeedOptions struct {
	// DryRun builds entities without writing to the database.
	DryRun bool
	// SkipBcrypt stores plaintext passwords for faster large seeds.
	SkipBcrypt bool
	// MaxDays spreads created_at timestamps over this many days back.
	MaxDays int
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:     db,
		opts:   opts,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		nextID: 1000,
	}
}

var seedLanguages = []string{
	"javascript", "typescript", "python", "go", "rust", "java", "ruby", "sql", "bash", "css",
}

var seedTags = []string{
	"algorithms", "api", "async", "cli", "concurrency", "database", "debugging",
	"hooks", "optimization", "parsing", "regex", "testing", "tooling", "utils", "web",
}

// camelCase joins words into a single camelCase identifier.
func camelCase(words string) string {
	parts := strings.Fields(strings.ToLower(words))
	for i := 1; i < len(parts); i++ {
		parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
	}
	return strings.Join(parts, "")
}

// snippetContent generates plausible code for a language.
func (f *Factory) snippetContent(language string) string {
	fn := camelCase(gofakeit.HackerVerb() + " " + gofakeit.HackerNoun())
	arg := strings.ToLower(gofakeit.Word())

	switch language {
	case "python":
		return fmt.Sprintf("def %s(%s):\n    \"\"\"%s\"\"\"\n    result = [x for x in %s if x]\n    return sorted(result)\n",
			strings.ToLower(fn), arg, gofakeit.HackerPhrase(), arg)
	case "go":
		return fmt.Sprintf("func %s(%s []string) []string {\n\tout := make([]string, 0, len(%s))\n\tfor _, v := range %s {\n\t\tif v != \"\" {\n\t\t\tout = append(out, v)\n\t\t}\n\t}\n\treturn out\n}\n",
			fn, arg, arg, arg)
	case "rust":
		return fmt.Sprintf("fn %s(%s: &[&str]) -> Vec<String> {\n    %s.iter()\n        .filter(|v| !v.is_empty())\n        .map(|v| v.to_string())\n        .collect()\n}\n",
			strings.ToLower(fn), arg, arg)
	case "sql":
		return fmt.Sprintf("SELECT %s, COUNT(*) AS total\nFROM %s\nWHERE created_at > NOW() - INTERVAL '30 days'\nGROUP BY %s\nORDER BY total DESC;\n",
			arg, gofakeit.Word(), arg)
	case "bash":
		return fmt.Sprintf("#!/usr/bin/env bash\nset -euo pipefail\n\nfor f in *.%s; do\n  echo \"processing $f\"\ndone\n", arg)
	default:
		return fmt.Sprintf("export function %s(%s) {\n  // %s\n  return %s.filter(Boolean).sort();\n}\n",
			fn, arg, gofakeit.HackerPhrase(), arg)
	}
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	name := gofakeit.Name()
	user := &models.User{
		Name:     name,
		Username: strings.ToLower(gofakeit.Username()) + fmt.Sprintf("%d", gofakeit.Number(10, 999)),
		Email:    gofakeit.Email(),
		Bio:      gofakeit.Sentence(10),
		Location: gofakeit.City(),
		Image:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s (%s)", user.Username, user.Email)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildSnippet constructs a snippet struct but does not persist it. Useful
// for batching.
func (f *Factory) BuildSnippet(author *models.User, overrides ...func(*models.Snippet)) *models.Snippet {
	language := seedLanguages[f.rng.Intn(len(seedLanguages))]

	tagCount := 1 + f.rng.Intn(4)
	tags := make(models.StringSlice, 0, tagCount)
	for len(tags) < tagCount {
		tag := seedTags[f.rng.Intn(len(seedTags))]
		if !contains(tags, tag) {
			tags = append(tags, tag)
		}
	}

	snippet := &models.Snippet{
		Title:       strings.TrimSuffix(gofakeit.HackerPhrase(), "!"),
		Description: gofakeit.Sentence(12),
		Content:     f.snippetContent(language),
		Language:    language,
		Tags:        tags,
		IsPublic:    f.rng.Intn(10) > 1, // ~80% public
		Views:       int64(f.rng.Intn(500)),
		AuthorID:    author.ID,
	}

	// realistic created_at spread
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	snippet.CreatedAt = time.Now().
		Add(-time.Duration(f.rng.Intn(maxDays)) * 24 * time.Hour).
		Add(-time.Duration(f.rng.Intn(24)) * time.Hour)
	snippet.UpdatedAt = snippet.CreatedAt

	for _, override := range overrides {
		override(snippet)
	}
	return snippet
}

// CreateSnippetsBatch persists multiple snippets in a single DB call when possible.
func (f *Factory) CreateSnippetsBatch(snippets []*models.Snippet) error {
	if f.opts.DryRun {
		for _, s := range snippets {
			f.nextID++
			s.ID = f.nextID
		}
		log.Printf("[dry-run] CreateSnippetsBatch: %d snippets (no DB write)", len(snippets))
		return nil
	}
	return f.db.Create(&snippets).Error
}

// CreateComment persists a comment, optionally as a reply.
func (f *Factory) CreateComment(author *models.User, snippet *models.Snippet, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		Content:   gofakeit.Sentence(8 + f.rng.Intn(10)),
		SnippetID: snippet.ID,
		AuthorID:  author.ID,
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}

	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

func contains(slice models.StringSlice, value string) bool {
	for _, v := range slice {
		if v == value {
			return true
		}
	}
	return false
}
