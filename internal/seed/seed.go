// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"codesync/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumSnippets int
	ShouldClean bool
}

// Seeder orchestrates demo data creation.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	rng     *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{
		db:      db,
		factory: NewFactory(db, SeedOptions{}),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll truncates every seeded table.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	if s.db.Dialector.Name() == "postgres" {
		return s.db.Exec(
			`TRUNCATE TABLE comments, likes, follows, snippets, users RESTART IDENTITY CASCADE;`,
		).Error
	}
	for _, table := range []string{"comments", "likes", "follows", "snippets", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedCommunity creates users and a follow graph between them.
func (s *Seeder) SeedCommunity(numUsers int) ([]*models.User, error) {
	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user %d: %w", i, err)
		}
		users = append(users, user)
	}
	log.Printf("✓ %d test users created", len(users))

	// Each user follows a handful of others
	follows := 0
	for _, follower := range users {
		targets := s.rng.Perm(len(users))
		wanted := 2 + s.rng.Intn(6)
		for _, idx := range targets {
			if wanted == 0 {
				break
			}
			target := users[idx]
			if target.ID == follower.ID {
				continue
			}
			follow := models.Follow{FollowerID: follower.ID, FollowingID: target.ID}
			if err := s.db.Create(&follow).Error; err != nil {
				return nil, fmt.Errorf("create follow: %w", err)
			}
			follows++
			wanted--
		}
	}
	log.Printf("✓ %d follow relationships created", follows)

	return users, nil
}

// SeedContent creates snippets with comments, replies, and likes.
func (s *Seeder) SeedContent(users []*models.User, numSnippets int) ([]*models.Snippet, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("no users to attach snippets to")
	}

	snippets := make([]*models.Snippet, 0, numSnippets)
	for i := 0; i < numSnippets; i++ {
		author := users[s.rng.Intn(len(users))]
		snippets = append(snippets, s.factory.BuildSnippet(author))
	}
	if err := s.factory.CreateSnippetsBatch(snippets); err != nil {
		return nil, fmt.Errorf("create snippets: %w", err)
	}
	log.Printf("✓ %d snippets created", len(snippets))

	comments := 0
	for _, snippet := range snippets {
		if !snippet.IsPublic {
			continue
		}
		for i := 0; i < s.rng.Intn(4); i++ {
			author := users[s.rng.Intn(len(users))]
			comment, err := s.factory.CreateComment(author, snippet, nil)
			if err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
			comments++

			// Occasionally thread a reply under it
			if s.rng.Intn(3) == 0 {
				replier := users[s.rng.Intn(len(users))]
				if _, err := s.factory.CreateComment(replier, snippet, comment); err != nil {
					return nil, fmt.Errorf("create reply: %w", err)
				}
				comments++
			}
		}
	}
	log.Printf("✓ %d comments created", comments)

	likes := 0
	for _, snippet := range snippets {
		if !snippet.IsPublic {
			continue
		}
		seen := map[uint]bool{}
		for i := 0; i < s.rng.Intn(len(users)/2+1); i++ {
			user := users[s.rng.Intn(len(users))]
			if seen[user.ID] {
				continue
			}
			seen[user.ID] = true
			like := models.Like{UserID: user.ID, SnippetID: snippet.ID}
			if err := s.db.Create(&like).Error; err != nil {
				return nil, fmt.Errorf("create like: %w", err)
			}
			likes++
		}
	}
	log.Printf("✓ %d likes created", likes)

	return snippets, nil
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users and %d snippets...", opts.NumUsers, opts.NumSnippets)

	s := NewSeeder(db)
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	users, err := s.SeedCommunity(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}

	if _, err := s.SeedContent(users, opts.NumSnippets); err != nil {
		return fmt.Errorf("failed to create snippets: %w", err)
	}

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}
