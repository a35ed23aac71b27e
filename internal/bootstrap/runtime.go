// Package bootstrap wires up process-level runtime dependencies.
package bootstrap

import (
	"fmt"
	"log"
	"strings"

	"codesync/internal/cache"
	"codesync/internal/config"
	"codesync/internal/database"
	"codesync/internal/models"
	"codesync/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData fills an empty development database with fake users and
	// snippets on first start.
	SeedDemoData bool
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedDemoData {
		if err := ensureDemoData(cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// ensureDemoData seeds only an empty development database, so restarts never
// pile up duplicate fake content.
func ensureDemoData(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	log.Println("empty development database detected, seeding demo data")
	return seed.Seed(db, seed.Options{
		NumUsers:    10,
		NumSnippets: 40,
		ShouldClean: false,
	})
}
