// Command main runs the database seeder for CodeSync.
package main

import (
	"flag"
	"log"

	"codesync/internal/config"
	"codesync/internal/database"
	"codesync/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numSnippets := flag.Int("snippets", 200, "Number of snippets to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d snippets, clean=%v\n", *numUsers, *numSnippets, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if _, err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(database.DB, seed.Options{
		NumUsers:    *numUsers,
		NumSnippets: *numSnippets,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Println("📧 All test users have the password: password123")
}
