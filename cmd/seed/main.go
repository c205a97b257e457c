// Command seed populates the database with demo users and posts.
package main

import (
	"flag"
	"log"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/seed"
)

func main() {
	users := flag.Int("users", 10, "number of users to create")
	posts := flag.Int("posts", 5, "posts per user")
	maxDays := flag.Int("max-days", 90, "spread created_at over this many days")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	f := seed.NewFactory(db, seed.Options{
		Users:        *users,
		PostsPerUser: *posts,
		MaxDays:      *maxDays,
	})
	if err := f.Run(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}
