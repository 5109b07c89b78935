// Command main runs the database seeder for HealthBuddy.
package main

import (
	"flag"
	"log"

	"healthbuddy/internal/config"
	"healthbuddy/internal/database"
	"healthbuddy/internal/seed"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Build everything but write nothing")
	contentPath := flag.String("content", "", "YAML library catalogue (e.g. seed/content.yml)")
	generated := flag.Int("generated", 0, "Generate this many fake items per library kind when -content is not set")
	demoUsers := flag.Int("demo-users", 0, "Number of demo users to create")
	postsPerUser := flag.Int("posts-per-user", 3, "Community posts per demo user")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	opts := seed.Options{
		DryRun:       *dryRun,
		ContentPath:  *contentPath,
		ContentItems: *generated,
		DemoUsers:    *demoUsers,
		PostsPerUser: *postsPerUser,
	}

	if *dryRun {
		sum, err := seed.Run(nil, opts)
		if err != nil {
			log.Fatalf("❌ Dry run failed: %v", err)
		}
		log.Printf("Dry run: %d plans, %d library items, %d demo users, %d posts",
			sum.Plans, sum.Library, sum.DemoUsers, sum.Posts)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if _, err := seed.Run(db, opts); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done!")
	if *demoUsers > 0 {
		log.Printf("📧 All demo users have the password: %s", seed.DemoPassword)
	}
}
