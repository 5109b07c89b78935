// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// Options configures Run.
type Options struct {
	DryRun       bool
	ContentPath  string
	ContentItems int
	DemoUsers    int
	PostsPerUser int
	MaxDays      int
	RandSeed     int64
	Now          time.Time
}

// Summary reports what Run created or would create.
type Summary struct {
	Plans     int
	Library   int
	DemoUsers int
	Posts     int
}

// Run seeds plans, the content library and demo users. Library content comes
// from ContentPath when set, otherwise it is generated.
func Run(db *gorm.DB, opts Options) (*Summary, error) {
	if db == nil && !opts.DryRun {
		return nil, errors.New("seed: database is required unless dry-run")
	}

	var content *Content
	if opts.ContentPath != "" {
		c, err := LoadContent(opts.ContentPath)
		if err != nil {
			return nil, err
		}
		content = c
	} else if opts.ContentItems > 0 {
		content = GenerateContent(opts.RandSeed, opts.ContentItems)
	}

	sum := &Summary{Plans: len(BuiltInPlans)}
	if content != nil {
		sum.Library = content.Size()
	}

	if !opts.DryRun {
		if err := Plans(db); err != nil {
			return nil, err
		}
		log.Printf("✓ %d subscription plans upserted", sum.Plans)

		if content != nil {
			if err := Library(db, content); err != nil {
				return nil, err
			}
			log.Printf("✓ %d library items upserted", sum.Library)
		}
	}

	if opts.DemoUsers > 0 {
		users, err := NewFactory(db, opts).CreateDemoUsers(opts.DemoUsers)
		if err != nil {
			return nil, fmt.Errorf("failed to create demo users: %w", err)
		}
		sum.DemoUsers = len(users)
		for _, u := range users {
			sum.Posts += len(u.Posts)
		}
		if !opts.DryRun {
			log.Printf("✓ %d demo users created with %d posts", sum.DemoUsers, sum.Posts)
		}
	}

	return sum, nil
}
