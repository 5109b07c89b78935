package seed

import (
	"fmt"
	"strings"
	"time"

	"healthbuddy/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the dev-login password shared by every demo user.
const DemoPassword = "HealthBuddy#2024"

var postCategories = []string{"progress", "motivation", "question"}

// Factory builds demo users with their profile, points and posts.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	now   time.Time
	hash  string
}

// NewFactory creates a Factory. db may be nil in dry-run mode.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), now: now}
}

// DemoUser groups the rows created for one demo account.
type DemoUser struct {
	User    models.User
	Profile models.UserProfile
	Points  models.UserPoints
	Posts   []models.CommunityPost
}

// BuildDemoUser constructs the i-th demo user without persisting it.
func (f *Factory) BuildDemoUser(i int) (*DemoUser, error) {
	if f.hash == "" {
		h, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash demo password: %w", err)
		}
		f.hash = string(h)
	}

	first := f.faker.FirstName()
	userID := fmt.Sprintf("demo_%03d", i+1)
	joined := f.now.Add(-time.Duration(f.faker.Number(1, f.maxDays())) * 24 * time.Hour)

	d := &DemoUser{
		User: models.User{
			ID:           userID,
			Name:         first + " " + f.faker.LastName(),
			Email:        fmt.Sprintf("%s.%d@demo.healthbuddy.local", strings.ToLower(first), i+1),
			LoginMethod:  "password",
			Role:         models.RoleUser,
			PasswordHash: f.hash,
			CreatedAt:    joined,
			LastSignedIn: joined,
		},
		Profile: models.UserProfile{
			ID:           models.NewID("profile", userID, joined),
			UserID:       userID,
			AgeGroup:     f.faker.RandomString(ageGroups),
			Gender:       f.faker.RandomString([]string{"male", "female", "other"}),
			FitnessLevel: f.faker.RandomString(difficulties),
			HealthGoals:  pick(f.faker, []string{"lose weight", "build strength", "sleep better", "reduce stress", "eat healthier"}),
			CreatedAt:    joined,
			UpdatedAt:    joined,
		},
	}

	points := f.faker.Number(0, 2500)
	d.Points = models.UserPoints{
		ID:            "points_" + userID,
		UserID:        userID,
		TotalPoints:   points,
		CurrentStreak: f.faker.Number(0, 14),
		LongestStreak: f.faker.Number(14, 60),
		Level:         points/100 + 1,
		Rank:          models.RankBeginner,
		UpdatedAt:     f.now,
	}

	for p := 0; p < f.opts.PostsPerUser; p++ {
		created := f.now.Add(-time.Duration(f.faker.Number(0, f.maxDays()*24*60)) * time.Minute)
		post := models.CommunityPost{
			ID:        fmt.Sprintf("post_%s_%d", userID, created.UnixMilli()+int64(p)),
			UserID:    userID,
			Content:   f.faker.Paragraph(1, 3, 12, " "),
			Category:  postCategories[p%len(postCategories)],
			Likes:     f.faker.Number(0, 40),
			CreatedAt: created,
			UpdatedAt: created,
		}
		if f.faker.Bool() {
			post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
		}
		d.Posts = append(d.Posts, post)
	}

	return d, nil
}

// CreateDemoUsers builds and, unless DryRun is set, persists n demo users.
// Existing demo ids are skipped so the command can be re-run.
func (f *Factory) CreateDemoUsers(n int) ([]*DemoUser, error) {
	out := make([]*DemoUser, 0, n)
	for i := 0; i < n; i++ {
		d, err := f.BuildDemoUser(i)
		if err != nil {
			return out, err
		}
		out = append(out, d)
		if f.opts.DryRun {
			continue
		}

		err = f.db.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.User{}).Where("id = ?", d.User.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return nil
			}
			if err := tx.Create(&d.User).Error; err != nil {
				return err
			}
			if err := tx.Create(&d.Profile).Error; err != nil {
				return err
			}
			if err := tx.Create(&d.Points).Error; err != nil {
				return err
			}
			if len(d.Posts) > 0 {
				return tx.Create(&d.Posts).Error
			}
			return nil
		})
		if err != nil {
			return out, fmt.Errorf("create demo user %s: %w", d.User.ID, err)
		}
	}
	return out, nil
}

func (f *Factory) maxDays() int {
	if f.opts.MaxDays <= 0 {
		return 90
	}
	return f.opts.MaxDays
}
