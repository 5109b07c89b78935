// Package bootstrap wires the process-level runtime shared by the commands.
package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"

	"healthbuddy/internal/cache"
	"healthbuddy/internal/config"
	"healthbuddy/internal/database"
	"healthbuddy/internal/middleware"
	"healthbuddy/internal/models"
	"healthbuddy/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedPlans bool
}

// InitRuntime connects to DB and Redis, applies the schema and prepares
// built-in data. The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := Prepare(cfg, db, opts); err != nil {
		return nil, nil, err
	}
	return db, r, nil
}

// Prepare seeds built-in plans and promotes the configured owner to admin.
func Prepare(cfg *config.Config, db *gorm.DB, opts Options) error {
	if cfg == nil || db == nil {
		return nil
	}
	if opts.SeedPlans {
		if err := seed.Plans(db); err != nil {
			return fmt.Errorf("failed to seed built-in plans: %w", err)
		}
	}
	if err := ensureOwnerAdmin(cfg, db); err != nil {
		return fmt.Errorf("failed to promote owner: %w", err)
	}
	return nil
}

// ensureOwnerAdmin grants the admin role to OWNER_OPEN_ID when that user
// already exists. A missing user is promoted on first login instead.
func ensureOwnerAdmin(cfg *config.Config, db *gorm.DB) error {
	owner := strings.TrimSpace(cfg.OwnerOpenID)
	if owner == "" {
		return nil
	}
	res := db.Model(&models.User{}).
		Where("id = ? AND role <> ?", owner, models.RoleAdmin).
		Update("role", models.RoleAdmin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		middleware.Logger.Info("owner promoted to admin", slog.String("user_id", owner))
	}
	return nil
}
