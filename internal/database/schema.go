package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"healthbuddy/internal/config"
	"healthbuddy/internal/middleware"
	"healthbuddy/internal/models"

	"gorm.io/gorm"
)

const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan says which schema steps run for a config.
type SchemaPlan struct {
	Mode string
	SQL  bool
	Auto bool
}

// SchemaStatus is what `cmd/migrate status` prints.
type SchemaStatus struct {
	SchemaPlan
	Environment   string
	Applied       []AppliedMigration
	Pending       []Migration
	MissingTables []string
	Plans         int64
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

// planSchema resolves DB_SCHEMA_MODE. AutoMigrate never runs in production-like
// environments unless auto mode is explicitly allowed to alter tables.
func planSchema(cfg *config.Config) (SchemaPlan, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		mode = SchemaModeHybrid
	}
	prodLike := isProdLikeEnv(cfg.Env)

	plan := SchemaPlan{Mode: mode}
	switch mode {
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeHybrid:
		plan.SQL = true
		plan.Auto = !prodLike
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("DB_SCHEMA_MODE=auto in %q needs DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.Auto = true
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
	return plan, nil
}

// ApplySchema brings the database up to date and fails when a persistent
// model still has no table afterwards.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		n, err := RunMigrations(ctx, db)
		if err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
		if n > 0 {
			middleware.Logger.Info("SQL migrations applied", slog.Int("count", n))
		}
	}
	if plan.Auto {
		if plan.Mode == SchemaModeAuto && cfg.DBAutoMigrateAllowDestructive {
			middleware.Logger.Warn("AutoMigrate allowed outside development; review schema diffs before deploying")
		}
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", plan.Mode), slog.String("env", cfg.Env))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	if missing := missingTables(db); len(missing) > 0 {
		return fmt.Errorf("schema incomplete, missing tables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// missingTables lists persistent model tables absent from the database.
func missingTables(db *gorm.DB) []string {
	var missing []string
	for _, model := range PersistentModels() {
		if db.Migrator().HasTable(model) {
			continue
		}
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			missing = append(missing, fmt.Sprintf("%T", model))
			continue
		}
		missing = append(missing, stmt.Schema.Table)
	}
	return missing
}

func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}

	applied, err := NewMigrationStore(db).Applied(ctx)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		SchemaPlan:    plan,
		Environment:   cfg.Env,
		Applied:       applied,
		MissingTables: missingTables(db),
	}

	done := make(map[int]bool, len(applied))
	for _, row := range applied {
		done[row.Version] = true
	}
	for _, m := range GetMigrations() {
		if !done[m.Version] {
			status.Pending = append(status.Pending, m)
		}
	}

	if db.Migrator().HasTable(&models.SubscriptionPlan{}) {
		if err := db.WithContext(ctx).Model(&models.SubscriptionPlan{}).Count(&status.Plans).Error; err != nil {
			return nil, fmt.Errorf("count subscription plans: %w", err)
		}
	}
	return status, nil
}
