package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"healthbuddy/internal/middleware"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// AppliedMigration is one row of the schema_migrations ledger.
type AppliedMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"not null;index"`
}

func (AppliedMigration) TableName() string {
	return "schema_migrations"
}

// Checksum is the hex sha256 of the up script.
func (m *Migration) Checksum() string {
	sum := sha256.Sum256([]byte(m.UpScript))
	return hex.EncodeToString(sum[:])
}

// MigrationStore reads and changes the ledger. Apply and Revert run the
// script and the ledger change in one transaction.
type MigrationStore interface {
	Applied(ctx context.Context) ([]AppliedMigration, error)
	Apply(ctx context.Context, m Migration) error
	Revert(ctx context.Context, m Migration) error
}

type migrationStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewMigrationStore(db *gorm.DB) MigrationStore {
	return &migrationStore{db: db, now: time.Now}
}

// Applied returns the ledger ordered by version. A missing ledger table reads
// as an empty ledger.
func (s *migrationStore) Applied(ctx context.Context) ([]AppliedMigration, error) {
	var rows []AppliedMigration
	if err := s.db.WithContext(ctx).Order("version ASC").Find(&rows).Error; err != nil {
		if isMissingTableError(err) {
			return []AppliedMigration{}, nil
		}
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	return rows, nil
}

func (s *migrationStore) Apply(ctx context.Context, m Migration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.UpScript).Error; err != nil {
			return fmt.Errorf("apply migration %s: %w", m.String(), err)
		}
		row := AppliedMigration{
			Version:   m.Version,
			Name:      m.Name,
			Checksum:  m.Checksum(),
			AppliedAt: s.now().UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("record migration %s: %w", m.String(), err)
		}
		return nil
	})
}

func (s *migrationStore) Revert(ctx context.Context, m Migration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return fmt.Errorf("revert migration %s: %w", m.String(), err)
		}
		if err := tx.Where("version = ?", m.Version).Delete(&AppliedMigration{}).Error; err != nil {
			return fmt.Errorf("unrecord migration %s: %w", m.String(), err)
		}
		return nil
	})
}

func isMissingTableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	msg := err.Error()
	return (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		strings.Contains(msg, "no such table")
}

// RunMigrations applies every pending embedded migration and returns how many
// ran.
func RunMigrations(ctx context.Context, db *gorm.DB) (int, error) {
	return runMigrations(ctx, db, migrations)
}

func runMigrations(ctx context.Context, db *gorm.DB, set []Migration) (int, error) {
	if err := db.WithContext(ctx).AutoMigrate(&AppliedMigration{}); err != nil {
		return 0, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	store := NewMigrationStore(db)
	applied, err := store.Applied(ctx)
	if err != nil {
		return 0, err
	}
	if err := verifyLedger(applied, set); err != nil {
		return 0, err
	}

	done := make(map[int]bool, len(applied))
	for _, row := range applied {
		done[row.Version] = true
	}

	ran := 0
	for _, m := range set {
		if done[m.Version] {
			continue
		}
		middleware.Logger.Info("Applying migration", slog.String("migration", m.String()))
		if err := store.Apply(ctx, m); err != nil {
			return ran, err
		}
		ran++
	}
	return ran, nil
}

// verifyLedger rejects ledgers that name versions missing from the code or
// whose recorded checksum no longer matches the embedded script.
func verifyLedger(applied []AppliedMigration, registered []Migration) error {
	byVersion := make(map[int]Migration, len(registered))
	for _, m := range registered {
		byVersion[m.Version] = m
	}

	var unknown []int
	var changed []string
	for _, row := range applied {
		m, ok := byVersion[row.Version]
		if !ok {
			unknown = append(unknown, row.Version)
			continue
		}
		if row.Checksum != "" && row.Checksum != m.Checksum() {
			changed = append(changed, m.String())
		}
	}

	if len(unknown) > 0 {
		sort.Ints(unknown)
		parts := make([]string, 0, len(unknown))
		for _, v := range unknown {
			parts = append(parts, fmt.Sprintf("%06d", v))
		}
		return fmt.Errorf("schema_migrations lists versions unknown to this build: %s", strings.Join(parts, ", "))
	}
	if len(changed) > 0 {
		return fmt.Errorf("applied migrations were edited after release: %s (add a new migration instead)", strings.Join(changed, ", "))
	}
	return nil
}

// RollbackMigration reverts version, which must be the newest applied one.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return rollback(ctx, db, migrations, version)
}

func rollback(ctx context.Context, db *gorm.DB, set []Migration, version int) error {
	var target *Migration
	for i := range set {
		if set[i].Version == version {
			target = &set[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	store := NewMigrationStore(db)
	applied, err := store.Applied(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, row := range applied {
		if row.Version == version {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("migration %s has not been applied", target.String())
	}
	if newest := applied[len(applied)-1]; newest.Version != version {
		return fmt.Errorf("roll back %06d_%s before %s", newest.Version, newest.Name, target.String())
	}

	middleware.Logger.Info("Rolling back migration", slog.String("migration", target.String()))
	return store.Revert(ctx, *target)
}
