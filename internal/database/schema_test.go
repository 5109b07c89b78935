package database

import (
	"context"
	"testing"

	"healthbuddy/internal/config"
	"healthbuddy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sqliteMigrations is a small ledger-compatible set that runs on sqlite.
func sqliteMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_journal", UpScript: "CREATE TABLE journal (id INTEGER PRIMARY KEY, note TEXT)", DownScript: "DROP TABLE journal"},
		{Version: 2, Name: "create_streaks", UpScript: "CREATE TABLE streaks (id INTEGER PRIMARY KEY, days INTEGER)", DownScript: "DROP TABLE streaks"},
	}
}

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Config
		want      SchemaPlan
		expectErr bool
	}{
		{name: "default hybrid in development", cfg: config.Config{Env: "development"}, want: SchemaPlan{Mode: SchemaModeHybrid, SQL: true, Auto: true}},
		{name: "hybrid in production skips automigrate", cfg: config.Config{Env: "production", DBSchemaMode: "hybrid"}, want: SchemaPlan{Mode: SchemaModeHybrid, SQL: true}},
		{name: "sql only", cfg: config.Config{Env: "development", DBSchemaMode: "SQL "}, want: SchemaPlan{Mode: SchemaModeSQL, SQL: true}},
		{name: "auto in development", cfg: config.Config{Env: "development", DBSchemaMode: "auto"}, want: SchemaPlan{Mode: SchemaModeAuto, Auto: true}},
		{name: "auto refused in staging", cfg: config.Config{Env: "staging", DBSchemaMode: "auto"}, expectErr: true},
		{name: "auto allowed in staging with override", cfg: config.Config{Env: "staging", DBSchemaMode: "auto", DBAutoMigrateAllowDestructive: true}, want: SchemaPlan{Mode: SchemaModeAuto, Auto: true}},
		{name: "unknown mode", cfg: config.Config{Env: "development", DBSchemaMode: "magic"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			plan, err := planSchema(&cfg)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan)
		})
	}
}

func TestVerifyLedger(t *testing.T) {
	registered := sqliteMigrations()
	first := registered[0]

	assert.NoError(t, verifyLedger(nil, registered))
	assert.NoError(t, verifyLedger([]AppliedMigration{{Version: 1, Checksum: first.Checksum()}}, registered))
	assert.NoError(t, verifyLedger([]AppliedMigration{{Version: 1}}, registered), "rows without checksum are trusted")

	err := verifyLedger([]AppliedMigration{{Version: 1}, {Version: 7}, {Version: 3}}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000003, 000007")

	err = verifyLedger([]AppliedMigration{{Version: 1, Checksum: "deadbeef"}}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000001_create_journal")
}

func TestRegisteredMigrations(t *testing.T) {
	migs := GetMigrations()
	require.GreaterOrEqual(t, len(migs), 2)
	assert.Equal(t, 1, migs[0].Version)
	assert.Equal(t, "init_schema", migs[0].Name)
	assert.Equal(t, "000001_init_schema", migs[0].String())
	assert.Contains(t, migs[1].UpScript, "plan_basic")
	assert.Len(t, migs[0].Checksum(), 64)

	assert.NotNil(t, GetMigrationByVersion(2))
	assert.Nil(t, GetMigrationByVersion(999))
}

func TestRunMigrations_SQLite(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	set := sqliteMigrations()

	applied, err := NewMigrationStore(db).Applied(ctx)
	require.NoError(t, err, "missing ledger reads as empty")
	assert.Empty(t, applied)

	n, err := runMigrations(ctx, db, set)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, db.Migrator().HasTable("journal"))
	assert.True(t, db.Migrator().HasTable("streaks"))

	n, err = runMigrations(ctx, db, set)
	require.NoError(t, err)
	assert.Zero(t, n)

	applied, err = NewMigrationStore(db).Applied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, set[1].Checksum(), applied[1].Checksum)

	set[0].UpScript += " -- edited"
	_, err = runMigrations(ctx, db, set)
	assert.ErrorContains(t, err, "edited after release")
}

func TestRunMigrations_FailedScriptLeavesNoLedgerRow(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	set := []Migration{
		{Version: 1, Name: "ok", UpScript: "CREATE TABLE journal (id INTEGER)", DownScript: "DROP TABLE journal"},
		{Version: 2, Name: "broken", UpScript: "CREATE TABLE", DownScript: ""},
	}

	n, err := runMigrations(ctx, db, set)
	require.Error(t, err)
	assert.Equal(t, 1, n)

	applied, err := NewMigrationStore(db).Applied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, 1, applied[0].Version)
}

func TestRollback_OnlyNewest(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	set := sqliteMigrations()

	_, err := runMigrations(ctx, db, set)
	require.NoError(t, err)

	assert.ErrorContains(t, rollback(ctx, db, set, 1), "roll back 000002_create_streaks before 000001_create_journal")
	assert.ErrorContains(t, rollback(ctx, db, set, 9), "not found")

	require.NoError(t, rollback(ctx, db, set, 2))
	assert.False(t, db.Migrator().HasTable("streaks"))
	assert.ErrorContains(t, rollback(ctx, db, set, 2), "has not been applied")

	require.NoError(t, rollback(ctx, db, set, 1))
	applied, err := NewMigrationStore(db).Applied(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestSchemaStatus_SQLite(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	cfg := &config.Config{Env: "development", DBSchemaMode: SchemaModeAuto}

	status, err := GetSchemaStatus(ctx, db, cfg)
	require.NoError(t, err)
	assert.Equal(t, SchemaPlan{Mode: SchemaModeAuto, Auto: true}, status.SchemaPlan)
	assert.Contains(t, status.MissingTables, "users")
	assert.Contains(t, status.MissingTables, "support_tickets")
	assert.Len(t, status.Pending, len(GetMigrations()))
	assert.Zero(t, status.Plans)

	require.NoError(t, ApplySchema(ctx, db, cfg))
	require.NoError(t, db.Create(&models.SubscriptionPlan{ID: models.PlanBasic, Name: "Basic Plan", Price: "5.00", Currency: "GBP", BillingPeriod: models.BillingMonthly}).Error)

	status, err = GetSchemaStatus(ctx, db, cfg)
	require.NoError(t, err)
	assert.Empty(t, status.MissingTables)
	assert.Equal(t, int64(1), status.Plans)
}

func TestMissingTables_RepairedByAutoMigrate(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, db.AutoMigrate(PersistentModels()...))
	require.NoError(t, db.Migrator().DropTable("health_tracking"))

	assert.Equal(t, []string{"health_tracking"}, missingTables(db))

	cfg := &config.Config{Env: "development", DBSchemaMode: SchemaModeAuto}
	require.NoError(t, ApplySchema(ctx, db, cfg))
	assert.Empty(t, missingTables(db))
}
