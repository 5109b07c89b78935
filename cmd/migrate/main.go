// Command migrate runs schema operations for the HealthBuddy database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"healthbuddy/internal/config"
	"healthbuddy/internal/database"
	"healthbuddy/internal/seed"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: migrate <up|auto|status|down|plans> [version]")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	switch cmd {
	case "up":
		n, err := database.RunMigrations(ctx, db)
		if err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Printf("%d sql migrations applied", n)
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		log.Printf("mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d plans=%d",
			status.Mode, status.Environment, status.SQL, status.Auto, len(status.Applied), len(status.Pending), status.Plans)
		for _, m := range status.Pending {
			log.Printf("pending: %s", m.String())
		}
		for _, table := range status.MissingTables {
			log.Printf("missing table: %s", table)
		}
		if status.Plans == 0 {
			log.Println("no subscription plans; run `migrate plans` or `migrate up`")
		}
	case "down":
		if flag.NArg() < 2 {
			return fmt.Errorf("usage: migrate down <version>")
		}
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", flag.Arg(1), err)
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("rolled back migration %d", version)
	case "plans":
		if err := seed.Plans(db); err != nil {
			return err
		}
		log.Printf("%d subscription plans upserted", len(seed.BuiltInPlans))
	default:
		return usage()
	}

	return nil
}
