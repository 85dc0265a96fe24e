// Package main 提供数据库迁移管理的命令行工具
// 基于 go-migrate 库，支持 MySQL 与 SQLite 的向上迁移、向下迁移和版本管理
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/MorseWayne/shoe_catalog/internal/config"
	"github.com/MorseWayne/shoe_catalog/internal/database"
	"github.com/MorseWayne/shoe_catalog/internal/logger"
)

func usage() {
	fmt.Printf("Usage: %s -action=[up|down|version|force] [options]\n", os.Args[0])
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Run all pending migrations")
	fmt.Println("  ./migrate -action=up")
	fmt.Println()
	fmt.Println("  # Rollback 1 migration")
	fmt.Println("  ./migrate -action=down -steps=1")
	fmt.Println()
	fmt.Println("  # Migrate to specific version")
	fmt.Println("  ./migrate -action=version -target=1")
	fmt.Println()
	fmt.Println("  # Force migration version (clear dirty state, -1 means no version)")
	fmt.Println("  ./migrate -action=force -target=-1")
}

func main() {
	var (
		action = flag.String("action", "up", "Migration action: up, down, version, force")
		steps  = flag.Int("steps", 1, "Number of steps for down migration")
		target = flag.Int("target", 0, "Target version for version or force migration")
		dir    = flag.String("dir", "", "Migrations directory (defaults to MIGRATIONS_DIR)")
	)
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, "migrate", cfg.App.Version)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	db, err := database.New(cfg, lg)
	if err != nil {
		lg.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Sugar().Errorw("failed to close database", "error", err)
		}
	}()

	migrationsDir := cfg.Migrations.Dir
	if *dir != "" {
		migrationsDir = *dir
	}
	lg.Sugar().Infow("using migrations directory", "path", migrationsDir, "driver", db.Driver())

	switch *action {
	case "up":
		lg.Info("running up migrations...")
		if err := db.RunMigrations(migrationsDir); err != nil {
			lg.Sugar().Fatalw("failed to run up migrations", "error", err)
		}
		lg.Info("up migrations completed successfully")

	case "down":
		lg.Sugar().Infow("running down migrations", "steps", *steps)
		if err := db.MigrateDown(migrationsDir, *steps); err != nil {
			lg.Sugar().Fatalw("failed to run down migrations", "error", err)
		}
		lg.Info("down migrations completed successfully")

	case "version":
		if *target <= 0 {
			lg.Fatal("target version must be positive for version migration")
		}
		lg.Sugar().Infow("migrating to version", "target", *target)
		if err := db.MigrateToVersion(migrationsDir, uint(*target)); err != nil {
			lg.Sugar().Fatalw("failed to migrate to version", "error", err)
		}
		lg.Info("version migration completed successfully")

	case "force":
		lg.Sugar().Warnw("forcing migration version - this will clear dirty state", "target", *target)
		if err := db.ForceMigrationVersion(migrationsDir, *target); err != nil {
			lg.Sugar().Fatalw("failed to force migration version", "error", err)
		}
		lg.Info("migration version forced successfully")

	default:
		usage()
		os.Exit(1)
	}
}
