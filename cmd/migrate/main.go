package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/aura-storefront/pkg/config"
	"github.com/angelmondragon/aura-storefront/pkg/db"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
	"github.com/angelmondragon/aura-storefront/pkg/migrate"
)

// gooseCommands pass straight through to goose.
var gooseCommands = map[string]bool{"up": true, "down": true, "status": true, "redo": true}

func main() {
	os.Exit(run())
}

func run() int {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "up|down|status|redo|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory; the default runs the embedded set")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target YYYYMMDDHHMMSS for -cmd=version")
	flag.Parse()

	// create and validate only touch files
	switch *cmd {
	case "create":
		if *name == "" {
			fmt.Fprintln(os.Stderr, "missing -name for create")
			return 2
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create migration: %v\n", err)
			return 1
		}
		fmt.Println("created", path)
		return 0
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fmt.Fprintf(os.Stderr, "invalid migrations: %v\n", err)
			return 1
		}
		fmt.Println("migrations ok")
		return 0
	}

	if !gooseCommands[*cmd] && *cmd != "version" {
		fmt.Fprintf(os.Stderr, "unknown -cmd %q\n", *cmd)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		return 1
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	if cfg.DB.UsesMongo() {
		logg.Warn(ctx, "the mongo document store has no sql schema, nothing to migrate")
		return 1
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		return 1
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "failed to unwrap sql database", err)
		return 1
	}
	dialect := migrate.Dialect(cfg.DB)

	if *cmd == "version" {
		if *version == "" {
			fmt.Fprintln(os.Stderr, "missing -version")
			return 2
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, dialect, *dir, *version)
	} else {
		err = migrate.Run(ctx, sqlDB, dialect, *dir, *cmd)
	}
	if err != nil {
		logg.Error(ctx, "migration failed", err)
		return 1
	}
	logg.Info(ctx, "migration finished")
	return 0
}
