package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/config"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/logger"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/migration"
	"github.com/rdietscht/ACME-NextJS-Tutorial/migrations"
	"go.uber.org/zap"
)

const usage = `Invoice dashboard schema migrations

Usage:
  migrate [-path dir] [-log-level level] <command> [argument]

Commands:
  up             apply every pending migration
  down           roll back every migration
  step <n>       apply n migrations, negative n rolls back
  version        print the applied version
  force <v>      mark version v as applied without running it

The database connection is read from config.toml and DASH_DATABASE_*
variables. -path defaults to database.migrations_path; when both are empty
the scripts embedded in this binary are used.`

var errUsage = errors.New("invalid usage")

// command runs against an open migrator; arg is the optional argument
type command func(m *migration.Migrator, arg string, log *zap.Logger) error

var commands = map[string]command{
	"up": func(m *migration.Migrator, _ string, _ *zap.Logger) error {
		return m.Up()
	},
	"down": func(m *migration.Migrator, _ string, _ *zap.Logger) error {
		return m.Down()
	},
	"step": func(m *migration.Migrator, arg string, _ *zap.Logger) error {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: step needs a signed count, got %q", errUsage, arg)
		}
		return m.Steps(n)
	},
	"version": func(m *migration.Migrator, _ string, log *zap.Logger) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	},
	"force": func(m *migration.Migrator, arg string, log *zap.Logger) error {
		version, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: force needs a version, got %q", errUsage, arg)
		}
		log.Warn("Forcing schema version", zap.Int("version", version))
		return m.Force(version)
	},
}

func main() {
	path := flag.String("path", "", "migrations directory")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      *level,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	err = run(flag.Args(), *path, log)
	_ = log.Sync()
	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error("Migration failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(args []string, path string, log *zap.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	arg := ""
	if len(args) > 1 {
		arg = args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if path == "" {
		path = cfg.Database.MigrationsPath
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := openMigrator(db, path, log)
	if err != nil {
		return err
	}
	defer m.Close()

	log.Info("Running migration command", zap.String("command", args[0]))
	return cmd(m, arg, log)
}

func openMigrator(db *sql.DB, path string, log *zap.Logger) (*migration.Migrator, error) {
	if path == "" {
		return migration.NewFromFS(db, migrations.FS, log)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return migration.New(db, abs, log)
}
