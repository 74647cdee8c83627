package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/config"
	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/logger"
	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/migration"
)

func main() {
	sourcePath := flag.String("path", "migrations", "directory containing migration files")
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), flag.Arg(1), *sourcePath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate [-path dir] <up|down|version|force VERSION>")
}

func run(command, arg, sourcePath string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zapLogger, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stderr"})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	runner, err := migration.NewRunner(cfg.Database.URL(), sourcePath, zapLogger)
	if err != nil {
		return err
	}
	defer func() { _ = runner.Close() }()

	switch command {
	case "up":
		return runner.Up()
	case "down":
		return runner.Down()
	case "version":
		version, dirty, err := runner.Version()
		if err != nil {
			return err
		}
		zapLogger.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	case "force":
		version, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("force needs a numeric version, got %q", arg)
		}
		return runner.Force(version)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}
