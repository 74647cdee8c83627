package migration

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Runner wraps golang-migrate for the schema migrations under migrations/.
type Runner struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// NewRunner creates a migration runner for the given database URL and
// migrations directory.
func NewRunner(databaseURL, sourcePath string, logger *zap.Logger) (*Runner, error) {
	m, err := migrate.New("file://"+sourcePath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	return &Runner{m: m, logger: logger.Named("migrate")}, nil
}

// Up applies all pending migrations.
func (r *Runner) Up() error {
	err := r.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		r.logger.Info("schema already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	r.logger.Info("migrations applied")
	return nil
}

// Down rolls back a single migration step.
func (r *Runner) Down() error {
	err := r.m.Steps(-1)
	if errors.Is(err, migrate.ErrNoChange) {
		r.logger.Info("nothing to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("roll back migration: %w", err)
	}
	r.logger.Info("rolled back one migration")
	return nil
}

// Version reports the current schema version and dirty state.
func (r *Runner) Version() (uint, bool, error) {
	version, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Force sets the schema version without running migrations, clearing a
// dirty state after a failed migration was fixed by hand.
func (r *Runner) Force(version int) error {
	return r.m.Force(version)
}

// Close releases the underlying source and database handles.
func (r *Runner) Close() error {
	srcErr, dbErr := r.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}
