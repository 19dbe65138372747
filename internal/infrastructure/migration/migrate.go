// Package migration applies the versioned PostgreSQL schema of the catalog
// and order tables. The schema ships embedded in the binary; a directory on
// disk can replace it.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var embedded embed.FS

// Schema returns the embedded migration files
func Schema() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrator moves a PostgreSQL database between schema versions
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// New creates a Migrator for db. An empty dir selects the embedded schema.
func New(db *sql.DB, dir string, logger *zap.Logger) (*Migrator, error) {
	schema := Schema()
	if dir != "" {
		schema = os.DirFS(dir)
	}
	src, err := iofs.New(schema, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	target, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("open postgres target: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", target)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	m.Log = migrateLogger{logger.Named("migrate")}
	return &Migrator{m: m, logger: logger}, nil
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	return m.apply("up", m.m.Up)
}

// Down reverts every applied migration
func (m *Migrator) Down() error {
	return m.apply("down", m.m.Down)
}

// Steps moves n versions; negative n reverts
func (m *Migrator) Steps(n int) error {
	return m.apply(fmt.Sprintf("step %+d", n), func() error { return m.m.Steps(n) })
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	return m.apply(fmt.Sprintf("goto %d", version), func() error { return m.m.Migrate(version) })
}

// apply runs one migrate operation. Having nothing to do is not an error.
func (m *Migrator) apply(op string, run func() error) error {
	m.logger.Info("Migrating", zap.String("op", op))
	err := run()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("Schema already up to date", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", op, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migration finished",
		zap.String("op", op),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Version returns the applied version. Zero means nothing is applied.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied without running anything, clearing a
// dirty flag left by a failed migration.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing schema version", zap.Int("version", version))
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and the database handle of the migrator
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// migrateLogger routes golang-migrate's own output to zap at debug level
type migrateLogger struct {
	l *zap.Logger
}

func (g migrateLogger) Printf(format string, v ...any) {
	g.l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g migrateLogger) Verbose() bool {
	return g.l.Core().Enabled(zap.DebugLevel)
}
