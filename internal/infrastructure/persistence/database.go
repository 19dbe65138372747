package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database owns the GORM handle of the catalog and order tables
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens and pings the database described by cfg. A nil
// gormLogger silences GORM.
func NewDatabase(cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}
	sqliteDB := cfg.Driver == config.DatabaseDriverSQLite

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DatabaseDriverPostgres, "":
		dialector = postgres.Open(cfg.DSN())
	case config.DatabaseDriverSQLite:
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            !sqliteDB,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	d := &Database{DB: db}

	pool, err := d.sqlDB()
	if err != nil {
		return nil, err
	}
	if sqliteDB {
		// an in-memory sqlite database lives as long as its single connection
		pool.SetMaxOpenConns(1)
	} else {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
		pool.SetMaxIdleConns(cfg.MaxIdleConns)
		pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
		pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}
	if err := pool.Ping(); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.Driver, err)
	}
	return d, nil
}

func (d *Database) sqlDB() (*sql.DB, error) {
	pool, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	return pool, nil
}

// AutoMigrate creates or updates the catalog and order tables
func (d *Database) AutoMigrate(ctx context.Context) error {
	if err := d.DB.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (d *Database) Close() error {
	pool, err := d.sqlDB()
	if err != nil {
		return err
	}
	return pool.Close()
}

// Ping checks the database is reachable. It serves the health endpoint.
func (d *Database) Ping(ctx context.Context) error {
	pool, err := d.sqlDB()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

// PoolStats snapshots the connection pool. A handle that cannot be
// unwrapped reports zero stats.
func (d *Database) PoolStats() sql.DBStats {
	pool, err := d.sqlDB()
	if err != nil {
		return sql.DBStats{}
	}
	return pool.Stats()
}
