package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// sqlmockDatabase wraps a sqlmock connection in the postgres dialector.
// Callers that do not close the database themselves get it closed on cleanup.
func sqlmockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	dialector := postgres.New(postgres.Config{Conn: conn, DriverName: "postgres"})
	gdb, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return &Database{DB: gdb}, mock
}

func TestDatabase_PingAndClose(t *testing.T) {
	db, mock := sqlmockDatabase(t)

	mock.ExpectPing()
	require.NoError(t, db.Ping(context.Background()))

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_PoolStatsAddUp(t *testing.T) {
	db, _ := sqlmockDatabase(t)

	s := db.PoolStats()
	assert.GreaterOrEqual(t, s.OpenConnections, 0)
	assert.Equal(t, s.OpenConnections, s.InUse+s.Idle)
}

func TestNewDatabase_SQLiteMemory(t *testing.T) {
	db, err := NewDatabase(&config.DatabaseConfig{Driver: config.DatabaseDriverSQLite, Path: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.AutoMigrate(context.Background()))
	for _, table := range []string{"categories", "products", "product_variants", "orders", "order_lines"} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}
	// a second connection would see its own empty :memory: database
	assert.Equal(t, 1, db.PoolStats().MaxOpenConnections)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "oracle"}, nil)
	assert.ErrorContains(t, err, "unsupported database driver")
}
