package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/advisory/backoffice/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase wraps a sqlmock connection behind the postgres dialector
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)
	return &Database{DB: db, Driver: config.DriverPostgres}, mock
}

// newTestDatabase opens a migrated sqlite file in a temp dir
func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := Open(context.Background(), &config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "advisory.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", SQLiteDSN("advisory.db", false))
	assert.Equal(t, "file:legacy.db?mode=ro&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", SQLiteDSN("legacy.db", true))
	assert.Equal(t, "x.db?cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", SQLiteDSN("x.db?cache=shared", false))
}

func TestDialector(t *testing.T) {
	pg, err := Dialector(&config.DatabaseConfig{Driver: config.DriverPostgres, Host: "localhost", Port: 5432})
	require.NoError(t, err)
	assert.Equal(t, "postgres", pg.Name())

	lite, err := Dialector(&config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: "a.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", lite.Name())

	_, err = Dialector(&config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "oracle")
}

func TestOpen_SQLite(t *testing.T) {
	db := newTestDatabase(t)

	assert.NoError(t, db.PingContext(context.Background()))
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	for _, table := range []string{"client", "snapshot", "client_note", "client_beneficiary",
		"saving_product", "existing_product", "new_product", "form_instance", "client_signature_request"} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}
}

func TestOpen_UnreachableSQLitePath(t *testing.T) {
	_, err := Open(context.Background(), &config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "missing", "nested", "test.db"),
	}, nil)
	assert.Error(t, err)
}

func TestDatabase_PingAndClose(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectPing()
	mock.ExpectClose()

	assert.NoError(t, db.PingContext(context.Background()))
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
