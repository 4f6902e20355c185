package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/advisory/backoffice/internal/infrastructure/config"
	"github.com/advisory/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	// pure-Go sqlite driver, registered as "sqlite"
	_ "modernc.org/sqlite"
)

// SQLiteDriverName is the database/sql driver used for every sqlite file
const SQLiteDriverName = "sqlite"

// Database is the application's GORM handle and the driver it was opened with
type Database struct {
	DB     *gorm.DB
	Driver string
}

// Open connects, sizes the pool and pings. A nil log silences GORM.
func Open(ctx context.Context, cfg *config.DatabaseConfig, log gormlogger.Interface) (*Database, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = gormlogger.Discard
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 log,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case config.DriverSQLite:
		// one writer at a time
		sqlDB.SetMaxOpenConns(1)
	default:
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	d := &Database{DB: db, Driver: cfg.Driver}
	if err := d.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.Driver, err)
	}
	return d, nil
}

// Dialector picks the GORM dialector for the configured driver
func Dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return SQLiteDialector(SQLiteDSN(cfg.SQLitePath, false)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// SQLiteDialector opens a sqlite DSN through the pure-Go driver
func SQLiteDialector(dsn string) gorm.Dialector {
	return sqlite.New(sqlite.Config{DriverName: SQLiteDriverName, DSN: dsn})
}

// SQLiteDSN enforces foreign keys and waits up to five seconds on a locked
// file. A read-only DSN never creates the file.
func SQLiteDSN(path string, readOnly bool) string {
	const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if readOnly {
		return "file:" + path + "?mode=ro&" + pragmas
	}
	if strings.Contains(path, "?") {
		return path + "&" + pragmas
	}
	return path + "?" + pragmas
}

// AutoMigrate creates or updates every table from the persistence models.
// Versioned SQL migrations remain the source of truth for postgres.
func (d *Database) AutoMigrate(ctx context.Context) error {
	if err := d.DB.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// PingContext backs the readiness probe
func (d *Database) PingContext(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
