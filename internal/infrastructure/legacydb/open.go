// Package legacydb reads the sqlite files of the retired mini CRM and
// justification systems. Files are opened read-only.
package legacydb

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/persistence"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open opens a legacy sqlite file read-only. A missing file yields ErrLegacySourceUnavailable.
func Open(path string, log gormlogger.Interface) (*gorm.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: no path configured", shared.ErrLegacySourceUnavailable)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", shared.ErrLegacySourceUnavailable, path)
		}
		return nil, fmt.Errorf("stat legacy database: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", shared.ErrLegacySourceUnavailable, path)
	}
	if log == nil {
		log = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	db, err := gorm.Open(persistence.SQLiteDialector(persistence.SQLiteDSN(path, true)), &gorm.Config{
		Logger:                 log,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open legacy database %s: %w", path, err)
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// timeLayouts covers what the legacy ORM wrote for Date and DateTime columns
// and what the sqlite driver hands back when it already parsed them.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTime parses a legacy timestamp; unparseable or empty text gives nil
func parseTime(v *string) *time.Time {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
