package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options tunes how the gallery database is opened.
type Options struct {
	// Verbose logs every statement; otherwise only warnings and slow queries.
	Verbose bool
	// Silent disables the GORM logger entirely (tests).
	Silent bool
}

// Open opens (creating if absent) the SQLite file at path.
func Open(path string, opts Options) (*gorm.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(resolveLogLevel(opts)),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// A file database must be reachable before the handle is handed out.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve sql db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func resolveLogLevel(opts Options) logger.LogLevel {
	switch {
	case opts.Silent:
		return logger.Silent
	case opts.Verbose:
		return logger.Info
	default:
		return logger.Warn
	}
}
