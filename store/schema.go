package store

import (
	"fmt"

	"gorm.io/gorm"
)

// schemaVersion is written to PRAGMA user_version once the images table exists.
const schemaVersion = 1

const createImagesTable = `
CREATE TABLE IF NOT EXISTS images (
	id INTEGER PRIMARY KEY NOT NULL,
	filePath TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	latitude REAL,
	longitude REAL,
	name TEXT
)`

func ensureSchema(db *gorm.DB) error {
	var mode string
	if err := db.Raw("PRAGMA journal_mode = WAL").Scan(&mode).Error; err != nil {
		return fmt.Errorf("set journal mode: %w", err)
	}

	var version int
	if err := db.Raw("PRAGMA user_version").Scan(&version).Error; err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, schemaVersion)
	}

	if err := db.Exec(createImagesTable).Error; err != nil {
		return fmt.Errorf("create images table: %w", err)
	}

	if version < schemaVersion {
		// PRAGMA does not accept bound parameters.
		if err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)).Error; err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
	}
	return nil
}
