package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open returns the KV backend selected by driver, rooted at path.
// For the file driver path is a directory; for sqlite it is the database file.
func Open(driver, path string) (KV, error) {
	switch driver {
	case DriverFile, "":
		return NewFS(path)
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("storage: create db dir: %w", err)
		}
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}
