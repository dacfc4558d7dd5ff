package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"todobot/internal/telemetry"
)

// Options selects and configures a storage backend.
type Options struct {
	// Backend: "json" | "memory" | "sqlite" | "postgres"
	Backend     string
	DataDir     string
	DatabaseURL string
	Logger      *log.Logger
	Events      telemetry.Repository
}

// Open builds the Store named by opts.Backend.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "json", "":
		return NewFileStore(opts.DataDir, opts.Logger, opts.Events)
	case "sqlite":
		if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
			return nil, err
		}
		db, err := sql.Open("sqlite", filepath.Join(opts.DataDir, "todobot.db"))
		if err != nil {
			return nil, err
		}
		return NewSQLStore(db, "sqlite", opts.Logger, opts.Events)
	case "postgres":
		db, err := sql.Open("postgres", opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		return NewSQLStore(db, "postgres", opts.Logger, opts.Events)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
