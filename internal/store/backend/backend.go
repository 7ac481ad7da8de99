// Package backend opens the store.Store named by a database URL.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"formassist-backend/internal/store"
	"formassist-backend/internal/store/memory"
	"formassist-backend/internal/store/postgres"
	"formassist-backend/internal/store/sqlite"
)

const (
	schemeMemory = "memory://"
	schemeSQLite = "sqlite://"
)

// Persistent reports whether databaseURL names a store that outlives the process.
func Persistent(databaseURL string) bool {
	u := strings.TrimSpace(databaseURL)
	return u != "" && !strings.HasPrefix(u, schemeMemory)
}

// Open selects a backend by URL scheme: empty or memory:// for in-process,
// sqlite://<path> for a local file, postgres:// or postgresql:// for PostgreSQL.
func Open(ctx context.Context, databaseURL string, log zerolog.Logger) (store.Store, error) {
	u := strings.TrimSpace(databaseURL)
	switch {
	case u == "" || strings.HasPrefix(u, schemeMemory):
		log.Info().Msg("Using in-memory store; state is lost on exit")
		return memory.New(), nil
	case strings.HasPrefix(u, schemeSQLite):
		path := strings.TrimPrefix(u, schemeSQLite)
		s, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		log.Info().Str("path", path).Msg("SQLite store ready")
		return s, nil
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		s, err := postgres.Open(ctx, u, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		log.Info().Msg("PostgreSQL store ready")
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database URL scheme in %q", u)
	}
}
