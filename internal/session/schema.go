package session

import (
	"context"
	"fmt"
)

// EnsureSchema creates the store tables if they are missing. The session
// table is a document table: the row columns exist only for ordering and
// list filtering, the jsonb document is the record of truth.
func (s *Service) EnsureSchema(ctx context.Context) error {
	const sessionsStmt = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	date        TIMESTAMPTZ NOT NULL,
	is_finished BOOLEAN NOT NULL DEFAULT FALSE,
	is_deleted  BOOLEAN NOT NULL DEFAULT FALSE,
	document    JSONB NOT NULL,
	update_time TIMESTAMPTZ NOT NULL DEFAULT now()
);`

	const rosterStmt = `
CREATE TABLE IF NOT EXISTS master_roster (
	position BIGSERIAL PRIMARY KEY,
	name     TEXT NOT NULL UNIQUE
);`

	if _, err := s.db.Exec(ctx, sessionsStmt); err != nil {
		return fmt.Errorf("ensure sessions schema: %w", err)
	}
	if _, err := s.db.Exec(ctx, rosterStmt); err != nil {
		return fmt.Errorf("ensure roster schema: %w", err)
	}

	return nil
}

// SeedRoster appends the configured starter names, skipping ones already
// present. Used on first boot so the setup screen has singers to pick.
func (s *Service) SeedRoster(ctx context.Context, names []string) error {
	for _, n := range names {
		const stmt = `INSERT INTO master_roster (name) VALUES ($1) ON CONFLICT (name) DO NOTHING;`
		if _, err := s.db.Exec(ctx, stmt, n); err != nil {
			return fmt.Errorf("seed roster name %q: %w", n, err)
		}
	}

	return nil
}
