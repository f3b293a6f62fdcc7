package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/shiomura/utakai/internal/domain"
	"github.com/shiomura/utakai/internal/errors"
	"github.com/shiomura/utakai/internal/telemetry"
)

// Roster returns the master roster of known participant names in append
// order. Names are only ever added, never removed or renamed.
func (s *Service) Roster(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT name FROM master_roster ORDER BY position;`)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}

	names, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (string, error) {
		var name string
		err := r.Scan(&name)
		return name, err
	})
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}

	return names, nil
}

// AppendRosterName adds a display name to the master roster. Duplicate
// appends are de-duplicated on write, so two clients racing to add the same
// name both succeed and the name appears once.
func (s *Service) AppendRosterName(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("roster name must not be empty"))
	}

	const stmt = `INSERT INTO master_roster (name) VALUES ($1) ON CONFLICT (name) DO NOTHING;`
	tag, err := s.db.Exec(ctx, stmt, name)
	if err != nil {
		return nil, fmt.Errorf("append roster name %q: %w", name, err)
	}

	names, err := s.Roster(ctx)
	if err != nil {
		return nil, err
	}

	if tag.RowsAffected() > 0 {
		telemetry.RosterAppends.Inc()
		s.eb.Publish(ctx, domain.EventRosterChanged{Names: names})
	}

	return names, nil
}
