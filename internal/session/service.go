// Package session owns the authoritative session collection and the master
// roster. Writes are full-document upserts: the whole session replaces the
// stored one, so concurrent edits to the same session are last-writer-wins
// with no field-level merge. Every successful write re-broadcasts the full
// collection through the event bus.
package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shiomura/utakai/internal/domain"
	"github.com/shiomura/utakai/internal/errors"
	"github.com/shiomura/utakai/internal/event"
	"github.com/shiomura/utakai/internal/telemetry"
)

// DB is the slice of pgxpool.Pool the store needs. Narrowed to an interface
// so the document round-trip semantics can be exercised without postgres.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Config struct {
	DB       DB
	EventBus *event.Bus
}

type Service struct {
	db DB
	eb *event.Bus
}

func NewService(c Config) *Service {
	return &Service{
		db: c.DB,
		eb: c.EventBus,
	}
}

// Save upserts the full session document. It is idempotent and intentionally
// blind: there is no version check and no partial update, matching the
// store's last-writer-wins contract. A missing session id means a new
// session; missing participant ids are assigned on the way in.
func (s *Service) Save(ctx context.Context, ss domain.Session) (domain.Session, error) {
	if err := assignIDs(&ss); err != nil {
		return domain.Session{}, err
	}

	doc, err := json.Marshal(ss)
	if err != nil {
		return domain.Session{}, fmt.Errorf("marshal session %s: %w", ss.ID, err)
	}

	const stmt = `
INSERT INTO sessions (id, date, is_finished, is_deleted, document, update_time)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (id) DO UPDATE
SET date = EXCLUDED.date,
    is_finished = EXCLUDED.is_finished,
    is_deleted = EXCLUDED.is_deleted,
    document = EXCLUDED.document,
    update_time = now();`

	if _, err := s.db.Exec(ctx, stmt, ss.ID, ss.Date, ss.IsFinished, ss.IsDeleted, doc); err != nil {
		return domain.Session{}, fmt.Errorf("upsert session %s: %w", ss.ID, err)
	}

	telemetry.SessionWrites.WithLabelValues("save").Inc()

	s.broadcast(ctx)

	return ss, nil
}

// Get returns a single session by id, deleted or not.
func (s *Service) Get(ctx context.Context, id string) (domain.Session, error) {
	const stmt = `SELECT document FROM sessions WHERE id = $1;`

	var doc []byte
	err := s.db.QueryRow(ctx, stmt, id).Scan(&doc)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, errors.New(errors.CodeNotFound,
			errors.WithMessagef("session not found: %s", id))
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session %s: %w", id, err)
	}

	var ss domain.Session
	if err := json.Unmarshal(doc, &ss); err != nil {
		return domain.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}

	return ss, nil
}

// List returns the whole collection, date descending, deleted included.
func (s *Service) List(ctx context.Context) ([]domain.Session, error) {
	return s.list(ctx, `SELECT document FROM sessions ORDER BY date DESC;`)
}

// ListActive returns the sessions shown on the history screen.
func (s *Service) ListActive(ctx context.Context) ([]domain.Session, error) {
	return s.list(ctx, `SELECT document FROM sessions WHERE NOT is_deleted ORDER BY date DESC;`)
}

// ListDeleted returns the soft-deleted sessions shown on the trash screen.
func (s *Service) ListDeleted(ctx context.Context) ([]domain.Session, error) {
	return s.list(ctx, `SELECT document FROM sessions WHERE is_deleted ORDER BY date DESC;`)
}

func (s *Service) list(ctx context.Context, stmt string) ([]domain.Session, error) {
	rows, err := s.db.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	docs, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) ([]byte, error) {
		var doc []byte
		if err := r.Scan(&doc); err != nil {
			return nil, err
		}
		return doc, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(docs))
	for _, doc := range docs {
		var ss domain.Session
		if err := json.Unmarshal(doc, &ss); err != nil {
			// A corrupt document must not take the whole collection down.
			slog.ErrorContext(ctx, "session: skipping corrupt document", "error", err)
			continue
		}
		sessions = append(sessions, ss)
	}

	return sessions, nil
}

// SoftDelete hides a session from the main list. It is a flag-flip save, not
// a distinct storage primitive, so it shares Save's last-writer-wins rules.
func (s *Service) SoftDelete(ctx context.Context, id string) (domain.Session, error) {
	return s.setDeleted(ctx, id, true, "soft_delete")
}

// Restore brings a soft-deleted session back, scores and metadata untouched.
func (s *Service) Restore(ctx context.Context, id string) (domain.Session, error) {
	return s.setDeleted(ctx, id, false, "restore")
}

func (s *Service) setDeleted(ctx context.Context, id string, deleted bool, op string) (domain.Session, error) {
	ss, err := s.Get(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}

	ss.IsDeleted = deleted
	ss, err = s.Save(ctx, ss)
	if err != nil {
		return domain.Session{}, err
	}

	telemetry.SessionWrites.WithLabelValues(op).Inc()
	return ss, nil
}

// HardDelete permanently removes the session. No tombstone is kept; deleting
// an absent id is a no-op, matching the store's idempotent write semantics.
func (s *Service) HardDelete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1;`, id); err != nil {
		return fmt.Errorf("hard delete session %s: %w", id, err)
	}

	telemetry.SessionWrites.WithLabelValues("hard_delete").Inc()
	s.broadcast(ctx)
	return nil
}

// broadcast re-publishes the full collection after a write. Subscribers get
// whole-collection snapshots, never diffs; a failed read here is logged and
// dropped because the write itself already landed.
func (s *Service) broadcast(ctx context.Context) {
	sessions, err := s.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "session: broadcast read failed", "error", err)
		return
	}

	s.eb.Publish(ctx, domain.EventSessionsChanged{Sessions: sessions})
}

func assignIDs(ss *domain.Session) error {
	if ss.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate session ID: %w", err)
		}
		ss.ID = id.String()
	}

	for i := range ss.Participants {
		if ss.Participants[i].ID != "" {
			continue
		}
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate participant ID: %w", err)
		}
		ss.Participants[i].ID = id.String()
	}

	return nil
}
