// Package evidence stores photographic proof of round scores and hands back
// durable reference strings for the session document. Losing or failing an
// upload must never block saving the numeric score itself.
package evidence

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiomura/utakai/internal/errors"
)

type Config struct {
	DB *pgxpool.Pool
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(c Config) *Store {
	return &Store{db: c.DB}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS evidence_images (
	id             TEXT PRIMARY KEY,
	participant_id TEXT NOT NULL,
	round          INT NOT NULL,
	content_type   TEXT NOT NULL,
	content        BYTEA NOT NULL,
	create_time    TIMESTAMPTZ NOT NULL DEFAULT now()
);`

	if _, err := s.db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("ensure evidence schema: %w", err)
	}

	return nil
}

// Put stores the image and returns the reference to record in the round's
// evidenceImage field.
func (s *Store) Put(ctx context.Context, participantID string, round int, contentType string, image []byte) (string, error) {
	if len(image) == 0 {
		return "", errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("evidence image must not be empty"))
	}
	if round < 1 || round > 3 {
		return "", errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("round must be 1..3, got %d", round))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate evidence ID: %w", err)
	}

	const stmt = `
INSERT INTO evidence_images (id, participant_id, round, content_type, content)
VALUES ($1, $2, $3, $4, $5);`

	if _, err := s.db.Exec(ctx, stmt, id.String(), participantID, round, contentType, image); err != nil {
		return "", fmt.Errorf("store evidence image: %w", err)
	}

	return id.String(), nil
}

// Get returns the image bytes and content type for a reference.
func (s *Store) Get(ctx context.Context, id string) ([]byte, string, error) {
	const stmt = `SELECT content, content_type FROM evidence_images WHERE id = $1;`

	var (
		content     []byte
		contentType string
	)
	err := s.db.QueryRow(ctx, stmt, id).Scan(&content, &contentType)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, "", errors.New(errors.CodeNotFound,
			errors.WithMessagef("evidence image not found: %s", id))
	}
	if err != nil {
		return nil, "", fmt.Errorf("get evidence image %s: %w", id, err)
	}

	return content, contentType, nil
}
