package lookup

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrRecognizerUnavailable means no recognition backend is configured.
var ErrRecognizerUnavailable = errors.New("lookup: score recognizer unavailable")

// Guess is a best-effort read of a captured score screen. There is no
// reliability guarantee; the user can always override it before saving.
type Guess struct {
	Score     *decimal.Decimal `json:"score"`
	SongTitle string           `json:"songTitle,omitempty"`
}

// Recognizer extracts a score guess from an image of the karaoke machine's
// result screen.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (Guess, error)
}

// NoRecognizer is the default when no backend is configured; it always
// reports unavailable so the client falls back to manual entry.
type NoRecognizer struct{}

func (NoRecognizer) Recognize(context.Context, []byte) (Guess, error) {
	return Guess{}, ErrRecognizerUnavailable
}
