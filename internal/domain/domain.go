package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// RoundScore is one of a participant's three fixed round slots. A nil Score
// means the round was never recorded; a zero Score is a recorded result and
// the two must stay distinguishable on the wire (null vs "0").
type RoundScore struct {
	Score         *decimal.Decimal `json:"score"`
	Title         string           `json:"title,omitempty"`
	Artwork       string           `json:"artwork,omitempty"`
	EvidenceImage string           `json:"evidenceImage,omitempty"`
}

// Played reports whether the slot holds a recorded score.
func (r RoundScore) Played() bool {
	return r.Score != nil
}

// Participant is one singer in a session. Handicap is the bonus assigned for
// this session at setup time; it is added to the round average at scoring.
type Participant struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Handicap decimal.Decimal `json:"handicap"`
	Rounds   [3]RoundScore   `json:"rounds"`
}

// Session is one karaoke battle. Participant order carries no ranking
// meaning. IsDeleted hides the session from the main list but keeps it
// recoverable; deleted sessions still count toward handicap history.
type Session struct {
	ID           string        `json:"id"`
	Date         time.Time     `json:"date"`
	Name         string        `json:"name"`
	Location     string        `json:"location,omitempty"`
	MachineType  string        `json:"machineType,omitempty"`
	Participants []Participant `json:"participants"`
	IsFinished   bool          `json:"isFinished"`
	IsDeleted    bool          `json:"isDeleted"`
}

// Stats are a participant's derived per-session numbers. Average and
// FinalScore are rounded to 3 decimal places; FinalScore is capped at 100.
type Stats struct {
	Average      decimal.Decimal `json:"average"`
	FinalScore   decimal.Decimal `json:"finalScore"`
	RoundsPlayed int             `json:"roundsPlayed"`
}

// RankingItem is a participant's full record plus everything derived for the
// session ranking. Rank is 1-based and dense; NextHandicap is the handicap
// the participant is seeded with in a future session. Both are computed on
// read and never stored.
type RankingItem struct {
	Participant
	Stats
	Rank         int `json:"rank"`
	NextHandicap int `json:"nextHandicap"`
}

// EncodeSessions marshals the full session collection for broadcast.
func EncodeSessions(sessions []Session) ([]byte, error) {
	return json.Marshal(sessions)
}

// DecodeSessions unmarshals a broadcast session collection. On a corrupt
// payload it returns an empty collection alongside the error so callers can
// degrade instead of crashing.
func DecodeSessions(b []byte) ([]Session, error) {
	var sessions []Session
	if err := json.Unmarshal(b, &sessions); err != nil {
		return []Session{}, err
	}
	return sessions, nil
}
