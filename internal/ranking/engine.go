// Package ranking computes session standings and the handicap each
// participant carries into their next session. Everything here is pure:
// identical input yields identical output, with no I/O and no hidden state.
package ranking

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/shiomura/utakai/internal/domain"
)

const (
	// scorePlaces is the rounding precision for averages and final scores.
	scorePlaces = 3

	// maxNextHandicap caps the bonus any participant can be seeded with.
	maxNextHandicap = 15
)

// scoreCap is the ceiling for a final score. The cap applies to
// average+handicap as a sum, never to the inputs.
var scoreCap = decimal.NewFromInt(100)

// CalculateStats derives a participant's average, final score and qualifying
// round count from their raw round scores and session handicap.
//
// A round qualifies only if its score is set AND nonzero. Excluding literal
// zeros is a deliberate quirk of the scoring system: it protects a
// participant from one garbage entry tanking their average, at the cost of
// being unable to represent a genuine all-zero round. Do not "fix" it.
func CalculateStats(p domain.Participant) domain.Stats {
	sum := decimal.Zero
	played := 0
	for _, r := range p.Rounds {
		if !r.Played() || r.Score.IsZero() {
			continue
		}
		sum = sum.Add(*r.Score)
		played++
	}

	if played == 0 {
		return domain.Stats{Average: decimal.Zero, FinalScore: decimal.Zero}
	}

	average := sum.Div(decimal.NewFromInt(int64(played))).Round(scorePlaces)

	final := average.Add(p.Handicap)
	if final.GreaterThan(scoreCap) {
		final = scoreCap
	}

	return domain.Stats{
		Average:      average,
		FinalScore:   final.Round(scorePlaces),
		RoundsPlayed: played,
	}
}

// GenerateRanking produces the session standings: a strict total order over
// the participants plus each one's next-session handicap.
//
// Ordering is by final score descending; ties break by ascending handicap,
// so on equal final scores the participant who received less assistance
// ranks higher. Ranks are dense and 1-based and never shared, even between
// tied final scores. NextHandicap is the floored points gap to the session's
// top final score, clamped to [0, 15]; flooring keeps seeds conservative.
func GenerateRanking(participants []domain.Participant) []domain.RankingItem {
	items := make([]domain.RankingItem, 0, len(participants))
	for _, p := range participants {
		items = append(items, domain.RankingItem{
			Participant: p,
			Stats:       CalculateStats(p),
		})
	}

	maxFinal := decimal.Zero
	for _, it := range items {
		if it.FinalScore.GreaterThan(maxFinal) {
			maxFinal = it.FinalScore
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].FinalScore.Equal(items[j].FinalScore) {
			return items[i].FinalScore.GreaterThan(items[j].FinalScore)
		}
		return items[i].Handicap.LessThan(items[j].Handicap)
	})

	for i := range items {
		items[i].Rank = i + 1

		gap := maxFinal.Sub(items[i].FinalScore)
		if gap.IsNegative() {
			gap = decimal.Zero
		}
		next := int(gap.Floor().IntPart())
		if next > maxNextHandicap {
			next = maxNextHandicap
		}
		items[i].NextHandicap = next
	}

	return items
}

// LastHandicaps derives the handicap seed for every known participant name:
// their NextHandicap from the most recent finished session they appear in.
// Soft-deleted sessions still count; only unfinished ones are skipped. Names
// join on display name, matching how session setup looks singers up.
func LastHandicaps(sessions []domain.Session) map[string]int {
	ordered := make([]domain.Session, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.After(ordered[j].Date)
	})

	seeds := make(map[string]int)
	for _, s := range ordered {
		if !s.IsFinished {
			continue
		}
		for _, it := range GenerateRanking(s.Participants) {
			if _, seen := seeds[it.Name]; !seen {
				seeds[it.Name] = it.NextHandicap
			}
		}
	}

	return seeds
}
