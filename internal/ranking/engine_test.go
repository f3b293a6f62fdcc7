package ranking_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/shiomura/utakai/internal/domain"
	"github.com/shiomura/utakai/internal/ranking"
)

func TestCalculateStats(t *testing.T) {
	tests := map[string]struct {
		arrange func() domain.Participant
		assert  func(t *testing.T, got domain.Stats)
	}{
		"three full rounds average plainly": {
			arrange: func() domain.Participant {
				return singer("p1", 0, score(90), score(92), score(88))
			},
			assert: func(t *testing.T, got domain.Stats) {
				require.Equal(t, 3, got.RoundsPlayed)
				requireDecimal(t, "90", got.Average)
				requireDecimal(t, "90", got.FinalScore)
			},
		},

		"handicap is added to the average": {
			arrange: func() domain.Participant {
				return singer("p2", 5, score(85), score(84), score(86))
			},
			assert: func(t *testing.T, got domain.Stats) {
				requireDecimal(t, "85", got.Average)
				requireDecimal(t, "90", got.FinalScore)
			},
		},

		"final score is capped at 100 after adding the handicap": {
			arrange: func() domain.Participant {
				// average 97 + handicap 10 would be 107 uncapped
				return singer("p1", 10, score(97), score(97), score(97))
			},
			assert: func(t *testing.T, got domain.Stats) {
				requireDecimal(t, "97", got.Average)
				requireDecimal(t, "100", got.FinalScore)
			},
		},

		"zero scores are excluded like unset rounds": {
			arrange: func() domain.Participant {
				return singer("p1", 0, score(0), score(88.5), score(0))
			},
			assert: func(t *testing.T, got domain.Stats) {
				require.Equal(t, 1, got.RoundsPlayed)
				requireDecimal(t, "88.5", got.Average)
				requireDecimal(t, "88.5", got.FinalScore)
			},
		},

		"no qualifying rounds degrade to zero stats": {
			arrange: func() domain.Participant {
				return singer("p1", 12, nil, score(0), nil)
			},
			assert: func(t *testing.T, got domain.Stats) {
				require.Equal(t, 0, got.RoundsPlayed)
				requireDecimal(t, "0", got.Average)
				requireDecimal(t, "0", got.FinalScore)
			},
		},

		"average rounds to three decimal places": {
			arrange: func() domain.Participant {
				// (91.111 + 90.222) / 2 = 90.6665 -> 90.667
				return singer("p1", 0, score(91.111), score(90.222), nil)
			},
			assert: func(t *testing.T, got domain.Stats) {
				requireDecimal(t, "90.667", got.Average)
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := ranking.CalculateStats(tt.arrange())
			tt.assert(t, got)
		})
	}
}

func TestCalculateStats_UnsetAndZeroAreEquivalent(t *testing.T) {
	withZero := ranking.CalculateStats(singer("p", 3, score(0), score(84.2), score(91)))
	withUnset := ranking.CalculateStats(singer("p", 3, nil, score(84.2), score(91)))

	require.Equal(t, withUnset, withZero)
}

func TestGenerateRanking_TieBreaksByAscendingHandicap(t *testing.T) {
	// Both land on a final score of 90.000; the singer who got there with
	// less assistance wins the tie.
	got := ranking.GenerateRanking([]domain.Participant{
		{ID: "p2", Name: "helped", Handicap: decimal.NewFromInt(5), Rounds: rounds(score(85), score(84), score(86))},
		{ID: "p1", Name: "raw", Handicap: decimal.Zero, Rounds: rounds(score(90), score(92), score(88))},
	})

	require.Len(t, got, 2)

	require.Equal(t, "raw", got[0].Name)
	require.Equal(t, 1, got[0].Rank)
	requireDecimal(t, "90", got[0].FinalScore)

	require.Equal(t, "helped", got[1].Name)
	require.Equal(t, 2, got[1].Rank)
	requireDecimal(t, "90", got[1].FinalScore)

	// Both equal the max final score, so both are seeded with zero.
	require.Equal(t, 0, got[0].NextHandicap)
	require.Equal(t, 0, got[1].NextHandicap)
}

func TestGenerateRanking_NextHandicapIsFlooredGapToTop(t *testing.T) {
	got := ranking.GenerateRanking([]domain.Participant{
		{ID: "p1", Name: "top", Handicap: decimal.Zero, Rounds: rounds(score(95), score(95), score(95))},
		{ID: "p2", Name: "chaser", Handicap: decimal.Zero, Rounds: rounds(score(80.3), score(80.3), score(80.3))},
	})

	require.Equal(t, "top", got[0].Name)
	require.Equal(t, 0, got[0].NextHandicap)

	// floor(95.000 - 80.300) = floor(14.7) = 14
	require.Equal(t, "chaser", got[1].Name)
	require.Equal(t, 14, got[1].NextHandicap)
}

func TestGenerateRanking_NextHandicapIsCappedAt15(t *testing.T) {
	got := ranking.GenerateRanking([]domain.Participant{
		{ID: "p1", Name: "top", Handicap: decimal.Zero, Rounds: rounds(score(99), score(99), score(99))},
		{ID: "p2", Name: "far", Handicap: decimal.Zero, Rounds: rounds(score(60), score(60), score(60))},
	})

	require.Equal(t, 15, got[1].NextHandicap)
}

func TestGenerateRanking_CappedFinalScoreIsStoredCapped(t *testing.T) {
	got := ranking.GenerateRanking([]domain.Participant{
		{ID: "p1", Name: "boosted", Handicap: decimal.NewFromInt(10), Rounds: rounds(score(97), score(97), score(97))},
	})

	requireDecimal(t, "100", got[0].FinalScore)
}

func TestGenerateRanking_RanksAreDenseAndNeverShared(t *testing.T) {
	got := ranking.GenerateRanking([]domain.Participant{
		{ID: "a", Name: "a", Handicap: decimal.NewFromInt(2), Rounds: rounds(score(88), score(88), score(88))},
		{ID: "b", Name: "b", Handicap: decimal.NewFromInt(1), Rounds: rounds(score(89), score(89), score(89))},
		{ID: "c", Name: "c", Handicap: decimal.NewFromInt(3), Rounds: rounds(score(87), score(87), score(87))},
	})

	// All three tie at a final score of 90.
	require.Len(t, got, 3)
	seen := make(map[int]bool)
	for i, it := range got {
		requireDecimal(t, "90", it.FinalScore)
		require.Equal(t, i+1, it.Rank)
		require.False(t, seen[it.Rank], "rank %d assigned twice", it.Rank)
		seen[it.Rank] = true
	}

	// Ascending handicap order within the tie.
	require.Equal(t, []string{"b", "a", "c"}, []string{got[0].Name, got[1].Name, got[2].Name})
}

func TestGenerateRanking_NextHandicapAlwaysWithinBounds(t *testing.T) {
	got := ranking.GenerateRanking([]domain.Participant{
		{ID: "a", Name: "a", Handicap: decimal.NewFromInt(15), Rounds: rounds(score(100), score(100), score(100))},
		{ID: "b", Name: "b", Handicap: decimal.Zero, Rounds: rounds(score(1), nil, nil)},
		{ID: "c", Name: "c", Handicap: decimal.Zero, Rounds: rounds(nil, nil, nil)},
	})

	for _, it := range got {
		require.GreaterOrEqual(t, it.NextHandicap, 0)
		require.LessOrEqual(t, it.NextHandicap, 15)
	}
}

func TestGenerateRanking_NoQualifyingRoundsDegradeToZero(t *testing.T) {
	got := ranking.GenerateRanking([]domain.Participant{
		{ID: "a", Name: "silent", Handicap: decimal.NewFromInt(7), Rounds: rounds(nil, score(0), nil)},
	})

	require.Equal(t, 0, got[0].RoundsPlayed)
	requireDecimal(t, "0", got[0].Average)
	requireDecimal(t, "0", got[0].FinalScore)
	require.Equal(t, 1, got[0].Rank)
}

func TestGenerateRanking_IsDeterministic(t *testing.T) {
	participants := []domain.Participant{
		{ID: "a", Name: "a", Handicap: decimal.NewFromInt(4), Rounds: rounds(score(86.623), score(90.585), score(89.751))},
		{ID: "b", Name: "b", Handicap: decimal.NewFromInt(7), Rounds: rounds(score(80.622), score(81.429), score(74.629))},
		{ID: "c", Name: "c", Handicap: decimal.NewFromInt(2), Rounds: rounds(score(95.023), score(92.644), score(93.693))},
	}

	first := ranking.GenerateRanking(participants)
	second := ranking.GenerateRanking(participants)

	require.Equal(t, first, second)
}

func TestLastHandicaps(t *testing.T) {
	older := domain.Session{
		ID:         "s1",
		Date:       time.Date(2025, 7, 12, 19, 0, 0, 0, time.UTC),
		IsFinished: true,
		Participants: []domain.Participant{
			{ID: "a1", Name: "aki", Handicap: decimal.Zero, Rounds: rounds(score(95), score(95), score(95))},
			{ID: "m1", Name: "mio", Handicap: decimal.Zero, Rounds: rounds(score(90), score(90), score(90))},
		},
	}

	// Newer, soft-deleted, still finished: it must win the lookup for mio.
	newer := domain.Session{
		ID:         "s2",
		Date:       time.Date(2025, 8, 23, 19, 0, 0, 0, time.UTC),
		IsFinished: true,
		IsDeleted:  true,
		Participants: []domain.Participant{
			{ID: "m2", Name: "mio", Handicap: decimal.Zero, Rounds: rounds(score(88), score(88), score(88))},
			{ID: "r2", Name: "ren", Handicap: decimal.Zero, Rounds: rounds(score(91), score(91), score(91))},
		},
	}

	// Unfinished sessions never feed handicap history.
	unfinished := domain.Session{
		ID:         "s3",
		Date:       time.Date(2025, 8, 29, 19, 0, 0, 0, time.UTC),
		IsFinished: false,
		Participants: []domain.Participant{
			{ID: "a3", Name: "aki", Handicap: decimal.Zero, Rounds: rounds(score(50), score(50), score(50))},
		},
	}

	got := ranking.LastHandicaps([]domain.Session{older, unfinished, newer})

	require.Equal(t, map[string]int{
		"aki": 0, // top of s1
		"mio": 3, // 91 - 88 in s2, not the 5-point gap from s1
		"ren": 0, // top of s2
	}, got)
}

func score(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func rounds(r1, r2, r3 *decimal.Decimal) [3]domain.RoundScore {
	return [3]domain.RoundScore{{Score: r1}, {Score: r2}, {Score: r3}}
}

func singer(id string, handicap float64, r1, r2, r3 *decimal.Decimal) domain.Participant {
	return domain.Participant{
		ID:       id,
		Name:     id,
		Handicap: decimal.NewFromFloat(handicap),
		Rounds:   rounds(r1, r2, r3),
	}
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
