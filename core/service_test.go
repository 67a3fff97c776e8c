package core

import (
	"context"
	"io"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/courtking/progression/internal"
	"github.com/courtking/progression/store"
	"github.com/courtking/progression/volleyball"
	"github.com/stretchr/testify/require"
)

func newTestService(opts ...Option) (*Service, store.Store) {
	s := store.NewMemory()
	opts = append([]Option{
		WithLogger(log.New(io.Discard)),
		WithRand(rand.New(rand.NewSource(1))),
	}, opts...)
	return NewService(s, opts...), s
}

func teams(ids ...string) []TeamRef {
	refs := make([]TeamRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, TeamRef{ID: id, Name: "Team " + id})
	}
	return refs
}

func win(side int) []Set {
	if side == 1 {
		return []Set{internal.NewSet(21, 15), internal.NewSet(21, 17)}
	}
	return []Set{internal.NewSet(15, 21), internal.NewSet(17, 21)}
}

func TestSubmitScorePropagates(t *testing.T) {
	ctx := context.Background()
	service, s := newTestService()

	bracket, err := service.CreateBracket(ctx, "cup", 1, teams("a", "b", "c", "d"), volleyball.Elimination)
	require.NoError(t, err)
	semi := bracket.Rounds[0].Matches[0]

	match, err := service.SubmitScore(ctx, semi.ID, win(1))
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, match.Status)
	require.Equal(t, "a", match.WinnerID)

	final, err := s.Match(ctx, bracket.Final().ID)
	require.NoError(t, err)
	team, ok := final.Team1.Resolved()
	require.True(t, ok)
	require.Equal(t, "a", team.ID)
	require.Equal(t, 2, final.Version)

	thirdPlace, err := s.Match(ctx, bracket.ThirdPlace.ID)
	require.NoError(t, err)
	team, ok = thirdPlace.Team1.Resolved()
	require.True(t, ok)
	require.Equal(t, "d", team.ID)

	// The other side of the final is still open
	_, ok = final.Team2.Resolved()
	require.False(t, ok)
}

func TestSubmitScoreCorrection(t *testing.T) {
	ctx := context.Background()
	service, s := newTestService()

	bracket, err := service.CreateBracket(ctx, "cup", 1, teams("a", "b", "c", "d"), volleyball.Elimination)
	require.NoError(t, err)
	semi1 := bracket.Rounds[0].Matches[0]
	semi2 := bracket.Rounds[0].Matches[1]
	finalID := bracket.Final().ID

	_, err = service.SubmitScore(ctx, semi1.ID, win(1))
	require.NoError(t, err)

	_, err = service.SubmitScore(ctx, semi1.ID, win(2))
	require.NoError(t, err)
	final, err := s.Match(ctx, finalID)
	require.NoError(t, err)
	team, _ := final.Team1.Resolved()
	require.Equal(t, "d", team.ID)

	_, err = service.SubmitScore(ctx, semi1.ID, []Set{internal.NewSet(21, 15)})
	require.ErrorIs(t, err, internal.ErrRevertedResult)

	_, err = service.SubmitScore(ctx, semi2.ID, win(1))
	require.NoError(t, err)
	_, err = service.SubmitScore(ctx, finalID, []Set{internal.NewSet(21, 19)})
	require.NoError(t, err)

	_, err = service.SubmitScore(ctx, semi1.ID, win(1))
	require.ErrorIs(t, err, internal.ErrDownstreamStarted)
	require.ErrorIs(t, err, ErrInconsistentState)

	_, err = service.SubmitScore(ctx, bracket.ThirdPlace.ID, win(1))
	require.NoError(t, err)
}

func TestSubmitScoreValidation(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	bracket, err := service.CreateBracket(ctx, "cup", 1, teams("a", "b"), volleyball.Elimination)
	require.NoError(t, err)
	final := bracket.Final()

	_, err = service.SubmitScore(ctx, final.ID, []Set{internal.NewSet(25, 20), internal.NewSet(21, 3)})
	require.ErrorIs(t, err, volleyball.ErrInvalidMargin)
	require.ErrorIs(t, err, ErrValidation)

	lenient, s := newTestService(WithStrictScores(false))
	bracket, err = lenient.CreateBracket(ctx, "cup", 1, teams("a", "b"), volleyball.Elimination)
	require.NoError(t, err)
	match, err := lenient.SubmitScore(ctx, bracket.Final().ID, []Set{internal.NewSet(25, 20), internal.NewSet(21, 3)})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, match.Status)

	_, err = lenient.SubmitScore(ctx, "missing", win(1))
	require.ErrorIs(t, err, store.ErrNotFound)

	stored, err := s.Match(ctx, bracket.Final().ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.Version)
}

func TestSubmitScoreUnresolved(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	bracket, err := service.CreateBracket(ctx, "cup", 1, teams("a", "b", "c", "d"), volleyball.Elimination)
	require.NoError(t, err)

	_, err = service.SubmitScore(ctx, bracket.Final().ID, win(1))
	require.ErrorIs(t, err, internal.ErrUnresolvedSlots)
}

func TestForfeit(t *testing.T) {
	ctx := context.Background()
	service, s := newTestService()

	bracket, err := service.CreateBracket(ctx, "cup", 1, teams("a", "b", "c"), volleyball.Elimination)
	require.NoError(t, err)
	preliminary := bracket.Rounds[0].Matches[0]

	match, err := service.Forfeit(ctx, preliminary.ID, 2)
	require.NoError(t, err)
	require.Equal(t, "c", match.WinnerID)

	final, err := s.Match(ctx, bracket.Final().ID)
	require.NoError(t, err)
	team, ok := final.Team2.Resolved()
	require.True(t, ok)
	require.Equal(t, "c", team.ID)

	_, err = service.Forfeit(ctx, preliminary.ID, 3)
	require.ErrorIs(t, err, internal.ErrUnknownSlot)
}

func TestPhases(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	entrants := make([]Entrant, 0, 8)
	for i, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		entrants = append(entrants, Entrant{ID: id, Name: "Player " + id, SkillLevel: 8 - i})
	}

	start, err := service.StartPhase(ctx, "cup", 1, PhaseConfig{
		Kind:           PhasePools,
		PoolCount:      2,
		Passes:         1,
		Qualifiers:     []int{2, 2},
		TotalQualified: 4,
		ScoreSettings:  volleyball.PoolPlay,
	}, entrants)
	require.NoError(t, err)
	require.Len(t, start.Pools, 2)

	_, err = service.CompletePhase(ctx, "cup", 1)
	require.ErrorIs(t, err, internal.ErrPhaseIncomplete)

	// The entrant with the lower id wins
	for _, m := range start.Matches {
		team1, team2, _ := m.Teams()
		sets := []Set{internal.NewSet(25, 20)}
		if team2.ID < team1.ID {
			sets = []Set{internal.NewSet(20, 25)}
		}
		_, err := service.SubmitScore(ctx, m.ID, sets)
		require.NoError(t, err)
	}

	standings, err := service.Standings(ctx, "cup", 1)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	require.Equal(t, "a", standings[0][0].TeamID)
	require.Equal(t, 3*internal.PointsPerWin, standings[0][0].Points)

	require.NoError(t, service.Withdraw(ctx, "cup", 1, "b"))

	result, err := service.CompletePhase(ctx, "cup", 1)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "d", "c"}, result.QualifiedIDs)
	require.Equal(t, []string{"e", "f", "h", "g"}, result.RepechageCandidates)

	next, err := service.AdvancePhase(ctx, "cup", 1, []string{"e"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "d", "c", "e"}, next.ParticipantIDs)

	start, err = service.StartPhase(ctx, "cup", 2, PhaseConfig{
		Kind:          PhaseElimination,
		ScoreSettings: volleyball.Elimination,
	}, entrants)
	require.NoError(t, err)
	require.NotNil(t, start.Bracket)

	for _, round := range start.Bracket.Rounds {
		for _, m := range round.Matches {
			stored, err := service.store.Match(ctx, m.ID)
			require.NoError(t, err)
			team1, team2, ok := stored.Teams()
			require.True(t, ok)
			side := 1
			if team2.ID < team1.ID {
				side = 2
			}
			_, err = service.SubmitScore(ctx, m.ID, win(side))
			require.NoError(t, err)
		}
	}
	_, err = service.SubmitScore(ctx, start.Bracket.ThirdPlace.ID, win(1))
	require.NoError(t, err)

	ranks, points, err := service.FinalRanking(ctx, "cup", 2, DefaultPointsTable)
	require.NoError(t, err)
	require.Len(t, ranks, 4)
	require.Equal(t, "a", ranks[0][0].ID)
	require.Equal(t, 100, points["a"])
	require.Equal(t, 80, points[ranks[1][0].ID])

	result, err = service.CompletePhase(ctx, "cup", 2)
	require.NoError(t, err)
	require.Len(t, result.QualifiedIDs, 4)
}

func entrantList(ids ...string) []Entrant {
	entrants := make([]Entrant, 0, len(ids))
	for i, id := range ids {
		entrants = append(entrants, Entrant{ID: id, Name: "Player " + id, SkillLevel: len(ids) - i})
	}
	return entrants
}

// Returns a single set won by the given team
func wonBy(m *Match, teamID string) []Set {
	team1, _, _ := m.Teams()
	if team1.ID == teamID {
		return []Set{internal.NewSet(25, 20)}
	}
	return []Set{internal.NewSet(20, 25)}
}

func TestStartPhaseNeedsCompletedPrevious(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	entrants := entrantList("a", "b", "c", "d")
	elimination := PhaseConfig{Kind: PhaseElimination, ScoreSettings: volleyball.Elimination}

	_, err := service.StartPhase(ctx, "cup", 2, elimination, entrants)
	require.ErrorIs(t, err, internal.ErrPhaseStatus)

	start, err := service.StartPhase(ctx, "cup", 1, PhaseConfig{
		Kind:           PhasePools,
		PoolCount:      1,
		Qualifiers:     []int{2},
		TotalQualified: 2,
		ScoreSettings:  volleyball.PoolPlay,
	}, entrants)
	require.NoError(t, err)

	_, err = service.StartPhase(ctx, "cup", 2, elimination, entrants)
	require.ErrorIs(t, err, internal.ErrPhaseStatus)

	for _, m := range start.Matches {
		team1, team2, _ := m.Teams()
		_, err := service.SubmitScore(ctx, m.ID, wonBy(m, min(team1.ID, team2.ID)))
		require.NoError(t, err)
	}
	require.NoError(t, service.Withdraw(ctx, "cup", 1, "a"))
	require.NoError(t, service.Withdraw(ctx, "cup", 1, "b"))
	_, err = service.CompletePhase(ctx, "cup", 1)
	require.NoError(t, err)

	next, err := service.AdvancePhase(ctx, "cup", 1, nil)
	require.NoError(t, err)
	require.Empty(t, next.ParticipantIDs)

	// Both qualifiers withdrew, the other entrants do not move up
	_, err = service.StartPhase(ctx, "cup", 2, elimination, entrants)
	require.ErrorIs(t, err, internal.ErrTooFewEntries)
}

func TestPoolResultFinality(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	start, err := service.StartPhase(ctx, "cup", 1, PhaseConfig{
		Kind:           PhasePools,
		PoolCount:      1,
		Qualifiers:     []int{1},
		TotalQualified: 1,
		ScoreSettings:  volleyball.PoolPlay,
	}, entrantList("a", "b"))
	require.NoError(t, err)
	require.Len(t, start.Matches, 1)
	m := start.Matches[0]

	_, err = service.SubmitScore(ctx, m.ID, wonBy(m, "a"))
	require.NoError(t, err)

	_, err = service.SubmitScore(ctx, m.ID, []Set{{}})
	require.ErrorIs(t, err, internal.ErrRevertedResult)

	// Corrections are fine while the phase runs
	match, err := service.SubmitScore(ctx, m.ID, wonBy(m, "b"))
	require.NoError(t, err)
	require.Equal(t, "b", match.WinnerID)
	_, err = service.SubmitScore(ctx, m.ID, wonBy(m, "a"))
	require.NoError(t, err)

	result, err := service.CompletePhase(ctx, "cup", 1)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, result.QualifiedIDs)

	_, err = service.SubmitScore(ctx, m.ID, wonBy(m, "b"))
	require.ErrorIs(t, err, internal.ErrPhaseStatus)
	_, err = service.SubmitScore(ctx, m.ID, []Set{{}})
	require.ErrorIs(t, err, internal.ErrPhaseStatus)

	standings, err := service.Standings(ctx, "cup", 1)
	require.NoError(t, err)
	require.Equal(t, "a", standings[0][0].TeamID)
}
