// Package core is the public face of the progression engine.
//
// The engine functions are pure: they compute brackets,
// outcomes, slot patches, standings and phase results from
// data that was fetched before. Service binds them to a
// store.Store and commits every change as one batch.
package core

import (
	"math/rand"

	"github.com/courtking/progression/internal"
)

type (
	TeamRef          = internal.TeamRef
	Entrant          = internal.Entrant
	Slot             = internal.Slot
	TeamSlot         = internal.TeamSlot
	PendingSlot      = internal.PendingSlot
	Source           = internal.Source
	Set              = internal.Set
	ScoreSettings    = internal.ScoreSettings
	Outcome          = internal.Outcome
	Match            = internal.Match
	MatchStatus      = internal.MatchStatus
	MatchPatch       = internal.MatchPatch
	BracketStructure = internal.BracketStructure
	Bracket          = internal.Bracket
	Pool             = internal.Pool
	Standing         = internal.Standing
	Qualification    = internal.Qualification
	Phase            = internal.Phase
	PhaseConfig      = internal.PhaseConfig
	PhaseStart       = internal.PhaseStart
	PhaseResult      = internal.PhaseResult
	PointsTable      = internal.PointsTable
)

const (
	StatusScheduled  = internal.StatusScheduled
	StatusInProgress = internal.StatusInProgress
	StatusCompleted  = internal.StatusCompleted

	PhasePools       = internal.PhasePools
	PhaseElimination = internal.PhaseElimination
)

// The error categories. All errors of the engine wrap one
// of them.
var (
	ErrConfiguration     = internal.ErrConfiguration
	ErrValidation        = internal.ErrValidation
	ErrInconsistentState = internal.ErrInconsistentState
)

var DefaultPointsTable = internal.DefaultPointsTable

func NewSet(score1, score2 int) Set {
	return internal.NewSet(score1, score2)
}

func ComputeBracketStructure(teamCount int) (BracketStructure, error) {
	return internal.ComputeBracketStructure(teamCount)
}

// Generates a single elimination bracket for teams ranked
// best to worst
func GenerateBracket(rankedTeams []TeamRef, settings ScoreSettings) (*Bracket, error) {
	return internal.GenerateBracket(rankedTeams, settings)
}

func ResolveMatchOutcome(sets []Set, settings ScoreSettings, team1, team2 TeamRef) (Outcome, error) {
	return internal.ResolveMatchOutcome(sets, settings, team1, team2)
}

// Computes the slot patches that the result of the completed
// match causes among the matches of its bracket
func PropagateResult(bracket []*Match, completed *Match, winner, loser TeamRef) ([]MatchPatch, error) {
	graph, err := internal.NewMatchGraph(bracket)
	if err != nil {
		return nil, err
	}
	return graph.PropagateResult(completed, winner, loser)
}

func ComputeStandings(pool *Pool) []*Standing {
	return internal.ComputeStandings(pool)
}

// Configures the phase and creates its pools or bracket
func StartPhase(phase *Phase, config PhaseConfig, participants []Entrant, rng *rand.Rand) (*PhaseStart, error) {
	if err := phase.Configure(config); err != nil {
		return nil, err
	}
	return phase.Start(participants, rng)
}

func CompletePhase(phase *Phase, pools []*Pool, matches []*Match) (*PhaseResult, error) {
	return phase.Complete(pools, matches)
}
