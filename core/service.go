package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/courtking/progression/internal"
	"github.com/courtking/progression/store"
	"github.com/courtking/progression/volleyball"
)

// Service runs the engine against a store. Every operation
// reads what it needs, computes all changes and commits them
// in a single batch.
type Service struct {
	store  store.Store
	logger *log.Logger
	strict bool

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*Service)

// Rejects scores that are well-formed but cannot occur
// under the match settings
func WithStrictScores(strict bool) Option {
	return func(s *Service) { s.strict = strict }
}

// Sets the random source for the pool draft
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(s store.Store, opts ...Option) *Service {
	service := &Service{
		store:  s,
		logger: log.Default(),
		strict: true,
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.rng == nil {
		service.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return service
}

// Generates an elimination bracket and stores its matches
// under the given phase
func (s *Service) CreateBracket(ctx context.Context, tournamentID string, phase int, rankedTeams []TeamRef, settings ScoreSettings) (*Bracket, error) {
	bracket, err := internal.GenerateBracket(rankedTeams, settings)
	if err != nil {
		return nil, err
	}

	batch := &store.Batch{
		TournamentID: tournamentID,
		Phase:        phase,
		Inserts:      bracket.Matches,
	}
	if err := s.store.Commit(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to store bracket: %w", err)
	}

	s.logger.Info("Created bracket",
		"tournament", tournamentID,
		"phase", phase,
		"teams", len(rankedTeams),
		"matches", len(bracket.Matches),
	)
	return bracket, nil
}

// Records the sets of a match.
//
// When the match gets completed its winner and loser are
// propagated into the downstream matches. The match and all
// patched matches are committed together. A completed match
// can be corrected as long as no downstream match started
// and its phase is still in progress. It can not go back to
// an unfinished result.
//
// Sibling matches feeding the same downstream match both
// update it, so one of two concurrent submissions can fail
// with store.ErrConflict. Callers retry on that error.
func (s *Service) SubmitScore(ctx context.Context, matchID string, sets []Set) (*Match, error) {
	record, err := s.store.Match(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPhaseOpen(ctx, record.TournamentID, record.Phase); err != nil {
		return nil, fmt.Errorf("match %s: %w", matchID, err)
	}

	if s.strict {
		if err := volleyball.CheckSets(sets, record.ScoreSettings); err != nil {
			return nil, fmt.Errorf("match %s: %w", matchID, err)
		}
	}

	match := record.Match
	var graph *internal.MatchGraph
	if match.NextMatchID != "" || match.NextMatchLoserID != "" {
		matches, err := s.store.Matches(ctx, record.TournamentID, record.Phase)
		if err != nil {
			return nil, err
		}
		graph, err = internal.NewMatchGraph(matches)
		if err != nil {
			return nil, err
		}
		var ok bool
		if match, ok = graph.Match(matchID); !ok {
			return nil, fmt.Errorf("match %s: %w", matchID, internal.ErrUnknownMatch)
		}
	}

	wasCompleted := match.Status == internal.StatusCompleted
	if graph != nil && wasCompleted && !graph.IsEditable(match) {
		return nil, fmt.Errorf("match %s: %w", matchID, internal.ErrDownstreamStarted)
	}

	outcome, err := match.ApplySets(sets)
	if err != nil {
		return nil, err
	}
	if wasCompleted && outcome.Status != internal.StatusCompleted {
		return nil, fmt.Errorf("match %s: %w", matchID, internal.ErrRevertedResult)
	}

	batch := &store.Batch{
		TournamentID: record.TournamentID,
		Updates:      []*internal.Match{match},
	}

	if graph != nil && outcome.Status == internal.StatusCompleted {
		patches, err := graph.Propagate(match)
		if err != nil {
			return nil, err
		}
		if err := graph.Apply(patches); err != nil {
			return nil, err
		}
		for _, p := range patches {
			target, _ := graph.Match(p.MatchID)
			batch.Updates = append(batch.Updates, target)
		}
	}

	if err := s.store.Commit(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to store score of match %s: %w", matchID, err)
	}

	s.logger.Info("Recorded score",
		"match", matchID,
		"status", match.Status,
		"sets", fmt.Sprintf("%d-%d", match.SetsWonTeam1, match.SetsWonTeam2),
		"propagated", len(batch.Updates)-1,
	)
	return match, nil
}

// Awards the match to the given side (1 or 2) without play
func (s *Service) Forfeit(ctx context.Context, matchID string, winningSide int) (*Match, error) {
	if winningSide != 1 && winningSide != 2 {
		return nil, internal.ErrUnknownSlot
	}
	record, err := s.store.Match(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return s.SubmitScore(ctx, matchID, volleyball.WalkoverSets(record.ScoreSettings, winningSide))
}

// Loads the phase or returns a new one when it was never stored
func (s *Service) phase(ctx context.Context, tournamentID string, number int) (*Phase, error) {
	phase, err := s.store.Phase(ctx, tournamentID, number)
	if errors.Is(err, store.ErrNotFound) {
		return internal.NewPhase(number), nil
	}
	return phase, err
}

// Scores can only change while the phase of the match is in
// progress. Brackets created without a phase record are
// always open.
func (s *Service) checkPhaseOpen(ctx context.Context, tournamentID string, number int) error {
	phase, err := s.store.Phase(ctx, tournamentID, number)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if phase.Status != internal.PhaseInProgress {
		return fmt.Errorf("phase %d is %s: %w", number, phase.Status, internal.ErrPhaseStatus)
	}
	return nil
}

func (s *Service) savePhase(ctx context.Context, tournamentID string, phase *Phase) error {
	batch := &store.Batch{
		TournamentID: tournamentID,
		Phases:       []*internal.Phase{phase},
	}
	if err := s.store.Commit(ctx, batch); err != nil {
		return fmt.Errorf("failed to store phase %d: %w", phase.Number, err)
	}
	return nil
}

// Configures and starts a phase. The pools or the bracket
// are stored together with the phase.
//
// Every phase after the first needs a completed previous
// phase whose qualifiers were advanced into it.
func (s *Service) StartPhase(ctx context.Context, tournamentID string, number int, config PhaseConfig, entrants []Entrant) (*PhaseStart, error) {
	if number > 1 {
		previous, err := s.store.Phase(ctx, tournamentID, number-1)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("phase %d was never started: %w", number-1, internal.ErrPhaseStatus)
		case err != nil:
			return nil, err
		case previous.Status != internal.PhaseCompleted:
			return nil, fmt.Errorf("phase %d is %s: %w", number-1, previous.Status, internal.ErrPhaseStatus)
		}
	}

	phase, err := s.phase(ctx, tournamentID, number)
	if err != nil {
		return nil, err
	}

	s.rngMu.Lock()
	start, err := StartPhase(phase, config, entrants, s.rng)
	s.rngMu.Unlock()
	if err != nil {
		return nil, err
	}

	batch := &store.Batch{
		TournamentID: tournamentID,
		Phase:        number,
		Inserts:      start.Matches,
		Pools:        start.Pools,
		Phases:       []*internal.Phase{phase},
	}
	if err := s.store.Commit(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to store phase %d: %w", number, err)
	}

	s.logger.Info("Started phase",
		"tournament", tournamentID,
		"phase", number,
		"kind", config.Kind,
		"participants", len(phase.ParticipantIDs),
		"pools", len(start.Pools),
		"matches", len(start.Matches),
	)
	return start, nil
}

// Marks an entrant as withdrawn from a phase
func (s *Service) Withdraw(ctx context.Context, tournamentID string, number int, entrantID string) error {
	phase, err := s.phase(ctx, tournamentID, number)
	if err != nil {
		return err
	}
	phase.Withdraw(entrantID)
	if err := s.savePhase(ctx, tournamentID, phase); err != nil {
		return err
	}

	s.logger.Info("Withdrew entrant", "tournament", tournamentID, "phase", number, "entrant", entrantID)
	return nil
}

// Completes a phase once all its matches are completed and
// returns the qualifiers
func (s *Service) CompletePhase(ctx context.Context, tournamentID string, number int) (*PhaseResult, error) {
	data, err := store.LoadPhase(ctx, s.store, tournamentID, number)
	if err != nil {
		return nil, err
	}

	result, err := CompletePhase(data.Phase, data.Pools, data.Matches)
	if err != nil {
		return nil, err
	}
	if err := s.savePhase(ctx, tournamentID, data.Phase); err != nil {
		return nil, err
	}

	s.logger.Info("Completed phase",
		"tournament", tournamentID,
		"phase", number,
		"qualified", len(result.QualifiedIDs),
		"repechage", len(result.RepechageCandidates),
	)
	return result, nil
}

// Moves the qualifiers of a completed phase and the picked
// repechage candidates into the next phase
func (s *Service) AdvancePhase(ctx context.Context, tournamentID string, number int, repechage []string) (*Phase, error) {
	current, err := s.store.Phase(ctx, tournamentID, number)
	if err != nil {
		return nil, err
	}
	next, err := s.phase(ctx, tournamentID, number+1)
	if err != nil {
		return nil, err
	}

	if err := internal.AdvancePhase(current, next, repechage); err != nil {
		return nil, err
	}
	if err := s.savePhase(ctx, tournamentID, next); err != nil {
		return nil, err
	}

	s.logger.Info("Advanced to next phase",
		"tournament", tournamentID,
		"phase", next.Number,
		"participants", len(next.ParticipantIDs),
	)
	return next, nil
}

// Returns the current standings of every pool of a phase
func (s *Service) Standings(ctx context.Context, tournamentID string, number int) ([][]*Standing, error) {
	data, err := store.LoadPhase(ctx, s.store, tournamentID, number)
	if err != nil {
		return nil, err
	}

	standings := make([][]*Standing, 0, len(data.Pools))
	for _, pool := range data.Pools {
		standings = append(standings, internal.ComputeStandings(pool))
	}
	return standings, nil
}

// Returns the ranking of an elimination phase and the
// championship points of every team according to table
func (s *Service) FinalRanking(ctx context.Context, tournamentID string, number int, table PointsTable) ([][]TeamRef, map[string]int, error) {
	matches, err := s.store.Matches(ctx, tournamentID, number)
	if err != nil {
		return nil, nil, err
	}
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("phase %d of %s: %w", number, tournamentID, store.ErrNotFound)
	}

	ranks, err := internal.EliminationRanking(matches)
	if err != nil {
		return nil, nil, err
	}
	return ranks, table.Award(ranks), nil
}
