// Package store persists the matches, pools and phases of
// tournaments. A Batch is committed all-or-nothing so that a
// match result and the slots it propagates into never show up
// separately.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/courtking/progression/internal"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotFound = errors.New("record not found")
	// An update was based on a version that is no longer current
	ErrConflict = errors.New("record was modified concurrently")
)

// A match together with where it belongs
type MatchRecord struct {
	*internal.Match
	TournamentID string
	Phase        int
}

// A set of writes that is committed atomically.
//
// Inserted records must not exist yet. Updated matches carry
// the Version they were read with; the commit fails with
// ErrConflict when any of them changed in the meantime. On
// success the versions of all written matches are advanced.
type Batch struct {
	TournamentID string
	// The phase that inserted matches and pools belong to
	Phase int

	Inserts []*internal.Match
	Updates []*internal.Match
	Pools   []*internal.Pool
	// Phases are written as given
	Phases []*internal.Phase
}

// An empty batch commits without touching the store
func (b *Batch) Empty() bool {
	return len(b.Inserts) == 0 && len(b.Updates) == 0 && len(b.Pools) == 0 && len(b.Phases) == 0
}

type Store interface {
	Commit(ctx context.Context, batch *Batch) error

	Match(ctx context.Context, id string) (*MatchRecord, error)
	// All matches of a phase in the order they were inserted
	Matches(ctx context.Context, tournamentID string, phase int) ([]*internal.Match, error)
	// The pools of a phase without their matches
	Pools(ctx context.Context, tournamentID string, phase int) ([]*internal.Pool, error)
	Phase(ctx context.Context, tournamentID string, number int) (*internal.Phase, error)
}

// Everything stored about one phase
type PhaseData struct {
	Phase   *internal.Phase
	Pools   []*internal.Pool
	Matches []*internal.Match
}

// Fetches a phase with its pools and matches. The three reads
// run concurrently. The matches are assigned to their pools.
func LoadPhase(ctx context.Context, s Store, tournamentID string, number int) (*PhaseData, error) {
	data := &PhaseData{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		phase, err := s.Phase(ctx, tournamentID, number)
		data.Phase = phase
		return err
	})
	g.Go(func() error {
		pools, err := s.Pools(ctx, tournamentID, number)
		data.Pools = pools
		return err
	})
	g.Go(func() error {
		matches, err := s.Matches(ctx, tournamentID, number)
		data.Matches = matches
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load phase %d of %s: %w", number, tournamentID, err)
	}

	byID := make(map[string]*internal.Pool, len(data.Pools))
	for _, p := range data.Pools {
		p.Matches = nil
		byID[p.ID] = p
	}
	for _, m := range data.Matches {
		if p, ok := byID[m.PoolID]; ok {
			p.Matches = append(p.Matches, m)
		}
	}

	return data, nil
}

func checkBatch(batch *Batch) error {
	if batch.TournamentID == "" {
		return fmt.Errorf("%w: batch without tournament", internal.ErrConfiguration)
	}
	seen := make(map[string]struct{}, len(batch.Inserts)+len(batch.Updates))
	for _, m := range slices.Concat(batch.Inserts, batch.Updates) {
		if _, ok := seen[m.ID]; ok {
			return fmt.Errorf("%w: match %s is written twice", internal.ErrInconsistentState, m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}

// Advances the versions after a successful commit
func bumpVersions(batch *Batch) {
	for _, m := range batch.Inserts {
		m.Version = 1
	}
	for _, m := range batch.Updates {
		m.Version += 1
	}
}
