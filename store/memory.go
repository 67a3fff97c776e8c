package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/courtking/progression/internal"
)

type phaseKey struct {
	tournamentID string
	phase        int
}

// Memory keeps all records in maps. Reads and writes work on
// copies so callers never share state with the store.
type Memory struct {
	mu sync.RWMutex

	matches      map[string]*MatchRecord
	phaseMatches map[phaseKey][]string
	pools        map[phaseKey][]*internal.Pool
	phases       map[phaseKey]*internal.Phase
}

func NewMemory() *Memory {
	return &Memory{
		matches:      make(map[string]*MatchRecord),
		phaseMatches: make(map[phaseKey][]string),
		pools:        make(map[phaseKey][]*internal.Pool),
		phases:       make(map[phaseKey]*internal.Phase),
	}
}

func (s *Memory) Commit(ctx context.Context, batch *Batch) error {
	if err := checkBatch(batch); err != nil {
		return err
	}
	if batch.Empty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Everything is checked before the first write
	for _, m := range batch.Inserts {
		if _, ok := s.matches[m.ID]; ok {
			return fmt.Errorf("insert match %s: %w", m.ID, ErrConflict)
		}
	}
	for _, m := range batch.Updates {
		stored, ok := s.matches[m.ID]
		if !ok {
			return fmt.Errorf("update match %s: %w", m.ID, ErrNotFound)
		}
		if stored.Version != m.Version {
			return fmt.Errorf("update match %s at version %d, stored %d: %w", m.ID, m.Version, stored.Version, ErrConflict)
		}
	}

	key := phaseKey{batch.TournamentID, batch.Phase}
	for _, m := range batch.Inserts {
		clone := m.Clone()
		clone.Version = 1
		s.matches[m.ID] = &MatchRecord{Match: clone, TournamentID: batch.TournamentID, Phase: batch.Phase}
		s.phaseMatches[key] = append(s.phaseMatches[key], m.ID)
	}
	for _, m := range batch.Updates {
		stored := s.matches[m.ID]
		clone := m.Clone()
		clone.Version = m.Version + 1
		stored.Match = clone
	}
	for _, p := range batch.Pools {
		s.pools[key] = append(s.pools[key], clonePool(p))
	}
	for _, p := range batch.Phases {
		s.phases[phaseKey{batch.TournamentID, p.Number}] = p.Clone()
	}

	bumpVersions(batch)

	log.Debug("Committed batch",
		"tournament", batch.TournamentID,
		"inserts", len(batch.Inserts),
		"updates", len(batch.Updates),
		"pools", len(batch.Pools),
		"phases", len(batch.Phases),
	)

	return nil
}

func (s *Memory) Match(ctx context.Context, id string) (*MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.matches[id]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	return &MatchRecord{
		Match:        record.Clone(),
		TournamentID: record.TournamentID,
		Phase:        record.Phase,
	}, nil
}

func (s *Memory) Matches(ctx context.Context, tournamentID string, phase int) ([]*internal.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.phaseMatches[phaseKey{tournamentID, phase}]
	matches := make([]*internal.Match, 0, len(ids))
	for _, id := range ids {
		matches = append(matches, s.matches[id].Clone())
	}
	return matches, nil
}

func (s *Memory) Pools(ctx context.Context, tournamentID string, phase int) ([]*internal.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.pools[phaseKey{tournamentID, phase}]
	pools := make([]*internal.Pool, 0, len(stored))
	for _, p := range stored {
		pools = append(pools, clonePool(p))
	}
	return pools, nil
}

func (s *Memory) Phase(ctx context.Context, tournamentID string, number int) (*internal.Phase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	phase, ok := s.phases[phaseKey{tournamentID, number}]
	if !ok {
		return nil, fmt.Errorf("phase %d of %s: %w", number, tournamentID, ErrNotFound)
	}
	return phase.Clone(), nil
}

// Copies the pool without its matches
func clonePool(p *internal.Pool) *internal.Pool {
	return &internal.Pool{
		ID:    p.ID,
		Name:  p.Name,
		Teams: slices.Clone(p.Teams),
	}
}
