package internal

import "fmt"

// A MatchPatch resolves one slot of a downstream match to
// the team that advanced into it
type MatchPatch struct {
	MatchID string
	Slot    int
	Team    TeamRef
	Source  Source
}

// Computes the slot assignments that follow from the result
// of a completed match. Nothing is modified; the patches are
// meant to be committed together with the match itself.
//
// The winner moves into the slot referenced by NextMatchID
// and the loser into the one referenced by NextMatchLoserID.
// A target slot may only be overwritten when it was filled
// by the same source before (a corrected result) and the
// target has not started.
func (g *MatchGraph) PropagateResult(match *Match, winner, loser TeamRef) ([]MatchPatch, error) {
	if match.Status != StatusCompleted {
		return nil, fmt.Errorf("match %s: %w", match.ID, ErrSourceNotCompleted)
	}

	dependants := g.Dependants(match)
	patches := make([]MatchPatch, 0, len(dependants))
	for _, d := range dependants {
		team := winner
		if d.Link.Type == SourceLoser {
			team = loser
		}

		source := Source{MatchID: match.ID, Type: d.Link.Type}
		changed, err := checkTarget(d.Match, d.Link.Slot, source, team)
		if err != nil {
			return nil, err
		}
		if !changed {
			continue
		}

		patches = append(patches, MatchPatch{
			MatchID: d.Match.ID,
			Slot:    d.Link.Slot,
			Team:    team,
			Source:  source,
		})
	}

	return patches, nil
}

// Same as PropagateResult with the winner and loser taken
// from the match itself
func (g *MatchGraph) Propagate(match *Match) ([]MatchPatch, error) {
	if match.Status != StatusCompleted {
		return nil, fmt.Errorf("match %s: %w", match.ID, ErrSourceNotCompleted)
	}
	winner, ok1 := match.Winner()
	loser, ok2 := match.Loser()
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("match %s: %w", match.ID, ErrUnresolvedSlots)
	}
	return g.PropagateResult(match, winner, loser)
}

// Returns whether the team would change the target slot and
// an error when the slot must not be written by the source
func checkTarget(target *Match, number int, source Source, team TeamRef) (bool, error) {
	slot, err := target.Slot(number)
	if err != nil {
		return false, err
	}

	switch s := slot.(type) {
	case *PendingSlot:
		if s.Source != source {
			return false, fmt.Errorf("match %s slot %d: %w", target.ID, number, ErrSlotTaken)
		}
		return true, nil
	case *TeamSlot:
		if s.Source == nil || *s.Source != source {
			return false, fmt.Errorf("match %s slot %d: %w", target.ID, number, ErrSlotTaken)
		}
		if s.Team.ID == team.ID {
			return false, nil
		}
		if target.Started() {
			return false, fmt.Errorf("match %s: %w", target.ID, ErrDownstreamStarted)
		}
		return true, nil
	}

	return false, fmt.Errorf("match %s slot %d: %w", target.ID, number, ErrUnknownSlot)
}

// Writes the patches into the matches of the graph
func (g *MatchGraph) Apply(patches []MatchPatch) error {
	for _, p := range patches {
		target, ok := g.Match(p.MatchID)
		if !ok {
			return fmt.Errorf("match %s: %w", p.MatchID, ErrUnknownMatch)
		}
		if err := ApplyPatch(target, p); err != nil {
			return err
		}
	}
	return nil
}

// Writes a single patch into its target match
func ApplyPatch(target *Match, patch MatchPatch) error {
	source := patch.Source
	slot := &TeamSlot{Team: patch.Team, Source: &source}
	return target.setSlot(patch.Slot, slot)
}
