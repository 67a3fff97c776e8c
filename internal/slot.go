package internal

// A TeamRef identifies a side of a match.
//
// In King formats a side is an ad-hoc team of players
// and Members lists the player ids. Fixed teams leave
// Members empty.
type TeamRef struct {
	ID       string   `json:"id" msgpack:"id"`
	Name     string   `json:"name" msgpack:"name"`
	PoolName string   `json:"poolName,omitempty" msgpack:"pool,omitempty"`
	Members  []string `json:"members,omitempty" msgpack:"members,omitempty"`
}

type SourceType string

const (
	SourceWinner SourceType = "winner"
	SourceLoser  SourceType = "loser"
)

// A Source points at the match whose winner or loser
// fills a slot.
type Source struct {
	MatchID string     `json:"sourceMatchId" msgpack:"match"`
	Type    SourceType `json:"sourceTeamType" msgpack:"type"`
}

// A Slot is one of the two places in a Match.
//
// It is either a TeamSlot holding an actual team or a
// PendingSlot that still waits for the result of its
// source match. The set of implementations is closed.
type Slot interface {
	// Returns the team in the slot. The bool is false
	// when the slot is still pending.
	Resolved() (TeamRef, bool)

	isSlot()
}

type TeamSlot struct {
	Team TeamRef

	// The propagation that put the team here.
	// Nil for teams that were seeded directly.
	Source *Source
}

func (s *TeamSlot) Resolved() (TeamRef, bool) {
	return s.Team, true
}

func (s *TeamSlot) isSlot() {}

type PendingSlot struct {
	Source Source
}

func (s *PendingSlot) Resolved() (TeamRef, bool) {
	return TeamRef{}, false
}

func (s *PendingSlot) isSlot() {}

func NewTeamSlot(team TeamRef) *TeamSlot {
	return &TeamSlot{Team: team}
}

func NewPendingSlot(matchID string, sourceType SourceType) *PendingSlot {
	return &PendingSlot{Source: Source{MatchID: matchID, Type: sourceType}}
}

// Returns the source that a slot is or was waiting on.
// Seeded team slots have none.
func SlotSource(slot Slot) *Source {
	switch s := slot.(type) {
	case *PendingSlot:
		source := s.Source
		return &source
	case *TeamSlot:
		return s.Source
	}
	return nil
}

func cloneSlot(slot Slot) Slot {
	switch s := slot.(type) {
	case *TeamSlot:
		team := s.Team
		team.Members = append([]string(nil), s.Team.Members...)
		clone := &TeamSlot{Team: team}
		if s.Source != nil {
			source := *s.Source
			clone.Source = &source
		}
		return clone
	case *PendingSlot:
		return &PendingSlot{Source: s.Source}
	}
	return nil
}
