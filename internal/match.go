package internal

import (
	"fmt"
	"iter"
	"strings"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	// Not a single set is decided yet (also called pending)
	StatusScheduled  MatchStatus = "scheduled"
	StatusInProgress MatchStatus = "in_progress"
	StatusCompleted  MatchStatus = "completed"
)

// A match with two slots for the opponents.
//
// Besides the result it carries the forward links along
// which the winner and the loser advance in a bracket.
type Match struct {
	ID          string `json:"id"`
	MatchNumber int    `json:"matchNumber"`
	Round       string `json:"round"`
	// Set for matches that are played in a pool
	PoolID string `json:"poolId,omitempty"`

	Team1 Slot `json:"-" msgpack:"-"`
	Team2 Slot `json:"-" msgpack:"-"`

	Sets   []Set       `json:"sets"`
	Status MatchStatus `json:"status"`

	ScoreSettings

	NextMatchID            string `json:"nextMatchId,omitempty"`
	NextMatchTeamSlot      int    `json:"nextMatchTeamSlot,omitempty"`
	NextMatchLoserID       string `json:"nextMatchLoserId,omitempty"`
	NextMatchLoserTeamSlot int    `json:"nextMatchLoserTeamSlot,omitempty"`

	WinnerID     string `json:"winnerId,omitempty"`
	LoserID      string `json:"loserId,omitempty"`
	WinnerName   string `json:"winnerName,omitempty"`
	LoserName    string `json:"loserName,omitempty"`
	SetsWonTeam1 int    `json:"setsWonTeam1"`
	SetsWonTeam2 int    `json:"setsWonTeam2"`

	// Optimistic lock counter maintained by the persistence layer
	Version int `json:"version"`
}

func NewMatch(team1, team2 Slot, settings ScoreSettings) *Match {
	return &Match{
		ID:            uuid.NewString(),
		Team1:         team1,
		Team2:         team2,
		Sets:          EmptySets(settings.MaxSets()),
		Status:        StatusScheduled,
		ScoreSettings: settings,
	}
}

// Returns the slot with the given number (1 or 2)
func (m *Match) Slot(number int) (Slot, error) {
	switch number {
	case 1:
		return m.Team1, nil
	case 2:
		return m.Team2, nil
	}
	return nil, ErrUnknownSlot
}

func (m *Match) setSlot(number int, slot Slot) error {
	switch number {
	case 1:
		m.Team1 = slot
	case 2:
		m.Team2 = slot
	default:
		return ErrUnknownSlot
	}
	return nil
}

// An iterator over the slot numbers and slots
func (m *Match) Slots() iter.Seq2[int, Slot] {
	return func(yield func(int, Slot) bool) {
		if !yield(1, m.Team1) {
			return
		}
		yield(2, m.Team2)
	}
}

// Returns both teams when both slots are resolved
func (m *Match) Teams() (TeamRef, TeamRef, bool) {
	team1, ok1 := m.Team1.Resolved()
	team2, ok2 := m.Team2.Resolved()
	return team1, team2, ok1 && ok2
}

// Returns true once any set was recorded or the status
// moved past scheduled
func (m *Match) Started() bool {
	if m.Status != StatusScheduled {
		return true
	}
	for _, s := range m.Sets {
		if s.Score1 != nil || s.Score2 != nil {
			return true
		}
	}
	return false
}

// Returns the team that won a completed match
func (m *Match) Winner() (TeamRef, bool) {
	return m.teamByID(m.WinnerID)
}

// Returns the team that lost a completed match
func (m *Match) Loser() (TeamRef, bool) {
	return m.teamByID(m.LoserID)
}

func (m *Match) teamByID(id string) (TeamRef, bool) {
	if id == "" || m.Status != StatusCompleted {
		return TeamRef{}, false
	}
	for _, slot := range m.Slots() {
		team, ok := slot.Resolved()
		if ok && team.ID == id {
			return team, true
		}
	}
	return TeamRef{}, false
}

// Records the sets and updates all fields derived from
// them. The match needs to have both teams resolved.
//
// The match is only changed when the sets are valid.
func (m *Match) ApplySets(sets []Set) (Outcome, error) {
	team1, team2, ok := m.Teams()
	if !ok {
		return Outcome{}, fmt.Errorf("match %s: %w", m.ID, ErrUnresolvedSlots)
	}

	outcome, err := ResolveMatchOutcome(sets, m.ScoreSettings, team1, team2)
	if err != nil {
		return Outcome{}, err
	}

	m.Sets = append([]Set(nil), sets...)
	m.Status = outcome.Status
	m.SetsWonTeam1 = outcome.SetsWonTeam1
	m.SetsWonTeam2 = outcome.SetsWonTeam2
	m.WinnerID = outcome.WinnerID
	m.LoserID = outcome.LoserID
	m.WinnerName = outcome.WinnerName
	m.LoserName = outcome.LoserName

	return outcome, nil
}

// Links the winner of this match to a slot of the target
func (m *Match) linkWinner(target *Match, slot int) {
	m.NextMatchID = target.ID
	m.NextMatchTeamSlot = slot
}

// Links the loser of this match to a slot of the target
func (m *Match) linkLoser(target *Match, slot int) {
	m.NextMatchLoserID = target.ID
	m.NextMatchLoserTeamSlot = slot
}

// Returns a deep copy that can be modified without
// affecting the original
func (m *Match) Clone() *Match {
	clone := *m
	clone.Team1 = cloneSlot(m.Team1)
	clone.Team2 = cloneSlot(m.Team2)
	clone.Sets = make([]Set, len(m.Sets))
	for i, s := range m.Sets {
		if s.Score1 != nil {
			score := *s.Score1
			clone.Sets[i].Score1 = &score
		}
		if s.Score2 != nil {
			score := *s.Score2
			clone.Sets[i].Score2 = &score
		}
	}
	return &clone
}

func (m *Match) String() string {
	var sb strings.Builder
	for i, slot := range m.Slots() {
		if i == 2 {
			sb.WriteString(" vs. ")
		}
		team, ok := slot.Resolved()
		if ok {
			sb.WriteString(team.Name)
		} else {
			source := SlotSource(slot)
			sb.WriteString(fmt.Sprintf("[%s of %s]", source.Type, source.MatchID))
		}
	}

	played := false
	for _, s := range m.Sets {
		if !s.Played() {
			continue
		}
		if !played {
			sb.WriteRune('\t')
			played = true
		}
		sb.WriteString(fmt.Sprintf("%v - %v ", *s.Score1, *s.Score2))
	}

	return sb.String()
}

// Returns true when all given matches are completed
func MatchesCompleted(matches ...*Match) bool {
	for _, m := range matches {
		if m.Status != StatusCompleted {
			return false
		}
	}
	return true
}

// A Round is a list of matches that can be played in
// parallel. The matches of a round depend on the completion
// of all previous rounds.
type Round struct {
	Name    string
	Matches []*Match
}
