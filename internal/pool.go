package internal

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// A Pool is a group of entrants playing each other.
//
// In a fixed-team pool the entrants are the teams. In a
// King pool the entrants are players who are put into
// changing teams every round.
type Pool struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Teams   []TeamRef `json:"teams"`
	Matches []*Match  `json:"matches"`
}

// Returns true when all matches of the pool are completed
func (p *Pool) Completed() bool {
	return MatchesCompleted(p.Matches...)
}

// Creates a round robin pool of fixed teams
func NewRoundRobinPool(name string, teams []TeamRef, passes int, settings ScoreSettings) (*Pool, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if len(teams) < 2 {
		return nil, ErrTooFewEntries
	}
	if err := checkDistinctTeams(teams); err != nil {
		return nil, err
	}

	pool := newPool(name, teams)
	rounds := createRoundRobinRounds(pool.Teams, passes, settings)
	pool.addRounds(rounds)

	return pool, nil
}

// Creates a King pool where the players are rotated into new
// teams of teamSize every round.
//
// The first player stays fixed and the others rotate by one
// position per round (circle method). The rotated order is
// cut into teams and neighbouring teams meet. When the pool
// does not fill whole matches, a window of players that
// moves on every round sits out.
// With rounds <= 0 the pool plays one round less than it
// has players.
func NewKingPool(name string, players []TeamRef, teamSize, rounds int, settings ScoreSettings) (*Pool, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if teamSize < 1 || len(players) < 2*teamSize {
		return nil, fmt.Errorf("pool %s with %d players and team size %d: %w", name, len(players), teamSize, ErrInvalidTeamSize)
	}
	if err := checkDistinctTeams(players); err != nil {
		return nil, err
	}

	if rounds <= 0 {
		rounds = len(players) - 1
	}

	pool := newPool(name, players)
	kingRounds := make([]*Round, 0, rounds)
	for roundI := range rounds {
		round := createKingRound(pool.Teams, teamSize, roundI, settings)
		round.Name = fmt.Sprintf("Round %d", roundI+1)
		kingRounds = append(kingRounds, round)
	}
	pool.addRounds(kingRounds)

	return pool, nil
}

func createKingRound(players []TeamRef, teamSize, roundI int, settings ScoreSettings) *Round {
	n := len(players)
	numMatches := n / (2 * teamSize)
	numSitting := n - numMatches*2*teamSize

	// The sit-out window moves along the players so that
	// playing time differs by at most one round
	sitting := make(map[int]bool, numSitting)
	for i := range numSitting {
		sitting[(roundI*numSitting+i)%n] = true
	}

	rotation := roundI % (n - 1)
	order := make([]TeamRef, 0, n-numSitting)
	for i := range n {
		index := roundRobinCircleIndex(i, n, rotation)
		if !sitting[index] {
			order = append(order, players[index])
		}
	}

	round := &Round{Matches: make([]*Match, 0, numMatches)}
	for matchI := range numMatches {
		start := 2 * matchI * teamSize
		team1 := kingTeam(order[start : start+teamSize])
		team2 := kingTeam(order[start+teamSize : start+2*teamSize])
		match := NewMatch(NewTeamSlot(team1), NewTeamSlot(team2), settings)
		round.Matches = append(round.Matches, match)
	}

	return round
}

// Combines players into an ad-hoc team
func kingTeam(players []TeamRef) TeamRef {
	ids := make([]string, 0, len(players))
	names := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
		names = append(names, p.Name)
	}
	return TeamRef{
		ID:       strings.Join(ids, "+"),
		Name:     strings.Join(names, " / "),
		PoolName: players[0].PoolName,
		Members:  ids,
	}
}

func newPool(name string, teams []TeamRef) *Pool {
	poolTeams := make([]TeamRef, 0, len(teams))
	for _, t := range teams {
		t.PoolName = name
		poolTeams = append(poolTeams, t)
	}
	return &Pool{
		ID:    uuid.NewString(),
		Name:  name,
		Teams: poolTeams,
	}
}

func (p *Pool) addRounds(rounds []*Round) {
	for _, r := range rounds {
		for _, m := range r.Matches {
			m.Round = r.Name
			m.PoolID = p.ID
			m.MatchNumber = len(p.Matches) + 1
			p.Matches = append(p.Matches, m)
		}
	}
}

// Returns the name of the pool with the given index
// (Pool A, Pool B, ...)
func PoolName(index int) string {
	letters := ""
	for index >= 0 {
		letters = string(rune('A'+index%26)) + letters
		index = index/26 - 1
	}
	return "Pool " + letters
}
