package internal

import "fmt"

// Creates the matches of a round robin pool where every
// team meets every other team once per pass.
// Two passes are the home-and-away ("aller-retour")
// format with the slots swapped in the second pass.
func createRoundRobinRounds(teams []TeamRef, passes int, settings ScoreSettings) []*Round {
	entries := make([]*TeamRef, 0, len(teams)+1)
	for i := range teams {
		entries = append(entries, &teams[i])
	}
	// An odd number of teams gets a rotating sit-out
	if len(entries)%2 != 0 {
		entries = append(entries, nil)
	}

	if passes < 1 {
		passes = 1
	}
	numRounds := len(entries) - 1

	rounds := make([]*Round, 0, passes*numRounds)
	for passI := range passes {
		for roundI := range numRounds {
			round := createRound(entries, passI, roundI, settings)
			round.Name = fmt.Sprintf("Round %d", len(rounds)+1)
			rounds = append(rounds, round)
		}
	}

	return rounds
}

func createRound(entries []*TeamRef, passI, roundI int, settings ScoreSettings) *Round {
	numMatches := len(entries) / 2
	round := &Round{
		Matches: make([]*Match, 0, numMatches),
	}

	for matchI := range numMatches {
		team1, team2 := pickOpponents(entries, passI, roundI, matchI)
		if team1 == nil || team2 == nil {
			continue
		}
		match := NewMatch(NewTeamSlot(*team1), NewTeamSlot(*team2), settings)
		round.Matches = append(round.Matches, match)
	}

	return round
}

// Returns the opponents of the specified match by its three indices
// while making sure the share of first-named matches is evenly
// distributed among the teams
func pickOpponents[E any](entries []E, passI, roundI, matchI int) (E, E) {
	i1 := matchI
	i2 := len(entries) - 1 - matchI

	i1 = roundRobinCircleIndex(i1, len(entries), roundI)
	i2 = roundRobinCircleIndex(i2, len(entries), roundI)

	entry1 := entries[i1]
	entry2 := entries[i2]

	if matchI == 0 && roundI%2 != 0 {
		entry1, entry2 = entry2, entry1
	}
	if passI%2 != 0 {
		entry1, entry2 = entry2, entry1
	}

	return entry1, entry2
}

// Rotates the given index according to https://en.wikipedia.org/wiki/Round-robin_tournament#Circle_method
func roundRobinCircleIndex(index, length, round int) int {
	if index == 0 {
		return 0
	}
	index -= 1
	index -= round
	index += length - 1
	index %= length - 1
	index += 1
	return index
}
