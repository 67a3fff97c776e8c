package internal

import (
	"cmp"
	"slices"
)

// Ranks the entrants of a pool by their completed matches.
//
// The order is by points, then sets won, then fewest sets
// lost. Remaining ties keep the order of the pool's teams.
func ComputeStandings(pool *Pool) []*Standing {
	standings := createStandings(pool.Teams, pool.Matches)

	ranked := make([]*Standing, 0, len(pool.Teams))
	for _, t := range pool.Teams {
		ranked = append(ranked, standings[t.ID])
	}

	slices.SortStableFunc(ranked, compareStandings)

	return ranked
}

func compareStandings(a, b *Standing) int {
	return cmp.Or(
		cmp.Compare(b.Points, a.Points),
		cmp.Compare(b.SetsWon, a.SetsWon),
		cmp.Compare(a.SetsLost, b.SetsLost),
	)
}
