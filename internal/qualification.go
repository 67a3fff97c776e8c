package internal

import "slices"

// A Qualification is an entrant's final place in its pool
type Qualification struct {
	Standing *Standing
	Pool     int
	Place    int
}

// Ranks the entrants of all pools against each other.
//
// All first places come before all second places and so on.
// Within the same place the entrants are compared by their
// standings; remaining ties keep the pool order.
func RankAcrossPools(standings [][]*Standing) []*Qualification {
	maxSize := 0
	total := 0
	for _, s := range standings {
		maxSize = max(maxSize, len(s))
		total += len(s)
	}

	ranked := make([]*Qualification, 0, total)
	for place := range maxSize {
		tier := make([]*Qualification, 0, len(standings))
		for pool, s := range standings {
			if place >= len(s) {
				continue
			}
			tier = append(tier, &Qualification{Standing: s[place], Pool: pool, Place: place})
		}
		slices.SortStableFunc(tier, func(a, b *Qualification) int {
			return compareStandings(a.Standing, b.Standing)
		})
		ranked = append(ranked, tier...)
	}

	return ranked
}

// Splits the cross-pool ranking into the qualified entrants
// (the top quota[i] of pool i) and everybody else.
// Both keep the order of the ranking.
func SelectQualifiers(ranked []*Qualification, quotas []int) ([]*Qualification, []*Qualification) {
	qualified := make([]*Qualification, 0, len(ranked))
	others := make([]*Qualification, 0, len(ranked))
	for _, q := range ranked {
		if q.Pool < len(quotas) && q.Place < quotas[q.Pool] {
			qualified = append(qualified, q)
		} else {
			others = append(others, q)
		}
	}
	return qualified, others
}
