package internal

import (
	"cmp"
	"iter"
	"math/rand"
	"slices"
)

// An Entrant is a registered player or team with a skill
// level that is used to balance pools
type Entrant struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SkillLevel int    `json:"skillLevel"`
}

func (e Entrant) TeamRef() TeamRef {
	return TeamRef{ID: e.ID, Name: e.Name}
}

// Distributes the entrants into poolCount pools.
//
// The entrants are sorted by skill level (descending) with
// entrants of equal level shuffled by rng. They are then
// dealt to the pools in a "snaking" order going back and
// forth (0, 1, 2, 2, 1, 0, 0, 1, ...) so that every pool
// gets a similar share of strong and weak entrants.
//
// A nil rng leaves equal levels in their given order.
func SnakeDraft(entrants []Entrant, poolCount int, rng *rand.Rand) ([][]Entrant, error) {
	if poolCount < 1 {
		return nil, ErrInvalidPoolCount
	}

	sorted := sortBySkill(entrants, rng)

	pools := make([][]Entrant, poolCount)
	forward := true
	for pass := range slices.Chunk(sorted, poolCount) {
		for i, e := range directionalSeq(pass, forward) {
			// A short last pass going backwards starts at the last pool
			if !forward {
				i += poolCount - len(pass)
			}
			pools[i] = append(pools[i], e)
		}
		forward = !forward
	}

	return pools, nil
}

func sortBySkill(entrants []Entrant, rng *rand.Rand) []Entrant {
	sorted := slices.Clone(entrants)
	if rng != nil {
		shuffle(sorted, rng)
	}
	slices.SortStableFunc(sorted, func(a, b Entrant) int {
		return cmp.Compare(b.SkillLevel, a.SkillLevel)
	})
	return sorted
}

func shuffle[S ~[]E, E any](slice S, rng *rand.Rand) {
	rng.Shuffle(
		len(slice),
		func(i, j int) { slice[i], slice[j] = slice[j], slice[i] },
	)
}

// Returns an index-value-sequence that iterates the given slice normally
// when the direction bool is true, otherwise iterates in
// reverse order. The index is ascending in both cases.
func directionalSeq[V any](slice []V, direction bool) iter.Seq2[int, V] {
	l := len(slice)
	iterator := func(yield func(int, V) bool) {
		for i := range l {
			v := i
			if !direction {
				v = l - i - 1
			}
			if !yield(i, slice[v]) {
				return
			}
		}
	}

	return iterator
}
