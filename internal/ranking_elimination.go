package internal

import "slices"

// Ranks the teams of an elimination bracket according to how
// far they reached. Teams that lost in the same round share
// a rank (tied ranks). The third place match, when present,
// splits the semifinal losers.
//
// Matches without a result put their known teams on a shared
// rank so that the ranking is available while the bracket
// is still being played.
func EliminationRanking(matches []*Match) ([][]TeamRef, error) {
	if _, err := NewMatchGraph(matches); err != nil {
		return nil, err
	}

	byID := make(map[string]*Match, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}

	var final, thirdPlace *Match
	for _, m := range matches {
		if m.NextMatchID != "" || m.NextMatchLoserID != "" {
			continue
		}
		if isThirdPlace(m) {
			thirdPlace = m
		} else {
			final = m
		}
	}
	if final == nil {
		return nil, nil
	}

	depths := make(map[string]int, len(matches))
	rounds := make([][]*Match, 0, 8)
	for _, m := range matches {
		if m == thirdPlace {
			continue
		}
		d := matchDepth(m, byID, depths)
		for len(rounds) <= d {
			rounds = append(rounds, nil)
		}
		rounds[d] = append(rounds[d], m)
	}

	ranks := make([][]TeamRef, 0, 2*len(rounds)+2)
	ranks = append(ranks, rankRound(rounds[0])...)
	if thirdPlace != nil {
		ranks = append(ranks, rankRound([]*Match{thirdPlace})...)
	}
	for _, round := range rounds[1:] {
		ranks = append(ranks, rankRound(round)...)
	}

	return RemoveDoubleRanks(ranks), nil
}

// Returns the final ranking of the bracket
func (b *Bracket) FinalRanking() ([][]TeamRef, error) {
	return EliminationRanking(b.Matches)
}

func isThirdPlace(match *Match) bool {
	for _, slot := range match.Slots() {
		source := SlotSource(slot)
		if source != nil && source.Type == SourceLoser {
			return true
		}
	}
	return false
}

// Number of matches between this match and the final
func matchDepth(match *Match, byID map[string]*Match, depths map[string]int) int {
	if d, ok := depths[match.ID]; ok {
		return d
	}
	d := 0
	if next, ok := byID[match.NextMatchID]; ok {
		d = matchDepth(next, byID, depths) + 1
	}
	depths[match.ID] = d
	return d
}

func rankRound(round []*Match) [][]TeamRef {
	winners := make([]TeamRef, 0, len(round))
	losers := make([]TeamRef, 0, len(round))

	for _, m := range round {
		matchWinner, matchLosers := rankMatch(m)
		if matchWinner != nil {
			winners = append(winners, *matchWinner)
		}
		losers = append(losers, matchLosers...)
	}

	ranks := make([][]TeamRef, 0, 2)
	if len(winners) > 0 {
		ranks = append(ranks, winners)
	}
	if len(losers) > 0 {
		ranks = append(ranks, losers)
	}

	return ranks
}

func rankMatch(match *Match) (*TeamRef, []TeamRef) {
	winner, ok := match.Winner()
	if ok {
		loser, _ := match.Loser()
		return &winner, []TeamRef{loser}
	}

	losers := make([]TeamRef, 0, 2)
	for _, s := range match.Slots() {
		if team, ok := s.Resolved(); ok {
			losers = append(losers, team)
		}
	}
	return nil, losers
}

// Keeps only the first occurrence of each team
func RemoveDoubleRanks(ranks [][]TeamRef) [][]TeamRef {
	found := make(map[string]struct{})
	cleanedRanks := make([][]TeamRef, 0, len(ranks))

	for _, r := range ranks {
		cleanedRank := make([]TeamRef, 0, len(r))
		for _, team := range r {
			if _, ok := found[team.ID]; !ok {
				cleanedRank = append(cleanedRank, team)
				found[team.ID] = struct{}{}
			}
		}
		if len(cleanedRank) > 0 {
			cleanedRanks = append(cleanedRanks, cleanedRank)
		}
	}
	return cleanedRanks
}

// Flattens tied ranks into a single ordered list of team ids
func FlattenRanks(ranks [][]TeamRef) []string {
	ids := make([]string, 0, len(ranks))
	for _, rank := range ranks {
		for _, team := range rank {
			ids = append(ids, team.ID)
		}
	}
	return slices.Clip(ids)
}
