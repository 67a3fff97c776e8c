package internal

import "github.com/google/uuid"

// A single elimination bracket
type Bracket struct {
	ID        string
	Structure BracketStructure

	// Rounds from the preliminary round up to the final.
	// The third place match is not part of any round.
	Rounds []*Round

	// All matches in the order they were numbered
	Matches []*Match

	// Nil when the final has fewer than two feeding matches
	ThirdPlace *Match

	Graph *MatchGraph
}

// Returns the final match
func (b *Bracket) Final() *Match {
	lastRound := b.Rounds[len(b.Rounds)-1]
	return lastRound.Matches[0]
}

// Returns the matches that are completed and can still be
// corrected because none of their downstream matches started
func (b *Bracket) EditableMatches() []*Match {
	editable := make([]*Match, 0, len(b.Matches))
	for _, m := range b.Matches {
		if m.Status == StatusCompleted && b.Graph.IsEditable(m) {
			editable = append(editable, m)
		}
	}
	return editable
}

// Builds a single elimination bracket from teams ranked best
// to worst.
//
// The top teams get a bye into the main bracket. The
// others play a preliminary round where the best of them
// meets the worst. The main bracket is seeded so that the
// top two can only meet in the final. A third place match
// is added when the final is fed by two matches.
func GenerateBracket(teams []TeamRef, settings ScoreSettings) (*Bracket, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := checkDistinctTeams(teams); err != nil {
		return nil, err
	}

	structure, err := ComputeBracketStructure(len(teams))
	if err != nil {
		return nil, err
	}

	preliminary := createPreliminaryRound(teams, structure, settings)
	rounds := []*Round{preliminary}

	if structure.MainBracketSize >= 2 {
		mainSlots := createMainSlots(teams, structure, preliminary.Matches)
		round := &Round{
			Name:    structure.FirstMainRoundName,
			Matches: createSeededMatches(mainSlots, settings),
		}
		linkPendingSlots(round.Matches, preliminary.Matches)
		rounds = append(rounds, round)

		for len(round.Matches) > 1 {
			round = createFollowingRound(round, settings)
			rounds = append(rounds, round)
		}
	}

	matches := make([]*Match, 0, len(teams))
	for _, r := range rounds {
		for _, m := range r.Matches {
			m.Round = r.Name
			matches = append(matches, m)
		}
	}

	bracket := &Bracket{
		ID:        uuid.NewString(),
		Structure: structure,
		Rounds:    rounds,
	}

	final := bracket.Final()
	feeders := feedingMatches(matches, final)
	if len(feeders) == 2 {
		thirdPlace := NewMatch(
			NewPendingSlot(feeders[0].ID, SourceLoser),
			NewPendingSlot(feeders[1].ID, SourceLoser),
			settings,
		)
		thirdPlace.Round = ThirdPlaceRoundName
		feeders[0].linkLoser(thirdPlace, 1)
		feeders[1].linkLoser(thirdPlace, 2)
		matches = append(matches, thirdPlace)
		bracket.ThirdPlace = thirdPlace
	}

	for i, m := range matches {
		m.MatchNumber = i + 1
	}
	bracket.Matches = matches

	graph, err := NewMatchGraph(matches)
	if err != nil {
		return nil, err
	}
	bracket.Graph = graph

	return bracket, nil
}

// Pairs the teams without a bye: rank byes+i plays
// rank n-1-i
func createPreliminaryRound(teams []TeamRef, structure BracketStructure, settings ScoreSettings) *Round {
	round := &Round{
		Name:    structure.PreliminaryRoundName(),
		Matches: make([]*Match, 0, structure.PreliminaryMatches),
	}
	n := len(teams)
	for i := range structure.PreliminaryMatches {
		match := NewMatch(
			NewTeamSlot(teams[structure.Byes+i]),
			NewTeamSlot(teams[n-1-i]),
			settings,
		)
		round.Matches = append(round.Matches, match)
	}
	return round
}

// Returns the slots of the main bracket ordered by expected
// strength: the bye teams followed by the winners of the
// preliminary matches
func createMainSlots(teams []TeamRef, structure BracketStructure, preliminary []*Match) []Slot {
	slots := make([]Slot, 0, structure.MainBracketSize)
	for _, team := range teams[:structure.Byes] {
		slots = append(slots, NewTeamSlot(team))
	}
	for _, m := range preliminary {
		slots = append(slots, NewPendingSlot(m.ID, SourceWinner))
	}
	return slots
}

// Creates matches with the slots being arranged for
// a seeded elimination round. Every match pairs slot i
// with slot n-1-i.
func createSeededMatches(slots []Slot, settings ScoreSettings) []*Match {
	numRounds := getNumRounds(len(slots))
	seedMatchups := arrangeSeeds(numRounds)
	matches := make([]*Match, 0, len(seedMatchups))

	for _, matchup := range seedMatchups {
		match := NewMatch(slots[matchup.seed1], slots[matchup.seed2], settings)
		matches = append(matches, match)
	}

	return matches
}

// Points the source matches of pending winner slots at the
// matches holding those slots
func linkPendingSlots(matches, sources []*Match) {
	byID := make(map[string]*Match, len(sources))
	for _, m := range sources {
		byID[m.ID] = m
	}

	for _, m := range matches {
		for number, slot := range m.Slots() {
			pending, ok := slot.(*PendingSlot)
			if !ok {
				continue
			}
			source := byID[pending.Source.MatchID]
			source.linkWinner(m, number)
		}
	}
}

// Creates the next round where the winners of the matches
// 2k and 2k+1 meet
func createFollowingRound(round *Round, settings ScoreSettings) *Round {
	previous := round.Matches
	matches := make([]*Match, 0, len(previous)/2)
	for i := 0; i < len(previous); i += 2 {
		match1 := previous[i]
		match2 := previous[i+1]
		match := NewMatch(
			NewPendingSlot(match1.ID, SourceWinner),
			NewPendingSlot(match2.ID, SourceWinner),
			settings,
		)
		match1.linkWinner(match, 1)
		match2.linkWinner(match, 2)
		matches = append(matches, match)
	}

	return &Round{
		Name:    RoundName(2 * len(matches)),
		Matches: matches,
	}
}

// Returns the matches whose winners advance into target
// ordered by the slot they feed
func feedingMatches(matches []*Match, target *Match) []*Match {
	var bySlot [2]*Match
	for _, m := range matches {
		if m.NextMatchID == target.ID {
			bySlot[m.NextMatchTeamSlot-1] = m
		}
	}

	feeders := make([]*Match, 0, 2)
	for _, m := range bySlot {
		if m != nil {
			feeders = append(feeders, m)
		}
	}
	return feeders
}

type seedMatchup struct {
	seed1 int
	seed2 int
}

// Arranges the seeds for the first elimination round of
// a total of numRounds.
//
// Every matchup pairs seed i with seed n-1-i. The order of
// the matchups ensures that the top 2 seeds can only meet
// in the final, the top 4 seeds can only meet in the
// semi-final, etc...
//
// More info: https://en.wikipedia.org/wiki/Single-elimination_tournament#Seeding
func arrangeSeeds(numRounds int) []*seedMatchup {
	// Start with the final between the first two seeds
	matchups := []*seedMatchup{{0, 1}}
	totalSeeds := 2

	// Work down the tournament tree by round (semis, quarters, ...)
	for i := 1; i < numRounds; i += 1 {
		nextMatchups := make([]*seedMatchup, 0, totalSeeds)
		totalSeeds *= 2
		for _, parent := range matchups {
			s1 := parent.seed1
			s2 := parent.seed2

			nextMatchups = append(
				nextMatchups,
				&seedMatchup{s1, totalSeeds - 1 - s1},
				&seedMatchup{s2, totalSeeds - 1 - s2},
			)
		}

		matchups = nextMatchups
	}

	return matchups
}

func checkDistinctTeams(teams []TeamRef) error {
	seen := make(map[string]struct{}, len(teams))
	for _, t := range teams {
		if _, ok := seen[t.ID]; ok {
			return ErrDuplicateEntrant
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}
