package internal

import "fmt"

// The shape of a single elimination bracket for a
// number of qualified teams
type BracketStructure struct {
	// Smallest power of two that fits all teams
	TotalSlots int `json:"totalSlots"`
	// Teams advancing into the main bracket without a
	// preliminary match
	Byes int `json:"byes"`
	// Matches among the teams without a bye
	PreliminaryMatches int `json:"preliminaryMatches"`
	// Number of slots in the first main round
	MainBracketSize    int    `json:"mainBracketSize"`
	FirstMainRoundName string `json:"firstMainRoundName"`
}

func ComputeBracketStructure(teamCount int) (BracketStructure, error) {
	if teamCount < 2 {
		return BracketStructure{}, ErrTooFewEntries
	}

	totalSlots := nextPowerOfTwo(teamCount)
	byes := totalSlots - teamCount
	mainBracketSize := totalSlots / 2

	structure := BracketStructure{
		TotalSlots:         totalSlots,
		Byes:               byes,
		PreliminaryMatches: (teamCount - byes) / 2,
		MainBracketSize:    mainBracketSize,
		FirstMainRoundName: RoundName(mainBracketSize),
	}

	// With two teams the preliminary match already is the final
	if mainBracketSize < 2 {
		structure.FirstMainRoundName = RoundName(totalSlots)
	}

	return structure, nil
}

// Returns the name of a round that is played by size teams
func RoundName(size int) string {
	switch size {
	case 2:
		return "Final"
	case 4:
		return "Semifinal"
	case 8:
		return "Quarterfinal"
	}
	return fmt.Sprintf("Round of %d", size)
}

const (
	PreliminaryRoundName = "Preliminary"
	ThirdPlaceRoundName  = "Third Place"
)

// Name of the round in which the teams without a bye play.
// Without byes everybody plays it and it is named after
// its size.
func (s BracketStructure) PreliminaryRoundName() string {
	if s.Byes == 0 {
		return RoundName(s.TotalSlots)
	}
	return PreliminaryRoundName
}

func nextPowerOfTwo(n int) int {
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}

func getNumRounds(numSlots int) int {
	rounds := 0
	for numSlots > 1 {
		numSlots >>= 1
		rounds += 1
	}
	return rounds
}
