package internal

import (
	"errors"
	"fmt"
)

var testIds string = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var testSettings = ScoreSettings{SetsToWin: 2, PointsPerSet: 21, TieBreakEnabled: true}

// Returns num teams with single character ids ranked
// in the order of the slice
func teamSlice(num int) ([]TeamRef, error) {
	if num > len(testIds) {
		return nil, errors.New("Max number of test teams exceeded")
	}
	teams := make([]TeamRef, 0, num)
	for i := range num {
		id := string(testIds[i])
		teams = append(teams, TeamRef{ID: id, Name: fmt.Sprintf("Team %s", id)})
	}
	return teams, nil
}

func entrantSlice(num int) ([]Entrant, error) {
	teams, err := teamSlice(num)
	if err != nil {
		return nil, err
	}
	entrants := make([]Entrant, 0, num)
	for i, t := range teams {
		entrants = append(entrants, Entrant{ID: t.ID, Name: t.Name, SkillLevel: num - i})
	}
	return entrants, nil
}

// Completes the match with slot 1 winning 2-0, or slot 2
// when side1Wins is false
func playMatch(match *Match, side1Wins bool) error {
	sets := []Set{NewSet(21, 10), NewSet(21, 15)}
	if !side1Wins {
		sets = []Set{NewSet(10, 21), NewSet(15, 21)}
	}
	_, err := match.ApplySets(sets)
	return err
}

// Plays a match and writes its patches into the graph
func playAndPropagate(graph *MatchGraph, match *Match, side1Wins bool) error {
	if err := playMatch(match, side1Wins); err != nil {
		return err
	}
	patches, err := graph.Propagate(match)
	if err != nil {
		return err
	}
	return graph.Apply(patches)
}
