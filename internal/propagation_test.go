package internal

import (
	"errors"
	"testing"
)

func fourTeamBracket(t *testing.T) (*Bracket, []TeamRef) {
	teams, _ := teamSlice(4)
	bracket, err := GenerateBracket(teams, testSettings)
	if err != nil {
		t.Fatal(err)
	}
	return bracket, teams
}

func TestPropagateSemifinal(t *testing.T) {
	bracket, teams := fourTeamBracket(t)
	semi := bracket.Rounds[0].Matches[0]
	final := bracket.Final()

	if err := playMatch(semi, true); err != nil {
		t.Fatal(err)
	}

	patches, err := bracket.Graph.Propagate(semi)
	if err != nil {
		t.Fatal(err)
	}
	if len(patches) != 2 {
		t.Fatalf("Semifinal produced %d patches, expected 2", len(patches))
	}
	if patches[0].MatchID != final.ID || patches[1].MatchID != bracket.ThirdPlace.ID {
		t.Fatal("The winner patch does not come before the loser patch")
	}

	// Nothing is written before the patches are applied
	if _, ok := final.Team1.Resolved(); ok {
		t.Fatal("Propagation modified the final")
	}

	if err := bracket.Graph.Apply(patches); err != nil {
		t.Fatal(err)
	}

	winner, ok := final.Team1.Resolved()
	if !ok || winner.ID != teams[0].ID {
		t.Fatal("The winner did not advance into the final")
	}
	loser, ok := bracket.ThirdPlace.Team1.Resolved()
	if !ok || loser.ID != teams[3].ID {
		t.Fatal("The loser did not advance into the third place match")
	}
	if source := SlotSource(final.Team1); source == nil || source.MatchID != semi.ID {
		t.Fatal("The advanced team does not remember its source")
	}
}

func TestPropagateUncompleted(t *testing.T) {
	bracket, teams := fourTeamBracket(t)
	semi := bracket.Rounds[0].Matches[0]

	_, err := bracket.Graph.PropagateResult(semi, teams[0], teams[3])
	if !errors.Is(err, ErrSourceNotCompleted) || !errors.Is(err, ErrInconsistentState) {
		t.Fatal("An uncompleted match was propagated")
	}
}

func TestPropagateCorrection(t *testing.T) {
	bracket, teams := fourTeamBracket(t)
	semi1 := bracket.Rounds[0].Matches[0]
	semi2 := bracket.Rounds[0].Matches[1]
	final := bracket.Final()
	graph := bracket.Graph

	if err := playAndPropagate(graph, semi1, true); err != nil {
		t.Fatal(err)
	}

	// Propagating the same result again changes nothing
	patches, err := graph.Propagate(semi1)
	if err != nil {
		t.Fatal(err)
	}
	if len(patches) != 0 {
		t.Fatal("An unchanged result produced patches")
	}

	if !graph.IsEditable(semi1) {
		t.Fatal("The semifinal is not editable before the final started")
	}
	if err := playAndPropagate(graph, semi1, false); err != nil {
		t.Fatal(err)
	}
	winner, _ := final.Team1.Resolved()
	if winner.ID != teams[3].ID {
		t.Fatal("The corrected winner did not replace the previous one")
	}
	loser, _ := bracket.ThirdPlace.Team1.Resolved()
	if loser.ID != teams[0].ID {
		t.Fatal("The corrected loser did not replace the previous one")
	}

	if err := playAndPropagate(graph, semi2, true); err != nil {
		t.Fatal(err)
	}
	if err := playMatch(final, true); err != nil {
		t.Fatal(err)
	}

	if graph.IsEditable(semi1) {
		t.Fatal("The semifinal is editable after the final started")
	}
	if len(bracket.EditableMatches()) != 1 {
		t.Fatal("Only the final should be editable")
	}

	if err := playMatch(semi1, true); err != nil {
		t.Fatal(err)
	}
	_, err = graph.Propagate(semi1)
	if !errors.Is(err, ErrDownstreamStarted) {
		t.Fatal("A changed result was propagated into a started match")
	}
}

func TestPropagateSlotTaken(t *testing.T) {
	bracket, teams := fourTeamBracket(t)
	semi := bracket.Rounds[0].Matches[0]
	final := bracket.Final()

	final.Team1 = NewPendingSlot("elsewhere", SourceWinner)
	if err := playMatch(semi, true); err != nil {
		t.Fatal(err)
	}
	_, err := bracket.Graph.Propagate(semi)
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatal("A slot waiting on another match was overwritten")
	}

	final.Team1 = NewTeamSlot(teams[2])
	_, err = bracket.Graph.Propagate(semi)
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatal("A seeded slot was overwritten")
	}
}

func TestMatchGraphLinks(t *testing.T) {
	teams, _ := teamSlice(2)
	m1 := NewMatch(NewTeamSlot(teams[0]), NewTeamSlot(teams[1]), testSettings)
	m2 := NewMatch(NewPendingSlot(m1.ID, SourceWinner), NewTeamSlot(teams[0]), testSettings)

	m1.NextMatchID = "missing"
	m1.NextMatchTeamSlot = 1
	_, err := NewMatchGraph([]*Match{m1, m2})
	if !errors.Is(err, ErrUnknownMatch) {
		t.Fatal("A link to a missing match was accepted")
	}

	m1.linkWinner(m2, 1)
	m2.linkWinner(m1, 1)
	_, err = NewMatchGraph([]*Match{m1, m2})
	if !errors.Is(err, ErrCyclicLink) {
		t.Fatal("Cyclic links were accepted")
	}

	m2.NextMatchID = ""
	m1.NextMatchTeamSlot = 3
	_, err = NewMatchGraph([]*Match{m1, m2})
	if !errors.Is(err, ErrUnknownSlot) {
		t.Fatal("A link to slot 3 was accepted")
	}
}
