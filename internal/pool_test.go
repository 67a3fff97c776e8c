package internal

import (
	"errors"
	"testing"
)

func TestRoundRobinPool(t *testing.T) {
	teams, _ := teamSlice(3)
	pool, err := NewRoundRobinPool(PoolName(0), teams, 1, testSettings)
	if err != nil {
		t.Fatal(err)
	}

	if pool.Name != "Pool A" || len(pool.Matches) != 3 {
		t.Fatal("The pool was not created with 3 matches")
	}
	for i, m := range pool.Matches {
		if m.PoolID != pool.ID || m.MatchNumber != i+1 || m.Round == "" {
			t.Fatal("The pool matches are not annotated")
		}
		team1, _, _ := m.Teams()
		if team1.PoolName != pool.Name {
			t.Fatal("The teams do not carry the pool name")
		}
	}

	_, err = NewRoundRobinPool("Pool B", teams[:1], 1, testSettings)
	if !errors.Is(err, ErrTooFewEntries) {
		t.Fatal("A pool with a single team was created")
	}
}

func TestPoolName(t *testing.T) {
	if PoolName(1) != "Pool B" || PoolName(25) != "Pool Z" || PoolName(26) != "Pool AA" {
		t.Fatal("Wrong pool names")
	}
}

func TestKingPool(t *testing.T) {
	players, _ := teamSlice(8)
	pool, err := NewKingPool("Pool A", players, 2, 0, testSettings)
	if err != nil {
		t.Fatal(err)
	}

	// 7 rounds of 2 matches
	if len(pool.Matches) != 14 {
		t.Fatalf("The pool has %d matches, expected 14", len(pool.Matches))
	}

	partners := make(map[string]map[string]bool)
	for _, m := range pool.Matches {
		for _, slot := range m.Slots() {
			team, _ := slot.Resolved()
			if len(team.Members) != 2 {
				t.Fatal("A King team does not have two members")
			}
			a, b := team.Members[0], team.Members[1]
			if partners[a] == nil {
				partners[a] = make(map[string]bool)
			}
			partners[a][b] = true
		}
	}

	// The fixed player teams up with a new partner every round
	if len(partners["0"]) != 7 {
		t.Fatalf("Player 0 had %d different partners, expected 7", len(partners["0"]))
	}
}

func TestKingPoolSitOut(t *testing.T) {
	players, _ := teamSlice(6)
	pool, err := NewKingPool("Pool A", players, 2, 3, testSettings)
	if err != nil {
		t.Fatal(err)
	}
	if len(pool.Matches) != 3 {
		t.Fatalf("The pool has %d matches, expected one per round", len(pool.Matches))
	}

	for _, size := range []struct{ players, teamSize int }{{6, 2}, {7, 3}, {10, 2}} {
		players, _ := teamSlice(size.players)
		pool, err := NewKingPool("Pool A", players, size.teamSize, 0, testSettings)
		if err != nil {
			t.Fatal(err)
		}

		played := make(map[string]int)
		for _, m := range pool.Matches {
			for _, slot := range m.Slots() {
				team, _ := slot.Resolved()
				for _, id := range team.Members {
					played[id] += 1
				}
			}
		}

		least, most := len(pool.Matches), 0
		for _, p := range players {
			least = min(least, played[p.ID])
			most = max(most, played[p.ID])
		}
		if most-least > 1 {
			t.Fatalf("%d players in teams of %d played between %d and %d matches",
				size.players, size.teamSize, least, most)
		}
	}

	_, err = NewKingPool("Pool A", players[:3], 2, 0, testSettings)
	if !errors.Is(err, ErrInvalidTeamSize) {
		t.Fatal("A King pool without enough players for a match was created")
	}
}

func TestRoundRobinStandings(t *testing.T) {
	teams, _ := teamSlice(3)
	pool, _ := NewRoundRobinPool("Pool A", teams, 1, testSettings)

	// The lower id always wins
	for _, m := range pool.Matches {
		team1, team2, _ := m.Teams()
		if err := playMatch(m, team1.ID < team2.ID); err != nil {
			t.Fatal(err)
		}
	}

	standings := ComputeStandings(pool)
	for i, s := range standings {
		if s.TeamID != teams[i].ID {
			t.Fatalf("Team %s is on place %d", s.TeamID, i+1)
		}
		if s.Played != 2 {
			t.Fatal("Not every match was counted")
		}
	}
	if standings[0].Points != 2*PointsPerWin || standings[0].SetsWon != 4 || standings[0].SetsLost != 0 {
		t.Fatalf("Wrong standing of the winner %+v", standings[0])
	}
	if standings[2].Wins != 0 || standings[2].Losses != 2 || standings[2].SetDifference() != -4 {
		t.Fatalf("Wrong standing of the last %+v", standings[2])
	}
	if standings[0].PointsScored != 84 || standings[0].PointDifference() != 84-50 {
		t.Fatal("The points were not accumulated")
	}
}

func TestStandingsIgnoreUncompleted(t *testing.T) {
	teams, _ := teamSlice(2)
	pool, _ := NewRoundRobinPool("Pool A", teams, 1, testSettings)
	pool.Matches[0].ApplySets([]Set{NewSet(21, 5)})

	for _, s := range ComputeStandings(pool) {
		if s.Played != 0 || s.SetsWon != 0 {
			t.Fatal("A match in progress was counted")
		}
	}
	if pool.Completed() {
		t.Fatal("A pool with a match in progress is completed")
	}
}

func TestCompareStandings(t *testing.T) {
	a := &Standing{TeamID: "a", Points: 6, SetsWon: 4, SetsLost: 2}
	b := &Standing{TeamID: "b", Points: 6, SetsWon: 5, SetsLost: 3}
	c := &Standing{TeamID: "c", Points: 6, SetsWon: 4, SetsLost: 1}
	d := &Standing{TeamID: "d", Points: 9, SetsWon: 0, SetsLost: 9}

	if compareStandings(d, b) >= 0 {
		t.Fatal("Points do not decide first")
	}
	if compareStandings(b, a) >= 0 {
		t.Fatal("More sets won do not rank higher")
	}
	if compareStandings(c, a) >= 0 {
		t.Fatal("Fewer sets lost do not rank higher")
	}
	if compareStandings(a, &Standing{Points: 6, SetsWon: 4, SetsLost: 2}) != 0 {
		t.Fatal("Equal standings are not tied")
	}
}

func TestKingStandings(t *testing.T) {
	players, _ := teamSlice(4)
	pool, _ := NewKingPool("Pool A", players, 2, 0, testSettings)

	for _, m := range pool.Matches {
		if err := playMatch(m, true); err != nil {
			t.Fatal(err)
		}
	}

	standings := ComputeStandings(pool)
	if len(standings) != 4 {
		t.Fatal("Not every player has a standing")
	}
	wins := 0
	for _, s := range standings {
		if s.Played != 3 {
			t.Fatalf("Player %s was credited %d matches, expected 3", s.TeamID, s.Played)
		}
		wins += s.Wins
	}
	if wins != 6 {
		t.Fatal("The wins were not credited to both members")
	}
}
