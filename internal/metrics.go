package internal

// Points awarded to a team for a won pool match
const PointsPerWin = 3

// The performance of one team across the completed matches
// of a pool
type Standing struct {
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`

	Played int `json:"played"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Points int `json:"points"`

	SetsWon  int `json:"setsWon"`
	SetsLost int `json:"setsLost"`

	PointsScored   int `json:"pointsScored"`
	PointsConceded int `json:"pointsConceded"`
}

func (s *Standing) SetDifference() int {
	return s.SetsWon - s.SetsLost
}

func (s *Standing) PointDifference() int {
	return s.PointsScored - s.PointsConceded
}

// Adds the result of one match from the perspective of the
// given side (1 or 2)
func (s *Standing) addMatch(match *Match, side int) {
	s.Played += 1
	won1 := match.SetsWonTeam1 > match.SetsWonTeam2
	won2 := match.SetsWonTeam2 > match.SetsWonTeam1
	if (side == 1 && won1) || (side == 2 && won2) {
		s.Wins += 1
		s.Points += PointsPerWin
	} else {
		s.Losses += 1
	}

	for _, set := range match.Sets {
		if !set.Played() {
			continue
		}
		own, other := *set.Score1, *set.Score2
		if side == 2 {
			own, other = other, own
		}
		s.PointsScored += own
		s.PointsConceded += other

		switch set.Winner(match.ScoreSettings) {
		case side:
			s.SetsWon += 1
		case 0:
		default:
			s.SetsLost += 1
		}
	}
}

// Creates a Standing for each entrant and accumulates the
// completed matches into them.
//
// A side is credited to the entrant with the side's id.
// When the side is an ad-hoc team of entrants it is credited
// to each of its members instead.
func createStandings(entrants []TeamRef, matches []*Match) map[string]*Standing {
	standings := make(map[string]*Standing, len(entrants))
	for _, e := range entrants {
		standings[e.ID] = &Standing{TeamID: e.ID, TeamName: e.Name}
	}

	for _, m := range matches {
		if m.Status != StatusCompleted {
			continue
		}
		for side, slot := range m.Slots() {
			team, ok := slot.Resolved()
			if !ok {
				continue
			}
			for _, id := range creditedIDs(team, standings) {
				standings[id].addMatch(m, side)
			}
		}
	}

	return standings
}

func creditedIDs(team TeamRef, standings map[string]*Standing) []string {
	if _, ok := standings[team.ID]; ok {
		return []string{team.ID}
	}
	ids := make([]string, 0, len(team.Members))
	for _, id := range team.Members {
		if _, ok := standings[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
