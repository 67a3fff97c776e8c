package internal

// One step of a PointsTable. All ranks up to and including
// UpTo that are not covered by an earlier step get Points.
type PointsStep struct {
	UpTo   int `json:"upTo"`
	Points int `json:"points"`
}

// A PointsTable maps a final tournament rank to championship
// points. The steps are ordered by ascending UpTo. Ranks
// beyond the last step get no points.
type PointsTable []PointsStep

// The table used when a tournament does not bring its own
var DefaultPointsTable = PointsTable{
	{UpTo: 1, Points: 100},
	{UpTo: 2, Points: 80},
	{UpTo: 3, Points: 65},
	{UpTo: 4, Points: 55},
	{UpTo: 8, Points: 40},
	{UpTo: 16, Points: 25},
	{UpTo: 32, Points: 15},
	{UpTo: 64, Points: 5},
}

// Returns the points for the 1-based rank
func (t PointsTable) PointsFor(rank int) int {
	if rank < 1 {
		return 0
	}
	for _, step := range t {
		if rank <= step.UpTo {
			return step.Points
		}
	}
	return 0
}

// Awards points to every team of a tied ranking. Tied teams
// share the best rank of their tie, e.g. all four losing
// quarterfinalists are 5th.
func (t PointsTable) Award(ranks [][]TeamRef) map[string]int {
	points := make(map[string]int)
	rank := 1
	for _, tie := range ranks {
		for _, team := range tie {
			points[team.ID] = t.PointsFor(rank)
		}
		rank += len(tie)
	}
	return points
}
