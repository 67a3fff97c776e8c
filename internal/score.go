package internal

// The scoring rules of a match
type ScoreSettings struct {
	// Number of sets a side has to win to take the match
	SetsToWin int `json:"setsToWin" msgpack:"setsToWin"`
	// Target score of a set
	PointsPerSet int `json:"pointsPerSet" msgpack:"pointsPerSet"`
	// When true a set is only won with a lead of two points
	TieBreakEnabled bool `json:"tieBreakEnabled" msgpack:"tieBreak"`
}

func (s ScoreSettings) Validate() error {
	if s.SetsToWin <= 0 || s.PointsPerSet <= 0 {
		return ErrInvalidSettings
	}
	return nil
}

// The most sets a match can last
func (s ScoreSettings) MaxSets() int {
	return 2*s.SetsToWin - 1
}

// A Set holds both sides' points of one set.
// Nil points mean the set is not yet played.
type Set struct {
	Score1 *int `json:"score1" msgpack:"s1"`
	Score2 *int `json:"score2" msgpack:"s2"`
}

func NewSet(score1, score2 int) Set {
	return Set{Score1: &score1, Score2: &score2}
}

// Returns count sets that are not yet played
func EmptySets(count int) []Set {
	return make([]Set, max(count, 0))
}

func (s Set) Played() bool {
	return s.Score1 != nil && s.Score2 != nil
}

func (s Set) validate() error {
	if (s.Score1 == nil) != (s.Score2 == nil) {
		return ErrOneSidedSet
	}
	if s.Played() && (*s.Score1 < 0 || *s.Score2 < 0) {
		return ErrNegativePoints
	}
	return nil
}

// Returns the winner of the set according to the settings.
// 0 means the set is undecided or not played.
func (s Set) Winner(settings ScoreSettings) int {
	if !s.Played() {
		return 0
	}
	return ResolveSet(*s.Score1, *s.Score2, settings.PointsPerSet, settings.TieBreakEnabled)
}

// Determines who won a set. Returns 1 or 2 for the
// winning side and 0 when nobody won (yet).
//
// A side wins when it reached pointsPerSet and, with the
// tie-break enabled, leads by at least two points.
func ResolveSet(score1, score2, pointsPerSet int, tieBreakEnabled bool) int {
	margin := 1
	if tieBreakEnabled {
		margin = 2
	}

	switch {
	case score1 >= pointsPerSet && score1-score2 >= margin:
		return 1
	case score2 >= pointsPerSet && score2-score1 >= margin:
		return 2
	}
	return 0
}

// The aggregated state of a match derived from its sets
type Outcome struct {
	Status       MatchStatus `json:"status"`
	SetsWonTeam1 int         `json:"setsWonTeam1"`
	SetsWonTeam2 int         `json:"setsWonTeam2"`
	WinnerID     string      `json:"winnerId,omitempty"`
	LoserID      string      `json:"loserId,omitempty"`
	WinnerName   string      `json:"winnerName,omitempty"`
	LoserName    string      `json:"loserName,omitempty"`
}

// Returns 1 or 2 for the winning side of a completed outcome
// and 0 otherwise
func (o Outcome) WinningSide() int {
	if o.Status != StatusCompleted {
		return 0
	}
	if o.SetsWonTeam1 > o.SetsWonTeam2 {
		return 1
	}
	return 2
}

// Aggregates the sets into the status of a match.
//
// The match is completed as soon as one side won SetsToWin
// sets, in progress when at least one set is decided and
// scheduled otherwise. Malformed sets are rejected before
// any aggregation happens.
func ResolveMatchOutcome(sets []Set, settings ScoreSettings, team1, team2 TeamRef) (Outcome, error) {
	for _, set := range sets {
		if err := set.validate(); err != nil {
			return Outcome{}, err
		}
	}

	outcome := Outcome{Status: StatusScheduled}
	decided := false
	for _, set := range sets {
		switch set.Winner(settings) {
		case 1:
			outcome.SetsWonTeam1 += 1
			decided = true
		case 2:
			outcome.SetsWonTeam2 += 1
			decided = true
		}
	}

	won1 := outcome.SetsWonTeam1 >= settings.SetsToWin
	won2 := outcome.SetsWonTeam2 >= settings.SetsToWin

	switch {
	case won1 && won2 && outcome.SetsWonTeam1 == outcome.SetsWonTeam2:
		return Outcome{}, ErrEqualSetWins
	case won1 || won2:
		outcome.Status = StatusCompleted
	case decided:
		outcome.Status = StatusInProgress
	}

	switch outcome.WinningSide() {
	case 1:
		outcome.WinnerID, outcome.WinnerName = team1.ID, team1.Name
		outcome.LoserID, outcome.LoserName = team2.ID, team2.Name
	case 2:
		outcome.WinnerID, outcome.WinnerName = team2.ID, team2.Name
		outcome.LoserID, outcome.LoserName = team1.ID, team1.Name
	}

	return outcome, nil
}
