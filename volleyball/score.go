package volleyball

import (
	"fmt"

	"github.com/courtking/progression/internal"
)

var (
	ErrPointsZero = fmt.Errorf("%w: points per set are zero or less", internal.ErrConfiguration)
	ErrSetsZero   = fmt.Errorf("%w: sets to win are zero or less", internal.ErrConfiguration)

	ErrTooManySets     = fmt.Errorf("%w: too many sets", internal.ErrValidation)
	ErrUnneededSets    = fmt.Errorf("%w: score contains sets after the match was decided", internal.ErrValidation)
	ErrUnfinishedSet   = fmt.Errorf("%w: only the last recorded set may be unfinished", internal.ErrValidation)
	ErrSetGap          = fmt.Errorf("%w: a set was recorded after an unplayed set", internal.ErrValidation)
	ErrTooManyPoints   = fmt.Errorf("%w: set winner points exceed the points per set", internal.ErrValidation)
	ErrInvalidMargin   = fmt.Errorf("%w: the winning point margin is invalid", internal.ErrValidation)
)

// Presets of the formats that are played
var (
	// Group stage sets are single sets to 25
	PoolPlay = internal.ScoreSettings{SetsToWin: 1, PointsPerSet: 25, TieBreakEnabled: true}
	// Brackets are played best of three to 21
	Elimination = internal.ScoreSettings{SetsToWin: 2, PointsPerSet: 21, TieBreakEnabled: true}
	// King rounds are short single sets
	King = internal.ScoreSettings{SetsToWin: 1, PointsPerSet: 15, TieBreakEnabled: true}
)

func NewScoreSettings(pointsPerSet, setsToWin int, tieBreak bool) (internal.ScoreSettings, error) {
	settings := internal.ScoreSettings{
		SetsToWin:       setsToWin,
		PointsPerSet:    pointsPerSet,
		TieBreakEnabled: tieBreak,
	}

	if pointsPerSet <= 0 {
		return settings, ErrPointsZero
	}
	if setsToWin <= 0 {
		return settings, ErrSetsZero
	}

	return settings, nil
}

// Checks that the sets form a score that can actually occur
// under the settings.
//
// On top of the checks of the match outcome it rejects gaps
// between recorded sets, unfinished sets before the last
// recorded one and sets after the match was decided.
// A decided set ends as soon as the winner reaches the
// target with the required margin. So with the tie-break
// a set beyond the target is won by exactly two points and
// without it the winner has exactly the target points.
func CheckSets(sets []internal.Set, settings internal.ScoreSettings) error {
	recorded := 0
	for i, set := range sets {
		if (set.Score1 == nil) != (set.Score2 == nil) {
			return internal.ErrOneSidedSet
		}
		if !set.Played() {
			continue
		}
		if recorded != i {
			return ErrSetGap
		}
		recorded += 1
	}
	if recorded > settings.MaxSets() {
		return ErrTooManySets
	}

	setWins1, setWins2 := 0, 0
	for i, set := range sets[:recorded] {
		a, b := *set.Score1, *set.Score2
		w := max(a, b)
		l := min(a, b)

		switch {
		case setWins1 == settings.SetsToWin || setWins2 == settings.SetsToWin:
			return ErrUnneededSets
		case l < 0:
			return internal.ErrNegativePoints
		}

		winner := set.Winner(settings)
		if winner == 0 {
			if i != recorded-1 {
				return ErrUnfinishedSet
			}
			continue
		}

		switch {
		case !settings.TieBreakEnabled && w > settings.PointsPerSet:
			return ErrTooManyPoints
		case settings.TieBreakEnabled && w > settings.PointsPerSet && w-l != 2:
			return ErrInvalidMargin
		}

		if winner == 1 {
			setWins1 += 1
		} else {
			setWins2 += 1
		}
	}

	return nil
}

// Returns the sets of a walkover win for the given side
// (1 or 2). Every needed set is won to zero.
func WalkoverSets(settings internal.ScoreSettings, winningSide int) []internal.Set {
	sets := internal.EmptySets(settings.MaxSets())
	for i := range settings.SetsToWin {
		if winningSide == 1 {
			sets[i] = internal.NewSet(settings.PointsPerSet, 0)
		} else {
			sets[i] = internal.NewSet(0, settings.PointsPerSet)
		}
	}
	return sets
}
