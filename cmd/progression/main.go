// Command progression simulates a King of the Court tournament
// from the pool phases down to the elimination bracket and
// prints the final ranking with championship points.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/courtking/progression/config"
	"github.com/courtking/progression/core"
	"github.com/courtking/progression/store"
	"github.com/courtking/progression/volleyball"
	"github.com/google/uuid"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginTop(1).
			MarginBottom(1)
	rankStyle   = lipgloss.NewStyle().Bold(true).Width(5)
	pointsStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
)

// The phases of the simulated tournament: shrinking King
// pools followed by a bracket of the remaining players
var phases = []core.PhaseConfig{
	{
		Kind:           core.PhasePools,
		PoolCount:      3,
		TeamSize:       4,
		Qualifiers:     []int{6, 6, 6},
		TotalQualified: 18,
		ScoreSettings:  volleyball.King,
	},
	{
		Kind:           core.PhasePools,
		PoolCount:      3,
		TeamSize:       3,
		Qualifiers:     []int{4, 4, 4},
		TotalQualified: 12,
		ScoreSettings:  volleyball.King,
	},
	{
		Kind:           core.PhasePools,
		PoolCount:      2,
		TeamSize:       2,
		Qualifiers:     []int{4, 4},
		TotalQualified: 8,
		ScoreSettings:  volleyball.King,
	},
	{
		Kind:          core.PhaseElimination,
		ScoreSettings: volleyball.Elimination,
	},
}

func main() {
	envFile := flag.String("env", "", "optional .env file with PROGRESSION_* settings")
	players := flag.Int("players", 24, "number of players in the tournament")
	flag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		log.Fatal("Could not load config", "err", err)
	}
	log.SetLevel(cfg.LogLevel)

	ctx := context.Background()
	db, err := store.OpenSQL(ctx, cfg.DBPath)
	if err != nil {
		log.Fatal("Could not open store", "path", cfg.DBPath, "err", err)
	}

	rng := rand.New(rand.NewSource(cfg.DraftSeed))
	service := core.NewService(db,
		core.WithStrictScores(cfg.StrictScores),
		core.WithRand(rand.New(rand.NewSource(cfg.DraftSeed))),
		core.WithLogger(log.Default().WithPrefix("progression")),
	)

	err = run(ctx, service, rng, *players)
	db.Close()
	if err != nil {
		log.Error("Tournament failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, service *core.Service, rng *rand.Rand, numPlayers int) error {
	tournamentID := uuid.NewString()
	entrants := make([]core.Entrant, 0, numPlayers)
	for i := range numPlayers {
		entrants = append(entrants, core.Entrant{
			ID:         fmt.Sprintf("p%02d", i+1),
			Name:       fmt.Sprintf("Player %02d", i+1),
			SkillLevel: rng.Intn(10),
		})
	}

	log.Info("Starting tournament", "id", tournamentID, "players", numPlayers, "phases", len(phases))

	for i, phaseConfig := range phases {
		number := i + 1
		start, err := service.StartPhase(ctx, tournamentID, number, phaseConfig, entrants)
		if err != nil {
			return err
		}

		// Bracket matches are numbered in playing order so every
		// slot is resolved by the time its match comes up
		for _, m := range start.Matches {
			if _, err := service.SubmitScore(ctx, m.ID, simulateSets(m.ScoreSettings, rng)); err != nil {
				return err
			}
		}

		result, err := service.CompletePhase(ctx, tournamentID, number)
		if err != nil {
			return err
		}
		if number == len(phases) {
			return printRanking(ctx, service, tournamentID, number)
		}

		log.Info("Phase finished", "phase", number, "qualified", result.QualifiedIDs)
		if _, err := service.AdvancePhase(ctx, tournamentID, number, nil); err != nil {
			return err
		}
	}

	return nil
}

// Plays a match where a random side wins every set it needs
// and the other side scores at least two points less
func simulateSets(settings core.ScoreSettings, rng *rand.Rand) []core.Set {
	winner := 1 + rng.Intn(2)
	sets := make([]core.Set, 0, settings.SetsToWin)
	for range settings.SetsToWin {
		loserPoints := rng.Intn(settings.PointsPerSet - 1)
		if winner == 1 {
			sets = append(sets, core.NewSet(settings.PointsPerSet, loserPoints))
		} else {
			sets = append(sets, core.NewSet(loserPoints, settings.PointsPerSet))
		}
	}
	return sets
}

func printRanking(ctx context.Context, service *core.Service, tournamentID string, number int) error {
	ranks, points, err := service.FinalRanking(ctx, tournamentID, number, core.DefaultPointsTable)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Final ranking"))
	rank := 1
	for _, tie := range ranks {
		for _, team := range tie {
			fmt.Printf("%s%-12s %s\n",
				rankStyle.Render(fmt.Sprintf("%d.", rank)),
				team.Name,
				pointsStyle.Render(fmt.Sprintf("%d pts", points[team.ID])),
			)
		}
		rank += len(tie)
	}
	return nil
}
