package schedule

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/derekprior/leagueplan/internal/league"
	"github.com/derekprior/leagueplan/internal/logging"
	"github.com/derekprior/leagueplan/internal/strategy"
)

// Warnings reported when the solver had to degrade.
const (
	WarningIgnoredDivConf = "Division and conference game requirements could not be met, so they were ignored when generating the schedule."
	WarningNoSchedule     = "No valid schedule could be generated, so the season has no regular-season games."
)

// solve is swapped out in tests to force solver failures.
var solve = strategy.Solve

// HomeAway counts games by venue.
type HomeAway struct {
	Home int
	Away int
}

// TeamMetrics holds per-team schedule statistics.
type TeamMetrics struct {
	Games  int
	Home   int
	Away   int
	Levels [strategy.NumLevels]HomeAway
}

// Result is the output of the scheduling process.
type Result struct {
	Games          []league.ScheduleGame
	Warning        string
	IgnoredDivConf bool
	TeamMetrics    map[int]*TeamMetrics
}

// Generate builds a regular-season schedule. Invalid settings are returned
// as errors. When the solver cannot satisfy division and conference quotas
// it retries with them ignored, and if that fails too it returns an empty
// schedule. Both degradations are reported through Result.Warning.
func Generate(settings league.Settings, teams []league.Team, rng *rand.Rand, opts strategy.Options) (*Result, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	log := logging.WithComponent("schedule")

	result := &Result{}
	matchups, err := solve(teams, settings, false, rng, opts)
	if err != nil {
		if !recoverable(err) {
			return nil, fmt.Errorf("generating schedule: %w", err)
		}
		log.WithError(err).Debug("Retrying without division and conference quotas")

		result.IgnoredDivConf = true
		matchups, err = solve(teams, settings, true, rng, opts)
		switch {
		case err == nil:
			result.Warning = WarningIgnoredDivConf
		case recoverable(err):
			matchups = nil
			result.Warning = WarningNoSchedule
		default:
			return nil, fmt.Errorf("generating schedule: %w", err)
		}
	}

	result.Games = InsertSpecialDays(PackDays(matchups, rng), settings)
	result.TeamMetrics = buildMetrics(teams, settings, result.IgnoredDivConf, result.Games)

	if result.Warning != "" {
		log.WithFields(logrus.Fields{
			"teams": len(teams),
			"games": len(matchups),
		}).Warn(result.Warning)
	}
	return result, nil
}

func recoverable(err error) bool {
	return errors.Is(err, strategy.ErrSolverExhausted) || errors.Is(err, strategy.ErrInfeasible)
}

func buildMetrics(teams []league.Team, settings league.Settings, ignoreDivConf bool, games []league.ScheduleGame) map[int]*TeamMetrics {
	byTid := league.TeamsByTid(teams)
	grouping := strategy.NewGrouping(settings, ignoreDivConf)

	metrics := make(map[int]*TeamMetrics, len(teams))
	for _, t := range teams {
		metrics[t.Tid] = &TeamMetrics{}
	}

	for _, g := range games {
		if g.IsSpecial() {
			continue
		}
		level := grouping.LevelOf(byTid[g.Home], byTid[g.Away])

		if m, ok := metrics[g.Home]; ok {
			m.Games++
			m.Home++
			m.Levels[level].Home++
		}
		if m, ok := metrics[g.Away]; ok {
			m.Games++
			m.Away++
			m.Levels[level].Away++
		}
	}
	return metrics
}
