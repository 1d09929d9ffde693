package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/derekprior/leagueplan/internal/config"
	"github.com/derekprior/leagueplan/internal/excel"
	"github.com/derekprior/leagueplan/internal/league"
	"github.com/derekprior/leagueplan/internal/playoffs"
	"github.com/derekprior/leagueplan/internal/storage"
)

func playoffsCommand() *cobra.Command {
	playoffsCmd := &cobra.Command{
		Use:   "playoffs",
		Short: "Seed and run the playoffs",
	}

	var force bool
	startCmd := &cobra.Command{
		Use:          "start",
		Short:        "Seed the playoff bracket from the standings",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd.Context(), force)
		},
	}
	startCmd.Flags().BoolVar(&force, "force", false, "Replace an existing bracket")

	dayCmd := &cobra.Command{
		Use:          "day",
		Short:        "Schedule the next day of playoff games",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDay(cmd.Context())
		},
	}

	resultCmd := &cobra.Command{
		Use:          "result <home> <away> <homePts> <awayPts>",
		Short:        "Record the score of a playoff game",
		Args:         cobra.ExactArgs(4),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			homePts, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("home points: %w", err)
			}
			awayPts, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("away points: %w", err)
			}
			return runResult(cmd.Context(), args[0], args[1], homePts, awayPts)
		},
	}

	var bracketOutput string
	showCmd := &cobra.Command{
		Use:          "show",
		Short:        "Print the playoff bracket",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), bracketOutput)
		},
	}
	showCmd.Flags().StringVarP(&bracketOutput, "output", "o", "", "Also write the bracket to a Playoffs sheet in this workbook")

	playoffsCmd.AddCommand(startCmd, dayCmd, resultCmd, showCmd)
	return playoffsCmd
}

func runStart(ctx context.Context, force bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var b *playoffs.Bracket
	err = db.WithTransaction(ctx, func(repo *storage.Repository) error {
		if _, err := repo.PlayoffSeries(ctx, cfg.Season); err == nil && !force {
			return fmt.Errorf("season %d playoffs already started; use --force to reseed", cfg.Season)
		} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		teams := cfg.AllTeams()
		if err := ensureTeamSeasons(ctx, repo, cfg.Season, teams); err != nil {
			return err
		}
		seasons, err := repo.TeamSeasons(ctx, cfg.Season)
		if err != nil {
			return err
		}
		ranked, err := cfg.Ranked(seasons)
		if err != nil {
			return err
		}

		b, err = playoffs.GenPlayoffSeries(cfg.Season, ranked, cfg.LeagueSettings())
		if err != nil {
			return err
		}
		if err := playoffs.NewEngine(repo).Begin(ctx, b); err != nil {
			return err
		}
		return repo.SavePlayoffSeries(ctx, b.Series)
	})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"season":  cfg.Season,
		"playoff": len(b.PlayoffTids),
		"playIn":  len(b.PlayInTids),
	}).Info("seeded playoffs")

	fmt.Printf("✓ Season %d playoffs seeded: %d teams in the bracket", cfg.Season, len(b.PlayoffTids))
	if len(b.PlayInTids) > 0 {
		fmt.Printf(", %d in the play-in", len(b.PlayInTids))
	}
	fmt.Println()
	printBracket(cfg, b.Series)
	return nil
}

func runDay(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var day *playoffs.DayResult
	var dayNum int
	err = db.WithTransaction(ctx, func(repo *storage.Repository) error {
		s, err := repo.PlayoffSeries(ctx, cfg.Season)
		if err != nil {
			return err
		}
		day, err = playoffs.NewEngine(repo).NewDay(ctx, s)
		if err != nil {
			return err
		}
		if len(day.Games) > 0 {
			if dayNum, err = repo.AddPlayoffGames(ctx, cfg.Season, day.Games); err != nil {
				return err
			}
		}
		return repo.SavePlayoffSeries(ctx, s)
	})
	if err != nil {
		return err
	}

	names := teamNames(cfg.AllTeams())
	if day.Terminal {
		fmt.Printf("✓ %s win the season %d title\n", names[day.Champion.Tid], cfg.Season)
		return nil
	}

	label := "Playoff"
	if day.PlayIn {
		label = "Play-in"
	}
	fmt.Printf("%s games for day %d:\n", label, dayNum)
	for _, g := range day.Games {
		fmt.Printf("  %s @ %s\n", names[g.Away], names[g.Home])
	}
	return nil
}

func runResult(ctx context.Context, homeName, awayName string, homePts, awayPts int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	home, err := cfg.FindTeam(homeName)
	if err != nil {
		return err
	}
	away, err := cfg.FindTeam(awayName)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.WithTransaction(ctx, func(repo *storage.Repository) error {
		s, err := repo.PlayoffSeries(ctx, cfg.Season)
		if err != nil {
			return err
		}
		if err := s.RecordResult(home.Tid, away.Tid, homePts, awayPts); err != nil {
			return err
		}
		return repo.SavePlayoffSeries(ctx, s)
	})
	if err != nil {
		return err
	}

	fmt.Printf("✓ %s %d, %s %d\n", away.Name, awayPts, home.Name, homePts)
	return nil
}

func runShow(ctx context.Context, output string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := db.Repository().PlayoffSeries(ctx, cfg.Season)
	if err != nil {
		return err
	}
	printBracket(cfg, s)

	if output == "" {
		return nil
	}

	f, created, err := openWorkbook(output)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := excel.WriteBracket(f, cfg.AllTeams(), s); err != nil {
		return fmt.Errorf("writing bracket: %w", err)
	}
	if created {
		f.DeleteSheet("Sheet1")
	}
	if idx, _ := f.GetSheetIndex(excel.PlayoffsSheet); idx >= 0 {
		f.SetActiveSheet(idx)
	}
	if err := f.SaveAs(output); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("\n✓ Bracket saved to %s\n", output)
	return nil
}

// openWorkbook opens path, or starts a new workbook if it does not exist.
func openWorkbook(path string) (*excelize.File, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("opening file: %w", err)
	}
	return f, false, nil
}

func printBracket(cfg *config.Config, s *playoffs.Series) {
	names := teamNames(cfg.AllTeams())

	side := func(t *playoffs.SeriesTeam) string {
		if t.PendingPlayIn {
			return fmt.Sprintf("(%d) play-in winner", t.Seed)
		}
		return fmt.Sprintf("(%d) %s %d", t.Seed, names[t.Tid], t.Won)
	}
	line := func(m playoffs.Matchup) {
		if m.Away.IsBye() {
			fmt.Printf("  %s, bye\n", side(&m.Home))
			return
		}
		fmt.Printf("  %s - %s\n", side(&m.Home), side(m.Away.Team()))
	}

	if len(s.PlayIns) > 0 {
		fmt.Println("\nPlay-in:")
		for _, group := range s.PlayIns {
			for _, m := range group {
				line(m)
			}
		}
	}
	for r, round := range s.Rounds {
		if len(round) == 0 {
			continue
		}
		marker := ""
		if r == s.CurrentRound {
			marker = " (current)"
		}
		fmt.Printf("\nRound %d%s:\n", r+1, marker)
		for _, m := range round {
			line(m)
		}
	}
}

func teamNames(teams []league.Team) map[int]string {
	names := make(map[int]string, len(teams))
	for _, t := range teams {
		names[t.Tid] = t.Name
	}
	return names
}
