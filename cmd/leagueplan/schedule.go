package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/derekprior/leagueplan/internal/charts"
	"github.com/derekprior/leagueplan/internal/excel"
	"github.com/derekprior/leagueplan/internal/schedule"
	"github.com/derekprior/leagueplan/internal/storage"
	"github.com/derekprior/leagueplan/internal/strategy"
	"github.com/derekprior/leagueplan/internal/validator"
)

type generateOptions struct {
	output       string
	seed         int64
	chart        string
	balanceChart string
	noDB         bool
}

func scheduleCommand() *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate and validate regular-season schedules",
	}

	var opts generateOptions
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate a schedule from the league file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				opts.seed = time.Now().UnixNano()
			}
			return runGenerate(cmd.Context(), opts)
		},
	}
	generateCmd.Flags().StringVarP(&opts.output, "output", "o", "schedule.xlsx", "Output Excel file path")
	generateCmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed (default: current time)")
	generateCmd.Flags().StringVar(&opts.chart, "chart", "", "Write a games-per-day chart to this HTML file")
	generateCmd.Flags().StringVar(&opts.balanceChart, "balance-chart", "", "Write a home/away chart to this HTML file")
	generateCmd.Flags().BoolVar(&opts.noDB, "no-db", false, "Do not store the schedule in the database")

	validateCmd := &cobra.Command{
		Use:          "validate <schedule.xlsx>",
		Short:        "Validate a schedule workbook against the league file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}

	scheduleCmd.AddCommand(generateCmd, validateCmd)
	return scheduleCmd
}

func runGenerate(ctx context.Context, opts generateOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	teams := cfg.AllTeams()
	settings := cfg.LeagueSettings()

	fmt.Printf("Scheduling %d games for %d teams (seed %d)...\n", settings.NumGames, len(teams), opts.seed)
	log.WithFields(logrus.Fields{"seed": opts.seed, "teams": len(teams)}).Info("generating schedule")

	result, err := schedule.Generate(settings, teams, rand.New(rand.NewSource(opts.seed)), strategy.DefaultOptions())
	if err != nil {
		return err
	}

	numGames, numDays := 0, 0
	for _, g := range result.Games {
		if !g.IsSpecial() {
			numGames++
		}
		numDays = max(numDays, g.Day)
	}

	if result.Warning != "" {
		fmt.Printf("⚠ %s\n", result.Warning)
	} else {
		fmt.Printf("✓ All %d games scheduled over %d days\n", numGames, numDays)
	}

	fmt.Println("\nPer Team Metrics:")
	fmt.Printf("  %-15s %6s %5s %5s %9s %9s %9s\n", "Team", "Games", "Home", "Away", "Div H/A", "Conf H/A", "Other H/A")
	for _, team := range teams {
		m := result.TeamMetrics[team.Tid]
		fmt.Printf("  %-15s %6d %5d %5d %9s %9s %9s\n", team.Name, m.Games, m.Home, m.Away,
			homeAway(m.Levels[strategy.LevelDiv]), homeAway(m.Levels[strategy.LevelConf]), homeAway(m.Levels[strategy.LevelOther]))
	}

	f, err := excel.Generate(teams, result.Games)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(opts.output); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("\n✓ Schedule saved to %s\n", opts.output)

	if opts.chart != "" {
		if err := charts.RenderDayDensity(result.Games, charts.DefaultChartConfig(), opts.chart); err != nil {
			return err
		}
		fmt.Printf("✓ Chart saved to %s\n", opts.chart)
	}
	if opts.balanceChart != "" {
		if err := charts.RenderHomeAway(teams, result.TeamMetrics, charts.DefaultChartConfig(), opts.balanceChart); err != nil {
			return err
		}
		fmt.Printf("✓ Chart saved to %s\n", opts.balanceChart)
	}

	if opts.noDB {
		return nil
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.WithTransaction(ctx, func(repo *storage.Repository) error {
		if err := ensureTeamSeasons(ctx, repo, cfg.Season, teams); err != nil {
			return err
		}
		return repo.ReplaceSchedule(ctx, cfg.Season, result.Games)
	})
	if err != nil {
		return fmt.Errorf("storing schedule: %w", err)
	}
	fmt.Printf("✓ Season %d schedule stored\n", cfg.Season)
	return nil
}

func homeAway(ha schedule.HomeAway) string {
	return fmt.Sprintf("%d/%d", ha.Home, ha.Away)
}

func runValidate(schedulePath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	violations, err := validator.Validate(cfg.AllTeams(), cfg.LeagueSettings(), schedulePath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errors := 0
	warnings := 0
	for _, v := range violations {
		switch v.Type {
		case "error":
			errors++
			if v.Row > 0 {
				fmt.Printf("✗ Row %d: %s\n", v.Row, v.Message)
			} else {
				fmt.Printf("✗ %s\n", v.Message)
			}
		case "warning":
			warnings++
			fmt.Printf("⚠ %s\n", v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d errors, %d warnings\n", errors, warnings)

	if errors > 0 {
		return fmt.Errorf("%d schedule errors found", errors)
	}
	return nil
}
