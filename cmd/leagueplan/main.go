package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/derekprior/leagueplan/internal/config"
	"github.com/derekprior/leagueplan/internal/league"
	"github.com/derekprior/leagueplan/internal/logging"
	"github.com/derekprior/leagueplan/internal/storage"
)

const (
	defaultConfigFile = "league.yaml"
	defaultDBFile     = "leagueplan.db"
)

var (
	configFile string
	dbPath     string
	logLevel   string

	log *logrus.Entry
)

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	for _, name := range []string{defaultConfigFile, "league.toml"} {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

func loadConfig() (*config.Config, error) {
	path, err := resolveConfigPath(configFile)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// openDB picks the database from --db, then LEAGUEPLAN_DB, then the
// config file.
func openDB(cfg *config.Config) (*storage.DB, error) {
	path := dbPath
	if path == "" {
		path = os.Getenv("LEAGUEPLAN_DB")
	}
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		path = defaultDBFile
	}

	dbConfig := storage.DefaultConfig(path)
	dbConfig.AutoMigrate = true
	db, err := storage.Open(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	log.WithField("path", path).Debug("opened database")
	return db, nil
}

// ensureTeamSeasons stores the teams and creates an empty season record
// for any team that lacks one.
func ensureTeamSeasons(ctx context.Context, repo *storage.Repository, season int, teams []league.Team) error {
	if err := repo.SaveTeams(ctx, teams); err != nil {
		return err
	}
	for _, t := range teams {
		ts, err := repo.TeamSeason(ctx, season, t.Tid)
		if err != nil {
			return err
		}
		if ts != nil {
			continue
		}
		ts = &league.TeamSeason{Season: season, Tid: t.Tid, PlayoffRoundsWon: -1}
		if err := repo.SaveTeamSeason(ctx, ts); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "leagueplan",
		Short: "Season schedule and playoff bracket generator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("loading .env: %w", err)
			}
			logging.Init(logLevel, false)
			log = logging.WithComponent("cli")
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to league file (default: league.yaml or league.toml in current directory)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the SQLite database (default: $LEAGUEPLAN_DB, then the league file's database)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $LOG_LEVEL or warn)")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter league.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the league file")

	rootCmd.AddCommand(initCmd, scheduleCommand(), seasonCommand(), playoffsCommand())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

func seasonCommand() *cobra.Command {
	seasonCmd := &cobra.Command{
		Use:   "season",
		Short: "Record regular-season standings",
	}

	recordCmd := &cobra.Command{
		Use:          "record <team> <won> <lost>",
		Short:        "Set a team's regular-season record",
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var won, lost int
			if _, err := fmt.Sscan(args[1], &won); err != nil {
				return fmt.Errorf("won: %w", err)
			}
			if _, err := fmt.Sscan(args[2], &lost); err != nil {
				return fmt.Errorf("lost: %w", err)
			}
			return runRecord(cmd.Context(), args[0], won, lost)
		},
	}

	seasonCmd.AddCommand(recordCmd)
	return seasonCmd
}

func runRecord(ctx context.Context, teamName string, won, lost int) error {
	if won < 0 || lost < 0 {
		return fmt.Errorf("won and lost cannot be negative")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	team, err := cfg.FindTeam(teamName)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.WithTransaction(ctx, func(repo *storage.Repository) error {
		if err := ensureTeamSeasons(ctx, repo, cfg.Season, cfg.AllTeams()); err != nil {
			return err
		}
		ts, err := repo.TeamSeason(ctx, cfg.Season, team.Tid)
		if err != nil {
			return err
		}
		ts.Won, ts.Lost = won, lost
		return repo.SaveTeamSeason(ctx, ts)
	})
	if err != nil {
		return err
	}

	fmt.Printf("✓ %s: %d-%d\n", team.Name, won, lost)
	return nil
}

const configTemplate = `# League configuration
# ====================
# This file defines the league structure, the regular season and the
# playoffs. TOML works too: name the file league.toml.

season: 2026

# SQLite database for schedules, standings and playoff state.
# Overridden by --db or LEAGUEPLAN_DB.
database: leagueplan.db

games:
  # Games each team plays in the regular season.
  num_games: 82

  # Games against division and conference opponents. Leave a key out to
  # roll those games up into the broader pool.
  num_games_div: 16
  num_games_conf: 36

  # Placeholder days, as a fraction of the way through the season.
  # Leave out or set to 0 to skip.
  all_star_game: 0.6
  trade_deadline: 0.55

playoffs:
  # One series length per round. 2^rounds - byes teams make the bracket.
  num_games_per_round: [7, 7, 7, 7]
  byes: 0

  # Seeds below the cutoff play a single-game play-in for the last two
  # bracket spots.
  play_in: true

  # Separate brackets per conference, meeting in the final.
  by_conf: true

  # Re-pair best vs worst remaining seed after every round.
  reseed: false

# Conferences, divisions and teams. Team names must be unique.
conferences:
  - name: Eastern
    divisions:
      - name: Atlantic
        teams: [Boston, Brooklyn, New York, Philadelphia, Toronto]
      - name: Central
        teams: [Chicago, Cleveland, Detroit, Indiana, Milwaukee]
      - name: Southeast
        teams: [Atlanta, Charlotte, Miami, Orlando, Washington]
  - name: Western
    divisions:
      - name: Northwest
        teams: [Denver, Minnesota, Oklahoma City, Portland, Utah]
      - name: Pacific
        teams: [Golden State, LA Clippers, LA Lakers, Phoenix, Sacramento]
      - name: Southwest
        teams: [Dallas, Houston, Memphis, New Orleans, San Antonio]

# Optional fixed playoff ranking, best first. Without it teams are ranked
# by the records entered with "leagueplan season record".
# standings: [Boston, Denver, ...]
`
