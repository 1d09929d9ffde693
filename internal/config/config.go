package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/derekprior/leagueplan/internal/league"
)

// Format is the encoding of a league file.
type Format int

const (
	YAML Format = iota
	TOML
)

// FormatFor picks the format from a file extension. Anything that is not
// .toml is read as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return TOML
	}
	return YAML
}

// Games configures the regular season. NumGamesDiv and NumGamesConf left
// empty roll those opponents up into the broader group.
type Games struct {
	NumGames      int     `yaml:"num_games" toml:"num_games"`
	NumGamesDiv   *int    `yaml:"num_games_div" toml:"num_games_div"`
	NumGamesConf  *int    `yaml:"num_games_conf" toml:"num_games_conf"`
	AllStarGame   float64 `yaml:"all_star_game" toml:"all_star_game"`
	TradeDeadline float64 `yaml:"trade_deadline" toml:"trade_deadline"`
}

// Playoffs configures the postseason. NumGamesPerRound has one series
// length per round.
type Playoffs struct {
	NumGamesPerRound []int `yaml:"num_games_per_round" toml:"num_games_per_round"`
	Byes             int   `yaml:"byes" toml:"byes"`
	PlayIn           bool  `yaml:"play_in" toml:"play_in"`
	ByConf           bool  `yaml:"by_conf" toml:"by_conf"`
	Reseed           bool  `yaml:"reseed" toml:"reseed"`
}

type Division struct {
	Name  string   `yaml:"name" toml:"name"`
	Teams []string `yaml:"teams" toml:"teams"`
}

type Conference struct {
	Name      string     `yaml:"name" toml:"name"`
	Divisions []Division `yaml:"divisions" toml:"divisions"`
}

type Config struct {
	Season      int          `yaml:"season" toml:"season"`
	Database    string       `yaml:"database" toml:"database"`
	Games       Games        `yaml:"games" toml:"games"`
	Playoffs    Playoffs     `yaml:"playoffs" toml:"playoffs"`
	Conferences []Conference `yaml:"conferences" toml:"conferences"`

	// Standings optionally fixes the playoff ranking, best team first.
	Standings []string `yaml:"standings" toml:"standings"`
}

// AllTeams returns every team with ids assigned in file order. Conference
// and division ids are their positions in the file, divisions numbered
// across the whole league.
func (c *Config) AllTeams() []league.Team {
	var teams []league.Team
	did := 0
	for cid, conf := range c.Conferences {
		for _, div := range conf.Divisions {
			for _, name := range div.Teams {
				teams = append(teams, league.Team{Tid: len(teams), Cid: cid, Did: did, Name: name})
			}
			did++
		}
	}
	return teams
}

// LeagueSettings converts the file into scheduler settings.
func (c *Config) LeagueSettings() league.Settings {
	return league.Settings{
		NumGames:              c.Games.NumGames,
		NumGamesDiv:           league.GameCountFromPtr(c.Games.NumGamesDiv),
		NumGamesConf:          league.GameCountFromPtr(c.Games.NumGamesConf),
		NumGamesPlayoffSeries: c.Playoffs.NumGamesPerRound,
		NumPlayoffByes:        c.Playoffs.Byes,
		PlayIn:                c.Playoffs.PlayIn,
		PlayoffsByConf:        c.Playoffs.ByConf,
		PlayoffsReseed:        c.Playoffs.Reseed,
		AllStarGame:           c.Games.AllStarGame,
		TradeDeadline:         c.Games.TradeDeadline,
	}
}

// FindTeam resolves a team name, case-insensitively, falling back to a
// fuzzy match when the name is unambiguous.
func (c *Config) FindTeam(name string) (league.Team, error) {
	teams := c.AllTeams()
	names := make([]string, len(teams))
	for i, t := range teams {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
		names[i] = t.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(name, names)
	if len(ranks) == 0 {
		return league.Team{}, fmt.Errorf("unknown team %q", name)
	}
	sort.Sort(ranks)
	if len(ranks) > 1 && ranks[1].Distance == ranks[0].Distance {
		var matches []string
		for _, r := range ranks {
			if r.Distance == ranks[0].Distance {
				matches = append(matches, r.Target)
			}
		}
		return league.Team{}, fmt.Errorf("team %q is ambiguous: %s", name, strings.Join(matches, ", "))
	}
	return teams[ranks[0].OriginalIndex], nil
}

// Ranked orders teams for playoff seeding: by the configured standings if
// present, otherwise by winning percentage with ties going to the lower id.
func (c *Config) Ranked(seasons []league.TeamSeason) ([]league.Team, error) {
	teams := c.AllTeams()

	if len(c.Standings) > 0 {
		ranked := make([]league.Team, 0, len(c.Standings))
		for _, name := range c.Standings {
			t, err := c.FindTeam(name)
			if err != nil {
				return nil, fmt.Errorf("standings: %w", err)
			}
			ranked = append(ranked, t)
		}
		return ranked, nil
	}

	pct := make(map[int]float64, len(seasons))
	for _, ts := range seasons {
		pct[ts.Tid] = ts.WinPct()
	}
	sort.SliceStable(teams, func(i, j int) bool {
		return pct[teams[i].Tid] > pct[teams[j].Tid]
	})
	return teams, nil
}

// LoadFromBytes parses a league file and validates it.
func LoadFromBytes(data []byte, format Format) (*Config, error) {
	var cfg Config
	switch format {
	case TOML:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML or TOML league file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data, FormatFor(path))
}

func (c *Config) validate() error {
	if c.Season <= 0 {
		return fmt.Errorf("season is required")
	}

	if len(c.Conferences) == 0 {
		return fmt.Errorf("at least one conference is required")
	}

	seen := make(map[string]string)
	for _, conf := range c.Conferences {
		if len(conf.Divisions) == 0 {
			return fmt.Errorf("conference %q has no divisions", conf.Name)
		}
		for _, div := range conf.Divisions {
			if len(div.Teams) == 0 {
				return fmt.Errorf("division %q has no teams", div.Name)
			}
			for _, team := range div.Teams {
				key := strings.ToLower(team)
				if prevDiv, ok := seen[key]; ok {
					return fmt.Errorf("team %q appears in both %q and %q divisions", team, prevDiv, div.Name)
				}
				seen[key] = div.Name
			}
		}
	}

	ranked := make(map[string]bool)
	for _, name := range c.Standings {
		key := strings.ToLower(name)
		if _, ok := seen[key]; !ok {
			return fmt.Errorf("standings: unknown team %q", name)
		}
		if ranked[key] {
			return fmt.Errorf("standings: team %q listed twice", name)
		}
		ranked[key] = true
	}

	if err := c.LeagueSettings().Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}
