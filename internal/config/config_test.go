package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/derekprior/leagueplan/internal/league"
)

const testConfigYAML = `
season: 2026
database: data/league.db

games:
  num_games: 10
  num_games_div: 4
  all_star_game: 0.6
  trade_deadline: 0.5

playoffs:
  num_games_per_round: [7, 7]
  byes: 0
  play_in: false
  by_conf: true
  reseed: false

conferences:
  - name: East
    divisions:
      - name: Atlantic
        teams: [Celtics, Knicks]
      - name: Central
        teams: [Bulls, Bucks]
  - name: West
    divisions:
      - name: Pacific
        teams: [Lakers, Suns]
      - name: Northwest
        teams: [Nuggets, Jazz]
`

const testConfigTOML = `
season = 2026

[games]
num_games = 10
num_games_conf = 6

[playoffs]
num_games_per_round = [5, 7]
reseed = true

[[conferences]]
name = "East"

[[conferences.divisions]]
name = "Atlantic"
teams = ["Celtics", "Knicks"]

[[conferences]]
name = "West"

[[conferences.divisions]]
name = "Pacific"
teams = ["Lakers", "Suns"]
`

func mustLoad(t *testing.T, data string, format Format) *Config {
	t.Helper()
	cfg, err := LoadFromBytes([]byte(data), format)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return cfg
}

func TestLoadConfig(t *testing.T) {
	cfg := mustLoad(t, testConfigYAML, YAML)

	t.Run("season", func(t *testing.T) {
		if cfg.Season != 2026 {
			t.Errorf("season = %d, want 2026", cfg.Season)
		}
		if cfg.Database != "data/league.db" {
			t.Errorf("database = %q, want %q", cfg.Database, "data/league.db")
		}
	})

	t.Run("games", func(t *testing.T) {
		if cfg.Games.NumGames != 10 {
			t.Errorf("num_games = %d, want 10", cfg.Games.NumGames)
		}
		if cfg.Games.NumGamesDiv == nil || *cfg.Games.NumGamesDiv != 4 {
			t.Errorf("num_games_div = %v, want 4", cfg.Games.NumGamesDiv)
		}
		if cfg.Games.NumGamesConf != nil {
			t.Errorf("num_games_conf = %d, want unset", *cfg.Games.NumGamesConf)
		}
	})

	t.Run("playoffs", func(t *testing.T) {
		if len(cfg.Playoffs.NumGamesPerRound) != 2 {
			t.Fatalf("rounds = %d, want 2", len(cfg.Playoffs.NumGamesPerRound))
		}
		if !cfg.Playoffs.ByConf {
			t.Error("by_conf should be true")
		}
		if cfg.Playoffs.Reseed {
			t.Error("reseed should be false")
		}
	})

	t.Run("settings", func(t *testing.T) {
		s := cfg.LeagueSettings()
		if !s.NumGamesDiv.IsFixed() || s.NumGamesDiv.Games() != 4 {
			t.Errorf("div games = %v, want 4", s.NumGamesDiv)
		}
		if s.NumGamesConf.IsFixed() {
			t.Errorf("conf games = %v, want rollup", s.NumGamesConf)
		}
		if s.NumPlayoffTeams() != 4 {
			t.Errorf("playoff teams = %d, want 4", s.NumPlayoffTeams())
		}
		if s.AllStarGame != 0.6 || s.TradeDeadline != 0.5 {
			t.Errorf("special days = %g/%g, want 0.6/0.5", s.AllStarGame, s.TradeDeadline)
		}
	})
}

func TestLoadTOML(t *testing.T) {
	cfg := mustLoad(t, testConfigTOML, TOML)

	if cfg.Games.NumGamesDiv != nil {
		t.Errorf("num_games_div = %d, want unset", *cfg.Games.NumGamesDiv)
	}
	if cfg.Games.NumGamesConf == nil || *cfg.Games.NumGamesConf != 6 {
		t.Errorf("num_games_conf = %v, want 6", cfg.Games.NumGamesConf)
	}
	if !cfg.Playoffs.Reseed {
		t.Error("reseed should be true")
	}
	if got := len(cfg.AllTeams()); got != 4 {
		t.Errorf("AllTeams() = %d teams, want 4", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		data string
	}{
		{"league.yaml", testConfigYAML},
		{"league.toml", testConfigTOML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			cfg, err := LoadFromFile(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Season != 2026 {
				t.Errorf("season = %d, want 2026", cfg.Season)
			}
		})
	}

	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"league.yaml": YAML,
		"league.yml":  YAML,
		"league.toml": TOML,
		"LEAGUE.TOML": TOML,
		"league":      YAML,
	}
	for path, want := range tests {
		if got := FormatFor(path); got != want {
			t.Errorf("FormatFor(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestLoadConfigValidation(t *testing.T) {
	base := func(mutate func(string) string) string {
		return mutate(testConfigYAML)
	}

	tests := []struct {
		name         string
		yaml         string
		wantSettings bool
	}{
		{
			name: "no season",
			yaml: base(func(s string) string { return strings.Replace(s, "season: 2026", "", 1) }),
		},
		{
			name: "no conferences",
			yaml: "season: 2026\ngames:\n  num_games: 10\nplayoffs:\n  num_games_per_round: [7]\n",
		},
		{
			name: "empty division",
			yaml: base(func(s string) string { return strings.Replace(s, "[Nuggets, Jazz]", "[]", 1) }),
		},
		{
			name: "duplicate team names",
			yaml: base(func(s string) string { return strings.Replace(s, "[Nuggets, Jazz]", "[Nuggets, celtics]", 1) }),
		},
		{
			name: "unknown team in standings",
			yaml: base(func(s string) string { return s + "standings: [Celtics, Raptors]\n" }),
		},
		{
			name: "team listed twice in standings",
			yaml: base(func(s string) string { return s + "standings: [Celtics, Celtics]\n" }),
		},
		{
			name:         "quota exceeds season",
			yaml:         base(func(s string) string { return strings.Replace(s, "num_games_div: 4", "num_games_div: 12", 1) }),
			wantSettings: true,
		},
		{
			name:         "no playoff rounds",
			yaml:         base(func(s string) string { return strings.Replace(s, "[7, 7]", "[]", 1) }),
			wantSettings: true,
		},
		{
			name:         "all star outside season",
			yaml:         base(func(s string) string { return strings.Replace(s, "all_star_game: 0.6", "all_star_game: 1.5", 1) }),
			wantSettings: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml), YAML)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, league.ErrInvalidSettings); got != tt.wantSettings {
				t.Errorf("errors.Is(ErrInvalidSettings) = %v, want %v (err: %v)", got, tt.wantSettings, err)
			}
		})
	}

	t.Run("malformed yaml", func(t *testing.T) {
		if _, err := LoadFromBytes([]byte("season: ["), YAML); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestAllTeams(t *testing.T) {
	cfg := mustLoad(t, testConfigYAML, YAML)

	teams := cfg.AllTeams()
	if len(teams) != 8 {
		t.Fatalf("AllTeams() = %d teams, want 8", len(teams))
	}
	if err := league.CheckTeams(teams); err != nil {
		t.Errorf("CheckTeams: %v", err)
	}

	want := map[string]league.Team{
		"Celtics": {Tid: 0, Cid: 0, Did: 0, Name: "Celtics"},
		"Bucks":   {Tid: 3, Cid: 0, Did: 1, Name: "Bucks"},
		"Lakers":  {Tid: 4, Cid: 1, Did: 2, Name: "Lakers"},
		"Jazz":    {Tid: 7, Cid: 1, Did: 3, Name: "Jazz"},
	}
	for _, team := range teams {
		if w, ok := want[team.Name]; ok && team != w {
			t.Errorf("team %s = %+v, want %+v", team.Name, team, w)
		}
	}
}

func TestFindTeam(t *testing.T) {
	cfg := mustLoad(t, testConfigYAML, YAML)

	tests := []struct {
		query   string
		want    string
		wantErr bool
	}{
		{query: "Celtics", want: "Celtics"},
		{query: "lakers", want: "Lakers"},
		{query: "knick", want: "Knicks"},
		{query: "nugg", want: "Nuggets"},
		{query: "bu", wantErr: true},
		{query: "Raptors", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			team, err := cfg.FindTeam(tt.query)
			if tt.wantErr {
				if err == nil {
					t.Errorf("FindTeam(%q) = %s, want error", tt.query, team.Name)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if team.Name != tt.want {
				t.Errorf("FindTeam(%q) = %s, want %s", tt.query, team.Name, tt.want)
			}
		})
	}
}

func TestRanked(t *testing.T) {
	t.Run("by record", func(t *testing.T) {
		cfg := mustLoad(t, testConfigYAML, YAML)
		seasons := []league.TeamSeason{
			{Tid: 0, Won: 2, Lost: 8},
			{Tid: 5, Won: 9, Lost: 1},
			{Tid: 6, Won: 5, Lost: 5},
			{Tid: 7, Won: 5, Lost: 5},
		}
		ranked, err := cfg.Ranked(seasons)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ranked) != 8 {
			t.Fatalf("ranked = %d teams, want 8", len(ranked))
		}
		got := []int{ranked[0].Tid, ranked[1].Tid, ranked[2].Tid, ranked[3].Tid}
		want := []int{5, 6, 7, 0}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("ranked tids = %v, want %v", got, want)
				break
			}
		}
	})

	t.Run("fixed standings", func(t *testing.T) {
		cfg := mustLoad(t, testConfigYAML+"standings: [Jazz, Bulls, celtics]\n", YAML)
		ranked, err := cfg.Ranked(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ranked) != 3 {
			t.Fatalf("ranked = %d teams, want 3", len(ranked))
		}
		if ranked[0].Name != "Jazz" || ranked[1].Name != "Bulls" || ranked[2].Name != "Celtics" {
			t.Errorf("ranked = %v", ranked)
		}
	})
}
