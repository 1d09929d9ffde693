package schedule

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/derekprior/leagueplan/internal/league"
	"github.com/derekprior/leagueplan/internal/strategy"
)

func nbaLeague() ([]league.Team, league.Settings) {
	var teams []league.Team
	for tid := 0; tid < 30; tid++ {
		teams = append(teams, league.Team{Tid: tid, Cid: tid / 15, Did: tid / 5})
	}
	return teams, league.Settings{
		NumGames:              82,
		NumGamesDiv:           league.Fixed(16),
		NumGamesConf:          league.Fixed(36),
		NumGamesPlayoffSeries: []int{7, 7, 7, 7},
		NumPlayoffByes:        0,
		AllStarGame:           0.6,
		TradeDeadline:         0.55,
	}
}

func TestGenerateFullSeason(t *testing.T) {
	teams, settings := nbaLeague()
	result, err := Generate(settings, teams, rand.New(rand.NewSource(42)), strategy.DefaultOptions())
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	t.Run("no warning", func(t *testing.T) {
		if result.Warning != "" || result.IgnoredDivConf {
			t.Errorf("unexpected warning %q", result.Warning)
		}
	})

	t.Run("1230 games plus two placeholders", func(t *testing.T) {
		games, special := 0, 0
		for _, g := range result.Games {
			if g.IsSpecial() {
				special++
			} else {
				games++
			}
		}
		if games != 1230 {
			t.Errorf("got %d games, want 1230", games)
		}
		if special != 2 {
			t.Errorf("got %d placeholders, want 2", special)
		}
	})

	t.Run("no team plays twice in one day", func(t *testing.T) {
		type teamDay struct{ tid, day int }
		seen := make(map[teamDay]bool)
		for _, g := range result.Games {
			if g.IsSpecial() {
				continue
			}
			for _, tid := range []int{g.Home, g.Away} {
				key := teamDay{tid, g.Day}
				if seen[key] {
					t.Errorf("team %d plays twice on day %d", tid, g.Day)
				}
				seen[key] = true
			}
		}
	})

	t.Run("metrics are balanced per level", func(t *testing.T) {
		for _, team := range teams {
			m := result.TeamMetrics[team.Tid]
			if m.Games != 82 || m.Home != 41 || m.Away != 41 {
				t.Errorf("team %d: %d games, %d home, %d away", team.Tid, m.Games, m.Home, m.Away)
			}
			want := [strategy.NumLevels]HomeAway{
				strategy.LevelDiv:   {Home: 8, Away: 8},
				strategy.LevelConf:  {Home: 18, Away: 18},
				strategy.LevelOther: {Home: 15, Away: 15},
			}
			if m.Levels != want {
				t.Errorf("team %d levels = %+v, want %+v", team.Tid, m.Levels, want)
			}
		}
	})
}

func TestGenerateInvalidSettings(t *testing.T) {
	teams, settings := nbaLeague()

	tests := []struct {
		name   string
		mutate func(*league.Settings)
	}{
		{"div and conf exceed total", func(s *league.Settings) { s.NumGamesConf = league.Fixed(70) }},
		{"byes with one round", func(s *league.Settings) {
			s.NumGamesPlayoffSeries = []int{7}
			s.NumPlayoffByes = 1
		}},
		{"no games", func(s *league.Settings) { s.NumGames = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings
			tt.mutate(&s)
			_, err := Generate(s, teams, rand.New(rand.NewSource(1)), strategy.DefaultOptions())
			if !errors.Is(err, league.ErrInvalidSettings) {
				t.Errorf("err = %v, want ErrInvalidSettings", err)
			}
		})
	}

	t.Run("division games without division opponents", func(t *testing.T) {
		lonely := []league.Team{{Tid: 0, Did: 0}, {Tid: 1, Did: 1}}
		s := league.Settings{NumGames: 4, NumGamesDiv: league.Fixed(2), NumGamesPlayoffSeries: []int{1}}
		_, err := Generate(s, lonely, rand.New(rand.NewSource(1)), strategy.DefaultOptions())
		if !errors.Is(err, league.ErrInvalidSettings) {
			t.Errorf("err = %v, want ErrInvalidSettings", err)
		}
	})
}

func TestGenerateIgnoresDivConfWhenExhausted(t *testing.T) {
	// Two 3-team divisions that each need one single division game per team.
	var teams []league.Team
	for tid := 0; tid < 6; tid++ {
		teams = append(teams, league.Team{Tid: tid, Did: tid / 3})
	}
	settings := league.Settings{NumGames: 2, NumGamesDiv: league.Fixed(1), NumGamesPlayoffSeries: []int{3}}

	result, err := Generate(settings, teams, rand.New(rand.NewSource(1)), strategy.DefaultOptions())
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if result.Warning != WarningIgnoredDivConf {
		t.Errorf("warning = %q, want %q", result.Warning, WarningIgnoredDivConf)
	}
	if !result.IgnoredDivConf {
		t.Error("IgnoredDivConf = false, want true")
	}
	if len(result.Games) != 6 {
		t.Errorf("got %d games, want 6", len(result.Games))
	}
	for tid, m := range result.TeamMetrics {
		if m.Levels[strategy.LevelDiv] != (HomeAway{}) {
			t.Errorf("team %d has division games %+v after ignoring divisions", tid, m.Levels[strategy.LevelDiv])
		}
	}
}

func TestGenerateEmptyScheduleWhenSolverFails(t *testing.T) {
	calls := 0
	orig := solve
	solve = func(teams []league.Team, settings league.Settings, ignoreDivConf bool, rng *rand.Rand, opts strategy.Options) ([]league.Matchup, error) {
		calls++
		return nil, strategy.ErrSolverExhausted
	}
	t.Cleanup(func() { solve = orig })

	teams, settings := nbaLeague()
	result, err := Generate(settings, teams, rand.New(rand.NewSource(1)), strategy.DefaultOptions())
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if calls != 2 {
		t.Errorf("solver called %d times, want 2", calls)
	}
	if result.Warning != WarningNoSchedule {
		t.Errorf("warning = %q, want %q", result.Warning, WarningNoSchedule)
	}
	if len(result.Games) != 0 {
		t.Errorf("got %d games, want 0", len(result.Games))
	}
	if got := result.TeamMetrics[0].Games; got != 0 {
		t.Errorf("team 0 has %d games, want 0", got)
	}
}
