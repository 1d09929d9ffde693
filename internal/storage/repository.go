package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/derekprior/leagueplan/internal/league"
	"github.com/derekprior/leagueplan/internal/playoffs"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository reads and writes league data.
type Repository struct {
	q querier
}

var _ playoffs.Store = (*Repository)(nil)

// SaveTeams inserts or updates teams.
func (r *Repository) SaveTeams(ctx context.Context, teams []league.Team) error {
	query := `
		INSERT INTO teams (tid, name, cid, did)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(tid) DO UPDATE SET name = excluded.name, cid = excluded.cid, did = excluded.did
	`
	for _, t := range teams {
		if _, err := r.q.ExecContext(ctx, query, t.Tid, t.Name, t.Cid, t.Did); err != nil {
			return fmt.Errorf("failed to save team %d: %w", t.Tid, err)
		}
	}
	return nil
}

// Teams returns every team ordered by tid.
func (r *Repository) Teams(ctx context.Context) ([]league.Team, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT tid, name, cid, did FROM teams ORDER BY tid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []league.Team
	for rows.Next() {
		var t league.Team
		if err := rows.Scan(&t.Tid, &t.Name, &t.Cid, &t.Did); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// TeamSeason returns a team's season record, or nil if there is none.
func (r *Repository) TeamSeason(ctx context.Context, season, tid int) (*league.TeamSeason, error) {
	query := `
		SELECT season, tid, won, lost, playoff_rounds_won, hype
		FROM team_seasons
		WHERE season = ? AND tid = ?
	`
	ts := &league.TeamSeason{}
	err := r.q.QueryRowContext(ctx, query, season, tid).Scan(
		&ts.Season, &ts.Tid, &ts.Won, &ts.Lost, &ts.PlayoffRoundsWon, &ts.Hype,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query team season: %w", err)
	}
	return ts, nil
}

// TeamSeasons returns every team's record for a season ordered by tid.
func (r *Repository) TeamSeasons(ctx context.Context, season int) ([]league.TeamSeason, error) {
	query := `
		SELECT season, tid, won, lost, playoff_rounds_won, hype
		FROM team_seasons
		WHERE season = ?
		ORDER BY tid
	`
	rows, err := r.q.QueryContext(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("failed to query team seasons: %w", err)
	}
	defer rows.Close()

	var out []league.TeamSeason
	for rows.Next() {
		var ts league.TeamSeason
		if err := rows.Scan(&ts.Season, &ts.Tid, &ts.Won, &ts.Lost, &ts.PlayoffRoundsWon, &ts.Hype); err != nil {
			return nil, fmt.Errorf("failed to scan team season: %w", err)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// SaveTeamSeason inserts or updates a team's season record.
func (r *Repository) SaveTeamSeason(ctx context.Context, ts *league.TeamSeason) error {
	query := `
		INSERT INTO team_seasons (season, tid, won, lost, playoff_rounds_won, hype)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(season, tid) DO UPDATE SET
			won = excluded.won,
			lost = excluded.lost,
			playoff_rounds_won = excluded.playoff_rounds_won,
			hype = excluded.hype
	`
	_, err := r.q.ExecContext(ctx, query, ts.Season, ts.Tid, ts.Won, ts.Lost, ts.PlayoffRoundsWon, ts.Hype)
	if err != nil {
		return fmt.Errorf("failed to save team %d season %d: %w", ts.Tid, ts.Season, err)
	}
	return nil
}

// ReplaceSchedule replaces a season's regular-season schedule.
func (r *Repository) ReplaceSchedule(ctx context.Context, season int, games []league.ScheduleGame) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM schedule WHERE season = ? AND playoffs = 0`, season); err != nil {
		return fmt.Errorf("failed to clear schedule: %w", err)
	}
	return r.insertGames(ctx, season, false, games)
}

// AddPlayoffGames appends one day of playoff games after the last
// scheduled day and returns that day.
func (r *Repository) AddPlayoffGames(ctx context.Context, season int, games []league.Matchup) (int, error) {
	last, err := r.LastDay(ctx, season)
	if err != nil {
		return 0, err
	}
	day := last + 1

	scheduled := make([]league.ScheduleGame, len(games))
	for i, g := range games {
		scheduled[i] = league.ScheduleGame{Home: g.Home, Away: g.Away, Day: day}
	}
	return day, r.insertGames(ctx, season, true, scheduled)
}

func (r *Repository) insertGames(ctx context.Context, season int, playoffGames bool, games []league.ScheduleGame) error {
	query := `INSERT INTO schedule (season, day, home_tid, away_tid, playoffs) VALUES (?, ?, ?, ?, ?)`
	for _, g := range games {
		if _, err := r.q.ExecContext(ctx, query, season, g.Day, g.Home, g.Away, playoffGames); err != nil {
			return fmt.Errorf("failed to insert game: %w", err)
		}
	}
	return nil
}

// Schedule returns a season's games in insertion order.
func (r *Repository) Schedule(ctx context.Context, season int) ([]league.ScheduleGame, error) {
	query := `SELECT day, home_tid, away_tid FROM schedule WHERE season = ? ORDER BY gid`
	rows, err := r.q.QueryContext(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule: %w", err)
	}
	defer rows.Close()

	var games []league.ScheduleGame
	for rows.Next() {
		var g league.ScheduleGame
		if err := rows.Scan(&g.Day, &g.Home, &g.Away); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// LastDay returns the highest scheduled day of a season, or 0.
func (r *Repository) LastDay(ctx context.Context, season int) (int, error) {
	var day sql.NullInt64
	err := r.q.QueryRowContext(ctx, `SELECT MAX(day) FROM schedule WHERE season = ?`, season).Scan(&day)
	if err != nil {
		return 0, fmt.Errorf("failed to query last day: %w", err)
	}
	return int(day.Int64), nil
}

// SavePlayoffSeries stores a season's playoff series.
func (r *Repository) SavePlayoffSeries(ctx context.Context, s *playoffs.Series) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode playoff series: %w", err)
	}
	query := `
		INSERT INTO playoff_series (season, current_round, data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(season) DO UPDATE SET
			current_round = excluded.current_round,
			data = excluded.data,
			updated_at = excluded.updated_at
	`
	if _, err := r.q.ExecContext(ctx, query, s.Season, s.CurrentRound, string(data)); err != nil {
		return fmt.Errorf("failed to save playoff series: %w", err)
	}
	return nil
}

// PlayoffSeries loads a season's playoff series.
func (r *Repository) PlayoffSeries(ctx context.Context, season int) (*playoffs.Series, error) {
	var data string
	err := r.q.QueryRowContext(ctx, `SELECT data FROM playoff_series WHERE season = ?`, season).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("playoff series for season %d: %w", season, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query playoff series: %w", err)
	}

	var s playoffs.Series
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to decode playoff series: %w", err)
	}
	return &s, nil
}
