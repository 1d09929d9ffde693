// Package league holds the entities shared by the regular-season and playoff
// pipelines: teams, matchups, scheduled games and the numeric settings that
// drive both.
package league

import "fmt"

// Sentinel team IDs for schedule entries that are not real games.
const (
	AllStarHomeTid   = -1
	AllStarAwayTid   = -2
	TradeDeadlineTid = -3
)

// Team is a franchise as seen by the scheduler. Conference and division are
// per-season attributes.
type Team struct {
	Tid  int
	Cid  int
	Did  int
	Name string
}

// Matchup is an ordered (home, away) pair.
type Matchup struct {
	Home int
	Away int
}

// ScheduleGame is a matchup placed on a 1-based day.
type ScheduleGame struct {
	Home int
	Away int
	Day  int
}

// IsAllStar reports whether the entry is the all-star game placeholder.
func (g ScheduleGame) IsAllStar() bool {
	return g.Home == AllStarHomeTid && g.Away == AllStarAwayTid
}

// IsTradeDeadline reports whether the entry is the trade deadline placeholder.
func (g ScheduleGame) IsTradeDeadline() bool {
	return g.Home == TradeDeadlineTid && g.Away == TradeDeadlineTid
}

// IsSpecial reports whether the entry is a placeholder rather than a game
// between two teams.
func (g ScheduleGame) IsSpecial() bool {
	return g.Home < 0 || g.Away < 0
}

// TeamSeason is the per-season record the playoff engine reads and updates.
type TeamSeason struct {
	Season           int
	Tid              int
	Won              int
	Lost             int
	PlayoffRoundsWon int
	Hype             float64
}

// WinPct returns the regular-season winning percentage, or 0 before any games.
func (ts TeamSeason) WinPct() float64 {
	gp := ts.Won + ts.Lost
	if gp == 0 {
		return 0
	}
	return float64(ts.Won) / float64(gp)
}

// TeamsByTid indexes teams by ID.
func TeamsByTid(teams []Team) map[int]Team {
	m := make(map[int]Team, len(teams))
	for _, t := range teams {
		m[t.Tid] = t
	}
	return m
}

// CheckTeams rejects duplicate or negative team IDs.
func CheckTeams(teams []Team) error {
	seen := make(map[int]bool, len(teams))
	for _, t := range teams {
		if t.Tid < 0 {
			return fmt.Errorf("%w: team %q has negative id %d", ErrInvalidSettings, t.Name, t.Tid)
		}
		if seen[t.Tid] {
			return fmt.Errorf("%w: duplicate team id %d", ErrInvalidSettings, t.Tid)
		}
		seen[t.Tid] = true
	}
	return nil
}
