package validator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/leagueplan/internal/excel"
	"github.com/derekprior/leagueplan/internal/league"
)

// Violation represents a problem found during validation.
type Violation struct {
	Row     int
	Type    string // "error" or "warning"
	Message string
}

// Validate reads a schedule workbook and checks it against the league's
// teams and settings.
func Validate(teams []league.Team, settings league.Settings, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	games, violations, err := readGames(f, teams)
	if err != nil {
		return nil, fmt.Errorf("reading games: %w", err)
	}

	if len(games) == 0 {
		return append(violations, Violation{
			Type:    "warning",
			Message: "schedule has no games",
		}), nil
	}

	violations = append(violations, checkSelfPlay(games)...)
	violations = append(violations, checkDayOrder(games)...)
	violations = append(violations, checkOncePerDay(games)...)
	violations = append(violations, checkHomeAwayBalance(teams, games)...)
	violations = append(violations, checkGameCounts(teams, settings, games)...)

	return violations, nil
}

type parsedGame struct {
	Row  int
	Day  int
	Home string
	Away string
}

// readGames parses the Schedule sheet. Placeholder rows are skipped;
// malformed rows and unknown teams are reported as violations.
func readGames(f *excelize.File, teams []league.Team) ([]parsedGame, []Violation, error) {
	rows, err := f.GetRows(excel.ScheduleSheet)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", excel.ScheduleSheet, err)
	}

	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s sheet is empty", excel.ScheduleSheet)
	}

	known := make(map[string]bool, len(teams))
	for _, t := range teams {
		known[t.Name] = true
	}

	var games []parsedGame
	var violations []Violation
	for i, row := range rows {
		if i == 0 || len(row) == 0 || row[0] == "" {
			continue
		}
		rowNum := i + 1

		day, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil || day < 1 {
			violations = append(violations, Violation{
				Row:     rowNum,
				Type:    "error",
				Message: fmt.Sprintf("invalid day %q", row[0]),
			})
			continue
		}

		away, home := cell(row, 1), cell(row, 2)
		if home == "" && (away == excel.AllStarLabel || away == excel.TradeDeadlineLabel) {
			continue
		}

		ok := true
		for _, name := range []string{away, home} {
			if !known[name] {
				violations = append(violations, Violation{
					Row:     rowNum,
					Type:    "error",
					Message: fmt.Sprintf("unknown team %q on day %d", name, day),
				})
				ok = false
			}
		}
		if ok {
			games = append(games, parsedGame{Row: rowNum, Day: day, Home: home, Away: away})
		}
	}

	return games, violations, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func checkSelfPlay(games []parsedGame) []Violation {
	var violations []Violation
	for _, g := range games {
		if g.Home == g.Away {
			violations = append(violations, Violation{
				Row:     g.Row,
				Type:    "error",
				Message: fmt.Sprintf("%s plays itself on day %d", g.Home, g.Day),
			})
		}
	}
	return violations
}

func checkDayOrder(games []parsedGame) []Violation {
	for i := 1; i < len(games); i++ {
		if games[i].Day < games[i-1].Day {
			return []Violation{{
				Row:     games[i].Row,
				Type:    "warning",
				Message: fmt.Sprintf("day %d listed after day %d", games[i].Day, games[i-1].Day),
			}}
		}
	}
	return nil
}

func checkOncePerDay(games []parsedGame) []Violation {
	type teamDay struct {
		team string
		day  int
	}
	counts := make(map[teamDay][]int)
	for _, g := range games {
		counts[teamDay{g.Home, g.Day}] = append(counts[teamDay{g.Home, g.Day}], g.Row)
		if g.Away != g.Home {
			counts[teamDay{g.Away, g.Day}] = append(counts[teamDay{g.Away, g.Day}], g.Row)
		}
	}

	var violations []Violation
	for td, rows := range counts {
		if len(rows) > 1 {
			violations = append(violations, Violation{
				Row:     rows[1],
				Type:    "error",
				Message: fmt.Sprintf("%s plays %d games on day %d", td.team, len(rows), td.day),
			})
		}
	}
	sortByRow(violations)
	return violations
}

func checkHomeAwayBalance(teams []league.Team, games []parsedGame) []Violation {
	home := make(map[string]int)
	away := make(map[string]int)
	for _, g := range games {
		home[g.Home]++
		away[g.Away]++
	}

	var violations []Violation
	for _, t := range teams {
		h, a := home[t.Name], away[t.Name]
		if h-a > 1 || a-h > 1 {
			violations = append(violations, Violation{
				Type:    "error",
				Message: fmt.Sprintf("%s has %d home and %d away games", t.Name, h, a),
			})
		}
	}
	return violations
}

func checkGameCounts(teams []league.Team, settings league.Settings, games []parsedGame) []Violation {
	counts := make(map[string]int)
	for _, g := range games {
		counts[g.Home]++
		counts[g.Away]++
	}

	// With an odd number of team-games, one team is necessarily a game short.
	allowShort := len(teams)*settings.NumGames%2 == 1

	var violations []Violation
	for _, t := range teams {
		n := counts[t.Name]
		if allowShort && n == settings.NumGames-1 {
			allowShort = false
			continue
		}
		if n != settings.NumGames {
			violations = append(violations, Violation{
				Type:    "error",
				Message: fmt.Sprintf("%s has %d games scheduled, want %d", t.Name, n, settings.NumGames),
			})
		}
	}

	if want := len(teams) * settings.NumGames / 2; len(games) != want {
		violations = append(violations, Violation{
			Type:    "error",
			Message: fmt.Sprintf("schedule has %d games, want %d", len(games), want),
		})
	}
	return violations
}

func sortByRow(violations []Violation) {
	sort.Slice(violations, func(i, j int) bool {
		return violations[i].Row < violations[j].Row
	})
}
