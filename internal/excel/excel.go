package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/leagueplan/internal/league"
	"github.com/derekprior/leagueplan/internal/playoffs"
)

const (
	ScheduleSheet = "Schedule"
	PlayoffsSheet = "Playoffs"

	AllStarLabel       = "All-Star Game"
	TradeDeadlineLabel = "Trade Deadline"
	ByeLabel           = "BYE"
)

// Generate creates a workbook with the league schedule and one sheet per
// team.
func Generate(teams []league.Team, games []league.ScheduleGame) (*excelize.File, error) {
	for _, t := range teams {
		if strings.EqualFold(t.Name, ScheduleSheet) || strings.EqualFold(t.Name, PlayoffsSheet) {
			return nil, fmt.Errorf("team name %q collides with a sheet name", t.Name)
		}
	}

	f := excelize.NewFile()

	// Set default font for the workbook
	f.SetDefaultFont("Arial")

	byTid := league.TeamsByTid(teams)

	if err := writeScheduleSheet(f, byTid, games); err != nil {
		return nil, fmt.Errorf("writing schedule sheet: %w", err)
	}

	if err := writeTeamSheets(f, teams, byTid, games); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

func writeScheduleSheet(f *excelize.File, byTid map[int]league.Team, games []league.ScheduleGame) error {
	sheet := ScheduleSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Day", "Away", "Home"}
	writeHeaders(f, sheet, headers)

	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 16, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, g := range games {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), g.Day)
		switch {
		case g.IsAllStar():
			f.SetCellValue(sheet, cellRef(2, row), AllStarLabel)
		case g.IsTradeDeadline():
			f.SetCellValue(sheet, cellRef(2, row), TradeDeadlineLabel)
		default:
			f.SetCellValue(sheet, cellRef(2, row), teamName(byTid, g.Away))
			f.SetCellValue(sheet, cellRef(3, row), teamName(byTid, g.Home))
		}
		if cellStyle != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(headers), row), cellStyle)
		}
	}

	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "C", 28)

	// Highlight placeholder rows, which leave Home empty.
	if len(games) > 0 {
		lastRow := len(games) + 1
		fill, _ := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFEB9C"}},
			Font: &excelize.Font{Size: 16, Family: "Arial"},
		})
		f.SetConditionalFormat(sheet, fmt.Sprintf("A2:C%d", lastRow), []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: `$C2=""`,
				Format:   &fill,
			},
		})
	}

	return nil
}

func writeTeamSheets(f *excelize.File, teams []league.Team, byTid map[int]league.Team, games []league.ScheduleGame) error {
	for _, team := range teams {
		sheet := team.Name
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet for %s: %w", team.Name, err)
		}

		headers := []string{"Day", "Opponent", "Home/Away"}
		writeHeaders(f, sheet, headers)

		cellStyle, _ := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Size: 16, Family: "Arial"},
		})

		row := 2
		for _, g := range games {
			var opponent, homeAway string
			switch {
			case g.IsSpecial():
				continue
			case g.Home == team.Tid:
				opponent, homeAway = teamName(byTid, g.Away), "Home"
			case g.Away == team.Tid:
				opponent, homeAway = teamName(byTid, g.Home), "Away"
			default:
				continue
			}
			f.SetCellValue(sheet, cellRef(1, row), g.Day)
			f.SetCellValue(sheet, cellRef(2, row), opponent)
			f.SetCellValue(sheet, cellRef(3, row), homeAway)
			if cellStyle != 0 {
				f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(headers), row), cellStyle)
			}
			row++
		}

		widths := map[string]float64{"A": 8, "B": 28, "C": 14}
		for col, w := range widths {
			f.SetColWidth(sheet, col, col, w)
		}
	}

	return nil
}

// WriteBracket adds (or replaces) a Playoffs sheet showing every play-in
// game and bracket round of s.
func WriteBracket(f *excelize.File, teams []league.Team, s *playoffs.Series) error {
	sheet := PlayoffsSheet
	if idx, _ := f.GetSheetIndex(sheet); idx >= 0 {
		if err := f.DeleteSheet(sheet); err != nil {
			return err
		}
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Round", "Seed", "Team", "Wins", "Seed", "Team", "Wins"}
	writeHeaders(f, sheet, headers)

	byTid := league.TeamsByTid(teams)
	row := 2
	write := func(label string, m playoffs.Matchup) {
		f.SetCellValue(sheet, cellRef(1, row), label)
		writeSide(f, sheet, row, 2, byTid, &m.Home)
		if m.Away.IsBye() {
			f.SetCellValue(sheet, cellRef(6, row), ByeLabel)
		} else {
			writeSide(f, sheet, row, 5, byTid, m.Away.Team())
		}
		row++
	}

	for _, group := range s.PlayIns {
		for _, m := range group {
			write("Play-In", m)
		}
	}
	for r, round := range s.Rounds {
		for _, m := range round {
			write(roundName(r, s.NumRounds()), m)
		}
	}

	widths := map[string]float64{"A": 18, "B": 8, "C": 28, "D": 8, "E": 8, "F": 28, "G": 8}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

func writeSide(f *excelize.File, sheet string, row, col int, byTid map[int]league.Team, t *playoffs.SeriesTeam) {
	f.SetCellValue(sheet, cellRef(col, row), t.Seed)
	name := teamName(byTid, t.Tid)
	if t.PendingPlayIn {
		name = "Play-In Winner"
	}
	f.SetCellValue(sheet, cellRef(col+1, row), name)
	f.SetCellValue(sheet, cellRef(col+2, row), t.Won)
}

func roundName(r, numRounds int) string {
	switch numRounds - r {
	case 1:
		return "Finals"
	case 2:
		return "Semifinals"
	}
	return fmt.Sprintf("Round %d", r+1)
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 16, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if headerStyle != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), headerStyle)
	}
}

func teamName(byTid map[int]league.Team, tid int) string {
	if t, ok := byTid[tid]; ok {
		return t.Name
	}
	return fmt.Sprintf("Team %d", tid)
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
