// Package charts renders schedule statistics as interactive HTML charts.
package charts

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/derekprior/leagueplan/internal/league"
	"github.com/derekprior/leagueplan/internal/schedule"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title    string
	Subtitle string
	Width    string // e.g. "900px"
	Height   string
	Theme    string
	Colors   []string
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:  "1200px",
		Height: "500px",
		Theme:  "light",
		Colors: []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666"},
	}
}

// DayCount is the number of real games played on one day.
type DayCount struct {
	Day   int
	Games int
}

// GamesPerDay counts real games per day in day order. Days holding only
// a placeholder are included with zero games.
func GamesPerDay(games []league.ScheduleGame) []DayCount {
	counts := make(map[int]int)
	for _, g := range games {
		if !g.IsSpecial() {
			counts[g.Day]++
		} else if _, ok := counts[g.Day]; !ok {
			counts[g.Day] = 0
		}
	}

	out := make([]DayCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, DayCount{Day: day, Games: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// RenderDayDensity writes a bar chart of games per day to outputPath.
func RenderDayDensity(games []league.ScheduleGame, config ChartConfig, outputPath string) error {
	if config.Title == "" {
		config.Title = "Games per day"
	}

	bar := newBar(config)

	days := GamesPerDay(games)
	xLabels := make([]string, len(days))
	yData := make([]opts.BarData, len(days))
	for i, d := range days {
		xLabels[i] = strconv.Itoa(d.Day)
		yData[i] = opts.BarData{Value: d.Games}
	}

	bar.SetXAxis(xLabels).
		AddSeries("Games", yData).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	return render(bar, outputPath)
}

// RenderHomeAway writes a stacked bar chart of each team's home and away
// games to outputPath.
func RenderHomeAway(teams []league.Team, metrics map[int]*schedule.TeamMetrics, config ChartConfig, outputPath string) error {
	if config.Title == "" {
		config.Title = "Home and away games"
	}

	bar := newBar(config)

	xLabels := make([]string, len(teams))
	home := make([]opts.BarData, len(teams))
	away := make([]opts.BarData, len(teams))
	for i, t := range teams {
		xLabels[i] = t.Name
		var h, a int
		if m, ok := metrics[t.Tid]; ok {
			h, a = m.Home, m.Away
		}
		home[i] = opts.BarData{Value: h}
		away[i] = opts.BarData{Value: a}
	}

	bar.SetXAxis(xLabels).
		AddSeries("Home", home).
		AddSeries("Away", away).
		SetSeriesOptions(
			charts.WithBarChartOpts(opts.BarChart{
				Stack: "games",
			}),
		)

	return render(bar, outputPath)
}

func newBar(config ChartConfig) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
		charts.WithColorsOpts(opts.Colors(config.Colors)),
	)
	return bar
}

func render(bar *charts.Bar, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := bar.Render(f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
