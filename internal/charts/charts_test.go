package charts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekprior/leagueplan/internal/league"
	"github.com/derekprior/leagueplan/internal/schedule"
)

func TestGamesPerDay(t *testing.T) {
	games := []league.ScheduleGame{
		{Home: 0, Away: 1, Day: 1},
		{Home: 2, Away: 3, Day: 1},
		{Home: league.AllStarHomeTid, Away: league.AllStarAwayTid, Day: 2},
		{Home: 1, Away: 2, Day: 3},
	}

	assert.Equal(t, []DayCount{{Day: 1, Games: 2}, {Day: 2, Games: 0}, {Day: 3, Games: 1}}, GamesPerDay(games))
	assert.Empty(t, GamesPerDay(nil))
}

func TestRenderDayDensity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "density.html")
	games := []league.ScheduleGame{{Home: 0, Away: 1, Day: 1}, {Home: 1, Away: 0, Day: 2}}

	require.NoError(t, RenderDayDensity(games, DefaultChartConfig(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Games per day")
}

func TestRenderHomeAway(t *testing.T) {
	path := filepath.Join(t.TempDir(), "home-away.html")
	teams := []league.Team{{Tid: 0, Name: "Angels"}, {Tid: 1, Name: "Astros"}}
	metrics := map[int]*schedule.TeamMetrics{0: {Games: 2, Home: 1, Away: 1}}

	require.NoError(t, RenderHomeAway(teams, metrics, DefaultChartConfig(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Astros")
}

func TestRenderBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "chart.html")
	assert.Error(t, RenderDayDensity(nil, DefaultChartConfig(), path))
}
