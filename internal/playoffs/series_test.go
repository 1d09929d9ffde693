package playoffs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekprior/leagueplan/internal/league"
)

// rankedTeams returns n teams in playoff order, alternating conferences.
func rankedTeams(n int) []league.Team {
	teams := make([]league.Team, n)
	for i := range teams {
		teams[i] = league.Team{Tid: i, Cid: i % 2, Did: i % 4}
	}
	return teams
}

func playoffSettings(rounds ...int) league.Settings {
	return league.Settings{NumGames: 82, NumGamesPlayoffSeries: rounds}
}

func tids(ms []Matchup) [][2]int {
	out := make([][2]int, len(ms))
	for i, m := range ms {
		away := -1
		if !m.Away.IsBye() {
			away = m.Away.Team().Tid
		}
		out[i] = [2]int{m.Home.Tid, away}
	}
	return out
}

func TestGenPlayoffSeriesLeagueWide(t *testing.T) {
	b, err := GenPlayoffSeries(2025, rankedTeams(20), playoffSettings(7, 7, 7, 7))
	require.NoError(t, err)

	s := b.Series
	assert.Equal(t, 0, s.CurrentRound)
	assert.False(t, s.ByConf)
	assert.Len(t, s.Rounds, 4)
	assert.Empty(t, s.PlayIns)
	assert.Len(t, b.PlayoffTids, 16)
	assert.Empty(t, b.PlayInTids)

	assert.Equal(t, [][2]int{
		{0, 15}, {7, 8}, {4, 11}, {3, 12}, {2, 13}, {5, 10}, {6, 9}, {1, 14},
	}, tids(s.Rounds[0]))

	for _, m := range s.Rounds[0] {
		assert.Equal(t, 17, m.Home.Seed+m.Away.Team().Seed)
		assert.Less(t, m.Home.Seed, m.Away.Team().Seed)
	}
	for _, r := range s.Rounds[1:] {
		assert.Empty(t, r)
	}
}

func TestGenPlayoffSeriesByConf(t *testing.T) {
	settings := playoffSettings(7, 7, 7)
	settings.PlayoffsByConf = true

	b, err := GenPlayoffSeries(2025, rankedTeams(16), settings)
	require.NoError(t, err)

	s := b.Series
	require.True(t, s.ByConf)
	// Conference 0 holds tids 0,2,4,6 as seeds 1-4; conference 1 tids 1,3,5,7.
	assert.Equal(t, [][2]int{{0, 6}, {2, 4}, {1, 7}, {3, 5}}, tids(s.Rounds[0]))
	for i, m := range s.Rounds[0] {
		assert.Equal(t, i/2, m.Home.Cid)
		assert.Equal(t, m.Home.Cid, m.Away.Team().Cid)
		assert.Equal(t, 5, m.Home.Seed+m.Away.Team().Seed)
	}
}

func TestGenPlayoffSeriesByConfFallsBack(t *testing.T) {
	settings := playoffSettings(7, 7, 7)
	settings.PlayoffsByConf = true

	teams := rankedTeams(8)
	// Conference 1 is left with a single team.
	for i := range teams {
		if i >= 2 {
			teams[i].Cid = 0
		}
	}

	b, err := GenPlayoffSeries(2025, teams, settings)
	require.NoError(t, err)
	assert.False(t, b.Series.ByConf)
	assert.Equal(t, [][2]int{{0, 7}, {3, 4}, {2, 5}, {1, 6}}, tids(b.Series.Rounds[0]))
}

func TestGenPlayoffSeriesConferenceFinalOnly(t *testing.T) {
	settings := playoffSettings(7)
	settings.PlayoffsByConf = true

	teams := []league.Team{
		{Tid: 5, Cid: 1}, {Tid: 2, Cid: 0}, {Tid: 9, Cid: 1}, {Tid: 4, Cid: 0},
	}
	b, err := GenPlayoffSeries(2025, teams, settings)
	require.NoError(t, err)

	require.Len(t, b.Series.Rounds[0], 1)
	m := b.Series.Rounds[0][0]
	assert.Equal(t, 5, m.Home.Tid)
	assert.Equal(t, 2, m.Away.Team().Tid)
	assert.Equal(t, 1, m.Home.Seed)
	assert.Equal(t, 1, m.Away.Team().Seed)
	assert.ElementsMatch(t, []int{5, 2}, b.PlayoffTids)
}

func TestGenPlayoffSeriesByes(t *testing.T) {
	settings := playoffSettings(7, 7, 7)
	settings.NumPlayoffByes = 2

	b, err := GenPlayoffSeries(2025, rankedTeams(10), settings)
	require.NoError(t, err)

	round := b.Series.Rounds[0]
	require.Len(t, round, 4)
	assert.Equal(t, [][2]int{{0, -1}, {3, 4}, {2, 5}, {1, -1}}, tids(round))
	assert.Len(t, b.PlayoffTids, 6)
}

func TestGenPlayoffSeriesPlayIn(t *testing.T) {
	settings := playoffSettings(7, 7, 7)
	settings.PlayIn = true

	b, err := GenPlayoffSeries(2025, rankedTeams(12), settings)
	require.NoError(t, err)

	s := b.Series
	assert.Equal(t, -1, s.CurrentRound)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, b.PlayoffTids)
	assert.Equal(t, []int{6, 7, 8, 9}, b.PlayInTids)

	require.Len(t, s.PlayIns, 1)
	assert.Equal(t, [][2]int{{6, 7}, {8, 9}}, tids(s.PlayIns[0]))
	assert.Equal(t, 7, s.PlayIns[0][0].Home.Seed)
	assert.Equal(t, 10, s.PlayIns[0][1].Away.Team().Seed)

	var pending []int
	for _, m := range s.Rounds[0] {
		if m.Home.PendingPlayIn {
			pending = append(pending, m.Home.Seed)
		}
		if m.Away.Team().PendingPlayIn {
			pending = append(pending, m.Away.Team().Seed)
		}
	}
	assert.ElementsMatch(t, []int{7, 8}, pending)
}

func TestGenPlayoffSeriesPlayInSkippedWithoutTeams(t *testing.T) {
	settings := playoffSettings(7, 7, 7)
	settings.PlayIn = true

	b, err := GenPlayoffSeries(2025, rankedTeams(9), settings)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Series.CurrentRound)
	assert.Empty(t, b.Series.PlayIns)
	assert.Len(t, b.PlayoffTids, 8)
}

func TestGenPlayoffSeriesErrors(t *testing.T) {
	_, err := GenPlayoffSeries(2025, rankedTeams(6), playoffSettings(7, 7, 7))
	assert.ErrorIs(t, err, league.ErrInvalidSettings)

	settings := playoffSettings(7)
	settings.NumPlayoffByes = 1
	_, err = GenPlayoffSeries(2025, rankedTeams(6), settings)
	assert.ErrorIs(t, err, league.ErrInvalidSettings)
}

func TestSeriesJSON(t *testing.T) {
	settings := playoffSettings(7, 7, 7)
	settings.NumPlayoffByes = 2
	b, err := GenPlayoffSeries(2025, rankedTeams(6), settings)
	require.NoError(t, err)

	data, err := json.Marshal(b.Series)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"away":null`)

	var decoded Series
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, b.Series, &decoded)
	assert.True(t, decoded.Rounds[0][0].Away.IsBye())
}

func TestRecordResult(t *testing.T) {
	b, err := GenPlayoffSeries(2025, rankedTeams(4), playoffSettings(3, 3))
	require.NoError(t, err)
	s := b.Series

	require.NoError(t, s.RecordResult(3, 0, 101, 99))
	m := s.Rounds[0][0]
	assert.Equal(t, 0, m.Home.Won)
	assert.Equal(t, 1, m.Away.Team().Won)
	require.NotNil(t, m.Away.Team().Pts)
	assert.Equal(t, 101, *m.Away.Team().Pts)
	assert.Equal(t, 99, *m.Home.Pts)

	assert.Error(t, s.RecordResult(0, 3, 100, 100))
	assert.ErrorIs(t, s.RecordResult(0, 1, 100, 90), ErrNoSuchGame)

	require.NoError(t, s.RecordResult(3, 0, 90, 80))
	// Series over at 2-0.
	assert.ErrorIs(t, s.RecordResult(0, 3, 100, 90), ErrNoSuchGame)
}
