package schedule

import (
	"math"
	"math/rand"

	"github.com/derekprior/leagueplan/internal/league"
)

// day is one bin of games in which no team appears twice.
type day struct {
	games []league.Matchup
	busy  map[int]bool
}

func (d *day) fits(m league.Matchup) bool {
	return !d.busy[m.Home] && !d.busy[m.Away]
}

func (d *day) add(m league.Matchup) {
	d.games = append(d.games, m)
	d.busy[m.Home] = true
	d.busy[m.Away] = true
}

// PackDays places matchups on days so that no team plays twice on the same
// day. Matchups are shuffled and first-fit into day bins, then the bins are
// shuffled so the schedule is not front-loaded. Days are numbered from 1.
func PackDays(matchups []league.Matchup, rng *rand.Rand) []league.ScheduleGame {
	shuffled := make([]league.Matchup, len(matchups))
	copy(shuffled, matchups)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var days []*day
	for _, m := range shuffled {
		placed := false
		for _, d := range days {
			if d.fits(m) {
				d.add(m)
				placed = true
				break
			}
		}
		if !placed {
			d := &day{busy: make(map[int]bool)}
			d.add(m)
			days = append(days, d)
		}
	}

	rng.Shuffle(len(days), func(i, j int) {
		days[i], days[j] = days[j], days[i]
	})

	games := make([]league.ScheduleGame, 0, len(matchups))
	for i, d := range days {
		for _, m := range d.games {
			games = append(games, league.ScheduleGame{Home: m.Home, Away: m.Away, Day: i + 1})
		}
	}
	return games
}

// InsertSpecialDays splices the all-star game and trade deadline
// placeholders into a packed schedule. Each placeholder gets a day of its
// own; later days shift back by one.
func InsertSpecialDays(games []league.ScheduleGame, settings league.Settings) []league.ScheduleGame {
	numGames := 0
	for _, g := range games {
		if !g.IsSpecial() {
			numGames++
		}
	}
	if numGames == 0 {
		return games
	}

	if settings.TradeDeadline > 0 {
		games = insertSpecialDay(games, settings.TradeDeadline, numGames,
			league.ScheduleGame{Home: league.TradeDeadlineTid, Away: league.TradeDeadlineTid})
	}
	if settings.AllStarGame > 0 {
		games = insertSpecialDay(games, settings.AllStarGame, numGames,
			league.ScheduleGame{Home: league.AllStarHomeTid, Away: league.AllStarAwayTid})
	}
	return games
}

// insertSpecialDay places special at the day boundary at or before the
// game with index round(fraction * numGames), counting real games only.
func insertSpecialDay(games []league.ScheduleGame, fraction float64, numGames int, special league.ScheduleGame) []league.ScheduleGame {
	target := int(math.Round(fraction * float64(numGames)))

	idx := len(games)
	seen := 0
	for i, g := range games {
		if g.IsSpecial() {
			continue
		}
		if seen == target {
			idx = i
			break
		}
		seen++
	}

	if idx == len(games) {
		special.Day = games[len(games)-1].Day + 1
		return append(games, special)
	}

	special.Day = games[idx].Day
	for idx > 0 && games[idx-1].Day == special.Day {
		idx--
	}

	out := make([]league.ScheduleGame, 0, len(games)+1)
	out = append(out, games[:idx]...)
	out = append(out, special)
	for _, g := range games[idx:] {
		g.Day++
		out = append(out, g)
	}
	return out
}
