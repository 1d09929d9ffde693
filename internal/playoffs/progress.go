package playoffs

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/derekprior/leagueplan/internal/league"
	"github.com/derekprior/leagueplan/internal/logging"
)

const hypeBump = 0.05

// Store is the team-season collaborator the engine reads and updates.
// TeamSeason returns nil with no error when the record does not exist.
type Store interface {
	TeamSeason(ctx context.Context, season, tid int) (*league.TeamSeason, error)
	SaveTeamSeason(ctx context.Context, ts *league.TeamSeason) error
}

// DayResult is the outcome of one NewDay call.
type DayResult struct {
	// Games to play today, home team first.
	Games []league.Matchup

	// PlayIn is set when Games are play-in games.
	PlayIn bool

	// Terminal is set once the final is decided; Champion is the winner.
	Terminal bool
	Champion *SeriesTeam
}

// Engine advances a Series one day at a time.
type Engine struct {
	store Store
	log   *logrus.Entry
}

// NewEngine returns an engine backed by store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store, log: logging.WithComponent("playoffs")}
}

// Begin records the starting playoffRoundsWon for a new bracket: 0 for
// teams in the bracket outright, -1 for play-in teams.
func (e *Engine) Begin(ctx context.Context, b *Bracket) error {
	season := b.Series.Season
	for _, tid := range b.PlayoffTids {
		if err := e.setRoundsWon(ctx, season, tid, 0, false); err != nil {
			return err
		}
	}
	for _, tid := range b.PlayInTids {
		if err := e.setRoundsWon(ctx, season, tid, -1, false); err != nil {
			return err
		}
	}
	return nil
}

// NewDay returns the games to play next. Finished play-ins are resolved
// into the bracket and finished rounds advance until some series needs a
// game or the final is decided. Calling it again before new results are
// recorded returns the same games and leaves s unchanged.
func (e *Engine) NewDay(ctx context.Context, s *Series) (*DayResult, error) {
	if s.CurrentRound < 0 {
		if games := s.playInGames(); len(games) > 0 {
			e.log.WithFields(logrus.Fields{"season": s.Season, "games": len(games)}).Debug("Scheduled play-in games")
			return &DayResult{Games: games, PlayIn: true}, nil
		}
		if err := e.resolvePlayIn(ctx, s); err != nil {
			return nil, err
		}
	}

	for {
		r := s.CurrentRound
		if games := s.roundGames(r); len(games) > 0 {
			e.log.WithFields(logrus.Fields{"season": s.Season, "round": r, "games": len(games)}).Debug("Scheduled playoff games")
			return &DayResult{Games: games}, nil
		}

		winners, err := e.closeRound(ctx, s, r)
		if err != nil {
			return nil, err
		}

		if r == s.NumRounds()-1 {
			champion := winners[0]
			e.log.WithFields(logrus.Fields{"season": s.Season, "tid": champion.Tid}).Info("Playoffs complete")
			return &DayResult{Terminal: true, Champion: &champion}, nil
		}

		next, err := e.pairNextRound(ctx, s, winners)
		if err != nil {
			return nil, err
		}
		s.Rounds[r+1] = next
		s.CurrentRound = r + 1
		e.log.WithFields(logrus.Fields{"season": s.Season, "round": r + 1}).Info("Advanced to next playoff round")
	}
}

// playInGames adds the second-chance game to every group whose two
// opening games are decided, then returns all undecided play-in games.
func (s *Series) playInGames() []league.Matchup {
	var games []league.Matchup
	for g := range s.PlayIns {
		group := s.PlayIns[g]
		if len(group) == 2 {
			loser := group[0].loser(1)
			winner := group[1].winner(1)
			if loser != nil && winner != nil {
				home, away := *loser, *winner
				home.Won, home.Pts = 0, nil
				away.Won, away.Pts = 0, nil
				s.PlayIns[g] = append(group, Matchup{Home: home, Away: Seeded(away)})
			}
		}
		for i := range s.PlayIns[g] {
			m := &s.PlayIns[g][i]
			if m.winner(1) == nil {
				games = append(games, league.Matchup{Home: m.Home.Tid, Away: m.Away.team.Tid})
			}
		}
	}
	return games
}

// resolvePlayIn moves play-in winners into the pending bracket slots. The
// first game's winner takes the better slot, the second-chance winner the
// other.
func (e *Engine) resolvePlayIn(ctx context.Context, s *Series) error {
	round := s.Rounds[0]
	perGroup := len(round) / max(len(s.PlayIns), 1)

	for g, group := range s.PlayIns {
		if len(group) != 3 {
			return fmt.Errorf("play-in group %d has %d games, want 3", g, len(group))
		}
		qualifiers := []SeriesTeam{*group[0].winner(1), *group[2].winner(1)}

		var slots []*SeriesTeam
		for i := g * perGroup; i < (g+1)*perGroup; i++ {
			m := &round[i]
			if m.Home.PendingPlayIn {
				slots = append(slots, &m.Home)
			}
			if !m.Away.IsBye() && m.Away.team.PendingPlayIn {
				slots = append(slots, m.Away.team)
			}
		}
		if len(slots) != len(qualifiers) {
			return fmt.Errorf("play-in group %d has %d pending slots, want %d", g, len(slots), len(qualifiers))
		}
		sort.Slice(slots, func(i, j int) bool { return slots[i].Seed < slots[j].Seed })

		for i, q := range qualifiers {
			*slots[i] = SeriesTeam{Tid: q.Tid, Cid: q.Cid, Seed: slots[i].Seed}
			if err := e.setRoundsWon(ctx, s.Season, q.Tid, 0, false); err != nil {
				return err
			}
		}
	}

	s.CurrentRound = 0
	e.log.WithField("season", s.Season).Info("Play-in complete")
	return nil
}

// roundGames returns the next game of every open series that has played
// the fewest games so far, keeping series in step with each other.
func (s *Series) roundGames(r int) []league.Matchup {
	numGames := s.NumGamesPerRound[r]
	toWin := league.NumGamesToWinSeries(numGames)

	minPlayed := -1
	for i := range s.Rounds[r] {
		m := &s.Rounds[r][i]
		if m.winner(toWin) != nil {
			continue
		}
		if minPlayed < 0 || m.played() < minPlayed {
			minPlayed = m.played()
		}
	}
	if minPlayed < 0 {
		return nil
	}

	var games []league.Matchup
	for i := range s.Rounds[r] {
		m := &s.Rounds[r][i]
		if m.winner(toWin) != nil || m.played() != minPlayed {
			continue
		}
		if higherSeedHome(minPlayed, numGames) {
			games = append(games, league.Matchup{Home: m.Home.Tid, Away: m.Away.team.Tid})
		} else {
			games = append(games, league.Matchup{Home: m.Away.team.Tid, Away: m.Home.Tid})
		}
	}
	return games
}

// higherSeedHome reports whether game idx (0-based) of a series is hosted
// by the team with home-court advantage. Games alternate two home, two
// away, except that series of length 4k+3 end home, away, home.
func higherSeedHome(idx, numGames int) bool {
	if numGames%4 == 3 && idx >= numGames-3 {
		return (idx-(numGames-3))%2 == 0
	}
	return (idx/2)%2 == 0
}

// closeRound credits every series winner of round r and returns them in
// bracket order.
func (e *Engine) closeRound(ctx context.Context, s *Series, r int) ([]SeriesTeam, error) {
	toWin := s.numGamesToWin(r)
	winners := make([]SeriesTeam, 0, len(s.Rounds[r]))
	for i := range s.Rounds[r] {
		w := s.Rounds[r][i].winner(toWin)
		if w == nil {
			return nil, fmt.Errorf("round %d series %d is still open", r, i)
		}
		if err := e.setRoundsWon(ctx, s.Season, w.Tid, r+1, true); err != nil {
			return nil, err
		}
		winners = append(winners, *w)
	}
	return winners, nil
}

// pairNextRound builds the next round from the winners. Without reseeding
// neighbours in bracket order meet. With reseeding, winners within each
// conference half are re-paired best against worst.
func (e *Engine) pairNextRound(ctx context.Context, s *Series, winners []SeriesTeam) ([]Matchup, error) {
	final := len(winners) == 2

	var pairs [][2]SeriesTeam
	if reseed(s, len(winners)) {
		halves := [][]SeriesTeam{winners}
		if s.ByConf {
			halves = [][]SeriesTeam{winners[:len(winners)/2], winners[len(winners)/2:]}
		}
		for _, half := range halves {
			sorted := append([]SeriesTeam(nil), half...)
			sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Seed < sorted[j].Seed })
			for i := 0; i < len(sorted)/2; i++ {
				pairs = append(pairs, [2]SeriesTeam{sorted[i], sorted[len(sorted)-1-i]})
			}
		}
	} else {
		for i := 0; i+1 < len(winners); i += 2 {
			pairs = append(pairs, [2]SeriesTeam{winners[i], winners[i+1]})
		}
	}

	next := make([]Matchup, 0, len(pairs))
	for _, p := range pairs {
		home, away := p[0], p[1]
		swap := away.Seed < home.Seed
		if final && s.ByConf {
			var err error
			if swap, err = e.awayHostsFinal(ctx, s.Season, home, away); err != nil {
				return nil, err
			}
		}
		if swap {
			home, away = away, home
		}
		home.Won, home.Pts = 0, nil
		away.Won, away.Pts = 0, nil
		next = append(next, Matchup{Home: home, Away: Seeded(away)})
	}
	return next, nil
}

// reseed reports whether the next round should be re-paired by seed. It
// only matters while a half still holds more than two winners.
func reseed(s *Series, numWinners int) bool {
	return s.Reseed && numWinners > 2
}

// awayHostsFinal decides home court in a conference-vs-conference final:
// the better regular-season record hosts, then the better seed.
func (e *Engine) awayHostsFinal(ctx context.Context, season int, home, away SeriesTeam) (bool, error) {
	h, err := e.teamSeason(ctx, season, home.Tid)
	if err != nil {
		return false, err
	}
	a, err := e.teamSeason(ctx, season, away.Tid)
	if err != nil {
		return false, err
	}
	if h.WinPct() != a.WinPct() {
		return a.WinPct() > h.WinPct(), nil
	}
	return away.Seed < home.Seed, nil
}

func (e *Engine) teamSeason(ctx context.Context, season, tid int) (*league.TeamSeason, error) {
	ts, err := e.store.TeamSeason(ctx, season, tid)
	if err != nil {
		return nil, fmt.Errorf("loading team %d season %d: %w", tid, season, err)
	}
	if ts == nil {
		return nil, fmt.Errorf("%w: team %d season %d", ErrMissingTeamSeason, tid, season)
	}
	return ts, nil
}

// setRoundsWon records playoffRoundsWon for a team. With bump set, hype
// rises too. Already-credited rounds are skipped so repeated calls are
// harmless.
func (e *Engine) setRoundsWon(ctx context.Context, season, tid, roundsWon int, bump bool) error {
	ts, err := e.teamSeason(ctx, season, tid)
	if err != nil {
		return err
	}
	if bump {
		if ts.PlayoffRoundsWon >= roundsWon {
			return nil
		}
		ts.Hype = min(ts.Hype+hypeBump, 1)
	}
	ts.PlayoffRoundsWon = roundsWon
	if err := e.store.SaveTeamSeason(ctx, ts); err != nil {
		return fmt.Errorf("saving team %d season %d: %w", tid, season, err)
	}
	return nil
}
