package playoffs

import (
	"fmt"
	"sort"

	"github.com/derekprior/leagueplan/internal/league"
)

// Bracket is a freshly seeded playoffs along with who qualified where.
type Bracket struct {
	Series *Series

	// PlayInTids are the teams entering the play-in tournament.
	PlayInTids []int

	// PlayoffTids are the teams that made the bracket outright.
	PlayoffTids []int
}

// GenPlayoffSeries seeds the playoffs from teams already ranked in playoff
// order. Leagues with exactly two conferences get one bracket per
// conference when PlayoffsByConf is set and both conferences have enough
// teams; otherwise one league-wide bracket is built. A play-in tournament
// is added per bracket when enabled and there are two teams beyond the
// cutoff to fill it.
func GenPlayoffSeries(season int, ranked []league.Team, settings league.Settings) (*Bracket, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := league.CheckTeams(ranked); err != nil {
		return nil, err
	}

	groups, byConf := groupTeams(ranked, settings)
	numGroups := len(groups)
	teamsPerGroup := settings.NumPlayoffTeams() / numGroups
	byesPerGroup := settings.NumPlayoffByes / numGroups

	if !byConf && len(ranked) < settings.NumPlayoffTeams() {
		return nil, fmt.Errorf("%w: %d playoff teams needed but the league has %d",
			league.ErrInvalidSettings, settings.NumPlayoffTeams(), len(ranked))
	}

	playIn := settings.PlayIn && teamsPerGroup >= 2
	for _, g := range groups {
		if len(g) < teamsPerGroup+2 {
			playIn = false
		}
	}

	s := &Series{
		Season:           season,
		Rounds:           make([][]Matchup, settings.NumRounds()),
		ByConf:           byConf,
		Reseed:           settings.PlayoffsReseed,
		NumGamesPerRound: append([]int(nil), settings.NumGamesPlayoffSeries...),
	}
	b := &Bracket{Series: s}

	if byConf && teamsPerGroup+byesPerGroup == 1 {
		// One slot per conference: the conference leaders meet in the final,
		// hosted by whoever ranks higher league-wide.
		a, c := groups[0][0], groups[1][0]
		if rankOf(ranked, c.Tid) < rankOf(ranked, a.Tid) {
			a, c = c, a
		}
		s.Rounds[0] = []Matchup{{Home: newSeriesTeam(a, 1), Away: Seeded(newSeriesTeam(c, 1))}}
		b.PlayoffTids = []int{a.Tid, c.Tid}
		return b, nil
	}

	seeds, err := GenSeeds(teamsPerGroup, byesPerGroup)
	if err != nil {
		return nil, err
	}

	for _, g := range groups {
		for _, p := range seeds {
			m := Matchup{Home: slotTeam(g, p.High, teamsPerGroup, playIn)}
			if !p.Bye {
				m.Away = Seeded(slotTeam(g, p.Low, teamsPerGroup, playIn))
			}
			s.Rounds[0] = append(s.Rounds[0], m)
		}

		cutoff := teamsPerGroup
		if playIn {
			cutoff -= 2
			s.PlayIns = append(s.PlayIns, []Matchup{
				{Home: newSeriesTeam(g[cutoff], cutoff+1), Away: Seeded(newSeriesTeam(g[cutoff+1], cutoff+2))},
				{Home: newSeriesTeam(g[cutoff+2], cutoff+3), Away: Seeded(newSeriesTeam(g[cutoff+3], cutoff+4))},
			})
			for _, t := range g[cutoff : cutoff+4] {
				b.PlayInTids = append(b.PlayInTids, t.Tid)
			}
		}
		for _, t := range g[:cutoff] {
			b.PlayoffTids = append(b.PlayoffTids, t.Tid)
		}
	}

	if playIn {
		s.CurrentRound = -1
	}
	return b, nil
}

// slotTeam returns the team holding 0-based seed i of a group. The last two
// slots are placeholders while a play-in is pending.
func slotTeam(group []league.Team, i, teamsPerGroup int, playIn bool) SeriesTeam {
	st := newSeriesTeam(group[i], i+1)
	if playIn && i >= teamsPerGroup-2 {
		st.PendingPlayIn = true
	}
	return st
}

// groupTeams splits the ranked list into one group per bracket. It falls
// back to a single league-wide group unless the league has exactly two
// conferences and each has enough teams for its half of the bracket.
func groupTeams(ranked []league.Team, settings league.Settings) ([][]league.Team, bool) {
	all := [][]league.Team{ranked}
	if !settings.PlayoffsByConf || settings.NumPlayoffByes%2 != 0 {
		return all, false
	}

	byCid := make(map[int][]league.Team)
	var cids []int
	for _, t := range ranked {
		if _, ok := byCid[t.Cid]; !ok {
			cids = append(cids, t.Cid)
		}
		byCid[t.Cid] = append(byCid[t.Cid], t)
	}
	if len(cids) != 2 {
		return all, false
	}
	sort.Ints(cids)

	perConf := settings.NumPlayoffTeams() / 2
	groups := make([][]league.Team, 0, 2)
	for _, cid := range cids {
		if len(byCid[cid]) < perConf {
			return all, false
		}
		groups = append(groups, byCid[cid])
	}
	return groups, true
}

func rankOf(ranked []league.Team, tid int) int {
	for i, t := range ranked {
		if t.Tid == tid {
			return i
		}
	}
	return len(ranked)
}
