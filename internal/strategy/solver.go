package strategy

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/derekprior/leagueplan/internal/league"
)

var (
	// ErrSolverExhausted means every randomized attempt failed. The caller
	// may retry with relaxed constraints.
	ErrSolverExhausted = errors.New("schedule solver exhausted its retries")

	// ErrInfeasible means the quotas cannot be satisfied by any assignment,
	// for example when two divisions of different sizes owe each other a
	// different number of games.
	ErrInfeasible = errors.New("schedule quotas are infeasible")
)

// Options bounds the randomized search.
type Options struct {
	// MaxOuterIterations caps restarts of excess-game matching.
	MaxOuterIterations int
	// MaxInnerIterations caps home/away assignment restarts per outer iteration.
	MaxInnerIterations int
}

// DefaultOptions returns the standard 1000 x 1000 retry budget.
func DefaultOptions() Options {
	return Options{MaxOuterIterations: 1000, MaxInnerIterations: 1000}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxOuterIterations <= 0 {
		o.MaxOuterIterations = d.MaxOuterIterations
	}
	if o.MaxInnerIterations <= 0 {
		o.MaxInnerIterations = d.MaxInnerIterations
	}
	return o
}

// pairing is a required game whose home team is not decided yet.
type pairing struct {
	a, b  int
	level Level
}

type game struct {
	home, away int
	level      Level
}

type solver struct {
	teams []league.Team // sorted by tid; all indices below refer to this slice
	level [][]Level
	quota []Quota
	rng   *rand.Rand
	opts  Options

	fixed     []game
	required  []pairing
	allowance int // games that may go unmatched when the league total is odd
}

// Solve assigns concrete home/away matchups so that every team meets its
// division, conference and other quotas with balanced home and away games.
// With ignoreDivConf set every opponent is treated as "other".
func Solve(teams []league.Team, settings league.Settings, ignoreDivConf bool, rng *rand.Rand, opts Options) ([]league.Matchup, error) {
	if err := league.CheckTeams(teams); err != nil {
		return nil, err
	}
	if len(teams) < 2 {
		return nil, fmt.Errorf("%w: at least two teams are required, got %d", league.ErrInvalidSettings, len(teams))
	}

	quotas, err := CalculateQuotas(teams, settings, ignoreDivConf)
	if err != nil {
		return nil, err
	}

	s := newSolver(teams, quotas, NewGrouping(settings, ignoreDivConf), rng, opts.withDefaults())
	if err := s.checkSymmetry(); err != nil {
		return nil, err
	}
	s.assignGuaranteed()

	for outer := 0; outer < s.opts.MaxOuterIterations; outer++ {
		extra, ok := s.matchExcess()
		if !ok {
			continue
		}
		if games, ok := s.balanceHomeAway(extra); ok {
			return s.matchups(games), nil
		}
	}

	return nil, fmt.Errorf("%w: no valid schedule after %d attempts", ErrSolverExhausted, s.opts.MaxOuterIterations)
}

func newSolver(teams []league.Team, quotas map[int]Quota, grouping Grouping, rng *rand.Rand, opts Options) *solver {
	sorted := make([]league.Team, len(teams))
	copy(sorted, teams)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Tid < sorted[j].Tid })

	n := len(sorted)
	s := &solver{
		teams: sorted,
		level: make([][]Level, n),
		quota: make([]Quota, n),
		rng:   rng,
		opts:  opts,
	}

	totalExcess := 0
	for i, t := range sorted {
		s.quota[i] = quotas[t.Did]
		s.level[i] = make([]Level, n)
		for j, o := range sorted {
			if i != j {
				s.level[i][j] = grouping.LevelOf(t, o)
			}
		}
		for _, level := range allLevels {
			totalExcess += s.quota[i][level].Excess
		}
	}
	s.allowance = totalExcess % 2

	return s
}

// checkSymmetry rejects leagues where two teams disagree on how many games
// they owe each other.
func (s *solver) checkSymmetry() error {
	for i := range s.teams {
		for j := i + 1; j < len(s.teams); j++ {
			level := s.level[i][j]
			if s.quota[i][level].PerTeam != s.quota[j][level].PerTeam {
				return fmt.Errorf("%w: team %d owes team %d %d %s games but is owed %d",
					ErrInfeasible, s.teams[i].Tid, s.teams[j].Tid,
					s.quota[i][level].PerTeam, level, s.quota[j][level].PerTeam)
			}
		}
	}
	return nil
}

// assignGuaranteed emits floor(perTeam/2) home games against every opponent
// and one undirected game per pair when perTeam is odd. The undirected game
// is registered on the lower-ID team only.
func (s *solver) assignGuaranteed() {
	for i := range s.teams {
		for j := range s.teams {
			if i == j {
				continue
			}
			level := s.level[i][j]
			perTeam := s.quota[i][level].PerTeam
			for k := 0; k < perTeam/2; k++ {
				s.fixed = append(s.fixed, game{home: i, away: j, level: level})
			}
			if i < j && perTeam%2 == 1 {
				s.required = append(s.required, pairing{a: i, b: j, level: level})
			}
		}
	}
}

// matchExcess pairs up excess games within each group. Partners are picked
// among the opponents with the most remaining need, ties broken randomly, and
// two teams never share more than one excess game.
func (s *solver) matchExcess() ([]pairing, bool) {
	n := len(s.teams)
	need := make([][NumLevels]int, n)
	for i := range need {
		for _, level := range allLevels {
			need[i][level] = s.quota[i][level].Excess
		}
	}

	paired := make(map[[2]int]bool)
	allowance := s.allowance
	var extra []pairing

	for _, i := range s.rng.Perm(n) {
		for _, level := range allLevels {
			for need[i][level] > 0 {
				best, bestNeed, ties := -1, 0, 0
				for j := 0; j < n; j++ {
					if j == i || s.level[i][j] != level || need[j][level] == 0 || paired[pairKey(i, j)] {
						continue
					}
					switch {
					case need[j][level] > bestNeed:
						best, bestNeed, ties = j, need[j][level], 1
					case need[j][level] == bestNeed:
						ties++
						if s.rng.Intn(ties) == 0 {
							best = j
						}
					}
				}

				if best < 0 {
					if allowance > 0 {
						allowance--
						need[i][level]--
						continue
					}
					return nil, false
				}

				need[i][level]--
				need[best][level]--
				paired[pairKey(i, best)] = true
				extra = append(extra, pairing{a: i, b: best, level: level})
			}
		}
	}

	return extra, true
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// balance tracks per-team, per-level home and away counts against their
// ceilings of ceil(games/2).
type balance struct {
	home, away, ceil [][NumLevels]int
}

func (b *balance) canHost(h, a int, level Level) bool {
	return b.home[h][level] < b.ceil[h][level] && b.away[a][level] < b.ceil[a][level]
}

func (b *balance) slack(h, a int, level Level) int {
	return min(b.ceil[h][level]-b.home[h][level], b.ceil[a][level]-b.away[a][level])
}

func (b *balance) apply(g game, delta int) {
	b.home[g.home][g.level] += delta
	b.away[g.away][g.level] += delta
}

// balanceHomeAway decides home and away for every undirected game, retrying
// up to MaxInnerIterations times.
func (s *solver) balanceHomeAway(extra []pairing) ([]game, bool) {
	n := len(s.teams)
	games := make([][NumLevels]int, n)
	baseHome := make([][NumLevels]int, n)
	baseAway := make([][NumLevels]int, n)
	for _, g := range s.fixed {
		games[g.home][g.level]++
		games[g.away][g.level]++
		baseHome[g.home][g.level]++
		baseAway[g.away][g.level]++
	}

	pending := make([]pairing, 0, len(s.required)+len(extra))
	pending = append(pending, s.required...)
	pending = append(pending, extra...)
	for _, p := range pending {
		games[p.a][p.level]++
		games[p.b][p.level]++
	}

	ceil := make([][NumLevels]int, n)
	for i := range ceil {
		for _, level := range allLevels {
			ceil[i][level] = (games[i][level] + 1) / 2
		}
	}

	for inner := 0; inner < s.opts.MaxInnerIterations; inner++ {
		b := &balance{
			home: cloneCounts(baseHome),
			away: cloneCounts(baseAway),
			ceil: ceil,
		}
		if assigned, ok := s.assignHomeAway(pending, b); ok {
			out := make([]game, 0, len(s.fixed)+len(assigned))
			out = append(out, s.fixed...)
			return append(out, assigned...), true
		}
	}
	return nil, false
}

func (s *solver) assignHomeAway(pending []pairing, b *balance) ([]game, bool) {
	assigned := make([]game, 0, len(pending))

	for _, idx := range s.rng.Perm(len(pending)) {
		p := pending[idx]
		x, y := p.a, p.b
		if s.rng.Intn(2) == 0 {
			x, y = y, x
		}

		var g game
		xOK, yOK := b.canHost(x, y, p.level), b.canHost(y, x, p.level)
		switch {
		case xOK && yOK:
			g = game{home: x, away: y, level: p.level}
			if b.slack(y, x, p.level) > b.slack(x, y, p.level) {
				g = game{home: y, away: x, level: p.level}
			}
		case xOK:
			g = game{home: x, away: y, level: p.level}
		case yOK:
			g = game{home: y, away: x, level: p.level}
		default:
			var ok bool
			if g, ok = swapToFit(assigned, x, y, p.level, b); !ok {
				return nil, false
			}
		}

		b.apply(g, 1)
		assigned = append(assigned, g)
	}

	return assigned, true
}

// swapToFit flips already-assigned games at the same level that share a team
// with the pending game, freeing home or away capacity. Flips are undone if
// the pending game still does not fit.
func swapToFit(assigned []game, x, y int, level Level, b *balance) (game, bool) {
	flip := func(i int) {
		b.apply(assigned[i], -1)
		assigned[i] = game{home: assigned[i].away, away: assigned[i].home, level: level}
		b.apply(assigned[i], 1)
	}

	for _, o := range [2][2]int{{x, y}, {y, x}} {
		h, a := o[0], o[1]
		var flipped []int

		if b.home[h][level] >= b.ceil[h][level] {
			for i, g := range assigned {
				if g.level == level && g.home == h &&
					b.away[h][level] < b.ceil[h][level] && b.home[g.away][level] < b.ceil[g.away][level] {
					flip(i)
					flipped = append(flipped, i)
					break
				}
			}
		}
		if b.away[a][level] >= b.ceil[a][level] {
			for i, g := range assigned {
				if g.level == level && g.away == a &&
					b.home[a][level] < b.ceil[a][level] && b.away[g.home][level] < b.ceil[g.home][level] {
					flip(i)
					flipped = append(flipped, i)
					break
				}
			}
		}

		if b.canHost(h, a, level) {
			return game{home: h, away: a, level: level}, true
		}
		for k := len(flipped) - 1; k >= 0; k-- {
			flip(flipped[k])
		}
	}

	return game{}, false
}

func cloneCounts(src [][NumLevels]int) [][NumLevels]int {
	dst := make([][NumLevels]int, len(src))
	copy(dst, src)
	return dst
}

func (s *solver) matchups(games []game) []league.Matchup {
	out := make([]league.Matchup, len(games))
	for i, g := range games {
		out[i] = league.Matchup{Home: s.teams[g.home].Tid, Away: s.teams[g.away].Tid}
	}
	return out
}
