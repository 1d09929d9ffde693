// Package playoffs seeds single-elimination brackets and advances them one
// day at a time from supplied game results.
package playoffs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/derekprior/leagueplan/internal/league"
)

var (
	// ErrBracketInfeasible means the bracket slot count is not a power of two.
	ErrBracketInfeasible = errors.New("playoff bracket is infeasible")

	// ErrMissingTeamSeason means the store has no season record for a team
	// in the bracket. The day is aborted.
	ErrMissingTeamSeason = errors.New("missing team season")

	// ErrNoSuchGame means a result was recorded for a pairing that has no
	// open game.
	ErrNoSuchGame = errors.New("no open playoff game between teams")
)

// SeriesTeam is one side of a playoff series.
type SeriesTeam struct {
	Tid  int  `json:"tid"`
	Cid  int  `json:"cid"`
	Seed int  `json:"seed"`
	Won  int  `json:"won"`
	Pts  *int `json:"pts,omitempty"`

	// PendingPlayIn marks a bracket slot whose occupant is decided by the
	// play-in tournament.
	PendingPlayIn bool `json:"pendingPlayIn,omitempty"`
}

func newSeriesTeam(t league.Team, seed int) SeriesTeam {
	return SeriesTeam{Tid: t.Tid, Cid: t.Cid, Seed: seed}
}

// Opponent is either a seeded team or a bye. The zero value is a bye.
type Opponent struct {
	team *SeriesTeam
}

// Seeded returns an opponent occupied by t.
func Seeded(t SeriesTeam) Opponent {
	return Opponent{team: &t}
}

// Bye returns an empty opponent slot.
func Bye() Opponent {
	return Opponent{}
}

// IsBye reports whether the slot is empty.
func (o Opponent) IsBye() bool {
	return o.team == nil
}

// Team returns the seeded team, or nil for a bye. The pointer aliases the
// slot so win counts can be updated in place.
func (o Opponent) Team() *SeriesTeam {
	return o.team
}

// MarshalJSON encodes a bye as null.
func (o Opponent) MarshalJSON() ([]byte, error) {
	if o.team == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.team)
}

// UnmarshalJSON decodes null as a bye.
func (o *Opponent) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.team = nil
		return nil
	}
	var t SeriesTeam
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.team = &t
	return nil
}

// Matchup is one series. Home holds home-court advantage.
type Matchup struct {
	Home SeriesTeam `json:"home"`
	Away Opponent   `json:"away"`
}

// winner returns the side that has clinched, or nil while the series is
// open. A bye is won by the home team.
func (m *Matchup) winner(numGamesToWin int) *SeriesTeam {
	if m.Away.IsBye() {
		return &m.Home
	}
	switch {
	case m.Home.Won >= numGamesToWin:
		return &m.Home
	case m.Away.team.Won >= numGamesToWin:
		return m.Away.team
	}
	return nil
}

// loser returns the losing side of a decided series, or nil.
func (m *Matchup) loser(numGamesToWin int) *SeriesTeam {
	w := m.winner(numGamesToWin)
	if w == nil || m.Away.IsBye() {
		return nil
	}
	if w == &m.Home {
		return m.Away.team
	}
	return &m.Home
}

func (m *Matchup) played() int {
	if m.Away.IsBye() {
		return 0
	}
	return m.Home.Won + m.Away.team.Won
}

func (m *Matchup) has(tid int) bool {
	return m.Home.Tid == tid || (!m.Away.IsBye() && m.Away.team.Tid == tid)
}

// Series is the persisted state of a season's playoffs.
type Series struct {
	Season int `json:"season"`

	// CurrentRound is -1 while the play-in tournament is being played.
	CurrentRound int `json:"currentRound"`

	// Rounds holds every bracket round; rounds not reached yet are empty.
	Rounds [][]Matchup `json:"series"`

	// PlayIns holds one group per bracket. Each group starts with two
	// games and gains a third once both are decided.
	PlayIns [][]Matchup `json:"playIns,omitempty"`

	ByConf           bool  `json:"byConf"`
	Reseed           bool  `json:"reseed"`
	NumGamesPerRound []int `json:"numGamesPerRound"`
}

// NumRounds is the number of bracket rounds.
func (s *Series) NumRounds() int {
	return len(s.Rounds)
}

func (s *Series) numGamesToWin(round int) int {
	if round < 0 {
		return 1
	}
	return league.NumGamesToWinSeries(s.NumGamesPerRound[round])
}

// Current returns the matchups being played: the play-in games while
// CurrentRound is -1, otherwise the current round.
func (s *Series) Current() []Matchup {
	if s.CurrentRound < 0 {
		var all []Matchup
		for _, g := range s.PlayIns {
			all = append(all, g...)
		}
		return all
	}
	return s.Rounds[s.CurrentRound]
}

// RecordResult applies one game outcome to the open game between the two
// teams in the current round or play-in. The engine never decides outcomes
// itself; callers feed them in through here.
func (s *Series) RecordResult(homeTid, awayTid, homePts, awayPts int) error {
	if homePts == awayPts {
		return fmt.Errorf("playoff games cannot end tied (%d-%d)", homePts, awayPts)
	}

	m := s.openMatchup(homeTid, awayTid)
	if m == nil {
		return fmt.Errorf("%w: %d and %d", ErrNoSuchGame, homeTid, awayTid)
	}

	home, away := &m.Home, m.Away.team
	if home.Tid != homeTid {
		home, away = away, home
	}
	hp, ap := homePts, awayPts
	home.Pts, away.Pts = &hp, &ap
	if homePts > awayPts {
		home.Won++
	} else {
		away.Won++
	}
	return nil
}

func (s *Series) openMatchup(a, b int) *Matchup {
	toWin := s.numGamesToWin(s.CurrentRound)
	find := func(ms []Matchup) *Matchup {
		for i := range ms {
			m := &ms[i]
			if m.Away.IsBye() || !m.has(a) || !m.has(b) {
				continue
			}
			if m.winner(toWin) == nil {
				return m
			}
		}
		return nil
	}

	if s.CurrentRound < 0 {
		for g := range s.PlayIns {
			if m := find(s.PlayIns[g]); m != nil {
				return m
			}
		}
		return nil
	}
	return find(s.Rounds[s.CurrentRound])
}
