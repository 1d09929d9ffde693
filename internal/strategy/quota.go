package strategy

import (
	"fmt"
	"sort"

	"github.com/derekprior/leagueplan/internal/league"
)

// Level identifies an opponent group relative to a team.
type Level int

const (
	LevelDiv Level = iota
	LevelConf
	LevelOther
	NumLevels
)

var allLevels = [NumLevels]Level{LevelDiv, LevelConf, LevelOther}

func (l Level) String() string {
	switch l {
	case LevelDiv:
		return "div"
	case LevelConf:
		return "conf"
	case LevelOther:
		return "other"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// LevelQuota is the number of games a team owes every opponent in a group
// (PerTeam) plus the extra single games it owes some of them (Excess).
type LevelQuota struct {
	PerTeam int
	Excess  int
}

// Games is the total number of games owed at this level for a group of size n.
func (q LevelQuota) Games(groupSize int) int {
	return q.PerTeam*groupSize + q.Excess
}

// Quota holds the per-level quotas for one division.
type Quota [NumLevels]LevelQuota

// Grouping decides which level an opponent falls into.
type Grouping struct {
	divFixed  bool
	confFixed bool
}

// NewGrouping returns the grouping rules for the settings. Rolled-up
// division or conference counts fold those teams into "other".
func NewGrouping(settings league.Settings, ignoreDivConf bool) Grouping {
	if ignoreDivConf {
		return Grouping{}
	}
	return Grouping{
		divFixed:  settings.NumGamesDiv.IsFixed(),
		confFixed: settings.NumGamesConf.IsFixed(),
	}
}

// LevelOf returns the level at which a plays b.
func (g Grouping) LevelOf(a, b league.Team) Level {
	if g.divFixed && a.Did == b.Did {
		return LevelDiv
	}
	if g.confFixed && a.Cid == b.Cid && a.Did != b.Did {
		return LevelConf
	}
	return LevelOther
}

// CalculateQuotas derives, for every division, how many games its teams owe
// each opponent group. It fails when the settings leave a negative number of
// "other" games or ask for games against an empty group.
func CalculateQuotas(teams []league.Team, settings league.Settings, ignoreDivConf bool) (map[int]Quota, error) {
	grouping := NewGrouping(settings, ignoreDivConf)

	var numGames [NumLevels]int
	if grouping.divFixed {
		numGames[LevelDiv] = settings.NumGamesDiv.Games()
	}
	if grouping.confFixed {
		numGames[LevelConf] = settings.NumGamesConf.Games()
	}
	numGames[LevelOther] = settings.NumGames - numGames[LevelDiv] - numGames[LevelConf]
	if numGames[LevelOther] < 0 {
		return nil, fmt.Errorf("%w: division and conference games (%d + %d) exceed %d total games",
			league.ErrInvalidSettings, numGames[LevelDiv], numGames[LevelConf], settings.NumGames)
	}

	// One representative per division is enough; group sizes only depend on did/cid.
	reps := make(map[int]league.Team)
	var dids []int
	for _, t := range teams {
		if _, ok := reps[t.Did]; !ok {
			reps[t.Did] = t
			dids = append(dids, t.Did)
		}
	}
	sort.Ints(dids)

	quotas := make(map[int]Quota, len(dids))
	for _, did := range dids {
		rep := reps[did]
		var groupSize [NumLevels]int
		for _, t := range teams {
			if t.Tid == rep.Tid {
				continue
			}
			groupSize[grouping.LevelOf(rep, t)]++
		}

		var q Quota
		for _, level := range allLevels {
			num, den := numGames[level], groupSize[level]
			if den == 0 {
				if num > 0 {
					return nil, fmt.Errorf("%w: division %d needs %d %s games but has no %s opponents",
						league.ErrInvalidSettings, did, num, level, level)
				}
				continue
			}
			q[level] = LevelQuota{PerTeam: num / den, Excess: num % den}
		}
		quotas[did] = q
	}

	return quotas, nil
}
