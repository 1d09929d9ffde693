package league

import (
	"errors"
	"fmt"
)

// ErrInvalidSettings marks configuration errors. They are not retryable; the
// caller must fix the settings before generating anything.
var ErrInvalidSettings = errors.New("invalid league settings")

// GameCount is either a fixed number of games or a marker that the games for
// that group roll up into the "other" bucket. The zero value rolls up.
type GameCount struct {
	n     int
	fixed bool
}

// Fixed returns a GameCount of exactly n games.
func Fixed(n int) GameCount {
	return GameCount{n: n, fixed: true}
}

// RollUp returns a GameCount whose teams are folded into the "other" group.
func RollUp() GameCount {
	return GameCount{}
}

// GameCountFromPtr maps a nullable setting onto a GameCount.
func GameCountFromPtr(n *int) GameCount {
	if n == nil {
		return RollUp()
	}
	return Fixed(*n)
}

// IsFixed reports whether the count is an explicit quota.
func (c GameCount) IsFixed() bool { return c.fixed }

// Games returns the quota, treating a rolled-up count as 0.
func (c GameCount) Games() int {
	if !c.fixed {
		return 0
	}
	return c.n
}

func (c GameCount) String() string {
	if !c.fixed {
		return "rollup"
	}
	return fmt.Sprintf("%d", c.n)
}

// Settings are the numeric and boolean league settings read by the scheduler
// and playoff builder. They are always passed explicitly.
type Settings struct {
	NumGames     int
	NumGamesDiv  GameCount
	NumGamesConf GameCount

	// NumGamesPlayoffSeries holds the series length for every playoff round;
	// its length is the number of rounds.
	NumGamesPlayoffSeries []int
	NumPlayoffByes        int
	PlayIn                bool
	PlayoffsByConf        bool
	PlayoffsReseed        bool

	// AllStarGame and TradeDeadline are fractions of the season in (0, 1).
	// Zero disables the placeholder.
	AllStarGame   float64
	TradeDeadline float64
}

// NumRounds is the number of playoff rounds, excluding any play-in.
func (s Settings) NumRounds() int {
	return len(s.NumGamesPlayoffSeries)
}

// NumPlayoffTeams is the number of teams that make the bracket proper.
func (s Settings) NumPlayoffTeams() int {
	return (1 << s.NumRounds()) - s.NumPlayoffByes
}

// NumGamesToWinSeries returns how many wins clinch a series of the given length.
func NumGamesToWinSeries(numGames int) int {
	return (numGames + 1) / 2
}

// Validate returns a descriptive ErrInvalidSettings for any setting
// combination the scheduler or bracket builder cannot work with.
func (s Settings) Validate() error {
	if s.NumGames <= 0 {
		return fmt.Errorf("%w: num_games must be positive, got %d", ErrInvalidSettings, s.NumGames)
	}
	if s.NumGamesDiv.Games() < 0 {
		return fmt.Errorf("%w: num_games_div cannot be negative", ErrInvalidSettings)
	}
	if s.NumGamesConf.Games() < 0 {
		return fmt.Errorf("%w: num_games_conf cannot be negative", ErrInvalidSettings)
	}
	if s.NumGamesDiv.Games()+s.NumGamesConf.Games() > s.NumGames {
		return fmt.Errorf("%w: num_games_div (%d) + num_games_conf (%d) exceeds num_games (%d)",
			ErrInvalidSettings, s.NumGamesDiv.Games(), s.NumGamesConf.Games(), s.NumGames)
	}

	for name, frac := range map[string]float64{"all_star_game": s.AllStarGame, "trade_deadline": s.TradeDeadline} {
		if frac < 0 || frac >= 1 {
			return fmt.Errorf("%w: %s must be a fraction of the season in (0, 1), got %g", ErrInvalidSettings, name, frac)
		}
	}

	return s.validatePlayoffs()
}

func (s Settings) validatePlayoffs() error {
	numRounds := s.NumRounds()
	if numRounds == 0 {
		return fmt.Errorf("%w: at least one playoff round is required", ErrInvalidSettings)
	}
	for i, n := range s.NumGamesPlayoffSeries {
		if n <= 0 {
			return fmt.Errorf("%w: playoff round %d has non-positive series length %d", ErrInvalidSettings, i+1, n)
		}
	}
	if s.NumPlayoffByes < 0 {
		return fmt.Errorf("%w: num_playoff_byes cannot be negative", ErrInvalidSettings)
	}
	if s.NumPlayoffByes > 0 && numRounds <= 1 {
		return fmt.Errorf("%w: byes require more than one playoff round", ErrInvalidSettings)
	}
	if s.NumPlayoffTeams() < 2 {
		return fmt.Errorf("%w: %d byes leave fewer than 2 playoff teams in a %d round bracket",
			ErrInvalidSettings, s.NumPlayoffByes, numRounds)
	}
	if s.NumPlayoffByes >= s.NumPlayoffTeams() {
		return fmt.Errorf("%w: %d byes cannot be given to %d playoff teams",
			ErrInvalidSettings, s.NumPlayoffByes, s.NumPlayoffTeams())
	}
	if s.PlayIn && numRounds <= 1 {
		return fmt.Errorf("%w: a play-in tournament requires more than one playoff round", ErrInvalidSettings)
	}
	return nil
}
