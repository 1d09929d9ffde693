package playoffs

import (
	"fmt"
	"math/bits"
)

// SeedPair is one first-round pairing of 0-based seeds. High is the better
// seed. When Bye is set, High advances without playing and Low is unused.
type SeedPair struct {
	High int
	Low  int
	Bye  bool
}

// GenSeeds lays out a bracket for numPlayoffTeams teams plus numPlayoffByes
// empty slots, which must add up to a power of two. The bracket grows
// outward from the final, (0, 1): every pair of the previous round splits
// into two whose seed sums equal the new round's highest seed. Seeds at or
// beyond numPlayoffTeams are byes, so byes go to the top seeds.
func GenSeeds(numPlayoffTeams, numPlayoffByes int) ([]SeedPair, error) {
	slots := numPlayoffTeams + numPlayoffByes
	if numPlayoffTeams < 1 || numPlayoffByes < 0 || slots < 2 || slots&(slots-1) != 0 {
		return nil, fmt.Errorf("%w: %d teams and %d byes do not fill a power-of-two bracket",
			ErrBracketInfeasible, numPlayoffTeams, numPlayoffByes)
	}
	if numPlayoffByes >= numPlayoffTeams {
		return nil, fmt.Errorf("%w: %d byes for %d teams", ErrBracketInfeasible, numPlayoffByes, numPlayoffTeams)
	}

	numRounds := bits.TrailingZeros(uint(slots))
	pairs := [][2]int{{0, 1}}
	for round := 1; round < numRounds; round++ {
		maxSeed := 4*len(pairs) - 1
		next := make([][2]int, 0, 2*len(pairs))
		for _, p := range pairs {
			next = append(next,
				[2]int{p[0], maxSeed - p[0]},
				[2]int{maxSeed - p[1], p[1]},
			)
		}
		pairs = next
	}

	seeds := make([]SeedPair, len(pairs))
	for i, p := range pairs {
		high, low := min(p[0], p[1]), max(p[0], p[1])
		seeds[i] = SeedPair{High: high, Low: low, Bye: low >= numPlayoffTeams}
	}
	return seeds, nil
}
