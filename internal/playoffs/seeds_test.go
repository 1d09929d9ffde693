package playoffs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenSeedsSixteen(t *testing.T) {
	seeds, err := GenSeeds(16, 0)
	require.NoError(t, err)

	want := []SeedPair{
		{High: 0, Low: 15}, {High: 7, Low: 8}, {High: 4, Low: 11}, {High: 3, Low: 12},
		{High: 2, Low: 13}, {High: 5, Low: 10}, {High: 6, Low: 9}, {High: 1, Low: 14},
	}
	assert.Equal(t, want, seeds)

	for _, p := range seeds {
		assert.Equal(t, 15, p.High+p.Low)
	}
}

func TestGenSeedsByes(t *testing.T) {
	seeds, err := GenSeeds(6, 2)
	require.NoError(t, err)
	require.Len(t, seeds, 4)

	var byes []int
	for _, p := range seeds {
		if p.Bye {
			byes = append(byes, p.High)
		}
	}
	assert.ElementsMatch(t, []int{0, 1}, byes)
}

func TestGenSeedsSmall(t *testing.T) {
	seeds, err := GenSeeds(2, 0)
	require.NoError(t, err)
	assert.Equal(t, []SeedPair{{High: 0, Low: 1}}, seeds)

	seeds, err = GenSeeds(4, 0)
	require.NoError(t, err)
	assert.Equal(t, []SeedPair{{High: 0, Low: 3}, {High: 1, Low: 2}}, seeds)
}

func TestGenSeedsInfeasible(t *testing.T) {
	tests := []struct {
		name  string
		teams int
		byes  int
	}{
		{"not a power of two", 6, 0},
		{"single team", 1, 0},
		{"too many byes", 4, 4},
		{"negative byes", 10, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenSeeds(tt.teams, tt.byes)
			assert.ErrorIs(t, err, ErrBracketInfeasible)
		})
	}
}
