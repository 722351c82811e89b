package playback

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShufflePreservesElements(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, n := range []int{0, 1, 2, 3, 10, 57} {
		in := make([]int, n)
		for i := range in {
			in[i] = i
		}
		original := slices.Clone(in)

		out, err := Shuffle(in, rng.IntN)
		require.NoError(t, err)
		assert.Len(t, out, n)
		assert.Equal(t, original, in, "input must not be modified")
		assert.ElementsMatch(t, original, out)
	}
}

func TestShuffleEmptyAndSingle(t *testing.T) {
	never := func(int) int {
		t.Fatal("random source used for fewer than two items")
		return 0
	}

	out, err := Shuffle([]string{}, never)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = Shuffle([]string{"solo"}, never)
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, out)
}

func TestShuffleIsFisherYates(t *testing.T) {
	// Always picking index 0 rotates the first element to the end step by step.
	out, err := Shuffle([]string{"a", "b", "c", "d"}, func(int) int { return 0 })
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d", "a"}, out)

	// Picking i itself leaves everything in place.
	out, err = Shuffle([]string{"a", "b", "c"}, func(n int) int { return n - 1 })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, out)
}

func TestShuffleDefaultSource(t *testing.T) {
	out, err := Shuffle([]int{1, 2, 3}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3}, out)
}
