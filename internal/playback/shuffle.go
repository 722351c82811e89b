package playback

import (
	"math/rand/v2"

	"github.com/pkg/errors"
)

// ErrShuffleSizeMismatch means a shuffle produced a different number of
// elements than it was given. It should never happen.
var ErrShuffleSizeMismatch = errors.New("shuffle changed the number of tracks")

// Shuffle returns a Fisher-Yates permutation of items; the input is left
// untouched. intn returns a uniform int in [0, n) and defaults to math/rand.
func Shuffle[T any](items []T, intn func(n int) int) ([]T, error) {
	if intn == nil {
		intn = rand.IntN
	}

	out := make([]T, len(items))
	copy(out, items)

	for i := len(out) - 1; i > 0; i-- {
		j := intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}

	if len(out) != len(items) {
		return items, errors.Wrapf(ErrShuffleSizeMismatch, "before=%d after=%d", len(items), len(out))
	}
	return out, nil
}
