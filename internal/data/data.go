// Package data produces Neural Process training samples from token streams.
package data

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/born-ml/anp/internal/np"
	"github.com/born-ml/anp/internal/tensor"
)

// ErrCorpusTooSmall is returned when a corpus cannot fill a single batch.
var ErrCorpusTooSmall = errors.New("corpus too small for one batch")

// Source yields training samples.
type Source[B tensor.Backend] interface {
	Next() (*np.Sample[B], error)
}

// NewSample packs batch·n token ids into a Sample whose target is the input
// sequence itself.
func NewSample[B tensor.Backend](ids []int64, batch, n int, backend B) (*np.Sample[B], error) {
	if batch <= 0 || n <= 0 {
		return nil, fmt.Errorf("sample needs positive batch and length, got %d and %d", batch, n)
	}
	src, err := tensor.FromSlice(ids, tensor.Shape{batch, n}, backend)
	if err != nil {
		return nil, err
	}
	return &np.Sample[B]{
		NetInput:   np.NetInput[B]{SrcTokens: src},
		Target:     src.Clone(),
		NTokens:    batch * n,
		NSentences: batch,
	}, nil
}

// Synthetic generates periodic token sequences: every row repeats a random
// pattern of length at most period over a vocabulary of vocab ids.
type Synthetic[B tensor.Backend] struct {
	rng     *rand.Rand
	vocab   int
	period  int
	batch   int
	n       int
	backend B
}

// NewSynthetic creates a synthetic source. rng must not be shared.
func NewSynthetic[B tensor.Backend](vocab, batch, n int, rng *rand.Rand, backend B) *Synthetic[B] {
	return &Synthetic[B]{rng: rng, vocab: vocab, period: 4, batch: batch, n: n, backend: backend}
}

// Next returns a new batch.
func (s *Synthetic[B]) Next() (*np.Sample[B], error) {
	ids := make([]int64, 0, s.batch*s.n)
	for b := 0; b < s.batch; b++ {
		period := 1 + s.rng.Intn(s.period)
		pattern := make([]int64, period)
		for i := range pattern {
			pattern[i] = int64(s.rng.Intn(s.vocab))
		}
		for i := 0; i < s.n; i++ {
			ids = append(ids, pattern[i%period])
		}
	}
	return NewSample(ids, s.batch, s.n, s.backend)
}
