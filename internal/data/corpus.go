package data

import (
	"fmt"
	"sort"

	"github.com/born-ml/anp/internal/np"
	"github.com/born-ml/anp/internal/tensor"
	"github.com/born-ml/anp/internal/tokenizer"
)

// UnknownID is the compact id of tokens outside the vocabulary.
const UnknownID int64 = 0

// Vocabulary maps tokenizer ids onto a dense range [0, Size()). Id 0 is
// reserved for unknown tokens; the rest are ordered by decreasing frequency.
type Vocabulary struct {
	toCompact map[int64]int64
	toToken   []int64
}

// BuildVocabulary keeps the maxSize-1 most frequent ids of tokens.
// A maxSize of zero keeps every id.
func BuildVocabulary(tokens []int64, maxSize int) *Vocabulary {
	counts := make(map[int64]int)
	for _, t := range tokens {
		counts[t]++
	}
	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if maxSize > 0 && len(ids) > maxSize-1 {
		ids = ids[:maxSize-1]
	}

	v := &Vocabulary{
		toCompact: make(map[int64]int64, len(ids)),
		toToken:   append([]int64{-1}, ids...),
	}
	for i, id := range ids {
		v.toCompact[id] = int64(i + 1)
	}
	return v
}

// Size returns the number of compact ids, including the unknown id.
func (v *Vocabulary) Size() int {
	return len(v.toToken)
}

// Compact maps tokenizer ids to compact ids.
func (v *Vocabulary) Compact(tokens []int64) []int64 {
	out := make([]int64, len(tokens))
	for i, t := range tokens {
		if id, ok := v.toCompact[t]; ok {
			out[i] = id
		} else {
			out[i] = UnknownID
		}
	}
	return out
}

// Expand maps compact ids back to tokenizer ids. Unknown ids are dropped.
func (v *Vocabulary) Expand(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > UnknownID && int(id) < len(v.toToken) {
			out = append(out, v.toToken[id])
		}
	}
	return out
}

// Corpus cuts a tokenized text into consecutive windows of n tokens and
// cycles over them batch by batch.
type Corpus[B tensor.Backend] struct {
	ids     []int64
	vocab   *Vocabulary
	batch   int
	n       int
	pos     int
	backend B
}

// NewCorpus tokenizes text with tok and builds a corpus over a vocabulary of
// at most maxVocab compact ids.
func NewCorpus[B tensor.Backend](text string, tok tokenizer.Tokenizer, maxVocab, batch, n int, backend B) (*Corpus[B], error) {
	tokens, err := tok.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("tokenize corpus: %w", err)
	}
	return NewCorpusFromTokens(tokens, maxVocab, batch, n, backend)
}

// NewCorpusFromTokens builds a corpus from tokenizer ids.
func NewCorpusFromTokens[B tensor.Backend](tokens []int64, maxVocab, batch, n int, backend B) (*Corpus[B], error) {
	if batch <= 0 || n <= 0 {
		return nil, fmt.Errorf("corpus needs positive batch and length, got %d and %d", batch, n)
	}
	if len(tokens) < batch*n {
		return nil, fmt.Errorf("%w: %d tokens, need %d", ErrCorpusTooSmall, len(tokens), batch*n)
	}
	vocab := BuildVocabulary(tokens, maxVocab)
	return &Corpus[B]{
		ids:     vocab.Compact(tokens),
		vocab:   vocab,
		batch:   batch,
		n:       n,
		backend: backend,
	}, nil
}

// Vocabulary returns the corpus vocabulary.
func (c *Corpus[B]) Vocabulary() *Vocabulary {
	return c.vocab
}

// NumWindows returns the number of complete windows in the corpus.
func (c *Corpus[B]) NumWindows() int {
	return len(c.ids) / c.n
}

// Next returns the next batch of windows, wrapping around at the end.
func (c *Corpus[B]) Next() (*np.Sample[B], error) {
	windows := c.NumWindows()
	ids := make([]int64, 0, c.batch*c.n)
	for b := 0; b < c.batch; b++ {
		start := (c.pos % windows) * c.n
		ids = append(ids, c.ids[start:start+c.n]...)
		c.pos++
	}
	return NewSample(ids, c.batch, c.n, c.backend)
}
