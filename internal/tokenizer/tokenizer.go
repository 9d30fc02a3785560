package tokenizer

import (
	"fmt"
	"strings"
)

// Tokenizer converts between text and token ids.
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int64, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int64) (string, error)

	// VocabSize returns the total vocabulary size.
	VocabSize() int

	// EosToken returns the end-of-sequence token ID, or -1.
	EosToken() int64

	// Name returns the tokenizer name.
	Name() string
}

const modelPrefix = "model:"

// New returns the tokenizer registered under name.
func New(name string) (Tokenizer, error) {
	if model, ok := strings.CutPrefix(name, modelPrefix); ok {
		tok, err := NewTikTokenForModel(model)
		if err != nil {
			return nil, err
		}
		return tok, nil
	}
	switch name {
	case EncodingO200kBase, EncodingCL100kBase, EncodingP50kBase, EncodingR50kBase:
		tok, err := NewTikToken(name)
		if err != nil {
			return nil, err
		}
		return tok, nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", name)
	}
}
