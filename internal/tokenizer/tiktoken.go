package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Supported tiktoken encodings.
const (
	// EncodingO200kBase is the encoding for GPT-4o and later.
	EncodingO200kBase = "o200k_base"
	// EncodingCL100kBase is the encoding for GPT-4 and GPT-3.5-turbo.
	EncodingCL100kBase = "cl100k_base"
	// EncodingP50kBase is the encoding for GPT-3 and Codex.
	EncodingP50kBase = "p50k_base"
	// EncodingR50kBase is the encoding for older GPT-3 models.
	EncodingR50kBase = "r50k_base"
)

// TikToken wraps the pkoukk/tiktoken-go library.
//
// Loading an encoding fetches its BPE ranks on first use unless
// TIKTOKEN_CACHE_DIR points at a local copy.
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
	encName  string
}

// NewTikToken creates a TikToken tokenizer for an encoding name.
func NewTikToken(encodingName string) (*TikToken, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}
	return &TikToken{encoding: encoding, name: encodingName, encName: encodingName}, nil
}

// NewTikTokenForModel creates a TikToken tokenizer for an OpenAI model name,
// e.g. "gpt-4".
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	encName, ok := encodingForModel(modelName)
	if !ok {
		return nil, fmt.Errorf("no tiktoken encoding for model %q", modelName)
	}
	encoding, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken for model %q: %w", modelName, err)
	}
	return &TikToken{encoding: encoding, name: modelPrefix + modelName, encName: encName}, nil
}

func encodingForModel(modelName string) (string, bool) {
	if name, ok := tiktoken.MODEL_TO_ENCODING[modelName]; ok {
		return name, true
	}
	for prefix, name := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(modelName, prefix) {
			return name, true
		}
	}
	return "", false
}

// Encode converts text to token IDs. Special tokens are encoded as text.
func (t *TikToken) Encode(text string) ([]int64, error) {
	ids := t.encoding.Encode(text, nil, nil)
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out, nil
}

// Decode converts token IDs back to text.
func (t *TikToken) Decode(tokens []int64) (string, error) {
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		if tok < 0 || tok >= int64(t.VocabSize()) {
			return "", fmt.Errorf("token %d out of range for %s", tok, t.encName)
		}
		ids[i] = int(tok)
	}
	return t.encoding.Decode(ids), nil
}

// VocabSize returns the size of the id space including special tokens.
func (t *TikToken) VocabSize() int {
	switch t.encName {
	case EncodingO200kBase:
		return 200019
	case EncodingCL100kBase:
		return 100277
	case EncodingP50kBase, tiktoken.MODEL_P50K_EDIT:
		return 50281
	default:
		return 50257
	}
}

// EosToken returns the <|endoftext|> id.
func (t *TikToken) EosToken() int64 {
	switch t.encName {
	case EncodingO200kBase:
		return 199999
	case EncodingCL100kBase:
		return 100257
	default:
		return 50256
	}
}

// Name returns the tokenizer name.
func (t *TikToken) Name() string {
	return t.name
}
