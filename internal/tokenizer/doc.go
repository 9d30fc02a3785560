// Package tokenizer turns text into token ids for sequence batches.
//
// Tokenizers are selected by name:
//   - "o200k_base", "cl100k_base", "p50k_base", "r50k_base": a tiktoken encoding
//   - "model:<name>": the tiktoken encoding used by an OpenAI model
//
// Example usage:
//
//	tok, err := tokenizer.New("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ids, err := tok.Encode("Hello, world!")
package tokenizer
