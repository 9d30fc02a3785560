// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tokenizer turns text corpora into token id sequences.
//
// Example usage:
//
//	import "github.com/born-ml/anp/tokenizer"
//
//	tok, err := tokenizer.New("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ids, err := tok.Encode("Hello, world!")
package tokenizer

import (
	"github.com/born-ml/anp/internal/tokenizer"
)

// Tokenizer converts text to token ids and back.
type Tokenizer = tokenizer.Tokenizer

// TikToken is a tokenizer backed by OpenAI's BPE encodings.
type TikToken = tokenizer.TikToken

// Supported tiktoken encodings.
const (
	EncodingO200kBase  = tokenizer.EncodingO200kBase
	EncodingCL100kBase = tokenizer.EncodingCL100kBase
	EncodingP50kBase   = tokenizer.EncodingP50kBase
	EncodingR50kBase   = tokenizer.EncodingR50kBase
)

// New returns the tokenizer named by name: an encoding such as
// "cl100k_base", or "model:<name>" for the encoding of an OpenAI model.
func New(name string) (Tokenizer, error) {
	return tokenizer.New(name)
}

// NewTikToken loads a tiktoken encoding by name.
func NewTikToken(encodingName string) (*TikToken, error) {
	return tokenizer.NewTikToken(encodingName)
}

// NewTikTokenForModel loads the encoding used by an OpenAI model.
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	return tokenizer.NewTikTokenForModel(modelName)
}
