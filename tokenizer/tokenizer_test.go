// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tokenizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/anp/tokenizer"
)

func TestNewUnknown(t *testing.T) {
	_, err := tokenizer.New("wordpiece")
	require.Error(t, err)
}

func TestTikTokenRoundTrip(t *testing.T) {
	tok, err := tokenizer.NewTikToken(tokenizer.EncodingCL100kBase)
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}

	ids, err := tok.Encode("Neural processes")
	require.NoError(t, err)
	require.NotEmpty(t, ids)

	text, err := tok.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, "Neural processes", text)
}
