package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	seen := make(map[string]bool)

	for range 500 {
		id, err := Generate(PrefixToken)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(id, "tok-"))
		assert.Len(t, id, len("tok-")+21)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestShort(t *testing.T) {
	id, err := Short(PrefixRequest)
	require.NoError(t, err)

	part, ok := strings.CutPrefix(id, "req-")
	require.True(t, ok, id)
	assert.Len(t, part, ShortLength)
	for _, c := range part {
		assert.True(t, strings.ContainsRune(shortAlphabet, c), "unexpected char %q in %s", c, id)
	}
}

func TestMustGenerate(t *testing.T) {
	id := MustGenerate("x")
	assert.True(t, strings.HasPrefix(id, "x-"))
}
