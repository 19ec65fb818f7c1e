package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardIDPath(t *testing.T) {
	tests := []struct {
		flat     string
		expected string
	}{
		{"1", "1"},
		{"1234", "1234"},
		{"12345", "1234/5"},
		{"12345678", "1234/5678"},
		{"123456789", "1234/5678/9"},
		{"1234567890123", "1234/5678/9012/3"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ShardIDPath(tt.flat), "flat id %s", tt.flat)
	}
}

func TestNeedsShardRedirect(t *testing.T) {
	// Short flat ids are already canonical
	assert.False(t, NeedsShardRedirect("1"))
	assert.False(t, NeedsShardRedirect("1234"))

	// Long flat ids need one redirect
	assert.True(t, NeedsShardRedirect("12345"))
	assert.True(t, NeedsShardRedirect("123456789"))

	// Sharded forms never redirect again
	assert.False(t, NeedsShardRedirect("1234/5"))
	assert.False(t, NeedsShardRedirect("1234/5678/9"))
}

func TestShardRedirectIsIdempotent(t *testing.T) {
	// The canonical form produced by sharding must itself resolve
	// without another redirect.
	for _, flat := range []string{"12345", "987654321", "1234567890123456"} {
		sharded := ShardIDPath(flat)
		assert.False(t, NeedsShardRedirect(sharded), "sharded path %s", sharded)

		id, err := ParseImageID(sharded)
		require.NoError(t, err)
		flatID, err := ParseImageID(flat)
		require.NoError(t, err)
		assert.Equal(t, flatID, id)
	}
}

func TestParseImageID(t *testing.T) {
	t.Run("flat and sharded forms agree", func(t *testing.T) {
		id, err := ParseImageID("1234/5678/9")
		require.NoError(t, err)
		assert.Equal(t, int64(123456789), id)
	})

	t.Run("rejects non-numeric segments", func(t *testing.T) {
		for _, bad := range []string{"", "abcd", "12a4", "12.4", "-123", "0"} {
			_, err := ParseImageID(bad)
			assert.Error(t, err, "id path %q", bad)
			assert.IsType(t, InvalidIdentifierError{}, err)
		}
	})
}

func TestIDPath(t *testing.T) {
	assert.Equal(t, "42", IDPath(42))
	assert.Equal(t, "1234/5678", IDPath(12345678))
}
