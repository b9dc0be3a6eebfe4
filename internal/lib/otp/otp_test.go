package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	code, err := NewCode(6)
	require.NoError(t, err)

	assert.Len(t, code, 6)
	for _, c := range code {
		assert.True(t, c >= '0' && c <= '9', "code must be numeric, got %q", code)
	}
}

func TestNewCodeLengths(t *testing.T) {
	for _, length := range []int{4, 6, 8} {
		code, err := NewCode(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
	}
}

func TestNewCodeInvalidLength(t *testing.T) {
	_, err := NewCode(0)
	require.Error(t, err)

	_, err = NewCode(-1)
	require.Error(t, err)
}

func TestNewTokenValueUnique(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		value, err := NewTokenValue()
		require.NoError(t, err)

		assert.False(t, seen[value], "token values must not repeat")
		seen[value] = true
	}
}
