package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOTPIsActive(t *testing.T) {
	code := OTP{
		Code:      "123456",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}

	assert.True(t, code.IsActive())
	assert.False(t, code.IsExpired())

	code.Used = true
	assert.False(t, code.IsActive())

	code.Used = false
	code.ExpiresAt = time.Now().Add(-time.Second)
	assert.True(t, code.IsExpired())
	assert.False(t, code.IsActive())
}

func TestSessionTokenIsExpired(t *testing.T) {
	token := SessionToken{
		Value:     "abc",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	assert.False(t, token.IsExpired())

	token.ExpiresAt = time.Now().Add(-time.Hour)
	assert.True(t, token.IsExpired())
}
