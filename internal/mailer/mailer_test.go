package mailer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBody(t *testing.T) {
	m, err := New("smtp.example.com", 587, "user", "pass",
		"noreply@example.com", "", "Your login code", "Event Service", 5*time.Minute)
	require.NoError(t, err)

	body, err := m.Body("a@x.com", "123456")
	require.NoError(t, err)

	assert.Contains(t, body, "a@x.com")
	assert.Contains(t, body, "123456")
	assert.Contains(t, body, "Event Service")
	assert.Contains(t, body, "5 minutes")
}

func TestBodyMinutesRounded(t *testing.T) {
	m, err := New("smtp.example.com", 587, "user", "pass",
		"noreply@example.com", "", "Your login code", "Event Service", 30*time.Minute)
	require.NoError(t, err)

	body, err := m.Body("a@x.com", "000000")
	require.NoError(t, err)

	assert.True(t, strings.Contains(body, "30 minutes"), "body: %s", body)
}
