package gcp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("PDFN_SET", "value")
	assert.Equal(t, "value", GetEnv("PDFN_SET", "fallback"))
	assert.Equal(t, "fallback", GetEnv("PDFN_NEVER_SET_VARIABLE", "fallback"))
}

func TestGetEnvBool(t *testing.T) {
	for value, want := range map[string]bool{"true": true, "1": true, "yes": true, "off": false, "FALSE": false} {
		t.Setenv("PDFN_BOOL", value)
		got, err := GetEnvBool("PDFN_BOOL", !want)
		require.NoError(t, err, value)
		assert.Equal(t, want, got, value)
	}

	t.Setenv("PDFN_BOOL", "")
	got, err := GetEnvBool("PDFN_BOOL", true)
	require.NoError(t, err)
	assert.True(t, got)

	t.Setenv("PDFN_BOOL", "sometimes")
	_, err = GetEnvBool("PDFN_BOOL", false)
	assert.Error(t, err)
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("PDFN_INT", "12")
	n, err := GetEnvInt("PDFN_INT", 3)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	t.Setenv("PDFN_INT", "twelve")
	_, err = GetEnvInt("PDFN_INT", 3)
	assert.Error(t, err)
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("PDFN_TTL", "3600")
	d, err := GetEnvDuration("PDFN_TTL", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	t.Setenv("PDFN_TTL", "45m")
	d, err = GetEnvDuration("PDFN_TTL", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, d)

	t.Setenv("PDFN_TTL", "")
	d, err = GetEnvDuration("PDFN_TTL", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)

	t.Setenv("PDFN_TTL", "later")
	_, err = GetEnvDuration("PDFN_TTL", time.Minute)
	assert.Error(t, err)
}
