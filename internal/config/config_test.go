package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv("TUGBOAT_API_KEY", "0123456789abcdef01234567")

	cfg := NewConfig()
	assert.Equal(t, "0123456789abcdef01234567", cfg.APIKey)
	assert.Equal(t, "https://api.tugboatqa.com/v3", cfg.APIURL)
	assert.Equal(t, TransportStdio, cfg.Transport)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "tugboat-mcp.log", cfg.LogFile)
	assert.False(t, cfg.Debug)
}

func TestNewConfigPrefix(t *testing.T) {
	t.Setenv("TUGBOAT_API_KEY", "k")
	t.Setenv("TUGBOAT_TRANSPORT", "http")
	t.Setenv("TUGBOAT_PORT", "8080")
	t.Setenv("TUGBOAT_DEBUG", "true")
	// Unprefixed variables must not be picked up.
	t.Setenv("PORT", "9999")

	cfg := NewConfig()
	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.Debug)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			APIKey:    "key",
			APIURL:    "https://api.tugboatqa.com/v3",
			Transport: TransportStdio,
			Port:      3000,
		}
	}

	require.NoError(t, Validate(base()))

	missingKey := base()
	missingKey.APIKey = ""
	err := Validate(missingKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TUGBOAT_API_KEY")

	badTransport := base()
	badTransport.Transport = "grpc"
	err = Validate(badTransport)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport")

	badPort := base()
	badPort.Port = 0
	require.Error(t, Validate(badPort))

	httpOK := base()
	httpOK.Transport = TransportHTTP
	require.NoError(t, Validate(httpOK))
}
