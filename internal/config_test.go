package internal

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultsAndValidation(t *testing.T) {
	req := require.New(t)
	var config Config
	err := env.Unmarshal(env.EnvSet{}, &config)
	req.Error(err)

	err = env.Unmarshal(env.EnvSet{
		"LOG_LEVEL":       "INFO",
		"BADGER_FILEPATH": "/tmp/civic",
		"JWT_SECRET":      "0123456789abcdef",
	}, &config)
	req.NoError(err)
	req.NoError(Validate(config))
	req.Equal("localhost:8080", config.Address())
	req.Equal(256, config.QueueSize)
	req.Equal(config.HeartbeatInteractive, config.Heartbeats().Interactive)

	config.RelayAddress = "relay:9090"
	req.Error(Validate(config))
	config.RelayToken = "token"
	req.NoError(Validate(config))

	// With a relay the store lives there
	config.BadgerFilepath = ""
	req.NoError(Validate(config))
	config.RelayAddress = ""
	req.Error(Validate(config))

	config.BadgerFilepath = "/tmp/civic"
	config.JWTSecret = "short"
	req.Error(Validate(config))
}

func TestRelayConfig_OwnsTheStore(t *testing.T) {
	req := require.New(t)
	var config RelayConfig
	err := env.Unmarshal(env.EnvSet{
		"LOG_LEVEL":  "INFO",
		"JWT_SECRET": "0123456789abcdef",
	}, &config)
	req.Error(err)

	err = env.Unmarshal(env.EnvSet{
		"LOG_LEVEL":       "INFO",
		"JWT_SECRET":      "0123456789abcdef",
		"BADGER_FILEPATH": "/tmp/relay",
	}, &config)
	req.NoError(err)
	req.NoError(Validate(config))
	req.Equal("localhost:9090", config.Address())
	req.Equal(168*time.Hour, config.AckRetention)
}
