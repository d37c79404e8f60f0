package testhelper

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestConfigure(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.Disabled)

	t.Setenv(LogEnv, "")
	Configure()
	assert.Equal(t, zerolog.Disabled, zerolog.GlobalLevel())

	t.Setenv(LogEnv, "warn")
	Configure()
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	t.Setenv(LogEnv, "loud")
	Configure()
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}
