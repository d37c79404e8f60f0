// Package testhelper silences the global logger in tests. Import it for its
// side effect from any package whose tests would otherwise log.
package testhelper

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

// LogEnv enables logging in tests when set to a zerolog level name
const LogEnv = "EXCELLENT_TEST_LOG"

func init() {
	if testing.Testing() {
		Configure()
	}
}

// Configure disables logging unless EXCELLENT_TEST_LOG is set, in which case
// it is used as the global level (e.g. debug, trace)
func Configure() {
	value := os.Getenv(LogEnv)
	if value == "" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
		return
	}

	level, err := zerolog.ParseLevel(value)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}
