package sysutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keepGlobals restores the global logger and level after the test.
func keepGlobals(t *testing.T) {
	t.Helper()
	lvl, lg := zerolog.GlobalLevel(), log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(lvl)
		log.Logger = lg
	})
}

func TestSetLogLevel(t *testing.T) {
	keepGlobals(t)

	for in, want := range map[string]zerolog.Level{
		"  DeBuG ": zerolog.DebugLevel,
		"":         zerolog.InfoLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"fatal":    zerolog.FatalLevel,
		"panic":    zerolog.PanicLevel,
		"trace":    zerolog.InfoLevel,
		"disabled": zerolog.InfoLevel,
		"chatty":   zerolog.InfoLevel,
	} {
		assert.Equal(t, want, SetLogLevel(in), in)
		assert.Equal(t, want, zerolog.GlobalLevel(), in)
	}
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"1", "TRUE", " yes ", "Y", "On"} {
		assert.True(t, IsTruthy(v), v)
	}
	for _, v := range []string{"", "0", "false", "off", "  ", "sure"} {
		assert.False(t, IsTruthy(v), v)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Empty(t, FirstNonEmpty())
	assert.Empty(t, FirstNonEmpty(" ", "\t"))
	assert.Equal(t, "  kept as is ", FirstNonEmpty("", "  kept as is ", "later"))
}

func TestSetupLogger_WarnToConsoleAndRotatingFile(t *testing.T) {
	keepGlobals(t)

	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "nested", "ledger.log")
	closer := SetupLogger(LogOptions{Level: "warn", File: file, Out: &console})

	log.Info().Msg("dropped")
	log.Warn().Int("day", 3).Msg("kept")
	require.NoError(t, closer.Close())

	assert.NotContains(t, console.String(), "dropped")
	assert.Contains(t, console.String(), `"message":"kept"`)

	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"day":3`)
	assert.Contains(t, string(raw), `"time":`)
}

func TestSetupLogger_PrettyConsole(t *testing.T) {
	keepGlobals(t)

	var console bytes.Buffer
	closer := SetupLogger(LogOptions{Pretty: true, Out: &console})
	log.Info().Msg("hello")
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "hello")
	assert.NotEqual(t, byte('{'), bytes.TrimSpace(console.Bytes())[0])
}
