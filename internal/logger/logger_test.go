package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)
	require.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger.Debug().Msg("hidden")
	require.Empty(t, buf.String())

	log.Info().Msg("global")
	require.Contains(t, buf.String(), `"message":"global"`)
}

func TestNew_debug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)
	require.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	logger.Debug().Msg("shown")
	require.Contains(t, buf.String(), "shown")
	require.NotContains(t, buf.String(), `"message"`)
}
