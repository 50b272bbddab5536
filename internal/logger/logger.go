package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup builds the process logger and installs it as the zerolog global. Debug mode
// switches to human readable console output.
func Setup(debug bool) zerolog.Logger {
	return New(os.Stderr, debug)
}

func New(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()

	if debug {
		logger = logger.Output(zerolog.ConsoleWriter{Out: w, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.Kitchen)
		}}).With().Caller().Logger()
	}

	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger

	return logger
}
