package log

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/vfraga/wso2-custom-secret-vault/internal/config"
)

type Logger = zerolog.Logger

// NewLogger returns the process logger. Output goes to stderr, as JSON unless
// pretty printing is enabled.
func NewLogger(cfg config.Config) Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	var l zerolog.Logger
	if cfg.Logging.Pretty {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		l = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return l.Level(level).With().Str("service", "demovault").Logger()
}

// Nop is a disabled logger for callers that do not care about output.
func Nop() Logger { return zerolog.Nop() }
