package config

import (
	"os"

	"github.com/rs/zerolog"
)

// SetupLogger builds a zerolog.Logger from LoggingConfig: "console" gets
// zerolog's human-readable ConsoleWriter, anything else (including the
// zero value) gets timestamped JSON suited to log aggregation.
func SetupLogger(cfg LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
