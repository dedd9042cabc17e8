package platform

import (
	"os"

	"github.com/rs/zerolog"
)

// InitLogger configures zerolog based on LogConfig and returns a logger
// tagged with the owning service's name, mirroring the teacher's
// initLogger but generalized to take the service name as a parameter since
// four processes now share this helper.
func InitLogger(service string, cfg LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var base zerolog.Logger
	if cfg.Pretty {
		base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		base = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	return base.With().Str("service", service).Logger()
}
