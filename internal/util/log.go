package util

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/CodeAndHammer/rootword/internal/constants"
)

// SetupLogger configures the global zerolog logger. format is "json" or
// "console"; unknown levels fall back to info.
func SetupLogger(level, format string) {
	SetupLoggerTo(os.Stderr, level, format)
}

func SetupLoggerTo(w io.Writer, level, format string) {
	if strings.EqualFold(format, "json") {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// Logger returns the global logger enriched with the request id carried by
// ctx, if any.
func Logger(ctx context.Context) *zerolog.Logger {
	l := log.Logger
	if ctx != nil {
		if reqID, _ := ctx.Value(constants.RequestIDKey).(string); reqID != "" {
			l = l.With().Str("request_id", reqID).Logger()
		}
	}
	return &l
}

func LogDebug(format string, v ...any) {
	log.Debug().Msgf(format, v...)
}

func LogInfo(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func LogWarn(format string, v ...any) {
	log.Warn().Msgf(format, v...)
}

func LogError(err error, format string, v ...any) {
	log.Error().Err(err).Msgf(format, v...)
}

func LogFatal(format string, v ...any) {
	log.Fatal().Msgf(format, v...)
}
