// Package logger builds the structured loggers used by a geocoding run.
package logger

import (
	"io"
	"log/slog"
)

// Constants for different environment types.
const (
	EnvLocal = "local"
	EnvDev   = "development"
	EnvProd  = "production"
)

// New returns a logger for the given environment writing to w.
// Every handler is wrapped in a SecureHandler so provider keys never reach the log.
//
// Successes are logged at info level, so no environment raises the level above info:
// the run log has to record them.
func New(env string, w io.Writer) *slog.Logger {
	var handler slog.Handler

	switch env {
	case EnvLocal:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		})
	case EnvDev:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	case EnvProd:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.SourceKey {
					return slog.Attr{}
				}
				return a
			},
		})
	default:
		log := slog.New(NewSecureHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})))
		log.Warn(
			"The env parameter was not specified or was invalid, falling back to defaults.",
			slog.String("available_envs", "local, development, production"))

		return log
	}

	return slog.New(NewSecureHandler(handler))
}
