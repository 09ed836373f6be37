// Package obs contains observability utilities such as logging and metrics.
package obs

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global structured logger used by the service.
//
// It writes JSON to stdout until InitLogger reconfigures it.
var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// LogConfig selects level and output format of the global Logger.
type LogConfig struct {
	Level  string
	Format string // json or console
	Output io.Writer
}

// InitLogger replaces the global Logger.
func InitLogger(cfg LogConfig) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	var zl zerolog.Logger
	if cfg.Format == "console" {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	} else {
		zl = zerolog.New(out)
	}
	Logger = zl.Level(parseLevel(cfg.Level)).With().
		Timestamp().
		Str("service", "product-catalog-service").
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

type ctxKey int

const ctxKeyRequestID ctxKey = iota

// ContextWithRequestID attaches a request id to ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestIDFromContext returns the request id stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}
