package telemetry

import (
	"io"
	"log"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"go.opentelemetry.io/otel"
)

// NewLogger builds the process logger writing to out. Verbosity follows logr:
// 0 lifecycle, 1 per-symbol detail, 2 per-frame detail.
// The logger is also installed as the OpenTelemetry internal logger.
func NewLogger(out io.Writer, verbosity int) logr.Logger {
	stdr.SetVerbosity(verbosity)
	logger := stdr.NewWithOptions(log.New(out, "", log.LstdFlags|log.Lmicroseconds), stdr.Options{
		LogCaller: stdr.None,
	})
	otel.SetLogger(logger.WithName("otel"))
	return logger.WithName(serviceName)
}
