// internal/logging/zerolog.go
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewZerologLogger builds the zerolog logger injected into the database
// and Influx layers. Writes to the given writer, or stderr when nil.
func NewZerologLogger(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
