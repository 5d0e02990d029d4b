package datetimed

import (
	"io"
	"log/slog"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
