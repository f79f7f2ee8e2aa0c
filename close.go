package crul

import (
	"io"
	"log/slog"
)

// CloseWithLog closes a resource owned by an Instance, such as the event
// journal, from a defer where the error has nowhere to go. A close error is
// logged at warn level. A nil closer is ignored; a nil logger means
// slog.Default().
func CloseWithLog(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := closer.Close(); err != nil {
		logger.Warn("close failed",
			"component", "crul",
			"resource", name,
			"error", err,
		)
	}
}
