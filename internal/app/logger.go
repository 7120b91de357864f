package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the application logger. Production always emits JSON for
// log shippers; elsewhere the format follows LOG_FORMAT, defaulting to
// readable text for local runs.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg != nil && (cfg.IsProduction() || cfg.LogFormat == "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
