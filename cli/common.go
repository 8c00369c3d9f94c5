package cli

import (
	"log/slog"

	"github.com/Jesteban247/Med-vision-detect/config"
)

func cliLogger() *slog.Logger {
	if config.AppLogger != nil {
		return config.AppLogger.With("layer", "cli")
	}
	if config.AppConfig == nil {
		return slog.Default().With("layer", "cli")
	}
	return config.EnsureLoggerInitialized().With("layer", "cli")
}
