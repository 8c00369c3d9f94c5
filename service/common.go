package service

import (
	"log/slog"

	"github.com/Jesteban247/Med-vision-detect/config"
)

func serviceLogger() *slog.Logger {
	if config.AppLogger != nil {
		return config.AppLogger.With("layer", "service")
	}
	// 配置未初始化时（测试场景）不建文件日志
	if config.AppConfig == nil {
		return slog.Default().With("layer", "service")
	}
	return config.EnsureLoggerInitialized().With("layer", "service")
}
