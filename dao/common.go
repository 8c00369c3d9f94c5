package dao

import (
	"errors"
	"log/slog"

	"github.com/Jesteban247/Med-vision-detect/config"
)

var (
	ErrCSVPathRequired = errors.New("csv 路径为空")
	ErrNoRecords       = errors.New("没有可保存的记录")
)

func daoLogger() *slog.Logger {
	if config.AppLogger != nil {
		return config.AppLogger.With("layer", "dao")
	}
	if config.AppConfig == nil {
		return slog.Default().With("layer", "dao")
	}
	return config.EnsureLoggerInitialized().With("layer", "dao")
}
