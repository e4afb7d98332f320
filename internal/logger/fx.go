package logger

import (
	"context"

	"github.com/opiniohq/opinio/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func fromConfig(cfg config.Config) (*zap.Logger, error) {
	return New(cfg.LogLevel)
}

// Module provides the application logger and flushes it on shutdown.
var Module = fx.Module("logger",
	fx.Provide(fromConfig),
	fx.Invoke(func(lc fx.Lifecycle, log *zap.Logger) {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				_ = log.Sync()
				return nil
			},
		})
	}),
)
