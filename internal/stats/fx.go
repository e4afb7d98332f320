package stats

import (
	"github.com/opiniohq/opinio/internal/stats/repository"
	"github.com/opiniohq/opinio/internal/stats/service"
	"go.uber.org/fx"
)

var Module = fx.Module("stats.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
