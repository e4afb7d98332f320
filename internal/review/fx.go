package review

import (
	"github.com/opiniohq/opinio/internal/review/repository"
	"github.com/opiniohq/opinio/internal/review/service"
	"go.uber.org/fx"
)

var Module = fx.Module("review.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
