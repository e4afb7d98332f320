package subscription

import (
	"github.com/opiniohq/opinio/internal/subscription/repository"
	"github.com/opiniohq/opinio/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
