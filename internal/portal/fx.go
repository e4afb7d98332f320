package portal

import (
	"github.com/opiniohq/opinio/internal/portal/repository"
	"github.com/opiniohq/opinio/internal/portal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("portal.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
