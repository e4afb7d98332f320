package campaign

import (
	"github.com/opiniohq/opinio/internal/campaign/repository"
	"github.com/opiniohq/opinio/internal/campaign/service"
	"go.uber.org/fx"
)

var Module = fx.Module("campaign.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
