package company

import (
	"github.com/opiniohq/opinio/internal/company/repository"
	"github.com/opiniohq/opinio/internal/company/service"
	"go.uber.org/fx"
)

var Module = fx.Module("company.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
