package tenant

import (
	"github.com/citadia/citadia/internal/tenant/repository"
	"github.com/citadia/citadia/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
