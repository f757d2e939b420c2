package dashboard

import (
	"github.com/citadia/citadia/internal/dashboard/repository"
	"github.com/citadia/citadia/internal/dashboard/service"
	"go.uber.org/fx"
)

var Module = fx.Module("dashboard.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
