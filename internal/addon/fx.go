package addon

import (
	"github.com/citadia/citadia/internal/addon/repository"
	"github.com/citadia/citadia/internal/addon/service"
	"go.uber.org/fx"
)

var Module = fx.Module("addon.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
