package mandate

import (
	"github.com/citadia/citadia/internal/mandate/repository"
	"github.com/citadia/citadia/internal/mandate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("mandate.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
