package plan

import (
	"github.com/citadia/citadia/internal/plan/repository"
	"github.com/citadia/citadia/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
