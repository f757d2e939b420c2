package association

import (
	"github.com/citadia/citadia/internal/association/repository"
	"github.com/citadia/citadia/internal/association/service"
	"go.uber.org/fx"
)

var Module = fx.Module("association.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
