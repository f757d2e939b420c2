package stripebilling

import (
	"github.com/citadia/citadia/internal/stripebilling/gateway"
	"github.com/citadia/citadia/internal/stripebilling/repository"
	"github.com/citadia/citadia/internal/stripebilling/service"
	"go.uber.org/fx"
)

var Module = fx.Module("stripebilling.service",
	fx.Provide(gateway.New),
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
