package audit

import (
	"github.com/citadia/citadia/internal/audit/repository"
	"github.com/citadia/citadia/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
