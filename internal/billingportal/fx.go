package billingportal

import (
	"github.com/citadia/citadia/internal/billingportal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billingportal.service",
	fx.Provide(service.NewService),
)
