package business

import (
	"go.uber.org/fx"

	"github.com/pagelift/pagelift/internal/business/repository"
	"github.com/pagelift/pagelift/internal/business/service"
)

var Module = fx.Module("business.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(service.NewCounter),
)
