package activity

import (
	"go.uber.org/fx"

	"github.com/pagelift/pagelift/internal/activity/repository"
	"github.com/pagelift/pagelift/internal/activity/service"
)

var Module = fx.Module("activity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
