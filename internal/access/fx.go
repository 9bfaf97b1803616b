package access

import (
	"go.uber.org/fx"

	"github.com/pagelift/pagelift/internal/access/service"
)

var Module = fx.Module("access.service",
	fx.Provide(service.NewService),
)
