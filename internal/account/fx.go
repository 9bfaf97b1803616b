package account

import (
	"go.uber.org/fx"

	accessdomain "github.com/pagelift/pagelift/internal/access/domain"
	"github.com/pagelift/pagelift/internal/account/domain"
	"github.com/pagelift/pagelift/internal/account/repository"
	"github.com/pagelift/pagelift/internal/account/service"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(func(svc domain.Service) accessdomain.PlanStore { return svc }),
)
