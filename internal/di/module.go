package di

import (
	"go.uber.org/fx"

	"github.com/glowmart/loyalty/internal/adapter/activation"
	"github.com/glowmart/loyalty/internal/adapter/realtime"
	"github.com/glowmart/loyalty/internal/app"
	"github.com/glowmart/loyalty/internal/config"
	"github.com/glowmart/loyalty/internal/logger"
	"github.com/glowmart/loyalty/internal/server/http/handlers"
	"github.com/glowmart/loyalty/internal/server/http/router"
	"github.com/glowmart/loyalty/internal/storage/postgres"
	"github.com/glowmart/loyalty/internal/usecase"
	"github.com/glowmart/loyalty/internal/worker"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		postgres.Module,
		realtime.Module,
		activation.Module,
		usecase.Module,
		fx.Provide(
			func(f *app.LoyaltyFacade) handlers.LoyaltyFacade { return f },
			func(s *postgres.Storage) app.HealthChecker { return s },
			func(c *realtime.Client) app.ChannelStatus { return c },
			func(c *realtime.Client) worker.EventSource { return c },
			func(l *usecase.Ledger) worker.Ledger { return l },
			func(c activation.Client) app.BenefitActivator {
				if c == nil {
					return nil
				}
				return c
			},
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
