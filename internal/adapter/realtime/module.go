package realtime

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/glowmart/loyalty/internal/config"
)

// Module exposes the realtime channel client to the fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (*Client, error) {
	return New(p.Config.RealtimeAddress, p.Config.AccountID, p.Config.ReconnectMaxInterval, p.Logger)
}
