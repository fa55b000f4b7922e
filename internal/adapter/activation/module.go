package activation

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/glowmart/loyalty/internal/config"
)

// Module exposes the activation client implementation to the fx graph. A
// missing activation address yields a nil Client: redemptions then complete
// without external confirmation.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	if p.Config.ActivationAddress == "" {
		return nil, nil
	}
	return NewHTTPClient(p.Config.ActivationAddress, p.Logger)
}
