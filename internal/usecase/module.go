package usecase

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/glowmart/loyalty/internal/config"
	"github.com/glowmart/loyalty/internal/domain/repository"
)

// Module provides the ledger, the redemption guard, and the activation
// queue to the fx container.
var Module = fx.Provide(
	newLedger,
	newRedemptionGuard,
	newActivationQueue,
)

type ledgerParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Repo   repository.SnapshotRepository
	Logger *slog.Logger
}

func newLedger(p ledgerParams) (*Ledger, error) {
	notify := func(c TierChange) {
		p.Logger.Info("tier changed",
			slog.String("account", p.Config.AccountID),
			slog.String("from", string(c.From.Name)),
			slog.String("to", string(c.To.Name)),
			slog.Bool("upgrade", c.Upgrade),
		)
	}
	return NewLedger(p.Ctx, p.Config.AccountID, p.Config.HistoryLimit, p.Repo, p.Logger, WithTierChangeFunc(notify))
}

type guardParams struct {
	fx.In

	Config *config.Config
	Ledger *Ledger
	Logger *slog.Logger
}

func newRedemptionGuard(p guardParams) (*RedemptionGuard, error) {
	policy, err := ParseDowngradePolicy(p.Config.TierDowngradeOnRedeem)
	if err != nil {
		return nil, err
	}
	return NewRedemptionGuard(p.Ledger, policy, p.Logger), nil
}

type queueParams struct {
	fx.In

	Config *config.Config
	Guard  *RedemptionGuard
	Logger *slog.Logger
}

func newActivationQueue(p queueParams) *ActivationQueue {
	return NewActivationQueue(p.Guard, p.Config.ActivationRetryInterval, p.Config.ActivationMaxAttempts, p.Logger)
}
