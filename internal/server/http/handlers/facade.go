package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/glowmart/loyalty/internal/domain/model"
)

// BalanceFacade exposes read access to the account state.
type BalanceFacade interface {
	Balance() (model.Account, model.TierStatus)
	Tiers() []model.TierInfo
	Transactions() []model.Transaction
}

// RedemptionFacade exposes redemption and compensation operations.
type RedemptionFacade interface {
	Redeem(ctx context.Context, cost int64, reason string) (*model.Transaction, error)
	Compensate(ctx context.Context, originalID uuid.UUID) (*model.Transaction, error)
}

// HealthFacade exposes component health indicators.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
	ChannelConnected() bool
	PendingActivations() int
}

// LoyaltyFacade aggregates the full set of operations used across handlers.
type LoyaltyFacade interface {
	BalanceFacade
	RedemptionFacade
	HealthFacade
}
