package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/glowmart/loyalty/internal/domain/model"
	"github.com/glowmart/loyalty/internal/usecase"
)

// BenefitActivator confirms redeemed benefits with an external system.
type BenefitActivator interface {
	Activate(ctx context.Context, tx *model.Transaction) error
}

// HealthChecker verifies persistence connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ChannelStatus reports realtime channel connectivity.
type ChannelStatus interface {
	Connected() bool
}

// LoyaltyFacade aggregates the loyalty operations exposed to HTTP handlers.
type LoyaltyFacade struct {
	ledger      *usecase.Ledger
	guard       *usecase.RedemptionGuard
	activations *usecase.ActivationQueue
	activator   BenefitActivator
	health      HealthChecker
	channel     ChannelStatus
}

// NewLoyaltyFacade constructs LoyaltyFacade.
func NewLoyaltyFacade(ledger *usecase.Ledger, guard *usecase.RedemptionGuard, activations *usecase.ActivationQueue, activator BenefitActivator, health HealthChecker, channel ChannelStatus) *LoyaltyFacade {
	return &LoyaltyFacade{
		ledger:      ledger,
		guard:       guard,
		activations: activations,
		activator:   activator,
		health:      health,
		channel:     channel,
	}
}

// Balance returns the account aggregate with its tier classification.
func (f *LoyaltyFacade) Balance() (model.Account, model.TierStatus) {
	return f.ledger.Account(), f.ledger.TierStatus()
}

// Tiers returns the tier table.
func (f *LoyaltyFacade) Tiers() []model.TierInfo {
	return model.Tiers()
}

// Transactions returns the bounded history window in append order.
func (f *LoyaltyFacade) Transactions() []model.Transaction {
	return f.ledger.Transactions()
}

// Redeem debits points; when an activator is configured, the external
// confirmation runs through the activation queue.
func (f *LoyaltyFacade) Redeem(ctx context.Context, cost int64, reason string) (*model.Transaction, error) {
	if f.activator == nil {
		return f.guard.Redeem(ctx, cost, reason)
	}
	return f.activations.RedeemWithActivation(ctx, cost, reason, f.activator.Activate)
}

// Compensate re-credits a redemption whose confirmation failed.
func (f *LoyaltyFacade) Compensate(ctx context.Context, originalID uuid.UUID) (*model.Transaction, error) {
	return f.guard.CompensateByID(ctx, originalID)
}

// HealthCheck pings the snapshot store.
func (f *LoyaltyFacade) HealthCheck(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}

// ChannelConnected reports realtime connectivity.
func (f *LoyaltyFacade) ChannelConnected() bool {
	return f.channel.Connected()
}

// PendingActivations reports queued unconfirmed redemptions.
func (f *LoyaltyFacade) PendingActivations() int {
	return f.activations.Pending()
}
