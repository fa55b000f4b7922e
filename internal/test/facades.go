package test

import (
	"context"

	"github.com/google/uuid"

	"github.com/glowmart/loyalty/internal/domain/model"
)

// LoyaltyFacadeStub lets handler tests control facade behaviour.
type LoyaltyFacadeStub struct {
	Account model.Account
	Status  model.TierStatus
	Txs     []model.Transaction

	RedeemFn     func(context.Context, int64, string) (*model.Transaction, error)
	CompensateFn func(context.Context, uuid.UUID) (*model.Transaction, error)

	HealthErr   error
	ChannelUp   bool
	PendingJobs int
}

func (s *LoyaltyFacadeStub) Balance() (model.Account, model.TierStatus) {
	return s.Account, s.Status
}

func (s *LoyaltyFacadeStub) Tiers() []model.TierInfo {
	return model.Tiers()
}

func (s *LoyaltyFacadeStub) Transactions() []model.Transaction {
	return s.Txs
}

func (s *LoyaltyFacadeStub) Redeem(ctx context.Context, cost int64, reason string) (*model.Transaction, error) {
	if s.RedeemFn != nil {
		return s.RedeemFn(ctx, cost, reason)
	}
	tx := model.Transaction{ID: uuid.Must(uuid.NewV7()), Type: model.TransactionRedeemed, Points: -cost, Reason: reason}
	return &tx, nil
}

func (s *LoyaltyFacadeStub) Compensate(ctx context.Context, originalID uuid.UUID) (*model.Transaction, error) {
	if s.CompensateFn != nil {
		return s.CompensateFn(ctx, originalID)
	}
	tx := model.Transaction{ID: uuid.Must(uuid.NewV7()), Type: model.TransactionAdjusted, RefID: &originalID}
	return &tx, nil
}

func (s *LoyaltyFacadeStub) HealthCheck(ctx context.Context) error {
	return s.HealthErr
}

func (s *LoyaltyFacadeStub) ChannelConnected() bool {
	return s.ChannelUp
}

func (s *LoyaltyFacadeStub) PendingActivations() int {
	return s.PendingJobs
}

// EventSourceStub feeds scripted events to the reconciler.
type EventSourceStub struct {
	Ch chan model.Event
}

// NewEventSourceStub creates a buffered event source.
func NewEventSourceStub(buffer int) *EventSourceStub {
	return &EventSourceStub{Ch: make(chan model.Event, buffer)}
}

func (s *EventSourceStub) Events() <-chan model.Event {
	return s.Ch
}
