package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	domainErrors "github.com/glowmart/loyalty/internal/domain/errors"
	"github.com/glowmart/loyalty/internal/domain/model"
	"github.com/glowmart/loyalty/internal/usecase"
)

// Ledger is the subset of ledger operations the reconciler needs.
type Ledger interface {
	Account() model.Account
	HasIdentity(identity string) bool
	Append(ctx context.Context, req usecase.AppendRequest) (*model.Transaction, error)
}

// EventSource delivers inbound realtime events.
type EventSource interface {
	Events() <-chan model.Event
}

// UpgradeFunc receives tier upgrade notifications. Downgrades never notify;
// they are a side effect of redemption, not an external event.
type UpgradeFunc func(from, to model.TierInfo)

// Reconciler applies externally pushed loyalty events to the local ledger:
// it filters foreign accounts, validates payloads, deduplicates under
// at-least-once delivery, and detects tier upgrades.
type Reconciler struct {
	accountID string
	source    EventSource
	ledger    Ledger
	logger    *slog.Logger
	onUpgrade UpgradeFunc

	mu          sync.Mutex
	currentTier model.Tier

	wg     sync.WaitGroup
	cancel context.CancelFunc
	runMu  sync.Mutex
}

// ReconcilerOption customizes reconciler construction.
type ReconcilerOption func(*Reconciler)

// WithUpgradeFunc registers a tier upgrade callback.
func WithUpgradeFunc(fn UpgradeFunc) ReconcilerOption {
	return func(r *Reconciler) { r.onUpgrade = fn }
}

// NewReconciler constructs the reconciler. The tracked tier is seeded from
// the ledger's loaded snapshot so it survives restarts and reconnects.
func NewReconciler(accountID string, source EventSource, ledger Ledger, logger *slog.Logger, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		accountID:   accountID,
		source:      source,
		ledger:      ledger,
		logger:      logger,
		currentTier: ledger.Account().Tier,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the consumer loop.
func (r *Reconciler) Start(ctx context.Context) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.run(runCtx)
}

// Stop waits for the consumer loop to finish.
func (r *Reconciler) Stop() {
	r.runMu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.runMu.Unlock()

	r.wg.Wait()
}

func (r *Reconciler) run(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-r.source.Events():
			if !ok {
				return
			}
			r.handle(ctx, event)
		}
	}
}

func (r *Reconciler) handle(ctx context.Context, event model.Event) {
	if event.Data.UserID != r.accountID {
		r.logger.Debug("discarding event for foreign account", slog.String("user", event.Data.UserID))
		return
	}

	switch event.Type {
	case model.EventPointsEarned:
		if event.Data.Points == nil || *event.Data.Points <= 0 {
			r.logger.Warn("discarding points_earned with missing or non-positive points")
			return
		}
		r.apply(ctx, event, *event.Data.Points, model.TransactionEarned, "points earned")
	case model.EventPointsAdjusted:
		if event.Data.Points == nil || *event.Data.Points == 0 {
			r.logger.Warn("discarding points_adjusted with missing or zero points")
			return
		}
		r.apply(ctx, event, *event.Data.Points, model.TransactionAdjusted, "points adjustment")
	case model.EventTierUpgraded:
		r.applyTierUpgrade(event)
	default:
		r.logger.Debug("ignoring unknown event type", slog.String("type", string(event.Type)))
	}
}

func (r *Reconciler) apply(ctx context.Context, event model.Event, points int64, txType model.TransactionType, defaultReason string) {
	identity := event.Identity()
	if identity != "" && r.ledger.HasIdentity(identity) {
		r.logger.Debug("absorbing duplicate event", slog.String("identity", identity))
		return
	}

	reason := event.Data.Reason
	if reason == "" {
		reason = defaultReason
	}

	tx, err := r.ledger.Append(ctx, usecase.AppendRequest{
		Delta:    points,
		Reason:   reason,
		OrderID:  event.Data.OrderID,
		Type:     txType,
		Identity: identity,
	})
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrDuplicateTransaction):
			r.logger.Debug("absorbing duplicate event", slog.String("identity", identity))
		case errors.Is(err, domainErrors.ErrInsufficientPoints):
			r.logger.Warn("discarding adjustment that would overdraw balance",
				slog.Int64("points", points),
				slog.String("order", event.Data.OrderID),
			)
		default:
			r.logger.Error("failed to apply channel event",
				slog.String("type", string(event.Type)),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	after := model.ClassifyTier(tx.ResultingBalance).Tier.Name
	r.trackTier(after)
}

// trackTier updates the reconciler-owned tier state and notifies only on a
// strict rank increase.
func (r *Reconciler) trackTier(tier model.Tier) {
	r.mu.Lock()
	previous := r.currentTier
	r.currentTier = tier
	r.mu.Unlock()

	if tier.Rank() > previous.Rank() {
		r.notifyUpgrade(previous, tier)
	}
}

func (r *Reconciler) applyTierUpgrade(event model.Event) {
	newTier, err := model.ParseTier(event.Data.NewTier)
	if err != nil {
		r.logger.Warn("discarding tier_upgraded with unknown tier", slog.String("tier", event.Data.NewTier))
		return
	}

	r.mu.Lock()
	previous := r.currentTier
	if newTier.Rank() <= previous.Rank() {
		r.mu.Unlock()
		r.logger.Debug("ignoring tier_upgraded that does not increase rank",
			slog.String("current", string(previous)),
			slog.String("pushed", string(newTier)),
		)
		return
	}
	r.currentTier = newTier
	r.mu.Unlock()

	r.notifyUpgrade(previous, newTier)
}

func (r *Reconciler) notifyUpgrade(from, to model.Tier) {
	r.logger.Info("tier upgraded",
		slog.String("account", r.accountID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	if r.onUpgrade == nil {
		return
	}
	var fromInfo, toInfo model.TierInfo
	for _, info := range model.Tiers() {
		if info.Name == from {
			fromInfo = info
		}
		if info.Name == to {
			toInfo = info
		}
	}
	r.onUpgrade(fromInfo, toInfo)
}

// CurrentTier exposes the tracked tier.
func (r *Reconciler) CurrentTier() model.Tier {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentTier
}
