package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	domainErrors "github.com/glowmart/loyalty/internal/domain/errors"
	"github.com/glowmart/loyalty/internal/domain/model"
)

// DowngradePolicy decides what happens when a redemption would drop the
// balance below the current tier's threshold.
type DowngradePolicy string

const (
	DowngradeAllow DowngradePolicy = "allow"
	DowngradeBlock DowngradePolicy = "block"
)

// ParseDowngradePolicy validates a policy value from configuration.
func ParseDowngradePolicy(s string) (DowngradePolicy, error) {
	switch p := DowngradePolicy(s); p {
	case DowngradeAllow, DowngradeBlock:
		return p, nil
	default:
		return "", fmt.Errorf("unknown tier downgrade policy %q", s)
	}
}

// RedemptionGuard validates and applies debit transactions against the
// ledger, and issues compensating transactions when an optimistic
// redemption's external confirmation fails.
type RedemptionGuard struct {
	ledger *Ledger
	policy DowngradePolicy
	logger *slog.Logger
}

// NewRedemptionGuard constructs the guard over a ledger.
func NewRedemptionGuard(ledger *Ledger, policy DowngradePolicy, logger *slog.Logger) *RedemptionGuard {
	if policy == "" {
		policy = DowngradeAllow
	}
	return &RedemptionGuard{ledger: ledger, policy: policy, logger: logger}
}

// CanRedeem reports whether the current balance covers the cost.
func (g *RedemptionGuard) CanRedeem(cost int64) bool {
	return cost > 0 && cost <= g.ledger.Account().Balance
}

// Redeem applies a debit of cost points. Validation errors leave the ledger
// untouched. The balance and downgrade-policy checks run inside the ledger's
// critical section, so concurrent redemptions cannot slip past the policy on
// a stale balance read.
func (g *RedemptionGuard) Redeem(ctx context.Context, cost int64, reason string) (*model.Transaction, error) {
	if cost <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}
	if strings.TrimSpace(reason) == "" {
		return nil, domainErrors.ErrEmptyReason
	}

	return g.ledger.Append(ctx, AppendRequest{
		Delta:  -cost,
		Reason: reason,
		Type:   model.TransactionRedeemed,
		Check:  g.redeemCheck(cost),
	})
}

// redeemCheck validates a debit against the serialized account state.
func (g *RedemptionGuard) redeemCheck(cost int64) func(model.Account) error {
	return func(account model.Account) error {
		if cost > account.Balance {
			return domainErrors.ErrInsufficientPoints
		}

		current := model.ClassifyTier(account.Balance)
		after := model.ClassifyTier(account.Balance - cost)
		if after.Rank < current.Rank {
			if g.policy == DowngradeBlock {
				return domainErrors.ErrTierDowngradeBlocked
			}
			g.logger.Warn("redemption drops account below tier threshold",
				slog.String("account", account.ID),
				slog.String("from", string(current.Tier.Name)),
				slog.String("to", string(after.Tier.Name)),
			)
		}
		return nil
	}
}

// Compensate re-credits the account for a redemption whose external
// confirmation failed. Idempotent within the retained window: a second call
// for the same original transaction returns the existing compensation
// without double-crediting. Once the compensating entry has been evicted
// from the window only its reference index survives, so a repeat attempt
// reports ErrDuplicateCompensation instead of the prior transaction.
func (g *RedemptionGuard) Compensate(ctx context.Context, original *model.Transaction) (*model.Transaction, error) {
	if original == nil || original.Type != model.TransactionRedeemed || original.Points >= 0 {
		return nil, domainErrors.ErrInvalidCompensation
	}

	if tx, ok := g.ledger.Compensation(original.ID); ok {
		if tx == nil {
			return nil, domainErrors.ErrDuplicateCompensation
		}
		return tx, nil
	}

	tx, err := g.ledger.Append(ctx, AppendRequest{
		Delta:  -original.Points,
		Reason: fmt.Sprintf("reversal of %s: %s", original.ID, original.Reason),
		Type:   model.TransactionAdjusted,
		RefID:  &original.ID,
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrDuplicateCompensation) {
			if existing, ok := g.ledger.Compensation(original.ID); ok && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	g.logger.Info("redemption compensated",
		slog.String("original", original.ID.String()),
		slog.String("compensation", tx.ID.String()),
		slog.Int64("points", tx.Points),
	)
	return tx, nil
}

// CompensateByID resolves the original transaction within the bounded
// window and compensates it.
func (g *RedemptionGuard) CompensateByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	original, ok := g.ledger.TransactionByID(id)
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return g.Compensate(ctx, original)
}
