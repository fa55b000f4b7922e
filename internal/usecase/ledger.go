package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/glowmart/loyalty/internal/domain/errors"
	"github.com/glowmart/loyalty/internal/domain/model"
	"github.com/glowmart/loyalty/internal/domain/repository"
)

// DefaultHistoryLimit bounds the persisted transaction window.
const DefaultHistoryLimit = 100

// TierChange describes a tier transition caused by a ledger mutation.
type TierChange struct {
	From    model.TierInfo
	To      model.TierInfo
	Upgrade bool
}

// TierChangeFunc receives tier transition notifications.
type TierChangeFunc func(TierChange)

// AppendRequest describes one ledger mutation. Check, when set, validates
// the mutation against the account state inside the ledger's critical
// section, so callers can enforce balance-dependent policies without a
// check-then-act race on a stale read.
type AppendRequest struct {
	Delta    int64
	Reason   string
	OrderID  string
	Type     model.TransactionType
	RefID    *uuid.UUID
	Identity string
	Check    func(account model.Account) error
}

// Ledger owns the state of a single account: the authoritative balance,
// running totals, and the bounded transaction window. All mutations are
// serialized behind one mutex; the redemption guard and the realtime
// reconciler share this serialization domain.
type Ledger struct {
	repo   repository.SnapshotRepository
	logger *slog.Logger
	limit  int

	mu            sync.Mutex
	account       model.Account
	window        []model.Transaction
	identities    map[string]struct{}
	compensations map[uuid.UUID]uuid.UUID

	onTierChange TierChangeFunc
}

// LedgerOption customizes ledger construction.
type LedgerOption func(*Ledger)

// WithTierChangeFunc registers a callback invoked after a mutation changes
// the account tier. The callback runs outside the ledger lock.
func WithTierChangeFunc(fn TierChangeFunc) LedgerOption {
	return func(l *Ledger) { l.onTierChange = fn }
}

// NewLedger loads the account snapshot and builds the in-memory state.
// A missing snapshot yields the zero-value account.
func NewLedger(ctx context.Context, accountID string, limit int, repo repository.SnapshotRepository, logger *slog.Logger, opts ...LedgerOption) (*Ledger, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	snap, err := repo.LoadSnapshot(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	account := snap.Account(accountID)
	// The balance is authoritative; the stored tier is only a cache.
	account.Tier = model.ClassifyTier(account.Balance).Tier.Name

	l := &Ledger{
		repo:          repo,
		logger:        logger,
		limit:         limit,
		account:       account,
		window:        append([]model.Transaction(nil), snap.Transactions...),
		identities:    make(map[string]struct{}, len(snap.Transactions)),
		compensations: make(map[uuid.UUID]uuid.UUID),
	}
	for _, tx := range l.window {
		if tx.Identity != "" {
			l.identities[tx.Identity] = struct{}{}
		}
		if tx.RefID != nil {
			l.compensations[*tx.RefID] = tx.ID
		}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Append validates and applies one mutation: it records the transaction,
// updates balance and totals, reclassifies the tier, and persists the
// snapshot before committing in memory.
func (l *Ledger) Append(ctx context.Context, req AppendRequest) (*model.Transaction, error) {
	if req.Delta == 0 {
		return nil, domainErrors.ErrInvalidAmount
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, domainErrors.ErrEmptyReason
	}

	txType := req.Type
	if txType == "" {
		if req.Delta > 0 {
			txType = model.TransactionEarned
		} else {
			txType = model.TransactionRedeemed
		}
	}
	if err := checkSign(txType, req.Delta); err != nil {
		return nil, err
	}

	l.mu.Lock()
	notify, tx, err := l.appendLocked(ctx, req, txType)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if notify != nil && l.onTierChange != nil {
		l.onTierChange(*notify)
	}
	return tx, nil
}

func (l *Ledger) appendLocked(ctx context.Context, req AppendRequest, txType model.TransactionType) (*TierChange, *model.Transaction, error) {
	if req.Identity != "" {
		if _, seen := l.identities[req.Identity]; seen {
			return nil, nil, domainErrors.ErrDuplicateTransaction
		}
	}
	if req.RefID != nil {
		if _, seen := l.compensations[*req.RefID]; seen {
			return nil, nil, domainErrors.ErrDuplicateCompensation
		}
	}
	if req.Check != nil {
		if err := req.Check(l.account); err != nil {
			return nil, nil, err
		}
	}

	next := l.account.Balance + req.Delta
	if next < 0 {
		return nil, nil, domainErrors.ErrInsufficientPoints
	}

	tx := model.Transaction{
		ID:               uuid.Must(uuid.NewV7()),
		Type:             txType,
		Points:           req.Delta,
		Reason:           req.Reason,
		OrderID:          req.OrderID,
		RefID:            req.RefID,
		Identity:         req.Identity,
		ResultingBalance: next,
		CreatedAt:        time.Now().UTC(),
	}

	account := l.account
	account.Balance = next
	switch txType {
	case model.TransactionEarned:
		account.TotalEarned += req.Delta
	case model.TransactionRedeemed:
		account.TotalRedeemed += -req.Delta
	case model.TransactionExpired:
		// Third ledger leg: debits the balance without counting as redemption.
	case model.TransactionAdjusted:
		switch {
		case req.RefID != nil:
			// Compensation reverses a redemption.
			account.TotalRedeemed -= req.Delta
		case req.Delta > 0:
			account.TotalEarned += req.Delta
		default:
			account.TotalRedeemed += -req.Delta
		}
	}

	before := model.ClassifyTier(l.account.Balance)
	after := model.ClassifyTier(next)
	account.Tier = after.Tier.Name

	window := append(append([]model.Transaction(nil), l.window...), tx)
	if len(window) > l.limit {
		window = window[len(window)-l.limit:]
	}

	if err := l.repo.SaveSnapshot(ctx, account, window); err != nil {
		return nil, nil, fmt.Errorf("persist snapshot: %w", err)
	}

	l.account = account
	l.window = window
	if tx.Identity != "" {
		l.identities[tx.Identity] = struct{}{}
	}
	if tx.RefID != nil {
		l.compensations[*tx.RefID] = tx.ID
	}

	l.logger.Info("ledger append",
		slog.String("account", account.ID),
		slog.String("type", string(tx.Type)),
		slog.Int64("points", tx.Points),
		slog.Int64("balance", tx.ResultingBalance),
	)

	var notify *TierChange
	if after.Rank != before.Rank {
		notify = &TierChange{From: before.Tier, To: after.Tier, Upgrade: after.Rank > before.Rank}
	}
	return notify, &tx, nil
}

func checkSign(txType model.TransactionType, delta int64) error {
	switch txType {
	case model.TransactionEarned:
		if delta < 0 {
			return domainErrors.ErrInvalidAmount
		}
	case model.TransactionRedeemed, model.TransactionExpired:
		if delta > 0 {
			return domainErrors.ErrInvalidAmount
		}
	}
	return nil
}

// Account returns a copy of the current account aggregate.
func (l *Ledger) Account() model.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.account
}

// TierStatus classifies the current balance.
func (l *Ledger) TierStatus() model.TierStatus {
	l.mu.Lock()
	balance := l.account.Balance
	l.mu.Unlock()
	return model.ClassifyTier(balance)
}

// Transactions returns a copy of the bounded window in append order.
func (l *Ledger) Transactions() []model.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Transaction(nil), l.window...)
}

// HasIdentity reports whether a transaction with the given identity has
// already been applied.
func (l *Ledger) HasIdentity(identity string) bool {
	if identity == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.identities[identity]
	return ok
}

// Compensation returns the compensating transaction referencing the given
// original transaction id, if one exists in the window.
func (l *Ledger) Compensation(refID uuid.UUID) (*model.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.compensations[refID]
	if !ok {
		return nil, false
	}
	for i := range l.window {
		if l.window[i].ID == id {
			tx := l.window[i]
			return &tx, true
		}
	}
	// Compensation evicted from the window; identity is still known.
	return nil, true
}

// TransactionByID looks a transaction up within the bounded window.
func (l *Ledger) TransactionByID(id uuid.UUID) (*model.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.window {
		if l.window[i].ID == id {
			tx := l.window[i]
			return &tx, true
		}
	}
	return nil, false
}
