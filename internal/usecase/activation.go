package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/glowmart/loyalty/internal/domain/model"
)

// ActivationFunc confirms a redeemed benefit with an external system.
type ActivationFunc func(ctx context.Context, tx *model.Transaction) error

type pendingActivation struct {
	tx       *model.Transaction
	activate ActivationFunc
	attempts int
}

// ActivationQueue completes two-phase redemptions: the ledger debit is
// applied optimistically, the external activation is confirmed here. A
// failed activation is retried in the background; once the retry budget is
// exhausted the original redemption is compensated so no redemption is ever
// left unresolved.
type ActivationQueue struct {
	guard       *RedemptionGuard
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger

	mu      sync.Mutex
	pending []*pendingActivation

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewActivationQueue constructs the queue worker.
func NewActivationQueue(guard *RedemptionGuard, interval time.Duration, maxAttempts int, logger *slog.Logger) *ActivationQueue {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &ActivationQueue{
		guard:       guard,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// RedeemWithActivation applies the redemption locally and confirms it
// externally. The ledger debit is immediate; an activation failure queues a
// background retry instead of failing the redemption.
func (q *ActivationQueue) RedeemWithActivation(ctx context.Context, cost int64, reason string, activate ActivationFunc) (*model.Transaction, error) {
	tx, err := q.guard.Redeem(ctx, cost, reason)
	if err != nil {
		return nil, err
	}
	if activate == nil {
		return tx, nil
	}

	if err := activate(ctx, tx); err != nil {
		q.logger.Warn("benefit activation failed, queued for retry",
			slog.String("transaction", tx.ID.String()),
			slog.String("error", err.Error()),
		)
		q.enqueue(&pendingActivation{tx: tx, activate: activate, attempts: 1})
	}
	return tx, nil
}

func (q *ActivationQueue) enqueue(p *pendingActivation) {
	q.mu.Lock()
	q.pending = append(q.pending, p)
	q.mu.Unlock()
}

// Pending reports the number of unconfirmed activations.
func (q *ActivationQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Start launches the background retry loop.
func (q *ActivationQueue) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ticker := time.NewTicker(q.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				q.drain(runCtx)
			}
		}
	}()
}

// Stop halts retries and compensates anything still unconfirmed, so points
// are returned rather than lost for benefits that were never activated.
func (q *ActivationQueue) Stop() {
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	q.wg.Wait()

	q.mu.Lock()
	remaining := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, p := range remaining {
		q.compensate(context.Background(), p)
	}
}

func (q *ActivationQueue) drain(ctx context.Context) {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, p := range batch {
		if ctx.Err() != nil {
			q.mu.Lock()
			q.pending = append(q.pending, p)
			q.mu.Unlock()
			continue
		}

		if err := p.activate(ctx, p.tx); err == nil {
			q.logger.Info("benefit activation confirmed", slog.String("transaction", p.tx.ID.String()))
			continue
		} else {
			p.attempts++
			q.logger.Warn("benefit activation retry failed",
				slog.String("transaction", p.tx.ID.String()),
				slog.Int("attempts", p.attempts),
				slog.String("error", err.Error()),
			)
		}

		if p.attempts >= q.maxAttempts {
			q.compensate(ctx, p)
			continue
		}

		q.mu.Lock()
		q.pending = append(q.pending, p)
		q.mu.Unlock()
	}
}

func (q *ActivationQueue) compensate(ctx context.Context, p *pendingActivation) {
	if _, err := q.guard.Compensate(ctx, p.tx); err != nil {
		q.logger.Error("compensation failed",
			slog.String("transaction", p.tx.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	q.logger.Info("unconfirmed redemption compensated", slog.String("transaction", p.tx.ID.String()))
}
