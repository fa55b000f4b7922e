package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glowmart/loyalty/internal/domain/model"
)

// pgxPool is the subset of pgxpool.Pool the storage uses; pgxmock satisfies
// it in tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage persists loyalty account snapshots in PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS loyalty_accounts (
            account_id TEXT PRIMARY KEY,
            balance BIGINT NOT NULL DEFAULT 0,
            tier TEXT NOT NULL DEFAULT 'bronze',
            total_earned BIGINT NOT NULL DEFAULT 0,
            total_redeemed BIGINT NOT NULL DEFAULT 0,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS loyalty_transactions (
            id UUID PRIMARY KEY,
            account_id TEXT NOT NULL REFERENCES loyalty_accounts(account_id),
            type TEXT NOT NULL,
            points BIGINT NOT NULL,
            reason TEXT NOT NULL,
            order_id TEXT,
            ref_id UUID,
            identity TEXT,
            resulting_balance BIGINT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_loyalty_tx_account ON loyalty_transactions(account_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// SaveSnapshot durably replaces the account row and its bounded transaction
// window in one transaction.
func (s *Storage) SaveSnapshot(ctx context.Context, account model.Account, transactions []model.Transaction) error {
	return s.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const upsertAccount = `INSERT INTO loyalty_accounts (account_id, balance, tier, total_earned, total_redeemed, updated_at)
                               VALUES ($1, $2, $3, $4, $5, NOW())
                               ON CONFLICT (account_id) DO UPDATE
                               SET balance = EXCLUDED.balance,
                                   tier = EXCLUDED.tier,
                                   total_earned = EXCLUDED.total_earned,
                                   total_redeemed = EXCLUDED.total_redeemed,
                                   updated_at = NOW()`
		if _, err := tx.Exec(ctx, upsertAccount, account.ID, account.Balance, string(account.Tier), account.TotalEarned, account.TotalRedeemed); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM loyalty_transactions WHERE account_id=$1`, account.ID); err != nil {
			return err
		}

		const insertTx = `INSERT INTO loyalty_transactions
                          (id, account_id, type, points, reason, order_id, ref_id, identity, resulting_balance, created_at)
                          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
		for _, t := range transactions {
			var orderID, identity *string
			if t.OrderID != "" {
				orderID = &t.OrderID
			}
			if t.Identity != "" {
				identity = &t.Identity
			}
			if _, err := tx.Exec(ctx, insertTx, t.ID, account.ID, string(t.Type), t.Points, t.Reason, orderID, t.RefID, identity, t.ResultingBalance, t.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadSnapshot restores the account summary and the most recent
// transactions. A missing account yields the zero snapshot; a snapshot that
// fails to decode resets to zero state with a diagnostic log instead of
// failing startup.
func (s *Storage) LoadSnapshot(ctx context.Context, accountID string, limit int) (*model.Snapshot, error) {
	const accountQuery = `SELECT balance, tier, total_earned, total_redeemed
                          FROM loyalty_accounts WHERE account_id=$1`

	var (
		snap model.Snapshot
		tier string
	)
	err := s.pool.QueryRow(ctx, accountQuery, accountID).Scan(&snap.CurrentPoints, &tier, &snap.TotalEarned, &snap.TotalRedeemed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.Snapshot{CurrentTier: model.TierBronze}, nil
		}
		return nil, err
	}

	parsedTier, err := model.ParseTier(tier)
	if err != nil {
		return s.resetCorrupt(accountID, err), nil
	}
	snap.CurrentTier = parsedTier

	transactions, err := s.loadTransactions(ctx, accountID, limit)
	if err != nil {
		if isCorrupt(err) {
			return s.resetCorrupt(accountID, err), nil
		}
		return nil, err
	}
	snap.Transactions = transactions
	return &snap, nil
}

type corruptSnapshotError struct {
	err error
}

func (e *corruptSnapshotError) Error() string { return fmt.Sprintf("corrupt snapshot: %v", e.err) }
func (e *corruptSnapshotError) Unwrap() error { return e.err }

func isCorrupt(err error) bool {
	var c *corruptSnapshotError
	return errors.As(err, &c)
}

func (s *Storage) resetCorrupt(accountID string, cause error) *model.Snapshot {
	s.logger.Error("stored snapshot is corrupt, resetting account to zero state",
		slog.String("account", accountID),
		slog.String("error", cause.Error()),
	)
	return &model.Snapshot{CurrentTier: model.TierBronze}
}

func (s *Storage) loadTransactions(ctx context.Context, accountID string, limit int) ([]model.Transaction, error) {
	const query = `SELECT id, type, points, reason, order_id, ref_id, identity, resulting_balance, created_at
                   FROM loyalty_transactions WHERE account_id=$1
                   ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := s.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Transaction
	for rows.Next() {
		var (
			t        model.Transaction
			txType   string
			orderID  *string
			refID    *uuid.UUID
			identity *string
		)
		if err := rows.Scan(&t.ID, &txType, &t.Points, &t.Reason, &orderID, &refID, &identity, &t.ResultingBalance, &t.CreatedAt); err != nil {
			return nil, &corruptSnapshotError{err: err}
		}
		parsed, err := model.ParseTransactionType(txType)
		if err != nil {
			return nil, &corruptSnapshotError{err: err}
		}
		t.Type = parsed
		if orderID != nil {
			t.OrderID = *orderID
		}
		t.RefID = refID
		if identity != nil {
			t.Identity = *identity
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows arrive newest first; the window is kept in append order.
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result, nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
