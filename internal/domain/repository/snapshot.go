package repository

import (
	"context"

	"github.com/glowmart/loyalty/internal/domain/model"
)

// SnapshotRepository persists the account summary and its bounded
// transaction window. SaveSnapshot must be durable before a mutation is
// acknowledged to the caller.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, account model.Account, transactions []model.Transaction) error
	LoadSnapshot(ctx context.Context, accountID string, limit int) (*model.Snapshot, error)
}
