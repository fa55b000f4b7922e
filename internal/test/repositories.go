package test

import (
	"context"
	"sync"

	"github.com/glowmart/loyalty/internal/domain/model"
)

// SavedSnapshot records one SaveSnapshot invocation.
type SavedSnapshot struct {
	Account      model.Account
	Transactions []model.Transaction
}

// SnapshotRepositoryStub keeps snapshots in memory for tests.
type SnapshotRepositoryStub struct {
	mu sync.Mutex

	SaveFn func(context.Context, model.Account, []model.Transaction) error
	LoadFn func(context.Context, string, int) (*model.Snapshot, error)

	// Snapshot is returned by the default LoadSnapshot when set.
	Snapshot *model.Snapshot
	Saves    []SavedSnapshot
}

// SaveSnapshot records the invocation and keeps the latest state.
func (s *SnapshotRepositoryStub) SaveSnapshot(ctx context.Context, account model.Account, transactions []model.Transaction) error {
	if s.SaveFn != nil {
		if err := s.SaveFn(ctx, account, transactions); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saves = append(s.Saves, SavedSnapshot{
		Account:      account,
		Transactions: append([]model.Transaction(nil), transactions...),
	})
	return nil
}

// LoadSnapshot returns the configured snapshot or the zero state.
func (s *SnapshotRepositoryStub) LoadSnapshot(ctx context.Context, accountID string, limit int) (*model.Snapshot, error) {
	if s.LoadFn != nil {
		return s.LoadFn(ctx, accountID, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Snapshot != nil {
		snap := *s.Snapshot
		snap.Transactions = append([]model.Transaction(nil), s.Snapshot.Transactions...)
		return &snap, nil
	}
	return &model.Snapshot{CurrentTier: model.TierBronze}, nil
}

// SaveCount reports how many snapshots were written.
func (s *SnapshotRepositoryStub) SaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Saves)
}

// LastSaved returns the most recent snapshot write.
func (s *SnapshotRepositoryStub) LastSaved() (SavedSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Saves) == 0 {
		return SavedSnapshot{}, false
	}
	return s.Saves[len(s.Saves)-1], true
}
