package store

import (
	"encoding/json"

	"go.etcd.io/bbolt"

	"github.com/frugalops/frugal/types"
)

// PutBudget creates or replaces a budget.
func (s *Store) PutBudget(budget types.Budget) error {
	return s.put(bucketBudgets, budget.WorkspaceID, budget.ID, budget)
}

// GetBudget loads one budget within a workspace.
func (s *Store) GetBudget(workspaceID, id string) (*types.Budget, error) {
	var budget types.Budget
	if err := s.get(bucketBudgets, workspaceID, id, &budget); err != nil {
		return nil, err
	}
	return &budget, nil
}

// ListBudgets returns a workspace's budgets. With activeOnly set,
// deactivated budgets are filtered out.
func (s *Store) ListBudgets(workspaceID string, activeOnly bool) ([]types.Budget, error) {
	var budgets []types.Budget
	err := s.forEachInWorkspace(bucketBudgets, workspaceID, func(v []byte) error {
		var budget types.Budget
		if err := json.Unmarshal(v, &budget); err != nil {
			return err
		}
		if activeOnly && !budget.Active {
			return nil
		}
		budgets = append(budgets, budget)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return budgets, nil
}

// UpdateBudget applies a mutation to a budget inside one write
// transaction.
func (s *Store) UpdateBudget(workspaceID, id string, mutate func(*types.Budget)) (*types.Budget, error) {
	var budget types.Budget
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketBudgets)
		value := bucket.Get(recordKey(workspaceID, id))
		if value == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(value, &budget); err != nil {
			return err
		}
		mutate(&budget)
		updated, err := json.Marshal(budget)
		if err != nil {
			return err
		}
		return bucket.Put(recordKey(workspaceID, id), updated)
	})
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// DeactivateBudget soft-deletes a budget so its spend history stays
// queryable.
func (s *Store) DeactivateBudget(workspaceID, id string) (*types.Budget, error) {
	return s.UpdateBudget(workspaceID, id, func(b *types.Budget) {
		b.Active = false
	})
}
