package store

import (
	"encoding/json"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/frugalops/frugal/types"
)

// CreateAction persists a new action record.
func (s *Store) CreateAction(action types.Action) error {
	return s.put(bucketActions, action.WorkspaceID, action.ID, action)
}

// GetAction loads one action within a workspace.
func (s *Store) GetAction(workspaceID, id string) (*types.Action, error) {
	var action types.Action
	if err := s.get(bucketActions, workspaceID, id, &action); err != nil {
		return nil, err
	}
	return &action, nil
}

// UpdateAction applies a mutation to an action inside one write
// transaction.
func (s *Store) UpdateAction(workspaceID, id string, mutate func(*types.Action)) (*types.Action, error) {
	var action types.Action
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketActions)
		value := bucket.Get(recordKey(workspaceID, id))
		if value == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(value, &action); err != nil {
			return err
		}
		mutate(&action)
		updated, err := json.Marshal(action)
		if err != nil {
			return err
		}
		return bucket.Put(recordKey(workspaceID, id), updated)
	})
	if err != nil {
		return nil, err
	}
	return &action, nil
}

// ListActions returns a workspace's actions, newest execution first.
func (s *Store) ListActions(workspaceID string) ([]types.Action, error) {
	var actions []types.Action
	err := s.forEachInWorkspace(bucketActions, workspaceID, func(v []byte) error {
		var action types.Action
		if err := json.Unmarshal(v, &action); err != nil {
			return err
		}
		actions = append(actions, action)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(actions, func(i, j int) bool {
		return actions[i].ExecutedAt.After(actions[j].ExecutedAt)
	})
	return actions, nil
}
