package store

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/frugalops/frugal/types"
)

func pendingKey(workspaceID, resourceID string, kind types.RecommendationKind) string {
	return workspaceID + "/" + resourceID + "/" + string(kind)
}

// rebuildPendingIndex reloads the in-memory dedup index from disk.
func (s *Store) rebuildPendingIndex() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending.Clear(false)
	return s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecommendations).ForEach(func(_, v []byte) error {
			var rec types.Recommendation
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if rec.Status == types.RecommendationPending {
				s.pending.ReplaceOrInsert(pendingEntry{
					key:              pendingKey(rec.WorkspaceID, rec.ResourceID, rec.Kind),
					recommendationID: rec.ID,
				})
			}
			return nil
		})
	})
}

// UpsertFindings folds scan findings into the recommendation set.
// A finding matching an existing pending recommendation on
// (workspace, resource id, kind) refreshes it in place; anything else
// inserts a new pending row. Returns the number of rows created.
//
// Each finding commits in its own transaction: a failure partway
// leaves earlier findings durably upserted.
func (s *Store) UpsertFindings(workspaceID, accountID string, findings []types.Finding) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := 0
	now := time.Now().UTC()

	for _, f := range findings {
		key := pendingKey(workspaceID, f.ResourceID, f.Kind)

		if entry, found := s.pending.Get(pendingEntry{key: key}); found {
			if err := s.mutateRecommendation(workspaceID, entry.recommendationID, func(rec *types.Recommendation) {
				rec.Refresh(f, now)
			}); err != nil {
				return created, err
			}
			continue
		}

		rec := types.NewRecommendation(uuid.NewString(), workspaceID, accountID, f, now)
		if err := s.put(bucketRecommendations, workspaceID, rec.ID, rec); err != nil {
			return created, err
		}
		s.pending.ReplaceOrInsert(pendingEntry{key: key, recommendationID: rec.ID})
		created++
	}
	return created, nil
}

// GetRecommendation loads one recommendation within a workspace.
func (s *Store) GetRecommendation(workspaceID, id string) (*types.Recommendation, error) {
	var rec types.Recommendation
	if err := s.get(bucketRecommendations, workspaceID, id, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecommendationFilter narrows ListRecommendations output. Zero
// fields match everything.
type RecommendationFilter struct {
	Status    types.RecommendationStatus
	Provider  types.Provider
	Kind      types.RecommendationKind
	Severity  types.Severity
	MinSaving float64
}

func (f RecommendationFilter) matches(rec types.Recommendation) bool {
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.Provider != "" && rec.Provider != f.Provider {
		return false
	}
	if f.Kind != "" && rec.Kind != f.Kind {
		return false
	}
	if f.Severity != "" && rec.Severity != f.Severity {
		return false
	}
	if f.MinSaving > 0 && rec.EstimatedSaving < f.MinSaving {
		return false
	}
	return true
}

// ListRecommendations returns a workspace's recommendations matching
// the filter, newest detection first.
func (s *Store) ListRecommendations(workspaceID string, filter RecommendationFilter) ([]types.Recommendation, error) {
	var recs []types.Recommendation
	err := s.forEachInWorkspace(bucketRecommendations, workspaceID, func(v []byte) error {
		var rec types.Recommendation
		if err := json.Unmarshal(v, &rec); err != nil {
			return err
		}
		if filter.matches(rec) {
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortRecommendations(recs)
	return recs, nil
}

func sortRecommendations(recs []types.Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].DetectedAt.After(recs[j].DetectedAt)
	})
}

// UpdateRecommendation applies a mutation inside one write
// transaction and keeps the pending index in line with the resulting
// status.
func (s *Store) UpdateRecommendation(workspaceID, id string, mutate func(*types.Recommendation)) (*types.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec types.Recommendation
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRecommendations)
		value := bucket.Get(recordKey(workspaceID, id))
		if value == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(value, &rec); err != nil {
			return err
		}
		mutate(&rec)
		updated, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return bucket.Put(recordKey(workspaceID, id), updated)
	})
	if err != nil {
		return nil, err
	}

	entry := pendingEntry{
		key:              pendingKey(rec.WorkspaceID, rec.ResourceID, rec.Kind),
		recommendationID: rec.ID,
	}
	if rec.Status == types.RecommendationPending {
		s.pending.ReplaceOrInsert(entry)
	} else {
		s.pending.Delete(entry)
	}
	return &rec, nil
}

// mutateRecommendation is UpdateRecommendation without index upkeep,
// for callers already holding s.mu that do not change status.
func (s *Store) mutateRecommendation(workspaceID, id string, mutate func(*types.Recommendation)) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRecommendations)
		value := bucket.Get(recordKey(workspaceID, id))
		if value == nil {
			return ErrNotFound
		}
		var rec types.Recommendation
		if err := json.Unmarshal(value, &rec); err != nil {
			return err
		}
		mutate(&rec)
		updated, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return bucket.Put(recordKey(workspaceID, id), updated)
	})
}
