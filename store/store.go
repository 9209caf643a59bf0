// Package store persists recommendations, actions, budgets and
// anomalies in bbolt. Every key is scoped by workspace id; nothing is
// ever read or written across workspaces. A btree index over pending
// recommendations backs finding deduplication.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/btree"
	"go.etcd.io/bbolt"
)

// Bucket names in bbolt.
var (
	bucketRecommendations = []byte("recommendations")
	bucketActions         = []byte("actions")
	bucketBudgets         = []byte("budgets")
	bucketAnomalies       = []byte("anomalies")
)

// ErrNotFound is returned when a record does not exist in the
// caller's workspace.
var ErrNotFound = errors.New("record not found")

// Store is the single durable home of engine state. Dedup state lives
// here, not in process memory, so concurrent worker processes stay
// consistent through bbolt's single-writer transactions.
type Store struct {
	mu      sync.RWMutex
	db      *bbolt.DB
	pending *btree.BTreeG[pendingEntry]
}

// pendingEntry indexes one pending recommendation by its dedup key.
type pendingEntry struct {
	key              string // workspace/resource/kind
	recommendationID string
}

func pendingLess(a, b pendingEntry) bool { return a.key < b.key }

// Open opens or creates the store under dir.
func Open(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, "frugal.db")

	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketRecommendations, bucketActions, bucketBudgets, bucketAnomalies} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db:      db,
		pending: btree.NewG[pendingEntry](32, pendingLess),
	}
	if err := s.rebuildPendingIndex(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PendingCount reports how many pending recommendations exist across
// all workspaces. Backs the pending-recommendations gauge.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending.Len()
}

func recordKey(workspaceID, id string) []byte {
	return []byte(workspaceID + "/" + id)
}

func workspacePrefix(workspaceID string) []byte {
	return []byte(workspaceID + "/")
}

// put marshals a record into a bucket inside one write transaction.
func (s *Store) put(bucket []byte, workspaceID, id string, record any) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put(recordKey(workspaceID, id), value)
	})
}

// get unmarshals a record from a bucket, ErrNotFound when absent.
func (s *Store) get(bucket []byte, workspaceID, id string, record any) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(bucket).Get(recordKey(workspaceID, id))
		if value == nil {
			return ErrNotFound
		}
		return json.Unmarshal(value, record)
	})
}

// forEachInWorkspace walks every record of one workspace in a bucket.
func (s *Store) forEachInWorkspace(bucket []byte, workspaceID string, fn func(value []byte) error) error {
	prefix := workspacePrefix(workspaceID)
	return s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			if err := fn(v); err != nil {
				return err
			}
		}
		return nil
	})
}
