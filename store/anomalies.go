package store

import (
	"encoding/json"

	"github.com/frugalops/frugal/types"
)

// PutAnomaly creates or replaces an anomaly record.
func (s *Store) PutAnomaly(anomaly types.Anomaly) error {
	return s.put(bucketAnomalies, anomaly.WorkspaceID, anomaly.ID, anomaly)
}

// GetAnomaly loads one anomaly within a workspace.
func (s *Store) GetAnomaly(workspaceID, id string) (*types.Anomaly, error) {
	var anomaly types.Anomaly
	if err := s.get(bucketAnomalies, workspaceID, id, &anomaly); err != nil {
		return nil, err
	}
	return &anomaly, nil
}

// ListAnomalies returns a workspace's anomalies, optionally filtered
// by status.
func (s *Store) ListAnomalies(workspaceID string, status types.AnomalyStatus) ([]types.Anomaly, error) {
	var anomalies []types.Anomaly
	err := s.forEachInWorkspace(bucketAnomalies, workspaceID, func(v []byte) error {
		var anomaly types.Anomaly
		if err := json.Unmarshal(v, &anomaly); err != nil {
			return err
		}
		if status != "" && anomaly.Status != status {
			return nil
		}
		anomalies = append(anomalies, anomaly)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return anomalies, nil
}
