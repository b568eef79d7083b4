// Package profiler materializes ProfilingSnapshots: from a previously saved
// file, or live from SQL Server through the mssql subpackage. The policy
// engine itself never performs I/O; it only consumes the snapshot this
// package produces.
package profiler

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/constrictdb/constrict/pkg/apperrors"
	"github.com/constrictdb/constrict/pkg/models"
)

// LoadSnapshot reads a profiling snapshot from a JSON file.
func LoadSnapshot(path string) (*models.ProfilingSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrSnapshotNotFound, path)
		}
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	snapshot := models.NewProfilingSnapshot()
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot JSON %s: %w", path, err)
	}
	return snapshot, nil
}

// SaveSnapshot writes a profiling snapshot to a JSON file so later runs can
// reuse it without touching the database.
func SaveSnapshot(path string, snapshot *models.ProfilingSnapshot) error {
	if snapshot == nil {
		return apperrors.ErrNilSnapshot
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	return nil
}
