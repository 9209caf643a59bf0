// Package journal is an append-only record of everything the engine
// did to cloud resources. An entry is written before and after every
// provider mutation, so a crash mid-apply leaves a reconstructible
// trail for the next scan to reconcile against.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EntryType defines the kind of journal entry.
type EntryType string

const (
	EntryScanStarted    EntryType = "scan_started"
	EntryScanCompleted  EntryType = "scan_completed"
	EntryApplying       EntryType = "applying"
	EntryApplied        EntryType = "applied"
	EntryApplyFailed    EntryType = "apply_failed"
	EntryRollingBack    EntryType = "rolling_back"
	EntryRolledBack     EntryType = "rolled_back"
	EntryRollbackFailed EntryType = "rollback_failed"
	EntryDismissed      EntryType = "dismissed"
)

// Entry is a single journal line.
type Entry struct {
	Timestamp   time.Time       `json:"timestamp"`
	Sequence    int64           `json:"sequence"`
	Type        EntryType       `json:"type"`
	WorkspaceID string          `json:"workspace_id,omitempty"`
	ResourceID  string          `json:"resource_id,omitempty"`
	Actor       string          `json:"actor,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Journal appends JSON lines to a per-day file under dir.
type Journal struct {
	mu       sync.Mutex
	file     *os.File
	writer   *bufio.Writer
	size     int64
	maxSize  int64
	sequence int64
	dir      string
}

// Default maximum journal file size before rotation.
const defaultMaxFileSize = 64 << 20

// Open creates or opens a journal in the specified directory.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	j := &Journal{dir: dir, maxSize: defaultMaxFileSize}
	if err := j.rotate(); err != nil {
		return nil, err
	}
	return j, nil
}

// Close flushes and closes the journal.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.writer.Flush(); err != nil {
		return err
	}
	return j.file.Close()
}

// Append writes an entry for one engine operation.
func (j *Journal) Append(entryType EntryType, workspaceID, resourceID, actor string, data any) error {
	return j.append(entryType, workspaceID, resourceID, actor, data, nil)
}

// AppendError writes an entry carrying a failure.
func (j *Journal) AppendError(entryType EntryType, workspaceID, resourceID, actor string, data any, cause error) error {
	return j.append(entryType, workspaceID, resourceID, actor, data, cause)
}

func (j *Journal) append(entryType EntryType, workspaceID, resourceID, actor string, data any, cause error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var payload json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal journal data: %w", err)
		}
		payload = encoded
	}

	j.sequence++
	entry := Entry{
		Timestamp:   time.Now().UTC(),
		Sequence:    j.sequence,
		Type:        entryType,
		WorkspaceID: workspaceID,
		ResourceID:  resourceID,
		Actor:       actor,
		Data:        payload,
	}
	if cause != nil {
		entry.Error = cause.Error()
	}

	return j.writeEntry(entry)
}

func (j *Journal) writeEntry(entry Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	if j.size+int64(len(line))+1 > j.maxSize {
		if err := j.rotate(); err != nil {
			return err
		}
	}

	if _, err := j.writer.Write(line); err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}
	if _, err := j.writer.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	j.size += int64(len(line)) + 1

	// Flush immediately: the journal is the audit trail.
	if err := j.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush journal: %w", err)
	}
	return j.file.Sync()
}

// rotate switches to a fresh timestamped file. Caller holds j.mu,
// except from Open where no writer exists yet.
func (j *Journal) rotate() error {
	if j.writer != nil {
		if err := j.writer.Flush(); err != nil {
			return err
		}
		if err := j.file.Close(); err != nil {
			return err
		}
	}

	name := fmt.Sprintf("frugal-%s.journal", time.Now().UTC().Format("20060102-150405.000"))
	file, err := os.OpenFile(filepath.Join(j.dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal file: %w", err)
	}

	j.file = file
	j.writer = bufio.NewWriter(file)
	j.size = 0
	return nil
}

// Reader replays a journal file entry by entry.
type Reader struct {
	scanner *bufio.Scanner
	file    *os.File
}

// NewReader opens one journal file for replay.
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path) // #nosec G304 -- replay path comes from operator input
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	return &Reader{scanner: bufio.NewScanner(file), file: file}, nil
}

// Next returns the next entry, io.EOF at end of file.
func (r *Reader) Next() (*Entry, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	var entry Entry
	if err := json.Unmarshal(r.scanner.Bytes(), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal journal entry: %w", err)
	}
	return &entry, nil
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.file.Close()
}
