package persistence

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const recordVersion = 1

// FileRecorder implements Recorder using a JSONL file
type FileRecorder struct {
	path string
	mu   sync.Mutex
	file *os.File
}

// NewFileRecorder opens (or creates) the JSONL file at path for appending
func NewFileRecorder(path string) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create record directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}

	return &FileRecorder{
		path: path,
		file: file,
	}, nil
}

// Record appends the record as a single JSON line and syncs it to disk
func (r *FileRecorder) Record(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if rec.Version == 0 {
		rec.Version = recordVersion
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return fmt.Errorf("recorder is closed")
	}

	if _, err := r.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	// Sync to disk for durability
	if err := r.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}

	return nil
}

// ReadAll reads every record written to the file so far
func (r *FileRecorder) ReadAll(ctx context.Context) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan record file: %w", err)
	}

	return records, nil
}

// Close closes the underlying file handle
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	if err != nil {
		return fmt.Errorf("failed to close record file: %w", err)
	}
	return nil
}
