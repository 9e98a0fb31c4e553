package engine

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// IdempotencyRecord stores the cached result of a command execution
type IdempotencyRecord struct {
	PayloadHash string    // Hash of the original payload
	Result      Result    // Cached execution result
	ExpiresAt   time.Time // Expiration time
}

// IdempotencyStore manages idempotency records
type IdempotencyStore struct {
	mu      sync.RWMutex
	records map[string]*IdempotencyRecord
	ttl     time.Duration
}

// NewIdempotencyStore creates a new idempotency store
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		records: make(map[string]*IdempotencyRecord),
		ttl:     ttl,
	}
}

// Check checks if a command is duplicate or conflict
// Returns:
// - (nil, nil) if not seen before (should execute)
// - (result, nil) if duplicate with same payload (return cached result)
// - (nil, error) if conflict with different payload
func (s *IdempotencyStore) Check(key, payloadHash string) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[key]
	if !exists {
		return nil, nil
	}

	if time.Now().After(record.ExpiresAt) {
		return nil, nil
	}

	if record.PayloadHash != payloadHash {
		return nil, fmt.Errorf("idempotency key conflict: same key with different payload")
	}

	cached := record.Result
	cached.Replayed = true
	return &cached, nil
}

// Store stores the execution result for future idempotency checks
func (s *IdempotencyStore) Store(key, payloadHash string, result *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = &IdempotencyRecord{
		PayloadHash: payloadHash,
		Result:      *result,
		ExpiresAt:   time.Now().Add(s.ttl),
	}
}

// Cleanup removes expired records
func (s *IdempotencyStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, record := range s.records {
		if now.After(record.ExpiresAt) {
			delete(s.records, key)
		}
	}
}

// Size returns the number of records in the store (for testing)
func (s *IdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// ComputePayloadHash computes SHA256 hash of the payload
func ComputePayloadHash(payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}
