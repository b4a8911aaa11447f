package services

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

// MaxOTPAttempts is how many wrong guesses a stored code survives.
const MaxOTPAttempts = 5

// OTPEntry is a stored one-time code.
type OTPEntry struct {
	Code      string
	ExpiresAt time.Time
	Attempts  int
}

// OTPStore keeps pending one-time codes keyed by recipient.
type OTPStore interface {
	Save(ctx context.Context, key string, entry OTPEntry) error
	// Get returns ErrOTPNotFound when no code is stored under key.
	Get(ctx context.Context, key string) (OTPEntry, error)
	// Delete reports whether an entry was removed.
	Delete(ctx context.Context, key string) (bool, error)
	// RecordFailure counts a wrong guess against key and returns the total.
	RecordFailure(ctx context.Context, key string) (int, error)
}

// consumeOTP checks code against the entry stored under key and deletes the
// entry on success. The entry is also dropped once it expires or has taken
// MaxOTPAttempts wrong guesses.
func consumeOTP(ctx context.Context, store OTPStore, key, code string, now time.Time) error {
	entry, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if now.After(entry.ExpiresAt) {
		_, _ = store.Delete(ctx, key)
		return ErrOTPExpired
	}

	if subtle.ConstantTimeCompare([]byte(entry.Code), []byte(code)) != 1 {
		attempts, err := store.RecordFailure(ctx, key)
		if err != nil {
			return err
		}
		if attempts >= MaxOTPAttempts {
			if _, err := store.Delete(ctx, key); err != nil {
				return err
			}
			return ErrOTPAttempts
		}
		return ErrOTPMismatch
	}

	removed, err := store.Delete(ctx, key)
	if err != nil {
		return err
	}
	if !removed {
		return ErrOTPNotFound
	}
	return nil
}

// MemoryOTPStore is a process-local OTPStore. Codes are lost on restart and
// are not shared between instances.
type MemoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]OTPEntry
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{entries: make(map[string]OTPEntry)}
}

func (s *MemoryOTPStore) Save(_ context.Context, key string, entry OTPEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, e := range s.entries {
		if now.After(e.ExpiresAt.Add(OTPValidity)) {
			delete(s.entries, k)
		}
	}
	s.entries[key] = entry
	return nil
}

func (s *MemoryOTPStore) Get(_ context.Context, key string) (OTPEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return OTPEntry{}, ErrOTPNotFound
	}
	return entry, nil
}

func (s *MemoryOTPStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

func (s *MemoryOTPStore) RecordFailure(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return 0, ErrOTPNotFound
	}
	entry.Attempts++
	s.entries[key] = entry
	return entry.Attempts, nil
}
