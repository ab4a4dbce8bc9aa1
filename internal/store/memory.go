package store

import (
	"context"
	"sync"
)

// Memory is an in-memory KV for tests. It honors the same Update atomicity
// contract as the SQLite store via a single mutex.
type Memory struct {
	mu   sync.Mutex
	data map[string]string

	// FailWrites makes Set/Update/Delete return ErrWriteFailed, for
	// exercising persistence-failure fallbacks.
	FailWrites bool
	// FailReads makes Get return ErrReadFailed.
	FailReads bool
}

// ErrWriteFailed is returned by Memory when FailWrites is set.
var ErrWriteFailed = errString("simulated write failure")

// ErrReadFailed is returned by Memory when FailReads is set.
var ErrReadFailed = errString("simulated read failure")

type errString string

func (e errString) Error() string { return string(e) }

// NewMemory creates an empty in-memory KV.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get returns the value for key and whether it was present.
func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads {
		return "", false, ErrReadFailed
	}
	v, ok := m.data[key]
	return v, ok, nil
}

// Set writes value under key.
func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrWriteFailed
	}
	m.data[key] = value
	return nil
}

// Delete removes key.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrWriteFailed
	}
	delete(m.data, key)
	return nil
}

// Update applies fn to the current value of key under the store lock.
func (m *Memory) Update(ctx context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrWriteFailed
	}
	current, ok := m.data[key]
	next, err := fn(current, ok)
	if err != nil {
		return err
	}
	m.data[key] = next
	return nil
}
