package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is a Store living in process memory. Used in development and tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]map[string][]byte),
	}
}

func (m *Memory) Get(_ context.Context, userID, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[userID][key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *Memory) Set(_ context.Context, userID, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	userData, ok := m.data[userID]
	if !ok {
		userData = make(map[string][]byte)
		m.data[userID] = userData
	}
	userData[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) List(_ context.Context, userID, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := []string{}
	for key := range m.data[userID] {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Delete(_ context.Context, userID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data[userID], key)
	if len(m.data[userID]) == 0 {
		delete(m.data, userID)
	}
	return nil
}
