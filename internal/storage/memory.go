package storage

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"
)

// MemoryStorage keeps objects in a map. Used in tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func (m *MemoryStorage) Upload(reader io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return m.UploadBytes(data, filename)
}

func (m *MemoryStorage) UploadBytes(data []byte, filename string) (string, error) {
	key := filepath.Clean(filename)
	m.mu.Lock()
	m.objects[key] = append([]byte(nil), data...)
	m.mu.Unlock()
	return key, nil
}

func (m *MemoryStorage) Download(path string) (io.ReadCloser, error) {
	m.mu.RLock()
	data, ok := m.objects[path]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("object not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStorage) Delete(path string) error {
	m.mu.Lock()
	delete(m.objects, path)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) GetPublicURL(path string) string {
	return "memory://" + path
}

func (m *MemoryStorage) GetPresignedURL(path string, expiration time.Duration) (string, error) {
	return fmt.Sprintf("memory://%s?exp=%d", path, time.Now().Add(expiration).Unix()), nil
}

// Len reports how many objects are stored.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
