// Package settings is a typed site-preference store. Values are loaded once at
// startup and kept in memory; writes go through to the backend and update the
// cache, so lookups never hit the database on the request path.
package settings

import (
	"strconv"
	"sync"

	"github.com/magpress/media-center/internal/models"

	"gorm.io/gorm"
)

// Backend persists settings. The gorm-backed implementation is used by the
// server; tests use a map-backed one.
type Backend interface {
	LoadAll() (map[string]string, error)
	Save(key, value string) error
}

type Store struct {
	mu      sync.RWMutex
	values  map[string]string
	backend Backend
}

// NewStore loads every persisted setting through the backend.
func NewStore(backend Backend) (*Store, error) {
	values, err := backend.LoadAll()
	if err != nil {
		return nil, err
	}
	return &Store{values: values, backend: backend}, nil
}

func (s *Store) GetString(key, fallback string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return fallback
}

func (s *Store) GetBool(key string, fallback bool) bool {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func (s *Store) GetInt(key string, fallback int) int {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func (s *Store) SetString(key, value string) error {
	if err := s.backend.Save(key, value); err != nil {
		return err
	}
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

func (s *Store) SetBool(key string, value bool) error {
	return s.SetString(key, strconv.FormatBool(value))
}

func (s *Store) SetInt(key string, value int) error {
	return s.SetString(key, strconv.Itoa(value))
}

// Keys returns a snapshot of all known settings.
func (s *Store) Keys() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// GormBackend persists settings in the settings table.
type GormBackend struct {
	DB *gorm.DB
}

func (b *GormBackend) LoadAll() (map[string]string, error) {
	var rows []models.Setting
	if err := b.DB.Find(&rows).Error; err != nil {
		return nil, err
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

func (b *GormBackend) Save(key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	return b.DB.Save(&setting).Error
}

// MemoryBackend keeps settings in a map. Used in tests.
type MemoryBackend struct {
	Values map[string]string
}

func (b *MemoryBackend) LoadAll() (map[string]string, error) {
	if b.Values == nil {
		b.Values = make(map[string]string)
	}
	values := make(map[string]string, len(b.Values))
	for k, v := range b.Values {
		values[k] = v
	}
	return values, nil
}

func (b *MemoryBackend) Save(key, value string) error {
	if b.Values == nil {
		b.Values = make(map[string]string)
	}
	b.Values[key] = value
	return nil
}
