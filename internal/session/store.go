package session

import (
	"errors"

	"gorm.io/gorm"

	"github.com/example/ruangtamu/internal/models"
)

// Store persists the opaque session slots across console restarts.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// DBStore keeps the slots in the state_entries table.
type DBStore struct {
	db *gorm.DB
}

// NewDBStore wraps a database handle as a session store.
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

// Get reads one slot. A missing key is not an error.
func (s *DBStore) Get(key string) (string, bool, error) {
	var entry models.StateEntry
	err := s.db.Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// Set writes one slot, creating or replacing it.
func (s *DBStore) Set(key, value string) error {
	return s.db.Save(&models.StateEntry{Key: key, Value: value}).Error
}

// Delete removes the given slots. Missing keys are ignored.
func (s *DBStore) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.Where("key IN ?", keys).Delete(&models.StateEntry{}).Error
}

// MemoryStore is a map-backed store for tests.
type MemoryStore struct {
	values map[string]string
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(keys ...string) error {
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}
