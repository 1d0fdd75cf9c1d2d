package entries

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("config entry not found")

type Store interface {
	Create(ctx context.Context, title string, data Data) (*Entry, error)
	Get(ctx context.Context, entryID string) (*Entry, error)
	List(ctx context.Context) ([]*Entry, error)
	Delete(ctx context.Context, entryID string) error
}

func newEntry(title string, data Data) *Entry {
	return &Entry{
		EntryID:   uuid.NewString(),
		Title:     title,
		Data:      data,
		CreatedAt: time.Now(),
	}
}

// MemoryStore keeps entries for the lifetime of the process only
type MemoryStore struct {
	mutex   sync.RWMutex
	entries map[string]*Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[string]*Entry{},
	}
}

func (s *MemoryStore) Create(ctx context.Context, title string, data Data) (*Entry, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	entry := newEntry(title, data)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries[entry.EntryID] = entry
	copied := *entry

	return &copied, nil
}

func (s *MemoryStore) Get(ctx context.Context, entryID string) (*Entry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, exists := s.entries[entryID]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *entry

	return &copied, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Entry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entries := []*Entry{}
	for _, entry := range s.entries {
		copied := *entry
		entries = append(entries, &copied)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	return entries, nil
}

func (s *MemoryStore) Delete(ctx context.Context, entryID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.entries[entryID]; !exists {
		return ErrNotFound
	}
	delete(s.entries, entryID)

	return nil
}
