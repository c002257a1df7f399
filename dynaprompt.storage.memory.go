package dynaprompt

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage is an in-memory WildcardStore.
// It is primarily intended for testing and development.
type MemoryStorage struct {
	mu        sync.RWMutex
	wildcards map[string]*WildcardDefinition
	closed    bool
}

// MemoryStorageDriver is the driver for creating MemoryStorage instances.
type MemoryStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameMemory, &MemoryStorageDriver{})
}

// Open creates a new MemoryStorage. The connection string is ignored.
func (d *MemoryStorageDriver) Open(connectionString string) (WildcardStore, error) {
	return NewMemoryStorage(), nil
}

// NewMemoryStorage creates an empty in-memory store, optionally seeded.
func NewMemoryStorage(seed ...*WildcardDefinition) *MemoryStorage {
	s := &MemoryStorage{
		wildcards: make(map[string]*WildcardDefinition, len(seed)),
	}
	now := time.Now()
	for _, d := range seed {
		if d == nil {
			continue
		}
		c := d.Clone()
		c.Entries = normalizeEntries(c.Entries)
		if c.ID == "" {
			c.ID = generateWildcardID()
		}
		c.CreatedAt, c.UpdatedAt = now, now
		s.wildcards[c.Name] = c
	}
	return s
}

// Get retrieves a wildcard by name.
func (s *MemoryStorage) Get(ctx context.Context, name string) (*WildcardDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	def, ok := s.wildcards[name]
	if !ok {
		return nil, NewWildcardNotFoundError(name)
	}
	return def.Clone(), nil
}

// Save creates or replaces a wildcard.
func (s *MemoryStorage) Save(ctx context.Context, def *WildcardDefinition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prepareDefinition(def); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	now := time.Now()
	if existing, ok := s.wildcards[def.Name]; ok {
		def.ID = existing.ID
		def.CreatedAt = existing.CreatedAt
	} else {
		def.CreatedAt = now
	}
	def.UpdatedAt = now
	s.wildcards[def.Name] = def.Clone()
	return nil
}

// Delete removes a wildcard by name.
func (s *MemoryStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}
	if _, ok := s.wildcards[name]; !ok {
		return NewWildcardNotFoundError(name)
	}
	delete(s.wildcards, name)
	return nil
}

// List returns wildcards matching the query ordered by name.
func (s *MemoryStorage) List(ctx context.Context, query *WildcardQuery) ([]*WildcardDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	defs := make([]*WildcardDefinition, 0, len(s.wildcards))
	for _, d := range s.wildcards {
		defs = append(defs, d)
	}
	return filterDefinitions(defs, query), nil
}

// Exists checks whether a wildcard exists.
func (s *MemoryStorage) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, NewStorageClosedError()
	}
	_, ok := s.wildcards[name]
	return ok, nil
}

// Snapshot returns a copy of every wildcard as a lookup.
func (s *MemoryStorage) Snapshot(ctx context.Context) (WildcardLookup, error) {
	return snapshotOf(ctx, s)
}

// Close marks the store closed.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
