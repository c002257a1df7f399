package dynaprompt

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// WildcardQuery defines filters for listing wildcards.
type WildcardQuery struct {
	// Category filters by exact category (empty matches all).
	Category string

	// NamePrefix filters to names starting with this prefix.
	NamePrefix string

	// SharedOnly returns only shared wildcards.
	SharedOnly bool

	// Limit is the maximum number of results (0 = no limit).
	Limit int

	// Offset is the number of results to skip (for pagination).
	Offset int
}

// WildcardStore is the interface for pluggable wildcard dictionaries.
// Implementations must be safe for concurrent use.
type WildcardStore interface {
	// Get retrieves a wildcard by name.
	Get(ctx context.Context, name string) (*WildcardDefinition, error)

	// Save creates or replaces a wildcard by name. ID, CreatedAt and
	// UpdatedAt are set by the store.
	Save(ctx context.Context, def *WildcardDefinition) error

	// Delete removes a wildcard by name.
	Delete(ctx context.Context, name string) error

	// List returns wildcards matching the query ordered by name.
	List(ctx context.Context, query *WildcardQuery) ([]*WildcardDefinition, error)

	// Exists checks whether a wildcard with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// Snapshot returns an immutable lookup of every wildcard, taken once
	// per expansion so all draws in one call see the same dictionary.
	Snapshot(ctx context.Context) (WildcardLookup, error)

	// Close releases any resources held by the store.
	Close() error
}

// StorageDriver is a factory for creating stores.
// Drivers register themselves during init().
type StorageDriver interface {
	// Open creates a store from a driver-specific connection string.
	Open(connectionString string) (WildcardStore, error)
}

// Storage driver registry
var (
	storageDriversMu sync.RWMutex
	storageDrivers   = make(map[string]StorageDriver)
)

// RegisterStorageDriver registers a storage driver by name.
// Panics if the driver is nil or the name is taken.
func RegisterStorageDriver(name string, driver StorageDriver) {
	storageDriversMu.Lock()
	defer storageDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilStorageDriver)
	}
	if _, exists := storageDrivers[name]; exists {
		panic(ErrMsgDriverAlreadyRegistered + ": " + name)
	}
	storageDrivers[name] = driver
}

// OpenStorage opens a store using the named driver.
//
// Example:
//
//	store, err := dynaprompt.OpenStorage("memory", "")
//	store, err := dynaprompt.OpenStorage("filesystem", "/path/to/wildcards")
//	store, err := dynaprompt.OpenStorage("sqlite", "file:wildcards.db")
func OpenStorage(driverName, connectionString string) (WildcardStore, error) {
	storageDriversMu.RLock()
	driver, ok := storageDrivers[driverName]
	storageDriversMu.RUnlock()

	if !ok {
		return nil, NewStorageDriverNotFoundError(driverName)
	}

	return driver.Open(connectionString)
}

// ListStorageDrivers returns the registered driver names in sorted order.
func ListStorageDrivers() []string {
	storageDriversMu.RLock()
	defer storageDriversMu.RUnlock()

	names := make([]string, 0, len(storageDrivers))
	for name := range storageDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Storage error message constants
const (
	ErrMsgNilStorageDriver        = "storage driver is nil"
	ErrMsgDriverAlreadyRegistered = "storage driver already registered"
	ErrMsgStorageDriverNotFound   = "storage driver not found"
	ErrMsgStorageClosed           = "storage is closed"
	ErrMsgStorageQueryFailed      = "storage query failed"
	ErrMsgStorageOpenFailed       = "failed to open storage"
	ErrMsgStorageMigrationFailed  = "storage migration failed"
	ErrMsgStorageWriteFailed      = "failed to write wildcard"
	ErrMsgStorageReadFailed       = "failed to read wildcard"
	ErrMsgStorageDecodeFailed     = "failed to decode wildcard file"
	ErrMsgStorageInvalidDSN       = "invalid connection string"
	ErrMsgStorageReadOnlyFormat   = "file format is read-only"
)

// StorageError represents a storage-related error.
type StorageError struct {
	Message string
	Name    string
	Cause   error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	msg := e.Message
	if e.Name != "" {
		msg += ": " + e.Name
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageDriverNotFoundError creates an error for a missing driver.
func NewStorageDriverNotFoundError(name string) error {
	return &StorageError{Message: ErrMsgStorageDriverNotFound, Name: name}
}

// NewStorageClosedError creates an error for operations on a closed store.
func NewStorageClosedError() error {
	return &StorageError{Message: ErrMsgStorageClosed}
}

// NewStorageError wraps a backend failure.
func NewStorageError(msg, name string, cause error) error {
	return &StorageError{Message: msg, Name: name, Cause: cause}
}

// prepareDefinition validates a definition and normalizes its entries
// before a store persists it.
func prepareDefinition(def *WildcardDefinition) error {
	if def == nil {
		return NewWildcardNameError(ErrMsgWildcardNameEmpty, "")
	}
	def.Entries = normalizeEntries(def.Entries)
	if def.ID == "" {
		def.ID = generateWildcardID()
	}
	return def.Validate()
}

// normalizeEntries trims entries and drops blank ones
func normalizeEntries(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// generateWildcardID returns a prefixed random identifier
func generateWildcardID() string {
	return WildcardIDPrefix + uuid.NewString()
}

// matchesWildcardQuery reports whether def passes the query filters
func matchesWildcardQuery(def *WildcardDefinition, query *WildcardQuery) bool {
	if query == nil {
		return true
	}
	if query.Category != "" && def.Category != query.Category {
		return false
	}
	if query.NamePrefix != "" && !strings.HasPrefix(def.Name, query.NamePrefix) {
		return false
	}
	if query.SharedOnly && !def.Shared {
		return false
	}
	return true
}

// filterDefinitions sorts by name, filters, and paginates copies of defs
func filterDefinitions(defs []*WildcardDefinition, query *WildcardQuery) []*WildcardDefinition {
	matched := make([]*WildcardDefinition, 0, len(defs))
	for _, d := range defs {
		if matchesWildcardQuery(d, query) {
			matched = append(matched, d.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Name < matched[j].Name
	})

	if query == nil {
		return matched
	}
	if query.Offset > 0 {
		if query.Offset >= len(matched) {
			return []*WildcardDefinition{}
		}
		matched = matched[query.Offset:]
	}
	if query.Limit > 0 && query.Limit < len(matched) {
		matched = matched[:query.Limit]
	}
	return matched
}

// snapshotOf builds a lookup from a full listing
func snapshotOf(ctx context.Context, store WildcardStore) (WildcardLookup, error) {
	defs, err := store.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return NewWildcardMap(defs...), nil
}
