package dynaprompt

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tidwall/jsonc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// FilesystemStorage serves wildcards from a directory tree.
//
// Directory structure:
//
//	<root>/
//	  hero.txt             # one entry per line, name = file name
//	  places/
//	    city.txt           # category = first directory
//	  bundles/
//	    styles.yaml        # many wildcards: {wildcards: [{name, entries}]}
//	    moods.jsonc        # same shape, JSON with comments
//
// Text files are writable through Save and Delete; bundles are read-only.
// Call Watch to reload automatically when files change.
type FilesystemStorage struct {
	mu        sync.RWMutex
	root      string
	pattern   string
	logger    *zap.Logger
	metrics   *Metrics
	wildcards map[string]*filesystemEntry
	closed    bool

	watchMu sync.Mutex
	watcher *filesystemWatcher
}

// filesystemEntry is a loaded wildcard and the file it came from
type filesystemEntry struct {
	def    *WildcardDefinition
	path   string // relative to root, slash separated
	bundle bool
}

// filesystemBundle is the document shape of .yaml and .json(c) bundles
type filesystemBundle struct {
	Wildcards []*WildcardDefinition `json:"wildcards" yaml:"wildcards"`
}

// FilesystemOptions configures a FilesystemStorage.
type FilesystemOptions struct {
	// Pattern selects wildcard files relative to the root (doublestar
	// syntax). Default: "**/*.{txt,yaml,yml,json,jsonc}".
	Pattern string

	// Logger receives reload and skip events. Default: no logging.
	Logger *zap.Logger

	// Metrics records reload outcomes. Optional.
	Metrics *Metrics
}

// FilesystemStorageDriver is the driver for creating FilesystemStorage instances.
type FilesystemStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameFilesystem, &FilesystemStorageDriver{})
}

// Open creates a FilesystemStorage. The connection string is the root directory.
func (d *FilesystemStorageDriver) Open(connectionString string) (WildcardStore, error) {
	return NewFilesystemStorage(connectionString, FilesystemOptions{})
}

// NewFilesystemStorage creates the root if needed and loads every matching file.
func NewFilesystemStorage(root string, opts FilesystemOptions) (*FilesystemStorage, error) {
	if root == "" {
		return nil, NewStorageError(ErrMsgStorageInvalidDSN, "", nil)
	}
	if err := os.MkdirAll(root, FilesystemDirPermissions); err != nil {
		return nil, NewStorageError(ErrMsgStorageOpenFailed, root, err)
	}

	if opts.Pattern == "" {
		opts.Pattern = FilesystemDefaultPattern
	}
	if !doublestar.ValidatePattern(opts.Pattern) {
		return nil, NewStorageError(ErrMsgStorageInvalidDSN, opts.Pattern, nil)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &FilesystemStorage{
		root:      root,
		pattern:   opts.Pattern,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		wildcards: make(map[string]*filesystemEntry),
	}
	if err := s.Reload(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Root returns the directory the store serves
func (s *FilesystemStorage) Root() string {
	return s.root
}

// Reload rescans the root and replaces the in-memory index. Files that fail
// to parse are skipped and logged.
func (s *FilesystemStorage) Reload(ctx context.Context) error {
	err := s.reload(ctx)
	s.metrics.observeStoreReload(err)
	if err != nil {
		s.logger.Warn(LogMsgStoreReloadFailed, zap.String(LogFieldPath, s.root), zap.Error(err))
		return err
	}
	return nil
}

func (s *FilesystemStorage) reload(ctx context.Context) error {
	paths, err := doublestar.Glob(os.DirFS(s.root), s.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return NewStorageError(ErrMsgStorageReadFailed, s.root, err)
	}
	sort.Strings(paths)

	loaded := make([][]*filesystemEntry, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, rel := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entries, err := s.loadFile(rel)
			if err != nil {
				s.logger.Warn(LogMsgStoreFileSkipped, zap.String(LogFieldPath, rel), zap.Error(err))
				return nil
			}
			loaded[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Paths are sorted, so a later file wins a name collision.
	index := make(map[string]*filesystemEntry)
	for _, entries := range loaded {
		for _, e := range entries {
			index[e.def.Name] = e
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return NewStorageClosedError()
	}
	s.wildcards = index
	s.mu.Unlock()

	s.logger.Debug(LogMsgStoreReloaded,
		zap.String(LogFieldPath, s.root),
		zap.Int(LogFieldWildcards, len(index)))
	return nil
}

// loadFile parses one wildcard file. Invalid definitions are dropped.
func (s *FilesystemStorage) loadFile(rel string) ([]*filesystemEntry, error) {
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(rel))
	if ext == FileExtensionText {
		def := &WildcardDefinition{
			ID:        WildcardIDPrefix + rel,
			Name:      strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel)),
			Entries:   ParseWildcardContent(string(data)),
			Category:  categoryFromPath(rel),
			CreatedAt: info.ModTime(),
			UpdatedAt: info.ModTime(),
		}
		if err := def.Validate(); err != nil {
			return nil, err
		}
		return []*filesystemEntry{{def: def, path: rel}}, nil
	}

	var bundle filesystemBundle
	switch ext {
	case FileExtensionYAML, FileExtensionYML:
		err = yaml.Unmarshal(data, &bundle)
	case FileExtensionJSON, FileExtensionJSONC:
		err = json.Unmarshal(jsonc.ToJSON(data), &bundle)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, NewStorageError(ErrMsgStorageDecodeFailed, rel, err)
	}

	entries := make([]*filesystemEntry, 0, len(bundle.Wildcards))
	for _, def := range bundle.Wildcards {
		if def == nil {
			continue
		}
		def.Entries = normalizeEntries(def.Entries)
		if def.Validate() != nil {
			continue
		}
		if def.ID == "" {
			def.ID = WildcardIDPrefix + rel + "#" + def.Name
		}
		if def.Category == "" {
			def.Category = categoryFromPath(rel)
		}
		if def.UpdatedAt.IsZero() {
			def.UpdatedAt = info.ModTime()
		}
		entries = append(entries, &filesystemEntry{def: def, path: rel, bundle: true})
	}
	return entries, nil
}

// categoryFromPath uses the first directory of a relative path
func categoryFromPath(rel string) string {
	if dir, _, ok := strings.Cut(rel, "/"); ok {
		return dir
	}
	return ""
}

// Get retrieves a wildcard by name.
func (s *FilesystemStorage) Get(ctx context.Context, name string) (*WildcardDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	e, ok := s.wildcards[name]
	if !ok {
		return nil, NewWildcardNotFoundError(name)
	}
	return e.def.Clone(), nil
}

// Save writes the wildcard as <root>/[<category>/]<name>.txt.
func (s *FilesystemStorage) Save(ctx context.Context, def *WildcardDefinition) error {
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

	existing, exists := s.wildcards[def.Name]
	if exists && existing.bundle {
		return NewStorageError(ErrMsgStorageReadOnlyFormat, existing.path, nil)
	}

	rel := def.Name + FileExtensionText
	if def.Category != "" {
		if err := ValidateWildcardName(def.Category); err != nil {
			return err
		}
		rel = def.Category + "/" + rel
	}
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), FilesystemDirPermissions); err != nil {
		return NewStorageError(ErrMsgStorageWriteFailed, def.Name, err)
	}

	content := strings.Join(def.Entries, "\n") + "\n"
	if err := os.WriteFile(full, []byte(content), FilesystemFilePermissions); err != nil {
		return NewStorageError(ErrMsgStorageWriteFailed, def.Name, err)
	}
	if exists && existing.path != rel {
		_ = os.Remove(filepath.Join(s.root, filepath.FromSlash(existing.path)))
	}

	now := time.Now()
	def.ID = WildcardIDPrefix + rel
	def.CreatedAt = now
	if exists {
		def.CreatedAt = existing.def.CreatedAt
	}
	def.UpdatedAt = now
	s.wildcards[def.Name] = &filesystemEntry{def: def.Clone(), path: rel}
	return nil
}

// Delete removes a text-backed wildcard file.
func (s *FilesystemStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}
	e, ok := s.wildcards[name]
	if !ok {
		return NewWildcardNotFoundError(name)
	}
	if e.bundle {
		return NewStorageError(ErrMsgStorageReadOnlyFormat, e.path, nil)
	}

	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(e.path)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return NewStorageError(ErrMsgStorageWriteFailed, name, err)
	}
	delete(s.wildcards, name)
	return nil
}

// List returns wildcards matching the query ordered by name.
func (s *FilesystemStorage) List(ctx context.Context, query *WildcardQuery) ([]*WildcardDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	defs := make([]*WildcardDefinition, 0, len(s.wildcards))
	for _, e := range s.wildcards {
		defs = append(defs, e.def)
	}
	return filterDefinitions(defs, query), nil
}

// Exists checks whether a wildcard exists.
func (s *FilesystemStorage) Exists(ctx context.Context, name string) (bool, error) {
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

// Snapshot returns every loaded wildcard as a lookup.
func (s *FilesystemStorage) Snapshot(ctx context.Context) (WildcardLookup, error) {
	return snapshotOf(ctx, s)
}

// Close stops any watcher and marks the store closed.
func (s *FilesystemStorage) Close() error {
	s.StopWatching()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
