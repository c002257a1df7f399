package dynaprompt

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// sqlDialect captures what differs between the SQL backends.
type sqlDialect struct {
	name string

	// placeholder renders the n-th (1-based) bind parameter
	placeholder func(n int) string

	// noLimit is the LIMIT value meaning "all rows", used when only an
	// offset is requested
	noLimit string

	// migrations returns the schema steps for a table prefix
	migrations func(prefix string) []sqlMigration
}

// sqlMigration is one versioned schema step. Statements run in order
// inside a single transaction.
type sqlMigration struct {
	Version     int
	Description string
	Statements  []string
}

// sqlStorage is the WildcardStore shared by the PostgreSQL and SQLite
// backends. Entries are stored as a JSON array.
type sqlStorage struct {
	db           *sql.DB
	dialect      sqlDialect
	prefix       string
	queryTimeout time.Duration
	mu           sync.RWMutex
	closed       bool
}

func newSQLStorage(db *sql.DB, dialect sqlDialect, prefix string, queryTimeout time.Duration) *sqlStorage {
	return &sqlStorage{
		db:           db,
		dialect:      dialect,
		prefix:       prefix,
		queryTimeout: queryTimeout,
	}
}

// DB exposes the underlying connection pool
func (s *sqlStorage) DB() *sql.DB {
	return s.db
}

func (s *sqlStorage) tableName() string {
	return s.prefix + "wildcards"
}

func (s *sqlStorage) migrationsTableName() string {
	return s.prefix + "schema_migrations"
}

func (s *sqlStorage) bind(n int) string {
	return s.dialect.placeholder(n)
}

const sqlWildcardColumns = "id, name, entries, category, description, shared, created_at, updated_at"

// Get retrieves a wildcard by name.
func (s *sqlStorage) Get(ctx context.Context, name string) (*WildcardDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM %s WHERE name = %s",
		sqlWildcardColumns, s.tableName(), s.bind(1))

	def, err := scanWildcard(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewWildcardNotFoundError(name)
		}
		return nil, NewStorageError(ErrMsgStorageQueryFailed, name, err)
	}
	return def, nil
}

// Save creates or replaces a wildcard. The ID and creation time of an
// existing row are kept.
func (s *sqlStorage) Save(ctx context.Context, def *WildcardDefinition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prepareDefinition(def); err != nil {
		return err
	}

	entriesJSON, err := json.Marshal(def.Entries)
	if err != nil {
		return NewStorageError(ErrMsgStorageWriteFailed, def.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	now := time.Now().UTC()
	upsert := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s)
		ON CONFLICT (name) DO UPDATE SET
			entries     = excluded.entries,
			category    = excluded.category,
			description = excluded.description,
			shared      = excluded.shared,
			updated_at  = excluded.updated_at`,
		s.tableName(), sqlWildcardColumns,
		s.bind(1), s.bind(2), s.bind(3), s.bind(4), s.bind(5), s.bind(6), s.bind(7), s.bind(8))

	_, err = s.db.ExecContext(ctx, upsert,
		def.ID, def.Name, string(entriesJSON), def.Category, def.Description, def.Shared, now, now)
	if err != nil {
		return NewStorageError(ErrMsgStorageWriteFailed, def.Name, err)
	}

	var createdAt time.Time
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id, created_at FROM %s WHERE name = %s", s.tableName(), s.bind(1)),
		def.Name).Scan(&def.ID, &createdAt)
	if err != nil {
		return NewStorageError(ErrMsgStorageReadFailed, def.Name, err)
	}
	def.CreatedAt = createdAt
	def.UpdatedAt = now
	return nil
}

// Delete removes a wildcard by name.
func (s *sqlStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE name = %s", s.tableName(), s.bind(1)), name)
	if err != nil {
		return NewStorageError(ErrMsgStorageWriteFailed, name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return NewStorageError(ErrMsgStorageWriteFailed, name, err)
	}
	if affected == 0 {
		return NewWildcardNotFoundError(name)
	}
	return nil
}

// List returns wildcards matching the query ordered by name.
func (s *sqlStorage) List(ctx context.Context, query *WildcardQuery) ([]*WildcardDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	if query == nil {
		query = &WildcardQuery{}
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var conditions []string
	var args []any
	argIdx := 1

	if query.Category != "" {
		conditions = append(conditions, "category = "+s.bind(argIdx))
		args = append(args, query.Category)
		argIdx++
	}
	if query.NamePrefix != "" {
		conditions = append(conditions, "name LIKE "+s.bind(argIdx))
		args = append(args, query.NamePrefix+"%")
		argIdx++
	}
	if query.SharedOnly {
		conditions = append(conditions, "shared = "+s.bind(argIdx))
		args = append(args, true)
		argIdx++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	sqlQuery := fmt.Sprintf("SELECT %s FROM %s %s ORDER BY name ASC",
		sqlWildcardColumns, s.tableName(), whereClause)

	switch {
	case query.Limit > 0:
		sqlQuery += fmt.Sprintf(" LIMIT %d", query.Limit)
	case query.Offset > 0:
		sqlQuery += " LIMIT " + s.dialect.noLimit
	}
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, NewStorageError(ErrMsgStorageQueryFailed, "", err)
	}
	defer rows.Close()

	results := make([]*WildcardDefinition, 0)
	for rows.Next() {
		def, err := scanWildcard(rows)
		if err != nil {
			return nil, NewStorageError(ErrMsgStorageReadFailed, "", err)
		}
		results = append(results, def)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(ErrMsgStorageQueryFailed, "", err)
	}
	return results, nil
}

// Exists checks whether a wildcard exists.
func (s *sqlStorage) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var count int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE name = %s", s.tableName(), s.bind(1)),
		name).Scan(&count)
	if err != nil {
		return false, NewStorageError(ErrMsgStorageQueryFailed, name, err)
	}
	return count > 0, nil
}

// Snapshot loads every wildcard into a lookup.
func (s *sqlStorage) Snapshot(ctx context.Context) (WildcardLookup, error) {
	return snapshotOf(ctx, s)
}

// Close closes the connection pool.
func (s *sqlStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// RunMigrations applies pending schema migrations.
func (s *sqlStorage) RunMigrations(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version     INTEGER PRIMARY KEY,
			applied_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			description VARCHAR(255)
		)`, s.migrationsTableName()))
	if err != nil {
		return NewStorageError(ErrMsgStorageMigrationFailed, s.dialect.name, err)
	}

	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, m := range s.dialect.migrations(s.prefix) {
		if applied[m.Version] {
			continue
		}
		if err := s.applyMigration(ctx, m); err != nil {
			return NewStorageError(ErrMsgStorageMigrationFailed, s.dialect.name,
				fmt.Errorf("migration %d failed: %w", m.Version, err))
		}
	}
	return nil
}

func (s *sqlStorage) appliedMigrations(ctx context.Context) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT version FROM %s", s.migrationsTableName()))
	if err != nil {
		return nil, NewStorageError(ErrMsgStorageMigrationFailed, s.dialect.name, err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, NewStorageError(ErrMsgStorageMigrationFailed, s.dialect.name, err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(ErrMsgStorageMigrationFailed, s.dialect.name, err)
	}
	return applied, nil
}

func (s *sqlStorage) applyMigration(ctx context.Context, m sqlMigration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (version, description) VALUES (%s, %s)",
			s.migrationsTableName(), s.bind(1), s.bind(2)),
		m.Version, m.Description)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// CurrentSchemaVersion returns the highest applied migration, or 0.
func (s *sqlStorage) CurrentSchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT MAX(version) FROM %s", s.migrationsTableName())).Scan(&version)
	if err != nil {
		return 0, NewStorageError(ErrMsgStorageQueryFailed, s.dialect.name, err)
	}
	return int(version.Int64), nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWildcard(row rowScanner) (*WildcardDefinition, error) {
	var (
		def         WildcardDefinition
		entriesJSON []byte
		category    sql.NullString
		description sql.NullString
	)
	err := row.Scan(&def.ID, &def.Name, &entriesJSON, &category, &description,
		&def.Shared, &def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(entriesJSON, &def.Entries); err != nil {
		return nil, err
	}
	def.Category = category.String
	def.Description = description.String
	return &def, nil
}
