package dynaprompt

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// SQLiteConfig configures the SQLite storage driver.
type SQLiteConfig struct {
	// DSN is the database file or URI, e.g. "file:wildcards.db".
	// Default: ":memory:"
	DSN string

	// TablePrefix allows customizing the table name prefix.
	// Default: "dynaprompt_"
	TablePrefix string

	// QueryTimeout bounds every query.
	// Default: 10 seconds
	QueryTimeout time.Duration
}

// SQLiteStorage is a WildcardStore backed by an embedded SQLite database.
// The schema is always migrated on open.
type SQLiteStorage struct {
	*sqlStorage
	config SQLiteConfig
}

// SQLiteStorageDriver is the driver for creating SQLiteStorage instances.
type SQLiteStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameSQLite, &SQLiteStorageDriver{})
}

// Open creates a SQLiteStorage. An empty connection string opens an
// in-memory database.
func (d *SQLiteStorageDriver) Open(connectionString string) (WildcardStore, error) {
	return NewSQLiteStorage(SQLiteConfig{DSN: connectionString})
}

// NewSQLiteStorage opens the database and migrates the schema.
func NewSQLiteStorage(config SQLiteConfig) (*SQLiteStorage, error) {
	if config.DSN == "" {
		config.DSN = SQLiteMemoryDSN
	}
	if config.TablePrefix == "" {
		config.TablePrefix = SQLiteTablePrefix
	}
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = SQLiteDefaultQueryTimeout
	}

	db, err := sql.Open(SQLiteDriverName, config.DSN)
	if err != nil {
		return nil, NewStorageError(ErrMsgStorageOpenFailed, StorageDriverNameSQLite, err)
	}
	// An in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	ctx, cancel := context.WithTimeout(context.Background(), config.QueryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, NewStorageError(ErrMsgStorageOpenFailed, StorageDriverNameSQLite, err)
	}

	storage := &SQLiteStorage{
		sqlStorage: newSQLStorage(db, sqliteDialect, config.TablePrefix, config.QueryTimeout),
		config:     config,
	}
	if err := storage.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return storage, nil
}

var sqliteDialect = sqlDialect{
	name:        StorageDriverNameSQLite,
	placeholder: func(int) string { return "?" },
	noLimit:     "-1",
	migrations:  sqliteMigrations,
}

func sqliteMigrations(prefix string) []sqlMigration {
	table := prefix + "wildcards"
	return []sqlMigration{
		{
			Version:     1,
			Description: "Initial schema with wildcards table",
			Statements: []string{
				fmt.Sprintf(`
					CREATE TABLE IF NOT EXISTS %s (
						id          TEXT PRIMARY KEY,
						name        TEXT NOT NULL UNIQUE,
						entries     TEXT NOT NULL DEFAULT '[]',
						category    TEXT NOT NULL DEFAULT '',
						description TEXT NOT NULL DEFAULT '',
						shared      BOOLEAN NOT NULL DEFAULT 0,
						created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
						updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
					)`, table),
				fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_category ON %s(category)", table, table),
			},
		},
	}
}
