package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/BuzzLyutic/todo-app/internal/model"
)

// dialect holds the statements that differ between SQL engines.
type dialect struct {
	driver string
	schema string
	upsert string
	get    string
	delete string
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS kv_store (
	store_key  TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at DATETIME NOT NULL
)`,
	upsert: `INSERT INTO kv_store (store_key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(store_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
	get:    `SELECT value FROM kv_store WHERE store_key = ?`,
	delete: `DELETE FROM kv_store WHERE store_key = ?`,
}

var mysqlDialect = dialect{
	driver: "mysql",
	schema: `CREATE TABLE IF NOT EXISTS kv_store (
	store_key  VARCHAR(191) PRIMARY KEY,
	value      LONGBLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`,
	upsert: `INSERT INTO kv_store (store_key, value, updated_at) VALUES (?, ?, ?)
	ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)`,
	get:    `SELECT value FROM kv_store WHERE store_key = ?`,
	delete: `DELETE FROM kv_store WHERE store_key = ?`,
}

// SQLGateway stores the blob in a kv_store table through database/sql.
type SQLGateway struct {
	db      *sql.DB
	dialect dialect
	key     string
	now     func() time.Time
}

// NewSQLiteGateway opens (or creates) a SQLite database at path.
func NewSQLiteGateway(ctx context.Context, path, key string) (*SQLGateway, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, wrap("open", err)
	}
	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, wrap("open", fmt.Errorf("open sqlite %s: %w", path, err))
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	return newSQLGateway(ctx, db, sqliteDialect, key)
}

// NewMySQLGateway connects to MySQL using dsn.
func NewMySQLGateway(ctx context.Context, dsn, key string) (*SQLGateway, error) {
	db, err := sql.Open(mysqlDialect.driver, dsn)
	if err != nil {
		return nil, wrap("open", fmt.Errorf("open mysql: %w", err))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrap("open", fmt.Errorf("ping mysql: %w", err))
	}
	return newSQLGateway(ctx, db, mysqlDialect, key)
}

func newSQLGateway(ctx context.Context, db *sql.DB, d dialect, key string) (*SQLGateway, error) {
	if key == "" {
		key = DefaultKey
	}
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		db.Close()
		return nil, wrap("open", fmt.Errorf("create schema: %w", err))
	}
	return &SQLGateway{db: db, dialect: d, key: key, now: time.Now}, nil
}

func (g *SQLGateway) Save(ctx context.Context, s model.State) error {
	data, err := Encode(s)
	if err != nil {
		return wrap("save", err)
	}
	if _, err := g.db.ExecContext(ctx, g.dialect.upsert, g.key, data, g.now().UTC()); err != nil {
		return wrap("save", fmt.Errorf("upsert %s: %w", g.key, err))
	}
	return nil
}

func (g *SQLGateway) Load(ctx context.Context) (model.State, error) {
	var data []byte
	err := g.db.QueryRowContext(ctx, g.dialect.get, g.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.State{}, wrap("load", ErrAbsent)
	}
	if err != nil {
		return model.State{}, wrap("load", fmt.Errorf("select %s: %w", g.key, err))
	}
	s, err := Decode(data, g.now())
	return s, wrap("load", err)
}

func (g *SQLGateway) Clear(ctx context.Context) error {
	if _, err := g.db.ExecContext(ctx, g.dialect.delete, g.key); err != nil {
		return wrap("clear", fmt.Errorf("delete %s: %w", g.key, err))
	}
	return nil
}

// Close releases the underlying database connection.
func (g *SQLGateway) Close() error { return g.db.Close() }
