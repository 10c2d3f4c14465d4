// Package registry is a local SQLite cache of the collections and
// assets created through this process. The ledger stays the source of
// truth; losing this file loses nothing durable. It exists because a
// ledger token lookup cannot recover the collection memo or the local
// creation timestamp, and because listing "my collections" should not
// need a network scan.
package registry

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS collections (
	token_id   TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	symbol     TEXT NOT NULL DEFAULT '',
	memo       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS assets (
	identity   TEXT PRIMARY KEY,
	token_id   TEXT NOT NULL,
	serial     INTEGER NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_assets_token ON assets(token_id);
`

// Collection is one cached token class.
type Collection struct {
	TokenID   string    `json:"tokenId"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol"`
	Memo      string    `json:"memo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Asset is one cached minted unit.
type Asset struct {
	Identity  string    `json:"identity"`
	TokenID   string    `json:"tokenId"`
	Serial    int64     `json:"serial"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the registry database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("registry: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("registry: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("registry: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// UpsertCollection inserts or replaces a cached collection.
func (db *DB) UpsertCollection(c Collection) error {
	_, err := db.conn.Exec(`
		INSERT INTO collections (token_id, name, symbol, memo, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(token_id) DO UPDATE SET
			name   = excluded.name,
			symbol = excluded.symbol,
			memo   = excluded.memo
	`, c.TokenID, c.Name, c.Symbol, c.Memo, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("registry: upsert collection: %w", err)
	}
	return nil
}

// ListCollections returns every cached collection, newest first.
func (db *DB) ListCollections() ([]Collection, error) {
	rows, err := db.conn.Query(`
		SELECT token_id, name, symbol, memo, created_at
		FROM collections ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("registry: list collections: %w", err)
	}
	defer rows.Close()

	var out []Collection
	for rows.Next() {
		var c Collection
		if err := rows.Scan(&c.TokenID, &c.Name, &c.Symbol, &c.Memo, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertAsset inserts or replaces a cached asset.
func (db *DB) UpsertAsset(a Asset) error {
	_, err := db.conn.Exec(`
		INSERT INTO assets (identity, token_id, serial, name, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			name = excluded.name
	`, a.Identity, a.TokenID, a.Serial, a.Name, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("registry: upsert asset: %w", err)
	}
	return nil
}

// ListAssets returns the cached assets of one collection by serial.
func (db *DB) ListAssets(tokenID string) ([]Asset, error) {
	rows, err := db.conn.Query(`
		SELECT identity, token_id, serial, name, created_at
		FROM assets WHERE token_id = ? ORDER BY serial`, tokenID)
	if err != nil {
		return nil, fmt.Errorf("registry: list assets: %w", err)
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.Identity, &a.TokenID, &a.Serial, &a.Name, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
