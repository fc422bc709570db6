package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PQBackend persists storage documents in PostgreSQL over database/sql.
type PQBackend struct {
	conn *sql.DB
}

func NewPQBackend(host, port, user, password, dbname string) (*PQBackend, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &PQBackend{conn: conn}, nil
}

func (b *PQBackend) Close() error {
	return b.conn.Close()
}

// InitSchema creates the storage table if it doesn't exist
func (b *PQBackend) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS storage_entries (
		storage_key VARCHAR(64) PRIMARY KEY,
		document TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
	`
	_, err := b.conn.Exec(query)
	return err
}

// Load returns the document for the key, or (nil, nil) when absent.
func (b *PQBackend) Load(key string) ([]byte, error) {
	var document string
	err := b.conn.QueryRow(
		`SELECT document FROM storage_entries WHERE storage_key = $1`, key,
	).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(document), nil
}

// Save upserts the document under the key.
func (b *PQBackend) Save(key string, document []byte) error {
	query := `
	INSERT INTO storage_entries (storage_key, document, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (storage_key) DO UPDATE SET
		document = EXCLUDED.document,
		updated_at = EXCLUDED.updated_at
	`
	_, err := b.conn.Exec(query, key, string(document), time.Now())
	return err
}

// Delete removes the key; a missing row is not an error.
func (b *PQBackend) Delete(key string) error {
	_, err := b.conn.Exec(`DELETE FROM storage_entries WHERE storage_key = $1`, key)
	return err
}
