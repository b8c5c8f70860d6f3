package db

import "database/sql"

func init() {
	RegisterMigration(Migration{
		Version:     1,
		Description: "initial schema: kv store with expiry",
		Up:          migration001Up,
	})
}

func migration001Up(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			expires_at INTEGER,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_kv_expires_at ON kv(expires_at);
	`)
	return err
}
