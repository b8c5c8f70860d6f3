package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/taskport/taskport/config"
	"github.com/taskport/taskport/log"
)

// The kv table is the external key-value store: staged import sessions
// live under import:* keys, the per-user todo-list cache under todos:*.
// Values are whole JSON blobs written wholesale; there is no field-level
// update and no locking across requests.

// NowMs returns the current time in epoch milliseconds
func NowMs() int64 {
	return time.Now().UnixMilli()
}

var shouldLogQueries bool

func init() {
	shouldLogQueries = config.Get().DBLogQueries
}

func logQuery(kind, key string) {
	if !shouldLogQueries {
		return
	}
	log.Debug().Str("kind", kind).Str("key", key).Msg("kv query")
}

// KVGet retrieves a value by key. Returns false when the key is absent or
// has expired; expired rows are left for the reaper.
func KVGet(key string) (string, bool, error) {
	logQuery("get", key)

	var value string
	var expiresAt sql.NullInt64
	err := GetDB().QueryRow("SELECT value, expires_at FROM kv WHERE key = ?", key).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if expiresAt.Valid && expiresAt.Int64 <= NowMs() {
		return "", false, nil
	}
	return value, true, nil
}

// KVSet stores a value under key. A zero ttl stores without expiry.
func KVSet(key, value string, ttl time.Duration) error {
	logQuery("set", key)

	var expiresAt any
	if ttl > 0 {
		expiresAt = NowMs() + ttl.Milliseconds()
	}

	_, err := GetDB().Exec(`
		INSERT INTO kv (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, key, value, expiresAt, NowMs())
	return err
}

// KVDelete removes a key
func KVDelete(key string) error {
	logQuery("delete", key)

	_, err := GetDB().Exec("DELETE FROM kv WHERE key = ?", key)
	return err
}

// KVGetJSON retrieves a value and unmarshals it from JSON
func KVGetJSON(key string, v any) (bool, error) {
	value, ok, err := KVGet(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(value), v); err != nil {
		return false, err
	}
	return true, nil
}

// KVSetJSON marshals a value to JSON and stores it
func KVSetJSON(key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return KVSet(key, string(data), ttl)
}

// KVCountPrefix counts live keys under a prefix
func KVCountPrefix(prefix string) (int64, error) {
	var count int64
	err := GetDB().QueryRow(
		"SELECT COUNT(*) FROM kv WHERE key LIKE ? AND (expires_at IS NULL OR expires_at > ?)",
		prefix+"%", NowMs(),
	).Scan(&count)
	return count, err
}

// PurgeExpired deletes rows whose expiry has passed, returning the count
func PurgeExpired() (int64, error) {
	result, err := GetDB().Exec("DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= ?", NowMs())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// InvalidateTodoCache drops the user's cached todo list. Best-effort at
// call sites; the cache self-corrects on the next read-through.
func InvalidateTodoCache(userID string) error {
	return KVDelete("todos:" + userID)
}

// Store adapts the package-level kv functions to the importer's
// SessionStore interface.
type Store struct{}

// NewStore returns a session store backed by the kv table
func NewStore() *Store {
	return &Store{}
}

func (s *Store) GetJSON(key string, v any) (bool, error) {
	return KVGetJSON(key, v)
}

func (s *Store) SetJSON(key string, v any, ttl time.Duration) error {
	return KVSetJSON(key, v, ttl)
}
