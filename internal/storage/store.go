package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/tenyearsoneday/telegram-shop-bot/internal/cart"
)

// cartKeyPrefix namespaces cart payloads in the kv table. The versioned
// prefix means a future payload change can simply switch keys and old
// entries become unreadable-but-harmless.
const cartKeyPrefix = "tym:cart:v1:"

// CartKey returns the storage key for a chat's cart.
func CartKey(chatID int64) string {
	return cartKeyPrefix + strconv.FormatInt(chatID, 10)
}

// Store is a SQLite-backed key-value store holding each chat's serialized
// cart. It implements cart.Persister.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (creating if needed) the database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	// WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS kv_state (
		key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create kv_state table: %w", err)
	}
	return nil
}

// LoadLines reads a chat's persisted cart. Best-effort by contract: a
// missing row, an unparseable payload or a payload that isn't a list all
// yield an empty cart with no error. Only infrastructure failures (the
// database itself erroring) are reported.
func (s *Store) LoadLines(chatID int64) ([]cart.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRow(
		"SELECT payload FROM kv_state WHERE key = ?",
		CartKey(chatID),
	).Scan(&payload)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	var lines []cart.Line
	if err := json.Unmarshal([]byte(payload), &lines); err != nil {
		log.Warn().Int64("chatId", chatID).Err(err).Msg("corrupt cart payload, treating as empty")
		return nil, nil
	}
	return lines, nil
}

// SaveLines overwrites a chat's cart with the whole line list. The write is
// a single upsert, so a crash mid-save leaves either the old or the new
// payload, never a partial one.
func (s *Store) SaveLines(chatID int64, lines []cart.Line) error {
	payload, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO kv_state (key, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, CartKey(chatID), string(payload))

	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
