package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"tmovies/models"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SQLiteStore keeps the collection in a single row of a slots table. The
// payload is the same JSON array the file backend writes, so switching
// backends is a copy of one value.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database under dataDir
// and runs migrations.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if dataDir != "" && dataDir != "." {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dbPath := filepath.Join(dataDir, "watched.db")
	connString := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	conn, err := sql.Open("sqlite3", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single logical writer; one connection avoids lock contention.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxIdleTime(15 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma '%s': %w", pragma, err)
		}
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{conn: conn}, nil
}

// runMigrations applies the embedded migrations using Goose.
func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Verify that the slots table exists.
	var tableName string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='slots'").Scan(&tableName)
	if err != nil {
		return fmt.Errorf("migration verification failed: slots table does not exist: %w", err)
	}
	return nil
}

// Load reads the slot row. A missing row is an empty list; a corrupt
// payload is logged and treated as empty.
func (s *SQLiteStore) Load(ctx context.Context) ([]models.WatchedItem, error) {
	var payload []byte
	err := s.conn.QueryRowContext(ctx, "SELECT payload FROM slots WHERE name = ?", SlotName).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.WatchedItem{}, nil
		}
		return nil, fmt.Errorf("read watched list: %w", err)
	}

	var items []models.WatchedItem
	if err := json.Unmarshal(payload, &items); err != nil {
		log.Printf("[store] failed to decode watched list, starting empty: %v", err)
		return []models.WatchedItem{}, nil
	}
	if items == nil {
		items = []models.WatchedItem{}
	}
	return items, nil
}

// ReplaceAll swaps the slot payload in a single upsert statement.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, items []models.WatchedItem) error {
	if items == nil {
		items = []models.WatchedItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode watched list: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO slots (name, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		SlotName, data)
	if err != nil {
		return fmt.Errorf("replace watched list: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
