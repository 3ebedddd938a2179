package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Storage is the SQLite-backed local composition store and meal log
type Storage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at dbPath and ensures the schema.
// ":memory:" gives a private in-memory database.
func NewSQLiteStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: writes are serialized and ":memory:" stays a single database
	db.SetMaxOpenConns(1)

	storage := &Storage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS food_nutrients (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        fdc_id INTEGER NOT NULL DEFAULT 0,
        food TEXT NOT NULL,
        nutrient TEXT NOT NULL,
        amount REAL NOT NULL,
        unit TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS meal_entries (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        date TEXT NOT NULL,
        source TEXT NOT NULL,
        source_id TEXT NOT NULL DEFAULT '',
        totals TEXT NOT NULL,
        created_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS daily_totals (
        user_id TEXT NOT NULL,
        date TEXT NOT NULL,
        nutrient TEXT NOT NULL,
        total REAL NOT NULL,
        PRIMARY KEY (user_id, date, nutrient)
    );

    CREATE INDEX IF NOT EXISTS idx_food_nutrients_food ON food_nutrients(food);
    CREATE INDEX IF NOT EXISTS idx_meal_entries_user_date ON meal_entries(user_id, date);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
