package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the progress database. DB_TYPE
// selects the dialect: "postgres" connects to DATABASE_URL, anything else
// opens a local sqlite file under the data directory.
func Connect() error {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "postgres" {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %v", err)
		}
		DB = db
		return initializeSchema()
	}

	// Create data directory if it doesn't exist
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "sozyola.db")
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %v", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	DB = db
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	// One row per user, replaced wholesale on every push
	_, err := DB.Exec(`
		CREATE TABLE IF NOT EXISTS user_progress (
			user_id TEXT PRIMARY KEY,
			unlocked_units TEXT NOT NULL DEFAULT '{}',
			results TEXT NOT NULL DEFAULT '{}',
			streak TEXT NOT NULL DEFAULT '{}',
			daily_goal TEXT NOT NULL DEFAULT '{}',
			last_studied TEXT,
			user_profile TEXT,
			favorites TEXT NOT NULL DEFAULT '[]',
			words_learned INTEGER NOT NULL DEFAULT 0,
			daily_usage_time TEXT,
			language TEXT,
			updated_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create user_progress table: %v", err)
	}

	// Unlock grants are written by admin tooling, the client only reads them
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS content_unlocks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			book_id INTEGER NOT NULL,
			unit_id INTEGER NOT NULL,
			unlocked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			unlocked_by TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			UNIQUE(user_id, book_id, unit_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create content_unlocks table: %v", err)
	}

	return nil
}
