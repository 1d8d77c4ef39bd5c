package database

import (
	"database/sql"
	"fmt"
)

// Migrate creates the schema if it does not exist. Safe to run on every
// startup and before every import. Statement order follows foreign-key
// dependencies: poets, then categories, then poems.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS poets (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL,
			description TEXT,
			birth_year INTEGER,
			death_year INTEGER,
			search_text TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY,
			poet_id INTEGER NOT NULL,
			parent_id INTEGER,
			title TEXT NOT NULL,
			url_slug TEXT,
			poem_count INTEGER NOT NULL DEFAULT 0,
			search_text TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (poet_id) REFERENCES poets(id)
		);`,
		`CREATE TABLE IF NOT EXISTS poems (
			id INTEGER PRIMARY KEY,
			poet_id INTEGER NOT NULL,
			category_id INTEGER,
			chapter_id INTEGER,
			title TEXT NOT NULL,
			verses TEXT NOT NULL DEFAULT '[]', -- JSON array, original line order
			snippet TEXT,
			search_text TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (poet_id) REFERENCES poets(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_categories_poet ON categories(poet_id);`,
		`CREATE INDEX IF NOT EXISTS idx_poems_poet ON poems(poet_id);`,
		`CREATE INDEX IF NOT EXISTS idx_poems_category ON poems(category_id);`,
		`CREATE TABLE IF NOT EXISTS contact_messages (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT,
			body TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
