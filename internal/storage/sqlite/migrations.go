package sqlite

import "github.com/jmoiron/sqlx"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS calculations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    amount REAL NOT NULL,
    tip_percent INTEGER NOT NULL,
    total REAL NOT NULL,
    per_person REAL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS user_settings (
    user_id INTEGER PRIMARY KEY,
    default_tip_percent INTEGER NOT NULL DEFAULT 10,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_calculations_user_created ON calculations(user_id, created_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}
