package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY,
    first_name TEXT,
    last_name TEXT,
    username TEXT,
    mobile_number TEXT NOT NULL DEFAULT '',
    level INTEGER NOT NULL DEFAULT 1,
    poll_index INTEGER NOT NULL DEFAULT 0,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const defaultSettings = `
INSERT OR IGNORE INTO settings (key, value) VALUES
    ('welcome_message', 'Welcome to the quiz! Please provide your mobile number:'),
    ('final_message', 'That''s all the levels for now 😜 We''ll upload the next one soon.

Send /start once a new level is available.');
`

const migrations = `
ALTER TABLE users ADD COLUMN mobile_number TEXT NOT NULL DEFAULT '';
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return err
	}

	_, err = db.Exec(defaultSettings)
	if err != nil {
		return err
	}

	db.Exec(migrations)

	return nil
}
