// Package preset stores encoded parameter snapshots in a SQLite bank so
// hosts can save and recall named presets across runs.
package preset

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a named preset does not exist.
var ErrNotFound = errors.New("preset: not found")

// Info describes a stored preset without its payload.
type Info struct {
	Name    string
	Plugin  string
	Updated time.Time
}

// Bank is a named preset store backed by a SQLite database.
type Bank struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS presets (
	name TEXT NOT NULL,
	plugin TEXT NOT NULL,
	data BLOB NOT NULL,
	updated INTEGER NOT NULL,
	PRIMARY KEY (plugin, name)
);`

// Open opens or creates a bank at the given path. Use ":memory:" for an
// ephemeral bank.
func Open(path string) (*Bank, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("preset: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("preset: init schema: %w", err)
	}
	return &Bank{db: db}, nil
}

// Close releases the underlying database.
func (b *Bank) Close() error {
	return b.db.Close()
}

// Save stores a preset, replacing any existing preset with the same name
// for the same plugin.
func (b *Bank) Save(plugin, name string, data []byte) error {
	if name == "" {
		return errors.New("preset: empty name")
	}
	_, err := b.db.Exec(
		`INSERT OR REPLACE INTO presets (name, plugin, data, updated) VALUES (?, ?, ?, ?)`,
		name, plugin, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("preset: save %q: %w", name, err)
	}
	return nil
}

// Load returns the stored payload for a preset.
func (b *Bank) Load(plugin, name string) ([]byte, error) {
	var data []byte
	err := b.db.QueryRow(
		`SELECT data FROM presets WHERE plugin = ? AND name = ?`,
		plugin, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("preset: load %q: %w", name, err)
	}
	return data, nil
}

// List returns the presets stored for a plugin, most recently updated
// first.
func (b *Bank) List(plugin string) ([]Info, error) {
	rows, err := b.db.Query(
		`SELECT name, plugin, updated FROM presets WHERE plugin = ? ORDER BY updated DESC, name`,
		plugin)
	if err != nil {
		return nil, fmt.Errorf("preset: list: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		var updated int64
		if err := rows.Scan(&info.Name, &info.Plugin, &updated); err != nil {
			return nil, fmt.Errorf("preset: list: %w", err)
		}
		info.Updated = time.Unix(updated, 0)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes a preset. Deleting a missing preset returns ErrNotFound.
func (b *Bank) Delete(plugin, name string) error {
	res, err := b.db.Exec(
		`DELETE FROM presets WHERE plugin = ? AND name = ?`, plugin, name)
	if err != nil {
		return fmt.Errorf("preset: delete %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("preset: delete %q: %w", name, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
