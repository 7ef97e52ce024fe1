// Package protect provides persistent storage for the device protection list.
//
// Protected devices are excluded from disable and delete sweeps regardless
// of how stale their sign-in activity is. Entries are keyed by
// (provider, device_id) where device_id is the directory object ID.
//
// Storage is backed by the shared SQLite database at
// ~/.config/devsweep/devsweep.db (separate table from the audit log).
package protect

import (
	"database/sql"
	"fmt"
	"time"

	"nathanbeddoewebdev/devsweep/internal/database"
)

// Repository defines the persistence interface for the protection list.
type Repository interface {
	// IsProtected reports whether a (provider, deviceID) pair is on the list.
	IsProtected(provider, deviceID string) (bool, error)

	// Add upserts a protection entry. Re-adding an existing device updates
	// its note and keeps the original creation time.
	Add(rec *ProtectedDevice) error

	// Remove deletes a protection entry, reporting whether it existed.
	Remove(provider, deviceID string) (bool, error)

	// List returns protection entries, newest first. An empty provider
	// returns entries for all providers.
	List(provider string) ([]ProtectedDevice, error)

	// Close releases database resources.
	Close() error
}

// SQLiteRepository implements Repository backed by a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// Open creates or opens the protection repository at the default path.
func Open() (*SQLiteRepository, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("protect: %w", err)
	}
	return OpenAt(path)
}

// OpenAt creates or opens a SQLite database at the given path.
func OpenAt(path string) (*SQLiteRepository, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("protect: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS protected_devices (
            id         INTEGER PRIMARY KEY AUTOINCREMENT,
            provider   TEXT NOT NULL,
            device_id  TEXT NOT NULL,
            note       TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL,
            UNIQUE(provider, device_id)
        );
        CREATE INDEX IF NOT EXISTS idx_protected_devices_provider ON protected_devices(provider);
    `
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("protect: migration failed: %w", err)
	}
	return nil
}

// IsProtected reports whether a (provider, deviceID) pair is on the list.
func (r *SQLiteRepository) IsProtected(provider, deviceID string) (bool, error) {
	row := r.db.QueryRow(`
        SELECT 1 FROM protected_devices WHERE provider = ? AND device_id = ? LIMIT 1`,
		provider, deviceID)

	var one int
	err := row.Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("protect: query failed: %w", err)
	}
	return true, nil
}

// Add upserts a protection entry.
func (r *SQLiteRepository) Add(rec *ProtectedDevice) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.Exec(`
        INSERT INTO protected_devices (provider, device_id, note, created_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(provider, device_id) DO UPDATE SET
            note = excluded.note`,
		rec.Provider, rec.DeviceID, rec.Note, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("protect: upsert failed: %w", err)
	}

	if rec.ID == 0 {
		id, err := result.LastInsertId()
		if err == nil {
			rec.ID = id
		}
	}
	return nil
}

// Remove deletes a protection entry, reporting whether it existed.
func (r *SQLiteRepository) Remove(provider, deviceID string) (bool, error) {
	result, err := r.db.Exec(`
        DELETE FROM protected_devices WHERE provider = ? AND device_id = ?`,
		provider, deviceID)
	if err != nil {
		return false, fmt.Errorf("protect: delete failed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("protect: delete failed: %w", err)
	}
	return n > 0, nil
}

// List returns protection entries, newest first.
func (r *SQLiteRepository) List(provider string) ([]ProtectedDevice, error) {
	query := `
        SELECT id, provider, device_id, note, created_at
        FROM protected_devices ORDER BY created_at DESC`
	args := []any{}
	if provider != "" {
		query = `
        SELECT id, provider, device_id, note, created_at
        FROM protected_devices WHERE provider = ? ORDER BY created_at DESC`
		args = append(args, provider)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("protect: query failed: %w", err)
	}
	defer rows.Close()

	var records []ProtectedDevice
	for rows.Next() {
		var rec ProtectedDevice
		var createdStr string
		if err := rows.Scan(&rec.ID, &rec.Provider, &rec.DeviceID, &rec.Note, &createdStr); err != nil {
			return nil, fmt.Errorf("protect: scan failed: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
