package tilestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"trickplay/internal/config"
	"trickplay/internal/tiles"
)

// Store manages tile-manifest persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Record is one persisted manifest keyed by (item, width).
type Record struct {
	ID        int64
	ItemID    string
	Width     int
	DestDir   string
	Manifest  tiles.Manifest
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stats summarizes store contents for status output.
type Stats struct {
	Items     int `json:"items"`
	Manifests int `json:"manifests"`
}

const schema = `
CREATE TABLE IF NOT EXISTS tile_manifests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id TEXT NOT NULL,
    width INTEGER NOT NULL,
    dest_dir TEXT NOT NULL,
    manifest_json TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE(item_id, width)
);
CREATE INDEX IF NOT EXISTS idx_tile_manifests_item ON tile_manifests(item_id);
`

// Open initializes or connects to the manifest database under the data dir.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "manifests.db"))
}

// OpenPath opens the manifest database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts the manifest for (itemID, manifest.Width).
func (s *Store) Save(ctx context.Context, itemID, destDir string, manifest *tiles.Manifest) error {
	if manifest == nil {
		return errors.New("manifest is nil")
	}
	encoded, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO tile_manifests (item_id, width, dest_dir, manifest_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(item_id, width) DO UPDATE SET
             dest_dir = excluded.dest_dir,
             manifest_json = excluded.manifest_json,
             updated_at = excluded.updated_at`,
		itemID,
		manifest.Width,
		destDir,
		string(encoded),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	return nil
}

// Get fetches the manifest record for (itemID, width), or nil when absent.
func (s *Store) Get(ctx context.Context, itemID string, width int) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, item_id, width, dest_dir, manifest_json, created_at, updated_at
         FROM tile_manifests WHERE item_id = ? AND width = ?`,
		itemID,
		width,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get manifest: %w", err)
	}
	return record, nil
}

// Widths returns the widths with a stored manifest for an item, ascending.
func (s *Store) Widths(ctx context.Context, itemID string) ([]int, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT width FROM tile_manifests WHERE item_id = ? ORDER BY width`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("query widths: %w", err)
	}
	defer rows.Close()

	var widths []int
	for rows.Next() {
		var width int
		if err := rows.Scan(&width); err != nil {
			return nil, err
		}
		widths = append(widths, width)
	}
	return widths, rows.Err()
}

// Delete removes the manifest record for (itemID, width).
func (s *Store) Delete(ctx context.Context, itemID string, width int) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM tile_manifests WHERE item_id = ? AND width = ?`,
		itemID,
		width,
	)
	if err != nil {
		return false, fmt.Errorf("delete manifest: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// StatsSummary counts distinct items and total manifests.
func (s *Store) StatsSummary(ctx context.Context) (Stats, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT item_id), COUNT(1) FROM tile_manifests`)
	var stats Stats
	if err := row.Scan(&stats.Items, &stats.Manifests); err != nil {
		return Stats{}, fmt.Errorf("store stats: %w", err)
	}
	return stats, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id         int64
		itemID     string
		width      int
		destDir    string
		encoded    string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &itemID, &width, &destDir, &encoded, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	record := &Record{ID: id, ItemID: itemID, Width: width, DestDir: destDir}
	if err := json.Unmarshal([]byte(encoded), &record.Manifest); err != nil {
		return nil, fmt.Errorf("decode manifest json: %w", err)
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		record.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}
