// Package storage keeps a local sqlite copy of search results so cache
// lists survive between runs and changes between searches are visible.
package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS geocaches (
  geocode         TEXT PRIMARY KEY,
  name            TEXT NOT NULL,
  type            TEXT NOT NULL,
  size            TEXT NOT NULL,
  difficulty      REAL NOT NULL,
  terrain         REAL NOT NULL,
  latitude        REAL,
  longitude       REAL,
  found           TEXT NOT NULL DEFAULT '',
  favorite_points INTEGER NOT NULL DEFAULT 0,
  disabled        INTEGER NOT NULL CHECK (disabled IN (0,1)),
  archived        INTEGER NOT NULL CHECK (archived IN (0,1)),
  owner           TEXT,
  premium_only    INTEGER NOT NULL CHECK (premium_only IN (0,1)),
  first_seen_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  last_seen_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_geocaches_name ON geocaches(name);
CREATE TABLE IF NOT EXISTS geocache_changes (
  id          INTEGER PRIMARY KEY,
  occurred_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  geocode     TEXT NOT NULL,
  name        TEXT NOT NULL,
  change_type TEXT NOT NULL CHECK (change_type IN ('added','updated'))
);
CREATE INDEX IF NOT EXISTS idx_changes_time ON geocache_changes(occurred_at);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// UpsertRecords inserts new records and refreshes existing ones, returning a
// change row per geocode that was added or materially updated.
func (d *DB) UpsertRecords(ctx context.Context, records []Record) ([]Change, error) {
	now := time.Now().UTC()

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var changes []Change
	for _, r := range records {
		var existingName, existingFound string
		var existingDisabled, existingArchived int
		row := tx.QueryRowContext(ctx,
			"SELECT name, found, disabled, archived FROM geocaches WHERE geocode = ?", r.Geocode)
		scanErr := row.Scan(&existingName, &existingFound, &existingDisabled, &existingArchived)

		lat, lon := nullableCoord(r)

		if scanErr == sql.ErrNoRows {
			_, err = tx.ExecContext(ctx, `INSERT INTO geocaches
(geocode, name, type, size, difficulty, terrain, latitude, longitude, found, favorite_points, disabled, archived, owner, premium_only, first_seen_at, last_seen_at)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP,CURRENT_TIMESTAMP)`,
				r.Geocode, r.Name, r.Type, r.Size, r.Difficulty, r.Terrain, lat, lon,
				r.Found, r.FavoritePoints, boolToInt(r.Disabled), boolToInt(r.Archived), r.Owner, boolToInt(r.PremiumOnly))
			if err != nil {
				return nil, err
			}
			changes = append(changes, Change{OccurredAt: now, Geocode: r.Geocode, Name: r.Name, ChangeType: "added"})
			continue
		}
		if scanErr != nil {
			err = scanErr
			return nil, err
		}

		_, err = tx.ExecContext(ctx, `UPDATE geocaches SET
name=?, type=?, size=?, difficulty=?, terrain=?, latitude=?, longitude=?, found=?, favorite_points=?, disabled=?, archived=?, owner=?, premium_only=?, last_seen_at=CURRENT_TIMESTAMP
WHERE geocode=?`,
			r.Name, r.Type, r.Size, r.Difficulty, r.Terrain, lat, lon,
			r.Found, r.FavoritePoints, boolToInt(r.Disabled), boolToInt(r.Archived), r.Owner, boolToInt(r.PremiumOnly), r.Geocode)
		if err != nil {
			return nil, err
		}

		if existingName != r.Name || existingFound != r.Found ||
			existingDisabled != boolToInt(r.Disabled) || existingArchived != boolToInt(r.Archived) {
			changes = append(changes, Change{OccurredAt: now, Geocode: r.Geocode, Name: r.Name, ChangeType: "updated"})
		}
	}

	for _, c := range changes {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO geocache_changes(occurred_at, geocode, name, change_type) VALUES(?,?,?,?)",
			c.OccurredAt, c.Geocode, c.Name, c.ChangeType); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return changes, nil
}

// ListRecords returns all stored records ordered by geocode.
func (d *DB) ListRecords(ctx context.Context) ([]Record, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT geocode, name, type, size, difficulty, terrain,
latitude, longitude, found, favorite_points, disabled, archived, owner, premium_only
FROM geocaches ORDER BY geocode`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var lat, lon sql.NullFloat64
		var owner sql.NullString
		var disabled, archived, premium int
		if err := rows.Scan(&r.Geocode, &r.Name, &r.Type, &r.Size, &r.Difficulty, &r.Terrain,
			&lat, &lon, &r.Found, &r.FavoritePoints, &disabled, &archived, &owner, &premium); err != nil {
			return nil, err
		}
		if lat.Valid && lon.Valid {
			r.Latitude, r.Longitude, r.HasCoords = lat.Float64, lon.Float64, true
		}
		r.Owner = owner.String
		r.Disabled = disabled == 1
		r.Archived = archived == 1
		r.PremiumOnly = premium == 1
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullableCoord(r Record) (interface{}, interface{}) {
	if !r.HasCoords {
		return nil, nil
	}
	return r.Latitude, r.Longitude
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
