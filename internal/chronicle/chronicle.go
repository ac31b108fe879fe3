// Package chronicle records run history in SQLite. It is write-only from the
// simulation's point of view: runs are never resumed from it.
package chronicle

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/talgya/civsim/internal/config"
	"github.com/talgya/civsim/internal/engine"
)

// ErrUnknownRun is returned when recording against a run that was never begun.
var ErrUnknownRun = errors.New("unknown run")

// RunID identifies one simulation run.
type RunID string

// DB wraps a SQLite connection holding the chronicle.
type DB struct {
	conn *sqlx.DB
}

// Run is one recorded simulation run.
type Run struct {
	ID        RunID  `db:"id"`
	StartedAt string `db:"started_at"`
	Profile   string `db:"profile"`
	Seed      int64  `db:"seed"`
	Config    string `db:"config_yaml"`
	LastYear  uint64 `db:"last_year"`
	Finished  bool   `db:"finished"`
}

// YearRecord is the aggregate state at the end of one year.
type YearRecord struct {
	Year           uint64  `db:"year"`
	Active         int     `db:"active"`
	Merged         int     `db:"merged"`
	Eliminated     int     `db:"eliminated"`
	Population     float64 `db:"population"`
	Territory      int     `db:"territory"`
	InConflict     int     `db:"in_conflict"`
	PendingMeteors int     `db:"pending_meteors"`
	Battles        int     `db:"battles"`
}

// CivRecord is one civilization's state at the end of a recorded year.
type CivRecord struct {
	Year       uint64  `db:"year"`
	CivID      uint64  `db:"civ_id"`
	Name       string  `db:"name"`
	Population float64 `db:"population"`
	Territory  int     `db:"territory"`
	InConflict bool    `db:"in_conflict"`
}

// EventRecord is a stored engine event.
type EventRecord struct {
	Year        uint64 `db:"year"`
	Category    string `db:"category"`
	Description string `db:"description"`
	Meta        string `db:"meta_json"`
}

// Open opens or creates a chronicle database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		profile TEXT NOT NULL,
		seed INTEGER NOT NULL,
		config_yaml TEXT NOT NULL,
		last_year INTEGER NOT NULL DEFAULT 0,
		finished INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS years (
		run_id TEXT NOT NULL REFERENCES runs(id),
		year INTEGER NOT NULL,
		active INTEGER NOT NULL,
		merged INTEGER NOT NULL,
		eliminated INTEGER NOT NULL,
		population REAL NOT NULL,
		territory INTEGER NOT NULL,
		in_conflict INTEGER NOT NULL,
		pending_meteors INTEGER NOT NULL,
		battles INTEGER NOT NULL,
		PRIMARY KEY (run_id, year)
	);

	CREATE TABLE IF NOT EXISTS civilizations (
		run_id TEXT NOT NULL REFERENCES runs(id),
		year INTEGER NOT NULL,
		civ_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		population REAL NOT NULL,
		territory INTEGER NOT NULL,
		in_conflict INTEGER NOT NULL,
		PRIMARY KEY (run_id, year, civ_id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		year INTEGER NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		meta_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_year ON events(run_id, year);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// BeginRun registers a new run and stores its configuration.
func (db *DB) BeginRun(cfg config.Config) (RunID, error) {
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}

	id := RunID(uuid.NewString())
	_, err = db.conn.Exec(
		"INSERT INTO runs (id, started_at, profile, seed, config_yaml) VALUES (?, ?, ?, ?, ?)",
		string(id), time.Now().UTC().Format(time.RFC3339), cfg.Profile, cfg.Seed, string(body),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	slog.Info("chronicle run started", "run", id, "profile", cfg.Profile, "seed", cfg.Seed)
	return id, nil
}

// RecordYear stores the aggregate state and every active civilization of snap.
func (db *DB) RecordYear(run RunID, snap engine.Snapshot) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec("UPDATE runs SET last_year = ? WHERE id = ?", snap.Year, string(run))
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, run)
	}

	st := snap.Stats
	_, err = tx.Exec(`INSERT OR REPLACE INTO years
		(run_id, year, active, merged, eliminated, population, territory,
		 in_conflict, pending_meteors, battles)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(run), snap.Year, st.Active, st.Merged, st.Eliminated, st.TotalPopulation,
		st.TerritoryCells, st.InConflict, st.PendingMeteors, st.Battles,
	)
	if err != nil {
		return fmt.Errorf("insert year %d: %w", snap.Year, err)
	}

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO civilizations
		(run_id, year, civ_id, name, population, territory, in_conflict)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range snap.Civilizations {
		if _, err := stmt.Exec(string(run), snap.Year, uint64(c.ID), c.Name, c.Population, c.Territory, c.InConflict); err != nil {
			return fmt.Errorf("insert civilization %d: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// RecordEvents appends events to the run.
func (db *DB) RecordEvents(run RunID, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		meta, err := json.Marshal(e.Meta)
		if err != nil {
			return fmt.Errorf("encode meta: %w", err)
		}
		_, err = tx.Exec(
			"INSERT INTO events (run_id, year, category, description, meta_json) VALUES (?, ?, ?, ?, ?)",
			string(run), e.Year, e.Category, e.Description, string(meta),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// EndRun marks the run finished at the given year.
func (db *DB) EndRun(run RunID, year uint64) error {
	_, err := db.conn.Exec("UPDATE runs SET last_year = ?, finished = 1 WHERE id = ?", year, string(run))
	return err
}

// Runs returns every recorded run, newest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT * FROM runs ORDER BY started_at DESC, id")
	return runs, err
}

// Years returns the yearly records of a run in order.
func (db *DB) Years(run RunID) ([]YearRecord, error) {
	var years []YearRecord
	err := db.conn.Select(&years, `SELECT year, active, merged, eliminated, population,
		territory, in_conflict, pending_meteors, battles
		FROM years WHERE run_id = ? ORDER BY year`, string(run))
	return years, err
}

// Civilizations returns the recorded state of every civilization in one year.
func (db *DB) Civilizations(run RunID, year uint64) ([]CivRecord, error) {
	var civs []CivRecord
	err := db.conn.Select(&civs, `SELECT year, civ_id, name, population, territory, in_conflict
		FROM civilizations WHERE run_id = ? AND year = ? ORDER BY civ_id`, string(run), year)
	return civs, err
}

// RecentEvents returns the most recent events of a run, newest first.
func (db *DB) RecentEvents(run RunID, limit int) ([]EventRecord, error) {
	var events []EventRecord
	err := db.conn.Select(&events,
		"SELECT year, category, description, meta_json FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		string(run), limit,
	)
	return events, err
}
