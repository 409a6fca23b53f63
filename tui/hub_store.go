package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// hubStore is the local sqlite database under the config dir. It keeps what
// the .vibe files cannot: the history of projects directories the hub has
// pointed at, and a log of pipeline stage transitions across all projects.
type hubStore struct {
	db   *sql.DB
	path string
}

type stageEvent struct {
	ProjectPath string
	FromStatus  string
	ToStatus    string
	At          time.Time
}

func openHubStore(configDir string) (*hubStore, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, err
	}
	sqlitePath := filepath.Join(configDir, "hub.sqlite")
	db, err := sql.Open("sqlite", sqlitePath)
	if err != nil {
		return nil, err
	}
	if err := migrateHubStore(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &hubStore{db: db, path: sqlitePath}, nil
}

func migrateHubStore(db *sql.DB) error {
	statements := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS directories (
			path TEXT PRIMARY KEY,
			last_used TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS stage_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_path TEXT NOT NULL,
			from_status TEXT NOT NULL DEFAULT '',
			to_status TEXT NOT NULL,
			at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_stage_events_project ON stage_events (project_path, at);`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("hub store migration failed: %w", err)
		}
	}
	return nil
}

func (s *hubStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Directories returns previously used projects directories, most recent
// first. Powers the suggestion list in the settings form.
func (s *hubStore) Directories() ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT path FROM directories ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dirs []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		clean := filepath.Clean(path)
		if clean == "" || clean == "." {
			continue
		}
		dirs = append(dirs, clean)
	}
	return dirs, rows.Err()
}

func (s *hubStore) RememberDirectory(path string) error {
	if s == nil || s.db == nil {
		return nil
	}
	clean := filepath.Clean(strings.TrimSpace(path))
	if clean == "" || clean == "." {
		return nil
	}
	_, err := s.db.Exec(`INSERT INTO directories (path, last_used) VALUES (?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET last_used = CURRENT_TIMESTAMP`, clean)
	return err
}

func (s *hubStore) ForgetDirectory(path string) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.Exec(`DELETE FROM directories WHERE path = ?`, filepath.Clean(strings.TrimSpace(path)))
	return err
}

func (s *hubStore) RecordStageEvent(projectPath, fromStatus, toStatus string) error {
	if s == nil || s.db == nil {
		return nil
	}
	if strings.TrimSpace(toStatus) == "" {
		return nil
	}
	_, err := s.db.Exec(`INSERT INTO stage_events (project_path, from_status, to_status) VALUES (?, ?, ?)`,
		filepath.Clean(projectPath), fromStatus, toStatus)
	return err
}

// StageEvents returns the recorded transitions for one project in
// chronological order.
func (s *hubStore) StageEvents(projectPath string) ([]stageEvent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT project_path, from_status, to_status, at
		FROM stage_events WHERE project_path = ? ORDER BY at ASC, id ASC`, filepath.Clean(projectPath))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStageEvents(rows)
}

// RecentEvents returns the newest transitions across every project.
func (s *hubStore) RecentEvents(limit int) ([]stageEvent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT project_path, from_status, to_status, at
		FROM stage_events ORDER BY at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStageEvents(rows)
}

func scanStageEvents(rows *sql.Rows) ([]stageEvent, error) {
	var events []stageEvent
	for rows.Next() {
		var event stageEvent
		if err := rows.Scan(&event.ProjectPath, &event.FromStatus, &event.ToStatus, &event.At); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
