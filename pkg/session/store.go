// Package session persists listing views between CLI invocations: the
// pagination position of each view and its UI flags.
package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gigglobal/gigs/pkg/db"
	"github.com/gigglobal/gigs/pkg/flags"
	"github.com/gigglobal/gigs/pkg/log"
	"github.com/gigglobal/gigs/pkg/paging"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrNotFound is returned by Load for unknown view ids.
var ErrNotFound = errors.New("view not found")

// Info summarizes a saved view.
type Info struct {
	ID        string
	Query     string
	PageIndex int
	Total     int
	UpdatedAt time.Time
}

// Store is a sqlite backed session database.
type Store struct {
	db  *sql.DB
	log *log.Logger
}

// Open opens (creating if needed) the session database at path and brings
// its schema up to date.
func Open(path string) (*Store, error) {
	sqlDB, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.InitializeDatabase(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return &Store{db: sqlDB, log: log.ForService("session")}, nil
}

// OpenDB opens the session database without applying migrations.
func OpenDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA temp_store = memory",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}
	return sqlDB, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores the position of view id, replacing any previous one.
func (s *Store) Save(id string, st paging.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO views (id, query, state_json, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			query = excluded.query,
			state_json = excluded.state_json,
			updated_at = excluded.updated_at
	`, id, st.Query, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("saving view %s: %w", id, err)
	}
	s.log.Debugf("saved view %s at page %d", id, st.PageIndex)
	return nil
}

// Load returns the saved position of view id.
func (s *Store) Load(id string) (paging.State, error) {
	var data string
	err := s.db.QueryRow("SELECT state_json FROM views WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return paging.State{}, ErrNotFound
	}
	if err != nil {
		return paging.State{}, fmt.Errorf("loading view %s: %w", id, err)
	}

	var st paging.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return paging.State{}, fmt.Errorf("decoding view %s: %w", id, err)
	}
	return st, nil
}

// Delete removes view id and its flags. Unknown ids are not an error.
func (s *Store) Delete(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM views WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting view %s: %w", id, err)
	}
	if _, err := tx.Exec("DELETE FROM flags WHERE view_id = ?", id); err != nil {
		return fmt.Errorf("deleting flags of %s: %w", id, err)
	}
	return tx.Commit()
}

// List returns all saved views, most recently updated first.
func (s *Store) List() ([]Info, error) {
	rows, err := s.db.Query("SELECT id, state_json, updated_at FROM views ORDER BY updated_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("listing views: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.log.Warnf("failed to close rows: %v", err)
		}
	}()

	var out []Info
	for rows.Next() {
		var id, data string
		var updated int64
		if err := rows.Scan(&id, &data, &updated); err != nil {
			return nil, fmt.Errorf("scanning view: %w", err)
		}
		var st paging.State
		if err := json.Unmarshal([]byte(data), &st); err != nil {
			s.log.Warnf("skipping view %s: %v", id, err)
			continue
		}
		out = append(out, Info{
			ID:        id,
			Query:     st.Query,
			PageIndex: st.PageIndex,
			Total:     st.TotalCount,
			UpdatedAt: time.UnixMilli(updated),
		})
	}
	return out, rows.Err()
}

// Flags returns the persistent flag store of view id.
func (s *Store) Flags(id string) flags.Store {
	return &viewFlags{db: s.db, viewID: id}
}

type viewFlags struct {
	db     *sql.DB
	viewID string
}

func (f *viewFlags) Set(key string) error {
	_, err := f.db.Exec("INSERT OR IGNORE INTO flags (view_id, key) VALUES (?, ?)", f.viewID, key)
	if err != nil {
		return fmt.Errorf("setting flag %s: %w", key, err)
	}
	return nil
}

func (f *viewFlags) IsSet(key string) (bool, error) {
	var n int
	err := f.db.QueryRow("SELECT COUNT(*) FROM flags WHERE view_id = ? AND key = ?", f.viewID, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("reading flag %s: %w", key, err)
	}
	return n > 0, nil
}

func (f *viewFlags) Clear(key string) error {
	_, err := f.db.Exec("DELETE FROM flags WHERE view_id = ? AND key = ?", f.viewID, key)
	if err != nil {
		return fmt.Errorf("clearing flag %s: %w", key, err)
	}
	return nil
}
