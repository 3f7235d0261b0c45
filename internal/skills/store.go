// Package skills provides a local library of reference snippets keyed by
// tag. Beads name the tags they need and the matching snippets are folded
// into the agent prompt. The store is advisory: missing tags never block a
// bead.
package skills

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// Skill is one reference snippet.
type Skill struct {
	Tag   string
	Title string
	Body  string
}

// Store provides SQLite-backed skill storage.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// DefaultDBPath returns the path to the skills database under the project
// state directory.
func DefaultDBPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".axon", "skills.db")
}

// Open opens (creating if needed) the skills database at the given path.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode so the watch view can read while the engine writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{db: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS skills (
			tag TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			PRIMARY KEY (tag, title)
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate skills schema: %w", err)
	}
	return nil
}

// Put inserts or replaces a skill.
func (s *Store) Put(ctx context.Context, skill Skill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO skills (tag, title, body) VALUES (?, ?, ?)`,
		skill.Tag, skill.Title, skill.Body)
	if err != nil {
		return fmt.Errorf("store skill %q: %w", skill.Title, err)
	}
	return nil
}

// ByTag returns all skills registered under a tag, ordered by title.
func (s *Store) ByTag(ctx context.Context, tag string) ([]Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT tag, title, body FROM skills WHERE tag = ? ORDER BY title`, tag)
	if err != nil {
		return nil, fmt.Errorf("query skills for tag %q: %w", tag, err)
	}
	defer rows.Close()

	var skills []Skill
	for rows.Next() {
		var sk Skill
		if err := rows.Scan(&sk.Tag, &sk.Title, &sk.Body); err != nil {
			return nil, fmt.Errorf("scan skill row: %w", err)
		}
		skills = append(skills, sk)
	}
	return skills, rows.Err()
}

// Tags lists every distinct tag in the store.
func (s *Store) Tags(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT tag FROM skills ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("list skill tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan tag row: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Context assembles the prompt block for a bead's required tags. Tags with
// no registered skills are skipped silently. An empty result means the bead
// runs without reference material.
func (s *Store) Context(ctx context.Context, tags []string) (string, error) {
	var b strings.Builder
	for _, tag := range tags {
		skills, err := s.ByTag(ctx, tag)
		if err != nil {
			return "", err
		}
		for _, sk := range skills {
			fmt.Fprintf(&b, "### %s (%s)\n\n%s\n\n", sk.Title, sk.Tag, sk.Body)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
