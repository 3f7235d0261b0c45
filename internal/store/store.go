// Package store persists the bead graph as a JSON file. The file is the
// single source of truth: every mutation is followed by a full rewrite, and
// loading performs crash recovery.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/axonhq/axon/pkg/models"
)

// Store reads and writes a graph file.
type Store struct {
	path string
}

// New creates a Store for the given graph file path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the graph file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the graph from disk and performs crash recovery: any bead found
// in running status is reset to pending, since nothing can legitimately be
// running when the engine starts. A recovery reset is persisted immediately
// so the load is idempotent.
func (s *Store) Load() (*models.Graph, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read graph file: %w", err)
	}

	var g models.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse graph file: %w", err)
	}

	recovered := false
	for _, b := range g.Beads {
		if b.Status == models.BeadStatusRunning {
			b.Status = models.BeadStatusPending
			recovered = true
		}
	}
	if recovered {
		if err := s.Save(&g); err != nil {
			return nil, fmt.Errorf("persist crash recovery: %w", err)
		}
	}

	return &g, nil
}

// Save rewrites the whole graph file atomically (temp file + rename) and
// stamps the metadata update time. Callers must persist after every status
// mutation; no bead work may begin until the previous mutation is on disk.
func (s *Store) Save(g *models.Graph) error {
	if g.Version == 0 {
		g.Version = models.GraphVersion
	}
	if g.Metadata.CreatedAt.IsZero() {
		g.Metadata.CreatedAt = time.Now().UTC()
	}
	g.Metadata.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create graph directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".graph-*.json")
	if err != nil {
		return fmt.Errorf("create temp graph file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write graph: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close graph file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace graph file: %w", err)
	}

	return nil
}

// Exists reports whether the graph file is present on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
