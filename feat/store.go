// Package feat provides the worker's on-disk feature storage: per-task
// column files written once during task setup and mmapped read-only for
// split queries, plus the row sampler queries use.
package feat

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store is the root of the worker's feature storage directory. One
// subdirectory per task; columns inside it are written during Copying and
// only ever read afterwards.
type Store struct {
	dir string
}

func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create feature store directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// CreateMap sets up the column directory for a task. An existing directory
// for the same task id is wiped first; a task assignment always starts from
// an empty map.
func (s *Store) CreateMap(taskID uint64) (*Map, error) {
	dir := filepath.Join(s.dir, fmt.Sprintf("task-%d", taskID))

	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("could not clear task directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create task directory: %w", err)
	}

	return &Map{
		dir:  dir,
		cols: make(map[uint32]*Column),
	}, nil
}
