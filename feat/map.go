package feat

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/EigenDog/dawg/types/bin"
	"github.com/edsrzf/mmap-go"
)

// Map holds the columns of one task, keyed by feature id. It is owned by
// exactly one task state at a time; the state machine's sequential reactions
// are its only callers.
type Map struct {
	dir  string
	cols map[uint32]*Column
}

// Column is a read-only float64 column backed by an mmapped file.
type Column struct {
	data mmap.MMap
	rows int
}

func (c *Column) Len() int {
	return c.rows
}

func (c *Column) Value(i int) float64 {
	return bin.Float64At(c.data, i)
}

func (m *Map) colPath(featureID uint32) string {
	return filepath.Join(m.dir, fmt.Sprintf("f%d.col", featureID))
}

// Put writes a column to disk and maps it back in. Re-putting a feature id
// replaces the previous column.
func (m *Map) Put(featureID uint32, vals []float64) error {
	if old, ok := m.cols[featureID]; ok {
		_ = old.data.Unmap()
		delete(m.cols, featureID)
	}

	path := m.colPath(featureID)
	if err := os.WriteFile(path, bin.PutFloat64s(vals), 0o600); err != nil {
		return fmt.Errorf("could not write column %d: %w", featureID, err)
	}

	col, err := mapColumn(path)
	if err != nil {
		return err
	}

	m.cols[featureID] = col
	return nil
}

func mapColumn(path string) (*Column, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open column file: %w", err)
	}
	// The mapping stays valid after the fd is closed.
	defer fd.Close()

	st, err := fd.Stat()
	if err != nil {
		return nil, fmt.Errorf("could not stat column file: %w", err)
	}

	if st.Size() == 0 {
		return &Column{rows: 0}, nil
	}

	data, err := mmap.Map(fd, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("could not mmap column file: %w", err)
	}

	return &Column{
		data: data,
		rows: int(st.Size() / 8),
	}, nil
}

func (m *Map) Get(featureID uint32) (*Column, bool) {
	col, ok := m.cols[featureID]
	return col, ok
}

func (m *Map) Has(featureID uint32) bool {
	_, ok := m.cols[featureID]
	return ok
}

// FeatureIDs returns the ids of all stored columns, in no particular order.
func (m *Map) FeatureIDs() []uint32 {
	ids := make([]uint32, 0, len(m.cols))
	for id := range m.cols {
		ids = append(ids, id)
	}
	return ids
}

// NumRows returns the row count shared by the columns, or 0 when the map is
// still empty.
func (m *Map) NumRows() int {
	for _, col := range m.cols {
		return col.rows
	}
	return 0
}

// Close unmaps every column. The on-disk files stay around until the task
// directory is recreated by the next assignment.
func (m *Map) Close() error {
	var firstErr error
	for id, col := range m.cols {
		if col.data == nil {
			continue
		}
		if err := col.data.Unmap(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("could not unmap column %d: %w", id, err)
		}
	}
	m.cols = make(map[uint32]*Column)
	return firstErr
}
