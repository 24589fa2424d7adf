package feat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testMap(t *testing.T, taskID uint64) *Map {
	t.Helper()

	store, err := OpenStore(t.TempDir())
	assert.NoError(t, err)

	m, err := store.CreateMap(taskID)
	assert.NoError(t, err)

	t.Cleanup(func() { _ = m.Close() })

	return m
}

func TestMapPutGet(t *testing.T) {
	m := testMap(t, 1)

	vals := []float64{1, -0.5, 3.25, 0}
	assert.NoError(t, m.Put(7, vals))

	col, ok := m.Get(7)
	assert.True(t, ok)
	assert.Equal(t, len(vals), col.Len())
	for i, v := range vals {
		assert.Equal(t, v, col.Value(i))
	}

	assert.Equal(t, len(vals), m.NumRows())
	assert.False(t, m.Has(8))
}

func TestMapReplaceColumn(t *testing.T) {
	m := testMap(t, 2)

	assert.NoError(t, m.Put(1, []float64{1, 2, 3}))
	assert.NoError(t, m.Put(1, []float64{9, 8, 7}))

	col, ok := m.Get(1)
	assert.True(t, ok)
	assert.Equal(t, 9.0, col.Value(0))
	assert.Equal(t, []uint32{1}, m.FeatureIDs())
}

func TestCreateMapWipesTask(t *testing.T) {
	store, err := OpenStore(t.TempDir())
	assert.NoError(t, err)

	m, err := store.CreateMap(3)
	assert.NoError(t, err)
	assert.NoError(t, m.Put(1, []float64{1}))
	assert.NoError(t, m.Close())

	// Reassigning the same task id starts from an empty map.
	m, err = store.CreateMap(3)
	assert.NoError(t, err)
	defer m.Close()
	assert.False(t, m.Has(1))
}

func TestSamplerRows(t *testing.T) {
	s := NewSampler(42, 0.5)

	rows := s.Rows(100)
	assert.Len(t, rows, 50)
	assert.IsIncreasing(t, rows)
	for _, r := range rows {
		assert.GreaterOrEqual(t, r, 0)
		assert.Less(t, r, 100)
	}

	// Full fraction keeps every row.
	assert.Len(t, NewSampler(1, 1).Rows(10), 10)
	assert.Nil(t, NewSampler(1, 1).Rows(0))
}

func TestFoldMembership(t *testing.T) {
	m := testMap(t, 4)
	assert.NoError(t, m.Put(2, []float64{0, 1, 0, 2, -1}))

	fold, _ := m.Get(2)
	assert.Equal(t, []bool{false, true, false, true, true}, FoldMembership(fold))
}
