package ident

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadOrCreatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker", "identity.json")

	first, err := LoadOrCreate(path)
	assert.NoError(t, err)
	assert.NotEmpty(t, first.WorkerID)
	assert.NotEmpty(t, first.User)

	// A second load must come back with the same persisted id.
	second, err := LoadOrCreate(path)
	assert.NoError(t, err)
	assert.Equal(t, first.WorkerID, second.WorkerID)
}

func TestLoadOrCreateRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	assert.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := LoadOrCreate(path)
	assert.Error(t, err)
}
