// Package ident holds the worker identity: a generated worker id persisted
// across restarts, and the login name of the operating user.
package ident

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"

	"github.com/google/uuid"
)

// Identity is immutable for the lifetime of the process.
type Identity struct {
	WorkerID string
	User     string
}

type persisted struct {
	WorkerID string
}

// LoadOrCreate reads the worker id from path, generating and persisting a
// fresh one if the file does not exist yet. The service loop must not start
// before this has succeeded.
func LoadOrCreate(path string) (*Identity, error) {
	id, err := readWorkerID(path)

	if errors.Is(err, fs.ErrNotExist) {
		id = uuid.NewString()
		err = writeWorkerID(path, id)
	}

	if err != nil {
		return nil, err
	}

	return &Identity{
		WorkerID: id,
		User:     currentUser(),
	}, nil
}

func readWorkerID(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var p persisted
	if err := json.Unmarshal(b, &p); err != nil {
		return "", fmt.Errorf("could not parse identity file %s: %w", path, err)
	}

	if p.WorkerID == "" {
		return "", fmt.Errorf("identity file %s has no worker id", path)
	}

	return p.WorkerID, nil
}

func writeWorkerID(path, id string) error {
	b, err := json.Marshal(persisted{WorkerID: id})
	if err != nil {
		panic(fmt.Sprintf("marshalling identity: %s", err))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("could not create identity directory: %w", err)
	}

	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("could not write identity file %s: %w", path, err)
	}

	return nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}

	// Static builds can lack user database support; the env var is close
	// enough there.
	if name := os.Getenv("USER"); name != "" {
		return name
	}

	return "unknown"
}
