// Package file persists snapshots as two JSON documents, classes.json
// and bookings.json, under a data directory. Timestamps are serialized
// RFC 3339 with their zone offset, so a reloaded snapshot reproduces the
// same instant and offset.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fitslotdev/fitslot/internal/domain"
)

const (
	classesFile  = "classes.json"
	bookingsFile = "bookings.json"
)

type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Load reads both record sets. A missing file yields the empty set, not
// an error.
func (s *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	const op = "file.Store.Load"

	var snap domain.Snapshot

	if err := s.readJSON(classesFile, &snap.Classes); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s:%w", op, err)
	}

	if err := s.readJSON(bookingsFile, &snap.Bookings); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s:%w", op, err)
	}

	return snap, nil
}

// Save writes both record sets via a temp file and rename, so a reader
// never observes a torn document.
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	const op = "file.Store.Save"

	if err := s.writeJSON(classesFile, snap.Classes); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := s.writeJSON(bookingsFile, snap.Bookings); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *Store) readJSON(name string, v any) error {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(b, v)
}

func (s *Store) writeJSON(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, name+".tmp")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}
