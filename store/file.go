package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bdebruin1014/proforma"
	"github.com/google/uuid"
)

const historyExt = ".jsonl"

// FileStore keeps each history in its own JSONL file, named after the pro
// forma identifier, so that a store folder remains human-readable and
// git-friendly.
type FileStore struct {
	dir string
}

// NewFileStore creates a store in dir, creating the folder if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create store folder: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+historyExt)
}

// Save writes the history atomically: readers see the previous file or the
// new one, never a partial write. The issued identifier never goes back.
func (s *FileStore) Save(ctx context.Context, id uuid.UUID, rec proforma.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkRecord(id, rec); err != nil {
		return err
	}
	prev, err := s.Load(ctx, id)
	if err != nil && !errors.Is(err, proforma.ErrNotFound) {
		return err
	}
	if err := checkAppendOnly(prev.Versions, rec.Versions, sameJSON); err != nil {
		return err
	}
	if rec.Issued.Less(prev.Issued) {
		rec.Issued = prev.Issued
	}

	var buf bytes.Buffer
	if err := proforma.EncodeHistory(&buf, rec); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+id.String()+"-*")
	if err != nil {
		return fmt.Errorf("cannot save %v: %w", id, err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot save %v: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot save %v: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		return fmt.Errorf("cannot save %v: %w", id, err)
	}
	return nil
}

// Load reads a history.
func (s *FileStore) Load(ctx context.Context, id uuid.UUID) (proforma.Record, error) {
	if err := ctx.Err(); err != nil {
		return proforma.Record{}, err
	}
	f, err := os.Open(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return proforma.Record{}, fmt.Errorf("pro forma %v: %w", id, proforma.ErrNotFound)
	}
	if err != nil {
		return proforma.Record{}, err
	}
	defer f.Close()
	rec, err := proforma.DecodeHistory(f)
	if err != nil {
		return proforma.Record{}, fmt.Errorf("in %q: %w", f.Name(), err)
	}
	return rec, nil
}

// Delete removes a history file.
func (s *FileStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("pro forma %v: %w", id, proforma.ErrNotFound)
	}
	return err
}

// List returns the identifiers of the stored histories. Files that are not
// named after an identifier are ignored.
func (s *FileStore) List(ctx context.Context) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := filepath.Glob(filepath.Join(s.dir, "*"+historyExt))
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for _, file := range files {
		id, err := uuid.Parse(strings.TrimSuffix(filepath.Base(file), historyExt))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// sameJSON compares two versions by their canonical encoding.
func sameJSON(a, b proforma.ProformaVersion) bool {
	x, err := json.Marshal(a)
	if err != nil {
		return false
	}
	y, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(x, y)
}
