package ingest

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Asset is an uploaded file staged on local disk for the duration of one request.
type Asset struct {
	Filename string
	Kind     Kind
	Path     string
	Size     int64

	once sync.Once
	err  error
}

// Stage copies r into a uuid-named file under dir.
// On error nothing is left on disk.
func Stage(dir, filename string, r io.Reader) (*Asset, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	name := filepath.Base(filename)
	path := filepath.Join(dir, uuid.New().String()+strings.ToLower(filepath.Ext(name)))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	size, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("stage %s: %w", name, err)
	}

	return &Asset{
		Filename: name,
		Kind:     Classify(name),
		Path:     path,
		Size:     size,
	}, nil
}

// Release removes the temp file. Safe to call more than once and on a nil asset.
func (a *Asset) Release() error {
	if a == nil {
		return nil
	}
	a.once.Do(func() {
		err := os.Remove(a.Path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to remove staged upload", "path", a.Path, "error", err)
			a.err = err
		}
	})
	return a.err
}
