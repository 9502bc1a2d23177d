package suggest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"
)

// FileSource reads a module state snapshot from a file the organizer app
// keeps up to date (~/.nudge/snapshots/<module>.txt). A missing file reads
// as an empty snapshot, which produces no candidates.
type FileSource struct {
	Path string
}

// NewFileSource creates a file-backed context source.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (f *FileSource) Snapshot(ctx context.Context, now time.Time) (string, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
