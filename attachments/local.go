// Package attachments stores uploaded timesheet documents on local disk.
package attachments

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// Local keeps one file per reference under Dir. A reference is a relative
// path "<user>/<year>-<month>/<uuid>.pdf" and never leaves Dir.
type Local struct {
	Dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Local{Dir: dir}, nil
}

// Put writes the file and returns its reference. A partially written file is removed.
func (l *Local) Put(ctx context.Context, key timesheet.Key, file timesheet.Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := filepath.ToSlash(filepath.Join(
		sanitize(string(key.UserID)),
		fmt.Sprintf("%04d-%02d", key.Year, key.Month),
		uuid.NewString()+".pdf",
	))
	path, err := l.resolve(ref)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create attachment dir: %w", err)
	}
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}
	return ref, nil
}

func (l *Local) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	path, err := l.resolve(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("attachment %s: %w", ref, generic.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Delete removes the file; a missing file is not an error.
func (l *Local) Delete(_ context.Context, ref string) error {
	path, err := l.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (l *Local) resolve(ref string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(ref))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == ".." {
		return "", &generic.ValidationError{Field: "attachmentRef", Message: "invalid reference"}
	}
	return filepath.Join(l.Dir, clean), nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
