package media

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/oksasatya/storyverse-api/internal/domain/repository"
)

// LocalStore writes blobs under Dir and hands out references of the form
// Prefix + "/" + object name, which the router serves statically.
type LocalStore struct {
	Dir    string
	Prefix string
	now    func() time.Time
}

func NewLocalStore(dir, prefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{Dir: dir, Prefix: "/" + strings.Trim(prefix, "/"), now: time.Now}, nil
}

func (s *LocalStore) Put(_ context.Context, folder, filename, _ string, r io.Reader) (string, error) {
	name := objectName(folder, filename, s.now())
	full := filepath.Join(s.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return path.Join(s.Prefix, name), nil
}

func (s *LocalStore) Delete(_ context.Context, ref string) error {
	name, ok := s.objectPath(ref)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// objectPath maps ref back to a path under Dir. References outside the prefix,
// or that would escape Dir, are treated as foreign and ignored.
func (s *LocalStore) objectPath(ref string) (string, bool) {
	rel := strings.TrimPrefix(ref, s.Prefix+"/")
	if rel == ref || rel == "" {
		return "", false
	}
	clean := path.Clean("/" + rel)[1:]
	if clean == "" || clean != rel {
		return "", false
	}
	return clean, true
}

var _ repository.MediaStore = (*LocalStore)(nil)
