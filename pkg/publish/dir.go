package publish

import (
	"context"
	"os"
	"path/filepath"

	"github.com/vango-dev/docsave/internal/errors"
)

// DirStore writes artifacts into a local directory.
type DirStore struct {
	dir string
}

// NewDirStore creates a DirStore, creating dir if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.New("E050").WithSubject(dir).Wrap(err)
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the target directory.
func (s *DirStore) Dir() string {
	return s.dir
}

// Put writes body to dir/name. Names that are absolute or climb out of the
// directory are rejected.
func (s *DirStore) Put(ctx context.Context, name, contentType string, body []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || !filepath.IsLocal(name) {
		return "", errors.New("E051").WithSubject(name)
	}

	path := filepath.Join(s.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", errors.New("E050").WithSubject(name).Wrap(err)
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", errors.New("E050").WithSubject(name).Wrap(err)
	}
	return path, nil
}
