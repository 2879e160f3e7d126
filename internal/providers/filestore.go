package providers

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists image bytes on local disk under a single root
// directory. Stored names are flat; path traversal in a name is rejected by
// construction since only the base name is ever joined.
type FileStore interface {
	Save(ctx context.Context, fileName string, data []byte) (string, error)
	Open(ctx context.Context, fileName string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, fileName string) error
	List(ctx context.Context) ([]string, error)
	Path(fileName string) string
}

type localFileStore struct {
	rootDir string
}

func NewLocalFileStore(rootDir string) FileStore {
	return &localFileStore{rootDir: rootDir}
}

func (s *localFileStore) Path(fileName string) string {
	return filepath.Join(s.rootDir, filepath.Base(fileName))
}

func (s *localFileStore) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := os.MkdirAll(s.rootDir, 0o755); err != nil {
		return "", err
	}
	dst := s.Path(fileName)
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		return "", err
	}
	abs, _ := filepath.Abs(dst)
	return abs, nil
}

func (s *localFileStore) Open(ctx context.Context, fileName string) (io.ReadCloser, int64, error) {
	f, err := os.Open(s.Path(fileName))
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

func (s *localFileStore) Delete(ctx context.Context, fileName string) error {
	err := os.Remove(s.Path(fileName))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// List returns the image files present under the root, skipping anything
// that does not look like an image. Used by the startup sync.
func (s *localFileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.rootDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png", ".gif", ".webp":
			out = append(out, e.Name())
		}
	}
	return out, nil
}
