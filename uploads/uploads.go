// Package uploads is the document store boundary: it accepts a file and
// hands back a stable URL. The rest of the system persists only the URL
// string.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store saves an uploaded document and returns its public URL.
type Store interface {
	Save(filename string, r io.Reader) (string, error)
}

// LocalStore keeps uploads on the local filesystem and serves them from
// a static route.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: baseURL}, nil
}

// Save writes the file under a random key, keeping the original
// extension so browsers can sniff the content type.
func (s *LocalStore) Save(filename string, r io.Reader) (string, error) {
	key := uuid.NewString() + filepath.Ext(filename)

	f, err := os.Create(filepath.Join(s.dir, key))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return s.baseURL + "/uploads/" + key, nil
}
