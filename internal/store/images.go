package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DiskImageStore writes uploaded images under a root directory and serves
// them from a public base URL.
type DiskImageStore struct {
	root    string
	baseURL string
}

// NewDiskImageStore creates the root directory if needed.
func NewDiskImageStore(root, baseURL string) (*DiskImageStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &DiskImageStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the directory images are stored in.
func (d *DiskImageStore) Root() string {
	return d.root
}

// Put writes r to name and returns its public URL. The file appears
// atomically once fully written.
func (d *DiskImageStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if clean == "" {
		return "", fmt.Errorf("invalid image name %q", name)
	}

	full := filepath.Join(d.root, filepath.FromSlash(clean))
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", err
	}

	return d.baseURL + "/" + clean, nil
}
