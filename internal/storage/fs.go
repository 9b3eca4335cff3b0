package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FSStore keeps blobs on the local filesystem and publishes them under an
// HTTP path prefix. The gateway mounts a file server on that prefix; in
// front of a CDN the prefix can be a full URL instead.
type FSStore struct {
	base       string
	publicBase string
}

func NewFSStore(base, publicBase string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if publicBase == "" {
		publicBase = "/assets"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base, publicBase: strings.TrimSuffix(publicBase, "/")}, nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	dst := filepath.Join(s.base, filepath.Clean(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return key, nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.base, filepath.Clean(key)))
}

// Root is the directory to mount a file server on.
func (s *FSStore) Root() string { return s.base }

func (s *FSStore) PublicURL(key string) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	return s.publicBase + "/" + strings.TrimPrefix(filepath.ToSlash(key), "/"), nil
}
