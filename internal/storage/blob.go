package storage

import "io"

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	PublicURL(key string) (string, error) // browser-reachable URL for the key
}
