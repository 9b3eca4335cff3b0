package storage

import (
	"io"
	"strings"
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	key := "profiles/s1/avatar.png"
	if _, err := s.Put(key, strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("put: %v", err)
	}
	rc, err := s.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != "png-bytes" {
		t.Fatalf("round trip corrupted blob: %q", body)
	}
}

func TestPublicURLIsServable(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	u, err := s.PublicURL("profiles/s1/avatar.png")
	if err != nil {
		t.Fatalf("public url: %v", err)
	}
	if u != "/assets/profiles/s1/avatar.png" {
		t.Fatalf("url=%q, want a path under the default assets prefix", u)
	}
	if strings.HasPrefix(u, "file:") {
		t.Fatal("public url must not point at the local filesystem")
	}
}

func TestPublicURLHonorsConfiguredBase(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "https://cdn.example.com/blobs/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	u, err := s.PublicURL("profiles/s1/avatar.png")
	if err != nil {
		t.Fatalf("public url: %v", err)
	}
	if u != "https://cdn.example.com/blobs/profiles/s1/avatar.png" {
		t.Fatalf("url=%q, trailing slash on the base must not double up", u)
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := s.Put("", strings.NewReader("x")); err == nil {
		t.Fatal("put with empty key must fail")
	}
	if _, err := s.PublicURL(""); err == nil {
		t.Fatal("public url with empty key must fail")
	}
}
