package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

// FakeStore is an in-memory Store for tests. It records every upload and
// hands back deterministic URLs.
type FakeStore struct {
	mu      sync.Mutex
	uploads []Upload

	// Err, when set, is returned from every Store call.
	Err error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (s *FakeStore) Store(_ context.Context, upload Upload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return "", s.Err
	}
	s.uploads = append(s.uploads, upload)
	return fmt.Sprintf("fake://assets/%d/%s", len(s.uploads), upload.Filename), nil
}

// Uploads returns a copy of everything stored so far.
func (s *FakeStore) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()

	uploads := make([]Upload, len(s.uploads))
	copy(uploads, s.uploads)
	return uploads
}
