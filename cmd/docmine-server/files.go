package main

import (
	"sync"

	"github.com/adaptive-scale/docmine/pkg/apierr"
	"github.com/google/uuid"
)

// fileStore is the "given a file_id, yield the bytes" boundary the spec
// treats as an external collaborator; this in-memory implementation is
// sufficient to drive the rest of the pipeline end to end.
type fileStore struct {
	mu    sync.RWMutex
	files map[string]storedFile
}

type storedFile struct {
	Filename string
	Data     []byte
}

func newFileStore() *fileStore {
	return &fileStore{files: make(map[string]storedFile)}
}

func (s *fileStore) Put(filename string, data []byte) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	s.files[id] = storedFile{Filename: filename, Data: data}
	s.mu.Unlock()
	return id, nil
}

func (s *fileStore) Get(fileID string) (storedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[fileID]
	if !ok {
		return storedFile{}, apierr.New(apierr.NotFound, "unknown file_id: "+fileID)
	}
	return f, nil
}
