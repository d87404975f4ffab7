package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/mind-engage/mindengage-psy/internal/storage"
)

// ResultStore keeps scored reports so they outlive the in-memory session.
type ResultStore interface {
	Put(ctx context.Context, r *Result) error
	Get(ctx context.Context, sessionID string) (*Result, error)
}

// Ensure implementations satisfy the interface.
var (
	_ ResultStore = (*MemoryResultStore)(nil)
	_ ResultStore = (*RedisResultStore)(nil)
	_ ResultStore = (*BlobResultStore)(nil)
)

type MemoryResultStore struct {
	mu      sync.RWMutex
	results map[string]*Result
}

func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{results: map[string]*Result{}}
}

func (s *MemoryResultStore) Put(_ context.Context, r *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.SessionID] = r
	return nil
}

func (s *MemoryResultStore) Get(_ context.Context, id string) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return nil, ErrResultNotFound
	}
	return r, nil
}

// BlobResultStore archives reports as JSON documents, one per session.
type BlobResultStore struct {
	blobs storage.BlobStore
}

func NewBlobResultStore(b storage.BlobStore) *BlobResultStore {
	return &BlobResultStore{blobs: b}
}

func resultKey(id string) string { return "results/" + id + ".json" }

func (s *BlobResultStore) Put(ctx context.Context, r *Result) error {
	buf, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = s.blobs.Put(ctx, resultKey(r.SessionID), bytes.NewReader(buf))
	return err
}

func (s *BlobResultStore) Get(ctx context.Context, id string) (*Result, error) {
	rc, err := s.blobs.Get(ctx, resultKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var r Result
	if err := json.NewDecoder(rc).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}
