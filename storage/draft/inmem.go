package draftstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/kairosacademy/enrollment/core/enrollment"
)

// InMemStore is a map-backed draft store for tests and local development.
// Documents round-trip through JSON so stored drafts are isolated from later
// mutation, same as the Redis store.
type InMemStore struct {
	mutex sync.RWMutex
	t     map[string][]byte
}

var _ enrollment.DraftStore = (*InMemStore)(nil)

func NewInMemStore() *InMemStore {
	return &InMemStore{t: make(map[string][]byte)}
}

func (s *InMemStore) Save(_ context.Context, id string, app enrollment.Application) error {
	data, err := json.Marshal(app)
	if err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.t[id] = data
	return nil
}

func (s *InMemStore) Load(_ context.Context, id string) (enrollment.Application, error) {
	s.mutex.RLock()
	data, ok := s.t[id]
	s.mutex.RUnlock()
	if !ok {
		return enrollment.Application{}, enrollment.ErrDraftNotFound
	}
	var app enrollment.Application
	if err := json.Unmarshal(data, &app); err != nil {
		return enrollment.Application{}, err
	}
	return app, nil
}

func (s *InMemStore) Clear(_ context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.t, id)
	return nil
}
