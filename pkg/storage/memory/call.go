package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/firetalk/switchboard/pkg/model"
	"github.com/firetalk/switchboard/pkg/storage"
	"github.com/google/uuid"
)

type callStore struct {
	store map[string]model.Call
	sync.RWMutex
}

func newCallStore() *callStore {
	return &callStore{
		store: make(map[string]model.Call),
	}
}

func (s *callStore) FetchAll() (models map[string]model.Call, err error) {
	s.RLock()
	defer s.RUnlock()
	models = make(map[string]model.Call, len(s.store))

	for id, m := range s.store {
		models[id] = m
	}

	return models, nil
}

func (s *callStore) FindByID(id string) (*model.Call, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[id]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *callStore) Create(m *model.Call) error {
	if m.CallerID == "" || m.CalleeID == "" {
		return storage.ErrValidation
	}

	s.Lock()
	defer s.Unlock()

	m.ID = newCallID()
	// The channel name must never collide across the process lifetime, so it
	// is derived from the call ID.
	m.ChannelName = fmt.Sprintf("voice_channel_%s", m.ID)
	m.Status = model.CallStatusRinging
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = time.Now().Round(time.Second).UTC()

	s.store[m.ID] = *m

	return nil
}

// UpdateStatus moves a call forward in its lifecycle. Backward moves and
// transitions out of a terminal status are rejected with ErrConflict.
func (s *callStore) UpdateStatus(id string, status model.CallStatus) error {
	s.Lock()
	defer s.Unlock()

	m, ok := s.store[id]
	if !ok {
		return storage.ErrNotFound
	}

	if !validTransition(m.Status, status) {
		return storage.ErrConflict
	}

	m.Status = status
	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[id] = m

	return nil
}

func (s *callStore) Delete(id string) error {
	s.Lock()
	defer s.Unlock()

	_, ok := s.store[id]
	if !ok {
		return storage.ErrNotFound
	}

	delete(s.store, id)

	return nil
}

func validTransition(from, to model.CallStatus) bool {
	switch from {
	case model.CallStatusRinging:
		return to == model.CallStatusActive || to == model.CallStatusDeclined || to == model.CallStatusEnded
	case model.CallStatusActive:
		return to == model.CallStatusEnded
	}
	return false
}

func newCallID() string {
	return fmt.Sprintf("call_%s", uuid.NewString())
}
