package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/firetalk/switchboard/pkg/model"
	"github.com/firetalk/switchboard/pkg/storage"
	"github.com/google/uuid"
)

type userStore struct {
	store map[string]model.User
	sync.RWMutex
}

func newUserStore() *userStore {
	return &userStore{
		store: make(map[string]model.User),
	}
}

func (s *userStore) FetchAll() (models map[string]model.User, err error) {
	s.RLock()
	defer s.RUnlock()
	models = make(map[string]model.User, len(s.store))

	for id, m := range s.store {
		models[id] = m
	}

	return models, nil
}

func (s *userStore) FetchOnline() (models map[string]model.User, err error) {
	s.RLock()
	defer s.RUnlock()
	models = make(map[string]model.User)

	for id, m := range s.store {
		if m.Online {
			models[id] = m
		}
	}

	return models, nil
}

func (s *userStore) FindByID(id string) (*model.User, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[id]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *userStore) Create(m *model.User) error {
	if m.Name == "" || m.DeviceID == "" {
		return storage.ErrValidation
	}

	s.Lock()
	defer s.Unlock()

	m.ID = newUserID()
	m.Online = false
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = time.Now().Round(time.Second).UTC()

	s.store[m.ID] = *m

	return nil
}

func (s *userStore) SetOnline(id string, online bool) error {
	s.Lock()
	defer s.Unlock()

	m, ok := s.store[id]
	if !ok {
		return storage.ErrNotFound
	}

	m.Online = online
	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[id] = m

	return nil
}

func newUserID() string {
	return fmt.Sprintf("user_%s", uuid.NewString())
}
