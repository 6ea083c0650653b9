package storage

import "github.com/firetalk/switchboard/pkg/model"

// Interface is implemented by the storage
type Interface interface {
	Users() UserStore
	Calls() CallStore
}

// UserStore is responsible for managing the User model
type UserStore interface {
	FetchAll() (map[string]model.User, error)
	FetchOnline() (map[string]model.User, error)
	FindByID(id string) (*model.User, error)
	Create(m *model.User) error
	SetOnline(id string, online bool) error
}

// CallStore is responsible for managing the Call model
type CallStore interface {
	FetchAll() (map[string]model.Call, error)
	FindByID(id string) (*model.Call, error)
	Create(m *model.Call) error
	UpdateStatus(id string, status model.CallStatus) error
	Delete(id string) error
}
