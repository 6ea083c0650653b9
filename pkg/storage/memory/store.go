package memory

import "github.com/firetalk/switchboard/pkg/storage"

// Store contains all memory-based sub-stores for managing the models
type store struct {
	users *userStore
	calls *callStore
}

// NewStore creates a new memory-based Storage interface
func NewStore() storage.Interface {
	return &store{
		users: newUserStore(),
		calls: newCallStore(),
	}
}

// Users returns a sub-store for managing the User model
func (s *store) Users() storage.UserStore {
	return s.users
}

// Calls returns a sub-store for managing the Call model
func (s *store) Calls() storage.CallStore {
	return s.calls
}
