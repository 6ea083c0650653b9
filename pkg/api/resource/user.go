package resource

import (
	"fmt"
	"sort"
	"time"

	"github.com/firetalk/switchboard/pkg/model"
)

type UserResource struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	DeviceID  string     `json:"deviceId"`
	Online    bool       `json:"online"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type UserListResource struct {
	Members []*UserResource `json:"members"`
}

func NewUser(m *model.User) (out *UserResource) {
	out = &UserResource{
		ID:       m.ID,
		Name:     m.Name,
		DeviceID: m.DeviceID,
		Online:   m.Online,
	}

	if !m.CreatedAt.IsZero() {
		out.CreatedAt = &time.Time{}
		*out.CreatedAt = m.CreatedAt.Round(time.Second)
	}
	if !m.UpdatedAt.IsZero() {
		out.UpdatedAt = &time.Time{}
		*out.UpdatedAt = m.UpdatedAt.Round(time.Second)
	}

	return // out
}

func NewUserList(m map[string]model.User) (out *UserListResource) {
	out = &UserListResource{
		Members: make([]*UserResource, 0),
	}

	for _, elem := range m {
		out.Members = append(out.Members, NewUser(&elem))
	}

	// Default sort by ID
	sort.Slice(out.Members, func(i, j int) bool {
		return out.Members[i].ID < out.Members[j].ID
	})

	return // out
}

func ValidateUser(r *UserResource) (m *model.User, err error) {
	if r.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if r.DeviceID == "" {
		return nil, fmt.Errorf("deviceId is required")
	}

	m = &model.User{
		Name:     r.Name,
		DeviceID: r.DeviceID,
	}

	return m, nil
}
