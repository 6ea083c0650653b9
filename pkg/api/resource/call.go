package resource

import (
	"sort"
	"time"

	"github.com/firetalk/switchboard/pkg/model"
)

type CallResource struct {
	ID          string     `json:"id"`
	ChannelName string     `json:"channelName"`
	CallerID    string     `json:"callerId"`
	CalleeID    string     `json:"calleeId"`
	Status      string     `json:"status"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

type CallListResource struct {
	Members []*CallResource `json:"members"`
}

func NewCall(m *model.Call) (out *CallResource) {
	out = &CallResource{
		ID:          m.ID,
		ChannelName: m.ChannelName,
		CallerID:    m.CallerID,
		CalleeID:    m.CalleeID,
		Status:      m.Status.String(),
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

func NewCallList(m map[string]model.Call) (out *CallListResource) {
	out = &CallListResource{
		Members: make([]*CallResource, 0),
	}

	for _, elem := range m {
		out.Members = append(out.Members, NewCall(&elem))
	}

	// Default sort by ID
	sort.Slice(out.Members, func(i, j int) bool {
		return out.Members[i].ID < out.Members[j].ID
	})

	return // out
}
