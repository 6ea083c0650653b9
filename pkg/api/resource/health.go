package resource

import "time"

type HealthResource struct {
	Status      string    `json:"status"`
	OnlineUsers int       `json:"onlineUsers"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewHealth(onlineUsers int) *HealthResource {
	return &HealthResource{
		Status:      "ok",
		OnlineUsers: onlineUsers,
		Timestamp:   time.Now().Round(time.Second).UTC(),
	}
}
