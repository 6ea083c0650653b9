package model

import "time"

// User is a registered client of the signaling server. The ID is generated
// by the store on creation and is the stable identity every call and
// connection binding refers to.
type User struct {
	ID       string
	Name     string
	DeviceID string
	Online   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
