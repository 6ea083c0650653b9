package model

import "time"

// CallStatus is the lifecycle state of a call. Transitions are monotonic:
// ringing -> active -> ended, ringing -> declined, ringing/active -> ended.
// There is no way out of declined or ended except deletion.
type CallStatus string

const (
	CallStatusRinging  CallStatus = "ringing"
	CallStatusActive   CallStatus = "active"
	CallStatusDeclined CallStatus = "declined"
	CallStatusEnded    CallStatus = "ended"
)

func (s CallStatus) String() string {
	return string(s)
}

// Terminal reports whether no further transition may leave this status.
func (s CallStatus) Terminal() bool {
	return s == CallStatusDeclined || s == CallStatusEnded
}

// Call is one signaling-tracked voice interaction between exactly two users,
// bound to one media channel.
type Call struct {
	ID          string
	ChannelName string
	CallerID    string
	CalleeID    string
	Status      CallStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}
