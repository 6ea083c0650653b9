package proto

// Inbound event names, sent by clients over the signaling connection.
const (
	EventAuth         = "auth"
	EventCallInitiate = "call:initiate"
	EventCallAccept   = "call:accept"
	EventCallDecline  = "call:decline"
	EventCallEnd      = "call:end"
)

// Outbound event names, emitted by the server.
const (
	EventAuthSuccess   = "auth:success"
	EventAuthError     = "auth:error"
	EventUsersList     = "users:list"
	EventUserOnline    = "user:online"
	EventUserOffline   = "user:offline"
	EventCallInitiated = "call:initiated"
	EventCallIncoming  = "call:incoming"
	EventCallAccepted  = "call:accepted"
	EventCallDeclined  = "call:declined"
	EventCallEnded     = "call:ended"
	EventCallError     = "call:error"
)

// AuthRequest authenticates the connection as an already registered user.
type AuthRequest struct {
	UserID string `json:"userId"`
}

// CallInitiateRequest starts a call from the authenticated user to a callee.
type CallInitiateRequest struct {
	FromUserID string `json:"fromUserId"`
	ToUserID   string `json:"toUserId"`
}

// CallActionRequest carries accept/decline/end for an existing call.
type CallActionRequest struct {
	CallID string `json:"callId"`
}

// AuthSuccess acknowledges a successful auth.
type AuthSuccess struct {
	UserID string `json:"userId"`
}

// UserInfo is the public shape of a user inside signaling events.
type UserInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserStatus announces a presence change to other connected users.
type UserStatus struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// CallOffer is sent to both parties when a call is created. The caller
// receives it as call:initiated with ToUser set to the callee; the callee
// receives call:incoming with FromUser set to the caller.
type CallOffer struct {
	CallID      string    `json:"callId"`
	ChannelName string    `json:"channelName"`
	Token       string    `json:"token"`
	AppID       string    `json:"appId"`
	ToUser      *UserInfo `json:"toUser,omitempty"`
	FromUser    *UserInfo `json:"fromUser,omitempty"`
}

// CallEvent references a call in accepted/declined/ended notifications.
type CallEvent struct {
	CallID string `json:"callId"`
}

// ErrorEvent carries a failure back to the offending connection only.
type ErrorEvent struct {
	Message string `json:"message"`
}
