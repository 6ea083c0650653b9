package resource

import (
	"fmt"
	"time"
)

type TokenRequestResource struct {
	ChannelName string `json:"channelName"`
	UID         uint32 `json:"uid"`
}

type TokenResource struct {
	Token       string    `json:"token"`
	AppID       string    `json:"appId"`
	ChannelName string    `json:"channelName"`
	UID         uint32    `json:"uid"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func NewToken(channelName string, uid uint32, appID, token string, expiresAt time.Time) *TokenResource {
	return &TokenResource{
		Token:       token,
		AppID:       appID,
		ChannelName: channelName,
		UID:         uid,
		ExpiresAt:   expiresAt.Round(time.Second),
	}
}

func ValidateTokenRequest(r *TokenRequestResource) error {
	if r.ChannelName == "" {
		return fmt.Errorf("channelName is required")
	}
	return nil
}
