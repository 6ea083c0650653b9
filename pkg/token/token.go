// Package token issues time-bounded Agora RTC credentials. The issuer is
// stateless: every token is derived fresh from the channel name, the uid and
// the configured app credentials.
package token

import (
	"fmt"
	"time"

	rtctokenbuilder "github.com/AgoraIO-Community/go-tokenbuilder/rtctokenbuilder"
)

// ConfigurationError signals missing signing credentials. It is checked at
// startup; the server must not serve traffic without valid credentials.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("token issuer misconfigured: %s is required", e.Field)
}

func IsConfigurationError(e error) bool {
	_, ok := e.(*ConfigurationError)
	return ok
}

// Issuer signs channel join tokens for the media provider.
type Issuer struct {
	appID          string
	appCertificate string
	ttl            time.Duration
}

// NewIssuer validates the credentials and returns a ready issuer.
func NewIssuer(appID, appCertificate string, ttl time.Duration) (*Issuer, error) {
	if appID == "" {
		return nil, &ConfigurationError{Field: "app ID"}
	}
	if appCertificate == "" {
		return nil, &ConfigurationError{Field: "app certificate"}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Issuer{
		appID:          appID,
		appCertificate: appCertificate,
		ttl:            ttl,
	}, nil
}

// AppID returns the provider application ID clients need alongside the token.
func (i *Issuer) AppID() string {
	return i.appID
}

// Token builds a publisher token for the given channel. uid 0 lets the
// provider assign a participant identifier.
func (i *Issuer) Token(channelName string, uid uint32) (string, time.Time, error) {
	if channelName == "" {
		return "", time.Time{}, fmt.Errorf("token: channel name must not be empty")
	}

	expiresAt := time.Now().Add(i.ttl)
	tok, err := rtctokenbuilder.BuildTokenWithUID(i.appID, i.appCertificate,
		channelName, uid, rtctokenbuilder.RolePublisher, uint32(expiresAt.Unix()))
	if err != nil {
		return "", time.Time{}, err
	}

	return tok, expiresAt, nil
}
