package config

// Config contains all application settings
type Config struct {
	BindPort      int    `mapstructure:"PORT" yaml:"port"`
	BindHost      string `mapstructure:"HOST" yaml:"host"`
	NATSServerURL string `mapstructure:"NATS_URL" yaml:"nats_url"`

	// Agora credential issuing
	AgoraAppID          string `mapstructure:"AGORA_APP_ID" yaml:"agora_app_id"`
	AgoraAppCertificate string `mapstructure:"AGORA_APP_CERTIFICATE" yaml:"agora_app_certificate"`
	TokenExpiry         int    `mapstructure:"TOKEN_EXPIRY" yaml:"token_expiry"`

	// Call housekeeping, in seconds
	RingTimeout int `mapstructure:"RING_TIMEOUT" yaml:"ring_timeout"`

	LogLevel string `mapstructure:"LOG_LEVEL" yaml:"log_level"`

	// Version
	BuildVersion string `yaml:"-"`
	BuildHash    string `yaml:"-"`
	BuildTime    string `yaml:"-"`
}
