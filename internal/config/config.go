package config

import "time"

type Config interface {
	EnvConfig
	StorageConfig
	RealtimeConfig
}

type EnvConfig interface {
	GetAppName() string
	GetAPIBaseURL() string
	GetWSBaseURL() string
	GetHTTPTimeout() time.Duration
	GetEnv() string
}

// StorageConfig describes where and under which keys the credential pair is persisted.
type StorageConfig interface {
	GetCredentialsStore() string
	GetCredentialsPath() string
	GetAccessTokenKey() string
	GetRefreshTokenKey() string
	GetNotificationTokenKey() string
}

type RealtimeConfig interface {
	GetHeartbeatInterval() time.Duration
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	loadDotEnv()
	return mainConfig{}
}
