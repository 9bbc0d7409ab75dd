package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	apiBaseURLVar     = "GURKHA_API_BASE_URL"
	wsBaseURLVar      = "GURKHA_WS_BASE_URL"
	appNameVar        = "APP_NAME"
	credentialsVar    = "GURKHA_CREDENTIALS_PATH"
	storeVar          = "GURKHA_CREDENTIALS_STORE"
	accessKeyVar      = "GURKHA_ACCESS_TOKEN_KEY"
	refreshKeyVar     = "GURKHA_REFRESH_TOKEN_KEY"
	notifKeyVar       = "GURKHA_NOTIFICATION_TOKEN_KEY"
	heartbeatVar      = "GURKHA_HEARTBEAT_SECONDS"
	httpTimeoutVar    = "GURKHA_HTTP_TIMEOUT_SECONDS"
	defaultAPIBaseURL = "https://api.financialgurkha.com"
	defaultWSBaseURL  = "wss://api.financialgurkha.com/ws"
)

var dotEnvOnce sync.Once

// loadDotEnv loads a .env file if one exists. Missing files are not an error —
// production deployments use real environment variables.
func loadDotEnv() {
	dotEnvOnce.Do(func() {
		_ = godotenv.Load()
	})
}

type EnvVars struct{}

var _ Config = mainConfig{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Financial Gurkha")
}

func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, defaultAPIBaseURL)
}

func (EnvVars) GetWSBaseURL() string {
	return GetEnv(wsBaseURLVar, defaultWSBaseURL)
}

// GetCredentialsStore selects the on-disk credential store: "file" (default)
// or "sqlite".
func (EnvVars) GetCredentialsStore() string {
	return GetEnv(storeVar, "file")
}

// GetCredentialsPath returns where the credential pair is persisted on disk.
func (e EnvVars) GetCredentialsPath() string {
	if path := os.Getenv(credentialsVar); path != "" {
		return path
	}
	name := "credentials.json"
	if e.GetCredentialsStore() == "sqlite" {
		name = "credentials.db"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".gurkha", name)
}

func (EnvVars) GetAccessTokenKey() string {
	return GetEnv(accessKeyVar, "accessToken")
}

func (EnvVars) GetRefreshTokenKey() string {
	return GetEnv(refreshKeyVar, "refreshToken")
}

func (EnvVars) GetNotificationTokenKey() string {
	return GetEnv(notifKeyVar, "notificationToken")
}

func (EnvVars) GetHeartbeatInterval() time.Duration {
	return getEnvSeconds(heartbeatVar, 30*time.Second)
}

func (EnvVars) GetHTTPTimeout() time.Duration {
	return getEnvSeconds(httpTimeoutVar, 30*time.Second)
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvSeconds(envVar string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(envVar)
	if raw == "" {
		return defaultValue
	}
	seconds, err := time.ParseDuration(raw + "s")
	if err != nil || seconds <= 0 {
		return defaultValue
	}
	return seconds
}
