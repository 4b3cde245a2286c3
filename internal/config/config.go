package config

import "time"

type Config interface {
	EnvConfig
	HTTPConfig
	SessionConfig
}

type EnvConfig interface {
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
	GetAuthURL() string
	GetTareasURL() string
}

type HTTPConfig interface {
	GetRequestTimeout() time.Duration
	GetRefreshTimeout() time.Duration
	GetRateLimit() float64
	GetRateBurst() int
}

type mainConfig struct {
	EnvVars
	HTTP
	Session
}

func New() Config {
	return mainConfig{}
}
