package config

import (
	"strconv"
	"time"
)

const (
	requestTimeoutVar = "TAREAS_REQUEST_TIMEOUT"
	refreshTimeoutVar = "TAREAS_REFRESH_TIMEOUT"
	rateLimitVar      = "TAREAS_RATE_LIMIT"
	rateBurstVar      = "TAREAS_RATE_BURST"
)

type HTTP struct{}

var _ HTTPConfig = HTTP{}

// GetRequestTimeout bounds a single HTTP exchange with a backend.
func (HTTP) GetRequestTimeout() time.Duration {
	return durationEnv(requestTimeoutVar, 30*time.Second)
}

// GetRefreshTimeout bounds the shared token refresh call.
func (HTTP) GetRefreshTimeout() time.Duration {
	return durationEnv(refreshTimeoutVar, 10*time.Second)
}

// GetRateLimit is the number of outgoing requests per second, 0 disables limiting.
func (HTTP) GetRateLimit() float64 {
	v, err := strconv.ParseFloat(GetEnv(rateLimitVar, "0"), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func (HTTP) GetRateBurst() int {
	v, err := strconv.Atoi(GetEnv(rateBurstVar, "10"))
	if err != nil || v < 1 {
		return 1
	}
	return v
}

func durationEnv(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(GetEnv(envVar, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
