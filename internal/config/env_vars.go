package config

import (
	"os"
)

const (
	appNameVar    = "APP_NAME"
	folderEnvVar  = "FOLDER"
	authURLVar    = "TAREAS_AUTH_URL"
	tareasURLVar  = "TAREAS_TASKS_URL"
	legacyAuthVar = "VITE_AUTH_URL"
	legacyTaskVar = "VITE_TAREAS_URL"

	defaultAuthURL   = "http://localhost:4000"
	defaultTareasURL = "http://localhost:5000"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Tareas Admin")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetAuthURL returns the base URL of the auth backend (login, users, roles, units, audit).
// The VITE_ name is still honoured so existing .env files keep working.
func (EnvVars) GetAuthURL() string {
	return GetEnv(authURLVar, GetEnv(legacyAuthVar, defaultAuthURL))
}

// GetTareasURL returns the base URL of the tareas backend (tasks, states, approvals, reports).
func (EnvVars) GetTareasURL() string {
	return GetEnv(tareasURLVar, GetEnv(legacyTaskVar, defaultTareasURL))
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
