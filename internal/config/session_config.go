package config

import "path/filepath"

type SessionConfig interface {
	GetLoginPath() string
	GetSessionDBPath() string
	GetGoogleIssuer() string
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURL() string
}

type Session struct{}

var _ SessionConfig = Session{}

// GetLoginPath is reported to session-invalidated subscribers as the place to send the user.
func (Session) GetLoginPath() string {
	return GetEnv("TAREAS_LOGIN_PATH", "/login")
}

func (Session) GetSessionDBPath() string {
	return GetEnv("TAREAS_SESSION_DB", filepath.Join(EnvVars{}.GetDataFolder(), "session.db"))
}

func (Session) GetGoogleIssuer() string {
	return GetEnv("GOOGLE_ISSUER", "https://accounts.google.com")
}

func (Session) GetGoogleClientID() string {
	return GetEnv("GOOGLE_CLIENT_ID", "")
}

func (Session) GetGoogleClientSecret() string {
	return GetEnv("GOOGLE_CLIENT_SECRET", "")
}

func (Session) GetGoogleRedirectURL() string {
	return GetEnv("GOOGLE_REDIRECT_URL", "http://localhost:8085/callback")
}
