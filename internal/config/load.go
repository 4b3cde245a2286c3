package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// File is the optional YAML configuration. Each field maps onto the
// environment variable the getters read; real environment wins over .env,
// and .env wins over the file.
type File struct {
	AppName        string `yaml:"app_name"`
	DataFolder     string `yaml:"data_folder"`
	AuthURL        string `yaml:"auth_url"`
	TareasURL      string `yaml:"tasks_url"`
	RequestTimeout string `yaml:"request_timeout"`
	RefreshTimeout string `yaml:"refresh_timeout"`
	RateLimit      string `yaml:"rate_limit"`
	LoginPath      string `yaml:"login_path"`
	SessionDB      string `yaml:"session_db"`
	Google         struct {
		Issuer       string `yaml:"issuer"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		RedirectURL  string `yaml:"redirect_url"`
	} `yaml:"google"`
}

// Load reads envFile and yamlFile (either may be empty or missing) and returns
// a Config backed by the resulting environment.
func Load(envFile, yamlFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if yamlFile != "" {
		data, err := os.ReadFile(yamlFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			var f File
			if err := yaml.Unmarshal(data, &f); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
			f.apply()
		}
	}

	return New(), nil
}

func (f File) apply() {
	defaults := map[string]string{
		appNameVar:             f.AppName,
		folderEnvVar:           f.DataFolder,
		authURLVar:             f.AuthURL,
		tareasURLVar:           f.TareasURL,
		requestTimeoutVar:      f.RequestTimeout,
		refreshTimeoutVar:      f.RefreshTimeout,
		rateLimitVar:           f.RateLimit,
		"TAREAS_LOGIN_PATH":    f.LoginPath,
		"TAREAS_SESSION_DB":    f.SessionDB,
		"GOOGLE_ISSUER":        f.Google.Issuer,
		"GOOGLE_CLIENT_ID":     f.Google.ClientID,
		"GOOGLE_CLIENT_SECRET": f.Google.ClientSecret,
		"GOOGLE_REDIRECT_URL":  f.Google.RedirectURL,
	}
	for envVar, value := range defaults {
		if value == "" {
			continue
		}
		if _, set := os.LookupEnv(envVar); set {
			continue
		}
		_ = os.Setenv(envVar, value)
	}
}
