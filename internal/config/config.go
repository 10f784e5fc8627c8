// Package config provides configuration loading from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = 3000
	// DefaultRemoteURL is the local development address of the projectA remote.
	DefaultRemoteURL = "http://localhost:3001/build"
	// DefaultManifestPath is the manifest file every remote publishes under its base URL.
	DefaultManifestPath = "assets/remoteEntry.json"
	// DefaultRemoteTimeoutMS bounds a single remote fetch.
	DefaultRemoteTimeoutMS = 30000
)

// Config holds the application configuration.
type Config struct {
	Port     int
	LogLevel string
	// Basename is the optional mount prefix the host is served under.
	Basename string
	// Remotes maps remote names to their base URLs, without trailing slash.
	Remotes         map[string]string
	ManifestPath    string
	RemoteTimeoutMS int
	RoutesFile      string
	DBPath          string
	CORS            bool
	Exposed         Exposed
	Shared          SharedRuntime
}

// Exposed is the configuration object the host publishes for remotes to read.
// It is constant for the process lifetime.
type Exposed struct {
	AppName    string   `json:"appName"`
	APIBaseURL string   `json:"apiBaseUrl"`
	Features   Features `json:"features"`
}

// Features holds the host feature flags.
type Features struct {
	DarkMode  bool `json:"darkMode"`
	Analytics bool `json:"analytics"`
}

// SharedRuntime lists the versions of the runtime pieces the host shares with
// remotes. Remote manifests declare semver constraints against these names.
type SharedRuntime map[string]string

// DefaultShared returns the runtime versions this host provides.
func DefaultShared() SharedRuntime {
	return SharedRuntime{
		"hostshell": "1.0.0",
		"router":    "1.0.0",
	}
}

// Load loads configuration from environment variables, reading envFile first
// when it exists. Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		err := godotenv.Load(envFile)
		switch {
		case err == nil:
			slog.Debug("loaded env file", "path", envFile)
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:     getEnvInt("PORT", DefaultPort),
		LogLevel: getEnvStr("LOG_LEVEL", "info"),
		Basename: strings.TrimSuffix(getEnvStr("HOST_BASENAME", ""), "/"),
		Remotes: map[string]string{
			"projectA": remoteURL("PROJECT_A_URL", DefaultRemoteURL),
		},
		ManifestPath:    strings.TrimPrefix(getEnvStr("HOST_MANIFEST_PATH", DefaultManifestPath), "/"),
		RemoteTimeoutMS: getEnvInt("HOST_REMOTE_TIMEOUT_MS", DefaultRemoteTimeoutMS),
		RoutesFile:      getEnvStr("HOST_ROUTES_FILE", ""),
		DBPath:          getEnvStr("HOST_DB_PATH", ":memory:"),
		CORS:            getEnvBool("HOST_CORS", true),
		Exposed: Exposed{
			AppName:    "Host App",
			APIBaseURL: getEnvStr("API_BASE_URL", "/api"),
			Features: Features{
				DarkMode:  true,
				Analytics: false,
			},
		},
		Shared: DefaultShared(),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.RemoteTimeoutMS < 1 {
		return fmt.Errorf("HOST_REMOTE_TIMEOUT_MS must be positive, got %d", c.RemoteTimeoutMS)
	}
	if c.Basename != "" && !strings.HasPrefix(c.Basename, "/") {
		return fmt.Errorf("HOST_BASENAME must start with /, got %q", c.Basename)
	}
	for name, raw := range c.Remotes {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("remote %s: base URL must be absolute, got %q", name, raw)
		}
	}
	return nil
}

// remoteURL reads a remote base URL, trimming one trailing slash. An empty
// value falls back to the development default.
func remoteURL(key, defaultVal string) string {
	if v := strings.TrimSuffix(os.Getenv(key), "/"); v != "" {
		return v
	}
	return defaultVal
}

func getEnvStr(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
