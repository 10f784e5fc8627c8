package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "HOST_BASENAME", "PROJECT_A_URL", "HOST_MANIFEST_PATH",
		"HOST_REMOTE_TIMEOUT_MS", "HOST_ROUTES_FILE", "HOST_DB_PATH", "HOST_CORS", "API_BASE_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "", cfg.Basename)
	assert.Equal(t, DefaultRemoteURL, cfg.Remotes["projectA"])
	assert.Equal(t, DefaultManifestPath, cfg.ManifestPath)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.True(t, cfg.CORS)
	assert.Equal(t, Exposed{
		AppName:    "Host App",
		APIBaseURL: "/api",
		Features:   Features{DarkMode: true, Analytics: false},
	}, cfg.Exposed)
	assert.Equal(t, "1.0.0", cfg.Shared["hostshell"])
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("PROJECT_A_URL", "https://project-a.example.com/")
	t.Setenv("HOST_BASENAME", "/shell/")
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("HOST_CORS", "false")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://project-a.example.com", cfg.Remotes["projectA"])
	assert.Equal(t, "/shell", cfg.Basename)
	assert.Equal(t, "https://api.example.com", cfg.Exposed.APIBaseURL)
	assert.False(t, cfg.CORS)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("PROJECT_A_URL")
	t.Cleanup(func() { os.Unsetenv("PROJECT_A_URL") })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PROJECT_A_URL=http://remote.test:4000/build/\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://remote.test:4000/build", cfg.Remotes["projectA"])
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "port out of range", env: map[string]string{"PORT": "70000"}},
		{name: "relative remote", env: map[string]string{"PROJECT_A_URL": "/build"}},
		{name: "basename without slash", env: map[string]string{"HOST_BASENAME": "shell"}},
		{name: "zero timeout", env: map[string]string{"HOST_REMOTE_TIMEOUT_MS": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
		})
	}
}
