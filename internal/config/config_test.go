package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves the test into an empty directory so that no stray
// config.yaml or .env is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5/forecast", cfg.Forecast.BaseURL)
	assert.Equal(t, "metric", cfg.Forecast.Units)
	assert.Equal(t, 5, cfg.Forecast.MaxDays)
	assert.Empty(t, cfg.Forecast.APIKey)
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	chdirTemp(t)

	_, err := Load("does-not-exist.yaml")
	require.Error(t, err)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := chdirTemp(t)

	path := filepath.Join(dir, "gateway.yaml")
	yaml := []byte("server:\n  port: 9090\nforecast:\n  max_days: 3\n  api_key: from-file\n")
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("FORECAST_FORECAST_API_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Forecast.MaxDays)
	assert.Equal(t, "from-env", cfg.Forecast.APIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, DotEnvFile), []byte("FORECAST_FORECAST_API_KEY=dotenv-key\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("FORECAST_FORECAST_API_KEY") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.Forecast.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero max days", mutate: func(c *Config) { c.Forecast.MaxDays = 0 }, wantErr: true},
		{name: "bad base url", mutate: func(c *Config) { c.Forecast.BaseURL = "not a url" }, wantErr: true},
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "unknown units", mutate: func(c *Config) { c.Forecast.Units = "kelvinish" }, wantErr: true},
		{name: "no cors origins", mutate: func(c *Config) { c.Server.CORSAllowedOrigins = nil }, wantErr: true},
		{name: "cors origin without scheme", mutate: func(c *Config) { c.Server.CORSAllowedOrigins = []string{"example.com"} }, wantErr: true},
		{name: "cors origin list", mutate: func(c *Config) { c.Server.CORSAllowedOrigins = []string{"https://example.com", "http://localhost:8000"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestGetConfig_FallsBackToDefaults(t *testing.T) {
	cfg := GetConfig()
	require.NotNil(t, cfg)

	custom := NewDefaultConfig()
	custom.Server.Port = 1234
	SetConfig(custom)
	assert.Equal(t, 1234, GetConfig().Server.Port)
}
