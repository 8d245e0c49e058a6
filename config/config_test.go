package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing endpoint", func(c *Config) { c.Endpoint.URL = "" }, "endpoint.url"},
		{"bad dial timeout", func(c *Config) { c.Endpoint.DialTimeout = "soon" }, "dial_timeout"},
		{"negative reality check", func(c *Config) { c.Session.RealityCheckMinutes = -1 }, "reality_check_minutes"},
		{"unknown cache type", func(c *Config) { c.Cache.Type = "redis" }, "cache.type"},
		{"sqlite without path", func(c *Config) { c.Cache.DBPath = "" }, "db_path"},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSaveLoadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "client.yaml")
	want := Default()
	want.Session.IsEU = true
	want.Log.Pretty = true
	assert.NoError(t, want.SaveToFile(path))

	got, err := LoadFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveLoadJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "client.json")
	want := Default()
	want.Cache.Type = "memory"
	want.Cache.DBPath = ""
	assert.NoError(t, want.SaveToFile(path))

	got, err := LoadFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "client.yaml")
	cfg := Default()
	cfg.Endpoint.URL = ""
	assert.NoError(t, cfg.SaveToFile(path))

	_, err := LoadFromFile(path)
	assert.ErrorContains(t, err, "invalid config")
}

func TestDialURL(t *testing.T) {
	t.Parallel()

	e := EndpointConfig{URL: "wss://api.example.com/v1", AppID: 1234, Language: "EN"}
	assert.Equal(t, "wss://api.example.com/v1?app_id=1234&l=EN", e.DialURL())

	bare := EndpointConfig{URL: "wss://api.example.com/v1"}
	assert.Equal(t, "wss://api.example.com/v1", bare.DialURL())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TRADECORE_ENDPOINT", "wss://staging.example.com/v1")
	t.Setenv("TRADECORE_TOKEN", "tok-env")

	cfg := Default()
	cfg.LoadEnv()

	assert.Equal(t, "wss://staging.example.com/v1", cfg.Endpoint.URL)
	assert.Equal(t, "tok-env", cfg.Session.Token)
}
