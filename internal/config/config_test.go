package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/career-mapper/internal/model"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://storage.googleapis.com/mapsdevsite/json/states.js", cfg.Map.GeometryURL)
	assert.Equal(t, "STATE", cfg.Map.IDProperty)
	assert.Equal(t, "NAME", cfg.Map.NameProperty)
	assert.Equal(t, []float64{5, 69, 54}, cfg.Map.LowColor)
	assert.Equal(t, []float64{151, 83, 34}, cfg.Map.HighColor)
	assert.Equal(t, "#fff", cfg.Map.StrokeColor)
	assert.InDelta(t, 0.75, cfg.Map.FillOpacity, 0.001)
	assert.Equal(t, 15, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 64, cfg.Cache.MaxEntries)
	assert.Equal(t, 60, cfg.Cache.TTLMinutes)

	require.Len(t, cfg.Statistics, 5)
	assert.Equal(t, "DP02_0066PE", cfg.Statistics[0].ID)
	assert.Equal(t, "Per-capita income", cfg.Statistics[4].Label)
	assert.Equal(t, "https://storage.googleapis.com/mapsdevsite/json/DP03_0088E.json", cfg.Statistics[4].URL)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
map:
  geometry_url: ./states.geojson
cache:
  driver: none
statistics:
  - id: pop
    label: Population
    url: http://localhost/pop.json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "./states.geojson", cfg.Map.GeometryURL)
	assert.Equal(t, "none", cfg.Cache.Driver)
	assert.Equal(t, []model.Statistic{{ID: "pop", Label: "Population", URL: "http://localhost/pop.json"}}, cfg.Statistics)
	// Defaults still apply for unset values
	assert.Equal(t, "STATE", cfg.Map.IDProperty)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("MAPPER_LOG_LEVEL", "warn")
	t.Setenv("MAPPER_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MAPPER_SERVER_MAPS_API_KEY=abc123\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("MAPPER_SERVER_MAPS_API_KEY") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "abc123", cfg.Server.MapsAPIKey)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [\n"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestLoadRejectsNegativeRetries(t *testing.T) {
	chdirTemp(t)
	t.Setenv("MAPPER_FETCH_MAX_RETRIES", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")
}

func validConfig() *Config {
	return &Config{
		Map: MapConfig{
			LowColor:  []float64{5, 69, 54},
			HighColor: []float64{151, 83, 34},
		},
		Statistics: DefaultStatistics(),
		Cache:      CacheConfig{Driver: "memory"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"short palette", func(c *Config) { c.Map.LowColor = []float64{1, 2} }, "three HSL channels"},
		{"missing url", func(c *Config) { c.Statistics[0].URL = "" }, "needs an id and a url"},
		{"duplicate id", func(c *Config) { c.Statistics[1].ID = c.Statistics[0].ID }, "duplicate statistic id"},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, "unknown cache driver"},
		{"negative retries", func(c *Config) { c.Fetch.MaxRetries = -1 }, "must not be negative"},
		{"negative burst", func(c *Config) { c.Fetch.Burst = -5 }, "must not be negative"},
		{"negative timeout", func(c *Config) { c.Fetch.TimeoutSecs = -1 }, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
