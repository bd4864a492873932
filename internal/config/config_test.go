package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ocrdrop/internal/config"
	"ocrdrop/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary YAML config file
func createTestYAML(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

const (
	validYAML = `
server:
  base_url: "http://ocr.internal:8080"
  timeout: 30s
upload:
  strategy: instant
  tick_interval: 50ms
  success_rate: 0
intake:
  accepted_types: ["application/pdf"]
watch:
  directory: "/srv/drop"
  ignore: ["*.swp"]
  scan_existing: true
theme:
  name: dark
  error: "9"
`
	invalidSyntaxYAML = `
server:
  base_url: "http://unterminated
upload: [
`
	invalidValueYAML = `
upload:
  success_rate: 1.5
`
)

func TestLoadConfigFile(t *testing.T) {
	t.Run("load valid config", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(createTestYAML(t, validYAML))
		require.NoError(t, err)

		assert.Equal(t, "http://ocr.internal:8080", cfg.Server.BaseURL)
		assert.Equal(t, "/receiver", cfg.Server.ReceiverPath, "unset keys keep defaults")
		assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
		assert.Equal(t, config.StrategyInstant, cfg.Upload.Strategy)
		assert.Equal(t, 50*time.Millisecond, cfg.Upload.TickInterval)
		assert.Equal(t, 200*time.Millisecond, cfg.Upload.SettleDelay)
		assert.Equal(t, 0.0, cfg.Upload.SuccessRate, "explicit zero success rate is kept")
		assert.Equal(t, []string{"application/pdf"}, cfg.Intake.AcceptedTypes)
		assert.Equal(t, "/srv/drop", cfg.Watch.Directory)
		assert.Equal(t, []string{"*.swp"}, cfg.Watch.Ignore)
		assert.True(t, cfg.Watch.ScanExisting)
		assert.Equal(t, "dark", cfg.Theme.Name)
		assert.Equal(t, "105", cfg.Theme.Primary)
		assert.Equal(t, "9", cfg.Theme.Error)
	})

	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "http://127.0.0.1:5000", cfg.Server.BaseURL)
		assert.Equal(t, 0.8, cfg.Upload.SuccessRate)
		assert.Equal(t, 100*time.Millisecond, cfg.Upload.TickInterval)
		assert.Len(t, cfg.Intake.AcceptedTypes, 6)
	})

	t.Run("invalid syntax", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, invalidSyntaxYAML))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidConfig(err))
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, invalidValueYAML))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upload.success_rate")
	})
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(config.EnvServerURL, "https://ocr.example.com")
	t.Setenv(config.EnvSuccessRate, "0.25")
	t.Setenv(config.EnvDropDir, "/tmp/drop")

	cfg, err := config.LoadConfigFile(createTestYAML(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, "https://ocr.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 0.25, cfg.Upload.SuccessRate)
	assert.Equal(t, "/tmp/drop", cfg.Watch.Directory)

	t.Setenv(config.EnvSuccessRate, "often")
	_, err = config.LoadConfigFile(createTestYAML(t, validYAML))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		param  string
	}{
		{"relative base url", func(c *config.Config) { c.Server.BaseURL = "localhost:5000" }, "server.base_url"},
		{"receiver path", func(c *config.Config) { c.Server.ReceiverPath = "receiver" }, "server.receiver_path"},
		{"search path", func(c *config.Config) { c.Server.SearchPath = "" }, "server.search_path"},
		{"unknown strategy", func(c *config.Config) { c.Upload.Strategy = "real" }, "upload.strategy"},
		{"zero tick", func(c *config.Config) { c.Upload.TickInterval = 0 }, "upload.tick_interval"},
		{"huge increment", func(c *config.Config) { c.Upload.MaxIncrement = 150 }, "upload.max_increment"},
		{"negative rate", func(c *config.Config) { c.Upload.SuccessRate = -0.1 }, "upload.success_rate"},
		{"no accepted types", func(c *config.Config) { c.Intake.AcceptedTypes = nil }, "intake.accepted_types"},
		{"bad mime", func(c *config.Config) { c.Intake.AcceptedTypes = []string{"pdf"} }, "intake.accepted_types"},
		{"bad glob", func(c *config.Config) { c.Watch.Ignore = []string{"[a-"} }, "watch.ignore"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var ce *errors.ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.param, ce.Param())
		})
	}

	assert.NoError(t, config.New().Validate())
	assert.NoError(t, config.NewTestConfig("http://127.0.0.1:1").Validate())
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := config.New()
	cfg.Server.BaseURL = "http://10.0.0.2:5000"
	cfg.Upload.SuccessRate = 0.5

	require.NoError(t, config.SaveConfig(cfg, path))

	loaded, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:5000", loaded.Server.BaseURL)
	assert.Equal(t, 0.5, loaded.Upload.SuccessRate)
	assert.Equal(t, cfg.Upload.TickInterval, loaded.Upload.TickInterval)
}

func TestThemes(t *testing.T) {
	for _, name := range config.ListThemes() {
		theme := config.GetTheme(name)
		assert.NotEmpty(t, theme["primary"], name)
	}
	assert.Equal(t, config.GetTheme("default"), config.GetTheme("no-such-theme"))
}
