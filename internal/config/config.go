package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ocrdrop/internal/errors"

	"github.com/gobwas/glob"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Strategy names accepted in upload.strategy.
const (
	StrategyRandom  = "random"
	StrategyInstant = "instant"
)

// Environment variables that override file settings.
const (
	EnvServerURL    = "OCRDROP_SERVER_URL"
	EnvReceiverPath = "OCRDROP_RECEIVER_PATH"
	EnvSearchPath   = "OCRDROP_SEARCH_PATH"
	EnvStrategy     = "OCRDROP_STRATEGY"
	EnvSuccessRate  = "OCRDROP_SUCCESS_RATE"
	EnvDropDir      = "OCRDROP_DROP_DIR"
	EnvLogLevel     = "OCRDROP_LOG_LEVEL"
)

// Config represents the application configuration structure.
// It defines the OCR service location, the simulated upload behaviour,
// intake rules, the drop folder and presentation settings.
type Config struct {
	Server struct {
		BaseURL      string        `yaml:"base_url"`      // Origin of the OCR service
		ReceiverPath string        `yaml:"receiver_path"` // Multipart upload endpoint
		SearchPath   string        `yaml:"search_path"`   // File-name search endpoint
		Timeout      time.Duration `yaml:"timeout"`       // 0 keeps the transport default
	} `yaml:"server"`
	Upload struct {
		Strategy     string        `yaml:"strategy"`      // random or instant
		TickInterval time.Duration `yaml:"tick_interval"` // Time between progress ticks
		MaxIncrement float64       `yaml:"max_increment"` // Upper bound of a random tick
		SettleDelay  time.Duration `yaml:"settle_delay"`  // Pause between 100% and the outcome
		SuccessRate  float64       `yaml:"success_rate"`  // Probability of a simulated success
	} `yaml:"upload"`
	Intake struct {
		AcceptedTypes []string `yaml:"accepted_types"` // MIME types kept from a batch
	} `yaml:"intake"`
	Watch struct {
		Directory    string        `yaml:"directory"`     // Drop folder
		Ignore       []string      `yaml:"ignore"`        // Glob patterns skipped by name
		Settle       time.Duration `yaml:"settle"`        // Quiet period before a file is picked up
		ScanExisting bool          `yaml:"scan_existing"` // Pick up files already present
	} `yaml:"watch"`
	Logging struct {
		Level string `yaml:"level"` // debug, info, warn, error
		JSON  bool   `yaml:"json"`  // One JSON object per line
		File  string `yaml:"file"`  // Log file used by the interactive front-ends
	} `yaml:"logging"`
	Theme struct {
		Name     string `yaml:"name"`     // Theme name (default, dark, light, etc.)
		Primary  string `yaml:"primary"`  // Primary color for branding
		Success  string `yaml:"success"`  // Success message color
		Warning  string `yaml:"warning"`  // Warning message color
		Error    string `yaml:"error"`    // Error message color
		Info     string `yaml:"info"`     // Informational message color
		Emphasis string `yaml:"emphasis"` // Emphasis color for text that should stand out
		Border   string `yaml:"border"`   // Border color for frames
	} `yaml:"theme"`
}

// DefaultPath returns ~/.config/ocrdrop/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ocrdrop", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location.
func LoadConfig() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// LoadConfigFile loads configuration from a specific file path, then applies
// environment overrides (a .env file in the working directory is read first
// when present). If the file doesn't exist, defaults are used.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.merge(data); err != nil {
			return nil, errors.NewConfigError("error parsing config file", path, errors.InvalidConfig, err)
		}
	case os.IsNotExist(err):
		// defaults
	default:
		return nil, errors.NewFileError("error reading config file", path, errors.FileAccessDenied, err)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.NewConfigError("error reading .env file", ".env", errors.InvalidConfig, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// merge overlays the YAML document on the current values, keeping defaults
// for everything the document leaves unset.
func (c *Config) merge(data []byte) error {
	var tempCfg Config
	if err := yaml.Unmarshal(data, &tempCfg); err != nil {
		return err
	}

	if tempCfg.Server.BaseURL != "" {
		c.Server.BaseURL = tempCfg.Server.BaseURL
	}
	if tempCfg.Server.ReceiverPath != "" {
		c.Server.ReceiverPath = tempCfg.Server.ReceiverPath
	}
	if tempCfg.Server.SearchPath != "" {
		c.Server.SearchPath = tempCfg.Server.SearchPath
	}
	c.Server.Timeout = tempCfg.Server.Timeout

	if tempCfg.Upload.Strategy != "" {
		c.Upload.Strategy = tempCfg.Upload.Strategy
	}
	if tempCfg.Upload.TickInterval > 0 {
		c.Upload.TickInterval = tempCfg.Upload.TickInterval
	}
	if tempCfg.Upload.MaxIncrement > 0 {
		c.Upload.MaxIncrement = tempCfg.Upload.MaxIncrement
	}
	if tempCfg.Upload.SettleDelay > 0 {
		c.Upload.SettleDelay = tempCfg.Upload.SettleDelay
	}
	// success_rate 0 is meaningful (always fail), so only a present key overrides
	var raw struct {
		Upload map[string]interface{} `yaml:"upload"`
	}
	if err := yaml.Unmarshal(data, &raw); err == nil {
		if _, ok := raw.Upload["success_rate"]; ok {
			c.Upload.SuccessRate = tempCfg.Upload.SuccessRate
		}
	}

	if len(tempCfg.Intake.AcceptedTypes) > 0 {
		c.Intake.AcceptedTypes = tempCfg.Intake.AcceptedTypes
	}

	c.Watch.Directory = tempCfg.Watch.Directory
	if tempCfg.Watch.Ignore != nil {
		c.Watch.Ignore = tempCfg.Watch.Ignore
	}
	if tempCfg.Watch.Settle > 0 {
		c.Watch.Settle = tempCfg.Watch.Settle
	}
	c.Watch.ScanExisting = tempCfg.Watch.ScanExisting

	if tempCfg.Logging.Level != "" {
		c.Logging.Level = tempCfg.Logging.Level
	}
	c.Logging.JSON = tempCfg.Logging.JSON
	if tempCfg.Logging.File != "" {
		c.Logging.File = tempCfg.Logging.File
	}

	if tempCfg.Theme.Name != "" {
		c.ApplyTheme(tempCfg.Theme.Name)
	}
	overrideColor(&c.Theme.Primary, tempCfg.Theme.Primary)
	overrideColor(&c.Theme.Success, tempCfg.Theme.Success)
	overrideColor(&c.Theme.Warning, tempCfg.Theme.Warning)
	overrideColor(&c.Theme.Error, tempCfg.Theme.Error)
	overrideColor(&c.Theme.Info, tempCfg.Theme.Info)
	overrideColor(&c.Theme.Emphasis, tempCfg.Theme.Emphasis)
	overrideColor(&c.Theme.Border, tempCfg.Theme.Border)
	return nil
}

func overrideColor(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ApplyEnv overrides settings from OCRDROP_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvServerURL); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv(EnvReceiverPath); v != "" {
		c.Server.ReceiverPath = v
	}
	if v := os.Getenv(EnvSearchPath); v != "" {
		c.Server.SearchPath = v
	}
	if v := os.Getenv(EnvStrategy); v != "" {
		c.Upload.Strategy = v
	}
	if v := os.Getenv(EnvSuccessRate); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.NewConfigError("invalid environment value", EnvSuccessRate, errors.InvalidConfig, err)
		}
		c.Upload.SuccessRate = rate
	}
	if v := os.Getenv(EnvDropDir); v != "" {
		c.Watch.Directory = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// defaultConfig returns the default configuration: the OCR service on the
// local origin and the original widget's timings.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.BaseURL = "http://127.0.0.1:5000"
	cfg.Server.ReceiverPath = "/receiver"
	cfg.Server.SearchPath = "/search_pdf"

	cfg.Upload.Strategy = StrategyRandom
	cfg.Upload.TickInterval = 100 * time.Millisecond
	cfg.Upload.MaxIncrement = 15
	cfg.Upload.SettleDelay = 200 * time.Millisecond
	cfg.Upload.SuccessRate = 0.8

	cfg.Intake.AcceptedTypes = []string{
		"application/pdf",
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/gif",
		"image/webp",
	}

	cfg.Watch.Ignore = []string{".*", "*.part", "*.crdownload", "*.tmp", "*~"}
	cfg.Watch.Settle = 500 * time.Millisecond

	cfg.Logging.Level = "info"

	cfg.ApplyTheme("default")
	return cfg
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewConfigError("nil config", "", errors.InvalidConfig, nil)
	}
	invalid := func(param, format string, args ...interface{}) error {
		return errors.NewConfigError(fmt.Sprintf(format, args...), param, errors.InvalidConfig, nil)
	}

	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return errors.NewConfigError("invalid base url", "server.base_url", errors.InvalidConfig, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("server.base_url", "base url must be an absolute http(s) url, got %q", c.Server.BaseURL)
	}
	if !strings.HasPrefix(c.Server.ReceiverPath, "/") {
		return invalid("server.receiver_path", "path must start with /")
	}
	if !strings.HasPrefix(c.Server.SearchPath, "/") {
		return invalid("server.search_path", "path must start with /")
	}
	if c.Server.Timeout < 0 {
		return invalid("server.timeout", "timeout must be >= 0")
	}

	switch c.Upload.Strategy {
	case StrategyRandom, StrategyInstant:
	default:
		return invalid("upload.strategy", "unknown strategy %q", c.Upload.Strategy)
	}
	if c.Upload.TickInterval <= 0 {
		return invalid("upload.tick_interval", "tick interval must be > 0")
	}
	if c.Upload.MaxIncrement <= 0 || c.Upload.MaxIncrement > 100 {
		return invalid("upload.max_increment", "max increment must be in (0, 100]")
	}
	if c.Upload.SettleDelay < 0 {
		return invalid("upload.settle_delay", "settle delay must be >= 0")
	}
	if c.Upload.SuccessRate < 0 || c.Upload.SuccessRate > 1 {
		return invalid("upload.success_rate", "success rate must be in [0, 1]")
	}

	if len(c.Intake.AcceptedTypes) == 0 {
		return invalid("intake.accepted_types", "at least one accepted type is required")
	}
	for _, t := range c.Intake.AcceptedTypes {
		if !strings.Contains(t, "/") {
			return invalid("intake.accepted_types", "%q is not a MIME type", t)
		}
	}

	for _, pattern := range c.Watch.Ignore {
		if _, err := glob.Compile(pattern); err != nil {
			return errors.NewConfigError("invalid ignore pattern", "watch.ignore", errors.InvalidConfig, err)
		}
	}
	if c.Watch.Settle < 0 {
		return invalid("watch.settle", "settle must be >= 0")
	}
	return nil
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}

// NewTestConfig creates a configuration with fast timings for tests.
func NewTestConfig(baseURL string) *Config {
	cfg := defaultConfig()
	cfg.Server.BaseURL = baseURL
	cfg.Upload.TickInterval = time.Millisecond
	cfg.Upload.SettleDelay = time.Millisecond
	cfg.Watch.Settle = 20 * time.Millisecond
	return cfg
}

// GetTheme returns a predefined theme configuration by name.
// If the theme doesn't exist, returns the default theme.
func GetTheme(name string) map[string]string {
	themes := map[string]map[string]string{
		"default": {
			"primary":  "213", // Purple
			"success":  "114", // Green
			"warning":  "220", // Yellow
			"error":    "196", // Red
			"info":     "39",  // Blue
			"emphasis": "212", // Light Pink
			"border":   "213", // Purple
		},
		"dark": {
			"primary":  "105", // Dark Blue
			"success":  "78",  // Dark Green
			"warning":  "214", // Dark Yellow
			"error":    "160", // Dark Red
			"info":     "33",  // Dark Blue
			"emphasis": "147", // Light Blue
			"border":   "105", // Dark Blue
		},
		"light": {
			"primary":  "135", // Light Purple
			"success":  "150", // Light Green
			"warning":  "222", // Light Yellow
			"error":    "210", // Light Red
			"info":     "117", // Light Blue
			"emphasis": "219", // Very Light Pink
			"border":   "135", // Light Purple
		},
		"monochrome": {
			"primary":  "245", // Light Grey
			"success":  "252", // White
			"warning":  "241", // Medium Grey
			"error":    "232", // Black
			"info":     "248", // Grey
			"emphasis": "255", // Bright White
			"border":   "245", // Light Grey
		},
	}

	if theme, exists := themes[name]; exists {
		return theme
	}
	return themes["default"]
}

// ApplyTheme sets the theme in the configuration.
func (c *Config) ApplyTheme(name string) {
	theme := GetTheme(name)

	c.Theme.Name = name
	c.Theme.Primary = theme["primary"]
	c.Theme.Success = theme["success"]
	c.Theme.Warning = theme["warning"]
	c.Theme.Error = theme["error"]
	c.Theme.Info = theme["info"]
	c.Theme.Emphasis = theme["emphasis"]
	c.Theme.Border = theme["border"]
}

// ListThemes returns a list of available theme names.
func ListThemes() []string {
	return []string{"default", "dark", "light", "monochrome"}
}
