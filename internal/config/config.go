// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Perception() PerceptionConfig
	Browser() BrowserConfig
	Network() NetworkConfig

	// Perception setters (driven by CLI flags).
	SetPerceptionHighlight(bool)
	SetPerceptionFocusIndex(int)
	SetPerceptionViewportExpansion(int)

	// Browser setters.
	SetBrowserHeadless(bool)
}

// Config holds the entire application configuration. Private fields enforce
// access through the Interface getters.
type Config struct {
	logger     LoggerConfig
	perception PerceptionConfig
	browser    BrowserConfig
	network    NetworkConfig
}

func (c *Config) Logger() LoggerConfig         { return c.logger }
func (c *Config) Perception() PerceptionConfig { return c.perception }
func (c *Config) Browser() BrowserConfig       { return c.browser }
func (c *Config) Network() NetworkConfig       { return c.network }

func (c *Config) SetPerceptionHighlight(b bool)        { c.perception.Highlight = b }
func (c *Config) SetPerceptionFocusIndex(i int)        { c.perception.FocusIndex = i }
func (c *Config) SetPerceptionViewportExpansion(v int) { c.perception.ViewportExpansion = v }
func (c *Config) SetBrowserHeadless(b bool)            { c.browser.Headless = b }

// ColorConfig maps log levels to terminal colors for the console encoder.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// PerceptionConfig controls snapshot extraction.
//
// ViewportExpansion is measured in pixels. It widens the window within which
// elements remain eligible for the topmost test:
//   - -1 treats every element as topmost (more elements, higher downstream cost);
//   - 0 restricts to the visible viewport;
//   - any positive value expands the viewport by that margin on all sides.
type PerceptionConfig struct {
	Highlight         bool `mapstructure:"highlight" yaml:"highlight"`
	FocusIndex        int  `mapstructure:"focus_index" yaml:"focus_index"` // -1 = capture all
	ViewportExpansion int  `mapstructure:"viewport_expansion" yaml:"viewport_expansion"`
}

// BrowserConfig controls the live-capture chromedp session.
type BrowserConfig struct {
	Headless        bool          `mapstructure:"headless" yaml:"headless"`
	ViewportWidth   int           `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight  int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	NavigateTimeout time.Duration `mapstructure:"navigate_timeout" yaml:"navigate_timeout"`
	StabilizeWait   time.Duration `mapstructure:"stabilize_wait" yaml:"stabilize_wait"`
}

// NetworkConfig controls the plain HTTP fetcher used for frames and stylesheets.
type NetworkConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	MaxFrameFetches int           `mapstructure:"max_frame_fetches" yaml:"max_frame_fetches"`
	UserAgent       string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// SetDefaults registers the default value for every configuration key on the
// supplied viper instance. Call before unmarshalling.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "periscope")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "red")
	v.SetDefault("logger.colors.panic", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("perception.highlight", true)
	v.SetDefault("perception.focus_index", -1)
	v.SetDefault("perception.viewport_expansion", 500)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 720)
	v.SetDefault("browser.navigate_timeout", 30*time.Second)
	v.SetDefault("browser.stabilize_wait", 500*time.Millisecond)

	v.SetDefault("network.request_timeout", 15*time.Second)
	v.SetDefault("network.max_body_bytes", int64(8<<20))
	v.SetDefault("network.max_frame_fetches", 4)
	v.SetDefault("network.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
}

// Load unmarshals the supplied viper instance into a Config, applying defaults
// for any key the file or environment left unset.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var raw struct {
		Logger     LoggerConfig     `mapstructure:"logger"`
		Perception PerceptionConfig `mapstructure:"perception"`
		Browser    BrowserConfig    `mapstructure:"browser"`
		Network    NetworkConfig    `mapstructure:"network"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg := &Config{
		logger:     raw.Logger,
		perception: raw.Perception,
		browser:    raw.Browser,
		network:    raw.Network,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid logger format %q (want console or json)", c.logger.Format)
	}
	if c.browser.ViewportWidth <= 0 || c.browser.ViewportHeight <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", c.browser.ViewportWidth, c.browser.ViewportHeight)
	}
	if c.perception.ViewportExpansion < -1 {
		return fmt.Errorf("viewport_expansion must be >= -1, got %d", c.perception.ViewportExpansion)
	}
	if c.perception.FocusIndex < -1 {
		return fmt.Errorf("focus_index must be >= -1, got %d", c.perception.FocusIndex)
	}
	return nil
}

// Default returns a ready-to-use configuration with every default applied.
// Intended for library consumers that bypass the CLI.
func Default() *Config {
	cfg, err := Load(viper.New())
	if err != nil {
		// Defaults are statically valid; reaching this is a programming error.
		panic(err)
	}
	return cfg
}
