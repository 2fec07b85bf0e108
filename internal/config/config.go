// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Network NetworkConfig `mapstructure:"network" yaml:"network"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Monitor MonitorConfig `mapstructure:"monitor" yaml:"monitor"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

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

// BrowserConfig controls the Chrome process launched for monitoring.
// Headless defaults to false: the whole point of the login gate is that a
// human can see the window and complete authentication (captcha included).
type BrowserConfig struct {
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	UserAgent       string   `mapstructure:"user_agent" yaml:"user_agent"`
	Args            []string `mapstructure:"args" yaml:"args"`
}

// NetworkConfig controls navigation behavior of a session.
type NetworkConfig struct {
	NavigationTimeout time.Duration     `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration     `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	Headers           map[string]string `mapstructure:"headers" yaml:"headers"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
)

// LLMConfig defines the configuration for the discovery model.
type LLMConfig struct {
	Provider      LLMProvider       `mapstructure:"provider" yaml:"provider"`
	Model         string            `mapstructure:"model" yaml:"model"`
	APIKey        string            `mapstructure:"api_key" yaml:"api_key"`
	Endpoint      string            `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout    time.Duration     `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature   float32           `mapstructure:"temperature" yaml:"temperature"`
	TopP          float32           `mapstructure:"top_p" yaml:"top_p"`
	TopK          int               `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens     int               `mapstructure:"max_tokens" yaml:"max_tokens"`
	SafetyFilters map[string]string `mapstructure:"safety_filters" yaml:"safety_filters"`
}

// MonitorConfig holds the runtime settings of the monitor loop.
type MonitorConfig struct {
	TargetURL       string        `mapstructure:"target_url" yaml:"target_url"`
	IntervalSeconds int           `mapstructure:"interval_seconds" yaml:"interval_seconds"`
	ScreenshotDir   string        `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
	MetadataFile    string        `mapstructure:"metadata_file" yaml:"metadata_file"`
	LoginSettle     time.Duration `mapstructure:"login_settle" yaml:"login_settle"`
	CycleSettle     time.Duration `mapstructure:"cycle_settle" yaml:"cycle_settle"`
	OutlineLimit    int           `mapstructure:"outline_limit" yaml:"outline_limit"`
}

// Interval returns the cycle interval as a duration.
func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.IntervalSeconds) * time.Second
}

// Validate checks settings the monitor command cannot run without.
func (c *Config) Validate() error {
	if c.Monitor.TargetURL == "" {
		return fmt.Errorf("monitor.target_url is required (set --url or DASHWATCH_MONITOR_TARGET_URL)")
	}
	if c.Monitor.IntervalSeconds <= 0 {
		return fmt.Errorf("monitor.interval_seconds must be positive, got %d", c.Monitor.IntervalSeconds)
	}
	if c.Monitor.ScreenshotDir == "" {
		return fmt.Errorf("monitor.screenshot_dir must not be empty")
	}
	if c.Monitor.MetadataFile == "" {
		return fmt.Errorf("monitor.metadata_file must not be empty")
	}
	return nil
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "dashwatch-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "magenta")
	v.SetDefault("logger.colors.info", "cyan")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "red")
	v.SetDefault("logger.colors.panic", "red")
	v.SetDefault("logger.colors.fatal", "red")

	// -- Browser --
	// Headful so the user can complete the login (and any captcha) manually.
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.user_agent", "")

	// -- Network --
	v.SetDefault("network.navigation_timeout", "90s")
	v.SetDefault("network.post_load_wait", "1500ms")

	// -- LLM --
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.api_timeout", "120s")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 4096)

	// -- Monitor --
	v.SetDefault("monitor.interval_seconds", 300)
	v.SetDefault("monitor.screenshot_dir", "screenshots")
	v.SetDefault("monitor.metadata_file", "screenshot_metadata.json")
	v.SetDefault("monitor.login_settle", "5s")
	v.SetDefault("monitor.cycle_settle", "3s")
	v.SetDefault("monitor.outline_limit", 40)
}
