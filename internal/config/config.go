package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"abtest-sizer/internal/logging"
	"abtest-sizer/internal/samplesize"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Calculator CalculatorConfig `mapstructure:"calculator"`
	Defaults   DesignDefaults   `mapstructure:"defaults"`
	Server     ServerConfig     `mapstructure:"server"`
	Export     ExportConfig     `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// CalculatorConfig selects the accumulation mode and the confidence threshold.
type CalculatorConfig struct {
	Mode               string `mapstructure:"mode"`
	HighConfidenceDays int    `mapstructure:"high_confidence_days"`
}

// DesignDefaults seed inputs the caller leaves unset.
type DesignDefaults struct {
	ControlCVR          float64 `mapstructure:"control_cvr"`
	MinDetectableEffect float64 `mapstructure:"min_detectable_effect"`
	SignificanceLevel   float64 `mapstructure:"significance_level"`
	Power               float64 `mapstructure:"power"`
	DailyTraffic        int64   `mapstructure:"daily_traffic"`
	ControlTrafficSplit float64 `mapstructure:"control_traffic_split"`
	DurationDays        int     `mapstructure:"duration_days"`
}

// ServerConfig governs the HTTP API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ExportConfig sets sweep export behaviour.
type ExportConfig struct {
	SweepSteps  int `mapstructure:"sweep_steps"`
	ChartWidth  int `mapstructure:"chart_width"`
	ChartHeight int `mapstructure:"chart_height"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ABSIZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "absizer")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("calculator.mode", string(samplesize.ModePerDay))
	v.SetDefault("calculator.high_confidence_days", 14)

	v.SetDefault("defaults.control_cvr", 0.02)
	v.SetDefault("defaults.min_detectable_effect", 0.03)
	v.SetDefault("defaults.significance_level", 0.05)
	v.SetDefault("defaults.power", 0.8)
	v.SetDefault("defaults.daily_traffic", 10000)
	v.SetDefault("defaults.control_traffic_split", 20)
	v.SetDefault("defaults.duration_days", 14)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("export.sweep_steps", 50)
	v.SetDefault("export.chart_width", 1280)
	v.SetDefault("export.chart_height", 720)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if _, err := samplesize.ParseMode(c.Calculator.Mode); err != nil {
		return fmt.Errorf("calculator.mode: %w", err)
	}
	if c.Calculator.HighConfidenceDays <= 0 {
		return fmt.Errorf("calculator.high_confidence_days must be greater than zero")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must be set")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be one of debug, release, test")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be greater than zero")
	}
	if c.Export.SweepSteps < 2 {
		return fmt.Errorf("export.sweep_steps must be at least 2")
	}
	if c.Export.ChartWidth <= 0 || c.Export.ChartHeight <= 0 {
		return fmt.Errorf("export.chart_width and export.chart_height must be greater than zero")
	}
	return nil
}

// CalculatorMode returns the validated accumulation mode.
func (c *Config) CalculatorMode() samplesize.Mode {
	mode, err := samplesize.ParseMode(c.Calculator.Mode)
	if err != nil {
		return samplesize.ModePerDay
	}
	return mode
}

// ResolveSweepSteps returns either the CLI override or config default.
func (c *Config) ResolveSweepSteps(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.SweepSteps
}
