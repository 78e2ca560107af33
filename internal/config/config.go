package config

import (
	"sync/atomic"
)

var configValue atomic.Value

func GetConfig() *Config {
	cfg, _ := configValue.Load().(*Config)
	if cfg == nil {
		return NewDefaultConfig()
	}
	return cfg
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version     string          `mapstructure:"version"`
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Forecast    ForecastConfig  `mapstructure:"forecast"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port               int      `mapstructure:"port" validate:"min=1,max=65535"`
	Host               string   `mapstructure:"host"`
	ReadTimeout        int      `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout       int      `mapstructure:"write_timeout" validate:"min=0"`
	IdleTimeout        int      `mapstructure:"idle_timeout" validate:"min=0"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins" validate:"min=1,dive,eq=*|url"`
}

// ForecastConfig describes the single upstream forecast provider.
type ForecastConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	APIKey  string `mapstructure:"api_key"`
	Units   string `mapstructure:"units" validate:"oneof=metric imperial standard"`
	// MaxDays is the provider horizon in calendar days, today included.
	MaxDays int `mapstructure:"max_days" validate:"min=1"`
	Timeout int `mapstructure:"timeout" validate:"min=1"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Server: ServerConfig{
			Port:               5000,
			Host:               "0.0.0.0",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"*"},
		},
		Forecast: ForecastConfig{
			BaseURL: "https://api.openweathermap.org/data/2.5/forecast",
			APIKey:  "",
			Units:   "metric",
			MaxDays: 5,
			Timeout: 10,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "tempo:4317",
			ServiceName: "forecast-gateway",
		},
	}
}
