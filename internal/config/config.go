package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "IRIS"

type Config struct {
	Env        string           `yaml:"env"`        // Env is the current environment: local, development, production.
	HTTP       HTTPConfig       `yaml:"http"`       // HTTP holds the facade listener configuration
	Monitoring MonitoringConfig `yaml:"monitoring"` // Monitoring holds the metrics and health listener configuration
	Upstream   UpstreamConfig   `yaml:"upstream"`   // Upstream holds the employee API connection configuration
}

// HTTPConfig struct holds the configuration of the employee facade listener.
type HTTPConfig struct {
	Address         string        `yaml:"address"`          // Address is the listen address in format `host:port`.
	BasePath        string        `yaml:"base_path"`        // BasePath is the prefix every route is mounted under.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // ShutdownTimeout bounds the graceful shutdown.
}

// MonitoringConfig struct holds the configuration of the /metrics and /healthz listener.
type MonitoringConfig struct {
	Port int `yaml:"port"`
}

// UpstreamConfig struct holds the configuration details for connection to the upstream employee API.
type UpstreamConfig struct {
	URL     string        `yaml:"url"`     // URL is the base url of the collection, e.g. `http://localhost:8112/api/v1/employee`
	Timeout time.Duration `yaml:"timeout"` // Timeout is the per-request timeout of the upstream client.
}

// MustLoad reads the configuration from defaults, an optional YAML file at CONFIG_PATH
// and IRIS_* environment variables, in increasing order of precedence.
// A .env file in the working directory is loaded first when present.
func MustLoad() *Config {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "local")
	v.SetDefault("http.address", ":8080")
	v.SetDefault("http.base_path", "")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("monitoring.port", "8081")
	v.SetDefault("upstream.url", "http://localhost:8112/api/v1/employee")
	v.SetDefault("upstream.timeout", "10s")

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		// check if file exists
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			panic("config file does not exist: " + configPath)
		}

		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			panic("config error: " + err.Error())
		}
	}

	shutdownTimeout, err := time.ParseDuration(v.GetString("http.shutdown_timeout"))
	if err != nil {
		panic("failed to parse shutdown timeout from configuration")
	}

	upstreamTimeout, err := time.ParseDuration(v.GetString("upstream.timeout"))
	if err != nil {
		panic("failed to parse upstream timeout from configuration")
	}

	monitoringPort, err := strconv.Atoi(v.GetString("monitoring.port"))
	if err != nil {
		panic("failed to parse monitoring port from configuration")
	}

	upstreamURL := v.GetString("upstream.url")
	if u, err := url.Parse(upstreamURL); err != nil || u.Scheme == "" || u.Host == "" {
		panic("invalid upstream url in configuration: " + upstreamURL)
	}

	return &Config{
		Env: v.GetString("env"),
		HTTP: HTTPConfig{
			Address:         v.GetString("http.address"),
			BasePath:        v.GetString("http.base_path"),
			ShutdownTimeout: shutdownTimeout,
		},
		Monitoring: MonitoringConfig{
			Port: monitoringPort,
		},
		Upstream: UpstreamConfig{
			URL:     upstreamURL,
			Timeout: upstreamTimeout,
		},
	}
}
