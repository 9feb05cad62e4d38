// Package conf loads soilplanner settings from config.yaml, defaults and
// environment variables using viper.
package conf

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/soilplanner/internal/errors"
	"github.com/tphakala/soilplanner/internal/logger"
	"github.com/tphakala/soilplanner/internal/secrets"
)

//go:embed config.yaml
var configFiles embed.FS

// Settings contains all configuration options for the service
type Settings struct {
	Debug bool `yaml:"debug"` // true to enable debug mode

	Main struct {
		Name string `yaml:"name"` // name shown in page titles and logs
	} `yaml:"main"`

	WebServer   WebServerSettings    `yaml:"webserver"`
	Uploads     UploadSettings       `yaml:"uploads"`
	Geolocation GeolocationSettings  `yaml:"geolocation"`
	Gemini      GeminiSettings       `yaml:"gemini"`
	Recommend   RecommendSettings    `yaml:"recommend"`
	Metrics     MetricsSettings      `yaml:"metrics"`
	Sentry      SentrySettings       `yaml:"sentry"`
	Logging     logger.LoggingConfig `yaml:"logging"`

	// Version and BuildDate are stamped at link time
	Version   string `yaml:"-"`
	BuildDate string `yaml:"-"`
}

// WebServerSettings contains settings for the echo web server
type WebServerSettings struct {
	Host        string        `yaml:"host"`        // listen address, empty for all interfaces
	Port        string        `yaml:"port"`        // listen port
	MaxUploadMB int           `yaml:"maxuploadmb"` // request body limit for /upload in megabytes
	ReadTimeout time.Duration `yaml:"readtimeout"` // read timeout for inbound requests
	Debug       bool          `yaml:"debug"`       // verbose echo logging
}

// UploadSettings controls where request-scoped upload files are written
type UploadSettings struct {
	Dir string `yaml:"dir"` // upload directory, created on startup
}

// GeolocationSettings configures the IP geolocation lookup
type GeolocationSettings struct {
	Endpoint  string        `yaml:"endpoint"`  // ip-api style JSON endpoint
	Timeout   time.Duration `yaml:"timeout"`   // per-request timeout
	CacheTTL  time.Duration `yaml:"cachettl"`  // 0 disables caching; every request performs a lookup
	RateLimit int           `yaml:"ratelimit"` // max lookups per minute, 0 disables limiting
}

// GeminiSettings configures access to the Gemini generative models
type GeminiSettings struct {
	APIKey     string        `yaml:"apikey"`     // literal or ${VAR} reference; prefer env or apikeyfile
	APIKeyFile string        `yaml:"apikeyfile"` // path to a mounted secret file
	BaseURL    string        `yaml:"baseurl"`    // API base URL override, empty for the SDK default
	ImageModel string        `yaml:"imagemodel"` // model used for soil classification
	TextModel  string        `yaml:"textmodel"`  // model used for plant recommendations
	Timeout    time.Duration `yaml:"timeout"`    // per-call timeout
}

// RecommendSettings configures recommendation generation
type RecommendSettings struct {
	MaxAttempts int `yaml:"maxattempts"` // total model calls before giving up on unparsable output
}

// MetricsSettings controls the Prometheus endpoint
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled"` // true to expose /metrics
	Path    string `yaml:"path"`    // exposition path
}

// SentrySettings contains settings for optional error telemetry
type SentrySettings struct {
	Enabled     bool   `yaml:"enabled"`
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

// GeminiAPIKeyEnvVars are consulted, in order, when no key is configured
var GeminiAPIKeyEnvVars = []string{"SOILPLANNER_GEMINI_APIKEY", "GEMINI_API_KEY"}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
// configFile overrides the search paths when non-empty.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(configFile); err != nil {
		return nil, errors.New(fmt.Errorf("error initializing viper: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}

	resolver := secrets.NewResolver(logger.Global().Module("configuration"))
	apiKey, err := resolver.Resolve(settings.Gemini.APIKeyFile, settings.Gemini.APIKey, GeminiAPIKeyEnvVars...)
	if err != nil {
		return nil, fmt.Errorf("error resolving gemini api key: %w", err)
	}
	settings.Gemini.APIKey = apiKey

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper sets defaults, env bindings and reads the config file. When no
// config file exists the embedded default is used.
func initViper(configFile string) error {
	viper.SetConfigType("yaml")
	setDefaultConfig()

	if err := configureEnvironmentVariables(); err != nil {
		logger.Global().Module("configuration").Warn("Environment variable problems", logger.Error(err))
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	viper.SetConfigName("config")
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	err = viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return viper.ReadConfig(bytes.NewReader(getDefaultConfig()))
}

// getDefaultConfig returns the embedded default config.yaml.
func getDefaultConfig() []byte {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		// embedded at build time; cannot fail at runtime
		panic(fmt.Sprintf("embedded config.yaml missing: %v", err))
	}
	return data
}

// WriteDefaultConfig writes the embedded default config to path, refusing to
// overwrite an existing file.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("config file already exists: %s", path).
			Component("configuration").
			Category(errors.CategoryFileIO).
			Build()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(fmt.Errorf("error creating directories for config file: %w", err)).
			Component("configuration").
			Category(errors.CategoryFileIO).
			Build()
	}

	if err := os.WriteFile(path, getDefaultConfig(), 0o644); err != nil {
		return errors.FileError(fmt.Errorf("error writing default config file: %w", err), path, 0)
	}
	return nil
}

// GetSettings returns the most recently loaded settings
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// DumpYAML renders the effective settings as YAML with secrets redacted.
func (s *Settings) DumpYAML() ([]byte, error) {
	redacted := *s
	if redacted.Gemini.APIKey != "" {
		redacted.Gemini.APIKey = "[REDACTED]"
	}
	if redacted.Sentry.DSN != "" {
		redacted.Sentry.DSN = "[REDACTED]"
	}

	data, err := yaml.Marshal(&redacted)
	if err != nil {
		return nil, errors.New(fmt.Errorf("error marshaling settings to YAML: %w", err)).
			Component("configuration").
			Category(errors.CategoryFileParsing).
			Build()
	}
	return data, nil
}

// ListenAddress returns the host:port the web server binds to
func (s *Settings) ListenAddress() string {
	return s.WebServer.Host + ":" + s.WebServer.Port
}

// MaxUploadBytes returns the upload body limit in bytes
func (s *Settings) MaxUploadBytes() int64 {
	return int64(s.WebServer.MaxUploadMB) * 1024 * 1024
}
