// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVars   []string           // Environment variable names, first set wins
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", []string{"SOILPLANNER_DEBUG"}, validateEnvBool},

		{"webserver.host", []string{"SOILPLANNER_WEBSERVER_HOST"}, nil},
		{"webserver.port", []string{"SOILPLANNER_WEBSERVER_PORT", "PORT"}, validateEnvPort},
		{"webserver.maxuploadmb", []string{"SOILPLANNER_WEBSERVER_MAXUPLOADMB"}, validateEnvPositiveInt},

		{"uploads.dir", []string{"SOILPLANNER_UPLOADS_DIR"}, nil},

		{"geolocation.endpoint", []string{"SOILPLANNER_GEOLOCATION_ENDPOINT"}, validateEnvURL},
		{"geolocation.timeout", []string{"SOILPLANNER_GEOLOCATION_TIMEOUT"}, validateEnvDuration},

		// Secret; never logged
		{"gemini.apikey", GeminiAPIKeyEnvVars, nil},
		{"gemini.apikeyfile", []string{"SOILPLANNER_GEMINI_APIKEYFILE"}, nil},
		{"gemini.imagemodel", []string{"SOILPLANNER_GEMINI_IMAGEMODEL"}, nil},
		{"gemini.textmodel", []string{"SOILPLANNER_GEMINI_TEXTMODEL"}, nil},
		{"gemini.timeout", []string{"SOILPLANNER_GEMINI_TIMEOUT"}, validateEnvDuration},

		{"recommend.maxattempts", []string{"SOILPLANNER_RECOMMEND_MAXATTEMPTS"}, validateEnvPositiveInt},

		{"sentry.enabled", []string{"SOILPLANNER_SENTRY_ENABLED"}, validateEnvBool},
		{"sentry.dsn", []string{"SOILPLANNER_SENTRY_DSN", "SENTRY_DSN"}, nil},

		{"logging.default_level", []string{"SOILPLANNER_LOG_LEVEL"}, validateEnvLogLevel},
	}
}

// bindEnvVars sets up environment variable bindings with validation
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		args := append([]string{binding.ConfigKey}, binding.EnvVars...)
		if err := viper.BindEnv(args...); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.ConfigKey, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		for _, name := range binding.EnvVars {
			if envValue := os.Getenv(name); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", name, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("must be a port number between 1 and 65535")
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fmt.Errorf("must be a positive duration such as 10s")
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) URL")
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	switch strings.ToLower(value) {
	case "trace", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("must be one of trace, debug, info, warn, error")
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables() error {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return bindEnvVars()
}
