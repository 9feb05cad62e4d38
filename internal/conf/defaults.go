// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/soilplanner/internal/logger"
)

// Defaults shared with other packages
const (
	DefaultGeolocationEndpoint = "http://ip-api.com/json/"
	DefaultImageModel          = "gemini-1.5-flash"
	DefaultTextModel           = "gemini-1.0-pro-latest"
	DefaultMaxAttempts         = 2
	DefaultMaxUploadMB         = 10
	DefaultUploadDir           = "uploads"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)
	viper.SetDefault("main.name", "Soil Planner")

	viper.SetDefault("webserver.host", "")
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.maxuploadmb", DefaultMaxUploadMB)
	viper.SetDefault("webserver.readtimeout", 30*time.Second)
	viper.SetDefault("webserver.debug", false)

	viper.SetDefault("uploads.dir", DefaultUploadDir)

	viper.SetDefault("geolocation.endpoint", DefaultGeolocationEndpoint)
	viper.SetDefault("geolocation.timeout", 10*time.Second)
	viper.SetDefault("geolocation.cachettl", time.Duration(0))
	viper.SetDefault("geolocation.ratelimit", 45) // ip-api free tier allows 45 requests per minute

	viper.SetDefault("gemini.apikey", "")
	viper.SetDefault("gemini.apikeyfile", "")
	viper.SetDefault("gemini.baseurl", "")
	viper.SetDefault("gemini.imagemodel", DefaultImageModel)
	viper.SetDefault("gemini.textmodel", DefaultTextModel)
	viper.SetDefault("gemini.timeout", 60*time.Second)

	viper.SetDefault("recommend.maxattempts", DefaultMaxAttempts)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.environment", "production")

	viper.SetDefault("logging.default_level", logger.DefaultLogLevel)
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", logger.DefaultConsoleEnabled)
	viper.SetDefault("logging.console.level", logger.DefaultLogLevel)
	viper.SetDefault("logging.file_output.enabled", logger.DefaultFileEnabled)
	viper.SetDefault("logging.file_output.path", logger.DefaultLogPath)
	viper.SetDefault("logging.file_output.level", logger.DefaultLogLevel)
	viper.SetDefault("logging.file_output.max_size", logger.DefaultMaxSize)
	viper.SetDefault("logging.file_output.max_age", logger.DefaultMaxAge)
	viper.SetDefault("logging.file_output.max_rotated_files", logger.DefaultMaxRotatedFiles)
	viper.SetDefault("logging.file_output.compress", false)
}
