// conf/validate.go

package conf

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tphakala/soilplanner/internal/errors"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ErrorCategory lets the errors package classify validation failures
func (ve ValidationError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryValidation
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	for _, check := range []func(*Settings) error{
		validateWebServerSettings,
		validateUploadSettings,
		validateGeolocationSettings,
		validateGeminiSettings,
		validateRecommendSettings,
		validateSentrySettings,
	} {
		if err := check(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateWebServerSettings(s *Settings) error {
	var errs []string

	port, err := strconv.Atoi(s.WebServer.Port)
	if err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("webserver.port %q must be between 1 and 65535", s.WebServer.Port))
	}
	if s.WebServer.MaxUploadMB < 1 {
		errs = append(errs, "webserver.maxuploadmb must be at least 1")
	}

	return joinErrs(errs)
}

func validateUploadSettings(s *Settings) error {
	if strings.TrimSpace(s.Uploads.Dir) == "" {
		return fmt.Errorf("uploads.dir must not be empty")
	}
	return nil
}

func validateGeolocationSettings(s *Settings) error {
	var errs []string

	u, err := url.Parse(s.Geolocation.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("geolocation.endpoint %q must be an absolute http(s) URL", s.Geolocation.Endpoint))
	}
	if s.Geolocation.Timeout <= 0 {
		errs = append(errs, "geolocation.timeout must be positive")
	}
	if s.Geolocation.CacheTTL < 0 {
		errs = append(errs, "geolocation.cachettl must not be negative")
	}
	if s.Geolocation.RateLimit < 0 {
		errs = append(errs, "geolocation.ratelimit must not be negative")
	}

	return joinErrs(errs)
}

// validateGeminiSettings checks model settings. A missing API key is not a
// configuration error here; commands that call the models require it.
func validateGeminiSettings(s *Settings) error {
	var errs []string

	if s.Gemini.ImageModel == "" {
		errs = append(errs, "gemini.imagemodel must not be empty")
	}
	if s.Gemini.TextModel == "" {
		errs = append(errs, "gemini.textmodel must not be empty")
	}
	if s.Gemini.Timeout <= 0 {
		errs = append(errs, "gemini.timeout must be positive")
	}
	if s.Gemini.BaseURL != "" {
		if u, err := url.Parse(s.Gemini.BaseURL); err != nil || u.Host == "" {
			errs = append(errs, "gemini.baseurl must be an absolute URL")
		}
	}

	return joinErrs(errs)
}

func validateRecommendSettings(s *Settings) error {
	if s.Recommend.MaxAttempts < 1 {
		return fmt.Errorf("recommend.maxattempts must be at least 1")
	}
	return nil
}

func validateSentrySettings(s *Settings) error {
	if s.Sentry.Enabled && s.Sentry.DSN == "" {
		return fmt.Errorf("sentry.dsn is required when sentry is enabled")
	}
	return nil
}

func joinErrs(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(errs, "; "))
}
