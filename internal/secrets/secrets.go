// Package secrets resolves credentials such as the Gemini API key from
// environment variables, ${VAR} references in config values, and mounted
// secret files (Docker/Kubernetes secrets). Secret values are never logged.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tphakala/soilplanner/internal/errors"
	"github.com/tphakala/soilplanner/internal/logger"
)

const (
	// maxSecretFileSize limits secret file reads; API keys are tiny
	maxSecretFileSize = 64 * 1024

	// groupOtherPerms are permission bits that make a secret file readable by others
	groupOtherPerms = 0o077
)

// Resolver reads secrets and reports permissive secret files through log.
type Resolver struct {
	log    logger.Logger
	getenv func(string) string
}

// NewResolver creates a Resolver. A nil logger discards warnings.
func NewResolver(log logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	return &Resolver{log: log.Module("secrets"), getenv: os.Getenv}
}

// ExpandString resolves ${VAR} and ${VAR:-default} references in s.
// A reference without a fallback to an unset variable is an error.
func (r *Resolver) ExpandString(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var missingVars []string

	expanded := os.Expand(s, func(key string) string {
		varName, defaultValue, hasFallback := strings.Cut(key, ":-")

		if value := r.getenv(varName); value != "" {
			return value
		}
		if hasFallback {
			return defaultValue
		}
		missingVars = append(missingVars, varName)
		return ""
	})

	if len(missingVars) > 0 {
		return "", errors.Newf("missing required environment variable(s): %s", strings.Join(missingVars, ", ")).
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return expanded, nil
}

// ReadFile reads a secret from path, trimming trailing newlines only.
func (r *Resolver) ReadFile(path string) (string, error) {
	if path == "" {
		return "", secretFileError(fmt.Errorf("secret file path is empty"), "")
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", secretFileError(fmt.Errorf("secret file not found: %s", cleanPath), cleanPath)
		}
		return "", secretFileError(fmt.Errorf("failed to stat secret file %s: %w", cleanPath, err), cleanPath)
	}

	if !info.Mode().IsRegular() {
		return "", secretFileError(fmt.Errorf("secret path is not a regular file: %s", cleanPath), cleanPath)
	}

	if info.Size() > maxSecretFileSize {
		return "", secretFileError(fmt.Errorf("secret file too large (max %d bytes): %s", maxSecretFileSize, cleanPath), cleanPath)
	}

	if perm := info.Mode().Perm(); perm&groupOtherPerms != 0 {
		r.log.Warn("Secret file is readable by group or others",
			logger.String("path", cleanPath),
			logger.String("perms", fmt.Sprintf("%04o", perm)))
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", secretFileError(fmt.Errorf("failed to read secret file %s: %w", cleanPath, err), cleanPath)
	}

	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", secretFileError(fmt.Errorf("secret file is empty: %s", cleanPath), cleanPath)
	}

	return secret, nil
}

// Resolve picks the secret from, in order: filePath, value (with ${VAR}
// expansion), then the first non-empty environment variable in envVars.
// An empty result with a nil error means no source was configured.
func (r *Resolver) Resolve(filePath, value string, envVars ...string) (string, error) {
	if filePath != "" {
		return r.ReadFile(filePath)
	}

	if value != "" {
		return r.ExpandString(value)
	}

	for _, name := range envVars {
		if v := r.getenv(name); v != "" {
			return v, nil
		}
	}

	return "", nil
}

// MustResolve is like Resolve but fails when no source yields a value.
func (r *Resolver) MustResolve(fieldName, filePath, value string, envVars ...string) (string, error) {
	secret, err := r.Resolve(filePath, value, envVars...)
	if err != nil {
		return "", err
	}

	if secret == "" {
		return "", errors.Newf("%s is required but not provided", fieldName).
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Context("env_vars", strings.Join(envVars, ",")).
			Build()
	}

	return secret, nil
}

func secretFileError(err error, path string) error {
	return errors.New(err).
		Component("secrets").
		Category(errors.CategoryFileIO).
		FileContext(path, 0).
		Build()
}
