package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	for _, name := range GeminiAPIKeyEnvVars {
		t.Setenv(name, "")
	}
}

func TestLoadEmbeddedDefaults(t *testing.T) {
	resetViper(t)

	settings, err := Load(writeConfig(t, string(getDefaultConfig())))
	require.NoError(t, err)

	assert.Equal(t, "8080", settings.WebServer.Port)
	assert.Equal(t, DefaultMaxUploadMB, settings.WebServer.MaxUploadMB)
	assert.Equal(t, DefaultUploadDir, settings.Uploads.Dir)
	assert.Equal(t, DefaultGeolocationEndpoint, settings.Geolocation.Endpoint)
	assert.Equal(t, 10*time.Second, settings.Geolocation.Timeout)
	assert.Equal(t, time.Duration(0), settings.Geolocation.CacheTTL)
	assert.Equal(t, 45, settings.Geolocation.RateLimit)
	assert.Equal(t, DefaultImageModel, settings.Gemini.ImageModel)
	assert.Equal(t, DefaultTextModel, settings.Gemini.TextModel)
	assert.Equal(t, DefaultMaxAttempts, settings.Recommend.MaxAttempts)
	assert.Empty(t, settings.Gemini.APIKey, "no key ships in the default config")
	assert.Equal(t, "info", settings.Logging.DefaultLevel)
	require.NotNil(t, settings.Logging.FileOutput)
	assert.Equal(t, 10, settings.Logging.FileOutput.MaxRotatedFiles)
	assert.Same(t, settings, GetSettings())
}

func TestLoadPartialFileFallsBackToDefaults(t *testing.T) {
	resetViper(t)

	settings, err := Load(writeConfig(t, "webserver:\n  port: \"9090\"\nrecommend:\n  maxattempts: 3\n"))
	require.NoError(t, err)

	assert.Equal(t, "9090", settings.WebServer.Port)
	assert.Equal(t, 3, settings.Recommend.MaxAttempts)
	assert.Equal(t, DefaultTextModel, settings.Gemini.TextModel)
	assert.Equal(t, ":9090", settings.ListenAddress())
	assert.Equal(t, int64(10*1024*1024), settings.MaxUploadBytes())
}

func TestGeminiKeyFromEnvironment(t *testing.T) {
	resetViper(t)
	t.Setenv("GEMINI_API_KEY", "fallback-key")

	settings, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, "fallback-key", settings.Gemini.APIKey)

	viper.Reset()
	t.Setenv("SOILPLANNER_GEMINI_APIKEY", "primary-key")

	settings, err = Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, "primary-key", settings.Gemini.APIKey)
}

func TestGeminiKeyFromSecretFileAndReference(t *testing.T) {
	resetViper(t)

	keyFile := filepath.Join(t.TempDir(), "gemini_key")
	require.NoError(t, os.WriteFile(keyFile, []byte("file-key\n"), 0o600))

	settings, err := Load(writeConfig(t, "gemini:\n  apikeyfile: "+keyFile+"\n"))
	require.NoError(t, err)
	assert.Equal(t, "file-key", settings.Gemini.APIKey)

	viper.Reset()
	t.Setenv("MY_GEMINI_KEY", "referenced-key")
	settings, err = Load(writeConfig(t, "gemini:\n  apikey: ${MY_GEMINI_KEY}\n"))
	require.NoError(t, err)
	assert.Equal(t, "referenced-key", settings.Gemini.APIKey)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	resetViper(t)

	_, err := Load(writeConfig(t, "webserver:\n  port: \"0\"\nrecommend:\n  maxattempts: 0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webserver.port")
	assert.Contains(t, err.Error(), "recommend.maxattempts")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	resetViper(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	valid := func() *Settings {
		s := &Settings{}
		s.WebServer.Port = "8080"
		s.WebServer.MaxUploadMB = 10
		s.Uploads.Dir = "uploads"
		s.Geolocation.Endpoint = DefaultGeolocationEndpoint
		s.Geolocation.Timeout = time.Second
		s.Gemini.ImageModel = DefaultImageModel
		s.Gemini.TextModel = DefaultTextModel
		s.Gemini.Timeout = time.Second
		s.Recommend.MaxAttempts = 1
		return s
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"valid", func(*Settings) {}, ""},
		{"relative endpoint", func(s *Settings) { s.Geolocation.Endpoint = "/json" }, "geolocation.endpoint"},
		{"negative ttl", func(s *Settings) { s.Geolocation.CacheTTL = -time.Second }, "geolocation.cachettl"},
		{"empty upload dir", func(s *Settings) { s.Uploads.Dir = " " }, "uploads.dir"},
		{"empty text model", func(s *Settings) { s.Gemini.TextModel = "" }, "gemini.textmodel"},
		{"sentry without dsn", func(s *Settings) { s.Sentry.Enabled = true }, "sentry.dsn"},
		{"tiny upload limit", func(s *Settings) { s.WebServer.MaxUploadMB = 0 }, "maxuploadmb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := valid()
			tt.mutate(s)
			err := ValidateSettings(s)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDumpYAMLRedactsSecrets(t *testing.T) {
	t.Parallel()

	s := &Settings{}
	s.Gemini.APIKey = "AIzaSuperSecret"
	s.Sentry.DSN = "https://public@sentry.example/1"
	s.Gemini.TextModel = DefaultTextModel

	out, err := s.DumpYAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "AIzaSuperSecret")
	assert.NotContains(t, string(out), "sentry.example")
	assert.Contains(t, string(out), "[REDACTED]")
	assert.Contains(t, string(out), DefaultTextModel)
	assert.Equal(t, "AIzaSuperSecret", s.Gemini.APIKey, "dump must not modify the original")
}

func TestWriteDefaultConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, getDefaultConfig(), data)

	require.Error(t, WriteDefaultConfig(path), "existing file is never overwritten")
}

func TestEnvValidators(t *testing.T) {
	t.Parallel()

	require.NoError(t, validateEnvPort("8080"))
	require.Error(t, validateEnvPort("70000"))
	require.NoError(t, validateEnvDuration("15s"))
	require.Error(t, validateEnvDuration("-1s"))
	require.NoError(t, validateEnvURL("https://ip-api.com/json/"))
	require.Error(t, validateEnvURL("ip-api.com"))
	require.NoError(t, validateEnvLogLevel("DEBUG"))
	require.Error(t, validateEnvLogLevel("verbose"))
	require.NoError(t, validateEnvBool("true"))
	require.Error(t, validateEnvBool("yes please"))
	require.NoError(t, validateEnvPositiveInt("2"))
	require.Error(t, validateEnvPositiveInt("0"))
}
