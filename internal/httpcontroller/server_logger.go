package httpcontroller

import (
	"strings"

	gommonlog "github.com/labstack/gommon/log"

	"github.com/tphakala/soilplanner/internal/logger"
)

// echoLogAdapter adapts our Logger to implement io.Writer for Echo
type echoLogAdapter struct {
	logger logger.Logger
}

// Write implements io.Writer for echoLogAdapter
func (a *echoLogAdapter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		a.logger.Info(msg)
	}
	return len(p), nil
}

// initLogger routes echo's own log output through the structured logger.
// Request logging is done by RequestLoggerMiddleware.
func (s *Server) initLogger() {
	s.Echo.Logger.SetOutput(&echoLogAdapter{logger: s.log.Module("echo")})
	s.Echo.Logger.SetHeader("${level} ${short_file}:${line}")

	if s.Settings.WebServer.Debug {
		s.Echo.Debug = true
		s.Echo.Logger.SetLevel(gommonlog.DEBUG)
		return
	}
	s.Echo.Logger.SetLevel(gommonlog.WARN)
}
