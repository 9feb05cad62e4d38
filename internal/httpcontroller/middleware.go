package httpcontroller

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tphakala/soilplanner/internal/logger"
)

// configureMiddleware sets up middleware for the server.
func (s *Server) configureMiddleware() {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(s.RequestIDMiddleware())
	s.Echo.Use(s.RequestLoggerMiddleware())
	s.Echo.Use(s.CacheControlMiddleware())
	s.Echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))
}

// RequestIDMiddleware assigns each request an ID, echoes it in X-Request-ID
// and puts it on the request context so module loggers pick it up as trace_id.
func (s *Server) RequestIDMiddleware() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, requestID string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), requestID)))
		},
	})
}

// RequestLoggerMiddleware logs every request and records HTTP metrics
func (s *Server) RequestLoggerMiddleware() echo.MiddlewareFunc {
	reqLog := s.log.Module("requests")

	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:       true,
		LogURIPath:      true,
		LogRoutePath:    true,
		LogStatus:       true,
		LogLatency:      true,
		LogRemoteIP:     true,
		LogError:        true,
		LogResponseSize: true,
		HandleError:     true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("path", v.URIPath),
				logger.Int("status", v.Status),
				logger.Duration("latency", v.Latency),
				logger.String("remote_ip", v.RemoteIP),
			}
			log := reqLog.WithContext(c.Request().Context())
			if v.Error != nil {
				log.Warn("Request failed", append(fields, logger.Error(v.Error))...)
			} else {
				log.Info("Request handled", fields...)
			}

			if s.metrics != nil {
				route := v.RoutePath
				if route == "" {
					route = "unmatched"
				}
				s.metrics.HTTP.RecordHTTPRequest(v.Method, route, v.Status, v.Latency, v.ResponseSize)
			}
			return nil
		},
	})
}

// CacheControlMiddleware sets cache headers; pages carry per-request
// results and are never cached
func (s *Server) CacheControlMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			switch {
			case strings.HasSuffix(path, ".css"), strings.HasSuffix(path, ".ico"), strings.HasSuffix(path, ".svg"):
				c.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
			default:
				c.Response().Header().Set("Cache-Control", "no-store")
			}
			return next(c)
		}
	}
}

// uploadBodyLimit caps the /upload request body at webserver.maxuploadmb
func (s *Server) uploadBodyLimit() echo.MiddlewareFunc {
	limit := s.Settings.MaxUploadBytes()
	if limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.BodyLimit(strconv.FormatInt(limit, 10) + "B")
}
