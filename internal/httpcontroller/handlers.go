package httpcontroller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/soilplanner/internal/errors"
	"github.com/tphakala/soilplanner/internal/logger"
	"github.com/tphakala/soilplanner/internal/observability/metrics"
	"github.com/tphakala/soilplanner/internal/pipeline"
)

// handleUploadForm renders the upload page
func (s *Server) handleUploadForm(c echo.Context) error {
	return c.Render(http.StatusOK, "upload.html", s.pageData(nil))
}

// handleHealthz is the liveness probe
func (s *Server) handleHealthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// handleUpload stores the image for the duration of the request, reads it
// back once, runs the
// pipeline and renders the results. A missing file redirects back to the
// form; a geolocation failure is reported as plain text.
func (s *Server) handleUpload(c echo.Context) error {
	log := s.log.WithContext(c.Request().Context())

	fh, err := c.FormFile("file")
	if err != nil || fh.Filename == "" {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	start := time.Now()
	src, err := fh.Open()
	if err != nil {
		s.recordStage(metrics.StageIntake, metrics.OutcomeError, start)
		return s.uploadFailed(c, err)
	}
	upload, err := s.store.Save(src, fh.Filename, fh.Header.Get(echo.HeaderContentType))
	_ = src.Close()
	if err != nil {
		s.recordStage(metrics.StageIntake, metrics.OutcomeError, start)
		return s.uploadFailed(c, err)
	}
	defer upload.Release()

	data, err := s.store.Open(upload.Name)
	if err != nil {
		s.recordStage(metrics.StageIntake, metrics.OutcomeError, start)
		return s.uploadFailed(c, err)
	}
	s.recordStage(metrics.StageIntake, metrics.OutcomeSuccess, start)

	log.Debug("Upload received",
		logger.String("name", upload.Name),
		logger.String("mime_type", upload.MIMEType),
		logger.Int64("size", upload.Size))

	result, err := s.pipeline.Run(c.Request().Context(), pipeline.Image{Data: data, MIMEType: upload.MIMEType})
	if err != nil {
		var locErr *pipeline.LocationError
		if errors.As(err, &locErr) {
			return c.String(http.StatusOK, locErr.Error())
		}
		log.Error("Pipeline failed", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not process the upload").SetInternal(err)
	}

	start = time.Now()
	err = c.Render(http.StatusOK, "results.html", s.pageData(result))
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	s.recordStage(metrics.StageRender, outcome, start)
	return err
}

func (s *Server) pageData(result *pipeline.Result) PageData {
	title := s.Settings.Main.Name
	if title == "" {
		title = "Soil Planner"
	}
	return PageData{
		Title:       title,
		MaxUploadMB: s.Settings.WebServer.MaxUploadMB,
		Result:      result,
	}
}

func (s *Server) uploadFailed(c echo.Context, err error) error {
	if errors.IsCategory(err, errors.CategoryLimit) {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Upload is too large").SetInternal(err)
	}
	s.log.WithContext(c.Request().Context()).Error("Failed to store upload", logger.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, "Could not store the upload").SetInternal(err)
}

func (s *Server) recordStage(stage, outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.Pipeline.RecordStage(stage, outcome, time.Since(start))
	}
}
