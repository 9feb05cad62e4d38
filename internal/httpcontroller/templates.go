package httpcontroller

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/soilplanner/internal/errors"
	"github.com/tphakala/soilplanner/internal/logger"
	"github.com/tphakala/soilplanner/internal/observability"
	"github.com/tphakala/soilplanner/internal/pipeline"
)

//go:embed views/*.html
var ViewsFs embed.FS

// PageData represents data for rendering a page.
type PageData struct {
	Title       string           // The title of the page
	MaxUploadMB int              // Shown next to the file input
	Result      *pipeline.Result // Set on the results page only
}

// TemplateRenderer is a custom HTML template renderer for Echo framework.
type TemplateRenderer struct {
	templates *template.Template
	log       logger.Logger
	metrics   *observability.Metrics
}

// Render renders a template with the given data.
func (t *TemplateRenderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	start := time.Now()

	// Buffer so a failing template never sends a partial page
	var buf bytes.Buffer
	err := t.templates.ExecuteTemplate(&buf, name, data)
	if t.metrics != nil {
		t.metrics.HTTP.RecordTemplateRender(name, time.Since(start), err)
	}
	if err != nil {
		t.log.WithContext(c.Request().Context()).Error("Error executing template",
			logger.String("template", name),
			logger.Error(err))
		return err
	}

	_, err = buf.WriteTo(w)
	return err
}

// setupTemplateRenderer configures the template renderer for the server
func (s *Server) setupTemplateRenderer() error {
	tmpl, err := template.New("").Funcs(GetTemplateFunctions()).ParseFS(ViewsFs, "views/*.html")
	if err != nil {
		return errors.New(err).
			Component("web").
			Category(errors.CategoryConfiguration).
			Context("operation", "parse_templates").
			Build()
	}

	s.Echo.Renderer = &TemplateRenderer{
		templates: tmpl,
		log:       s.log.Module("templates"),
		metrics:   s.metrics,
	}
	return nil
}
