package httpcontroller

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tphakala/soilplanner/internal/conf"
	"github.com/tphakala/soilplanner/internal/geolocation"
	"github.com/tphakala/soilplanner/internal/logger"
	"github.com/tphakala/soilplanner/internal/observability"
	"github.com/tphakala/soilplanner/internal/pipeline"
	"github.com/tphakala/soilplanner/internal/recommend"
	"github.com/tphakala/soilplanner/internal/season"
	"github.com/tphakala/soilplanner/internal/uploads"
)

// fakeRunner records what the handler passed and returns a canned result
type fakeRunner struct {
	mu      sync.Mutex
	result  *pipeline.Result
	err     error
	images  []pipeline.Image
	onDisk  []int // files in the upload dir while Run executes
	stored  [][]byte
	store   *uploads.Store
	traceID bool
}

func (f *fakeRunner) Run(ctx context.Context, img pipeline.Image) (*pipeline.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append(f.images, img)
	if f.store != nil {
		f.onDisk = append(f.onDisk, countFiles(f.store.Dir()))
		f.stored = append(f.stored, storedFiles(f.store.Dir())...)
	}
	f.traceID = ctx.Value(logger.TraceIDKey) != nil
	return f.result, f.err
}

// storedFiles returns the contents of every file in dir
func storedFiles(dir string) [][]byte {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out [][]byte
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err == nil {
			out = append(out, data)
		}
	}
	return out
}

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		Location: geolocation.Location{Latitude: 40, Longitude: -73, City: "X", Region: "Y", Country: "Z"},
		Date:     time.Date(2024, time.April, 2, 10, 0, 0, 0, time.UTC),
		Season:   season.Spring,
		SoilType: "sandy loam",
		Plants: []recommend.Plant{
			{Name: "Oak", ScientificName: "Quercus robur", CarbonAbsorptionRate: "22 metric tons per hectare per year"},
			{Name: "Bamboo", ScientificName: "Bambusoideae", CarbonAbsorptionRate: "12 tons per hectare per year"},
		},
	}
}

func newTestServer(t *testing.T, runner *fakeRunner, mutate ...func(*conf.Settings)) (*Server, *uploads.Store, *observability.Metrics) {
	t.Helper()

	settings := &conf.Settings{}
	settings.Main.Name = "Soil Planner"
	settings.WebServer.MaxUploadMB = 1
	settings.Metrics.Enabled = true
	for _, m := range mutate {
		m(settings)
	}

	store, err := uploads.NewStore(t.TempDir(), 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	runner.store = store

	m, err := observability.NewMetrics()
	require.NoError(t, err)

	s, err := New(settings, runner, store, m, logger.NewDiscardLogger())
	require.NoError(t, err)
	return s, store, m
}

// multipartBody builds a form with one file field
func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if field != "" {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
		if contentType != "" {
			h["Content-Type"] = []string{contentType}
		}
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("note", "no file here"))
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func postUpload(t *testing.T, s *Server, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}
