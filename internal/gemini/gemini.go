// Package gemini wraps the Google Gen AI SDK client used by the soil
// classifier and the recommendation generator.
package gemini

import (
	"context"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/tphakala/soilplanner/internal/errors"
	"github.com/tphakala/soilplanner/internal/httpclient"
)

// Generator is the single SDK call the pipeline needs. *genai.Models
// satisfies it; tests substitute fakes.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Observer receives one record per model call; implemented by the metrics package.
type Observer interface {
	RecordModelCall(model, outcome string, duration time.Duration)
}

// Config holds what is needed to reach the Gemini API
type Config struct {
	APIKey  string
	BaseURL string // empty for the SDK default
}

// NewGenerator creates a Gemini API client whose traffic goes through hc.
func NewGenerator(ctx context.Context, cfg Config, hc *httpclient.Client) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.Newf("gemini api key is not configured").
			Component("gemini").
			Category(errors.CategoryConfiguration).
			Context("hint", "set SOILPLANNER_GEMINI_APIKEY or gemini.apikeyfile").
			Build()
	}
	if hc == nil {
		hc = httpclient.New(nil)
	}

	config := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc.HTTPClient(),
	}
	if cfg.BaseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, errors.New(err).
			Component("gemini").
			Category(errors.CategoryConfiguration).
			Context("operation", "create_client").
			Build()
	}
	return client.Models, nil
}

// Instrument wraps g so every call is timed, reported to obs and, on
// failure, returned as a categorised model error.
func Instrument(g Generator, obs Observer) Generator {
	return &instrumented{next: g, obs: obs}
}

type instrumented struct {
	next Generator
	obs  Observer
}

func (i *instrumented) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	start := time.Now()
	resp, err := i.next.GenerateContent(ctx, model, contents, config)
	elapsed := time.Since(start)

	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case !HasText(resp):
		outcome = "empty"
	}
	if i.obs != nil {
		i.obs.RecordModelCall(model, outcome, elapsed)
	}

	if err != nil {
		return nil, errors.New(err).
			Component("gemini").
			Category(errors.CategoryModel).
			Context("model", model).
			Timing("generate_content", elapsed).
			Build()
	}
	return resp, nil
}

// FirstText returns the trimmed text of the first part of the first
// candidate. ok is false when there is no candidate, no part or no text.
func FirstText(resp *genai.GenerateContentResponse) (text string, ok bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0] == nil {
		return "", false
	}
	text = strings.TrimSpace(content.Parts[0].Text)
	return text, text != ""
}

// HasText reports whether FirstText would succeed
func HasText(resp *genai.GenerateContentResponse) bool {
	_, ok := FirstText(resp)
	return ok
}

// UserContent builds a single user turn from parts
func UserContent(parts ...*genai.Part) []*genai.Content {
	return []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
}
