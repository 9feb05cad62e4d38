// Package soil asks the image model for a short soil type label.
package soil

import (
	"context"
	"time"

	"google.golang.org/genai"

	"github.com/tphakala/soilplanner/internal/gemini"
	"github.com/tphakala/soilplanner/internal/logger"
)

const (
	// Unknown is returned whenever the model gives no usable answer
	Unknown = "Unknown"

	// DefaultMIMEType is used when the caller does not know the image type
	DefaultMIMEType = "image/jpeg"

	// Prompt asks for a one or two word label and warns about poor photos.
	Prompt = "What is the kind of this soil? I need the basic type based on the picture you have. " +
		"Give one or two words as a response to describe the soil in the picture. " +
		"Take care: the images will be taken from a camera or any other source and may not be good at all and hard to identify. " +
		"Even so, respond in at most two words to identify the soil."
)

// Classifier labels soil images. Safe for concurrent use.
type Classifier struct {
	gen     gemini.Generator
	model   string
	timeout time.Duration
	log     logger.Logger
}

// NewClassifier creates a Classifier for model. A zero timeout leaves the
// deadline to the caller's context.
func NewClassifier(gen gemini.Generator, model string, timeout time.Duration, log logger.Logger) *Classifier {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	return &Classifier{
		gen:     gen,
		model:   model,
		timeout: timeout,
		log:     log.Module("soil"),
	}
}

// Classify returns the trimmed first text part of the model's first
// candidate, or Unknown. Failures are logged, never returned.
func (c *Classifier) Classify(ctx context.Context, image []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	log := c.log.WithContext(ctx)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := gemini.UserContent(
		&genai.Part{Text: Prompt},
		&genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
	)

	resp, err := c.gen.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{})
	if err != nil {
		log.Warn("Soil classification unavailable",
			logger.String("model", c.model),
			logger.Error(err))
		return Unknown
	}

	label, ok := gemini.FirstText(resp)
	if !ok {
		log.Warn("Soil classification unavailable",
			logger.String("model", c.model),
			logger.String("reason", "no candidate text"))
		return Unknown
	}

	log.Debug("Soil classified", logger.String("soil_type", label))
	return label
}
