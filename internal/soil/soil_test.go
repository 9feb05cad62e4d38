package soil

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/tphakala/soilplanner/internal/logger"
)

type capturingGenerator struct {
	resp     *genai.GenerateContentResponse
	err      error
	model    string
	contents []*genai.Content
	deadline bool
}

func (g *capturingGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	g.model = model
	g.contents = contents
	_, g.deadline = ctx.Deadline()
	return g.resp, g.err
}

func withText(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
	}}}
}

func TestClassify_SendsPromptAndImage(t *testing.T) {
	t.Parallel()

	gen := &capturingGenerator{resp: withText(" Sandy loam\n")}
	c := NewClassifier(gen, "gemini-1.5-flash", time.Minute, nil)

	image := []byte{0xff, 0xd8, 0xff}
	got := c.Classify(t.Context(), image, "image/png")

	assert.Equal(t, "Sandy loam", got)
	assert.Equal(t, "gemini-1.5-flash", gen.model)
	assert.True(t, gen.deadline, "classification call should carry a deadline")

	require.Len(t, gen.contents, 1)
	parts := gen.contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, Prompt, parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
	assert.Equal(t, image, parts[1].InlineData.Data)
}

func TestClassify_DefaultMIMEType(t *testing.T) {
	t.Parallel()

	gen := &capturingGenerator{resp: withText("Clay")}
	NewClassifier(gen, "m", 0, nil).Classify(t.Context(), []byte("x"), "")

	assert.Equal(t, DefaultMIMEType, gen.contents[0].Parts[1].InlineData.MIMEType)
	assert.False(t, gen.deadline)
}

func TestClassify_FallsBackToUnknown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		gen  *capturingGenerator
	}{
		{"model error", &capturingGenerator{err: assert.AnError}},
		{"nil response", &capturingGenerator{}},
		{"no candidates", &capturingGenerator{resp: &genai.GenerateContentResponse{}}},
		{"no parts", &capturingGenerator{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}}}},
		{"empty text", &capturingGenerator{resp: withText("   ")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			c := NewClassifier(tt.gen, "m", time.Second, logger.NewTestLogger(&buf, logger.LogLevelDebug))

			assert.Equal(t, Unknown, c.Classify(t.Context(), []byte("img"), DefaultMIMEType))
			assert.Contains(t, buf.String(), "Soil classification unavailable")
		})
	}
}
