package testutil

import (
	"encoding/json"
	"net/http"

	"github.com/jarcoal/httpmock"
)

// GeminiTextResponder answers a generateContent call with a single text
// candidate, in the REST shape the genai SDK decodes.
func GeminiTextResponder(text string) httpmock.Responder {
	body, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	})
	return func(*http.Request) (*http.Response, error) {
		resp := httpmock.NewBytesResponse(http.StatusOK, body)
		resp.Header.Set("Content-Type", "application/json")
		return resp, nil
	}
}
