package highlights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-3-flash-preview"

// GeminiGenerator sends prompts to the Gemini API with a JSON response
// schema describing the highlight list.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiGenerator{client: client, model: model, timeout: timeout}, nil
}

// ResponseSchema is the structured-output contract: an array of objects
// with four required string fields.
func ResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"startTime":   {Type: genai.TypeString, Description: "Format MM:SS"},
				"endTime":     {Type: genai.TypeString, Description: "Format MM:SS"},
				"label":       {Type: genai.TypeString},
				"description": {Type: genai.TypeString},
			},
			Required: []string{"startTime", "endTime", "label", "description"},
		},
	}
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   ResponseSchema(),
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty response from %s", g.model)
	}
	return text, nil
}

func (g *GeminiGenerator) Model() string {
	return g.model
}
