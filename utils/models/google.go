package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/eidosai/eidos/utils/prompt"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GoogleProvider handles Google AI (Gemini) image capable models
type GoogleProvider struct {
	apiKey  string
	config  ModelConfig
	verbose bool
	opts    []option.ClientOption
}

// NewGoogleProvider creates a new Google provider instance
func NewGoogleProvider() *GoogleProvider {
	return &GoogleProvider{
		config: ModelConfig{
			Temperature: 1.0,
			TopP:        0.95,
		},
	}
}

// Name returns the provider name
func (g *GoogleProvider) Name() string {
	return "google"
}

// debugf prints debug information if verbose mode is enabled
func (g *GoogleProvider) debugf(format string, args ...interface{}) {
	if g.verbose {
		fmt.Printf("[DEBUG][Google] "+format+"\n", args...)
	}
}

// SupportsModel checks if the given model name is supported by Google
func (g *GoogleProvider) SupportsModel(modelName string) bool {
	g.debugf("Validating model: %s", modelName)
	supported := strings.HasPrefix(strings.ToLower(modelName), "gemini-")
	if !supported {
		g.debugf("Model %s validation failed - not a Gemini model", modelName)
	}
	return supported
}

// Configure sets up the provider with necessary credentials
func (g *GoogleProvider) Configure(apiKey string) error {
	g.debugf("Configuring Google provider")
	if apiKey == "" {
		return fmt.Errorf("API key is required for Google provider")
	}
	g.apiKey = apiKey
	g.debugf("API key configured successfully")
	return nil
}

// WithClientOptions appends client options, e.g. a custom endpoint
func (g *GoogleProvider) WithClientOptions(opts ...option.ClientOption) *GoogleProvider {
	g.opts = append(g.opts, opts...)
	return g
}

// GenerateImage sends the prompt and any reference images to Gemini and returns the first image part
func (g *GoogleProvider) GenerateImage(ctx context.Context, modelName string, text string, refs []prompt.ImageData) (*prompt.ImageData, error) {
	g.debugf("Preparing to send prompt to model: %s", modelName)
	g.debugf("Prompt length: %d characters, reference images: %d", len(text), len(refs))

	if g.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if !g.SupportsModel(modelName) {
		return nil, fmt.Errorf("invalid Google model: %s", modelName)
	}

	opts := append([]option.ClientOption{option.WithAPIKey(g.apiKey)}, g.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google AI client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)
	model.SetTemperature(float32(g.config.Temperature))
	model.SetTopP(float32(g.config.TopP))

	parts := []genai.Part{genai.Text(text)}
	for _, ref := range refs {
		parts = append(parts, genai.Blob{
			MIMEType: ref.MIMEType,
			Data:     ref.Data,
		})
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("Google AI API error: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no response candidates returned from Google AI: %w", ErrNoImage)
	}

	image, commentary := extractImage(resp.Candidates)
	if commentary != "" {
		g.debugf("Model commentary: %s", truncate(commentary, 200))
	}
	if image == nil {
		return nil, ErrNoImage
	}

	g.debugf("API call completed, image %s (%d bytes)", image.MIMEType, len(image.Data))
	return image, nil
}

// extractImage returns the first inline image of the candidates and any text alongside it
func extractImage(candidates []*genai.Candidate) (*prompt.ImageData, string) {
	var text strings.Builder
	for _, candidate := range candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			switch p := part.(type) {
			case genai.Blob:
				if strings.HasPrefix(p.MIMEType, "image/") && len(p.Data) > 0 {
					return &prompt.ImageData{MIMEType: p.MIMEType, Data: p.Data}, text.String()
				}
			case *genai.Blob:
				if p != nil && strings.HasPrefix(p.MIMEType, "image/") && len(p.Data) > 0 {
					return &prompt.ImageData{MIMEType: p.MIMEType, Data: p.Data}, text.String()
				}
			case genai.Text:
				text.WriteString(string(p))
			}
		}
	}
	return nil, text.String()
}

// SetVerbose enables or disables verbose mode
func (g *GoogleProvider) SetVerbose(verbose bool) {
	g.verbose = verbose
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
