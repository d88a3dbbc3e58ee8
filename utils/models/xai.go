package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/eidosai/eidos/utils/prompt"
	openai "github.com/sashabaranov/go-openai"
)

// XAIBaseURL is the OpenAI compatible endpoint of the X.AI API
const XAIBaseURL = "https://api.x.ai/v1"

// XAIProvider handles X.AI image models. The images endpoint speaks the OpenAI protocol.
type XAIProvider struct {
	images  *OpenAIProvider
	verbose bool
}

// NewXAIProvider creates a new X.AI provider instance
func NewXAIProvider() *XAIProvider {
	images := NewOpenAIProvider()
	images.SetBaseURL(XAIBaseURL)
	return &XAIProvider{images: images}
}

// Name returns the provider name
func (x *XAIProvider) Name() string {
	return "xai"
}

// debugf prints debug information if verbose mode is enabled
func (x *XAIProvider) debugf(format string, args ...interface{}) {
	if x.verbose {
		fmt.Printf("[DEBUG][XAI] "+format+"\n", args...)
	}
}

// SupportsModel checks if the given model name is an X.AI image model
func (x *XAIProvider) SupportsModel(modelName string) bool {
	supported := strings.HasPrefix(strings.ToLower(modelName), "grok-") &&
		strings.Contains(strings.ToLower(modelName), "image")
	x.debugf("Model %s supported: %v", modelName, supported)
	return supported
}

// Configure sets up the provider with necessary credentials
func (x *XAIProvider) Configure(apiKey string) error {
	x.debugf("Configuring X.AI provider")
	if apiKey == "" {
		return fmt.Errorf("API key is required for X.AI provider")
	}
	x.images.apiKey = apiKey
	return nil
}

// SetBaseURL overrides the X.AI endpoint
func (x *XAIProvider) SetBaseURL(baseURL string) {
	x.images.SetBaseURL(baseURL)
}

// SetVerbose enables or disables verbose mode
func (x *XAIProvider) SetVerbose(verbose bool) {
	x.verbose = verbose
}

// GenerateImage asks the X.AI images endpoint for a single image. Reference images are not supported.
func (x *XAIProvider) GenerateImage(ctx context.Context, modelName string, text string, refs []prompt.ImageData) (*prompt.ImageData, error) {
	if x.images.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if !x.SupportsModel(modelName) {
		return nil, fmt.Errorf("invalid X.AI model: %s", modelName)
	}
	if len(refs) > 0 {
		x.debugf("Ignoring %d reference images", len(refs))
	}

	// X.AI rejects the size parameter
	req := openai.ImageRequest{
		Prompt:         text,
		Model:          modelName,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	}
	x.debugf("Sending %d character prompt to %s", len(text), modelName)
	resp, err := x.images.client().CreateImage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("X.AI API error: %w", err)
	}
	return decodeImageResponse(resp)
}
