package models

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/eidosai/eidos/utils/prompt"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider handles OpenAI image models
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	config  ModelConfig
	verbose bool
}

// NewOpenAIProvider creates a new OpenAI provider instance
func NewOpenAIProvider() *OpenAIProvider {
	return &OpenAIProvider{
		config: ModelConfig{
			ImageSize: openai.CreateImageSize1024x1024,
		},
	}
}

// Name returns the provider name
func (o *OpenAIProvider) Name() string {
	return "openai"
}

// debugf prints debug information if verbose mode is enabled
func (o *OpenAIProvider) debugf(format string, args ...interface{}) {
	if o.verbose {
		fmt.Printf("[DEBUG][OpenAI] "+format+"\n", args...)
	}
}

// SupportsModel checks if the given model name is an OpenAI image model
func (o *OpenAIProvider) SupportsModel(modelName string) bool {
	o.debugf("Checking if model is supported: %s", modelName)
	modelName = strings.ToLower(modelName)

	validPrefixes := []string{
		"dall-e-",
		"gpt-image-",
	}

	for _, prefix := range validPrefixes {
		if strings.HasPrefix(modelName, prefix) {
			o.debugf("Model %s is supported (matches prefix %s)", modelName, prefix)
			return true
		}
	}

	o.debugf("Model %s is not supported (no matching prefix)", modelName)
	return false
}

// Configure sets up the provider with necessary credentials
func (o *OpenAIProvider) Configure(apiKey string) error {
	o.debugf("Configuring OpenAI provider")
	if apiKey == "" {
		return fmt.Errorf("API key is required for OpenAI provider")
	}
	o.apiKey = apiKey
	o.debugf("API key configured successfully")
	return nil
}

// SetBaseURL points the client at an OpenAI compatible endpoint
func (o *OpenAIProvider) SetBaseURL(baseURL string) {
	o.baseURL = baseURL
}

func (o *OpenAIProvider) client() *openai.Client {
	cfg := openai.DefaultConfig(o.apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// createImageRequest creates an ImageRequest with parameters suited to the model
func (o *OpenAIProvider) createImageRequest(modelName, text string) openai.ImageRequest {
	req := openai.ImageRequest{
		Prompt: text,
		Model:  modelName,
		N:      1,
		Size:   o.config.ImageSize,
	}
	// gpt-image models always answer with base64 and reject the parameter
	if !strings.HasPrefix(strings.ToLower(modelName), "gpt-image-") {
		req.ResponseFormat = openai.CreateImageResponseFormatB64JSON
	}
	return req
}

// GenerateImage asks the images endpoint for a single image. Reference images are not supported.
func (o *OpenAIProvider) GenerateImage(ctx context.Context, modelName string, text string, refs []prompt.ImageData) (*prompt.ImageData, error) {
	o.debugf("Preparing to send prompt to model: %s", modelName)
	o.debugf("Prompt length: %d characters", len(text))

	if o.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if !o.SupportsModel(modelName) {
		return nil, fmt.Errorf("invalid OpenAI model: %s", modelName)
	}
	if len(refs) > 0 {
		o.debugf("Ignoring %d reference images: the images endpoint does not take them", len(refs))
	}

	resp, err := o.client().CreateImage(ctx, o.createImageRequest(modelName, text))
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	image, err := decodeImageResponse(resp)
	if err != nil {
		return nil, err
	}
	o.debugf("API call completed, image %s (%d bytes)", image.MIMEType, len(image.Data))
	return image, nil
}

// decodeImageResponse returns the first base64 image of an images endpoint response
func decodeImageResponse(resp openai.ImageResponse) (*prompt.ImageData, error) {
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrNoImage
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("error decoding image data: %w", err)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}
	return &prompt.ImageData{MIMEType: mimeType, Data: data}, nil
}

// SetVerbose enables or disables verbose mode
func (o *OpenAIProvider) SetVerbose(verbose bool) {
	o.verbose = verbose
}
