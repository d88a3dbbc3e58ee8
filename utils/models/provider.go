package models

import (
	"context"
	"errors"

	"github.com/eidosai/eidos/utils/prompt"
)

var (
	// ErrNoImage is returned when a model answered without any image part
	ErrNoImage = errors.New("model returned no image")
	// ErrNotConfigured is returned when a provider is used before Configure
	ErrNotConfigured = errors.New("provider not configured: missing API key")
	// ErrProviderNotFound is returned when no registered provider matches
	ErrProviderNotFound = errors.New("provider not found")
)

// ModelConfig represents configuration options for model calls
type ModelConfig struct {
	Temperature float64
	TopP        float64
	ImageSize   string
}

// Provider represents an image generation provider (e.g., Google, OpenAI)
type Provider interface {
	Name() string
	SupportsModel(modelName string) bool
	Configure(apiKey string) error
	SetVerbose(verbose bool)
	// GenerateImage returns at most one image for the prompt. Reference
	// images are passed along when the provider can use them.
	GenerateImage(ctx context.Context, modelName string, text string, refs []prompt.ImageData) (*prompt.ImageData, error)
}
