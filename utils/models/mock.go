package models

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"

	"github.com/eidosai/eidos/utils/prompt"
)

// MockProvider renders a solid placeholder image whose color derives from the prompt.
// It never calls the network and is used for dry runs.
type MockProvider struct {
	verbose bool
	size    int
}

// NewMockProvider creates a new mock provider instance
func NewMockProvider() *MockProvider {
	return &MockProvider{size: 64}
}

// Name returns the provider name
func (m *MockProvider) Name() string {
	return "mock"
}

// SupportsModel accepts any model name
func (m *MockProvider) SupportsModel(modelName string) bool {
	return true
}

// Configure accepts any key, including an empty one
func (m *MockProvider) Configure(apiKey string) error {
	return nil
}

// SetVerbose enables or disables verbose mode
func (m *MockProvider) SetVerbose(verbose bool) {
	m.verbose = verbose
}

// GenerateImage returns a PNG placeholder
func (m *MockProvider) GenerateImage(ctx context.Context, modelName string, text string, refs []prompt.ImageData) (*prompt.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.verbose {
		fmt.Printf("[DEBUG][Mock] Rendering placeholder for %d character prompt\n", len(text))
	}

	h := fnv.New32a()
	h.Write([]byte(text))
	sum := h.Sum32()
	fill := color.RGBA{R: uint8(sum >> 16), G: uint8(sum >> 8), B: uint8(sum), A: 255}

	img := image.NewRGBA(image.Rect(0, 0, m.size, m.size))
	for y := 0; y < m.size; y++ {
		for x := 0; x < m.size; x++ {
			img.Set(x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return &prompt.ImageData{MIMEType: "image/png", Data: buf.Bytes()}, nil
}
