// Package discovery lists the image models a provider account can use.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eidosai/eidos/utils/config"
	openai "github.com/sashabaranov/go-openai"
)

// ModelCache stores cached model lists with TTL
type ModelCache struct {
	models    []string
	timestamp time.Time
	ttl       time.Duration
}

var (
	cache      = make(map[string]*ModelCache)
	cacheMutex sync.RWMutex
	defaultTTL = 1 * time.Hour
)

// Endpoints, overridable in tests
var (
	GoogleModelsURL = "https://generativelanguage.googleapis.com/v1beta/models"
	OpenAIBaseURL   = "https://api.openai.com/v1"
	XAIBaseURL      = "https://api.x.ai/v1"
)

// GoogleModel represents a model returned by Google's models API
type GoogleModel struct {
	Name                       string   `json:"name"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

// getCachedModels returns cached models if still valid
func getCachedModels(cacheKey string) ([]string, bool) {
	cacheMutex.RLock()
	defer cacheMutex.RUnlock()

	entry, exists := cache[cacheKey]
	if !exists {
		return nil, false
	}
	if time.Since(entry.timestamp) < entry.ttl {
		return entry.models, true
	}
	return nil, false
}

// setCachedModels stores models in cache
func setCachedModels(cacheKey string, models []string) {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()

	cache[cacheKey] = &ModelCache{
		models:    models,
		timestamp: time.Now(),
		ttl:       defaultTTL,
	}
}

func cacheKey(provider, apiKey string) string {
	return fmt.Sprintf("%s_%s", provider, apiKey[:min(8, len(apiKey))])
}

// GoogleModelsStatic returns known Gemini image models as fallback
func GoogleModelsStatic() []string {
	return []string{
		"gemini-3-pro-image-preview",
		"gemini-2.5-flash-image",
		"gemini-2.0-flash-preview-image-generation",
	}
}

// isImageModel reports whether a model name looks like an image generator
func isImageModel(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "image") || strings.HasPrefix(name, "dall-e-") || strings.HasPrefix(name, "imagen-")
}

// GetGoogleModels fetches the Gemini image models. Without a key, or when the API fails,
// the static list is returned.
func GetGoogleModels(ctx context.Context, apiKey string) ([]string, error) {
	if apiKey == "" {
		return GoogleModelsStatic(), nil
	}
	key := cacheKey("google", apiKey)
	if cached, found := getCachedModels(key); found {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, GoogleModelsURL+"?key="+apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		config.DebugLog("Google model listing failed, using static list: %v", err)
		return GoogleModelsStatic(), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		config.DebugLog("Google model listing returned %d, using static list", resp.StatusCode)
		return GoogleModelsStatic(), nil
	}

	var response struct {
		Models []GoogleModel `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		config.DebugLog("Google model listing unreadable, using static list: %v", err)
		return GoogleModelsStatic(), nil
	}

	var names []string
	for _, model := range response.Models {
		// "models/gemini-2.5-flash-image" -> "gemini-2.5-flash-image"
		name := model.Name
		if idx := strings.LastIndex(name, "/"); idx != -1 {
			name = name[idx+1:]
		}
		if isImageModel(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	setCachedModels(key, names)
	return names, nil
}

// getCompatibleModels lists the image models of an OpenAI compatible API
func getCompatibleModels(ctx context.Context, provider, baseURL, apiKey string) ([]string, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required for %s", provider)
	}
	key := cacheKey(provider, apiKey)
	if cached, found := getCachedModels(key); found {
		return cached, nil
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	models, err := openai.NewClientWithConfig(cfg).ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s models: %w", provider, err)
	}

	var names []string
	for _, model := range models.Models {
		if isImageModel(model.ID) {
			names = append(names, model.ID)
		}
	}
	sort.Strings(names)

	setCachedModels(key, names)
	return names, nil
}

// GetOpenAIModels fetches the image models from the OpenAI API
func GetOpenAIModels(ctx context.Context, apiKey string) ([]string, error) {
	return getCompatibleModels(ctx, "openai", OpenAIBaseURL, apiKey)
}

// GetXAIModels fetches the image models from the X.AI API
func GetXAIModels(ctx context.Context, apiKey string) ([]string, error) {
	return getCompatibleModels(ctx, "xai", XAIBaseURL, apiKey)
}

// GetAvailableModels retrieves the image models for a provider
func GetAvailableModels(ctx context.Context, providerName string, apiKey string) ([]string, error) {
	switch config.NormalizeProviderName(providerName) {
	case "google":
		return GetGoogleModels(ctx, apiKey)
	case "openai":
		return GetOpenAIModels(ctx, apiKey)
	case "xai":
		return GetXAIModels(ctx, apiKey)
	case "mock":
		return []string{"mock-image"}, nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", providerName)
	}
}

// ClearCache clears all cached model lists
func ClearCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	cache = make(map[string]*ModelCache)
}
