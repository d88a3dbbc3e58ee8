package models

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/eidosai/eidos/utils/config"
)

// Global registry instance
var registry = &ProviderRegistry{
	factories: make(map[string]Factory),
}

func init() {
	mustRegister("google", NewProviderFactory(func() Provider { return NewGoogleProvider() }, ProviderMetadata{
		Name:          "google",
		Description:   "Google Gemini image generation",
		ModelPrefixes: []string{"gemini-"},
		Priority:      10,
	}))
	mustRegister("openai", NewProviderFactory(func() Provider { return NewOpenAIProvider() }, ProviderMetadata{
		Name:          "openai",
		Description:   "OpenAI image generation",
		ModelPrefixes: []string{"dall-e-", "gpt-image-"},
		Priority:      10,
	}))
	mustRegister("xai", NewProviderFactory(func() Provider { return NewXAIProvider() }, ProviderMetadata{
		Name:          "xai",
		Description:   "X.AI Grok image generation",
		ModelPrefixes: []string{"grok-"},
		Priority:      5,
	}))
	mustRegister("mock", NewProviderFactory(func() Provider { return NewMockProvider() }, ProviderMetadata{
		Name:          "mock",
		Description:   "Offline placeholder images for dry runs",
		ModelPrefixes: []string{"mock-"},
		Priority:      0,
	}))
}

func mustRegister(name string, factory Factory) {
	if err := RegisterProvider(name, factory); err != nil {
		panic(err)
	}
}

// ProviderRegistry manages registered provider factories
type ProviderRegistry struct {
	factories map[string]Factory
	mutex     sync.RWMutex
}

// Factory creates provider instances and provides metadata
type Factory interface {
	CreateProvider() Provider
	GetMetadata() ProviderMetadata
}

// ProviderFactory is a reusable factory for all provider types
type ProviderFactory struct {
	constructor func() Provider
	metadata    ProviderMetadata
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(constructor func() Provider, metadata ProviderMetadata) *ProviderFactory {
	return &ProviderFactory{
		constructor: constructor,
		metadata:    metadata,
	}
}

// CreateProvider creates a new provider instance using the constructor function
func (f *ProviderFactory) CreateProvider() Provider {
	return f.constructor()
}

// GetMetadata returns the provider metadata
func (f *ProviderFactory) GetMetadata() ProviderMetadata {
	return f.metadata
}

// ProviderMetadata contains information about a provider
type ProviderMetadata struct {
	Name          string
	Description   string
	ModelPrefixes []string // e.g., ["gemini-", "dall-e-"]
	Priority      int      // Higher priority = checked first
}

// RegisterProvider adds a provider factory to the registry
func RegisterProvider(name string, factory Factory) error {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	if _, exists := registry.factories[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	registry.factories[name] = factory
	config.DebugLog("[Registry] Registered provider: %s", name)
	return nil
}

// FindProvider detects the appropriate provider for a model
func FindProvider(modelName string) Provider {
	return registry.FindProvider(modelName)
}

// FindProvider detects the appropriate provider for a model
func (r *ProviderRegistry) FindProvider(modelName string) Provider {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	config.DebugLog("[Registry] Finding provider for model: %s", modelName)

	type providerCandidate struct {
		factory  Factory
		metadata ProviderMetadata
	}

	var candidates []providerCandidate

	for _, factory := range r.factories {
		metadata := factory.GetMetadata()
		for _, prefix := range metadata.ModelPrefixes {
			if strings.HasPrefix(strings.ToLower(modelName), prefix) {
				candidates = append(candidates, providerCandidate{
					factory:  factory,
					metadata: metadata,
				})
				config.DebugLog("[Registry] Provider %s matches model %s (prefix: %s)",
					metadata.Name, modelName, prefix)
				break
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].metadata.Priority == candidates[j].metadata.Priority {
			return candidates[i].metadata.Name < candidates[j].metadata.Name
		}
		return candidates[i].metadata.Priority > candidates[j].metadata.Priority
	})

	if len(candidates) > 0 {
		selected := candidates[0]
		config.DebugLog("[Registry] Selected provider %s for model %s (priority: %d)",
			selected.metadata.Name, modelName, selected.metadata.Priority)
		return selected.factory.CreateProvider()
	}

	config.DebugLog("[Registry] No provider found for model %s", modelName)
	return nil
}

// GetAvailableProviders returns list of registered providers
func GetAvailableProviders() []ProviderMetadata {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()

	var providers []ProviderMetadata
	for _, factory := range registry.factories {
		providers = append(providers, factory.GetMetadata())
	}

	sort.Slice(providers, func(i, j int) bool {
		if providers[i].Priority == providers[j].Priority {
			return providers[i].Name < providers[j].Name
		}
		return providers[i].Priority > providers[j].Priority
	})

	return providers
}

// GetProviderByName returns a specific provider by name. Aliases such as "gemini" are resolved.
func GetProviderByName(name string) Provider {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()

	if factory, exists := registry.factories[config.NormalizeProviderName(name)]; exists {
		return factory.CreateProvider()
	}
	return nil
}

// ListRegisteredProviders returns names of all registered providers
func ListRegisteredProviders() []string {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()

	var names []string
	for name := range registry.factories {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// CreateProvider builds and configures the provider named in the configuration
func CreateProvider(envConfig *config.EnvConfig, providerName string, verbose bool) (Provider, error) {
	provider := GetProviderByName(providerName)
	if provider == nil {
		return nil, fmt.Errorf("unsupported AI provider %s: %w", providerName, ErrProviderNotFound)
	}
	provider.SetVerbose(verbose)

	var apiKey string
	if providerConfig, err := envConfig.GetProviderConfig(providerName); err == nil {
		apiKey = providerConfig.APIKey
	}
	if err := provider.Configure(apiKey); err != nil {
		return nil, fmt.Errorf("error configuring provider %s: %w", providerName, err)
	}
	return provider, nil
}
