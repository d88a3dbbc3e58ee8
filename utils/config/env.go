package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/eidosai/eidos/utils/fileutil"
	"github.com/eidosai/eidos/utils/prompt"
	"gopkg.in/yaml.v3"
)

// ModelMode represents the supported output modes for a model
type ModelMode string

const (
	TextMode  ModelMode = "text"
	ImageMode ModelMode = "image"
	MultiMode ModelMode = "multi"
)

// Model represents a single model configuration
type Model struct {
	Name  string      `yaml:"name"`
	Type  string      `yaml:"type"`
	Modes []ModelMode `yaml:"modes"`
}

// Provider represents a provider's configuration
type Provider struct {
	APIKey string  `yaml:"api_key"`
	Models []Model `yaml:"models"`
}

// Defaults holds run-wide defaults
type Defaults struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	ModifyCount int    `yaml:"modify_count"`
	Marker      string `yaml:"marker"`
	MaxParallel int    `yaml:"max_parallel"`
}

// GCSConfig holds Google Cloud Storage settings
type GCSConfig struct {
	ProjectID             string `yaml:"project_id"`
	BucketName            string `yaml:"bucket_name"`
	ServiceAccountKey     string `yaml:"service_account_key"`
	ServiceAccountKeyFile string `yaml:"service_account_key_file"`
	SignedURLExpiry       int    `yaml:"signed_url_expiry"` // seconds
	ObjectPrefix          string `yaml:"object_prefix"`
}

// StorageConfig selects where generated images are stored
type StorageConfig struct {
	GCS      *GCSConfig `yaml:"gcs"`
	LocalDir string     `yaml:"local_dir"`
}

// GitHubConfig holds GitHub API settings
type GitHubConfig struct {
	Token  string `yaml:"token"`
	APIURL string `yaml:"api_url"`
}

// DatabaseConfig holds the connection settings of the generation history database
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// EnvConfig represents the complete environment configuration
type EnvConfig struct {
	Providers        map[string]*Provider `yaml:"providers"`
	Defaults         Defaults             `yaml:"defaults"`
	Storage          StorageConfig        `yaml:"storage"`
	GitHub           GitHubConfig         `yaml:"github"`
	Server           *ServerConfig        `yaml:"server,omitempty"`
	Database         *DatabaseConfig      `yaml:"database,omitempty"`
	Prompts          prompt.PromptConfig  `yaml:"prompts"`
	PromptConfigFile string               `yaml:"prompt_config_file"`
}

const (
	DefaultProvider        = "gemini"
	DefaultModel           = "gemini-3-pro-image-preview"
	DefaultSignedURLExpiry = 7 * 24 * 60 * 60
	DefaultModifyCount     = 1
	DefaultMaxParallel     = 2
	DefaultGitHubAPIURL    = "https://api.github.com"
)

// NewEnvConfig returns a configuration with every default applied
func NewEnvConfig() *EnvConfig {
	cfg := &EnvConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *EnvConfig) applyDefaults() {
	if c.Providers == nil {
		c.Providers = make(map[string]*Provider)
	}
	if c.Defaults.Provider == "" {
		c.Defaults.Provider = DefaultProvider
	}
	if c.Defaults.Model == "" {
		c.Defaults.Model = DefaultModel
	}
	if c.Defaults.ModifyCount <= 0 {
		c.Defaults.ModifyCount = DefaultModifyCount
	}
	if c.Defaults.MaxParallel <= 0 {
		c.Defaults.MaxParallel = DefaultMaxParallel
	}
	if c.GitHub.APIURL == "" {
		c.GitHub.APIURL = DefaultGitHubAPIURL
	}
	if c.Storage.GCS != nil && c.Storage.GCS.SignedURLExpiry <= 0 {
		c.Storage.GCS.SignedURLExpiry = DefaultSignedURLExpiry
	}
}

// GetEnvPath returns the environment file path from EIDOS_ENV or the default
func GetEnvPath() string {
	if envPath := os.Getenv("EIDOS_ENV"); envPath != "" {
		DebugLog("Using environment file from EIDOS_ENV: %s", envPath)
		return envPath
	}
	DebugLog("Using default environment file: .eidos.yaml")
	return ".eidos.yaml"
}

// LoadEnvConfig loads the environment configuration from a YAML file
func LoadEnvConfig(path string) (*EnvConfig, error) {
	DebugLog("Attempting to load environment configuration from: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		DebugLog("Error reading environment file: %v", err)
		return nil, fmt.Errorf("error reading env file: %w", err)
	}

	var config EnvConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		DebugLog("Error parsing environment file: %v", err)
		return nil, fmt.Errorf("error parsing env file: %w", err)
	}
	config.applyDefaults()

	DebugLog("Successfully loaded environment configuration")
	return &config, nil
}

// LoadEnvConfigOrDefault loads the file when it exists and falls back to defaults otherwise
func LoadEnvConfigOrDefault(path string) (*EnvConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		DebugLog("Environment file %s not found, using defaults", path)
		return NewEnvConfig(), nil
	}
	return LoadEnvConfig(path)
}

// SaveEnvConfig saves the environment configuration to a YAML file
func SaveEnvConfig(path string, config *EnvConfig) error {
	DebugLog("Attempting to save environment configuration to: %s", path)

	data, err := yaml.Marshal(config)
	if err != nil {
		DebugLog("Error marshaling environment config: %v", err)
		return fmt.Errorf("error marshaling env config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		DebugLog("Error writing environment file: %v", err)
		return fmt.Errorf("error writing env file: %w", err)
	}

	DebugLog("Successfully saved environment configuration")
	return nil
}

// NormalizeProviderName maps aliases to registered provider names
func NormalizeProviderName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "gemini" {
		return "google"
	}
	return name
}

// GetProviderConfig retrieves configuration for a specific provider
func (c *EnvConfig) GetProviderConfig(providerName string) (*Provider, error) {
	name := NormalizeProviderName(providerName)
	provider, exists := c.Providers[name]
	if !exists {
		// the file may still use the alias as key
		provider, exists = c.Providers[strings.ToLower(providerName)]
	}
	if !exists {
		return nil, fmt.Errorf("provider %s not found in configuration", providerName)
	}
	if provider == nil {
		return nil, fmt.Errorf("provider %s configuration is nil", providerName)
	}
	return provider, nil
}

// AddProvider adds or updates a provider configuration
func (c *EnvConfig) AddProvider(name string, provider Provider) {
	if c.Providers == nil {
		c.Providers = make(map[string]*Provider)
	}
	providerCopy := provider
	c.Providers[NormalizeProviderName(name)] = &providerCopy
}

// UpdateAPIKey updates the API key for a specific provider, creating the entry when missing
func (c *EnvConfig) UpdateAPIKey(providerName, apiKey string) {
	provider, err := c.GetProviderConfig(providerName)
	if err != nil {
		c.AddProvider(providerName, Provider{APIKey: apiKey})
		return
	}
	provider.APIKey = apiKey
}

// ValidateModelMode checks if a mode is valid
func ValidateModelMode(mode ModelMode) bool {
	for _, validMode := range GetSupportedModes() {
		if mode == validMode {
			return true
		}
	}
	return false
}

// GetSupportedModes returns all supported model modes
func GetSupportedModes() []ModelMode {
	return []ModelMode{TextMode, ImageMode, MultiMode}
}

// HasMode checks if a model supports a specific mode
func (m *Model) HasMode(mode ModelMode) bool {
	for _, supportedMode := range m.Modes {
		if supportedMode == mode {
			return true
		}
	}
	return false
}

// GetModelConfig retrieves configuration for a specific model
func (c *EnvConfig) GetModelConfig(providerName, modelName string) (*Model, error) {
	provider, err := c.GetProviderConfig(providerName)
	if err != nil {
		return nil, err
	}

	for _, model := range provider.Models {
		if model.Name == modelName {
			return &model, nil
		}
	}

	return nil, fmt.Errorf("model %s not found for provider %s", modelName, providerName)
}

// ValidateModel checks that a configured model can produce images. Unlisted models are allowed.
func (c *EnvConfig) ValidateModel(providerName, modelName string) error {
	model, err := c.GetModelConfig(providerName, modelName)
	if err != nil {
		return nil
	}
	for _, mode := range model.Modes {
		if !ValidateModelMode(mode) {
			return fmt.Errorf("invalid model mode: %s", mode)
		}
	}
	if len(model.Modes) > 0 && !model.HasMode(ImageMode) && !model.HasMode(MultiMode) {
		return fmt.Errorf("model %s is not configured for image output", modelName)
	}
	return nil
}

// ServiceAccountKeyJSON returns the service account key, reading the key file if needed
func (g *GCSConfig) ServiceAccountKeyJSON() ([]byte, error) {
	if g.ServiceAccountKey != "" {
		return []byte(g.ServiceAccountKey), nil
	}
	if g.ServiceAccountKeyFile == "" {
		return nil, fmt.Errorf("no GCS service account key configured")
	}
	data, err := fileutil.SafeReadFile(g.ServiceAccountKeyFile)
	if err != nil {
		return nil, fmt.Errorf("error reading service account key file: %w", err)
	}
	return data, nil
}

// GetConnectionString returns the lib/pq connection string
func (d *DatabaseConfig) GetConnectionString() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := d.Port
	if port == 0 {
		port = 5432
	}
	parts := []string{
		fmt.Sprintf("host=%s", quoteConnValue(d.Host)),
		fmt.Sprintf("port=%d", port),
		fmt.Sprintf("user=%s", quoteConnValue(d.User)),
	}
	if d.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", quoteConnValue(d.Password)))
	}
	parts = append(parts,
		fmt.Sprintf("dbname=%s", quoteConnValue(d.Database)),
		fmt.Sprintf("sslmode=%s", sslMode),
	)
	return strings.Join(parts, " ")
}

func quoteConnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
