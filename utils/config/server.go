package config

// ServerConfig holds configuration for the webhook server
type ServerConfig struct {
	Port          int    `yaml:"port"`
	DataDir       string `yaml:"dataDir"` // images are written here when no GCS bucket is configured
	WebhookSecret string `yaml:"webhookSecret"`
	BearerToken   string `yaml:"bearerToken"` // protects the /prompts endpoint when set
	PublicURL     string `yaml:"publicURL"`   // base URL images in DataDir are served under
}

// GetServerConfig returns the server configuration with defaults applied
func (c *EnvConfig) GetServerConfig() *ServerConfig {
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.DataDir == "" {
		c.Server.DataDir = "data"
	}
	return c.Server
}
