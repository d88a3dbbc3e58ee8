package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/eidosai/eidos/utils/fileutil"
	"github.com/eidosai/eidos/utils/prompt"
	"gopkg.in/yaml.v3"
)

// Input reads a GitHub Action input the way the runner exposes it: INPUT_<NAME>
// with the name upper-cased and spaces replaced by underscores.
func Input(getenv func(string) string, name string) string {
	key := "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
	return strings.TrimSpace(getenv(key))
}

// ApplyActionInputs overlays GitHub Action inputs on top of the file configuration.
// Empty inputs leave the file values alone.
func (c *EnvConfig) ApplyActionInputs(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	if token := Input(getenv, "github-token"); token != "" {
		c.GitHub.Token = token
	}
	if provider := Input(getenv, "ai-provider"); provider != "" {
		c.Defaults.Provider = provider
	}
	if apiKey := Input(getenv, "ai-api-key"); apiKey != "" {
		c.UpdateAPIKey(c.Defaults.Provider, apiKey)
	}
	if model := Input(getenv, "model-name"); model != "" {
		c.Defaults.Model = model
	}
	if marker := Input(getenv, "marker"); marker != "" {
		c.Defaults.Marker = marker
	}

	bucket := Input(getenv, "gcs-bucket-name")
	key := Input(getenv, "gcs-service-account-key")
	if bucket != "" || key != "" || c.Storage.GCS != nil {
		if c.Storage.GCS == nil {
			c.Storage.GCS = &GCSConfig{}
		}
		gcs := c.Storage.GCS
		if project := Input(getenv, "gcs-project-id"); project != "" {
			gcs.ProjectID = project
		}
		if bucket != "" {
			gcs.BucketName = bucket
		}
		if key != "" {
			gcs.ServiceAccountKey = key
		}
		if expiry := Input(getenv, "signed-url-expiry"); expiry != "" {
			seconds, err := strconv.Atoi(expiry)
			if err != nil || seconds <= 0 {
				return fmt.Errorf("invalid signed-url-expiry %q: must be a positive number of seconds", expiry)
			}
			gcs.SignedURLExpiry = seconds
		}
	}

	if path := Input(getenv, "prompt-config"); path != "" {
		c.PromptConfigFile = path
	}
	c.Prompts = c.Prompts.Merge(promptInputs(getenv))

	c.applyDefaults()
	return nil
}

func promptInputs(getenv func(string) string) prompt.PromptConfig {
	return prompt.PromptConfig{
		WireframeTemplate: Input(getenv, "wireframe-template"),
		ConceptTemplate:   Input(getenv, "concept-template"),
		CustomTemplate:    Input(getenv, "custom-template"),
		ModifyTemplate:    Input(getenv, "modify-template"),
		WireframeAspects:  splitLines(Input(getenv, "wireframe-aspects")),
		ConceptAspects:    splitLines(Input(getenv, "concept-aspects")),
		CommonContext:     Input(getenv, "common-context"),
	}
}

// splitLines turns a multi-line input into its non-blank lines
func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// LoadPromptConfig reads a YAML prompt configuration file
func LoadPromptConfig(path string) (*prompt.PromptConfig, error) {
	DebugLog("Loading prompt configuration from: %s", path)

	data, err := fileutil.SafeReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading prompt config: %w", err)
	}

	var cfg prompt.PromptConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing prompt config %s: %w", path, err)
	}
	return &cfg, nil
}

// ResolvePromptConfig combines the prompt config file with the inline and input overrides.
// Later sources win field by field.
func (c *EnvConfig) ResolvePromptConfig() (*prompt.PromptConfig, error) {
	resolved := prompt.PromptConfig{}
	if c.PromptConfigFile != "" {
		fromFile, err := LoadPromptConfig(c.PromptConfigFile)
		if err != nil {
			return nil, err
		}
		resolved = *fromFile
	}
	resolved = resolved.Merge(c.Prompts)
	return &resolved, nil
}

// RunMode names what the configuration is about to be used for
type RunMode int

const (
	ActionMode RunMode = iota
	ServeMode
	DryRunMode
)

// Validate reports every missing setting required by the run mode
func (c *EnvConfig) Validate(mode RunMode) error {
	var errors []string

	if mode != DryRunMode {
		provider, err := c.GetProviderConfig(c.Defaults.Provider)
		if err != nil || provider.APIKey == "" {
			errors = append(errors, fmt.Sprintf("API key for provider %s is required", c.Defaults.Provider))
		}
		if c.GitHub.Token == "" {
			errors = append(errors, "GitHub token is required")
		}
		if gcs := c.Storage.GCS; gcs != nil {
			if gcs.BucketName == "" {
				errors = append(errors, "GCS bucket name is required")
			}
			if gcs.ServiceAccountKey == "" && gcs.ServiceAccountKeyFile == "" {
				errors = append(errors, "GCS service account key is required")
			}
		} else if c.Storage.LocalDir == "" && mode == ActionMode {
			errors = append(errors, "a storage backend (storage.gcs or storage.local_dir) is required")
		}
		if err := c.ValidateModel(c.Defaults.Provider, c.Defaults.Model); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if mode == ServeMode && c.GetServerConfig().WebhookSecret == "" {
		VerboseLog("No webhook secret configured; webhook signatures will not be verified")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
