package cmd

import (
	"fmt"
	"strings"

	"github.com/eidosai/eidos/utils/config"
	"github.com/eidosai/eidos/utils/discovery"
	"github.com/eidosai/eidos/utils/models"
	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List image providers and configured models",
	RunE: func(cmd *cobra.Command, args []string) error {
		envConfig, err := loadEnvConfig()
		if err != nil {
			return err
		}
		listProviders(cmd, envConfig)
		if discover {
			discoverModels(cmd, envConfig)
		}
		return nil
	},
}

var discover bool

func listProviders(cmd *cobra.Command, envConfig *config.EnvConfig) {
	out := cmd.OutOrStdout()
	defaultProvider := config.NormalizeProviderName(envConfig.Defaults.Provider)

	fmt.Fprintln(out, "Registered Providers:")
	for _, meta := range models.GetAvailableProviders() {
		marker := " "
		if meta.Name == defaultProvider {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s - %s (models: %s)\n", marker, meta.Name, meta.Description,
			strings.Join(meta.ModelPrefixes, ", "))

		providerConfig, err := envConfig.GetProviderConfig(meta.Name)
		if err != nil {
			continue
		}
		if providerConfig.APIKey == "" {
			fmt.Fprintln(out, "    API key: not set")
		} else {
			fmt.Fprintln(out, "    API key: set")
		}
		for _, model := range providerConfig.Models {
			fmt.Fprintf(out, "    - %s (%s)\n", model.Name, model.Type)
		}
	}
	fmt.Fprintf(out, "\nDefault model: %s\n", envConfig.Defaults.Model)
}

// discoverModels asks every provider with a configured key which image models it offers
func discoverModels(cmd *cobra.Command, envConfig *config.EnvConfig) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nAvailable image models:")
	for _, name := range models.ListRegisteredProviders() {
		var apiKey string
		if providerConfig, err := envConfig.GetProviderConfig(name); err == nil {
			apiKey = providerConfig.APIKey
		}
		available, err := discovery.GetAvailableModels(cmd.Context(), name, apiKey)
		if err != nil {
			fmt.Fprintf(out, "  %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(out, "  %s: %s\n", name, strings.Join(available, ", "))
	}
}

func init() {
	providersCmd.Flags().BoolVar(&discover, "discover", false, "query each provider for its image models")
	rootCmd.AddCommand(providersCmd)
}
