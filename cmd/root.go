package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/eidosai/eidos/utils/config"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "eidos",
	Short: "Turn @eidosai commands in GitHub issues into generated images",
	Long: `eidos reads @eidosai commands from GitHub issues and comments, builds
image generation prompts from the surrounding text, generates the images and
posts them back to the issue.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Verbose = verbose
		config.Debug = debug
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug output")
}

func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	err := rootCmd.Execute()
	if err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "unknown command") {
			fmt.Fprintf(os.Stderr, "%s\n\nRun 'eidos --help' for the list of commands.\n", errMsg)
		} else {
			config.ActionError("%v", err)
		}
		os.Exit(1)
	}
}

// loadEnvConfig reads the environment file, falling back to defaults when it does not exist
func loadEnvConfig() (*config.EnvConfig, error) {
	envPath := config.GetEnvPath()
	config.DebugLog("Loading environment configuration from %s", envPath)
	envConfig, err := config.LoadEnvConfigOrDefault(envPath)
	if err != nil {
		return nil, fmt.Errorf("error loading environment configuration: %w", err)
	}
	return envConfig, nil
}
