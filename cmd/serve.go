package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/eidosai/eidos/utils/config"
	"github.com/eidosai/eidos/utils/server"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long: `Start an HTTP server that receives GitHub issues and issue_comment webhooks
and processes every @eidosai command they carry.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		envConfig, err := loadEnvConfig()
		if err != nil {
			return err
		}
		serverConfig := envConfig.GetServerConfig()
		if cmd.Flags().Changed("port") {
			serverConfig.Port = servePort
		}
		if err := envConfig.Validate(config.ServeMode); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		baseURL := serverConfig.PublicURL
		if baseURL != "" {
			baseURL = strings.TrimSuffix(baseURL, "/") + "/images"
		}
		proc, cleanup, err := newPipeline(ctx, envConfig, pipelineOptions{
			outDir:  serverConfig.DataDir,
			baseURL: baseURL,
		})
		defer cleanup()
		if err != nil {
			return err
		}

		return server.New(envConfig, proc).Run(ctx)
	},
}

var showServeCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current server configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		envConfig, err := loadEnvConfig()
		if err != nil {
			return err
		}
		printServerConfig(cmd, envConfig.GetServerConfig())
		return nil
	},
}

func printServerConfig(cmd *cobra.Command, s *config.ServerConfig) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Server Configuration:")
	fmt.Fprintf(out, "Port: %d\n", s.Port)
	fmt.Fprintf(out, "Data Directory: %s\n", s.DataDir)
	if s.PublicURL != "" {
		fmt.Fprintf(out, "Public URL: %s\n", s.PublicURL)
	}
	fmt.Fprintf(out, "Webhook Secret: %s\n", maskSecret(s.WebhookSecret))
	fmt.Fprintf(out, "Bearer Token: %s\n", maskSecret(s.BearerToken))
}

func maskSecret(secret string) string {
	switch {
	case secret == "":
		return "(not set)"
	case len(secret) <= 8:
		return "****"
	default:
		return secret[:4] + "****" + secret[len(secret)-4:]
	}
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "port to listen on (overrides server.port)")
	serveCmd.AddCommand(showServeCmd)
	rootCmd.AddCommand(serveCmd)
}
