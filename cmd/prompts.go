package cmd

import (
	"fmt"

	"github.com/eidosai/eidos/utils/command"
	"github.com/eidosai/eidos/utils/config"
	"github.com/eidosai/eidos/utils/prompt"
	"github.com/spf13/cobra"
)

var (
	promptsIssueBody    string
	promptsComment      string
	promptsConfigFile   string
	promptsWithRefImage bool
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Print the prompts a comment would produce",
	Long: `Print every image generation prompt built for a comment and its issue body,
applying the prompt configuration from the environment file and --prompt-config.
Nothing is generated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		envConfig, err := loadEnvConfig()
		if err != nil {
			return err
		}
		if promptsConfigFile != "" {
			envConfig.PromptConfigFile = promptsConfigFile
		}
		promptConfig, err := envConfig.ResolvePromptConfig()
		if err != nil {
			return err
		}

		parsed := command.NewParser(envConfig.Defaults.Marker).Parse(promptsComment)
		out := cmd.OutOrStdout()
		if parsed == nil {
			fmt.Fprintln(out, "No command found")
			return nil
		}

		builder := prompt.NewBuilder(promptConfig)
		count, ok := builder.CountFor(*parsed)
		if !ok {
			count = envConfig.Defaults.ModifyCount
		}

		issue := prompt.IssueContext{IssueBody: promptsIssueBody, CommentBody: promptsComment}
		if promptsWithRefImage {
			// A placeholder selects the reference-image variant of the modify template
			issue.ReferenceImages = []prompt.ImageData{{MIMEType: "image/png"}}
		}

		config.VerboseLog("Building %d %s prompt(s)", count, parsed.Kind.DisplayName())
		for i, text := range builder.BuildAll(issue, *parsed, count) {
			fmt.Fprintf(out, "--- Prompt %d/%d ---\n%s\n\n", i+1, count, text)
		}
		return nil
	},
}

func init() {
	promptsCmd.Flags().StringVar(&promptsIssueBody, "issue-body", "", "issue body text")
	promptsCmd.Flags().StringVar(&promptsComment, "comment", "", "comment text holding the command")
	promptsCmd.Flags().StringVar(&promptsConfigFile, "prompt-config", "", "prompt configuration YAML file")
	promptsCmd.Flags().BoolVar(&promptsWithRefImage, "with-reference", false, "build modify prompts as if reference images were attached")
	promptsCmd.MarkFlagRequired("comment")
	rootCmd.AddCommand(promptsCmd)
}
