package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/eidosai/eidos/utils/config"
	"github.com/eidosai/eidos/utils/github"
	"github.com/eidosai/eidos/utils/processor"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	eventPath string
	dryRun    bool
	outDir    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the GitHub event that triggered the workflow",
	Long: `Process the issues or issue_comment event in GITHUB_EVENT_PATH the way the
GitHub Action does: parse the @eidosai command, generate the images and post them
back to the issue. With --dry-run placeholder images are written to --out and
nothing is posted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		envConfig, err := loadEnvConfig()
		if err != nil {
			return err
		}
		if err := envConfig.ApplyActionInputs(os.Getenv); err != nil {
			return err
		}

		path := eventPath
		if path == "" {
			path = os.Getenv("GITHUB_EVENT_PATH")
		}
		if path == "" {
			return fmt.Errorf("no event payload: pass --event or set GITHUB_EVENT_PATH")
		}
		event, err := github.LoadEvent(path)
		if err != nil {
			return err
		}

		if envConfig.Storage.GCS == nil && envConfig.Storage.LocalDir == "" && cmd.Flags().Changed("out") {
			envConfig.Storage.LocalDir = outDir
		}
		mode := config.ActionMode
		if dryRun {
			mode = config.DryRunMode
		}
		if err := envConfig.Validate(mode); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		result, err := runEvent(ctx, envConfig, event, os.Getenv("GITHUB_EVENT_NAME"), out)
		if err != nil {
			return err
		}
		return writeOutputs(result)
	},
}

// runEvent processes one event payload. A nil result means the event was ignored.
func runEvent(ctx context.Context, envConfig *config.EnvConfig, event *github.Event, name string, out io.Writer) (*processor.Result, error) {
	if name == "" {
		name = event.Name()
	}
	if !github.Triggers(name, event.Action) {
		fmt.Fprintf(out, "Ignoring %s event with action %q\n", name, event.Action)
		return nil, nil
	}
	if event.FromBot() {
		fmt.Fprintln(out, "Ignoring event triggered by a bot")
		return nil, nil
	}
	issue := event.IssueContext()
	if github.IsOwnComment(issue.CommentBody) {
		fmt.Fprintln(out, "Ignoring comment written by eidos")
		return nil, nil
	}

	proc, cleanup, err := newPipeline(ctx, envConfig, pipelineOptions{dryRun: dryRun, outDir: outDir})
	defer cleanup()
	if err != nil {
		return nil, err
	}
	proc.SetProgressWriter(progressWriter(out))

	result, err := proc.Process(ctx, issue)
	if err != nil {
		return result, err
	}
	if result.Skipped {
		fmt.Fprintln(out, "No @eidosai command found")
	}
	return result, nil
}

// progressWriter animates a spinner on terminals and prints plain lines elsewhere
func progressWriter(out io.Writer) processor.ProgressWriter {
	lines := processor.NewLineProgressWriter(out)
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return processor.NewSpinner(out, lines)
	}
	return lines
}

func writeOutputs(result *processor.Result) error {
	if result == nil || result.Skipped {
		return config.SetOutput("command", "")
	}
	outputs := []struct{ name, value string }{
		{"command", result.Command.Kind.String()},
		{"image-count", strconv.Itoa(len(result.URLs))},
		{"image-urls", strings.Join(result.URLs, "\n")},
		{"comment-id", strconv.FormatInt(result.CommentID, 10)},
	}
	for _, o := range outputs {
		if err := config.SetOutput(o.name, o.value); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	runCmd.Flags().StringVar(&eventPath, "event", "", "event payload file (default $GITHUB_EVENT_PATH)")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "generate placeholder images locally without calling GitHub or a model")
	runCmd.Flags().StringVar(&outDir, "out", "eidos-images", "directory for images when no GCS bucket is configured")
	rootCmd.AddCommand(runCmd)
}
