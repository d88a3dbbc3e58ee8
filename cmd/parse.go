package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/eidosai/eidos/utils/command"
	"github.com/eidosai/eidos/utils/fileutil"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var (
	parseOutput string
	parseMarker string
)

var parseCmd = &cobra.Command{
	Use:   "parse [text...]",
	Short: "Show how a comment is parsed",
	Long: `Parse the given text, or standard input when no text is given and input is
piped, and print the recognized @eidosai command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := commandText(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		return printCommand(cmd.OutOrStdout(), command.NewParser(parseMarker).Parse(text), parseOutput)
	},
}

// commandText joins args, or reads in when there are none and it is not a terminal
func commandText(args []string, in io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", fmt.Errorf("no text given: pass it as arguments or pipe it on stdin")
	}
	data, err := fileutil.ReadLimited(in, fileutil.MaxFileSize)
	if err != nil {
		return "", fmt.Errorf("error reading stdin: %w", err)
	}
	return string(data), nil
}

func printCommand(out io.Writer, cmd *command.Command, format string) error {
	switch format {
	case "yaml":
		if cmd == nil {
			_, err := fmt.Fprintln(out, "null")
			return err
		}
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(cmd)
	case "text", "":
		if cmd == nil {
			_, err := fmt.Fprintln(out, "No command found")
			return err
		}
		fmt.Fprintf(out, "Kind: %s\n", cmd.Kind.DisplayName())
		if cmd.HasCount() {
			fmt.Fprintf(out, "Count: %d\n", *cmd.Count)
		}
		if cmd.Kind == command.KindCustom {
			fmt.Fprintf(out, "Custom instruction: %s\n", cmd.CustomInstruction)
		}
		_, err := fmt.Fprintf(out, "Include issue body: %v\n", !cmd.ExcludeIssueBody)
		return err
	default:
		return fmt.Errorf("unknown output format %q (use text or yaml)", format)
	}
}

func init() {
	parseCmd.Flags().StringVarP(&parseOutput, "output", "o", "text", "output format: text or yaml")
	parseCmd.Flags().StringVar(&parseMarker, "marker", command.DefaultMarker, "invocation marker")
	rootCmd.AddCommand(parseCmd)
}
