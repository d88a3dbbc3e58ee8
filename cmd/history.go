package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/eidosai/eidos/utils/config"
	"github.com/eidosai/eidos/utils/database"
	"github.com/spf13/cobra"
)

var (
	historyRepo  string
	historyIssue int
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded generations for an issue",
	RunE: func(cmd *cobra.Command, args []string) error {
		envConfig, err := loadEnvConfig()
		if err != nil {
			return err
		}
		if envConfig.Database == nil || envConfig.Database.Host == "" {
			return fmt.Errorf("no database configured in %s", config.GetEnvPath())
		}

		store, err := database.Open(cmd.Context(), envConfig.Database)
		if err != nil {
			return err
		}
		defer store.Close()

		generations, err := store.ListForIssue(cmd.Context(), historyRepo, historyIssue, historyLimit)
		if err != nil {
			return err
		}
		return printHistory(cmd, generations)
	},
}

func printHistory(cmd *cobra.Command, generations []database.Generation) error {
	out := cmd.OutOrStdout()
	if len(generations) == 0 {
		_, err := fmt.Fprintln(out, "No generations recorded")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tKIND\tSTATUS\tIMAGES\tMODEL\tDURATION")
	for _, g := range generations {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d/%d\t%s/%s\t%dms\n",
			g.ID, g.CreatedAt.Format("2006-01-02 15:04:05"), g.Kind, g.Status(),
			len(g.URLs), g.Count, g.Provider, g.Model, g.DurationMS)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if verbose {
		for _, g := range generations {
			if len(g.URLs) > 0 {
				fmt.Fprintf(out, "\n#%d\n  %s\n", g.ID, strings.Join(g.URLs, "\n  "))
			}
			if g.Error != "" {
				fmt.Fprintf(out, "  error: %s\n", g.Error)
			}
		}
	}
	return nil
}

func init() {
	historyCmd.Flags().StringVar(&historyRepo, "repo", "", "repository as owner/name")
	historyCmd.Flags().IntVar(&historyIssue, "issue", 0, "issue number")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of rows")
	historyCmd.MarkFlagRequired("repo")
	historyCmd.MarkFlagRequired("issue")
	rootCmd.AddCommand(historyCmd)
}
