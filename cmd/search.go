package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lwd-temp/gitbutler/cli"
)

// NewSearchCmd returns the search command.
func NewSearchCmd() *cobra.Command {
	var projectID string
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search recorded file contents",
		Long: `Searches the full-text index built from session file contents.

Examples:
  # Find sessions where a function name appeared
  butler search -p <project-id> parseConfig

  # Limit the result count
  butler search -p <project-id> --limit 5 "error handling"
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			results, err := application.Search(cmd.Context(), projectID, strings.Join(args, " "), limit)
			if err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			if cli.GetOptions(cmd).JSONOutput {
				return json.NewEncoder(os.Stdout).Encode(results)
			}
			if len(results) == 0 {
				fmt.Println("No matches")
				return nil
			}
			for _, r := range results {
				fmt.Printf("%s  %s\n  %s\n", r.SessionID, r.FilePath, r.Snippet)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Project ID")
	cmd.MarkFlagRequired("project")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results (default 50)")
	return cmd
}
