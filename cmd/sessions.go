package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lwd-temp/gitbutler/cli"
)

// NewSessionsCmd returns the sessions command with subcommands.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect recorded sessions",
	}
	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsFilesCmd())
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			list, err := application.ListSessions(cmd.Context(), projectID)
			if err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			if cli.GetOptions(cmd).JSONOutput {
				return json.NewEncoder(os.Stdout).Encode(list)
			}
			for _, s := range list {
				state := "closed"
				if s.Open {
					state = "open"
				}
				fmt.Printf("%s  %s  %-6s %s\n",
					s.ID, s.StartedAt.Format(time.RFC3339), state, s.Head)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Project ID")
	cmd.MarkFlagRequired("project")
	return cmd
}

func newSessionsFilesCmd() *cobra.Command {
	var sessionID string
	var showContent bool
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Show the files a session touched, with their final content",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			contents, err := application.ListSessionFiles(cmd.Context(), sessionID)
			if err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			if cli.GetOptions(cmd).JSONOutput {
				return json.NewEncoder(os.Stdout).Encode(contents)
			}
			for path, content := range contents {
				if showContent {
					fmt.Printf("--- %s\n%s\n", path, content)
				} else {
					fmt.Printf("%s (%d bytes)\n", path, len(content))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID")
	cmd.MarkFlagRequired("session")
	cmd.Flags().BoolVar(&showContent, "content", false, "Print full file contents")
	return cmd
}
