package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lwd-temp/gitbutler/cli"
)

// NewBookmarksCmd returns the bookmarks command with subcommands.
func NewBookmarksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "Pin and list moments in a project's timeline",
	}
	cmd.AddCommand(newBookmarksAddCmd())
	cmd.AddCommand(newBookmarksListCmd())
	return cmd
}

func newBookmarksAddCmd() *cobra.Command {
	var projectID, note string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Bookmark the current moment",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			b, err := application.UpsertBookmark(cmd.Context(), projectID, time.Now().UnixMilli(), note, false)
			if err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			fmt.Printf("Bookmarked %s\n", time.UnixMilli(b.TimestampMs).Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Project ID")
	cmd.MarkFlagRequired("project")
	cmd.Flags().StringVarP(&note, "note", "n", "", "Bookmark note")
	return cmd
}

func newBookmarksListCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's bookmarks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			list, err := application.ListBookmarks(cmd.Context(), projectID)
			if err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			if cli.GetOptions(cmd).JSONOutput {
				return json.NewEncoder(os.Stdout).Encode(list)
			}
			for _, b := range list {
				fmt.Printf("%s  %s\n", time.UnixMilli(b.TimestampMs).Format(time.RFC3339), b.Note)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Project ID")
	cmd.MarkFlagRequired("project")
	return cmd
}
