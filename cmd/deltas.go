package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lwd-temp/gitbutler/cli"
)

// NewDeltasCmd returns the deltas command.
func NewDeltasCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "deltas",
		Short: "List the deltas recorded in a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			byFile, err := application.ListDeltas(cmd.Context(), sessionID)
			if err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			if cli.GetOptions(cmd).JSONOutput {
				return json.NewEncoder(os.Stdout).Encode(byFile)
			}
			for path, list := range byFile {
				fmt.Println(path)
				for _, d := range list {
					fmt.Printf("  %s  %d operation(s)\n",
						time.UnixMilli(d.TimestampMs).Format(time.RFC3339), d.Operations)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID")
	cmd.MarkFlagRequired("session")
	return cmd
}
