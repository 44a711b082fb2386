package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lwd-temp/gitbutler/internal/daemon/pidfile"
	"github.com/lwd-temp/gitbutler/pkg/paths"
)

// NewResetCmd returns the reset command, which wipes all recorded data.
func NewResetCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all recorded sessions, deltas, and projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("this deletes every recorded session and delta; re-run with --force")
			}
			if running, pid, err := pidfile.IsRunning(paths.PidFilePath()); err == nil && running {
				return fmt.Errorf("the daemon is running (PID %d); stop it first with 'butler daemon stop'", pid)
			}

			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			if err := application.DeleteAllData(); err != nil {
				return err
			}
			fmt.Println("All recorded data deleted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Confirm deletion")
	return cmd
}
