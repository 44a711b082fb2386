package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/lwd-temp/gitbutler/internal/daemon/pidfile"
	"github.com/lwd-temp/gitbutler/pkg/paths"
)

// NewFlushCmd returns the flush command. It talks to the running daemon,
// since only the daemon's watcher can close the session it is recording.
func NewFlushCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Close a project's current session now",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, _, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return err
			}
			if !running {
				return fmt.Errorf("the daemon is not running; start it with 'butler daemon start'")
			}

			client := socketClient(paths.SocketPath())
			body, _ := json.Marshal(map[string]string{"project_id": projectID})
			resp, err := client.Post("http://butlerd/api/flush", "application/json", bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("failed to reach daemon: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				var payload struct {
					Error string `json:"error"`
				}
				_ = json.NewDecoder(resp.Body).Decode(&payload)
				return fmt.Errorf("flush failed: %s", payload.Error)
			}
			fmt.Println("Session flushed")
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Project ID")
	cmd.MarkFlagRequired("project")
	return cmd
}

// socketClient returns an HTTP client that dials the daemon's unix socket
// regardless of the request URL's host.
func socketClient(socketPath string) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
	}
}
