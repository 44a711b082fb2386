package cmd

import (
	"fmt"
	"os"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/lwd-temp/gitbutler/logging"
)

// NewLogsCmd returns the logs command.
func NewLogsCmd() *cobra.Command {
	var follow bool
	var lines int
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the butler log file",
		Long: `Prints the daemon and CLI log file.

Examples:
  # Follow new log output
  butler logs -f

  # Show the last 100 lines
  butler logs --tail 100
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := logging.LogFilePath()
			if _, err := os.Stat(path); err != nil {
				if os.IsNotExist(err) {
					fmt.Printf("No log file yet at %s\n", path)
					return nil
				}
				return err
			}

			cfg := tail.Config{Follow: follow, ReOpen: follow, Logger: tail.DiscardingLogger}
			if lines > 0 && !follow {
				return printLastLines(path, lines)
			}
			if follow {
				// Only new output matters when following.
				cfg.Location = &tail.SeekInfo{Offset: 0, Whence: 2}
			}

			t, err := tail.TailFile(path, cfg)
			if err != nil {
				return err
			}
			defer t.Cleanup()
			for line := range t.Lines {
				if line.Err != nil {
					return line.Err
				}
				fmt.Println(line.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVar(&lines, "tail", 0, "Number of lines to show from the end")
	return cmd
}

// printLastLines prints the final n lines of the file.
func printLastLines(path string, n int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := splitLines(string(data))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
