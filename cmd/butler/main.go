package main

import (
	"os"

	"github.com/lwd-temp/gitbutler/cli"
	"github.com/lwd-temp/gitbutler/cmd"
	"github.com/lwd-temp/gitbutler/version"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"butler",
		"Records your work on tracked projects as sessions and deltas",
	)
	info := cli.VersionInfo{
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		BuildArch: version.BuildArch,
	}
	rootCmd.Version = version.Version
	cli.SetVersionTemplate(rootCmd, info)
	rootCmd.AddCommand(cli.NewVersionCommand("butler", info))

	rootCmd.AddCommand(cmd.NewDaemonCmd())
	rootCmd.AddCommand(cmd.NewProjectsCmd())
	rootCmd.AddCommand(cmd.NewSessionsCmd())
	rootCmd.AddCommand(cmd.NewDeltasCmd())
	rootCmd.AddCommand(cmd.NewSearchCmd())
	rootCmd.AddCommand(cmd.NewBookmarksCmd())
	rootCmd.AddCommand(cmd.NewGitCmd())
	rootCmd.AddCommand(cmd.NewConfigCmd())
	rootCmd.AddCommand(cmd.NewFlushCmd())
	rootCmd.AddCommand(cmd.NewLogsCmd())
	rootCmd.AddCommand(cmd.NewResetCmd())

	cli.ApplyStyledHelpRecursive(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		cli.PrintError(rootCmd, err)
		os.Exit(1)
	}
}
