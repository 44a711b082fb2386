// Package cmd implements the butler CLI commands.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lwd-temp/gitbutler/app"
	"github.com/lwd-temp/gitbutler/cli"
)

// openApp assembles the app for a single-shot command. The caller closes it.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}
