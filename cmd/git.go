package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lwd-temp/gitbutler/cli"
)

// NewGitCmd returns read-only git inspection commands scoped to a tracked
// project.
func NewGitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "git",
		Short: "Inspect a tracked project's repository",
	}
	cmd.AddCommand(newGitHeadCmd())
	cmd.AddCommand(newGitIndexSizeCmd())
	cmd.AddCommand(newGitBranchesCmd())
	cmd.AddCommand(newGitTestPushCmd())
	cmd.AddCommand(newGitTestFetchCmd())
	cmd.AddCommand(newGitConfigCmd())
	return cmd
}

func projectFlag(cmd *cobra.Command, projectID *string) {
	cmd.Flags().StringVarP(projectID, "project", "p", "", "Project ID")
	cmd.MarkFlagRequired("project")
}

func newGitHeadCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "head",
		Short: "Print the repository's current HEAD ref",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			head, err := application.Head(cmd.Context(), projectID)
			if err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			fmt.Println(head)
			return nil
		},
	}
	projectFlag(cmd, &projectID)
	return cmd
}

func newGitIndexSizeCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "index-size",
		Short: "Print the number of entries in the git index",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			size, err := application.IndexSize(cmd.Context(), projectID)
			if err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			fmt.Println(size)
			return nil
		},
	}
	projectFlag(cmd, &projectID)
	return cmd
}

func newGitBranchesCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "branches",
		Short: "List the repository's remote branches",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			branches, err := application.RemoteBranches(cmd.Context(), projectID)
			if err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			fmt.Println(strings.Join(branches, "\n"))
			return nil
		},
	}
	projectFlag(cmd, &projectID)
	return cmd
}

func newGitTestPushCmd() *cobra.Command {
	var projectID, remote, branch string
	cmd := &cobra.Command{
		Use:   "test-push",
		Short: "Dry-run a push to verify credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.TestPush(cmd.Context(), projectID, remote, branch); err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			fmt.Println("Push OK")
			return nil
		},
	}
	projectFlag(cmd, &projectID)
	cmd.Flags().StringVar(&remote, "remote", "origin", "Remote name")
	cmd.Flags().StringVar(&branch, "branch", "", "Branch to test")
	cmd.MarkFlagRequired("branch")
	return cmd
}

func newGitTestFetchCmd() *cobra.Command {
	var projectID, remote string
	cmd := &cobra.Command{
		Use:   "test-fetch",
		Short: "Dry-run a fetch to verify connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.TestFetch(cmd.Context(), projectID, remote); err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			fmt.Println("Fetch OK")
			return nil
		},
	}
	projectFlag(cmd, &projectID)
	cmd.Flags().StringVar(&remote, "remote", "origin", "Remote name")
	return cmd
}

func newGitConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read or write the user's global git configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Read a global git config key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			value, found, err := application.GitGlobalConfig(cmd.Context(), args[0])
			if err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			if !found {
				return fmt.Errorf("key '%s' is not set", args[0])
			}
			fmt.Println(value)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a global git config key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.SetGitGlobalConfig(cmd.Context(), args[0], args[1]); err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			return nil
		},
	})
	return cmd
}
