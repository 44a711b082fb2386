package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lwd-temp/gitbutler/cli"
)

// NewProjectsCmd returns the projects command with subcommands.
func NewProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage tracked projects",
		Long: `Projects are the directories butler records. The daemon watches every
project that is not archived.

Examples:
  # Track the current directory
  butler projects add .

  # List tracked projects
  butler projects list

  # Stop recording a project without deleting its history
  butler projects archive <id>
`,
	}
	cmd.AddCommand(newProjectsAddCmd())
	cmd.AddCommand(newProjectsListCmd())
	cmd.AddCommand(newProjectsArchiveCmd())
	cmd.AddCommand(newProjectsUnarchiveCmd())
	cmd.AddCommand(newProjectsRemoveCmd())
	return cmd
}

func newProjectsAddCmd() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Track a project directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			project, err := application.AddProject(cmd.Context(), args[0], title)
			if err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			fmt.Printf("Tracking %s (%s)\n", project.Title, project.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Project title (defaults to the directory name)")
	return cmd
}

func newProjectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			list, err := application.Projects().List()
			if err != nil {
				return err
			}
			if cli.GetOptions(cmd).JSONOutput {
				return json.NewEncoder(os.Stdout).Encode(list)
			}
			if len(list) == 0 {
				fmt.Println("No projects tracked. Run 'butler projects add <path>'.")
				return nil
			}
			for _, p := range list {
				marker := " "
				if p.Archived {
					marker = "a"
				}
				fmt.Printf("%s %s  %-20s %s\n", marker, p.ID, p.Title, p.Path)
			}
			return nil
		},
	}
}

func newProjectsArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a project, stopping its recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			project, err := application.Projects().SetArchived(args[0], true)
			if err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			fmt.Printf("Archived %s\n", project.Title)
			return nil
		},
	}
}

func newProjectsUnarchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unarchive <id>",
		Short: "Resume recording an archived project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			project, err := application.Projects().SetArchived(args[0], false)
			if err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			fmt.Printf("Unarchived %s\n", project.Title)
			return nil
		},
	}
}

func newProjectsRemoveCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a project and delete its recorded history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("this deletes the project's recorded history; re-run with --force")
			}
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.RemoveProject(cmd.Context(), args[0]); err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			fmt.Println("Project removed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Confirm deletion of recorded history")
	return cmd
}
