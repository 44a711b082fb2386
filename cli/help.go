package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	helpMaxWidth = 60
	helpMinWidth = 40
)

// palette uses the 16 ANSI colors so help output respects the user's
// terminal theme.
var (
	helpTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	helpSection = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("3"))
	helpCommand = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	helpFlag    = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	helpMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	helpItalic  = lipgloss.NewStyle().Italic(true)
	helpError   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// SetStyledHelp applies butler's help styling to a command. Call it on the
// root command before Execute.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
}

// ApplyStyledHelpRecursive applies styled help and usage to a command and
// all its subcommands. Call after all subcommands have been added.
func ApplyStyledHelpRecursive(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
	cmd.SetUsageFunc(func(*cobra.Command) error { return nil })
	for _, sub := range cmd.Commands() {
		ApplyStyledHelpRecursive(sub)
	}
}

// PrintError prints a styled error with a help hint.
func PrintError(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", helpError.Render("Error:"), err.Error())
	fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", helpMuted.Render(fmt.Sprintf("Run '%s --help' for usage.", cmd.CommandPath())))
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < helpMinWidth {
		return helpMaxWidth
	}
	if width > helpMaxWidth {
		return helpMaxWidth
	}
	return width
}

// wrapText wraps text to width, preserving existing line breaks.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = helpMaxWidth
	}
	var result []string
	for _, paragraph := range strings.Split(text, "\n") {
		if len(paragraph) <= width {
			result = append(result, paragraph)
			continue
		}
		var line string
		for _, word := range strings.Fields(paragraph) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				result = append(result, line)
				line = word
			}
		}
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}

// splitExamples separates a Long description into prose and an example
// block introduced by an "Examples:" heading.
func splitExamples(long string) (description, examples string) {
	for _, marker := range []string{"\nExamples:\n", "\nExample:\n"} {
		if idx := strings.Index(long, marker); idx != -1 {
			return strings.TrimSpace(long[:idx]), strings.TrimSpace(long[idx+len(marker):])
		}
	}
	return long, ""
}

func styledHelpFunc(cmd *cobra.Command, args []string) {
	width := terminalWidth() - 2

	fmt.Println(" " + helpTitle.Render(strings.ToUpper(cmd.CommandPath())))

	description, examples := cmd.Long, ""
	if description == "" {
		description = cmd.Short
	} else {
		description, examples = splitExamples(cmd.Long)
	}

	if cmd.Short != "" {
		for _, line := range strings.Split(wrapText(cmd.Short, width), "\n") {
			fmt.Println(" " + helpItalic.Render(line))
		}
	}
	if description != "" && description != cmd.Short {
		fmt.Println()
		for _, line := range strings.Split(wrapText(description, width), "\n") {
			fmt.Println(" " + line)
		}
	}

	if cmd.Runnable() || cmd.HasSubCommands() {
		fmt.Println("\n " + helpSection.Render("USAGE"))
		if cmd.Runnable() {
			fmt.Printf(" %s\n", cmd.UseLine())
		}
		if cmd.HasSubCommands() {
			fmt.Printf(" %s [command]\n", cmd.CommandPath())
		}
	}

	if cmd.HasAvailableSubCommands() {
		maxLen := 0
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() && len(sub.Name()) > maxLen {
				maxLen = len(sub.Name())
			}
		}
		fmt.Println("\n " + helpSection.Render("COMMANDS"))
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() {
				padding := strings.Repeat(" ", maxLen-len(sub.Name()))
				fmt.Printf(" %s%s  %s\n", helpCommand.Render(sub.Name()), padding, sub.Short)
			}
		}
	}

	printFlags(cmd)

	exampleText := cmd.Example
	if exampleText == "" {
		exampleText = examples
	}
	if exampleText != "" {
		fmt.Println("\n " + helpSection.Render("EXAMPLES"))
		printExamples(exampleText)
	}

	if cmd.HasSubCommands() {
		fmt.Printf("\n Use \"%s [command] --help\" for more information.\n", cmd.CommandPath())
	}
}

// printFlags shows detailed flags on leaf commands and a compact inline
// list on parents.
func printFlags(cmd *cobra.Command) {
	var visible []*pflag.Flag
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			visible = append(visible, f)
		}
	})
	if len(visible) == 0 {
		return
	}

	if cmd.HasAvailableSubCommands() {
		var flags []string
		for _, f := range visible {
			if f.Shorthand != "" {
				flags = append(flags, fmt.Sprintf("-%s/--%s", f.Shorthand, f.Name))
			} else {
				flags = append(flags, "--"+f.Name)
			}
		}
		fmt.Println("\n " + helpMuted.Render("Flags: "+strings.Join(flags, ", ")))
		return
	}

	fmt.Println("\n " + helpSection.Render("FLAGS"))
	maxLen := 0
	for _, f := range visible {
		if n := len(formatFlagName(f)); n > maxLen {
			maxLen = n
		}
	}
	for _, f := range visible {
		name := formatFlagName(f)
		usage := f.Usage
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "[]" {
			usage += helpMuted.Render(fmt.Sprintf(" (default: %s)", f.DefValue))
		}
		fmt.Printf(" %s%s  %s\n", helpFlag.Render(name), strings.Repeat(" ", maxLen-len(name)), usage)
	}
}

func printExamples(examples string) {
	for _, line := range strings.Split(examples, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			fmt.Println()
		case strings.HasPrefix(trimmed, "#"):
			fmt.Println(" " + helpMuted.Render(trimmed))
		default:
			fmt.Println("  " + styleExampleLine(trimmed))
		}
	}
}

func styleExampleLine(line string) string {
	parts := strings.Fields(line)
	var result []string
	for i, part := range parts {
		switch {
		case i == 0:
			result = append(result, helpCommand.Render(part))
		case i == 1 && !strings.HasPrefix(part, "-"):
			result = append(result, helpSection.Render(part))
		case strings.HasPrefix(part, "-"):
			result = append(result, helpMuted.Render(part))
		default:
			result = append(result, part)
		}
	}
	return " " + strings.Join(result, " ")
}

func formatFlagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	}
	return fmt.Sprintf("    --%s", f.Name)
}
