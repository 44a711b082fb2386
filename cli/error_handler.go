package cli

import (
	"fmt"
	"os"

	"github.com/lwd-temp/gitbutler/errors"
)

// ErrorHandler turns butler errors into actionable messages.
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates an error handler.
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{Verbose: verbose}
}

// Handle prints a user-friendly message for the error and returns it
// unchanged so callers can still propagate it.
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeProjectNotFound:
		fmt.Fprintf(os.Stderr, "❌ Project not found\n")
		fmt.Fprintf(os.Stderr, "Run 'butler projects list' to see tracked projects.\n")

	case errors.ErrCodeProjectExists:
		if butlerErr, ok := err.(*errors.ButlerError); ok {
			fmt.Fprintf(os.Stderr, "❌ Project at '%s' is already tracked\n", butlerErr.Details["path"])
		}

	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "❌ Configuration not found. Create %s or pass --config.\n", "~/.config/butler/butler.yml")

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		fmt.Fprintf(os.Stderr, "❌ Configuration is invalid: %v\n", err)
		fmt.Fprintf(os.Stderr, "Run 'butler config schema' to see the expected format.\n")

	case errors.ErrCodeGitNotInstalled:
		fmt.Fprintf(os.Stderr, "❌ git is not installed or not on PATH\n")

	case errors.ErrCodeGitNotRepo:
		fmt.Fprintf(os.Stderr, "❌ Not a git repository\n")

	case errors.ErrCodeWatchFailed:
		fmt.Fprintf(os.Stderr, "❌ Could not watch the project: %v\n", err)
		fmt.Fprintf(os.Stderr, "Check that the project path still exists and 'butler run' is active.\n")

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
	}

	if h.Verbose {
		if butlerErr, ok := err.(*errors.ButlerError); ok {
			fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", butlerErr.ToJSON())
		}
	}
	return err
}
