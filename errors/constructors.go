package errors

import (
	"fmt"
	"os/exec"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *ButlerError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *ButlerError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// ProjectNotFound creates a project not found error
func ProjectNotFound(id string) *ButlerError {
	return New(ErrCodeProjectNotFound, fmt.Sprintf("project '%s' not found", id)).
		WithDetail("project", id)
}

// ProjectExists creates a duplicate project error
func ProjectExists(path string) *ButlerError {
	return New(ErrCodeProjectExists, fmt.Sprintf("project already registered for path: %s", path)).
		WithDetail("path", path)
}

// WatchFailed creates a filesystem observation failure error
func WatchFailed(projectID string, err error) *ButlerError {
	return Wrap(err, ErrCodeWatchFailed, fmt.Sprintf("failed to watch project '%s'", projectID)).
		WithDetail("project", projectID)
}

// DiffFailed creates a delta computation failure error
func DiffFailed(path string, err error) *ButlerError {
	return Wrap(err, ErrCodeDiffFailed, fmt.Sprintf("failed to compute delta for %s", path)).
		WithDetail("path", path)
}

// SessionFailed creates a session store failure error
func SessionFailed(projectID string, err error) *ButlerError {
	return Wrap(err, ErrCodeSessionFailed, fmt.Sprintf("session operation failed for project '%s'", projectID)).
		WithDetail("project", projectID)
}

// DeltaFailed creates a delta persistence failure error
func DeltaFailed(path string, err error) *ButlerError {
	return Wrap(err, ErrCodeDeltaFailed, fmt.Sprintf("failed to record delta for %s", path)).
		WithDetail("path", path)
}

// IndexFailed creates a search indexing failure error
func IndexFailed(path string, err error) *ButlerError {
	return Wrap(err, ErrCodeIndexFailed, fmt.Sprintf("failed to index %s", path)).
		WithDetail("path", path)
}

// GitNotRepo creates an error for a path that is not a git work directory
func GitNotRepo(path string) *ButlerError {
	return New(ErrCodeGitNotRepo, fmt.Sprintf("not a git repository: %s", path)).
		WithDetail("path", path)
}

// GitFailed creates a git plumbing failure error
func GitFailed(op string, err error) *ButlerError {
	return Wrap(err, ErrCodeGitFailed, fmt.Sprintf("git %s failed", op)).
		WithDetail("operation", op)
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *ButlerError {
	butlerErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	// Extract exit code if available
	if exitErr, ok := err.(*exec.ExitError); ok {
		butlerErr = butlerErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return butlerErr
}

// CommandTimeout creates a command timeout error
func CommandTimeout(cmd string, timeout string) *ButlerError {
	return New(ErrCodeCommandTimeout,
		fmt.Sprintf("command '%s' timed out after %s", cmd, timeout)).
		WithDetail("command", cmd).
		WithDetail("timeout", timeout)
}

// DatabaseOpen creates a database open failure error
func DatabaseOpen(path string, err error) *ButlerError {
	return Wrap(err, ErrCodeDatabaseOpen, fmt.Sprintf("failed to open database at %s", path)).
		WithDetail("path", path)
}

// InvalidInput creates an invalid input error
func InvalidInput(message string) *ButlerError {
	return New(ErrCodeInvalidInput, message)
}

// Internal creates an internal error
func Internal(message string, err error) *ButlerError {
	return Wrap(err, ErrCodeInternal, message)
}
