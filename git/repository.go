package git

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/lwd-temp/gitbutler/command"
	"github.com/lwd-temp/gitbutler/errors"
)

// CLIRepository implements RepositoryProvider using the git CLI
type CLIRepository struct {
	cmdBuilder *command.SafeBuilder
}

// Ensure it implements the interfaces
var (
	_ RepositoryProvider = (*CLIRepository)(nil)
	_ ConfigProvider     = (*CLIRepository)(nil)
)

// NewCLIRepository creates a new CLI repository provider
func NewCLIRepository() *CLIRepository {
	return &CLIRepository{
		cmdBuilder: command.NewSafeBuilder(),
	}
}

// run executes a git command in dir and returns its trimmed stdout.
func (r *CLIRepository) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd, err := r.cmdBuilder.Build(ctx, "git", args...)
	if err != nil {
		return "", errors.CommandFailed("git "+strings.Join(args, " "), err)
	}
	execCmd := cmd.Exec()
	if dir != "" {
		execCmd.Dir = dir
	}
	var stderr bytes.Buffer
	execCmd.Stderr = &stderr
	output, err := execCmd.Output()
	if err != nil {
		return "", errors.GitFailed(args[0], err).
			WithDetail("stderr", strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(string(output)), nil
}

// IsGitRepo checks if a directory is inside a git work tree
func (r *CLIRepository) IsGitRepo(ctx context.Context, dir string) bool {
	out, err := r.run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// GetGitRoot returns the top-level directory of the git work tree
func (r *CLIRepository) GetGitRoot(ctx context.Context, dir string) (string, error) {
	root, err := r.run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", errors.GitNotRepo(dir)
	}
	return root, nil
}

// Head returns the full symbolic name of the current HEAD, e.g.
// "refs/heads/main". A detached HEAD resolves to the commit id.
func (r *CLIRepository) Head(ctx context.Context, dir string) (string, error) {
	ref, err := r.run(ctx, dir, "symbolic-ref", "-q", "HEAD")
	if err == nil && ref != "" {
		return ref, nil
	}
	// Detached HEAD: fall back to the commit id
	return r.run(ctx, dir, "rev-parse", "HEAD")
}

// RemoteBranches lists remote-tracking branch names (e.g. "origin/main").
func (r *CLIRepository) RemoteBranches(ctx context.Context, dir string) ([]string, error) {
	out, err := r.run(ctx, dir, "branch", "--remotes", "--format", "%(refname:short)")
	if err != nil {
		return nil, err
	}

	var branches []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.Contains(line, "HEAD") {
			continue
		}
		branches = append(branches, line)
	}
	return branches, nil
}

// IndexSize returns the number of entries in the git index.
func (r *CLIRepository) IndexSize(ctx context.Context, dir string) (int, error) {
	out, err := r.run(ctx, dir, "ls-files", "--cached")
	if err != nil {
		return 0, err
	}
	if out == "" {
		return 0, nil
	}
	return strings.Count(out, "\n") + 1, nil
}

// TestPush performs a dry-run push of branch to remote.
func (r *CLIRepository) TestPush(ctx context.Context, dir, remote, branch string) error {
	if err := r.cmdBuilder.Validate("remoteName", remote); err != nil {
		return errors.InvalidInput(err.Error())
	}
	if err := r.cmdBuilder.Validate("gitRef", branch); err != nil {
		return errors.InvalidInput(err.Error())
	}
	_, err := r.run(ctx, dir, "push", "--dry-run", remote, branch)
	return err
}

// TestFetch performs a dry-run fetch from remote.
func (r *CLIRepository) TestFetch(ctx context.Context, dir, remote string) error {
	if err := r.cmdBuilder.Validate("remoteName", remote); err != nil {
		return errors.InvalidInput(err.Error())
	}
	_, err := r.run(ctx, dir, "fetch", "--dry-run", remote)
	return err
}

// GetGlobal reads a key from the user-global git configuration. The second
// return value reports whether the key was present.
func (r *CLIRepository) GetGlobal(ctx context.Context, key string) (string, bool, error) {
	if err := r.cmdBuilder.Validate("configKey", key); err != nil {
		return "", false, errors.InvalidInput(err.Error())
	}
	out, err := r.run(ctx, "", "config", "--global", "--get", key)
	if err != nil {
		// git config --get exits 1 when the key is absent
		if errors.Is(err, errors.ErrCodeGitFailed) {
			return "", false, nil
		}
		return "", false, err
	}
	return out, true, nil
}

// SetGlobal writes a key to the user-global git configuration.
func (r *CLIRepository) SetGlobal(ctx context.Context, key, value string) error {
	if err := r.cmdBuilder.Validate("configKey", key); err != nil {
		return errors.InvalidInput(err.Error())
	}
	_, err := r.run(ctx, "", "config", "--global", key, value)
	return err
}
