package git

import "context"

// RepositoryProvider defines read access to repository metadata for one
// project work directory. The watcher uses it to detect session boundaries;
// the app façade uses it for single-shot queries.
type RepositoryProvider interface {
	// Repository information
	IsGitRepo(ctx context.Context, dir string) bool
	GetGitRoot(ctx context.Context, dir string) (string, error)
	Head(ctx context.Context, dir string) (string, error)
	RemoteBranches(ctx context.Context, dir string) ([]string, error)
	IndexSize(ctx context.Context, dir string) (int, error)

	// Remote connectivity checks (dry-run, no refs are moved)
	TestPush(ctx context.Context, dir, remote, branch string) error
	TestFetch(ctx context.Context, dir, remote string) error
}

// ConfigProvider defines access to the user-global git configuration.
type ConfigProvider interface {
	GetGlobal(ctx context.Context, key string) (string, bool, error)
	SetGlobal(ctx context.Context, key, value string) error
}
