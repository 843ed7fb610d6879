package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"

	confgiterrors "confgit.dev/confgit/internal/errors"
	"confgit.dev/confgit/internal/metrics"
)

// Fallback author name and email for commits recorded without a principal
const (
	DefaultAuthorName  = "Console UI"
	DefaultAuthorEmail = "console@example.com"
)

// SyncResult describes the outcome of a Sync
type SyncResult int

const (
	// SyncFailed is the zero value, returned together with an error
	SyncFailed SyncResult = iota
	// SyncMerged indicates the remote branch was merged or fast-forwarded cleanly
	SyncMerged
	// SyncEmptyRemote indicates the remote has no history for the tracked branch yet
	SyncEmptyRemote
	// SyncConflictReset indicates the merge conflicted and the local branch was
	// hard reset to the remote tip, discarding unpublished local commits
	SyncConflictReset
)

// Merged reports whether the remote was integrated cleanly
func (r SyncResult) Merged() bool {
	return r == SyncMerged
}

func (r SyncResult) String() string {
	switch r {
	case SyncMerged:
		return "merged"
	case SyncEmptyRemote:
		return "empty_remote"
	case SyncConflictReset:
		return "conflict_reset"
	default:
		return "failed"
	}
}

// Author identifies the author of a commit
type Author struct {
	Name  string
	Email string
}

// Options configures a Client
type Options struct {
	// URL of the remote repository. Required.
	URL string
	// Remote name. Defaults to origin.
	Remote string
	// Branch tracked on both sides. Defaults to main.
	Branch string
	// LocalPath is where the clone lives. Required.
	LocalPath string
	// Timeout bounds clone, fetch and push. Defaults to 30s.
	Timeout time.Duration
	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

// Client owns one local clone of one remote repository and provides the
// serialized primitive operations the document store is built on.
type Client struct {
	url    string
	remote string
	branch string
	local  string
	runner *CommandRunner
	logger *zap.Logger

	mu sync.Mutex
}

// NewClient creates a Client for the given remote. The local clone is not
// touched until EnsureReady.
func NewClient(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("repository URL is required")
	}
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("local repository path is required")
	}
	if opts.Remote == "" {
		opts.Remote = "origin"
	}
	if opts.Branch == "" {
		opts.Branch = "main"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultCommandTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	local, err := filepath.Abs(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve local path: %w", err)
	}
	return &Client{
		url:    opts.URL,
		remote: opts.Remote,
		branch: opts.Branch,
		local:  local,
		runner: NewCommandRunnerWithTimeout(local, opts.Timeout),
		logger: opts.Logger,
	}, nil
}

// Lock acquires the repository lock and returns the unlock function. Every
// sequence of primitive calls that touches the working tree or the branch
// pointer runs inside one Lock window; the primitives themselves never lock.
func (c *Client) Lock() func() {
	c.mu.Lock()
	return c.mu.Unlock
}

// LocalPath returns the path of the local clone
func (c *Client) LocalPath() string {
	return c.local
}

// Branch returns the tracked branch name
func (c *Client) Branch() string {
	return c.branch
}

// Remote returns the remote name
func (c *Client) Remote() string {
	return c.remote
}

// URL returns the remote repository URL
func (c *Client) URL() string {
	return c.url
}

// EnsureReady clones the remote if no local clone exists, otherwise verifies
// the clone opens and syncs it. It also pins a repo-local fallback committer
// identity so merge commits cannot fail on hosts without git config.
func (c *Client) EnsureReady(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(c.local, ".git")); err == nil {
		c.logger.Info("repo already cloned, syncing",
			zap.String("path", c.local),
			zap.String("remote", c.remote),
			zap.String("branch", c.branch))
		if _, err := c.open(); err != nil {
			return confgiterrors.NewRepositoryError("open repository at "+c.local, err)
		}
		if err := c.ensureIdentity(ctx); err != nil {
			return err
		}
		_, err := c.Sync(ctx)
		return err
	}

	c.logger.Info("no local repo found, cloning",
		zap.String("path", c.local),
		zap.String("url", c.url))
	if err := c.clone(ctx); err != nil {
		return err
	}
	return c.ensureIdentity(ctx)
}

func (c *Client) clone(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(c.local), 0o755); err != nil {
		return confgiterrors.NewRepositoryError("create parent directory for clone", err)
	}

	cloneRunner := NewCommandRunnerWithTimeout("", c.runner.timeout)
	env := []string{"GIT_TERMINAL_PROMPT=0"}

	_, err := cloneRunner.RunWithEnv(ctx, env,
		"clone", "--origin", c.remote, "--branch", c.branch, c.url, c.local)
	if err == nil {
		return nil
	}

	// Cloning a branch that the remote has never had a commit on fails; an
	// empty remote is tolerated so that first-time pushes can bootstrap it.
	var cmdErr *confgiterrors.GitCommandError
	if errors.As(err, &cmdErr) && cmdErr.StderrContains("not found in upstream") {
		c.logger.Warn("remote branch not found, cloning without it (empty remote?)",
			zap.String("branch", c.branch))
		if _, err := cloneRunner.RunWithEnv(ctx, env, "clone", "--origin", c.remote, c.url, c.local); err != nil {
			return classifyGitError("clone repository from "+c.url, err)
		}
		if _, err := c.runner.Run(ctx, "symbolic-ref", "HEAD", "refs/heads/"+c.branch); err != nil {
			return confgiterrors.NewRepositoryError("point HEAD at branch "+c.branch, err)
		}
		return nil
	}

	return classifyGitError("clone repository from "+c.url, err)
}

// ensureIdentity sets a repo-local committer identity when none is configured.
func (c *Client) ensureIdentity(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, "config", "user.name"); err == nil {
		return nil
	}
	if _, err := c.runner.Run(ctx, "config", "user.name", DefaultAuthorName); err != nil {
		return confgiterrors.NewRepositoryError("set fallback committer name", err)
	}
	if _, err := c.runner.Run(ctx, "config", "user.email", DefaultAuthorEmail); err != nil {
		return confgiterrors.NewRepositoryError("set fallback committer email", err)
	}
	return nil
}

// Sync fetches the tracked branch and merges it into the local branch,
// fast-forward allowed, never auto-resolving content conflicts. On a
// conflicting merge the local branch is hard reset to the remote tip and all
// unpublished local commits are discarded. A remote with no history on the
// branch is tolerated and reported as SyncEmptyRemote.
func (c *Client) Sync(ctx context.Context) (SyncResult, error) {
	if _, err := c.runner.RunWithEnv(ctx, []string{"GIT_TERMINAL_PROMPT=0"}, "fetch", c.remote, c.branch); err != nil {
		var cmdErr *confgiterrors.GitCommandError
		if errors.As(err, &cmdErr) && cmdErr.StderrContains("couldn't find remote ref") {
			c.logger.Warn("could not fetch, possibly due to the remote repo being empty (no commits)",
				zap.String("remote", c.remote),
				zap.String("branch", c.branch))
			metrics.RecordSync(SyncEmptyRemote.String())
			return SyncEmptyRemote, nil
		}
		metrics.RecordSync(SyncFailed.String())
		return SyncFailed, classifyGitError("fetch "+c.branch+" from "+c.remote, err)
	}

	remoteRef := fmt.Sprintf("refs/remotes/%s/%s", c.remote, c.branch)

	// A clone taken while the remote was still empty has an unborn HEAD.
	// Adopting the remote tip directly is the fast-forward for that case.
	if _, err := c.runner.Run(ctx, "rev-parse", "--verify", "HEAD"); err != nil {
		if _, err := c.runner.Run(ctx, "reset", "--hard", remoteRef); err != nil {
			metrics.RecordSync(SyncFailed.String())
			return SyncFailed, confgiterrors.NewRepositoryError("adopt remote tip "+remoteRef, err)
		}
		metrics.RecordSync(SyncMerged.String())
		return SyncMerged, nil
	}

	_, err := c.runner.Run(ctx, "merge", "--ff", "--no-edit", "--allow-unrelated-histories", remoteRef)
	if err == nil {
		metrics.RecordSync(SyncMerged.String())
		return SyncMerged, nil
	}

	conflicting, _ := c.runner.Run(ctx, "diff", "--name-only", "--diff-filter=U")
	c.logger.Warn("merge resulted in conflict(s), discarding local changes",
		zap.Strings("files", splitLines(conflicting)))
	if _, err := c.runner.Run(ctx, "reset", "--hard", remoteRef); err != nil {
		metrics.RecordSync(SyncFailed.String())
		return SyncFailed, confgiterrors.NewRepositoryError("reset to "+remoteRef, err)
	}
	metrics.RecordSync(SyncConflictReset.String())
	return SyncConflictReset, nil
}

// Stage is the equivalent of git add for a single path relative to the
// repository root.
func (c *Client) Stage(path string) error {
	repo, err := c.open()
	if err != nil {
		return confgiterrors.NewRepositoryError("open repository", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return confgiterrors.NewRepositoryError("open worktree", err)
	}
	if _, err := worktree.Add(filepath.ToSlash(path)); err != nil {
		return confgiterrors.NewRepositoryError("add files for path "+path, err)
	}
	return nil
}

// Commit records a commit from the staged changes and returns its ID. Author
// fields left empty fall back to the fixed placeholder identity. Nothing
// staged is an error.
func (c *Client) Commit(message string, author Author) (string, error) {
	if author.Name == "" {
		author.Name = DefaultAuthorName
	}
	if author.Email == "" {
		author.Email = DefaultAuthorEmail
	}

	repo, err := c.open()
	if err != nil {
		return "", confgiterrors.NewRepositoryError("open repository", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", confgiterrors.NewRepositoryError("open worktree", err)
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  author.Name,
			Email: author.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", confgiterrors.NewRepositoryError("commit", err)
	}
	return hash.String(), nil
}

// FingerprintForPath returns the ID of the latest commit touching the given
// path, or the empty string when no commit ever touched it.
func (c *Client) FingerprintForPath(path string) (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", confgiterrors.NewRepositoryError("open repository", err)
	}
	name := filepath.ToSlash(path)
	iter, err := repo.Log(&git.LogOptions{FileName: &name})
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			// No commits at all yet.
			return "", nil
		}
		return "", confgiterrors.NewRepositoryError("get latest commit ID for file "+path, err)
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			c.logger.Debug("no commits for file path", zap.String("path", path))
			return "", nil
		}
		return "", confgiterrors.NewRepositoryError("get latest commit ID for file "+path, err)
	}
	return commit.Hash.String(), nil
}

// Push publishes local commits to the remote. The push is atomic: a rejected
// ref fails the whole operation.
func (c *Client) Push(ctx context.Context) error {
	if _, err := c.runner.RunWithEnv(ctx, []string{"GIT_TERMINAL_PROMPT=0"}, "push", "--atomic", c.remote, c.branch); err != nil {
		return classifyGitError("push to "+c.remote, err)
	}
	return nil
}

func (c *Client) open() (*git.Repository, error) {
	return git.PlainOpenWithOptions(c.local, &git.PlainOpenOptions{DetectDotGit: false})
}

// transportFragments are stderr markers of failures reaching or
// authenticating against the remote, as opposed to local repository problems.
var transportFragments = []string{
	"could not resolve host",
	"unable to access",
	"could not read from remote repository",
	"connection refused",
	"connection timed out",
	"operation timed out",
	"authentication failed",
	"failed to connect",
	"does not appear to be a git repository",
	"permission denied",
}

// classifyGitError maps a git binary failure to the transport or repository
// side of the error taxonomy.
func classifyGitError(op string, err error) error {
	var cmdErr *confgiterrors.GitCommandError
	if errors.As(err, &cmdErr) {
		if errors.Is(cmdErr.Err, context.DeadlineExceeded) {
			return confgiterrors.NewTransportError(op, err)
		}
		for _, fragment := range transportFragments {
			if cmdErr.StderrContains(fragment) {
				return confgiterrors.NewTransportError(op, err)
			}
		}
	}
	return confgiterrors.NewRepositoryError(op, err)
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
