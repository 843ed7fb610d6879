// Package testhelpers provides testing utilities for confgit, including
// Git repository fixtures and small generic helpers.
package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Must panics if err is not nil, otherwise returns the value. This is
// useful for test setup code where errors are not expected and should
// halt execution immediately.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// GitRemote is a bare repository standing in for the shared config repo
// during tests.
type GitRemote struct {
	Dir string
}

// NewBareRemote creates an empty bare repository rooted at dir.
func NewBareRemote(dir string) (*GitRemote, error) {
	cmd := exec.Command("git", "-c", "init.defaultBranch=main", "init", "--bare", dir)
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to init bare repo: %w", err)
	}
	return &GitRemote{Dir: dir}, nil
}

// NewSeededRemote creates a bare repository whose main branch already
// carries one commit with the given files.
func NewSeededRemote(dir string, files map[string]string) (*GitRemote, error) {
	remote, err := NewBareRemote(dir)
	if err != nil {
		return nil, err
	}
	if err := remote.Seed("Initial commit", files); err != nil {
		return nil, err
	}
	return remote, nil
}

// URL returns the address clients should clone from.
func (r *GitRemote) URL() string {
	return r.Dir
}

// Seed commits the given files to main through a throwaway clone and
// pushes the result.
func (r *GitRemote) Seed(message string, files map[string]string) error {
	seedDir := strings.TrimSuffix(r.Dir, ".git") + "-seed"
	repo, err := CloneRemote(r, seedDir)
	if err != nil {
		return err
	}
	defer os.RemoveAll(seedDir)

	for name, content := range files {
		if err := repo.WriteFile(name, content); err != nil {
			return err
		}
	}
	if err := repo.CommitAll(message); err != nil {
		return err
	}
	return repo.Push()
}

// CommitCount returns the number of commits reachable from the branch tip.
func (r *GitRemote) CommitCount(branch string) (int, error) {
	out, err := gitOutputIn(r.Dir, "rev-list", "--count", branch)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(out)
}

// BranchSHA returns the commit ID at the tip of the branch.
func (r *GitRemote) BranchSHA(branch string) (string, error) {
	return gitOutputIn(r.Dir, "rev-parse", branch)
}

// GitRepo is a working clone used to act as another writer pushing to the
// same remote.
type GitRepo struct {
	Dir string
}

// CloneRemote clones the remote into dir and configures a committer
// identity, since commits fail without one.
func CloneRemote(remote *GitRemote, dir string) (*GitRepo, error) {
	cmd := exec.Command("git", "clone", remote.Dir, dir)
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to clone repo: %w", err)
	}
	repo := &GitRepo{Dir: dir}
	if err := repo.runGit("config", "user.name", "Test User"); err != nil {
		return nil, err
	}
	if err := repo.runGit("config", "user.email", "test@example.com"); err != nil {
		return nil, err
	}
	return repo, nil
}

// WriteFile writes content to a slash-separated path inside the clone,
// creating parent directories as needed.
func (r *GitRepo) WriteFile(name, content string) error {
	filePath := filepath.Join(r.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(filePath), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filePath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// ReadFile returns the content of a slash-separated path inside the clone.
func (r *GitRepo) ReadFile(name string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(r.Dir, filepath.FromSlash(name)))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// CommitAll stages everything and commits.
func (r *GitRepo) CommitAll(message string) error {
	if err := r.runGit("add", "-A"); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	if err := r.runGit("commit", "-m", message); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Push publishes the current branch to origin.
func (r *GitRepo) Push() error {
	cmd := exec.Command("git", "push", "-u", "origin", "HEAD")
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("push failed: %w, output: %s", err, string(output))
	}
	return nil
}

// Pull brings the clone up to date with origin.
func (r *GitRepo) Pull() error {
	return r.runGit("pull", "--ff")
}

// HeadSHA returns the commit ID at HEAD.
func (r *GitRepo) HeadSHA() (string, error) {
	return gitOutputIn(r.Dir, "rev-parse", "HEAD")
}

// CommitCount returns the number of commits reachable from HEAD.
func (r *GitRepo) CommitCount() (int, error) {
	out, err := gitOutputIn(r.Dir, "rev-list", "--count", "HEAD")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(out)
}

// FingerprintFor returns the ID of the most recent commit touching the
// slash-separated path, or an empty string if no commit does.
func (r *GitRepo) FingerprintFor(path string) (string, error) {
	return gitOutputIn(r.Dir, "log", "-n", "1", "--format=%H", "--", path)
}

// LastAuthor returns the author of the commit at HEAD as "Name <email>".
func (r *GitRepo) LastAuthor() (string, error) {
	return gitOutputIn(r.Dir, "log", "-1", "--format=%an <%ae>")
}

// ListCommitMessages returns the subject lines reachable from HEAD,
// newest first.
func (r *GitRepo) ListCommitMessages() ([]string, error) {
	out, err := gitOutputIn(r.Dir, "log", "--format=%s")
	if err != nil {
		return nil, err
	}
	lines := []string{}
	for _, line := range strings.Split(out, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// RunGitCommand executes a git command in the clone directory.
func (r *GitRepo) RunGitCommand(args ...string) error {
	return r.runGit(args...)
}

func (r *GitRepo) runGit(args ...string) error {
	return runGitIn(r.Dir, args...)
}

// runGitIn executes a git command in dir. GIT_CONFIG_GLOBAL=/dev/null
// keeps the host's global config from leaking into fixtures.
func runGitIn(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if os.Getenv("DEBUG") != "" {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

func gitOutputIn(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git command failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}
