package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	confgiterrors "confgit.dev/confgit/internal/errors"
	"confgit.dev/confgit/internal/metrics"
)

// DefaultCommandTimeout bounds git commands when the calling context carries
// no deadline of its own.
const DefaultCommandTimeout = 30 * time.Second

// CommandRunner handles execution of git commands in one working directory
type CommandRunner struct {
	workingDir string
	timeout    time.Duration
}

// NewCommandRunner creates a new CommandRunner rooted at workingDir
func NewCommandRunner(workingDir string) *CommandRunner {
	return &CommandRunner{workingDir: workingDir, timeout: DefaultCommandTimeout}
}

// NewCommandRunnerWithTimeout creates a new CommandRunner with a custom
// default timeout for commands whose context has no deadline
func NewCommandRunnerWithTimeout(workingDir string, timeout time.Duration) *CommandRunner {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &CommandRunner{workingDir: workingDir, timeout: timeout}
}

// WorkingDir returns the directory commands run in
func (r *CommandRunner) WorkingDir() string {
	return r.workingDir
}

// Run executes a git command and returns its trimmed stdout
func (r *CommandRunner) Run(ctx context.Context, args ...string) (string, error) {
	return r.runInternal(ctx, nil, args...)
}

// RunWithEnv executes a git command with extra environment variables appended
// to the inherited environment
func (r *CommandRunner) RunWithEnv(ctx context.Context, env []string, args ...string) (string, error) {
	return r.runInternal(ctx, env, args...)
}

func (r *CommandRunner) runInternal(ctx context.Context, env []string, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// If no timeout/deadline is set in the context, add the default one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	if r.workingDir != "" {
		cmd.Dir = r.workingDir
	}
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	metrics.ObserveGitCommand(subcommand(args), time.Since(started), err == nil)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", confgiterrors.NewGitCommandError("git", args, stdout.String(), stderr.String(), ctx.Err())
		}
		return "", confgiterrors.NewGitCommandError("git", args, stdout.String(), stderr.String(), err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// RunGitCommandInDir executes a single git command in a specific directory
func RunGitCommandInDir(ctx context.Context, dir string, args ...string) (string, error) {
	runner := NewCommandRunner(dir)
	return runner.Run(ctx, args...)
}

// subcommand extracts the git subcommand for metric labels, skipping any
// leading -c/-C option pairs
func subcommand(args []string) string {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-c", "-C":
			i++
		default:
			return args[i]
		}
	}
	return "git"
}
