// Package doctor runs diagnostic checks against a confgit setup: the
// git binary, the configuration, the local clone and the remote.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"confgit.dev/confgit/internal/config"
	"confgit.dev/confgit/internal/git"
)

// Status grades a single check.
type Status int

const (
	StatusOK Status = iota
	StatusWarn
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarn:
		return "warn"
	default:
		return "fail"
	}
}

// Result is the outcome of one check.
type Result struct {
	Name   string
	Status Status
	Detail string
}

// Options configures a doctor run.
type Options struct {
	Settings *config.Settings
	Logger   *zap.Logger
	// GitHubBaseURL overrides the GitHub API endpoint, for tests.
	GitHubBaseURL string
}

// Run executes all checks and returns their results in order.
func Run(ctx context.Context, opts Options) []Result {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	results := []Result{
		checkGitBinary(ctx),
		checkSettings(opts.Settings),
		checkLocalClone(ctx, opts.Settings),
		checkRemote(ctx, opts.Settings),
	}
	if result, ran := checkGitHub(ctx, opts); ran {
		results = append(results, result)
	}

	for _, result := range results {
		opts.Logger.Debug("doctor check",
			zap.String("name", result.Name),
			zap.String("status", result.Status.String()),
			zap.String("detail", result.Detail))
	}
	return results
}

// Healthy reports whether no check failed. Warnings are tolerated.
func Healthy(results []Result) bool {
	for _, result := range results {
		if result.Status == StatusFail {
			return false
		}
	}
	return true
}

func checkGitBinary(ctx context.Context) Result {
	if _, err := exec.LookPath("git"); err != nil {
		return Result{Name: "git binary", Status: StatusFail, Detail: "git is not installed or not in PATH"}
	}
	version, err := exec.CommandContext(ctx, "git", "version").Output()
	if err != nil {
		return Result{Name: "git binary", Status: StatusFail, Detail: fmt.Sprintf("git version failed: %v", err)}
	}
	return Result{Name: "git binary", Status: StatusOK, Detail: strings.TrimSpace(string(version))}
}

func checkSettings(settings *config.Settings) Result {
	if settings == nil {
		return Result{Name: "configuration", Status: StatusFail, Detail: "no configuration loaded"}
	}
	if err := settings.Validate(); err != nil {
		return Result{Name: "configuration", Status: StatusFail, Detail: err.Error()}
	}
	return Result{Name: "configuration", Status: StatusOK, Detail: "repository " + settings.Repository.URL}
}

func checkLocalClone(ctx context.Context, settings *config.Settings) Result {
	if settings == nil || settings.Repository.Local == "" {
		return Result{Name: "local clone", Status: StatusWarn, Detail: "no local path configured"}
	}
	local := settings.Repository.Local
	if _, err := os.Stat(filepath.Join(local, ".git")); err != nil {
		return Result{Name: "local clone", Status: StatusWarn, Detail: "not cloned yet, created on first run"}
	}

	branch, err := git.RunGitCommandInDir(ctx, local, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return Result{Name: "local clone", Status: StatusFail, Detail: fmt.Sprintf("clone does not open: %v", err)}
	}
	if branch != settings.Repository.Branch {
		return Result{Name: "local clone", Status: StatusWarn,
			Detail: fmt.Sprintf("clone is on branch %s, configured branch is %s", branch, settings.Repository.Branch)}
	}
	return Result{Name: "local clone", Status: StatusOK, Detail: "on branch " + branch}
}

func checkRemote(ctx context.Context, settings *config.Settings) Result {
	if settings == nil || settings.Repository.URL == "" {
		return Result{Name: "remote", Status: StatusFail, Detail: "no repository URL configured"}
	}

	runner := git.NewCommandRunnerWithTimeout("", settings.Repository.Timeout)
	out, err := runner.RunWithEnv(ctx, []string{"GIT_TERMINAL_PROMPT=0"},
		"ls-remote", settings.Repository.URL, settings.Repository.Branch)
	if err != nil {
		return Result{Name: "remote", Status: StatusFail, Detail: fmt.Sprintf("remote not reachable: %v", err)}
	}
	if strings.TrimSpace(out) == "" {
		return Result{Name: "remote", Status: StatusWarn,
			Detail: fmt.Sprintf("reachable, but branch %s has no history yet", settings.Repository.Branch)}
	}
	return Result{Name: "remote", Status: StatusOK, Detail: "branch " + settings.Repository.Branch + " reachable"}
}
