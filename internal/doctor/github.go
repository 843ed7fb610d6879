package doctor

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

// repoInfo identifies a repository hosted on GitHub or GitHub Enterprise.
type repoInfo struct {
	Hostname string
	Owner    string
	Repo     string
}

// checkGitHub verifies API access to the config repository when it lives
// on GitHub. The check is skipped (ran=false) for non-GitHub remotes and
// downgraded to a warning when no token is configured.
func checkGitHub(ctx context.Context, opts Options) (Result, bool) {
	if opts.Settings == nil {
		return Result{}, false
	}
	info, err := parseGitHubRemoteURL(opts.Settings.Repository.URL)
	if err != nil {
		return Result{}, false
	}

	token := githubToken()
	if token == "" {
		return Result{Name: "github api", Status: StatusWarn,
			Detail: "no token found, set CONFGIT_GITHUB_TOKEN or GITHUB_TOKEN to enable API checks"}, true
	}

	client, err := newGitHubClient(ctx, info.Hostname, token, opts.GitHubBaseURL)
	if err != nil {
		return Result{Name: "github api", Status: StatusFail, Detail: err.Error()}, true
	}

	repo, _, err := client.Repositories.Get(ctx, info.Owner, info.Repo)
	if err != nil {
		return Result{Name: "github api", Status: StatusFail,
			Detail: fmt.Sprintf("could not fetch %s/%s: %v", info.Owner, info.Repo, err)}, true
	}

	visibility := "public"
	if repo.GetPrivate() {
		visibility = "private"
	}
	return Result{Name: "github api", Status: StatusOK,
		Detail: fmt.Sprintf("%s/%s (%s, default branch %s)",
			info.Owner, info.Repo, visibility, repo.GetDefaultBranch())}, true
}

// githubToken resolves the API token, preferring the confgit-specific
// variable over the generic one.
func githubToken() string {
	if token := os.Getenv("CONFGIT_GITHUB_TOKEN"); token != "" {
		return token
	}
	return os.Getenv("GITHUB_TOKEN")
}

// newGitHubClient builds an authenticated client, pointing it at the
// enterprise endpoints when the hostname is not github.com.
func newGitHubClient(ctx context.Context, hostname, token, baseOverride string) (*github.Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	base := baseOverride
	if base == "" && hostname != "github.com" {
		base = fmt.Sprintf("https://%s/api/v3/", hostname)
	}
	if base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		baseURL, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("could not parse GitHub base URL %s: %w", base, err)
		}
		client.BaseURL = baseURL
	}
	return client, nil
}

// parseGitHubRemoteURL extracts hostname, owner and repo from an HTTPS or
// SSH remote URL. Errors mean the URL does not look like a GitHub repo.
func parseGitHubRemoteURL(remoteURL string) (*repoInfo, error) {
	remoteURL = strings.TrimSuffix(strings.TrimSpace(remoteURL), ".git")

	var hostname, repoPath string
	switch {
	case strings.HasPrefix(remoteURL, "https://"), strings.HasPrefix(remoteURL, "http://"):
		parsed, err := url.Parse(remoteURL)
		if err != nil {
			return nil, fmt.Errorf("invalid remote URL: %w", err)
		}
		hostname = parsed.Hostname()
		repoPath = strings.TrimPrefix(parsed.Path, "/")
	case strings.Contains(remoteURL, "@"):
		hostAndPath := remoteURL[strings.Index(remoteURL, "@")+1:]
		hostname, repoPath, _ = strings.Cut(hostAndPath, ":")
	default:
		return nil, fmt.Errorf("not a GitHub remote URL: %s", remoteURL)
	}

	if !strings.Contains(strings.ToLower(hostname), "github") {
		return nil, fmt.Errorf("host %s is not a GitHub host", hostname)
	}
	owner, repo, ok := strings.Cut(repoPath, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("remote URL path must be owner/repo, got %s", repoPath)
	}
	return &repoInfo{Hostname: hostname, Owner: owner, Repo: strings.TrimSuffix(repo, "/")}, nil
}
