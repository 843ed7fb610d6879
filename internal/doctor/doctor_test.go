package doctor_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"confgit.dev/confgit/internal/config"
	"confgit.dev/confgit/internal/doctor"
	"confgit.dev/confgit/internal/git"
	"confgit.dev/confgit/testhelpers"
)

func testSettings(remoteURL, local string) *config.Settings {
	return &config.Settings{
		Repository: config.Repository{
			URL:     remoteURL,
			Remote:  "origin",
			Branch:  "main",
			Local:   local,
			Timeout: 5 * time.Second,
		},
		Paths:     config.Paths{Config: "config", Schemas: "schemas"},
		Extension: "yaml",
		Listen:    ":8080",
	}
}

func findResult(t *testing.T, results []doctor.Result, name string) doctor.Result {
	t.Helper()
	for _, result := range results {
		if result.Name == name {
			return result
		}
	}
	t.Fatalf("no result named %q in %v", name, results)
	return doctor.Result{}
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("reports a healthy setup", func(t *testing.T) {
		remote := testhelpers.Must(testhelpers.NewSeededRemote(
			filepath.Join(t.TempDir(), "remote.git"),
			map[string]string{"config/frontend.yaml": "replicas: 3\n"},
		))
		local := filepath.Join(t.TempDir(), "clone")
		client := testhelpers.Must(git.NewClient(git.Options{URL: remote.URL(), LocalPath: local}))
		require.NoError(t, client.EnsureReady(ctx))

		results := doctor.Run(ctx, doctor.Options{Settings: testSettings(remote.URL(), local)})
		require.True(t, doctor.Healthy(results))
		require.Equal(t, doctor.StatusOK, findResult(t, results, "git binary").Status)
		require.Equal(t, doctor.StatusOK, findResult(t, results, "configuration").Status)
		require.Equal(t, doctor.StatusOK, findResult(t, results, "local clone").Status)
		require.Equal(t, doctor.StatusOK, findResult(t, results, "remote").Status)
	})

	t.Run("warns before the first clone", func(t *testing.T) {
		remote := testhelpers.Must(testhelpers.NewSeededRemote(
			filepath.Join(t.TempDir(), "remote.git"),
			map[string]string{"config/frontend.yaml": "replicas: 3\n"},
		))
		settings := testSettings(remote.URL(), filepath.Join(t.TempDir(), "never-cloned"))

		results := doctor.Run(ctx, doctor.Options{Settings: settings})
		require.True(t, doctor.Healthy(results))
		require.Equal(t, doctor.StatusWarn, findResult(t, results, "local clone").Status)
	})

	t.Run("warns about an empty remote", func(t *testing.T) {
		remote := testhelpers.Must(testhelpers.NewBareRemote(
			filepath.Join(t.TempDir(), "remote.git")))
		settings := testSettings(remote.URL(), filepath.Join(t.TempDir(), "never-cloned"))

		results := doctor.Run(ctx, doctor.Options{Settings: settings})
		require.True(t, doctor.Healthy(results))
		require.Equal(t, doctor.StatusWarn, findResult(t, results, "remote").Status)
	})

	t.Run("fails when the remote is unreachable", func(t *testing.T) {
		settings := testSettings(filepath.Join(t.TempDir(), "does-not-exist.git"), filepath.Join(t.TempDir(), "clone"))

		results := doctor.Run(ctx, doctor.Options{Settings: settings})
		require.False(t, doctor.Healthy(results))
		require.Equal(t, doctor.StatusFail, findResult(t, results, "remote").Status)
	})

	t.Run("fails on invalid settings", func(t *testing.T) {
		settings := testSettings("", "")

		results := doctor.Run(ctx, doctor.Options{Settings: settings})
		require.False(t, doctor.Healthy(results))
		require.Equal(t, doctor.StatusFail, findResult(t, results, "configuration").Status)
	})
}

func TestGitHubCheck(t *testing.T) {
	ctx := context.Background()

	newAPIStub := func(t *testing.T) *httptest.Server {
		t.Helper()
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/widgets", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name": "widgets", "full_name": "acme/widgets", "private": true, "default_branch": "main"}`))
		})
		ts := httptest.NewServer(mux)
		t.Cleanup(ts.Close)
		return ts
	}

	t.Run("verifies API access for a GitHub remote", func(t *testing.T) {
		ts := newAPIStub(t)
		t.Setenv("CONFGIT_GITHUB_TOKEN", "test-token")

		settings := testSettings("https://github.com/acme/widgets.git", filepath.Join(t.TempDir(), "clone"))
		results := doctor.Run(ctx, doctor.Options{Settings: settings, GitHubBaseURL: ts.URL})

		result := findResult(t, results, "github api")
		require.Equal(t, doctor.StatusOK, result.Status)
		require.Contains(t, result.Detail, "acme/widgets")
		require.Contains(t, result.Detail, "private")
	})

	t.Run("works with SSH remote URLs", func(t *testing.T) {
		ts := newAPIStub(t)
		t.Setenv("GITHUB_TOKEN", "test-token")
		t.Setenv("CONFGIT_GITHUB_TOKEN", "")

		settings := testSettings("git@github.com:acme/widgets.git", filepath.Join(t.TempDir(), "clone"))
		results := doctor.Run(ctx, doctor.Options{Settings: settings, GitHubBaseURL: ts.URL})

		require.Equal(t, doctor.StatusOK, findResult(t, results, "github api").Status)
	})

	t.Run("warns when no token is configured", func(t *testing.T) {
		t.Setenv("CONFGIT_GITHUB_TOKEN", "")
		t.Setenv("GITHUB_TOKEN", "")

		settings := testSettings("https://github.com/acme/widgets.git", filepath.Join(t.TempDir(), "clone"))
		results := doctor.Run(ctx, doctor.Options{Settings: settings})

		require.Equal(t, doctor.StatusWarn, findResult(t, results, "github api").Status)
	})

	t.Run("is skipped for non-GitHub remotes", func(t *testing.T) {
		remote := testhelpers.Must(testhelpers.NewBareRemote(
			filepath.Join(t.TempDir(), "remote.git")))
		settings := testSettings(remote.URL(), filepath.Join(t.TempDir(), "clone"))

		results := doctor.Run(ctx, doctor.Options{Settings: settings})
		for _, result := range results {
			require.NotEqual(t, "github api", result.Name)
		}
	})
}
