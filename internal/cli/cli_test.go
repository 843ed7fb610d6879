package cli_test

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"confgit.dev/confgit/internal/cli"
	"confgit.dev/confgit/testhelpers"
)

// writeConfig writes a minimal config file pointing at the given remote
// and returns its path. The local clone goes into a sibling directory.
func writeConfig(t *testing.T, remote *testhelpers.GitRemote) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "confgit.yaml")
	content := fmt.Sprintf("repository:\n  url: %q\n  local: %q\nlog:\n  level: none\n",
		remote.URL(), filepath.Join(dir, "clone"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return cfgPath
}

func clonePath(cfgPath string) string {
	return filepath.Join(filepath.Dir(cfgPath), "clone")
}

func runCommand(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	rootCmd := cli.NewRootCmd("test", "none", "unknown")
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	if stdin != nil {
		rootCmd.SetIn(stdin)
	}
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestGetCommand(t *testing.T) {
	remote := testhelpers.Must(testhelpers.NewSeededRemote(
		filepath.Join(t.TempDir(), "remote.git"),
		map[string]string{"config/frontend.yaml": "replicas: 3\n"},
	))
	cfgPath := writeConfig(t, remote)

	t.Run("prints the document as stored", func(t *testing.T) {
		out, err := runCommand(t, nil, "get", "frontend", "--config", cfgPath)
		require.NoError(t, err)
		require.Equal(t, "replicas: 3\n", out)
	})

	t.Run("prints the document as JSON", func(t *testing.T) {
		out, err := runCommand(t, nil, "get", "frontend", "--json", "--config", cfgPath)
		require.NoError(t, err)
		require.JSONEq(t, `{"replicas": 3}`, out)
	})

	t.Run("prints the fingerprint", func(t *testing.T) {
		out, err := runCommand(t, nil, "get", "frontend", "--fingerprint", "--config", cfgPath)
		require.NoError(t, err)
		require.Len(t, strings.TrimSpace(out), 40)
	})

	t.Run("fails for an unknown type", func(t *testing.T) {
		_, err := runCommand(t, nil, "get", "nonesuch", "--config", cfgPath)
		require.Error(t, err)
		require.Contains(t, err.Error(), "not found")
	})
}

func TestPutCommand(t *testing.T) {
	t.Run("saves a document read from a file", func(t *testing.T) {
		remote := testhelpers.Must(testhelpers.NewSeededRemote(
			filepath.Join(t.TempDir(), "remote.git"),
			map[string]string{"config/frontend.yaml": "replicas: 3\n"},
		))
		cfgPath := writeConfig(t, remote)

		docFile := filepath.Join(t.TempDir(), "frontend.yaml")
		require.NoError(t, os.WriteFile(docFile, []byte("replicas: 5\n"), 0o644))

		out, err := runCommand(t, nil, "put", "frontend", docFile, "--config", cfgPath)
		require.NoError(t, err)
		require.Contains(t, out, "saved frontend as commit ")

		stored, err := runCommand(t, nil, "get", "frontend", "--config", cfgPath)
		require.NoError(t, err)
		require.Equal(t, "replicas: 5\n", stored)

		count, err := remote.CommitCount("main")
		require.NoError(t, err)
		require.Equal(t, 2, count)
	})

	t.Run("saves a document read from stdin", func(t *testing.T) {
		remote := testhelpers.Must(testhelpers.NewSeededRemote(
			filepath.Join(t.TempDir(), "remote.git"),
			map[string]string{"config/frontend.yaml": "replicas: 3\n"},
		))
		cfgPath := writeConfig(t, remote)

		_, err := runCommand(t, bytes.NewBufferString("replicas: 9\n"),
			"put", "frontend", "--config", cfgPath)
		require.NoError(t, err)

		stored, err := runCommand(t, nil, "get", "frontend", "--config", cfgPath)
		require.NoError(t, err)
		require.Equal(t, "replicas: 9\n", stored)
	})

	t.Run("records the given author", func(t *testing.T) {
		remote := testhelpers.Must(testhelpers.NewSeededRemote(
			filepath.Join(t.TempDir(), "remote.git"),
			map[string]string{"config/frontend.yaml": "replicas: 3\n"},
		))
		cfgPath := writeConfig(t, remote)

		_, err := runCommand(t, bytes.NewBufferString("replicas: 4\n"),
			"put", "frontend", "--author", "Dana <dana@example.com>", "--config", cfgPath)
		require.NoError(t, err)

		author, err := (&testhelpers.GitRepo{Dir: clonePath(cfgPath)}).LastAuthor()
		require.NoError(t, err)
		require.Equal(t, "Dana <dana@example.com>", author)
	})

	t.Run("rejects a stale fingerprint", func(t *testing.T) {
		remote := testhelpers.Must(testhelpers.NewSeededRemote(
			filepath.Join(t.TempDir(), "remote.git"),
			map[string]string{"config/frontend.yaml": "replicas: 3\n"},
		))
		cfgPath := writeConfig(t, remote)

		_, err := runCommand(t, bytes.NewBufferString("replicas: 4\n"),
			"put", "frontend", "--fingerprint", "0000000000000000000000000000000000000000", "--config", cfgPath)
		require.Error(t, err)
		require.Contains(t, err.Error(), "most recent commit")
	})

	t.Run("rejects a malformed author", func(t *testing.T) {
		remote := testhelpers.Must(testhelpers.NewSeededRemote(
			filepath.Join(t.TempDir(), "remote.git"),
			map[string]string{"config/frontend.yaml": "replicas: 3\n"},
		))
		cfgPath := writeConfig(t, remote)

		_, err := runCommand(t, bytes.NewBufferString("replicas: 4\n"),
			"put", "frontend", "--author", "Dana <dana@", "--config", cfgPath)
		require.Error(t, err)
		require.Contains(t, err.Error(), "author must look like")
	})
}

func TestSyncCommand(t *testing.T) {
	remote := testhelpers.Must(testhelpers.NewSeededRemote(
		filepath.Join(t.TempDir(), "remote.git"),
		map[string]string{"config/frontend.yaml": "replicas: 3\n"},
	))
	cfgPath := writeConfig(t, remote)

	out, err := runCommand(t, nil, "sync", "--config", cfgPath)
	require.NoError(t, err)
	require.Contains(t, out, "sync result: merged")

	require.NoError(t, remote.Seed("Add backend out of band", map[string]string{
		"config/backend.yaml": "replicas: 2\n",
	}))

	out, err = runCommand(t, nil, "sync", "--config", cfgPath)
	require.NoError(t, err)
	require.Contains(t, out, "sync result: merged")

	stored, err := (&testhelpers.GitRepo{Dir: clonePath(cfgPath)}).ReadFile("config/backend.yaml")
	require.NoError(t, err)
	require.Equal(t, "replicas: 2\n", stored)
}

func TestSchemasCommand(t *testing.T) {
	schema := `{"type": "object"}`
	remote := testhelpers.Must(testhelpers.NewSeededRemote(
		filepath.Join(t.TempDir(), "remote.git"),
		map[string]string{
			"schemas/frontend.json": schema,
			"schemas/backend.json":  schema,
		},
	))
	cfgPath := writeConfig(t, remote)

	t.Run("lists schema types", func(t *testing.T) {
		out, err := runCommand(t, nil, "schemas", "--config", cfgPath)
		require.NoError(t, err)
		require.Equal(t, "backend\nfrontend\n", out)
	})

	t.Run("prints one schema", func(t *testing.T) {
		out, err := runCommand(t, nil, "schemas", "frontend", "--config", cfgPath)
		require.NoError(t, err)
		require.JSONEq(t, schema, out)
	})
}

func TestDoctorCommand(t *testing.T) {
	t.Run("reports on a healthy setup", func(t *testing.T) {
		remote := testhelpers.Must(testhelpers.NewSeededRemote(
			filepath.Join(t.TempDir(), "remote.git"),
			map[string]string{"config/frontend.yaml": "replicas: 3\n"},
		))
		cfgPath := writeConfig(t, remote)

		out, err := runCommand(t, nil, "doctor", "--config", cfgPath)
		require.NoError(t, err)
		require.Contains(t, out, "git binary")
		require.Contains(t, out, "configuration")
		require.Contains(t, out, "local clone")
		require.Contains(t, out, "remote")
	})

	t.Run("fails without a repository URL", func(t *testing.T) {
		dir := t.TempDir()
		cfgPath := filepath.Join(dir, "confgit.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: none\n"), 0o644))

		out, err := runCommand(t, nil, "doctor", "--config", cfgPath)
		require.Error(t, err)
		require.Contains(t, out, "configuration")
	})
}

func TestBrowseCommand(t *testing.T) {
	remote := testhelpers.Must(testhelpers.NewSeededRemote(
		filepath.Join(t.TempDir(), "remote.git"),
		map[string]string{"config/frontend.yaml": "replicas: 3\n"},
	))
	cfgPath := writeConfig(t, remote)

	_, err := runCommand(t, nil, "browse", "--config", cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "interactive terminal")
}

func TestInitCommand(t *testing.T) {
	output := filepath.Join(t.TempDir(), "confgit.yaml")

	_, err := runCommand(t, nil, "init", "--output", output)
	require.Error(t, err, "init cannot complete without a terminal to prompt on")
	require.NoFileExists(t, output)
}

func TestVersion(t *testing.T) {
	t.Run("as a flag", func(t *testing.T) {
		out, err := runCommand(t, nil, "--version")
		require.NoError(t, err)
		require.Contains(t, out, "test (commit none, built unknown)")
	})

	t.Run("as a command", func(t *testing.T) {
		out, err := runCommand(t, nil, "version")
		require.NoError(t, err)
		require.Equal(t, "confgit test (commit none, built unknown)\n", out)
	})
}
