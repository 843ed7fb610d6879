package validate_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"confgit.dev/confgit/internal/git"
	"confgit.dev/confgit/internal/store"
	"confgit.dev/confgit/internal/validate"
	"confgit.dev/confgit/testhelpers"
)

const replicasSchema = `{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "type": "object",
  "properties": {
    "replicas": {"type": "integer", "minimum": 1}
  },
  "required": ["replicas"]
}`

func newValidator(t *testing.T, files map[string]string) (*validate.Validator, *store.Store, *testhelpers.GitRemote) {
	t.Helper()
	remote := testhelpers.Must(testhelpers.NewSeededRemote(
		filepath.Join(t.TempDir(), "remote.git"), files))
	client := testhelpers.Must(git.NewClient(git.Options{
		URL:       remote.URL(),
		LocalPath: filepath.Join(t.TempDir(), "clone"),
	}))
	require.NoError(t, client.EnsureReady(context.Background()))
	st := testhelpers.Must(store.New(store.Options{Client: client}))
	return validate.New(store.NewSchemaStore(client, ""), nil), st, remote
}

func TestValidate(t *testing.T) {
	t.Run("accepts a conforming document", func(t *testing.T) {
		validator, _, _ := newValidator(t, map[string]string{
			"schemas/frontend.json": replicasSchema,
		})

		violations, err := validator.Validate("frontend", []byte(`{"replicas": 3}`))
		require.NoError(t, err)
		require.Empty(t, violations)
	})

	t.Run("reports violations for a non-conforming document", func(t *testing.T) {
		validator, _, _ := newValidator(t, map[string]string{
			"schemas/frontend.json": replicasSchema,
		})

		violations, err := validator.Validate("frontend", []byte(`{"replicas": 0}`))
		require.NoError(t, err)
		require.NotEmpty(t, violations)

		violations, err = validator.Validate("frontend", []byte(`{}`))
		require.NoError(t, err)
		require.NotEmpty(t, violations)
	})

	t.Run("accepts any document for a type without a schema", func(t *testing.T) {
		validator, _, _ := newValidator(t, map[string]string{
			"schemas/frontend.json": replicasSchema,
		})

		violations, err := validator.Validate("backend", []byte(`{"anything": "goes"}`))
		require.NoError(t, err)
		require.Empty(t, violations)
	})

	t.Run("fails on a schema that does not compile", func(t *testing.T) {
		validator, _, _ := newValidator(t, map[string]string{
			"schemas/frontend.json": `{"type": ["not", 42]}`,
		})

		_, err := validator.Validate("frontend", []byte(`{}`))
		require.Error(t, err)
	})
}

func TestReload(t *testing.T) {
	t.Run("picks up schema changes after a sync", func(t *testing.T) {
		validator, st, remote := newValidator(t, map[string]string{
			"schemas/frontend.json": replicasSchema,
		})

		violations, err := validator.Validate("frontend", []byte(`{"replicas": 3}`))
		require.NoError(t, err)
		require.Empty(t, violations)

		stricter := `{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "type": "object",
  "properties": {
    "replicas": {"type": "integer", "minimum": 5}
  },
  "required": ["replicas"]
}`
		require.NoError(t, remote.Seed("Tighten frontend schema", map[string]string{
			"schemas/frontend.json": stricter,
		}))

		_, err = st.Resync(context.Background())
		require.NoError(t, err)
		validator.Reload()

		violations, err = validator.Validate("frontend", []byte(`{"replicas": 3}`))
		require.NoError(t, err)
		require.NotEmpty(t, violations)
	})
}
