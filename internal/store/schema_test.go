package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	confgiterrors "confgit.dev/confgit/internal/errors"
	"confgit.dev/confgit/internal/store"
	"confgit.dev/confgit/testhelpers"
)

const frontendSchema = `{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "type": "object",
  "properties": {
    "replicas": {"type": "integer", "minimum": 1}
  },
  "required": ["replicas"]
}`

func TestSchemaStoreList(t *testing.T) {
	t.Run("returns schema types sorted", func(t *testing.T) {
		remote := testhelpers.Must(testhelpers.NewSeededRemote(
			filepath.Join(t.TempDir(), "remote.git"),
			map[string]string{
				"schemas/frontend.json": frontendSchema,
				"schemas/backend.json":  `{"type": "object"}`,
				"schemas/README.md":     "schema docs\n",
				"config/frontend.yaml":  "replicas: 3\n",
			},
		))
		schemas := store.NewSchemaStore(newTestClient(t, remote, "clone"), "")

		types, err := schemas.List()
		require.NoError(t, err)
		require.Equal(t, []string{"backend", "frontend"}, types)
	})

	t.Run("returns an empty list without a schema directory", func(t *testing.T) {
		remote := testhelpers.Must(testhelpers.NewSeededRemote(
			filepath.Join(t.TempDir(), "remote.git"),
			map[string]string{"config/frontend.yaml": "replicas: 3\n"},
		))
		schemas := store.NewSchemaStore(newTestClient(t, remote, "clone"), "")

		types, err := schemas.List()
		require.NoError(t, err)
		require.Empty(t, types)
	})
}

func TestSchemaStoreLoad(t *testing.T) {
	remote := testhelpers.Must(testhelpers.NewSeededRemote(
		filepath.Join(t.TempDir(), "remote.git"),
		map[string]string{"schemas/frontend.json": frontendSchema},
	))
	schemas := store.NewSchemaStore(newTestClient(t, remote, "clone"), "")

	t.Run("returns the schema bytes", func(t *testing.T) {
		raw, err := schemas.Load("frontend")
		require.NoError(t, err)
		require.JSONEq(t, frontendSchema, string(raw))
	})

	t.Run("fails with not found for a missing schema", func(t *testing.T) {
		_, err := schemas.Load("backend")
		require.ErrorIs(t, err, confgiterrors.ErrNotFound)
	})

	t.Run("rejects invalid type names", func(t *testing.T) {
		_, err := schemas.Load("../../etc/passwd")
		require.ErrorIs(t, err, confgiterrors.ErrInvalidType)
	})
}
