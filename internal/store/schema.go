package store

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	confgiterrors "confgit.dev/confgit/internal/errors"
	"confgit.dev/confgit/internal/git"
)

// DefaultSchemaDir is the repository sub-path holding JSON Schemas.
const DefaultSchemaDir = "schemas"

// SchemaStore reads JSON Schemas from a sub-path of the same working
// tree. It is read-only: schema changes arrive through out-of-band
// pushes to the remote and become visible after a sync.
type SchemaStore struct {
	client *git.Client
	dir    string
}

// NewSchemaStore creates a SchemaStore rooted at dir inside the
// repository.
func NewSchemaStore(client *git.Client, dir string) *SchemaStore {
	if dir == "" {
		dir = DefaultSchemaDir
	}
	return &SchemaStore{client: client, dir: dir}
}

// List returns the types a schema exists for, sorted alphabetically. A
// missing schema directory yields an empty list.
func (s *SchemaStore) List() ([]string, error) {
	unlock := s.client.Lock()
	defer unlock()

	entries, err := os.ReadDir(filepath.Join(s.client.LocalPath(), filepath.FromSlash(s.dir)))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, confgiterrors.NewRepositoryError("list schemas", err)
	}

	types := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		types = append(types, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(types)
	return types, nil
}

// Load returns the schema bytes for a type.
func (s *SchemaStore) Load(docType string) ([]byte, error) {
	if err := ValidateType(docType); err != nil {
		return nil, err
	}

	unlock := s.client.Lock()
	defer unlock()

	repoPath := path.Join(s.dir, docType+".json")
	raw, err := os.ReadFile(filepath.Join(s.client.LocalPath(), filepath.FromSlash(repoPath)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, confgiterrors.NewNotFoundError(docType, repoPath)
		}
		return nil, confgiterrors.NewRepositoryError("read schema of type "+docType, err)
	}
	return raw, nil
}
