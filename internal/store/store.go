// Package store implements load and save of named configuration
// documents on top of the repository client, guarding writes against
// lost updates with per-document commit fingerprints.
package store

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	confgiterrors "confgit.dev/confgit/internal/errors"
	"confgit.dev/confgit/internal/git"
	"confgit.dev/confgit/internal/metrics"
)

const (
	// DefaultConfigDir is the repository sub-path holding documents.
	DefaultConfigDir = "config"
	// DefaultExtension is the document file extension, without the dot.
	DefaultExtension = "yaml"
)

// Store orchestrates document reads and fingerprint-checked writes
// against a single repository client. All pipelines run under the
// client's lock, so at most one touches the working tree at a time.
type Store struct {
	client    *git.Client
	configDir string
	extension string
	logger    *zap.Logger
}

// Options configures a Store.
type Options struct {
	Client    *git.Client
	ConfigDir string
	Extension string
	Logger    *zap.Logger
}

// New creates a Store for the given repository client.
func New(opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("store: repository client is required")
	}
	if opts.ConfigDir == "" {
		opts.ConfigDir = DefaultConfigDir
	}
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Store{
		client:    opts.Client,
		configDir: opts.ConfigDir,
		extension: opts.Extension,
		logger:    opts.Logger,
	}, nil
}

// Client returns the underlying repository client.
func (s *Store) Client() *git.Client {
	return s.client
}

// Ready clones the repository if it does not exist locally yet, or
// brings an existing clone up to date. Called once at startup.
func (s *Store) Ready(ctx context.Context) error {
	unlock := s.client.Lock()
	defer unlock()
	return s.client.EnsureReady(ctx)
}

// Resync synchronizes with the remote outside any load or save, for
// picking up out-of-band pushes such as schema changes.
func (s *Store) Resync(ctx context.Context) (git.SyncResult, error) {
	unlock := s.client.Lock()
	defer unlock()
	return s.client.Sync(ctx)
}

// List returns the document types present in the working tree, sorted
// alphabetically. A missing documents directory yields an empty list.
func (s *Store) List() ([]string, error) {
	unlock := s.client.Lock()
	defer unlock()

	entries, err := os.ReadDir(filepath.Join(s.client.LocalPath(), filepath.FromSlash(s.configDir)))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, confgiterrors.NewRepositoryError("list config documents", err)
	}

	suffix := "." + s.extension
	types := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, suffix) {
			continue
		}
		types = append(types, strings.TrimSuffix(name, suffix))
	}
	sort.Strings(types)
	return types, nil
}

// Load synchronizes with the remote and returns the document of the
// given type from the working tree, together with its fingerprint. A
// sync that discards local commits is not an error here: the read then
// reflects the remote's version.
func (s *Store) Load(ctx context.Context, docType string) (*Document, error) {
	if err := ValidateType(docType); err != nil {
		return nil, err
	}

	unlock := s.client.Lock()
	defer unlock()

	if _, err := s.client.Sync(ctx); err != nil {
		metrics.RecordLoad("error")
		return nil, err
	}

	repoPath := s.repoPath(docType)
	fullPath := filepath.Join(s.client.LocalPath(), filepath.FromSlash(repoPath))
	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		metrics.RecordLoad("not_found")
		return nil, confgiterrors.NewNotFoundError(docType, repoPath)
	}

	fingerprint, err := s.client.FingerprintForPath(repoPath)
	if err != nil {
		metrics.RecordLoad("error")
		return nil, err
	}
	raw, err := os.ReadFile(fullPath)
	if err != nil {
		metrics.RecordLoad("error")
		return nil, confgiterrors.NewRepositoryError("read config of type "+docType, err)
	}

	metrics.RecordLoad("ok")
	return &Document{Type: docType, Fingerprint: fingerprint, Bytes: raw}, nil
}

// Save writes a document, commits it and publishes the commit. The base
// fingerprint must be the one obtained from a previous Load of the same
// document; an empty base is only accepted while no commit touches the
// document's path yet. A concurrent same-file edit detected during the
// publish sync discards the commit and fails with a sync conflict.
//
// The returned commit ID is the document's fingerprint after the save.
func (s *Store) Save(ctx context.Context, docType string, content []byte, baseFingerprint string, author git.Author) (string, error) {
	if err := ValidateType(docType); err != nil {
		return "", err
	}

	unlock := s.client.Lock()
	defer unlock()

	repoPath := s.repoPath(docType)
	current, err := s.client.FingerprintForPath(repoPath)
	if err != nil {
		metrics.RecordSave("error")
		return "", err
	}
	if current != "" && current != baseFingerprint {
		s.logger.Warn("rejecting save of outdated config",
			zap.String("type", docType),
			zap.String("base", baseFingerprint),
			zap.String("current", current))
		metrics.RecordSave("conflict")
		return "", confgiterrors.NewConflictError(docType, repoPath, baseFingerprint, current)
	}

	fullPath := filepath.Join(s.client.LocalPath(), filepath.FromSlash(repoPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		metrics.RecordSave("error")
		return "", confgiterrors.NewRepositoryError("create config directory", err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		metrics.RecordSave("error")
		return "", confgiterrors.NewRepositoryError("write config of type "+docType, err)
	}
	if err := s.client.Stage(repoPath); err != nil {
		metrics.RecordSave("error")
		return "", err
	}
	commitID, err := s.client.Commit(fmt.Sprintf("Update %s configuration", docType), author)
	if err != nil {
		metrics.RecordSave("error")
		return "", err
	}
	s.logger.Info("committed config change",
		zap.String("type", docType),
		zap.String("commit", commitID),
		zap.String("author", author.Name))

	result, err := s.client.Sync(ctx)
	if err != nil {
		metrics.RecordSave("error")
		return "", err
	}
	if result == git.SyncConflictReset {
		metrics.RecordSave("sync_conflict")
		return "", confgiterrors.NewSyncConflictError(docType)
	}

	s.logger.Info("pushing changes to config repo", zap.String("type", docType))
	if err := s.client.Push(ctx); err != nil {
		metrics.RecordSave("error")
		return "", err
	}

	metrics.RecordSave("ok")
	return commitID, nil
}

// repoPath returns the slash-separated repository path of a document.
func (s *Store) repoPath(docType string) string {
	return path.Join(s.configDir, docType+"."+s.extension)
}
