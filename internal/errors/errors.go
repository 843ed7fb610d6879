// Package errors provides sentinel errors and custom error types for the confgit application.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the repository and store failure modes
var (
	// ErrNotFound indicates that no document or schema exists at the resolved path
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates that a save was based on a stale fingerprint
	ErrConflict = errors.New("conflicting modification")

	// ErrSyncConflict indicates that a remote merge conflict discarded the attempted save
	ErrSyncConflict = errors.New("sync conflict")

	// ErrTransport indicates a network or authentication failure reaching the remote
	ErrTransport = errors.New("transport failure")

	// ErrRepository indicates local repository corruption or an internal git failure
	ErrRepository = errors.New("repository failure")

	// ErrInvalidType indicates a document type name that does not resolve to a safe path
	ErrInvalidType = errors.New("invalid document type")
)

// NotFoundError represents an error when a document does not exist
type NotFoundError struct {
	Type string
	Path string
}

func (e *NotFoundError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s not found on path %s", e.Type, e.Path)
	}
	return fmt.Sprintf("config %s not found", e.Type)
}

// Is returns true if the target error is ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(docType, path string) *NotFoundError {
	return &NotFoundError{Type: docType, Path: path}
}

// ConflictError represents an error when a save is based on a stale fingerprint.
// Base is the fingerprint the caller supplied, Current is the latest commit ID
// for the document's path in the local clone.
type ConflictError struct {
	Type    string
	Path    string
	Base    string
	Current string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("incoming change for config %s is based on commit ID %q but most recent commit ID is %q",
		e.Path, e.Base, e.Current)
}

// Is returns true if the target error is ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewConflictError creates a new ConflictError
func NewConflictError(docType, path, base, current string) *ConflictError {
	return &ConflictError{Type: docType, Path: path, Base: base, Current: current}
}

// SyncConflictError represents an error when the synchronization after a commit
// hit a remote merge conflict and the local commit was discarded by the reset.
type SyncConflictError struct {
	Type string
}

func (e *SyncConflictError) Error() string {
	return fmt.Sprintf("conflicting edits of config type %s detected, discarding changes", e.Type)
}

// Is returns true if the target error is ErrSyncConflict
func (e *SyncConflictError) Is(target error) bool {
	return target == ErrSyncConflict
}

// NewSyncConflictError creates a new SyncConflictError
func NewSyncConflictError(docType string) *SyncConflictError {
	return &SyncConflictError{Type: docType}
}

// TransportError represents a network or authentication failure while talking
// to the remote repository
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("could not %s", e.Op)
}

// Is returns true if the target error is ErrTransport
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new TransportError
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// RepositoryError represents a failure of a local repository operation
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("could not %s", e.Op)
}

// Is returns true if the target error is ErrRepository
func (e *RepositoryError) Is(target error) bool {
	return target == ErrRepository
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError
func NewRepositoryError(op string, err error) *RepositoryError {
	return &RepositoryError{Op: op, Err: err}
}

// InvalidTypeError represents a document type name that was rejected before
// path resolution
type InvalidTypeError struct {
	Type string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid document type %q", e.Type)
}

// Is returns true if the target error is ErrInvalidType
func (e *InvalidTypeError) Is(target error) bool {
	return target == ErrInvalidType
}

// NewInvalidTypeError creates a new InvalidTypeError
func NewInvalidTypeError(docType string) *InvalidTypeError {
	return &InvalidTypeError{Type: docType}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// StderrContains reports whether the command's stderr contains the given
// fragment, ignoring case. Used to classify git failures.
func (e *GitCommandError) StderrContains(fragment string) bool {
	return strings.Contains(strings.ToLower(e.Stderr), strings.ToLower(fragment))
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
