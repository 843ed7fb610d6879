// Package git owns the local clone of the remote configuration repository.
//
// The Client keeps one working copy of one remote branch in sync and exposes
// the primitive operations the document store is built on: synchronization
// (fetch plus merge, falling back to a hard reset when the merge conflicts),
// staging, committing, pushing, and per-path fingerprint lookup. Local object
// access (open, log walks, staging, commits) goes through go-git; everything
// that needs the network or a real three-way merge (clone, fetch, merge,
// reset, push) shells out to the git binary through a CommandRunner.
//
// The Client's primitives are not safe under concurrent mutation. Callers
// serialize through Lock(), holding it for the whole of any sequence that
// touches the working tree or the branch pointer.
package git
