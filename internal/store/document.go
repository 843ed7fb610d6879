package store

import (
	"regexp"

	confgiterrors "confgit.dev/confgit/internal/errors"
)

// Document is a named configuration document as read from the working
// tree. Fingerprint is the ID of the latest commit touching the
// document's path, not the branch tip. It is the compare token a later
// Save of the same document must present.
type Document struct {
	Type        string
	Fingerprint string
	Bytes       []byte
}

var typePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidateType rejects type names that would not resolve to a single
// file name beneath the documents directory.
func ValidateType(docType string) error {
	if !typePattern.MatchString(docType) {
		return confgiterrors.NewInvalidTypeError(docType)
	}
	return nil
}
