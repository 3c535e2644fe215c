// Package pathutil maps request paths for uploaded files to on-disk
// locations under the configured storage root, guarding against path
// escape.
package pathutil

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrTraversal is returned when a resolved path would leave the storage
// root. Callers must collapse it into a generic response; neither the
// storage root nor the reason may reach the client.
var ErrTraversal = errors.New("path escapes storage root")

// Resolve maps an inbound request path to an absolute storage path.
//
// The public prefix is stripped at its first occurrence only; a path that
// does not contain the prefix is joined as-is. The remainder is joined
// onto the storage root and normalized. Any result that does not stay a
// descendant of the storage root is rejected, never silently normalized
// back inside.
func Resolve(requestPath, publicPrefix, storageRoot string) (string, error) {
	if err := ValidatePath(requestPath); err != nil {
		return "", err
	}

	rel := requestPath
	if publicPrefix != "" {
		rel = strings.Replace(requestPath, publicPrefix, "", 1)
	}

	root := filepath.Clean(storageRoot)
	resolved := filepath.Join(root, filepath.FromSlash(rel))

	if !within(root, resolved) {
		return "", ErrTraversal
	}

	return resolved, nil
}

// within reports whether path is root itself or a descendant of root after
// normalization.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ValidatePath rejects request paths carrying null bytes or control
// characters, which can smuggle a second path past extension or prefix
// checks.
func ValidatePath(path string) error {
	if strings.Contains(path, "\x00") {
		return ErrTraversal
	}
	for _, char := range path {
		if char < 32 && char != '\t' {
			return ErrTraversal
		}
	}
	return nil
}
