// Package blob provides the storage backends behind vs.BlobStore.
package blob

import (
	"fmt"
	"path"
	"strings"

	"verstore/internal/vs"
)

// validateKey rejects keys that could escape a store's root or prefix.
func validateKey(key string) error {
	if key == "" {
		return &vs.InvalidArgumentError{Field: "storage key", Value: key, Reason: "must not be empty"}
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return &vs.InvalidArgumentError{Field: "storage key", Value: key, Reason: "must be a relative slash-separated path"}
	}
	if path.Clean(key) != key {
		return &vs.InvalidArgumentError{Field: "storage key", Value: key, Reason: "must be a clean path"}
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return &vs.InvalidArgumentError{Field: "storage key", Value: key, Reason: fmt.Sprintf("contains %q", part)}
		}
	}
	return nil
}
