package vs

import (
	"fmt"
	"path"
	"strings"
	"unicode"
)

const maxNameLength = 255

// keyHashLength is how many hex digits of the content hash go into a storage key.
const keyHashLength = 12

// ValidateName checks a logical file, folder or project name. Names are
// single path segments: no separators, no control characters and not "."
// or "..".
func ValidateName(field string, name string) error {
	switch {
	case name == "":
		return &InvalidArgumentError{Field: field, Value: name, Reason: "must not be empty"}
	case len(name) > maxNameLength:
		return &InvalidArgumentError{Field: field, Value: name[:32] + "...", Reason: fmt.Sprintf("longer than %d bytes", maxNameLength)}
	case name == "." || name == "..":
		return &InvalidArgumentError{Field: field, Value: name, Reason: "reserved name"}
	case strings.ContainsAny(name, `/\`):
		return &InvalidArgumentError{Field: field, Value: name, Reason: "must not contain path separators"}
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return &InvalidArgumentError{Field: field, Value: name, Reason: "must not contain control characters"}
	}
	return nil
}

// DefaultFolder returns the folder used for a logical file that has no
// earlier version to inherit one from: the name without its extension,
// with spaces replaced by underscores.
func DefaultFolder(name string) string {
	stem := strings.TrimSuffix(name, path.Ext(name))
	if stem == "" {
		stem = name
	}
	return strings.ReplaceAll(stem, " ", "_")
}

// StorageKey derives the blob key of a file version. The version ID is
// part of the key, so every commit attempt writes a key of its own even
// when racing writers store the same bytes under the same name.
func StorageKey(ownerID, projectID, folder, name string, version int64, contentHash, versionID string) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	fragment := contentHash
	if len(fragment) > keyHashLength {
		fragment = fragment[:keyHashLength]
	}

	return path.Join(
		"owners", ownerID,
		"projects", projectID,
		folder,
		fmt.Sprintf("%s_v%d-%s-%s%s", stem, version, fragment, versionID, ext),
	)
}

// ProjectKeyPrefix is the key prefix under which all blobs of a project live.
func ProjectKeyPrefix(ownerID, projectID string) string {
	return path.Join("owners", ownerID, "projects", projectID) + "/"
}
