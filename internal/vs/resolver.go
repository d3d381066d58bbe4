package vs

import (
	"context"
	"fmt"
)

// Outcome classifies an upload.
type Outcome string

const (
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeNewVersion Outcome = "new_version"
	OutcomeNewFile    Outcome = "new_file"
)

// Resolution is the decision made for an upload before anything is written.
type Resolution struct {
	Outcome Outcome

	// Existing is the stored version with identical content (OutcomeDuplicate).
	Existing *FileVersion

	// Prior is the current latest version that the commit must demote
	// (OutcomeNewVersion).
	Prior *FileVersion

	// NextVersion is the version number the commit will create.
	NextVersion int64
}

// VersionResolver decides whether an upload is a duplicate, a new
// version of an existing logical file, or a new logical file.
type VersionResolver struct {
	database Database
}

// NewVersionResolver creates a resolver reading from database.
func NewVersionResolver(database Database) *VersionResolver {
	return &VersionResolver{database: database}
}

// Resolve classifies content with digest hash uploaded as name into project.
//
// Content wins over name: identical bytes anywhere in the project are a
// duplicate even under a different name. Otherwise the latest version of
// the name decides between a new version and a new logical file.
func (r *VersionResolver) Resolve(ctx context.Context, project *Project, name string, hash string) (*Resolution, error) {
	existing, err := r.database.FindFileVersionByHash(ctx, project.ID, hash)
	if err != nil {
		return nil, fmt.Errorf("looking up content hash: %w", err)
	}
	if existing != nil {
		return &Resolution{Outcome: OutcomeDuplicate, Existing: existing}, nil
	}

	latest, err := r.database.FindLatestVersions(ctx, project.ID, name)
	if err != nil {
		return nil, fmt.Errorf("looking up latest version: %w", err)
	}

	if len(latest) > 1 {
		detail := fmt.Sprintf("versions %d and %d are both latest", latest[0].Version, latest[1].Version)
		if latest[0].Version == latest[1].Version {
			detail = fmt.Sprintf("version %d stored twice", latest[0].Version)
		}
		return nil, &InconsistencyError{ProjectID: project.ID, Name: name, Detail: detail}
	}

	// The latest row is not necessarily the highest: a promoted older
	// version stays latest until the next upload, which continues after
	// the highest number.
	highest, err := r.database.MaxVersion(ctx, project.ID, name)
	if err != nil {
		return nil, fmt.Errorf("looking up version numbers: %w", err)
	}

	switch len(latest) {
	case 0:
		// No latest row. That is only legitimate if the name has no versions at all.
		if highest > 0 {
			return nil, &InconsistencyError{
				ProjectID: project.ID,
				Name:      name,
				Detail:    fmt.Sprintf("%d versions stored but none is latest", highest),
			}
		}
		return &Resolution{Outcome: OutcomeNewFile, NextVersion: 1}, nil
	default:
		return &Resolution{
			Outcome:     OutcomeNewVersion,
			Prior:       latest[0],
			NextVersion: highest + 1,
		}, nil
	}
}
