package database

import (
	"verstore/internal/database/sqlc"
	"verstore/internal/vs"
)

func toOwner(o sqlc.Owner) *vs.Owner {
	return &vs.Owner{
		ID:                o.ID,
		Name:              o.Name,
		StorageLimitBytes: o.StorageLimitBytes,
		CreatedAt:         o.CreatedAt.UTC(),
	}
}

func toProject(p sqlc.Project) *vs.Project {
	return &vs.Project{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		IsPrivate:   p.IsPrivate,
		Deleted:     p.Deleted,
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

func toFileVersion(f sqlc.File) *vs.FileVersion {
	return &vs.FileVersion{
		ID:          f.ID,
		ProjectID:   f.ProjectID,
		OwnerID:     f.OwnerID,
		Name:        f.Name,
		Folder:      f.Folder,
		ContentHash: f.ContentHash,
		Version:     f.Version,
		Size:        f.Size,
		StorageKey:  f.StorageKey,
		IsLatest:    f.IsLatest,
		CreatedAt:   f.CreatedAt.UTC(),
	}
}

func toFileVersions(rows []sqlc.File) []*vs.FileVersion {
	versions := make([]*vs.FileVersion, len(rows))
	for i := range rows {
		versions[i] = toFileVersion(rows[i])
	}
	return versions
}

func toActivityEntries(rows []sqlc.ActivityLog) []*vs.ActivityEntry {
	entries := make([]*vs.ActivityEntry, len(rows))
	for i, a := range rows {
		entries[i] = &vs.ActivityEntry{
			ID:          a.ID,
			ActorID:     a.ActorID,
			ProjectID:   a.ProjectID,
			ProjectName: a.ProjectName,
			FileID:      a.FileID,
			FileName:    a.FileName,
			FileVersion: a.FileVersion,
			Action:      a.Action,
			CreatedAt:   a.CreatedAt.UTC(),
		}
	}
	return entries
}
