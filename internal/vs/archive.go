package vs

import (
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
)

// ExportProject writes a zip archive to w holding the latest version of
// every logical file in the project, each named by its logical name.
// Blobs are streamed into the archive one at a time.
func (s *VSService) ExportProject(ctx context.Context, principalID string, projectID string, w io.Writer) (int, error) {
	project, err := s.liveProject(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if err := s.authorize(ctx, principalID, project, RoleViewer, "download"); err != nil {
		return 0, err
	}

	files, err := s.database.ListLatestFiles(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("listing files: %w", err)
	}
	if len(files) == 0 {
		return 0, ErrProjectEmpty
	}

	zw := zip.NewWriter(w)
	for _, f := range files {
		header := &zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.CreatedAt,
		}

		entry, err := zw.CreateHeader(header)
		if err != nil {
			return 0, fmt.Errorf("adding %q to archive: %w", f.Name, err)
		}
		if err := s.blobs.Get(ctx, f.StorageKey, entry); err != nil {
			return 0, &BlobError{Op: "get", Key: f.StorageKey, Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("finishing archive: %w", err)
	}

	s.logger.Info("project exported", "project", projectID, "files", len(files))
	return len(files), nil
}
