package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"verstore/internal/vs"
)

// spoolPattern names spool files inside the staging directory.
const spoolPattern = "upload-*"

// FileSystemStagingArea spools uploads to temp files in a directory.
// Each file is removed when its content is closed.
//
// Directory structure:
//
//	<staging_dir>/
//	  upload-<random>    (one per in-flight upload)
type FileSystemStagingArea struct {
	*stagingArea
	dir string
}

// NewFileSystemStagingArea creates the staging directory and removes
// spool files left behind by an earlier process.
func NewFileSystemStagingArea(dir string) (*FileSystemStagingArea, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	stale, err := filepath.Glob(filepath.Join(dir, spoolPattern))
	if err != nil {
		return nil, fmt.Errorf("listing stale spool files: %w", err)
	}
	for _, path := range stale {
		os.Remove(path)
	}

	return &FileSystemStagingArea{
		stagingArea: &stagingArea{store: fileSpools{dir: dir}},
		dir:         dir,
	}, nil
}

type fileSpools struct {
	dir string
}

func (s fileSpools) create() (spool, error) {
	f, err := os.CreateTemp(s.dir, spoolPattern)
	if err != nil {
		return nil, err
	}
	return &fileSpool{f: f}, nil
}

type fileSpool struct {
	f *os.File
}

func (s *fileSpool) Write(p []byte) (int, error) {
	return s.f.Write(p)
}

func (s *fileSpool) finish(size int64) (vs.StagedContent, error) {
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return &fileContent{File: s.f, size: size}, nil
}

func (s *fileSpool) discard() {
	s.f.Close()
	os.Remove(s.f.Name())
}

type fileContent struct {
	*os.File
	size int64
}

func (c *fileContent) Size() int64 { return c.size }

// Close closes and removes the spool file.
func (c *fileContent) Close() error {
	closeErr := c.File.Close()
	if err := os.Remove(c.File.Name()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing spool file: %w", err)
	}
	return closeErr
}
