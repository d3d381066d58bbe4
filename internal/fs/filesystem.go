// Package fs discovers local files for upload and guards reads against
// files that change while they are being sent.
package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ErrFileChanged is returned when a file is modified while it is read.
var ErrFileChanged = errors.New("file changed during upload")

// LocalFile is a regular file found on disk.
type LocalFile struct {
	Path         string // absolute
	RelativePath string // slash-separated, relative to the collected root
	Size         int64
	ModTime      time.Time
}

// Dir returns the slash-separated directory of RelativePath, or "" for
// files at the root.
func (f LocalFile) Dir() string {
	dir := filepath.ToSlash(filepath.Dir(filepath.FromSlash(f.RelativePath)))
	if dir == "." {
		return ""
	}
	return dir
}

// Collector resolves upload arguments into regular files.
type Collector struct {
	patterns []string
}

// NewCollector creates a Collector that skips files matching the given
// patterns in addition to the defaults and any .vsignore file found in
// a collected directory.
func NewCollector(ignorePatterns []string) *Collector {
	patterns := make([]string, 0, len(defaultIgnorePatterns)+len(ignorePatterns))
	patterns = append(patterns, defaultIgnorePatterns...)
	patterns = append(patterns, ignorePatterns...)
	return &Collector{patterns: patterns}
}

// Collect returns the files at rawPath. A regular file yields itself.
// A directory yields its regular files, descending into subdirectories
// when recursive is set. Results are in lexical order.
func (c *Collector) Collect(rawPath string, recursive bool) ([]LocalFile, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}
	if err := checkMode(absPath, info.Mode()); err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []LocalFile{{
			Path:         absPath,
			RelativePath: filepath.Base(absPath),
			Size:         info.Size(),
			ModTime:      info.ModTime(),
		}}, nil
	}

	extra, err := ParseIgnoreFile(filepath.Join(absPath, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	matcher := NewIgnoreMatcher(append(append([]string{}, c.patterns...), extra...))

	var files []LocalFile
	err = filepath.WalkDir(absPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == absPath {
			return nil
		}
		rel, err := filepath.Rel(absPath, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive || matcher.MatchDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || matcher.Match(rel) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		files = append(files, LocalFile{
			Path:         p,
			RelativePath: filepath.ToSlash(rel),
			Size:         fi.Size(),
			ModTime:      fi.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return files, nil
}

func checkMode(path string, mode fs.FileMode) error {
	switch {
	case mode&os.ModeSymlink != 0:
		return fmt.Errorf("symlinks not supported: %s", path)
	case mode&os.ModeDevice != 0:
		return fmt.Errorf("device files not supported: %s", path)
	case mode&os.ModeNamedPipe != 0:
		return fmt.Errorf("named pipes not supported: %s", path)
	case mode&os.ModeSocket != 0:
		return fmt.Errorf("sockets not supported: %s", path)
	}
	return nil
}

// StableFile reads a file and fails at EOF if the file was modified
// after it was opened.
type StableFile struct {
	f      *os.File
	before fs.FileInfo
}

// OpenStable opens path for a change-checked read.
func OpenStable(path string) (*StableFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &StableFile{f: f, before: info}, nil
}

// Size returns the size recorded when the file was opened.
func (s *StableFile) Size() int64 {
	return s.before.Size()
}

func (s *StableFile) Read(p []byte) (int, error) {
	n, err := s.f.Read(p)
	if err == io.EOF {
		if cerr := s.checkUnchanged(); cerr != nil {
			return n, cerr
		}
	}
	return n, err
}

func (s *StableFile) checkUnchanged() error {
	after, err := s.f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", s.f.Name(), err)
	}
	if after.Size() != s.before.Size() || !after.ModTime().Equal(s.before.ModTime()) {
		return fmt.Errorf("%s: %w", s.f.Name(), ErrFileChanged)
	}
	beforeCtime, ok1 := changeTime(s.before)
	afterCtime, ok2 := changeTime(after)
	if ok1 && ok2 && !afterCtime.Equal(beforeCtime) {
		return fmt.Errorf("%s: %w", s.f.Name(), ErrFileChanged)
	}
	return nil
}

func (s *StableFile) Close() error {
	return s.f.Close()
}
