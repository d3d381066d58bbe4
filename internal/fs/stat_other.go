//go:build !unix

package fs

import (
	"io/fs"
	"time"
)

func changeTime(fs.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}
