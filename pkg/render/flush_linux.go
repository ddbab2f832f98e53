//go:build linux
// +build linux

package render

import (
	"os"

	"golang.org/x/sys/unix"
)

// flushFrame syncs the encoded frame and drops it from the page cache.
// Frames are write-once and never read back by this process.
func flushFrame(f *os.File) error {
	if err := f.Sync(); err != nil {
		return err
	}
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_DONTNEED)
	return nil
}
