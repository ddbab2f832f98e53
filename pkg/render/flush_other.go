//go:build !linux
// +build !linux

package render

import "os"

func flushFrame(f *os.File) error {
	return f.Sync()
}
