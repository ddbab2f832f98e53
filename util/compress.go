package util

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"golang.org/x/exp/mmap"
)

// OpenCompressed opens a data file for sequential reading, transparently
// decompressing based on the file extension. Gzip (.gz/.gzip) and lz4
// (.lz4) streams are decoded on the fly; any other file is assumed to be
// raw and is served from an mmap-backed reader.
func OpenCompressed(path string) (io.ReadCloser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		gr, err := gzip.NewReader(bufio.NewReaderSize(f, 1<<16))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip open %s: %w", path, err)
		}
		return &decompressReader{r: gr, closers: []io.Closer{gr, f}}, nil

	case ".lz4":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		zr := lz4.NewReader(bufio.NewReaderSize(f, 1<<16))
		return &decompressReader{r: zr, closers: []io.Closer{f}}, nil

	default:
		r, err := mmap.Open(path)
		if err != nil {
			return nil, fmt.Errorf("mmap open %s: %w", path, err)
		}
		return &mmapReader{sr: io.NewSectionReader(r, 0, int64(r.Len())), r: r}, nil
	}
}

type decompressReader struct {
	r       io.Reader
	closers []io.Closer
}

func (d *decompressReader) Read(p []byte) (int, error) { return d.r.Read(p) }

func (d *decompressReader) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type mmapReader struct {
	sr *io.SectionReader
	r  *mmap.ReaderAt
}

func (m *mmapReader) Read(p []byte) (int, error) { return m.sr.Read(p) }

func (m *mmapReader) Close() error { return m.r.Close() }
