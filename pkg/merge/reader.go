package merge

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/downfa11-org/tombmap/pkg/types"
	"github.com/downfa11-org/tombmap/util"
)

// shardReader lazily decodes one event shard, holding a single buffered
// record at a time. Shard bodies may be one JSON array of event records or
// a bare concatenation of records; both are streamed through the decoder
// without materializing the file.
type shardReader struct {
	id      int
	name    string
	rc      io.ReadCloser
	dec     *json.Decoder
	inArray bool
	head    *types.Event
}

func openShard(id int, path, name string) (*shardReader, error) {
	rc, err := util.OpenCompressed(path)
	if err != nil {
		return nil, fmt.Errorf("open shard %s: %w", name, err)
	}

	br := bufio.NewReaderSize(rc, 1<<16)
	inArray, err := startsWithArray(br)
	if err != nil {
		_ = rc.Close()
		return nil, &types.ParseError{File: name, Offset: 0, Err: err}
	}

	sr := &shardReader{
		id:      id,
		name:    name,
		rc:      rc,
		dec:     json.NewDecoder(br),
		inArray: inArray,
	}
	if inArray {
		if _, err := sr.dec.Token(); err != nil { // consume '['
			_ = rc.Close()
			return nil, &types.ParseError{File: name, Offset: sr.dec.InputOffset(), Err: err}
		}
	}
	return sr, nil
}

// startsWithArray peeks past leading whitespace for a '[' without
// consuming anything.
func startsWithArray(br *bufio.Reader) (bool, error) {
	for skip := 0; ; skip++ {
		buf, err := br.Peek(skip + 1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil // empty shard
			}
			return false, err
		}
		switch buf[skip] {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true, nil
		default:
			return false, nil
		}
	}
}

// advance decodes the next record into head. Returns io.EOF once the shard
// is exhausted, or a ParseError carrying the shard name and byte offset.
func (s *shardReader) advance() error {
	if s.inArray {
		if !s.dec.More() {
			if _, err := s.dec.Token(); err != nil && !errors.Is(err, io.EOF) { // consume ']'
				return &types.ParseError{File: s.name, Offset: s.dec.InputOffset(), Err: err}
			}
			s.head = nil
			return io.EOF
		}
	}

	var ev types.Event
	if err := s.dec.Decode(&ev); err != nil {
		if errors.Is(err, io.EOF) && !s.inArray {
			s.head = nil
			return io.EOF
		}
		return &types.ParseError{File: s.name, Offset: s.dec.InputOffset(), Err: err}
	}

	if ev.Bucket == "" || ev.Operation == "" {
		return &types.ParseError{
			File:   s.name,
			Offset: s.dec.InputOffset(),
			Err:    fmt.Errorf("event missing required bucket or operation field"),
		}
	}

	s.head = &ev
	return nil
}

func (s *shardReader) close() error { return s.rc.Close() }
