package compression

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Snapshot file layout: an 8-byte magic, the compressor name, then one
// frame per record. Each frame carries the 32-byte key, the stored and
// original payload sizes, and the payload itself.
var snapshotMagic = [8]byte{'A', 'M', 'M', 'S', 'N', 'A', 'P', '1'}

var (
	ErrBadSnapshot = errors.New("malformed snapshot")
)

// maxFrameSize bounds a single record payload so a corrupt length
// field can't trigger a huge allocation.
const maxFrameSize = 16 << 20

// SnapshotWriter streams state records into a compressed snapshot.
type SnapshotWriter struct {
	w    *bufio.Writer
	comp Compressor
}

// NewSnapshotWriter writes a snapshot header to w and returns a writer
// for its frames.
func NewSnapshotWriter(w io.Writer, comp Compressor) (*SnapshotWriter, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(snapshotMagic[:]); err != nil {
		return nil, err
	}
	name := comp.Name()
	if err := bw.WriteByte(byte(len(name))); err != nil {
		return nil, err
	}
	if _, err := bw.WriteString(name); err != nil {
		return nil, err
	}
	return &SnapshotWriter{w: bw, comp: comp}, nil
}

// WriteRecord appends one record frame.
func (s *SnapshotWriter) WriteRecord(key [32]byte, data []byte) error {
	if len(data) > maxFrameSize {
		return fmt.Errorf("record too large for snapshot: %d bytes", len(data))
	}

	stored, err := s.comp.Compress(data)
	if err != nil {
		return err
	}

	if _, err := s.w.Write(key[:]); err != nil {
		return err
	}
	var sizes [8]byte
	binary.BigEndian.PutUint32(sizes[0:4], uint32(len(stored)))
	binary.BigEndian.PutUint32(sizes[4:8], uint32(len(data)))
	if _, err := s.w.Write(sizes[:]); err != nil {
		return err
	}
	_, err = s.w.Write(stored)
	return err
}

// Flush flushes buffered frames to the underlying writer.
func (s *SnapshotWriter) Flush() error {
	return s.w.Flush()
}

// SnapshotReader streams record frames back out of a snapshot.
type SnapshotReader struct {
	r    *bufio.Reader
	comp Compressor
}

// NewSnapshotReader validates the snapshot header and returns a reader
// for its frames.
func NewSnapshotReader(r io.Reader) (*SnapshotReader, error) {
	br := bufio.NewReader(r)

	var magic [8]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadSnapshot)
	}

	nameLen, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(br, name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	comp, err := ForName(string(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}

	return &SnapshotReader{r: br, comp: comp}, nil
}

// ReadRecord reads the next frame. It returns io.EOF after the last
// record.
func (s *SnapshotReader) ReadRecord() ([32]byte, []byte, error) {
	var key [32]byte
	if _, err := io.ReadFull(s.r, key[:]); err != nil {
		if err == io.EOF {
			return key, nil, io.EOF
		}
		return key, nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}

	var sizes [8]byte
	if _, err := io.ReadFull(s.r, sizes[:]); err != nil {
		return key, nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	storedSize := binary.BigEndian.Uint32(sizes[0:4])
	originalSize := binary.BigEndian.Uint32(sizes[4:8])
	if storedSize > maxFrameSize || originalSize > maxFrameSize {
		return key, nil, fmt.Errorf("%w: oversized frame", ErrBadSnapshot)
	}

	stored := make([]byte, storedSize)
	if _, err := io.ReadFull(s.r, stored); err != nil {
		return key, nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}

	data, err := s.comp.Decompress(stored, int(originalSize))
	if err != nil {
		return key, nil, err
	}
	return key, data, nil
}
