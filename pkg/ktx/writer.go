package ktx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
)

// Writer emits a container in a single pass: header and key/value block on
// construction, then one WriteLevel call per mip level in order. Output is
// always little-endian.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	header  Header
	level   uint32
	closed  bool
	written int64
}

var le = binary.LittleEndian

// NewWriter writes the header and key/value block of a new container to w.
// The identifier, endianness marker and BytesOfKeyValueData fields of h are
// filled in from kvs.
func NewWriter(w io.Writer, h Header, kvs KeyValues) (*Writer, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: nil destination", ErrWriter)
	}
	if err := checkGeometry(&h); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriter, err)
	}
	if _, err := LayoutSize(h); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriter, err)
	}

	h.Identifier = Identifier
	h.Endianness = EndiannessMarker
	h.BytesOfKeyValueData = kvs.SerializedByteSize()

	buf := make([]byte, HeaderSize, HeaderSize+int(h.BytesOfKeyValueData))
	if !EncodeHeader(buf, h, le) {
		return nil, fmt.Errorf("%w: encode header failed", ErrWriter)
	}
	buf = AppendKeyValues(buf, kvs, le)

	kw := &Writer{w: w, header: h}
	if err := kw.write(buf); err != nil {
		return nil, err
	}
	return kw, nil
}

// Header returns the header as written.
func (w *Writer) Header() Header {
	return w.header
}

// BytesWritten returns the number of bytes emitted so far.
func (w *Writer) BytesWritten() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// WriteLevel writes the next mip level. faces must hold exactly
// Header().FaceUnits() entries of EvalFaceSize(level) bytes each, ordered
// array slice major then face.
func (w *Writer) WriteLevel(faces ...[]byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("%w: already closed", ErrWriter)
	}
	h := &w.header
	if w.level >= h.NumberOfLevels() {
		return fmt.Errorf("%w: all %d levels already written", ErrWriter, h.NumberOfLevels())
	}
	g, ok := evalLevelGeometry(h, w.level)
	if !ok {
		return fmt.Errorf("%w: level %d size overflows", ErrWriter, w.level)
	}
	if uint64(len(faces)) != uint64(g.units) {
		return fmt.Errorf("%w: level %d: got %d faces, want %d", ErrWriter, w.level, len(faces), g.units)
	}
	for i, f := range faces {
		if uint64(len(f)) != g.faceSize {
			return fmt.Errorf("%w: level %d face %d: got %d bytes, want %d", ErrWriter, w.level, i, len(f), g.faceSize)
		}
	}
	if g.imageSize > math.MaxUint32 {
		return fmt.Errorf("%w: level %d imageSize %d does not fit the format", ErrWriter, w.level, g.imageSize)
	}

	var prefix [4]byte
	le.PutUint32(prefix[:], uint32(g.imageSize))
	if err := w.write(prefix[:]); err != nil {
		return err
	}
	var zeros [PackingSize]byte
	for _, f := range faces {
		if err := w.write(f); err != nil {
			return err
		}
		if err := w.write(zeros[:g.facePad]); err != nil {
			return err
		}
	}
	body := uint64(g.units) * (g.faceSize + g.facePad)
	if err := w.write(zeros[:Padding(body)]); err != nil {
		return err
	}
	w.level++
	return nil
}

// Close checks that every level was written. It does not close the
// underlying writer.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("%w: already closed", ErrWriter)
	}
	w.closed = true
	if n := w.header.NumberOfLevels(); w.level != n {
		return fmt.Errorf("%w: wrote %d of %d levels", ErrWriter, w.level, n)
	}
	return nil
}

func (w *Writer) write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n, err := w.w.Write(p)
	w.written += int64(n)
	if err != nil {
		return err
	}
	if n != len(p) {
		return io.ErrShortWrite
	}
	return nil
}

// Build assembles a complete container in memory and returns it as a new
// Storage owned by the caller. levels[i] holds the face units of level i.
func Build(h Header, kvs KeyValues, levels [][][]byte) (*Storage, error) {
	texels, err := LayoutSize(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriter, err)
	}
	if uint64(len(levels)) != uint64(h.NumberOfLevels()) {
		return nil, fmt.Errorf("%w: got %d levels, header declares %d", ErrWriter, len(levels), h.NumberOfLevels())
	}

	total := HeaderSize + uint64(kvs.SerializedByteSize()) + texels
	if total < texels || total > math.MaxInt {
		return nil, fmt.Errorf("%w: container of %d bytes cannot be held in memory", ErrWriter, total)
	}

	var buf bytes.Buffer
	buf.Grow(int(total))
	w, err := NewWriter(&buf, h, kvs)
	if err != nil {
		return nil, err
	}
	for _, faces := range levels {
		if err := w.WriteLevel(faces...); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return NewStorage(buf.Bytes()), nil
}
