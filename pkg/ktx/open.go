package ktx

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sys/unix"
)

// MaxDecompressedSize bounds the container a zstd file may expand into.
const MaxDecompressedSize uint64 = 4 << 30

// zstdMagic opens every zstd frame.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// OpenStorage maps the file at path read-only. If mmap is unavailable it
// falls back to reading the file into memory. A zstd-compressed file is
// decompressed into memory. The caller owns the returned reference.
func OpenStorage(path string) (*Storage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrFormat, path)
	}
	if size64 > int64(int(^uint(0)>>1)) {
		// cannot index this file safely as []byte on this architecture.
		return nil, fmt.Errorf("%w: %s is too large", ErrFormat, path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size64), unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		if !isZstd(data) {
			return newStorage(data, unix.Munmap), nil
		}
		out, derr := decompress(data)
		_ = unix.Munmap(data)
		if derr != nil {
			return nil, derr
		}
		return NewStorage(out), nil
	}

	return ReadStorage(f, size64)
}

// ReadStorage copies size bytes from r into a new in-memory Storage,
// decompressing zstd input.
func ReadStorage(r io.ReaderAt, size int64) (*Storage, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: invalid size %d", ErrFormat, size)
	}
	data := make([]byte, size)
	n, err := r.ReadAt(data, 0)
	if err != nil && !(err == io.EOF && int64(n) == size) {
		return nil, err
	}
	if isZstd(data) {
		if data, err = decompress(data); err != nil {
			return nil, err
		}
	}
	return NewStorage(data), nil
}

// CompressStorage writes the contents of s to w as a single zstd stream.
func CompressStorage(w io.Writer, s *Storage) error {
	data := s.Data()
	if data == nil {
		return ErrStorageReleased
	}
	enc, err := zstd.NewWriter(w,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
	)
	if err != nil {
		return err
	}
	if _, err := enc.Write(data); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func isZstd(b []byte) bool {
	return bytes.HasPrefix(b, zstdMagic)
}

func decompress(src []byte) ([]byte, error) {
	return decompressLimit(src, MaxDecompressedSize)
}

func decompressLimit(src []byte, limit uint64) ([]byte, error) {
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(limit),
	)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	out, err := dec.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %w", ErrFormat, err)
	}
	return out, nil
}
