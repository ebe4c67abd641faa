package ktx

import (
	"encoding/binary"
	"fmt"
	"io"
	"slices"
	"sync/atomic"
)

// KTX is a parsed container. It is immutable after Parse and safe for
// concurrent use. It holds one reference on its Storage until Close.
type KTX struct {
	storage   *Storage
	header    Header
	order     binary.ByteOrder
	keyValues KeyValues
	images    []Image
	texelsOff uint64
	closed    atomic.Bool
}

// Parse validates s and builds the container index. Structural problems are
// reported as ErrFormat and no container is returned. The caller keeps its
// own reference to s and may release it once Parse returns.
func Parse(s *Storage) (*KTX, error) {
	if s.Released() {
		return nil, ErrStorageReleased
	}
	data := s.Data()

	h, order, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	kvEnd := uint64(HeaderSize) + uint64(h.BytesOfKeyValueData)
	if kvEnd > uint64(len(data)) {
		return nil, fmt.Errorf("%w: block declares %d bytes, %d available",
			ErrKeyValueOverrun, h.BytesOfKeyValueData, uint64(len(data))-HeaderSize)
	}
	kvs, err := ParseKeyValues(data[HeaderSize:kvEnd], h.BytesOfKeyValueData, order)
	if err != nil {
		return nil, err
	}

	images, err := ComputeLayout(h, data[kvEnd:], order)
	if err != nil {
		return nil, err
	}

	if !s.Retain() {
		return nil, ErrStorageReleased
	}
	return &KTX{
		storage:   s,
		header:    h,
		order:     order,
		keyValues: kvs,
		images:    images,
		texelsOff: kvEnd,
	}, nil
}

// Open loads and parses the container at path. See OpenStorage.
func Open(path string) (*KTX, error) {
	s, err := OpenStorage(path)
	if err != nil {
		return nil, err
	}
	return parseOwned(s)
}

// OpenReaderAt loads and parses a container without mmap.
func OpenReaderAt(r io.ReaderAt, size int64) (*KTX, error) {
	s, err := ReadStorage(r, size)
	if err != nil {
		return nil, err
	}
	return parseOwned(s)
}

// parseOwned hands the creator's reference on s over to the container.
func parseOwned(s *Storage) (*KTX, error) {
	k, err := Parse(s)
	if rerr := s.Release(); err == nil {
		err = rerr
	}
	if err != nil {
		_ = k.Close()
		return nil, err
	}
	return k, nil
}

// Close drops the container's storage reference. Views taken from the
// container stay valid until they are released.
func (k *KTX) Close() error {
	if k == nil || !k.closed.CompareAndSwap(false, true) {
		return nil
	}
	return k.storage.Release()
}

func (k *KTX) Header() Header              { return k.header }
func (k *KTX) ByteOrder() binary.ByteOrder { return k.order }
func (k *KTX) Storage() *Storage           { return k.storage }
func (k *KTX) KeyValueDataSize() uint64    { return uint64(k.header.BytesOfKeyValueData) }
func (k *KTX) TexelsDataSize() uint64      { return k.storage.Size() - k.texelsOff }
func (k *KTX) NumberOfLevels() int         { return len(k.images) }
func (k *KTX) NumberOfFaces() int          { return int(k.header.FaceUnits()) }

// KeyValues returns a copy of the parsed metadata entries.
func (k *KTX) KeyValues() KeyValues { return k.keyValues.Clone() }

// Images returns a copy of the per-level layout.
func (k *KTX) Images() []Image {
	out := make([]Image, len(k.images))
	for i, img := range k.images {
		img.Faces = slices.Clone(img.Faces)
		out[i] = img
	}
	return out
}

// KeyValueData returns the raw key/value block. The slice aliases the
// storage and must not be retained after Close.
func (k *KTX) KeyValueData() []byte {
	data := k.storage.Data()
	if data == nil {
		return nil
	}
	return data[HeaderSize:k.texelsOff:k.texelsOff]
}

// TexelsData returns everything after the key/value block, including any
// trailing bytes past the last level.
func (k *KTX) TexelsData() []byte {
	data := k.storage.Data()
	if data == nil {
		return nil
	}
	return data[k.texelsOff:]
}

// MipFaceTexelsData returns a view of one face unit, or nil when mip or face
// is out of range. The view must be released by the caller.
func (k *KTX) MipFaceTexelsData(mip, face int) *View {
	if k == nil || mip < 0 || mip >= len(k.images) {
		return nil
	}
	img := &k.images[mip]
	if face < 0 || face >= len(img.Faces) {
		return nil
	}
	f := img.Faces[face]
	return k.storage.CreateView(f.Length, k.texelsOff+f.Offset)
}
