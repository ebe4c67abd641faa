package ktx

import (
	"sync/atomic"
)

// Storage is an immutable byte buffer shared by reference count. The creator
// holds the first reference; every View and parsed container holds one more.
// The backing is released when the last reference goes.
type Storage struct {
	data    []byte
	refs    atomic.Int64
	release func([]byte) error
}

// NewStorage takes ownership of data. The caller must not modify it
// afterwards.
func NewStorage(data []byte) *Storage {
	return newStorage(data, nil)
}

func newStorage(data []byte, release func([]byte) error) *Storage {
	s := &Storage{data: data, release: release}
	s.refs.Store(1)
	return s
}

// Size returns the number of bytes held.
func (s *Storage) Size() uint64 {
	if s == nil {
		return 0
	}
	return uint64(len(s.data))
}

// Data returns the backing bytes, or nil once released. Callers must treat
// the slice as read-only and must not retain it past their reference.
func (s *Storage) Data() []byte {
	if s == nil || s.refs.Load() <= 0 {
		return nil
	}
	return s.data
}

// Released reports whether the last reference has been dropped.
func (s *Storage) Released() bool {
	return s == nil || s.refs.Load() <= 0
}

// Retain adds a reference. It reports false if the storage is already gone.
func (s *Storage) Retain() bool {
	if s == nil {
		return false
	}
	for {
		n := s.refs.Load()
		if n <= 0 {
			return false
		}
		if s.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Release drops a reference and frees the backing on the last one.
func (s *Storage) Release() error {
	if s == nil {
		return nil
	}
	for {
		n := s.refs.Load()
		if n <= 0 {
			return ErrStorageReleased
		}
		if !s.refs.CompareAndSwap(n, n-1) {
			continue
		}
		if n == 1 && s.release != nil {
			return s.release(s.data)
		}
		return nil
	}
}

// CreateView returns a view of length bytes at offset, or nil if the range
// does not fit inside the storage or the storage has been released.
func (s *Storage) CreateView(length, offset uint64) *View {
	if s == nil {
		return nil
	}
	end := offset + length
	if end < offset || end > uint64(len(s.data)) {
		return nil
	}
	if !s.Retain() {
		return nil
	}
	return &View{storage: s, offset: offset, length: length}
}

// View is a bounds-checked window into a Storage. It keeps the storage alive
// until released.
type View struct {
	storage  *Storage
	offset   uint64
	length   uint64
	released atomic.Bool
}

// Bytes returns the viewed range, or nil for an absent or released view.
// The slice capacity is clipped to the view.
func (v *View) Bytes() []byte {
	if v == nil || v.released.Load() {
		return nil
	}
	data := v.storage.Data()
	if data == nil {
		return nil
	}
	end := v.offset + v.length
	return data[v.offset:end:end]
}

func (v *View) Len() uint64 {
	if v == nil {
		return 0
	}
	return v.length
}

// Offset is the absolute offset of the view inside its storage.
func (v *View) Offset() uint64 {
	if v == nil {
		return 0
	}
	return v.offset
}

func (v *View) Storage() *Storage {
	if v == nil {
		return nil
	}
	return v.storage
}

// Clone returns an independent view of the same range.
func (v *View) Clone() *View {
	if v == nil || v.released.Load() {
		return nil
	}
	return v.storage.CreateView(v.length, v.offset)
}

// Release drops the view's storage reference. Releasing twice is a no-op.
func (v *View) Release() error {
	if v == nil || !v.released.CompareAndSwap(false, true) {
		return nil
	}
	return v.storage.Release()
}
