package ktx

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// KeyValue is one metadata entry. The key is stored NUL-terminated on disk;
// the value is opaque bytes.
type KeyValue struct {
	Key   string
	Value []byte
}

// NewKeyValue copies value into a new entry.
func NewKeyValue(key string, value []byte) KeyValue {
	return KeyValue{Key: key, Value: bytes.Clone(value)}
}

// NewStringKeyValue stores s with a trailing NUL, the way KTX tools write
// text values.
func NewStringKeyValue(key, s string) KeyValue {
	v := make([]byte, len(s)+1)
	copy(v, s)
	return KeyValue{Key: key, Value: v}
}

// ByteSize is the payload size: key, its terminator, then the value.
func (kv KeyValue) ByteSize() uint32 {
	return uint32(len(kv.Key) + 1 + len(kv.Value))
}

// SerializedByteSize includes the length prefix and trailing padding.
func (kv KeyValue) SerializedByteSize() uint32 {
	n := kv.ByteSize()
	return 4 + n + Padding(uint64(n))
}

// String returns the value as text with trailing NULs removed.
func (kv KeyValue) String() string {
	return string(bytes.TrimRight(kv.Value, "\x00"))
}

// KeyValues is an ordered metadata block.
type KeyValues []KeyValue

// Clone returns a deep copy of kvs.
func (kvs KeyValues) Clone() KeyValues {
	if kvs == nil {
		return nil
	}
	out := make(KeyValues, len(kvs))
	for i, kv := range kvs {
		out[i] = KeyValue{Key: kv.Key, Value: bytes.Clone(kv.Value)}
	}
	return out
}

// SerializedByteSize is the value bytesOfKeyValueData must hold for kvs.
func (kvs KeyValues) SerializedByteSize() uint32 {
	var n uint32
	for _, kv := range kvs {
		n += kv.SerializedByteSize()
	}
	return n + Padding(uint64(n))
}

// Get returns the value of the first entry with the given key.
func (kvs KeyValues) Get(key string) ([]byte, bool) {
	for _, kv := range kvs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

func (kvs KeyValues) GetString(key string) (string, bool) {
	for _, kv := range kvs {
		if kv.Key == key {
			return kv.String(), true
		}
	}
	return "", false
}

func (kvs KeyValues) Keys() []string {
	out := make([]string, len(kvs))
	for i, kv := range kvs {
		out[i] = kv.Key
	}
	return out
}

// ParseKeyValues decodes a metadata block of exactly declared bytes from the
// start of b. Values are copied so the result does not pin b.
func ParseKeyValues(b []byte, declared uint32, order binary.ByteOrder) (KeyValues, error) {
	if uint64(declared) > uint64(len(b)) {
		return nil, fmt.Errorf("%w: block declares %d bytes, %d available", ErrKeyValueOverrun, declared, len(b))
	}

	var (
		kvs  KeyValues
		off  uint64
		size = uint64(declared)
	)
	for off < size {
		if size-off < 4 {
			return nil, fmt.Errorf("%w: truncated length at offset %d", ErrKeyValueOverrun, off)
		}
		n := uint64(order.Uint32(b[off : off+4]))
		end := off + 4 + n + uint64(Padding(n))
		if end > size {
			return nil, fmt.Errorf("%w: entry at offset %d needs %d bytes, block has %d", ErrKeyValueOverrun, off, end-off, size-off)
		}

		payload := b[off+4 : off+4+n]
		keyLen := bytes.IndexByte(payload, 0)
		if keyLen < 0 {
			return nil, fmt.Errorf("%w: key at offset %d is not NUL-terminated", ErrFormat, off)
		}
		kvs = append(kvs, KeyValue{
			Key:   string(payload[:keyLen]),
			Value: bytes.Clone(payload[keyLen+1:]),
		})
		off = end
	}
	return kvs, nil
}

// AppendKeyValues appends the encoded block to dst. The caller is
// responsible for storing kvs.SerializedByteSize() in the header.
func AppendKeyValues(dst []byte, kvs KeyValues, order binary.ByteOrder) []byte {
	var (
		zeros  [PackingSize]byte
		prefix [4]byte
	)
	start := len(dst)
	for _, kv := range kvs {
		n := kv.ByteSize()
		order.PutUint32(prefix[:], n)
		dst = append(dst, prefix[:]...)
		dst = append(dst, kv.Key...)
		dst = append(dst, 0)
		dst = append(dst, kv.Value...)
		dst = append(dst, zeros[:Padding(uint64(n))]...)
	}
	return append(dst, zeros[:Padding(uint64(len(dst)-start))]...)
}
