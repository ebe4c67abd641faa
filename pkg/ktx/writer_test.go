package ktx

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriterBytesWritten(t *testing.T) {
	t.Parallel()

	h := testHeader(9, 5, 0, 0, 6, 3, 4)
	kvs := sampleKeyValues()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, h, kvs)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if got := w.Header().BytesOfKeyValueData; got != kvs.SerializedByteSize() {
		t.Fatalf("writer key/value size = %d, want %d", got, kvs.SerializedByteSize())
	}
	for _, faces := range testLevels(h) {
		if err := w.WriteLevel(faces...); err != nil {
			t.Fatalf("write level: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	texels, err := LayoutSize(h)
	if err != nil {
		t.Fatalf("layout size: %v", err)
	}
	want := int64(HeaderSize) + int64(kvs.SerializedByteSize()) + int64(texels)
	if w.BytesWritten() != want || int64(buf.Len()) != want {
		t.Fatalf("wrote %d (buffer %d), want %d", w.BytesWritten(), buf.Len(), want)
	}
	if !bytes.Equal(buf.Bytes()[:IdentifierLength], Identifier[:]) {
		t.Fatalf("identifier not written")
	}
}

func TestWriterRejectsMisuse(t *testing.T) {
	t.Parallel()

	h := testHeader(4, 4, 0, 0, 1, 2, 4)
	levels := testLevels(h)

	if _, err := NewWriter(nil, h, nil); !errors.Is(err, ErrWriter) {
		t.Fatalf("nil destination: expected ErrWriter, got %v", err)
	}
	bad := h
	bad.NumberOfFaces = 2
	if _, err := NewWriter(&bytes.Buffer{}, bad, nil); !errors.Is(err, ErrWriter) || !errors.Is(err, ErrLayout) {
		t.Fatalf("two faces: expected ErrWriter wrapping ErrLayout, got %v", err)
	}

	w, err := NewWriter(&bytes.Buffer{}, h, nil)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.WriteLevel(levels[0][0], levels[0][0]); !errors.Is(err, ErrWriter) {
		t.Fatalf("too many faces: expected ErrWriter, got %v", err)
	}
	if err := w.WriteLevel(levels[0][0][:3]); !errors.Is(err, ErrWriter) {
		t.Fatalf("short face: expected ErrWriter, got %v", err)
	}
	if err := w.WriteLevel(levels[0]...); err != nil {
		t.Fatalf("level 0: %v", err)
	}
	if err := w.Close(); !errors.Is(err, ErrWriter) {
		t.Fatalf("missing level: expected ErrWriter, got %v", err)
	}
	if err := w.WriteLevel(levels[1]...); !errors.Is(err, ErrWriter) {
		t.Fatalf("write after close: expected ErrWriter, got %v", err)
	}

	w, _ = NewWriter(&bytes.Buffer{}, h, nil)
	for _, faces := range levels {
		if err := w.WriteLevel(faces...); err != nil {
			t.Fatalf("write level: %v", err)
		}
	}
	if err := w.WriteLevel(levels[1]...); !errors.Is(err, ErrWriter) {
		t.Fatalf("extra level: expected ErrWriter, got %v", err)
	}

	if _, err := Build(h, nil, levels[:1]); !errors.Is(err, ErrWriter) {
		t.Fatalf("build with missing level: expected ErrWriter, got %v", err)
	}
}

func TestBuildParseRoundTrip(t *testing.T) {
	t.Parallel()

	h := testHeader(13, 7, 0, 3, 1, 4, 2)
	kvs := sampleKeyValues()
	s := buildTestStorage(t, h, kvs)
	defer func() { _ = s.Release() }()

	k, err := Parse(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer func() { _ = k.Close() }()

	got := k.Header()
	h.BytesOfKeyValueData = kvs.SerializedByteSize()
	if got != h {
		t.Fatalf("header mismatch: got %+v want %+v", got, h)
	}
	for i, kv := range k.KeyValues() {
		if kv.Key != kvs[i].Key || !bytes.Equal(kv.Value, kvs[i].Value) {
			t.Fatalf("entry %d mismatch: %q", i, kv.Key)
		}
	}
	assertFaces(t, k)
}
