package ktx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func assertFaces(t *testing.T, k *KTX) {
	t.Helper()
	h := k.Header()
	size := k.Storage().Size()
	for mip := range k.NumberOfLevels() {
		for face := range k.NumberOfFaces() {
			v := k.MipFaceTexelsData(mip, face)
			if v == nil {
				t.Fatalf("mip %d face %d: absent view", mip, face)
			}
			if v.Len() != h.EvalFaceSize(uint32(mip)) {
				t.Fatalf("mip %d face %d: len %d, want %d", mip, face, v.Len(), h.EvalFaceSize(uint32(mip)))
			}
			if v.Offset()+v.Len() > size {
				t.Fatalf("mip %d face %d: range [%d,%d) outside storage of %d", mip, face, v.Offset(), v.Offset()+v.Len(), size)
			}
			want := bytes.Repeat([]byte{faceFill(uint32(mip), uint32(face))}, int(v.Len()))
			if !bytes.Equal(v.Bytes(), want) {
				t.Fatalf("mip %d face %d: contents mismatch", mip, face)
			}
			_ = v.Release()
		}
	}
}

func TestParseLayouts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		h     Header
		units int
	}{
		{name: "2d", h: testHeader(17, 9, 0, 0, 1, 5, 4), units: 1},
		{name: "2d odd texel size", h: testHeader(5, 3, 0, 0, 1, 3, 3), units: 1},
		{name: "3d", h: testHeader(8, 4, 4, 0, 1, 4, 2), units: 1},
		{name: "cubemap", h: testHeader(16, 16, 0, 0, 6, 5, 4), units: 6},
		{name: "array", h: testHeader(8, 8, 0, 2, 1, 4, 4), units: 2},
		{name: "cubemap array", h: testHeader(4, 4, 0, 2, 6, 3, 1), units: 12},
		{name: "implicit single level", h: testHeader(4, 4, 0, 0, 1, 0, 4), units: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			k, err := parseBytes(t, buildTestBytes(t, tt.h, sampleKeyValues()))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			defer func() { _ = k.Close() }()

			if k.NumberOfFaces() != tt.units {
				t.Fatalf("faces = %d, want %d", k.NumberOfFaces(), tt.units)
			}
			if k.NumberOfLevels() != int(tt.h.NumberOfLevels()) {
				t.Fatalf("levels = %d, want %d", k.NumberOfLevels(), tt.h.NumberOfLevels())
			}
			assertFaces(t, k)

			texels, err := LayoutSize(tt.h)
			if err != nil {
				t.Fatalf("layout size: %v", err)
			}
			if k.TexelsDataSize() != texels {
				t.Fatalf("texels size = %d, want %d", k.TexelsDataSize(), texels)
			}
			if uint64(len(k.TexelsData())) != k.TexelsDataSize() {
				t.Fatalf("texels data length %d, size %d", len(k.TexelsData()), k.TexelsDataSize())
			}
			if uint64(len(k.KeyValueData())) != k.KeyValueDataSize() {
				t.Fatalf("key/value data length %d, size %d", len(k.KeyValueData()), k.KeyValueDataSize())
			}

			var prev uint64
			for _, img := range k.Images() {
				if img.ImageSize != tt.h.EvalImageSize(img.Level) {
					t.Fatalf("level %d image size %d, want %d", img.Level, img.ImageSize, tt.h.EvalImageSize(img.Level))
				}
				for _, f := range img.Faces {
					if f.Offset < prev {
						t.Fatalf("level %d face %d offset %d not monotonic", img.Level, f.Face, f.Offset)
					}
					prev = f.Offset + f.Length
				}
			}
		})
	}
}

func TestParseKeyValuesExposed(t *testing.T) {
	t.Parallel()

	kvs := sampleKeyValues()
	k, err := parseBytes(t, buildTestBytes(t, testHeader(4, 4, 0, 0, 1, 1, 4), kvs))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer func() { _ = k.Close() }()

	if k.KeyValueDataSize() != uint64(kvs.SerializedByteSize()) {
		t.Fatalf("key/value size %d, want %d", k.KeyValueDataSize(), kvs.SerializedByteSize())
	}
	got := k.KeyValues()
	if len(got) != len(kvs) {
		t.Fatalf("got %d entries", len(got))
	}
	if v, _ := got.GetString(KeyOrientation); v != "S=r,T=d" {
		t.Fatalf("orientation = %q", v)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	h := testHeader(8, 8, 0, 0, 6, 2, 4)
	k, err := parseBytes(t, buildTestBytes(t, h, sampleKeyValues()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer func() { _ = k.Close() }()

	kvs := k.KeyValues()
	kvs[0].Key = "clobbered"
	kvs[0].Value[0] ^= 0xFF
	if v, _ := k.KeyValues().GetString(KeyOrientation); v != "S=r,T=d" {
		t.Fatalf("orientation after caller mutation = %q", v)
	}

	imgs := k.Images()
	imgs[0].Faces[0].Length = 1 << 40
	imgs[1] = Image{}
	if got := k.Images(); got[0].Faces[0].Length != h.EvalFaceSize(0) || got[1].Level != 1 {
		t.Fatalf("images changed by caller mutation: %+v", got[:2])
	}
	assertFaces(t, k)
}

func TestMipFaceTexelsDataOutOfRange(t *testing.T) {
	t.Parallel()

	h := testHeader(8, 8, 0, 0, 6, 2, 4)
	k, err := parseBytes(t, buildTestBytes(t, h, nil))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer func() { _ = k.Close() }()

	for _, c := range [][2]int{{2, 0}, {0, 6}, {-1, 0}, {0, -1}, {100, 100}} {
		if v := k.MipFaceTexelsData(c[0], c[1]); v != nil {
			t.Fatalf("mip %d face %d: expected absent view", c[0], c[1])
		}
	}

	var nilKTX *KTX
	if v := nilKTX.MipFaceTexelsData(0, 0); v != nil {
		t.Fatalf("nil container returned a view")
	}
}

func TestParseRejectsBadIdentifier(t *testing.T) {
	t.Parallel()

	raw := buildTestBytes(t, testHeader(4, 4, 0, 0, 1, 1, 4), nil)
	raw[0] = 0
	_, err := parseBytes(t, raw)
	if !errors.Is(err, ErrInvalidMagic) || !errors.Is(err, ErrFormat) {
		t.Fatalf("expected invalid magic format error, got %v", err)
	}
}

func TestParseRejectsKeyValueSizeMismatch(t *testing.T) {
	t.Parallel()

	raw := buildTestBytes(t, testHeader(4, 4, 0, 0, 1, 1, 4), sampleKeyValues())
	declared := binary.LittleEndian.Uint32(raw[60:64])

	short := bytes.Clone(raw)
	binary.LittleEndian.PutUint32(short[60:64], declared-4)
	if _, err := parseBytes(t, short); !errors.Is(err, ErrFormat) {
		t.Fatalf("short declared size: expected ErrFormat, got %v", err)
	}

	huge := bytes.Clone(raw)
	binary.LittleEndian.PutUint32(huge[60:64], 1<<30)
	if _, err := parseBytes(t, huge); !errors.Is(err, ErrKeyValueOverrun) {
		t.Fatalf("huge declared size: expected ErrKeyValueOverrun, got %v", err)
	}
}

func TestParseRejectsTexelMismatch(t *testing.T) {
	t.Parallel()

	h := testHeader(8, 8, 0, 0, 1, 4, 4)
	raw := buildTestBytes(t, h, nil)

	truncated := raw[:len(raw)-1]
	if _, err := parseBytes(t, truncated); !errors.Is(err, ErrTexelSizeMismatch) {
		t.Fatalf("truncated: expected ErrTexelSizeMismatch, got %v", err)
	}

	badSize := bytes.Clone(raw)
	binary.LittleEndian.PutUint32(badSize[HeaderSize:HeaderSize+4], 12345)
	if _, err := parseBytes(t, badSize); !errors.Is(err, ErrTexelSizeMismatch) {
		t.Fatalf("bad imageSize: expected ErrTexelSizeMismatch, got %v", err)
	}

	threeFaces := bytes.Clone(raw)
	binary.LittleEndian.PutUint32(threeFaces[52:56], 3)
	if _, err := parseBytes(t, threeFaces); !errors.Is(err, ErrLayout) {
		t.Fatalf("three faces: expected ErrLayout, got %v", err)
	}
}

func TestParseRejectsExcessiveLevelCount(t *testing.T) {
	t.Parallel()

	raw := buildTestBytes(t, testHeader(4, 4, 0, 0, 1, 1, 4), nil)
	for _, levels := range []uint32{MaxMipLevels + 1, 0xFFFFFFFF} {
		bad := bytes.Clone(raw)
		binary.LittleEndian.PutUint32(bad[56:60], levels)
		_, err := parseBytes(t, bad)
		if !errors.Is(err, ErrLayout) || !errors.Is(err, ErrFormat) {
			t.Fatalf("%d levels: expected ErrLayout, got %v", levels, err)
		}
	}

	h := testHeader(4, 4, 0, 0, 1, 0xFFFFFFFF, 4)
	if _, err := LayoutSize(h); !errors.Is(err, ErrLayout) {
		t.Fatalf("layout size: expected ErrLayout, got %v", err)
	}
	if _, err := Build(h, nil, nil); !errors.Is(err, ErrWriter) || !errors.Is(err, ErrLayout) {
		t.Fatalf("build: expected ErrWriter wrapping ErrLayout, got %v", err)
	}

	// A 1x1 image can legally repeat its single texel down the full chain.
	deep := testHeader(1, 1, 0, 0, 1, MaxMipLevels, 4)
	k, err := parseBytes(t, buildTestBytes(t, deep, nil))
	if err != nil {
		t.Fatalf("parse %d levels: %v", MaxMipLevels, err)
	}
	defer func() { _ = k.Close() }()
	if k.NumberOfLevels() != MaxMipLevels {
		t.Fatalf("levels = %d, want %d", k.NumberOfLevels(), MaxMipLevels)
	}
}

func TestParseToleratesTrailingBytes(t *testing.T) {
	t.Parallel()

	h := testHeader(8, 8, 0, 0, 1, 2, 4)
	raw := append(buildTestBytes(t, h, nil), 1, 2, 3, 4, 5, 6, 7, 8)
	k, err := parseBytes(t, raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer func() { _ = k.Close() }()

	texels, _ := LayoutSize(h)
	if k.TexelsDataSize() != texels+8 {
		t.Fatalf("texels size = %d, want %d", k.TexelsDataSize(), texels+8)
	}
	assertFaces(t, k)
}

func TestParseBigEndian(t *testing.T) {
	t.Parallel()

	// 4x2 texels of one byte: row 4, face 8.
	h := testHeader(4, 2, 0, 0, 1, 1, 1)
	kvs := KeyValues{NewStringKeyValue("k", "v")}
	h.BytesOfKeyValueData = kvs.SerializedByteSize()

	raw := make([]byte, HeaderSize)
	EncodeHeader(raw, h, binary.BigEndian)
	raw = AppendKeyValues(raw, kvs, binary.BigEndian)
	raw = binary.BigEndian.AppendUint32(raw, 8)
	raw = append(raw, 1, 2, 3, 4, 5, 6, 7, 8)

	k, err := parseBytes(t, raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer func() { _ = k.Close() }()

	if k.ByteOrder() != binary.BigEndian {
		t.Fatalf("byte order = %s", k.ByteOrder())
	}
	if got := k.Header().PixelWidth; got != 4 {
		t.Fatalf("width = %d", got)
	}
	if v, _ := k.KeyValues().GetString("k"); v != "v" {
		t.Fatalf("k = %q", v)
	}
	v := k.MipFaceTexelsData(0, 0)
	defer func() { _ = v.Release() }()
	if !bytes.Equal(v.Bytes(), []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("face bytes = %v", v.Bytes())
	}
}

func TestContainerLifetime(t *testing.T) {
	t.Parallel()

	h := testHeader(4, 4, 0, 0, 1, 1, 4)
	s := buildTestStorage(t, h, nil)

	k, err := Parse(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := s.Release(); err != nil {
		t.Fatalf("release creator reference: %v", err)
	}
	if s.Released() {
		t.Fatalf("container should keep the storage alive")
	}

	v := k.MipFaceTexelsData(0, 0)
	if err := k.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := k.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if s.Released() || len(v.Bytes()) != int(h.EvalFaceSize(0)) {
		t.Fatalf("view should outlive its container")
	}
	if err := v.Release(); err != nil {
		t.Fatalf("release view: %v", err)
	}
	if !s.Released() {
		t.Fatalf("storage should be released with its last view")
	}

	if _, err := Parse(s); !errors.Is(err, ErrStorageReleased) {
		t.Fatalf("parse released storage: expected ErrStorageReleased, got %v", err)
	}
}
