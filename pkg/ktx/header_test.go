package ktx

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestEvalPixelDimensionsHalveWithFloorOfOne(t *testing.T) {
	t.Parallel()

	h := testHeader(17, 9, 0, 0, 1, 5, 4)
	tests := []struct {
		level   uint32
		w, h, d uint32
	}{
		{0, 17, 9, 1},
		{1, 8, 4, 1},
		{2, 4, 2, 1},
		{3, 2, 1, 1},
		{4, 1, 1, 1},
		{31, 1, 1, 1},
		{40, 1, 1, 1},
	}
	for _, tt := range tests {
		if got := h.EvalPixelWidth(tt.level); got != tt.w {
			t.Fatalf("width(%d) = %d, want %d", tt.level, got, tt.w)
		}
		if got := h.EvalPixelHeight(tt.level); got != tt.h {
			t.Fatalf("height(%d) = %d, want %d", tt.level, got, tt.h)
		}
		if got := h.EvalPixelDepth(tt.level); got != tt.d {
			t.Fatalf("depth(%d) = %d, want %d", tt.level, got, tt.d)
		}
	}
}

func TestEvalMaxDimension(t *testing.T) {
	t.Parallel()

	h := testHeader(16, 64, 8, 0, 1, 1, 1)
	if got := h.EvalMaxDimension(); got != 64 {
		t.Fatalf("max dimension = %d, want 64", got)
	}
}

func TestEvalRowSizeIsAligned(t *testing.T) {
	t.Parallel()

	for typeSize := uint32(1); typeSize <= 8; typeSize++ {
		for width := uint32(1); width <= 33; width++ {
			h := testHeader(width, 1, 0, 0, 1, 6, typeSize)
			for level := range uint32(6) {
				row := h.EvalRowSize(level)
				net := uint64(h.EvalPixelWidth(level)) * uint64(typeSize)
				if row%4 != 0 {
					t.Fatalf("w=%d ts=%d level %d: row size %d not aligned", width, typeSize, level, row)
				}
				if row < net || row-net > 3 {
					t.Fatalf("w=%d ts=%d level %d: row size %d for %d net bytes", width, typeSize, level, row, net)
				}
			}
		}
	}
}

func TestEvalPixelSizeIsTypeSize(t *testing.T) {
	t.Parallel()

	h := testHeader(4, 4, 0, 0, 1, 1, 3)
	if got := h.EvalPixelSize(); got != 3 {
		t.Fatalf("pixel size = %d, want 3", got)
	}
	// 4 texels * 3 bytes = 12, already aligned.
	if got := h.EvalFaceSize(0); got != 4*12 {
		t.Fatalf("face size = %d, want 48", got)
	}
}

func TestEvalImageSize(t *testing.T) {
	t.Parallel()

	cube := testHeader(8, 8, 0, 0, 6, 4, 4)
	arr := testHeader(8, 8, 0, 2, 1, 4, 4)
	cubeArr := testHeader(8, 8, 0, 3, 6, 4, 4)
	plain := testHeader(8, 8, 0, 0, 1, 4, 4)

	for level := range uint32(4) {
		if got, want := cube.EvalImageSize(level), cube.EvalFaceSize(level); got != want {
			t.Fatalf("cubemap level %d: image size %d, want face size %d", level, got, want)
		}
		if got, want := arr.EvalImageSize(level), 2*arr.EvalFaceSize(level); got != want {
			t.Fatalf("array level %d: image size %d, want %d", level, got, want)
		}
		if got, want := cubeArr.EvalImageSize(level), 18*cubeArr.EvalFaceSize(level); got != want {
			t.Fatalf("cubemap array level %d: image size %d, want %d", level, got, want)
		}
		if got, want := plain.EvalImageSize(level), plain.EvalFaceSize(level); got != want {
			t.Fatalf("2d level %d: image size %d, want %d", level, got, want)
		}
	}

	if cube.FaceUnits() != 6 || arr.FaceUnits() != 2 || cubeArr.FaceUnits() != 18 || plain.FaceUnits() != 1 {
		t.Fatalf("face units: cube=%d arr=%d cubeArr=%d plain=%d",
			cube.FaceUnits(), arr.FaceUnits(), cubeArr.FaceUnits(), plain.FaceUnits())
	}
}

func TestNumberOfLevelsTreatsZeroAsOne(t *testing.T) {
	t.Parallel()

	h := testHeader(4, 4, 0, 0, 1, 0, 4)
	if got := h.NumberOfLevels(); got != 1 {
		t.Fatalf("levels = %d, want 1", got)
	}
}

func TestDecodeHeaderRejectsBadIdentifier(t *testing.T) {
	t.Parallel()

	var raw [HeaderSize]byte
	h := testHeader(4, 4, 0, 0, 1, 1, 4)
	if !EncodeHeader(raw[:], h, binary.LittleEndian) {
		t.Fatalf("encode header failed")
	}
	raw[1] = 'X'

	_, _, err := DecodeHeader(raw[:])
	if !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("invalid magic should be a format error, got %v", err)
	}
}

func TestDecodeHeaderShortInput(t *testing.T) {
	t.Parallel()

	_, _, err := DecodeHeader(Identifier[:])
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestDecodeHeaderBadMarker(t *testing.T) {
	t.Parallel()

	var raw [HeaderSize]byte
	h := testHeader(4, 4, 0, 0, 1, 1, 4)
	EncodeHeader(raw[:], h, binary.LittleEndian)
	binary.LittleEndian.PutUint32(raw[12:16], 0xDEADBEEF)

	if _, _, err := DecodeHeader(raw[:]); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestHeaderEncodingByteOrders(t *testing.T) {
	t.Parallel()

	h := testHeader(0x01020304, 0x0A0B, 1, 2, 6, 3, 4)
	h.BytesOfKeyValueData = 0x11223344

	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		var raw [HeaderSize]byte
		if !EncodeHeader(raw[:], h, order) {
			t.Fatalf("%s: encode header failed", order)
		}
		if order.Uint32(raw[36:40]) != 0x01020304 {
			t.Fatalf("%s: pixel width not at offset 36: %x", order, raw[36:40])
		}

		got, gotOrder, err := DecodeHeader(raw[:])
		if err != nil {
			t.Fatalf("%s: decode: %v", order, err)
		}
		if gotOrder != order {
			t.Fatalf("decoded order %s, want %s", gotOrder, order)
		}
		if got != h {
			t.Fatalf("%s: header round-trip mismatch: got %+v want %+v", order, got, h)
		}
	}

	var be [HeaderSize]byte
	EncodeHeader(be[:], h, binary.BigEndian)
	if be[12] != 0x04 || be[15] != 0x01 {
		t.Fatalf("big-endian marker bytes: %x", be[12:16])
	}
}

func TestParseGLNames(t *testing.T) {
	t.Parallel()
	if v, ok := ParseGLType("gl_unsigned_int_8_8_8_8_rev"); !ok || v != GLUnsignedInt8888Rev {
		t.Fatalf("ParseGLType = %v, %v", v, ok)
	}
	if v, ok := ParseGLFormat("RGBA"); !ok || v != GLRGBA {
		t.Fatalf("ParseGLFormat = %v, %v", v, ok)
	}
	if v, ok := ParseGLInternalFormat("GL_COMPRESSED_RGBA_S3TC_DXT5"); !ok || v != GLCompressedRGBAS3TCDXT5 {
		t.Fatalf("ParseGLInternalFormat = %v, %v", v, ok)
	}
	if _, ok := ParseGLFormat("PURPLE"); ok {
		t.Fatal("unknown name accepted")
	}
	if got := GLType(0x1234).String(); got != "type(0x1234)" {
		t.Fatalf("unknown type String = %q", got)
	}
}
