package ktx

import (
	"bytes"
	"testing"
)

func testHeader(width, height, depth, arrayElements, faces, levels, typeSize uint32) Header {
	h := NewHeader()
	h.GLType = GLUnsignedByte
	h.GLTypeSize = typeSize
	h.GLFormat = GLRGBA
	h.GLInternalFormat = GLRGBA8
	h.GLBaseInternalFormat = GLRGBA
	h.PixelWidth = width
	h.PixelHeight = height
	h.PixelDepth = depth
	h.NumberOfArrayElements = arrayElements
	h.NumberOfFaces = faces
	h.NumberOfMipmapLevels = levels
	return h
}

// faceFill is the byte every texel of (level, face) is filled with.
func faceFill(level, face uint32) byte {
	return byte(level<<4 | face&0x0F)
}

func testLevels(h Header) [][][]byte {
	levels := make([][][]byte, h.NumberOfLevels())
	for level := range h.NumberOfLevels() {
		faces := make([][]byte, h.FaceUnits())
		for face := range h.FaceUnits() {
			faces[face] = bytes.Repeat([]byte{faceFill(level, face)}, int(h.EvalFaceSize(level)))
		}
		levels[level] = faces
	}
	return levels
}

func buildTestStorage(t *testing.T, h Header, kvs KeyValues) *Storage {
	t.Helper()
	s, err := Build(h, kvs, testLevels(h))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return s
}

func buildTestBytes(t *testing.T, h Header, kvs KeyValues) []byte {
	t.Helper()
	s := buildTestStorage(t, h, kvs)
	return bytes.Clone(s.Data())
}

func parseBytes(t *testing.T, b []byte) (*KTX, error) {
	t.Helper()
	s := NewStorage(b)
	defer func() { _ = s.Release() }()
	return Parse(s)
}
