package ktx

import (
	"encoding/binary"
	"fmt"
)

// Header is the fixed-size block at the start of every container.
// Field values are always held in host order; the file byte order is
// tracked separately.
type Header struct {
	Identifier            [IdentifierLength]byte
	Endianness            uint32
	GLType                GLType
	GLTypeSize            uint32
	GLFormat              GLFormat
	GLInternalFormat      GLInternalFormat
	GLBaseInternalFormat  GLFormat
	PixelWidth            uint32
	PixelHeight           uint32
	PixelDepth            uint32
	NumberOfArrayElements uint32
	NumberOfFaces         uint32
	NumberOfMipmapLevels  uint32
	BytesOfKeyValueData   uint32
}

// NewHeader returns a header carrying the canonical identifier and marker.
func NewHeader() Header {
	return Header{
		Identifier: Identifier,
		Endianness: EndiannessMarker,
	}
}

// Valid reports whether the identifier matches the canonical sequence.
func (h *Header) Valid() bool {
	return h.Identifier == Identifier
}

// DecodeHeader decodes the first HeaderSize bytes of b. Only the identifier
// and the endianness marker are validated here; every other field is left to
// consumers that know its valid domain.
func DecodeHeader(b []byte) (Header, binary.ByteOrder, error) {
	if len(b) < HeaderSize {
		return Header{}, nil, fmt.Errorf("%w: header needs %d bytes, have %d", ErrFormat, HeaderSize, len(b))
	}

	var h Header
	copy(h.Identifier[:], b[:IdentifierLength])
	if !h.Valid() {
		return Header{}, nil, ErrInvalidMagic
	}

	order, ok := byteOrderOf(b[12:16])
	if !ok {
		return Header{}, nil, fmt.Errorf("%w: bad endianness marker %x", ErrFormat, b[12:16])
	}

	h.Endianness = order.Uint32(b[12:16])
	h.GLType = GLType(order.Uint32(b[16:20]))
	h.GLTypeSize = order.Uint32(b[20:24])
	h.GLFormat = GLFormat(order.Uint32(b[24:28]))
	h.GLInternalFormat = GLInternalFormat(order.Uint32(b[28:32]))
	h.GLBaseInternalFormat = GLFormat(order.Uint32(b[32:36]))
	h.PixelWidth = order.Uint32(b[36:40])
	h.PixelHeight = order.Uint32(b[40:44])
	h.PixelDepth = order.Uint32(b[44:48])
	h.NumberOfArrayElements = order.Uint32(b[48:52])
	h.NumberOfFaces = order.Uint32(b[52:56])
	h.NumberOfMipmapLevels = order.Uint32(b[56:60])
	h.BytesOfKeyValueData = order.Uint32(b[60:64])
	return h, order, nil
}

// EncodeHeader writes h into dst using the given byte order. The marker is
// always written as EndiannessMarker so the file declares its own order.
func EncodeHeader(dst []byte, h Header, order binary.ByteOrder) bool {
	if len(dst) < HeaderSize || order == nil {
		return false
	}
	copy(dst[:IdentifierLength], h.Identifier[:])
	order.PutUint32(dst[12:16], EndiannessMarker)
	order.PutUint32(dst[16:20], uint32(h.GLType))
	order.PutUint32(dst[20:24], h.GLTypeSize)
	order.PutUint32(dst[24:28], uint32(h.GLFormat))
	order.PutUint32(dst[28:32], uint32(h.GLInternalFormat))
	order.PutUint32(dst[32:36], uint32(h.GLBaseInternalFormat))
	order.PutUint32(dst[36:40], h.PixelWidth)
	order.PutUint32(dst[40:44], h.PixelHeight)
	order.PutUint32(dst[44:48], h.PixelDepth)
	order.PutUint32(dst[48:52], h.NumberOfArrayElements)
	order.PutUint32(dst[52:56], h.NumberOfFaces)
	order.PutUint32(dst[56:60], h.NumberOfMipmapLevels)
	order.PutUint32(dst[60:64], h.BytesOfKeyValueData)
	return true
}

func byteOrderOf(marker []byte) (binary.ByteOrder, bool) {
	switch {
	case binary.LittleEndian.Uint32(marker) == EndiannessMarker:
		return binary.LittleEndian, true
	case binary.BigEndian.Uint32(marker) == EndiannessMarker:
		return binary.BigEndian, true
	default:
		return nil, false
	}
}

// EvalMaxDimension returns the largest of width, height and depth.
func (h *Header) EvalMaxDimension() uint32 {
	return max(h.PixelWidth, h.PixelHeight, h.PixelDepth)
}

func (h *Header) EvalPixelWidth(level uint32) uint32  { return mipDim(h.PixelWidth, level) }
func (h *Header) EvalPixelHeight(level uint32) uint32 { return mipDim(h.PixelHeight, level) }
func (h *Header) EvalPixelDepth(level uint32) uint32  { return mipDim(h.PixelDepth, level) }

func mipDim(dim, level uint32) uint32 {
	if level >= 32 {
		return 1
	}
	return max(dim>>level, 1)
}

// EvalPixelSize returns GLTypeSize as the per-texel byte size.
//
// This is not the true texel size for multi-component unpacked types; every
// row/face/image size in the container is defined in terms of this value, so
// it is kept as is.
func (h *Header) EvalPixelSize() uint64 {
	return uint64(h.GLTypeSize)
}

// EvalRowSize returns the 4-byte aligned size of one row at level.
func (h *Header) EvalRowSize(level uint32) uint64 {
	return padded(uint64(h.EvalPixelWidth(level)) * h.EvalPixelSize())
}

// EvalFaceSize returns the size of one face at level.
func (h *Header) EvalFaceSize(level uint32) uint64 {
	return uint64(h.EvalPixelDepth(level)) * uint64(h.EvalPixelHeight(level)) * h.EvalRowSize(level)
}

// EvalImageSize returns the imageSize value recorded for level. A plain
// cubemap records a single face; everything else records every slice of
// every face.
func (h *Header) EvalImageSize(level uint32) uint64 {
	faceSize := h.EvalFaceSize(level)
	if h.IsPlainCubemap() {
		return faceSize
	}
	return uint64(h.NumberOfSlices()) * uint64(h.NumberOfFaces) * faceSize
}

// NumberOfSlices returns the array element count, at least 1.
func (h *Header) NumberOfSlices() uint32 {
	return max(h.NumberOfArrayElements, 1)
}

// NumberOfLevels returns the stored mip level count. Zero in the file means a
// single level with the rest left for the loader to generate.
func (h *Header) NumberOfLevels() uint32 {
	return max(h.NumberOfMipmapLevels, 1)
}

func (h *Header) IsCubemap() bool      { return h.NumberOfFaces == NumCubemapFaces }
func (h *Header) IsArray() bool        { return h.NumberOfArrayElements > 0 }
func (h *Header) IsPlainCubemap() bool { return h.IsCubemap() && !h.IsArray() }
func (h *Header) IsCompressed() bool   { return h.GLType == 0 }

// FaceUnits returns how many face ranges each mip level holds, one per face
// per array slice. A plain cubemap stores six even though its imageSize
// covers only one.
func (h *Header) FaceUnits() uint32 {
	return h.NumberOfSlices() * h.NumberOfFaces
}
