// Package ktx implements the KTX 1.1 texture container format.
//
// A container is a fixed 64-byte header, a key/value metadata block and a
// sequence of mip levels, each holding one or more faces. Parsing never
// copies texel data: every face is exposed as a View into a shared,
// reference-counted Storage.
package ktx

// Format constants must never change.
const (
	// HeaderSize is the encoded size of Header.
	HeaderSize = 64

	// IdentifierLength is the length of the file identifier.
	IdentifierLength = 12

	// PackingSize is the alignment of every structural boundary.
	PackingSize = 4

	// EndiannessMarker is written in the writer's native order.
	// Read back in the opposite order it signals a byte-swapped file.
	EndiannessMarker uint32 = 0x04030201

	// NumCubemapFaces is the face count of a cubemap.
	NumCubemapFaces = 6

	// MaxMipLevels is the deepest chain a 32-bit dimension can halve through.
	MaxMipLevels = 32
)

// Identifier is the canonical KTX 1.1 file identifier.
var Identifier = [IdentifierLength]byte{
	0xAB, 0x4B, 0x54, 0x58, 0x20, 0x31, 0x31, 0xBB, 0x0D, 0x0A, 0x1A, 0x0A,
}

// Well-known metadata keys.
const (
	KeyOrientation = "KTXorientation"
	KeyWriter      = "KTXwriter"
)
