package ktx

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
)

// FaceRange locates one face unit inside the texel data region.
type FaceRange struct {
	Face   uint32
	Offset uint64 // relative to the start of texel data
	Length uint64
}

// Image describes one mip level.
type Image struct {
	Level     uint32
	ImageSize uint64 // value of the level's imageSize field
	FaceSize  uint64
	Faces     []FaceRange
}

// levelGeometry is the byte accounting for one mip level as laid out on disk:
// imageSize field, face units each followed by cube padding, then mip
// padding.
type levelGeometry struct {
	imageSize uint64
	faceSize  uint64
	facePad   uint64
	units     uint32
	total     uint64
}

func evalLevelGeometry(h *Header, level uint32) (levelGeometry, bool) {
	units := uint64(h.NumberOfSlices()) * uint64(h.NumberOfFaces)
	if units > math.MaxUint32 {
		return levelGeometry{}, false
	}

	// Same product as EvalFaceSize, checked so a hostile header cannot wrap
	// the accounting.
	depthRows := uint64(h.EvalPixelDepth(level)) * uint64(h.EvalPixelHeight(level))
	faceSize, ok := mul64(depthRows, h.EvalRowSize(level))
	if !ok {
		return levelGeometry{}, false
	}

	g := levelGeometry{
		units:    uint32(units),
		faceSize: faceSize,
		facePad:  uint64(Padding(faceSize)),
	}
	unit := g.faceSize + g.facePad
	if unit < g.faceSize {
		return levelGeometry{}, false
	}
	body, ok := mul64(units, unit)
	if !ok {
		return levelGeometry{}, false
	}
	// Bounded by body, so it cannot overflow either.
	g.imageSize = h.EvalImageSize(level)
	g.total = 4 + body + uint64(Padding(body))
	if g.total < body {
		return levelGeometry{}, false
	}
	return g, true
}

func mul64(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// checkGeometry rejects face and level counts no layout can satisfy.
func checkGeometry(h *Header) error {
	if h.NumberOfFaces != 1 && h.NumberOfFaces != NumCubemapFaces {
		return fmt.Errorf("%w: %d faces", ErrLayout, h.NumberOfFaces)
	}
	if h.NumberOfMipmapLevels > MaxMipLevels {
		return fmt.Errorf("%w: %d mip levels, at most %d", ErrLayout, h.NumberOfMipmapLevels, MaxMipLevels)
	}
	return nil
}

// LayoutSize returns the exact number of texel-region bytes a container with
// header h occupies.
func LayoutSize(h Header) (uint64, error) {
	if err := checkGeometry(&h); err != nil {
		return 0, err
	}
	var total uint64
	for level := range h.NumberOfLevels() {
		g, ok := evalLevelGeometry(&h, level)
		if !ok {
			return 0, fmt.Errorf("%w: level %d size overflows", ErrLayout, level)
		}
		total += g.total
		if total < g.total {
			return 0, fmt.Errorf("%w: texel region size overflows", ErrLayout)
		}
	}
	return total, nil
}

// ComputeLayout walks texels, the region following the key/value block, and
// returns one Image per stored mip level. Every level's imageSize must match
// the header geometry and every level must fit; trailing bytes after the
// last level are ignored.
func ComputeLayout(h Header, texels []byte, order binary.ByteOrder) ([]Image, error) {
	if err := checkGeometry(&h); err != nil {
		return nil, err
	}

	var (
		levels = h.NumberOfLevels()
		size   = uint64(len(texels))
		off    uint64
	)
	images := make([]Image, 0, levels)
	for level := range levels {
		g, ok := evalLevelGeometry(&h, level)
		if !ok {
			return nil, fmt.Errorf("%w: level %d size overflows", ErrLayout, level)
		}
		if size-off < 4 {
			return nil, fmt.Errorf("%w: level %d: imageSize missing at offset %d", ErrTexelSizeMismatch, level, off)
		}
		recorded := uint64(order.Uint32(texels[off : off+4]))
		if recorded != g.imageSize {
			return nil, fmt.Errorf("%w: level %d: imageSize %d, header geometry gives %d", ErrTexelSizeMismatch, level, recorded, g.imageSize)
		}
		if g.total > size-off {
			return nil, fmt.Errorf("%w: level %d needs %d bytes, %d remain", ErrTexelSizeMismatch, level, g.total, size-off)
		}

		img := Image{
			Level:     level,
			ImageSize: g.imageSize,
			FaceSize:  g.faceSize,
			Faces:     make([]FaceRange, g.units),
		}
		cur := off + 4
		for face := range g.units {
			img.Faces[face] = FaceRange{Face: face, Offset: cur, Length: g.faceSize}
			cur += g.faceSize + g.facePad
		}
		images = append(images, img)
		off += g.total
	}
	return images, nil
}
