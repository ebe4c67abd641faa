// Package imageio converts between Go images and uncompressed RGBA8 KTX
// textures.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math/bits"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/samcharles93/ktxkit/pkg/ktx"
)

var (
	ErrUnsupportedFormat = errors.New("imageio: unsupported texture format")
	ErrFaceMismatch      = errors.New("imageio: faces differ in size")
)

// bytesPerPixel of the packed RGBA8 layout.
const bytesPerPixel = 4

// MaxLevels is the length of a full mip chain for a w×h image.
func MaxLevels(w, h int) int {
	m := max(w, h, 1)
	return bits.Len(uint(m))
}

// GenerateMipChain returns levels images, level 0 a copy of img and each
// following level half the size of the previous one (never below 1×1).
// levels <= 0 selects the full chain.
func GenerateMipChain(img image.Image, levels int) []*image.NRGBA {
	b := img.Bounds()
	if levels <= 0 {
		levels = MaxLevels(b.Dx(), b.Dy())
	}

	base := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(base, base.Bounds(), img, b.Min, xdraw.Src)

	chain := make([]*image.NRGBA, 0, levels)
	chain = append(chain, base)
	for l := 1; l < levels; l++ {
		prev := chain[l-1]
		w := max(prev.Rect.Dx()/2, 1)
		h := max(prev.Rect.Dy()/2, 1)
		next := image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(next, next.Bounds(), prev, prev.Bounds(), xdraw.Src, nil)
		chain = append(chain, next)
	}
	return chain
}

type Options struct {
	// Levels is the number of mip levels to store; 0 stores the full chain.
	Levels int
}

// FromImage builds a 2D texture from img.
func FromImage(img image.Image, opts Options) (ktx.Header, [][][]byte, error) {
	return FromImages([]image.Image{img}, opts)
}

// FromImages builds a 2D texture from one image or a cubemap from six,
// ordered +X, -X, +Y, -Y, +Z, -Z. The result can be passed to ktx.Build.
func FromImages(faces []image.Image, opts Options) (ktx.Header, [][][]byte, error) {
	if len(faces) != 1 && len(faces) != ktx.NumCubemapFaces {
		return ktx.Header{}, nil, fmt.Errorf("imageio: %d faces, need 1 or %d", len(faces), ktx.NumCubemapFaces)
	}
	size := faces[0].Bounds().Size()
	if size.X <= 0 || size.Y <= 0 {
		return ktx.Header{}, nil, fmt.Errorf("imageio: empty image")
	}
	for i, f := range faces[1:] {
		if f.Bounds().Size() != size {
			return ktx.Header{}, nil, fmt.Errorf("%w: face %d is %v, face 0 is %v", ErrFaceMismatch, i+1, f.Bounds().Size(), size)
		}
	}
	levels := opts.Levels
	if full := MaxLevels(size.X, size.Y); levels <= 0 || levels > full {
		levels = full
	}

	h := RGBA8Header(uint32(size.X), uint32(size.Y))
	h.NumberOfFaces = uint32(len(faces))
	h.NumberOfMipmapLevels = uint32(levels)

	out := make([][][]byte, levels)
	for l := range out {
		out[l] = make([][]byte, len(faces))
	}
	for fi, f := range faces {
		for l, m := range GenerateMipChain(f, levels) {
			out[l][fi] = packRGBA8(m)
		}
	}
	return h, out, nil
}

// RGBA8Header describes an uncompressed w×h texture of packed 8-bit RGBA
// texels with no levels or faces set.
func RGBA8Header(w, h uint32) ktx.Header {
	hdr := ktx.NewHeader()
	hdr.GLType = ktx.GLUnsignedInt8888Rev
	hdr.GLTypeSize = bytesPerPixel
	hdr.GLFormat = ktx.GLRGBA
	hdr.GLInternalFormat = ktx.GLRGBA8
	hdr.GLBaseInternalFormat = ktx.GLRGBA
	hdr.PixelWidth = w
	hdr.PixelHeight = h
	return hdr
}

// packRGBA8 returns the face bytes for m. Rows of RGBA8 texels are already
// 4-byte aligned, so no row padding is needed.
func packRGBA8(m *image.NRGBA) []byte {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	out := make([]byte, 0, w*h*bytesPerPixel)
	for y := range h {
		row := m.Pix[y*m.Stride:]
		out = append(out, row[:w*bytesPerPixel]...)
	}
	return out
}

// ToImage decodes one face of one mip level. Only packed RGBA8 2D textures
// written by FromImages (or compatible) are supported.
func ToImage(k *ktx.KTX, mip, face int) (*image.NRGBA, error) {
	h := k.Header()
	if h.GLType != ktx.GLUnsignedInt8888Rev || h.GLFormat != ktx.GLRGBA ||
		h.GLTypeSize != bytesPerPixel || h.PixelDepth > 1 || h.IsArray() {
		return nil, fmt.Errorf("%w: type %s, format %s, type size %d",
			ErrUnsupportedFormat, h.GLType, h.GLFormat, h.GLTypeSize)
	}
	v := k.MipFaceTexelsData(mip, face)
	if v == nil {
		return nil, fmt.Errorf("imageio: no face %d at level %d", face, mip)
	}
	defer func() { _ = v.Release() }()

	w := int(h.EvalPixelWidth(uint32(mip)))
	ht := int(h.EvalPixelHeight(uint32(mip)))
	img := image.NewNRGBA(image.Rect(0, 0, w, ht))
	if len(v.Bytes()) < len(img.Pix) {
		return nil, fmt.Errorf("%w: face holds %d bytes, need %d", ktx.ErrTexelSizeMismatch, v.Len(), len(img.Pix))
	}
	copy(img.Pix, v.Bytes())
	return img, nil
}

func DecodePNG(r io.Reader) (image.Image, error) {
	return png.Decode(r)
}

func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

func ReadPNGFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imageio: decode %s: %w", path, err)
	}
	return img, nil
}

func WritePNGFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
