package ktx

import (
	"fmt"
	"strings"
)

// GLType is the OpenGL pixel type of the texel data. Zero means the data is
// compressed.
type GLType uint32

const (
	GLTypeCompressed          GLType = 0
	GLByte                    GLType = 0x1400
	GLUnsignedByte            GLType = 0x1401
	GLShort                   GLType = 0x1402
	GLUnsignedShort           GLType = 0x1403
	GLInt                     GLType = 0x1404
	GLUnsignedInt             GLType = 0x1405
	GLFloat                   GLType = 0x1406
	GLHalfFloat               GLType = 0x140B
	GLUnsignedShort565        GLType = 0x8363
	GLUnsignedInt8888         GLType = 0x8035
	GLUnsignedInt8888Rev      GLType = 0x8367
	GLUnsignedInt2101010Rev   GLType = 0x8368
	GLUnsignedInt10F11F11FRev GLType = 0x8C3B
)

func (t GLType) String() string {
	switch t {
	case GLTypeCompressed:
		return "COMPRESSED"
	case GLByte:
		return "BYTE"
	case GLUnsignedByte:
		return "UNSIGNED_BYTE"
	case GLShort:
		return "SHORT"
	case GLUnsignedShort:
		return "UNSIGNED_SHORT"
	case GLInt:
		return "INT"
	case GLUnsignedInt:
		return "UNSIGNED_INT"
	case GLFloat:
		return "FLOAT"
	case GLHalfFloat:
		return "HALF_FLOAT"
	case GLUnsignedShort565:
		return "UNSIGNED_SHORT_5_6_5"
	case GLUnsignedInt8888:
		return "UNSIGNED_INT_8_8_8_8"
	case GLUnsignedInt8888Rev:
		return "UNSIGNED_INT_8_8_8_8_REV"
	case GLUnsignedInt2101010Rev:
		return "UNSIGNED_INT_2_10_10_10_REV"
	case GLUnsignedInt10F11F11FRev:
		return "UNSIGNED_INT_10F_11F_11F_REV"
	default:
		return fmt.Sprintf("type(0x%04X)", uint32(t))
	}
}

// GLFormat is an OpenGL pixel (or base internal) format.
type GLFormat uint32

const (
	GLFormatNone GLFormat = 0
	GLRed        GLFormat = 0x1903
	GLAlpha      GLFormat = 0x1906
	GLRGB        GLFormat = 0x1907
	GLRGBA       GLFormat = 0x1908
	GLLuminance  GLFormat = 0x1909
	GLRG         GLFormat = 0x8227
	GLBGRA       GLFormat = 0x80E1
	GLSRGB       GLFormat = 0x8C40
	GLSRGBAlpha  GLFormat = 0x8C42
)

func (f GLFormat) String() string {
	switch f {
	case GLFormatNone:
		return "NONE"
	case GLRed:
		return "RED"
	case GLAlpha:
		return "ALPHA"
	case GLRGB:
		return "RGB"
	case GLRGBA:
		return "RGBA"
	case GLLuminance:
		return "LUMINANCE"
	case GLRG:
		return "RG"
	case GLBGRA:
		return "BGRA"
	case GLSRGB:
		return "SRGB"
	case GLSRGBAlpha:
		return "SRGB_ALPHA"
	default:
		return fmt.Sprintf("format(0x%04X)", uint32(f))
	}
}

// GLInternalFormat is the sized or compressed internal format.
type GLInternalFormat uint32

const (
	GLR8                     GLInternalFormat = 0x8229
	GLRG8                    GLInternalFormat = 0x822B
	GLRGB8                   GLInternalFormat = 0x8051
	GLRGBA8                  GLInternalFormat = 0x8058
	GLSRGB8                  GLInternalFormat = 0x8C41
	GLSRGB8Alpha8            GLInternalFormat = 0x8C43
	GLRGBA16F                GLInternalFormat = 0x881A
	GLRGBA32F                GLInternalFormat = 0x8814
	GLR11FG11FB10F           GLInternalFormat = 0x8C3A
	GLCompressedRGBS3TCDXT1  GLInternalFormat = 0x83F0
	GLCompressedRGBAS3TCDXT1 GLInternalFormat = 0x83F1
	GLCompressedRGBAS3TCDXT3 GLInternalFormat = 0x83F2
	GLCompressedRGBAS3TCDXT5 GLInternalFormat = 0x83F3
	GLCompressedRedRGTC1     GLInternalFormat = 0x8DBB
	GLCompressedRGRGTC2      GLInternalFormat = 0x8DBD
	GLCompressedRGBABPTC     GLInternalFormat = 0x8E8C
	GLCompressedRGB8ETC2     GLInternalFormat = 0x9274
	GLCompressedRGBA8ETC2    GLInternalFormat = 0x9278
	GLCompressedRGBAASTC4x4  GLInternalFormat = 0x93B0
)

func (f GLInternalFormat) String() string {
	switch f {
	case GLR8:
		return "R8"
	case GLRG8:
		return "RG8"
	case GLRGB8:
		return "RGB8"
	case GLRGBA8:
		return "RGBA8"
	case GLSRGB8:
		return "SRGB8"
	case GLSRGB8Alpha8:
		return "SRGB8_ALPHA8"
	case GLRGBA16F:
		return "RGBA16F"
	case GLRGBA32F:
		return "RGBA32F"
	case GLR11FG11FB10F:
		return "R11F_G11F_B10F"
	case GLCompressedRGBS3TCDXT1:
		return "COMPRESSED_RGB_S3TC_DXT1"
	case GLCompressedRGBAS3TCDXT1:
		return "COMPRESSED_RGBA_S3TC_DXT1"
	case GLCompressedRGBAS3TCDXT3:
		return "COMPRESSED_RGBA_S3TC_DXT3"
	case GLCompressedRGBAS3TCDXT5:
		return "COMPRESSED_RGBA_S3TC_DXT5"
	case GLCompressedRedRGTC1:
		return "COMPRESSED_RED_RGTC1"
	case GLCompressedRGRGTC2:
		return "COMPRESSED_RG_RGTC2"
	case GLCompressedRGBABPTC:
		return "COMPRESSED_RGBA_BPTC_UNORM"
	case GLCompressedRGB8ETC2:
		return "COMPRESSED_RGB8_ETC2"
	case GLCompressedRGBA8ETC2:
		return "COMPRESSED_RGBA8_ETC2_EAC"
	case GLCompressedRGBAASTC4x4:
		return "COMPRESSED_RGBA_ASTC_4x4"
	default:
		return fmt.Sprintf("internal(0x%04X)", uint32(f))
	}
}

var (
	glTypes = []GLType{
		GLTypeCompressed, GLByte, GLUnsignedByte, GLShort, GLUnsignedShort,
		GLInt, GLUnsignedInt, GLFloat, GLHalfFloat, GLUnsignedShort565,
		GLUnsignedInt8888, GLUnsignedInt8888Rev, GLUnsignedInt2101010Rev,
		GLUnsignedInt10F11F11FRev,
	}
	glFormats = []GLFormat{
		GLFormatNone, GLRed, GLAlpha, GLRGB, GLRGBA, GLLuminance, GLRG,
		GLBGRA, GLSRGB, GLSRGBAlpha,
	}
	glInternalFormats = []GLInternalFormat{
		GLR8, GLRG8, GLRGB8, GLRGBA8, GLSRGB8, GLSRGB8Alpha8, GLRGBA16F,
		GLRGBA32F, GLR11FG11FB10F, GLCompressedRGBS3TCDXT1,
		GLCompressedRGBAS3TCDXT1, GLCompressedRGBAS3TCDXT3,
		GLCompressedRGBAS3TCDXT5, GLCompressedRedRGTC1, GLCompressedRGRGTC2,
		GLCompressedRGBABPTC, GLCompressedRGB8ETC2, GLCompressedRGBA8ETC2,
		GLCompressedRGBAASTC4x4,
	}
)

// ParseGLType looks up a type by the name String returns, with or without a
// GL_ prefix, in any case.
func ParseGLType(name string) (GLType, bool) { return parseEnum(name, glTypes) }

func ParseGLFormat(name string) (GLFormat, bool) { return parseEnum(name, glFormats) }

func ParseGLInternalFormat(name string) (GLInternalFormat, bool) {
	return parseEnum(name, glInternalFormats)
}

func parseEnum[T interface{ String() string }](name string, all []T) (T, bool) {
	name = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "GL_")
	for _, v := range all {
		if v.String() == name {
			return v, true
		}
	}
	var zero T
	return zero, false
}
