package texture

import (
	"encoding/binary"
	"io"

	"github.com/goopsie/texpack/pkg/colorspace"
	"github.com/goopsie/texpack/pkg/format"
)

// OpenGL enum values used by the KTX1 header.
const (
	GL_BYTE           = 0x1400
	GL_UNSIGNED_BYTE  = 0x1401
	GL_SHORT          = 0x1402
	GL_UNSIGNED_SHORT = 0x1403
	GL_INT            = 0x1404
	GL_UNSIGNED_INT   = 0x1405
	GL_FLOAT          = 0x1406
	GL_HALF_FLOAT     = 0x140B

	GL_RED             = 0x1903
	GL_RGB             = 0x1907
	GL_RGBA            = 0x1908
	GL_LUMINANCE       = 0x1909
	GL_LUMINANCE_ALPHA = 0x190A
	GL_RG              = 0x8227
	GL_BGR             = 0x80E0
	GL_BGRA            = 0x80E1
	GL_RED_INTEGER     = 0x8D94
	GL_RGB_INTEGER     = 0x8D98
	GL_RGBA_INTEGER    = 0x8D99
	GL_BGR_INTEGER     = 0x8D9A
	GL_BGRA_INTEGER    = 0x8D9B

	GL_UNSIGNED_SHORT_4_4_4_4      = 0x8033
	GL_UNSIGNED_SHORT_5_5_5_1      = 0x8034
	GL_UNSIGNED_INT_8_8_8_8        = 0x8035
	GL_UNSIGNED_SHORT_5_6_5        = 0x8363
	GL_UNSIGNED_SHORT_5_6_5_REV    = 0x8364
	GL_UNSIGNED_SHORT_1_5_5_5_REV  = 0x8366
	GL_UNSIGNED_INT_8_8_8_8_REV    = 0x8367
	GL_UNSIGNED_INT_2_10_10_10_REV = 0x8368
	GL_UNSIGNED_INT_10F_11F_11F_REV = 0x8C3B
	GL_UNSIGNED_INT_5_9_9_9_REV    = 0x8C3E

	GL_RGBA4     = 0x8056
	GL_RGB5_A1   = 0x8057
	GL_RGB16     = 0x8054
	GL_RGBA16    = 0x805B
	GL_RGB8      = 0x8051
	GL_RGBA8     = 0x8058
	GL_RGB10_A2  = 0x8059
	GL_RGB10_A2UI = 0x906F
	GL_R8        = 0x8229
	GL_R16       = 0x822A
	GL_RG8       = 0x822B
	GL_RG16      = 0x822C
	GL_R16F      = 0x822D
	GL_R32F      = 0x822E
	GL_RG16F     = 0x822F
	GL_RG32F     = 0x8230
	GL_R8I       = 0x8231
	GL_R8UI      = 0x8232
	GL_R16I      = 0x8233
	GL_R16UI     = 0x8234
	GL_R32I      = 0x8235
	GL_R32UI     = 0x8236
	GL_RG8I      = 0x8237
	GL_RG8UI     = 0x8238
	GL_RG16I     = 0x8239
	GL_RG16UI    = 0x823A
	GL_RG32I     = 0x823B
	GL_RG32UI    = 0x823C
	GL_RGBA32F   = 0x8814
	GL_RGB32F    = 0x8815
	GL_RGBA16F   = 0x881A
	GL_RGB16F    = 0x881B
	GL_R11F_G11F_B10F = 0x8C3A
	GL_RGB9_E5   = 0x8C3D
	GL_SRGB8     = 0x8C41
	GL_SRGB8_ALPHA8 = 0x8C43
	GL_RGB565    = 0x8D62
	GL_RGBA32UI  = 0x8D70
	GL_RGB32UI   = 0x8D71
	GL_RGBA16UI  = 0x8D76
	GL_RGB16UI   = 0x8D77
	GL_RGBA8UI   = 0x8D7C
	GL_RGB8UI    = 0x8D7D
	GL_RGBA32I   = 0x8D82
	GL_RGB32I    = 0x8D83
	GL_RGBA16I   = 0x8D88
	GL_RGB16I    = 0x8D89
	GL_RGBA8I    = 0x8D8E
	GL_RGB8I     = 0x8D8F
	GL_R8_SNORM    = 0x8F94
	GL_RG8_SNORM   = 0x8F95
	GL_RGB8_SNORM  = 0x8F96
	GL_RGBA8_SNORM = 0x8F97
	GL_R16_SNORM    = 0x8F98
	GL_RG16_SNORM   = 0x8F99
	GL_RGB16_SNORM  = 0x8F9A
	GL_RGBA16_SNORM = 0x8F9B

	GL_COMPRESSED_RGB_S3TC_DXT1_EXT        = 0x83F0
	GL_COMPRESSED_RGBA_S3TC_DXT1_EXT       = 0x83F1
	GL_COMPRESSED_RGBA_S3TC_DXT3_EXT       = 0x83F2
	GL_COMPRESSED_RGBA_S3TC_DXT5_EXT       = 0x83F3
	GL_COMPRESSED_SRGB_S3TC_DXT1_EXT       = 0x8C4C
	GL_COMPRESSED_SRGB_ALPHA_S3TC_DXT1_EXT = 0x8C4D
	GL_COMPRESSED_SRGB_ALPHA_S3TC_DXT3_EXT = 0x8C4E
	GL_COMPRESSED_SRGB_ALPHA_S3TC_DXT5_EXT = 0x8C4F
	GL_COMPRESSED_RED_RGTC1                = 0x8DBB
	GL_COMPRESSED_SIGNED_RED_RGTC1         = 0x8DBC
	GL_COMPRESSED_RG_RGTC2                 = 0x8DBD
	GL_COMPRESSED_SIGNED_RG_RGTC2          = 0x8DBE
	GL_COMPRESSED_RGBA_BPTC_UNORM          = 0x8E8C
	GL_COMPRESSED_SRGB_ALPHA_BPTC_UNORM    = 0x8E8D
	GL_COMPRESSED_RGB_BPTC_SIGNED_FLOAT    = 0x8E8E
	GL_COMPRESSED_RGB_BPTC_UNSIGNED_FLOAT  = 0x8E8F
	GL_ETC1_RGB8_OES                       = 0x8D64
	GL_COMPRESSED_R11_EAC                  = 0x9270
	GL_COMPRESSED_SIGNED_R11_EAC           = 0x9271
	GL_COMPRESSED_RG11_EAC                 = 0x9272
	GL_COMPRESSED_SIGNED_RG11_EAC          = 0x9273
	GL_COMPRESSED_RGB8_ETC2                = 0x9274
	GL_COMPRESSED_SRGB8_ETC2               = 0x9275
	GL_COMPRESSED_RGB8_PUNCHTHROUGH_ALPHA1_ETC2  = 0x9276
	GL_COMPRESSED_SRGB8_PUNCHTHROUGH_ALPHA1_ETC2 = 0x9277
	GL_COMPRESSED_RGBA8_ETC2_EAC                 = 0x9278
	GL_COMPRESSED_SRGB8_ALPHA8_ETC2_EAC          = 0x9279

	GL_COMPRESSED_RGBA_ASTC_4x4_KHR   = 0x93B0
	GL_COMPRESSED_RGBA_ASTC_5x4_KHR   = 0x93B1
	GL_COMPRESSED_RGBA_ASTC_5x5_KHR   = 0x93B2
	GL_COMPRESSED_RGBA_ASTC_6x5_KHR   = 0x93B3
	GL_COMPRESSED_RGBA_ASTC_6x6_KHR   = 0x93B4
	GL_COMPRESSED_RGBA_ASTC_8x5_KHR   = 0x93B5
	GL_COMPRESSED_RGBA_ASTC_8x6_KHR   = 0x93B6
	GL_COMPRESSED_RGBA_ASTC_8x8_KHR   = 0x93B7
	GL_COMPRESSED_RGBA_ASTC_10x5_KHR  = 0x93B8
	GL_COMPRESSED_RGBA_ASTC_10x6_KHR  = 0x93B9
	GL_COMPRESSED_RGBA_ASTC_10x8_KHR  = 0x93BA
	GL_COMPRESSED_RGBA_ASTC_10x10_KHR = 0x93BB
	GL_COMPRESSED_RGBA_ASTC_12x10_KHR = 0x93BC
	GL_COMPRESSED_RGBA_ASTC_12x12_KHR = 0x93BD
	GL_COMPRESSED_SRGB8_ALPHA8_ASTC_4x4_KHR   = 0x93D0
	GL_COMPRESSED_SRGB8_ALPHA8_ASTC_5x4_KHR   = 0x93D1
	GL_COMPRESSED_SRGB8_ALPHA8_ASTC_5x5_KHR   = 0x93D2
	GL_COMPRESSED_SRGB8_ALPHA8_ASTC_6x5_KHR   = 0x93D3
	GL_COMPRESSED_SRGB8_ALPHA8_ASTC_6x6_KHR   = 0x93D4
	GL_COMPRESSED_SRGB8_ALPHA8_ASTC_8x5_KHR   = 0x93D5
	GL_COMPRESSED_SRGB8_ALPHA8_ASTC_8x6_KHR   = 0x93D6
	GL_COMPRESSED_SRGB8_ALPHA8_ASTC_8x8_KHR   = 0x93D7
	GL_COMPRESSED_SRGB8_ALPHA8_ASTC_10x5_KHR  = 0x93D8
	GL_COMPRESSED_SRGB8_ALPHA8_ASTC_10x6_KHR  = 0x93D9
	GL_COMPRESSED_SRGB8_ALPHA8_ASTC_10x8_KHR  = 0x93DA
	GL_COMPRESSED_SRGB8_ALPHA8_ASTC_10x10_KHR = 0x93DB
	GL_COMPRESSED_SRGB8_ALPHA8_ASTC_12x10_KHR = 0x93DC
	GL_COMPRESSED_SRGB8_ALPHA8_ASTC_12x12_KHR = 0x93DD

	GL_COMPRESSED_SRGB_PVRTC_2BPPV1_EXT       = 0x8A54
	GL_COMPRESSED_SRGB_PVRTC_4BPPV1_EXT       = 0x8A55
	GL_COMPRESSED_SRGB_ALPHA_PVRTC_2BPPV1_EXT = 0x8A56
	GL_COMPRESSED_SRGB_ALPHA_PVRTC_4BPPV1_EXT = 0x8A57
	GL_COMPRESSED_RGB_PVRTC_4BPPV1_IMG        = 0x8C00
	GL_COMPRESSED_RGB_PVRTC_2BPPV1_IMG        = 0x8C01
	GL_COMPRESSED_RGBA_PVRTC_4BPPV1_IMG       = 0x8C02
	GL_COMPRESSED_RGBA_PVRTC_2BPPV1_IMG       = 0x8C03
	GL_COMPRESSED_RGBA_PVRTC_2BPPV2_IMG       = 0x9137
	GL_COMPRESSED_RGBA_PVRTC_4BPPV2_IMG       = 0x9138
	GL_COMPRESSED_SRGB_ALPHA_PVRTC_2BPPV2_IMG = 0x93F0
	GL_COMPRESSED_SRGB_ALPHA_PVRTC_4BPPV2_IMG = 0x93F1
)

var ktxIdentifier = [12]byte{0xAB, 'K', 'T', 'X', ' ', '1', '1', 0xBB, '\r', '\n', 0x1A, '\n'}

const ktxEndianness = 0x04030201

type ktxFormatInfo struct {
	glType         uint32
	typeSize       uint32
	glFormat       uint32
	internalFormat uint32
	baseInternal   uint32
}

// compressedKTXInfo fills the common fields for compressed internal formats.
func compressedKTXInfo(internal, base uint32) (ktxFormatInfo, bool) {
	return ktxFormatInfo{glType: 0, typeSize: 1, glFormat: 0, internalFormat: internal,
		baseInternal: base}, true
}

// srgbPick chooses between the linear and sRGB internal format.
func srgbPick(space colorspace.Space, linear, srgb uint32) uint32 {
	if space == colorspace.SRGB {
		return srgb
	}
	return linear
}

// ktxFormat maps a (format, type, color space) triple onto the KTX header's
// GL fields.
func ktxFormat(f format.Format, t format.Type, space colorspace.Space) (ktxFormatInfo, bool) {
	switch f {
	case format.R4G4B4A4:
		if t == format.UNorm {
			return ktxFormatInfo{GL_UNSIGNED_SHORT_4_4_4_4, 2, GL_RGBA, GL_RGBA4, GL_RGBA}, true
		}
	case format.B4G4R4A4:
		if t == format.UNorm {
			return ktxFormatInfo{GL_UNSIGNED_SHORT_4_4_4_4, 2, GL_BGRA, GL_RGBA4, GL_BGRA}, true
		}
	case format.R5G6B5:
		if t == format.UNorm {
			return ktxFormatInfo{GL_UNSIGNED_SHORT_5_6_5, 2, GL_RGB, GL_RGB565, GL_RGB}, true
		}
	case format.B5G6R5:
		if t == format.UNorm {
			return ktxFormatInfo{GL_UNSIGNED_SHORT_5_6_5_REV, 2, GL_RGB, GL_RGB565,
				GL_RGB}, true
		}
	case format.R5G5B5A1:
		if t == format.UNorm {
			return ktxFormatInfo{GL_UNSIGNED_SHORT_5_5_5_1, 2, GL_RGBA, GL_RGB5_A1,
				GL_RGBA}, true
		}
	case format.B5G5R5A1:
		if t == format.UNorm {
			return ktxFormatInfo{GL_UNSIGNED_SHORT_5_5_5_1, 2, GL_BGRA, GL_RGB5_A1,
				GL_BGRA}, true
		}
	case format.A1R5G5B5:
		if t == format.UNorm {
			return ktxFormatInfo{GL_UNSIGNED_SHORT_1_5_5_5_REV, 2, GL_BGRA, GL_RGB5_A1,
				GL_BGRA}, true
		}
	case format.R8:
		info := ktxFormatInfo{typeSize: 1, glFormat: GL_RED, baseInternal: GL_LUMINANCE}
		switch t {
		case format.UNorm:
			info.glType = GL_UNSIGNED_BYTE
			info.internalFormat = GL_R8
			return info, true
		case format.SNorm:
			info.glType = GL_BYTE
			info.internalFormat = GL_R8_SNORM
			return info, true
		case format.UInt:
			info.glType = GL_UNSIGNED_BYTE
			info.internalFormat = GL_R8UI
			return info, true
		case format.Int:
			info.glType = GL_BYTE
			info.internalFormat = GL_R8I
			return info, true
		}
	case format.R8G8:
		info := ktxFormatInfo{glType: GL_UNSIGNED_BYTE, typeSize: 1, glFormat: GL_RG,
			baseInternal: GL_LUMINANCE_ALPHA}
		switch t {
		case format.UNorm:
			info.internalFormat = GL_RG8
			return info, true
		case format.SNorm:
			info.internalFormat = GL_RG8_SNORM
			return info, true
		case format.UInt:
			info.internalFormat = GL_RG8UI
			return info, true
		case format.Int:
			info.internalFormat = GL_RG8I
			return info, true
		}
	case format.R8G8B8:
		info := ktxFormatInfo{typeSize: 1, glFormat: GL_RGB, baseInternal: GL_RGB}
		switch t {
		case format.UNorm:
			info.glType = GL_UNSIGNED_BYTE
			info.internalFormat = srgbPick(space, GL_RGB8, GL_SRGB8)
			return info, true
		case format.SNorm:
			info.glType = GL_BYTE
			info.internalFormat = GL_RGB8_SNORM
			return info, true
		case format.UInt:
			info.glType = GL_UNSIGNED_BYTE
			info.internalFormat = GL_RGB8UI
			return info, true
		case format.Int:
			info.glType = GL_BYTE
			info.internalFormat = GL_RGB8I
			return info, true
		}
	case format.R8G8B8A8:
		info := ktxFormatInfo{typeSize: 1, baseInternal: GL_RGBA}
		switch t {
		case format.UNorm:
			info.glType = GL_UNSIGNED_BYTE
			info.glFormat = GL_RGBA
			info.internalFormat = srgbPick(space, GL_RGBA8, GL_SRGB8_ALPHA8)
			return info, true
		case format.SNorm:
			info.glType = GL_BYTE
			info.glFormat = GL_RGBA
			info.internalFormat = GL_RGBA8_SNORM
			return info, true
		case format.UInt:
			info.glType = GL_UNSIGNED_BYTE
			info.glFormat = GL_RGBA_INTEGER
			info.internalFormat = GL_RGBA8UI
			return info, true
		case format.Int:
			info.glType = GL_BYTE
			info.glFormat = GL_RGBA_INTEGER
			info.internalFormat = GL_RGBA8I
			return info, true
		}
	case format.B8G8R8A8:
		info := ktxFormatInfo{glType: GL_UNSIGNED_INT_8_8_8_8, typeSize: 4,
			baseInternal: GL_BGRA}
		if t == format.UNorm {
			info.glFormat = GL_BGRA
			info.internalFormat = srgbPick(space, GL_RGBA8, GL_SRGB8_ALPHA8)
			return info, true
		}
	case format.A8B8G8R8:
		info := ktxFormatInfo{glType: GL_UNSIGNED_INT_8_8_8_8_REV, typeSize: 4,
			baseInternal: GL_RGBA}
		if t == format.UNorm {
			info.glFormat = GL_RGBA
			info.internalFormat = srgbPick(space, GL_RGBA8, GL_SRGB8_ALPHA8)
			return info, true
		}
	case format.A2R10G10B10:
		info := ktxFormatInfo{glType: GL_UNSIGNED_INT_2_10_10_10_REV, typeSize: 4,
			baseInternal: GL_BGRA}
		switch t {
		case format.UNorm:
			info.glFormat = GL_BGRA
			info.internalFormat = GL_RGB10_A2
			return info, true
		case format.UInt:
			info.glFormat = GL_BGRA_INTEGER
			info.internalFormat = GL_RGB10_A2UI
			return info, true
		}
	case format.A2B10G10R10:
		info := ktxFormatInfo{glType: GL_UNSIGNED_INT_2_10_10_10_REV, typeSize: 4,
			baseInternal: GL_RGBA}
		switch t {
		case format.UNorm:
			info.glFormat = GL_RGBA
			info.internalFormat = GL_RGB10_A2
			return info, true
		case format.UInt:
			info.glFormat = GL_RGBA_INTEGER
			info.internalFormat = GL_RGB10_A2UI
			return info, true
		}
	case format.R16:
		info := ktxFormatInfo{typeSize: 2, glFormat: GL_RED, baseInternal: GL_LUMINANCE}
		switch t {
		case format.UNorm:
			info.glType = GL_UNSIGNED_SHORT
			info.internalFormat = GL_R16
			return info, true
		case format.SNorm:
			info.glType = GL_SHORT
			info.internalFormat = GL_R16_SNORM
			return info, true
		case format.UInt:
			info.glType = GL_UNSIGNED_SHORT
			info.internalFormat = GL_R16UI
			return info, true
		case format.Int:
			info.glType = GL_SHORT
			info.internalFormat = GL_R16I
			return info, true
		case format.Float:
			info.glType = GL_HALF_FLOAT
			info.internalFormat = GL_R16F
			return info, true
		}
	case format.R16G16:
		info := ktxFormatInfo{typeSize: 2, glFormat: GL_RG, baseInternal: GL_LUMINANCE_ALPHA}
		switch t {
		case format.UNorm:
			info.glType = GL_UNSIGNED_SHORT
			info.internalFormat = GL_RG16
			return info, true
		case format.SNorm:
			info.glType = GL_SHORT
			info.internalFormat = GL_RG16_SNORM
			return info, true
		case format.UInt:
			info.glType = GL_UNSIGNED_SHORT
			info.internalFormat = GL_RG16UI
			return info, true
		case format.Int:
			info.glType = GL_SHORT
			info.internalFormat = GL_RG16I
			return info, true
		case format.Float:
			info.glType = GL_HALF_FLOAT
			info.internalFormat = GL_RG16F
			return info, true
		}
	case format.R16G16B16:
		info := ktxFormatInfo{typeSize: 2, glFormat: GL_RGB, baseInternal: GL_RGB}
		switch t {
		case format.UNorm:
			info.glType = GL_UNSIGNED_SHORT
			info.internalFormat = GL_RGB16
			return info, true
		case format.SNorm:
			info.glType = GL_SHORT
			info.internalFormat = GL_RGB16_SNORM
			return info, true
		case format.UInt:
			info.glType = GL_UNSIGNED_SHORT
			info.internalFormat = GL_RGB16UI
			return info, true
		case format.Int:
			info.glType = GL_SHORT
			info.internalFormat = GL_RGB16I
			return info, true
		case format.Float:
			info.glType = GL_HALF_FLOAT
			info.internalFormat = GL_RGB16F
			return info, true
		}
	case format.R16G16B16A16:
		info := ktxFormatInfo{typeSize: 2, glFormat: GL_RGBA, baseInternal: GL_RGBA}
		switch t {
		case format.UNorm:
			info.glType = GL_UNSIGNED_SHORT
			info.internalFormat = GL_RGBA16
			return info, true
		case format.SNorm:
			info.glType = GL_SHORT
			info.internalFormat = GL_RGBA16_SNORM
			return info, true
		case format.UInt:
			info.glType = GL_UNSIGNED_SHORT
			info.internalFormat = GL_RGBA16UI
			return info, true
		case format.Int:
			info.glType = GL_SHORT
			info.internalFormat = GL_RGBA16I
			return info, true
		case format.Float:
			info.glType = GL_HALF_FLOAT
			info.internalFormat = GL_RGBA16F
			return info, true
		}
	case format.R32:
		info := ktxFormatInfo{typeSize: 4, glFormat: GL_RED, baseInternal: GL_LUMINANCE}
		switch t {
		case format.UInt:
			info.glType = GL_UNSIGNED_INT
			info.internalFormat = GL_R32UI
			return info, true
		case format.Int:
			info.glType = GL_INT
			info.internalFormat = GL_R32I
			return info, true
		case format.Float:
			info.glType = GL_FLOAT
			info.internalFormat = GL_R32F
			return info, true
		}
	case format.R32G32:
		info := ktxFormatInfo{typeSize: 4, glFormat: GL_RG, baseInternal: GL_LUMINANCE_ALPHA}
		switch t {
		case format.UInt:
			info.glType = GL_UNSIGNED_INT
			info.internalFormat = GL_RG32UI
			return info, true
		case format.Int:
			info.glType = GL_INT
			info.internalFormat = GL_RG32I
			return info, true
		case format.Float:
			info.glType = GL_FLOAT
			info.internalFormat = GL_RG32F
			return info, true
		}
	case format.R32G32B32:
		info := ktxFormatInfo{typeSize: 4, glFormat: GL_RGB, baseInternal: GL_RGB}
		switch t {
		case format.UInt:
			info.glType = GL_UNSIGNED_INT
			info.internalFormat = GL_RGB32UI
			return info, true
		case format.Int:
			info.glType = GL_INT
			info.internalFormat = GL_RGB32I
			return info, true
		case format.Float:
			info.glType = GL_FLOAT
			info.internalFormat = GL_RGB32F
			return info, true
		}
	case format.R32G32B32A32:
		info := ktxFormatInfo{typeSize: 4, glFormat: GL_RGBA, baseInternal: GL_RGBA}
		switch t {
		case format.UInt:
			info.glType = GL_UNSIGNED_INT
			info.internalFormat = GL_RGBA32UI
			return info, true
		case format.Int:
			info.glType = GL_INT
			info.internalFormat = GL_RGBA32I
			return info, true
		case format.Float:
			info.glType = GL_FLOAT
			info.internalFormat = GL_RGBA32F
			return info, true
		}

	case format.B10G11R11UFloat:
		if t == format.UFloat {
			return ktxFormatInfo{GL_UNSIGNED_INT_10F_11F_11F_REV, 4, GL_RGB,
				GL_R11F_G11F_B10F, GL_RGB}, true
		}
	case format.E5B9G9R9UFloat:
		if t == format.UFloat {
			return ktxFormatInfo{GL_UNSIGNED_INT_5_9_9_9_REV, 4, GL_RGB, GL_RGB9_E5,
				GL_RGB}, true
		}

	case format.BC1RGB:
		if t == format.UNorm {
			return compressedKTXInfo(srgbPick(space, GL_COMPRESSED_RGB_S3TC_DXT1_EXT,
				GL_COMPRESSED_SRGB_S3TC_DXT1_EXT), GL_RGB)
		}
	case format.BC1RGBA:
		if t == format.UNorm {
			return compressedKTXInfo(srgbPick(space, GL_COMPRESSED_RGBA_S3TC_DXT1_EXT,
				GL_COMPRESSED_SRGB_ALPHA_S3TC_DXT1_EXT), GL_RGBA)
		}
	case format.BC2:
		if t == format.UNorm {
			return compressedKTXInfo(srgbPick(space, GL_COMPRESSED_RGBA_S3TC_DXT3_EXT,
				GL_COMPRESSED_SRGB_ALPHA_S3TC_DXT3_EXT), GL_RGBA)
		}
	case format.BC3:
		if t == format.UNorm {
			return compressedKTXInfo(srgbPick(space, GL_COMPRESSED_RGBA_S3TC_DXT5_EXT,
				GL_COMPRESSED_SRGB_ALPHA_S3TC_DXT5_EXT), GL_RGBA)
		}
	case format.BC4:
		switch t {
		case format.UNorm:
			return compressedKTXInfo(GL_COMPRESSED_RED_RGTC1, GL_RED)
		case format.SNorm:
			return compressedKTXInfo(GL_COMPRESSED_SIGNED_RED_RGTC1, GL_RED)
		}
	case format.BC5:
		switch t {
		case format.UNorm:
			return compressedKTXInfo(GL_COMPRESSED_RG_RGTC2, GL_RG)
		case format.SNorm:
			return compressedKTXInfo(GL_COMPRESSED_SIGNED_RG_RGTC2, GL_RG)
		}
	case format.BC6H:
		switch t {
		case format.UFloat:
			return compressedKTXInfo(GL_COMPRESSED_RGB_BPTC_UNSIGNED_FLOAT, GL_RGB)
		case format.Float:
			return compressedKTXInfo(GL_COMPRESSED_RGB_BPTC_SIGNED_FLOAT, GL_RGB)
		}
	case format.BC7:
		if t == format.UNorm {
			return compressedKTXInfo(srgbPick(space, GL_COMPRESSED_RGBA_BPTC_UNORM,
				GL_COMPRESSED_SRGB_ALPHA_BPTC_UNORM), GL_RGBA)
		}
	case format.ETC1:
		if t == format.UNorm {
			return compressedKTXInfo(GL_ETC1_RGB8_OES, GL_RGB)
		}
	case format.ETC2R8G8B8:
		if t == format.UNorm {
			return compressedKTXInfo(srgbPick(space, GL_COMPRESSED_RGB8_ETC2,
				GL_COMPRESSED_SRGB8_ETC2), GL_RGB)
		}
	case format.ETC2R8G8B8A1:
		if t == format.UNorm {
			return compressedKTXInfo(srgbPick(space,
				GL_COMPRESSED_RGB8_PUNCHTHROUGH_ALPHA1_ETC2,
				GL_COMPRESSED_SRGB8_PUNCHTHROUGH_ALPHA1_ETC2), GL_RGBA)
		}
	case format.ETC2R8G8B8A8:
		if t == format.UNorm {
			return compressedKTXInfo(srgbPick(space, GL_COMPRESSED_RGBA8_ETC2_EAC,
				GL_COMPRESSED_SRGB8_ALPHA8_ETC2_EAC), GL_RGBA)
		}
	case format.EACR11:
		switch t {
		case format.UNorm:
			return compressedKTXInfo(GL_COMPRESSED_R11_EAC, GL_RED)
		case format.SNorm:
			return compressedKTXInfo(GL_COMPRESSED_SIGNED_R11_EAC, GL_RED)
		}
	case format.EACR11G11:
		switch t {
		case format.UNorm:
			return compressedKTXInfo(GL_COMPRESSED_RG11_EAC, GL_RG)
		case format.SNorm:
			return compressedKTXInfo(GL_COMPRESSED_SIGNED_RG11_EAC, GL_RG)
		}
	case format.ASTC4x4, format.ASTC5x4, format.ASTC5x5, format.ASTC6x5, format.ASTC6x6,
		format.ASTC8x5, format.ASTC8x6, format.ASTC8x8, format.ASTC10x5, format.ASTC10x6,
		format.ASTC10x8, format.ASTC10x10, format.ASTC12x10, format.ASTC12x12:
		if t == format.UNorm || t == format.UFloat {
			linear, srgb := astcKTXFormats(f)
			return compressedKTXInfo(srgbPick(space, linear, srgb), GL_RGBA)
		}
	case format.PVRTC1RGB2BPP:
		if t == format.UNorm {
			return compressedKTXInfo(srgbPick(space, GL_COMPRESSED_RGB_PVRTC_2BPPV1_IMG,
				GL_COMPRESSED_SRGB_PVRTC_2BPPV1_EXT), GL_RGB)
		}
	case format.PVRTC1RGBA2BPP:
		if t == format.UNorm {
			return compressedKTXInfo(srgbPick(space, GL_COMPRESSED_RGBA_PVRTC_2BPPV1_IMG,
				GL_COMPRESSED_SRGB_ALPHA_PVRTC_2BPPV1_EXT), GL_RGBA)
		}
	case format.PVRTC1RGB4BPP:
		if t == format.UNorm {
			return compressedKTXInfo(srgbPick(space, GL_COMPRESSED_RGB_PVRTC_4BPPV1_IMG,
				GL_COMPRESSED_SRGB_PVRTC_4BPPV1_EXT), GL_RGB)
		}
	case format.PVRTC1RGBA4BPP:
		if t == format.UNorm {
			return compressedKTXInfo(srgbPick(space, GL_COMPRESSED_RGBA_PVRTC_4BPPV1_IMG,
				GL_COMPRESSED_SRGB_ALPHA_PVRTC_4BPPV1_EXT), GL_RGBA)
		}
	case format.PVRTC2RGBA2BPP:
		if t == format.UNorm {
			return compressedKTXInfo(srgbPick(space, GL_COMPRESSED_RGBA_PVRTC_2BPPV2_IMG,
				GL_COMPRESSED_SRGB_ALPHA_PVRTC_2BPPV2_IMG), GL_RGBA)
		}
	case format.PVRTC2RGBA4BPP:
		if t == format.UNorm {
			return compressedKTXInfo(srgbPick(space, GL_COMPRESSED_RGBA_PVRTC_4BPPV2_IMG,
				GL_COMPRESSED_SRGB_ALPHA_PVRTC_4BPPV2_IMG), GL_RGBA)
		}
	}
	return ktxFormatInfo{}, false
}

func astcKTXFormats(f format.Format) (uint32, uint32) {
	switch f {
	case format.ASTC4x4:
		return GL_COMPRESSED_RGBA_ASTC_4x4_KHR, GL_COMPRESSED_SRGB8_ALPHA8_ASTC_4x4_KHR
	case format.ASTC5x4:
		return GL_COMPRESSED_RGBA_ASTC_5x4_KHR, GL_COMPRESSED_SRGB8_ALPHA8_ASTC_5x4_KHR
	case format.ASTC5x5:
		return GL_COMPRESSED_RGBA_ASTC_5x5_KHR, GL_COMPRESSED_SRGB8_ALPHA8_ASTC_5x5_KHR
	case format.ASTC6x5:
		return GL_COMPRESSED_RGBA_ASTC_6x5_KHR, GL_COMPRESSED_SRGB8_ALPHA8_ASTC_6x5_KHR
	case format.ASTC6x6:
		return GL_COMPRESSED_RGBA_ASTC_6x6_KHR, GL_COMPRESSED_SRGB8_ALPHA8_ASTC_6x6_KHR
	case format.ASTC8x5:
		return GL_COMPRESSED_RGBA_ASTC_8x5_KHR, GL_COMPRESSED_SRGB8_ALPHA8_ASTC_8x5_KHR
	case format.ASTC8x6:
		return GL_COMPRESSED_RGBA_ASTC_8x6_KHR, GL_COMPRESSED_SRGB8_ALPHA8_ASTC_8x6_KHR
	case format.ASTC8x8:
		return GL_COMPRESSED_RGBA_ASTC_8x8_KHR, GL_COMPRESSED_SRGB8_ALPHA8_ASTC_8x8_KHR
	case format.ASTC10x5:
		return GL_COMPRESSED_RGBA_ASTC_10x5_KHR, GL_COMPRESSED_SRGB8_ALPHA8_ASTC_10x5_KHR
	case format.ASTC10x6:
		return GL_COMPRESSED_RGBA_ASTC_10x6_KHR, GL_COMPRESSED_SRGB8_ALPHA8_ASTC_10x6_KHR
	case format.ASTC10x8:
		return GL_COMPRESSED_RGBA_ASTC_10x8_KHR, GL_COMPRESSED_SRGB8_ALPHA8_ASTC_10x8_KHR
	case format.ASTC10x10:
		return GL_COMPRESSED_RGBA_ASTC_10x10_KHR, GL_COMPRESSED_SRGB8_ALPHA8_ASTC_10x10_KHR
	case format.ASTC12x10:
		return GL_COMPRESSED_RGBA_ASTC_12x10_KHR, GL_COMPRESSED_SRGB8_ALPHA8_ASTC_12x10_KHR
	default:
		return GL_COMPRESSED_RGBA_ASTC_12x12_KHR, GL_COMPRESSED_SRGB8_ALPHA8_ASTC_12x12_KHR
	}
}

// ValidForKTX reports whether the (format, type) pair is representable in a
// KTX container.
func ValidForKTX(f format.Format, t format.Type) bool {
	_, ok := ktxFormat(f, t, colorspace.Linear)
	return ok
}

// saveKTX writes the KTX1 container: identifier, endianness sentinel, header
// fields, then per mip level the image size and the depth/face payload with
// uncompressed rows padded to 4 bytes.
func (t *Texture) saveKTX(w io.Writer) SaveResult {
	info, ok := ktxFormat(t.fmt, t.typ, t.space)
	if !ok {
		return SaveUnsupported
	}

	if _, err := w.Write(ktxIdentifier[:]); err != nil {
		return SaveWriteError
	}

	le := binary.LittleEndian
	writeU32 := func(v uint32) bool {
		return binary.Write(w, le, v) == nil
	}

	height := uint32(t.Height(0))
	if t.dim == format.Dim1D {
		height = 0
	}
	depth := uint32(0)
	if t.dim == format.Dim3D {
		depth = uint32(t.Depth(0))
	}
	elements := uint32(0)
	if t.IsArray() {
		elements = uint32(t.Depth(0))
	}

	fields := []uint32{
		ktxEndianness,
		info.glType, info.typeSize, info.glFormat, info.internalFormat, info.baseInternal,
		uint32(t.Width(0)), height, depth, elements, uint32(t.faces),
		uint32(t.mipLevels), 0,
	}
	for _, v := range fields {
		if !writeU32(v) {
			return SaveWriteError
		}
	}

	compressed := format.BlockWidth(t.fmt) > 1
	formatSize := format.BlockSize(t.fmt)
	for level := 0; level < t.mipLevels; level++ {
		var imageSize uint32
		if compressed {
			for depth := 0; depth < t.Depth(level); depth++ {
				imageSize += uint32(t.DataSize(format.PosX, level, depth))
			}
		} else {
			// Uncompressed rows pad to a 4-byte multiple.
			for depth := 0; depth < t.Depth(level); depth++ {
				imageSize += uint32((t.Width(level)*formatSize+3)/4) * 4 *
					uint32(t.Height(level))
			}
		}
		if t.IsArray() {
			imageSize *= uint32(t.faces)
		}
		if !writeU32(imageSize) {
			return SaveWriteError
		}

		for depth := 0; depth < t.Depth(level); depth++ {
			for face := 0; face < t.faces; face++ {
				data := t.Data(format.CubeFace(face), level, depth)
				if len(data) == 0 {
					return SaveWriteError
				}
				if compressed {
					if _, err := w.Write(data); err != nil {
						return SaveWriteError
					}
					continue
				}
				rowSize := t.Width(level) * formatSize
				padding := rowSize % 4
				if padding != 0 {
					padding = 4 - padding
				}
				pad := make([]byte, padding)
				for y := 0; y < t.Height(level); y++ {
					if _, err := w.Write(data[y*rowSize : (y+1)*rowSize]); err != nil {
						return SaveWriteError
					}
					if padding != 0 {
						if _, err := w.Write(pad); err != nil {
							return SaveWriteError
						}
					}
				}
			}
		}
	}
	return SaveSuccess
}
