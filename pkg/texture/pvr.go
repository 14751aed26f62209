package texture

import (
	"encoding/binary"
	"io"

	"github.com/goopsie/texpack/pkg/colorspace"
	"github.com/goopsie/texpack/pkg/format"
)

// PVR3 channel type codes.
const (
	pvrChannelUByteN = iota
	pvrChannelSByteN
	pvrChannelUByte
	pvrChannelSByte
	pvrChannelUShortN
	pvrChannelSShortN
	pvrChannelUShort
	pvrChannelSShort
	pvrChannelUIntN
	pvrChannelSIntN
	pvrChannelUInt
	pvrChannelSInt
	pvrChannelFloat
	pvrChannelUFloat
)

// PVR3 special pixel format codes.
const (
	pvrFormatPVRTC2bppRGB = iota
	pvrFormatPVRTC2bppRGBA
	pvrFormatPVRTC4bppRGB
	pvrFormatPVRTC4bppRGBA
	pvrFormatPVRTC2_2bpp
	pvrFormatPVRTC2_4bpp
	pvrFormatETC1
	pvrFormatDXT1
	pvrFormatDXT2
	pvrFormatDXT3
	pvrFormatDXT4
	pvrFormatDXT5
	pvrFormatBC4
	pvrFormatBC5
	pvrFormatBC6
	pvrFormatBC7
	pvrFormatUYVY
	pvrFormatYUY2
	pvrFormatBW1bpp
	pvrFormatR9G9B9E5
	pvrFormatR8G8B8G8
	pvrFormatG8R8G8B8
	pvrFormatETC2RGB
	pvrFormatETC2RGBA
	pvrFormatETC2RGBA1
	pvrFormatEACR11
	pvrFormatEACRG11
	pvrFormatASTC4x4
	pvrFormatASTC5x4
	pvrFormatASTC5x5
	pvrFormatASTC6x5
	pvrFormatASTC6x6
	pvrFormatASTC8x5
	pvrFormatASTC8x6
	pvrFormatASTC8x8
	pvrFormatASTC10x5
	pvrFormatASTC10x6
	pvrFormatASTC10x8
	pvrFormatASTC10x10
	pvrFormatASTC12x10
	pvrFormatASTC12x12
)

const pvrFlagPreMultiplied = 0x2

// pvrGenericFormat packs up to four (channel name, bit count) pairs into the
// 64-bit pixel format field.
func pvrGenericFormat(c0 byte, b0 int, c1 byte, b1 int, c2 byte, b2 int,
	c3 byte, b3 int) uint64 {
	return uint64(c0) | uint64(c1)<<8 | uint64(c2)<<16 | uint64(c3)<<24 |
		uint64(b0)<<32 | uint64(b1)<<40 | uint64(b2)<<48 | uint64(b3)<<56
}

// pvrChannelType maps (type, format) onto the channel type code. Small packed
// formats report short channels, the 32-bit formats report int channels.
func pvrChannelType(f format.Format, t format.Type) uint32 {
	byteSized := func() bool {
		switch f {
		case format.R4G4, format.R8, format.R8G8, format.R8G8B8, format.B8G8R8,
			format.R8G8B8A8, format.B8G8R8A8, format.A8B8G8R8, format.BC4, format.BC5:
			return true
		}
		return false
	}
	shortSized := func() bool {
		switch f {
		case format.R4G4B4A4, format.B4G4R4A4, format.A4R4G4B4, format.R5G6B5,
			format.B5G6R5, format.R5G5B5A1, format.B5G5R5A1, format.A1R5G5B5,
			format.R16, format.R16G16, format.R16G16B16, format.R16G16B16A16:
			return true
		}
		return false
	}
	intSized := func() bool {
		switch f {
		case format.A2R10G10B10, format.A2B10G10R10, format.R32, format.R32G32,
			format.R32G32B32, format.R32G32B32A32:
			return true
		}
		return false
	}

	switch t {
	case format.UNorm:
		switch {
		case shortSized() || f == format.EACR11 || f == format.EACR11G11:
			return pvrChannelUShortN
		case intSized():
			return pvrChannelUIntN
		default:
			return pvrChannelUByteN
		}
	case format.SNorm:
		switch {
		case shortSized() || f == format.EACR11 || f == format.EACR11G11:
			return pvrChannelSShortN
		case intSized():
			return pvrChannelSIntN
		default:
			return pvrChannelSByteN
		}
	case format.UInt:
		switch {
		case byteSized():
			return pvrChannelUByte
		case shortSized():
			return pvrChannelUShort
		case intSized():
			return pvrChannelUInt
		default:
			return pvrChannelUByte
		}
	case format.Int:
		switch {
		case byteSized():
			return pvrChannelSByte
		case shortSized():
			return pvrChannelSShort
		case intSized():
			return pvrChannelSInt
		default:
			return pvrChannelUByte
		}
	case format.UFloat:
		return pvrChannelUFloat
	default:
		return pvrChannelFloat
	}
}

// pvrPixelFormat maps a format (and alpha mode, for the DXT2/DXT4
// distinction) onto the 64-bit pixel format field.
func pvrPixelFormat(f format.Format, alpha format.Alpha) (uint64, bool) {
	switch f {
	case format.R4G4:
		return pvrGenericFormat('r', 4, 'g', 4, 0, 0, 0, 0), true
	case format.R4G4B4A4:
		return pvrGenericFormat('r', 4, 'g', 4, 'b', 4, 'a', 4), true
	case format.B4G4R4A4:
		return pvrGenericFormat('b', 4, 'g', 4, 'r', 4, 'a', 4), true
	case format.A4R4G4B4:
		return pvrGenericFormat('a', 4, 'r', 4, 'g', 4, 'b', 4), true
	case format.R5G6B5:
		return pvrGenericFormat('r', 5, 'g', 6, 'b', 5, 0, 0), true
	case format.B5G6R5:
		return pvrGenericFormat('b', 5, 'g', 6, 'r', 5, 0, 0), true
	case format.R5G5B5A1:
		return pvrGenericFormat('r', 5, 'g', 5, 'b', 5, 'a', 1), true
	case format.B5G5R5A1:
		return pvrGenericFormat('b', 5, 'g', 5, 'r', 5, 'a', 1), true
	case format.A1R5G5B5:
		return pvrGenericFormat('a', 1, 'r', 5, 'g', 5, 'b', 5), true
	case format.R8:
		return pvrGenericFormat('r', 8, 0, 0, 0, 0, 0, 0), true
	case format.R8G8:
		return pvrGenericFormat('r', 8, 'g', 8, 0, 0, 0, 0), true
	case format.R8G8B8:
		return pvrGenericFormat('r', 8, 'g', 8, 'b', 8, 0, 0), true
	case format.B8G8R8:
		return pvrGenericFormat('b', 8, 'g', 8, 'r', 8, 0, 0), true
	case format.R8G8B8A8:
		return pvrGenericFormat('r', 8, 'g', 8, 'b', 8, 'a', 8), true
	case format.B8G8R8A8:
		return pvrGenericFormat('b', 8, 'g', 8, 'r', 8, 'a', 8), true
	case format.A8B8G8R8:
		return pvrGenericFormat('a', 8, 'b', 8, 'g', 8, 'r', 8), true
	case format.A2R10G10B10:
		return pvrGenericFormat('a', 2, 'r', 10, 'g', 10, 'b', 10), true
	case format.A2B10G10R10:
		return pvrGenericFormat('a', 2, 'b', 10, 'g', 10, 'r', 10), true
	case format.R16:
		return pvrGenericFormat('r', 16, 0, 0, 0, 0, 0, 0), true
	case format.R16G16:
		return pvrGenericFormat('r', 16, 'g', 16, 0, 0, 0, 0), true
	case format.R16G16B16:
		return pvrGenericFormat('r', 16, 'g', 16, 'b', 16, 0, 0), true
	case format.R16G16B16A16:
		return pvrGenericFormat('r', 16, 'g', 16, 'b', 16, 'a', 16), true
	case format.R32:
		return pvrGenericFormat('r', 32, 0, 0, 0, 0, 0, 0), true
	case format.R32G32:
		return pvrGenericFormat('r', 32, 'g', 32, 0, 0, 0, 0), true
	case format.R32G32B32:
		return pvrGenericFormat('r', 32, 'g', 32, 'b', 32, 0, 0), true
	case format.R32G32B32A32:
		return pvrGenericFormat('r', 32, 'g', 32, 'b', 32, 'a', 32), true
	case format.B10G11R11UFloat:
		return pvrGenericFormat('b', 10, 'g', 11, 'r', 11, 0, 0), true
	case format.E5B9G9R9UFloat:
		return pvrFormatR9G9B9E5, true
	case format.BC1RGB, format.BC1RGBA:
		return pvrFormatDXT1, true
	case format.BC2:
		if alpha == format.AlphaPreMultiplied {
			return pvrFormatDXT2, true
		}
		return pvrFormatDXT3, true
	case format.BC3:
		if alpha == format.AlphaPreMultiplied {
			return pvrFormatDXT4, true
		}
		return pvrFormatDXT5, true
	case format.BC4:
		return pvrFormatBC4, true
	case format.BC5:
		return pvrFormatBC5, true
	case format.BC6H:
		return pvrFormatBC6, true
	case format.BC7:
		return pvrFormatBC7, true
	case format.ETC1:
		return pvrFormatETC1, true
	case format.ETC2R8G8B8:
		return pvrFormatETC2RGB, true
	case format.ETC2R8G8B8A1:
		return pvrFormatETC2RGBA1, true
	case format.ETC2R8G8B8A8:
		return pvrFormatETC2RGBA, true
	case format.EACR11:
		return pvrFormatEACR11, true
	case format.EACR11G11:
		return pvrFormatEACRG11, true
	case format.ASTC4x4:
		return pvrFormatASTC4x4, true
	case format.ASTC5x4:
		return pvrFormatASTC5x4, true
	case format.ASTC5x5:
		return pvrFormatASTC5x5, true
	case format.ASTC6x5:
		return pvrFormatASTC6x5, true
	case format.ASTC6x6:
		return pvrFormatASTC6x6, true
	case format.ASTC8x5:
		return pvrFormatASTC8x5, true
	case format.ASTC8x6:
		return pvrFormatASTC8x6, true
	case format.ASTC8x8:
		return pvrFormatASTC8x8, true
	case format.ASTC10x5:
		return pvrFormatASTC10x5, true
	case format.ASTC10x6:
		return pvrFormatASTC10x6, true
	case format.ASTC10x8:
		return pvrFormatASTC10x8, true
	case format.ASTC10x10:
		return pvrFormatASTC10x10, true
	case format.ASTC12x10:
		return pvrFormatASTC12x10, true
	case format.ASTC12x12:
		return pvrFormatASTC12x12, true
	case format.PVRTC1RGB2BPP:
		return pvrFormatPVRTC2bppRGB, true
	case format.PVRTC1RGBA2BPP:
		return pvrFormatPVRTC2bppRGBA, true
	case format.PVRTC1RGB4BPP:
		return pvrFormatPVRTC4bppRGB, true
	case format.PVRTC1RGBA4BPP:
		return pvrFormatPVRTC4bppRGBA, true
	case format.PVRTC2RGBA2BPP:
		return pvrFormatPVRTC2_2bpp, true
	case format.PVRTC2RGBA4BPP:
		return pvrFormatPVRTC2_4bpp, true
	}
	return 0, false
}

// ValidForPVR reports whether the format is representable in a PVR container.
func ValidForPVR(f format.Format, _ format.Type) bool {
	_, ok := pvrPixelFormat(f, format.AlphaStandard)
	return ok
}

// savePVR writes the PVR3 container: version, flags, pixel format, color
// space and channel type, geometry, metadata, then the payload as
// mip -> slice -> face. BC1 carries a metadata block naming whether the
// payload used the 1-bit alpha mode.
func (t *Texture) savePVR(w io.Writer) SaveResult {
	pixelFormat, ok := pvrPixelFormat(t.fmt, t.alphaType)
	if !ok {
		return SaveUnsupported
	}

	le := binary.LittleEndian
	writeU32 := func(v uint32) bool {
		return binary.Write(w, le, v) == nil
	}

	if !writeU32(fourCC('P', 'V', 'R', 3)) {
		return SaveWriteError
	}

	flags := uint32(0)
	if t.alphaType == format.AlphaPreMultiplied {
		flags = pvrFlagPreMultiplied
	}
	if !writeU32(flags) {
		return SaveWriteError
	}

	if err := binary.Write(w, le, pixelFormat); err != nil {
		return SaveWriteError
	}

	space := uint32(0)
	if t.space == colorspace.SRGB {
		space = 1
	}
	depth := uint32(1)
	if t.dim == format.Dim3D {
		depth = uint32(t.Depth(0))
	}
	elements := uint32(1)
	if t.IsArray() {
		elements = uint32(t.Depth(0))
	}

	fields := []uint32{
		space, pvrChannelType(t.fmt, t.typ),
		uint32(t.Height(0)), uint32(t.Width(0)),
		depth, elements, uint32(t.faces), uint32(t.mipLevels),
	}
	for _, v := range fields {
		if !writeU32(v) {
			return SaveWriteError
		}
	}

	// BC1 needs metadata to discriminate the 1-bit alpha variant.
	if t.fmt == format.BC1RGB || t.fmt == format.BC1RGBA {
		if !writeU32(12) {
			return SaveWriteError
		}
		if !writeU32(fourCC('C', 'T', 'F', 'S')) {
			return SaveWriteError
		}
		code := fourCC('B', 'C', '1', 0)
		if t.fmt == format.BC1RGBA {
			code = fourCC('B', 'C', '1', 'A')
		}
		if !writeU32(code) {
			return SaveWriteError
		}
		if !writeU32(0) {
			return SaveWriteError
		}
	} else if !writeU32(0) {
		return SaveWriteError
	}

	for level := 0; level < t.mipLevels; level++ {
		for depth := 0; depth < t.Depth(level); depth++ {
			for face := 0; face < t.faces; face++ {
				data := t.Data(format.CubeFace(face), level, depth)
				if len(data) == 0 {
					return SaveWriteError
				}
				if _, err := w.Write(data); err != nil {
					return SaveWriteError
				}
			}
		}
	}
	return SaveSuccess
}
