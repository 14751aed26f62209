package texture

import (
	"encoding/binary"
	"io"

	"github.com/goopsie/texpack/pkg/colorspace"
	"github.com/goopsie/texpack/pkg/format"
)

const ddsMagic = 0x20534444 // "DDS "

const (
	ddsFlagCaps        = 0x1
	ddsFlagHeight      = 0x2
	ddsFlagWidth       = 0x4
	ddsFlagPitch       = 0x8
	ddsFlagPixelFormat = 0x1000
	ddsFlagMipmapCount = 0x20000
	ddsFlagDepth       = 0x800000
	ddsFlagRequired    = ddsFlagCaps | ddsFlagHeight | ddsFlagWidth | ddsFlagPixelFormat
)

const ddsFormatFlagFourCC = 0x4

const (
	ddsCapsComplex = 0x8
	ddsCapsMipmap  = 0x400000
	ddsCapsTexture = 0x1000
)

const (
	ddsCaps2Cube   = 0x200
	ddsCaps2PosX   = 0x400
	ddsCaps2NegX   = 0x800
	ddsCaps2PosY   = 0x1000
	ddsCaps2NegY   = 0x2000
	ddsCaps2PosZ   = 0x4000
	ddsCaps2NegZ   = 0x8000
	ddsCaps2Volume = 0x200000
)

// DXGI_FORMAT values used by the DX10 extension header.
const (
	DXGI_FORMAT_UNKNOWN             = 0
	DXGI_FORMAT_R32G32B32A32_FLOAT  = 2
	DXGI_FORMAT_R32G32B32A32_UINT   = 3
	DXGI_FORMAT_R32G32B32A32_SINT   = 4
	DXGI_FORMAT_R32G32B32_FLOAT     = 6
	DXGI_FORMAT_R32G32B32_UINT      = 7
	DXGI_FORMAT_R32G32B32_SINT      = 8
	DXGI_FORMAT_R16G16B16A16_FLOAT  = 10
	DXGI_FORMAT_R16G16B16A16_UNORM  = 11
	DXGI_FORMAT_R16G16B16A16_UINT   = 12
	DXGI_FORMAT_R16G16B16A16_SNORM  = 13
	DXGI_FORMAT_R16G16B16A16_SINT   = 14
	DXGI_FORMAT_R32G32_FLOAT        = 16
	DXGI_FORMAT_R32G32_UINT         = 17
	DXGI_FORMAT_R32G32_SINT         = 18
	DXGI_FORMAT_R10G10B10A2_UNORM   = 24
	DXGI_FORMAT_R10G10B10A2_UINT    = 25
	DXGI_FORMAT_R11G11B10_FLOAT     = 26
	DXGI_FORMAT_R8G8B8A8_UNORM      = 28
	DXGI_FORMAT_R8G8B8A8_UNORM_SRGB = 29
	DXGI_FORMAT_R8G8B8A8_UINT       = 30
	DXGI_FORMAT_R8G8B8A8_SNORM      = 31
	DXGI_FORMAT_R8G8B8A8_SINT       = 32
	DXGI_FORMAT_R16G16_FLOAT        = 34
	DXGI_FORMAT_R16G16_UNORM        = 35
	DXGI_FORMAT_R16G16_UINT         = 36
	DXGI_FORMAT_R16G16_SNORM        = 37
	DXGI_FORMAT_R16G16_SINT         = 38
	DXGI_FORMAT_R32_FLOAT           = 41
	DXGI_FORMAT_R32_UINT            = 42
	DXGI_FORMAT_R32_SINT            = 43
	DXGI_FORMAT_R8G8_UNORM          = 49
	DXGI_FORMAT_R8G8_UINT           = 50
	DXGI_FORMAT_R8G8_SNORM          = 51
	DXGI_FORMAT_R8G8_SINT           = 52
	DXGI_FORMAT_R16_FLOAT           = 54
	DXGI_FORMAT_R16_UNORM           = 56
	DXGI_FORMAT_R16_UINT            = 57
	DXGI_FORMAT_R16_SNORM           = 58
	DXGI_FORMAT_R16_SINT            = 59
	DXGI_FORMAT_R8_UNORM            = 61
	DXGI_FORMAT_R8_UINT             = 62
	DXGI_FORMAT_R8_SNORM            = 63
	DXGI_FORMAT_R8_SINT             = 64
	DXGI_FORMAT_R9G9B9E5_SHAREDEXP  = 67
	DXGI_FORMAT_BC1_UNORM           = 71
	DXGI_FORMAT_BC1_UNORM_SRGB      = 72
	DXGI_FORMAT_BC2_UNORM           = 74
	DXGI_FORMAT_BC2_UNORM_SRGB      = 75
	DXGI_FORMAT_BC3_UNORM           = 77
	DXGI_FORMAT_BC3_UNORM_SRGB      = 78
	DXGI_FORMAT_BC4_UNORM           = 80
	DXGI_FORMAT_BC4_SNORM           = 81
	DXGI_FORMAT_BC5_UNORM           = 83
	DXGI_FORMAT_BC5_SNORM           = 84
	DXGI_FORMAT_B5G6R5_UNORM        = 85
	DXGI_FORMAT_B5G5R5A1_UNORM      = 86
	DXGI_FORMAT_B8G8R8A8_UNORM      = 87
	DXGI_FORMAT_B8G8R8A8_UNORM_SRGB = 91
	DXGI_FORMAT_BC6H_UF16           = 95
	DXGI_FORMAT_BC6H_SF16           = 96
	DXGI_FORMAT_BC7_UNORM           = 98
	DXGI_FORMAT_BC7_UNORM_SRGB      = 99
	DXGI_FORMAT_IA44                = 112
	DXGI_FORMAT_B4G4R4A4_UNORM      = 115
)

const (
	ddsDimTexture1D = 2
	ddsDimTexture2D = 3
	ddsDimTexture3D = 4
)

const ddsMiscFlagCubeMap = 0x4

const (
	ddsAlphaModeUnknown       = 0
	ddsAlphaModeStraight      = 1
	ddsAlphaModePreMultiplied = 2
	ddsAlphaModeOpaque        = 3
	ddsAlphaModeCustom        = 4
)

type ddsPixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      uint32
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

type ddsHeader struct {
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       ddsPixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

type ddsHeaderDXT10 struct {
	DXGIFormat        uint32
	ResourceDimension uint32
	MiscFlag          uint32
	ArraySize         uint32
	MiscFlags2        uint32
}

func fourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// ddsFormat maps a (format, type, color space) triple onto its DXGI format.
func ddsFormat(f format.Format, t format.Type, space colorspace.Space) uint32 {
	srgb := space == colorspace.SRGB
	switch f {
	case format.R4G4:
		if t == format.UNorm {
			return DXGI_FORMAT_IA44
		}
	case format.A4R4G4B4:
		if t == format.UNorm {
			return DXGI_FORMAT_B4G4R4A4_UNORM
		}
	case format.R5G6B5:
		if t == format.UNorm {
			return DXGI_FORMAT_B5G6R5_UNORM
		}
	case format.A1R5G5B5:
		if t == format.UNorm {
			return DXGI_FORMAT_B5G5R5A1_UNORM
		}
	case format.R8:
		switch t {
		case format.UNorm:
			return DXGI_FORMAT_R8_UNORM
		case format.SNorm:
			return DXGI_FORMAT_R8_SNORM
		case format.UInt:
			return DXGI_FORMAT_R8_UINT
		case format.Int:
			return DXGI_FORMAT_R8_SINT
		}
	case format.R8G8:
		switch t {
		case format.UNorm:
			return DXGI_FORMAT_R8G8_UNORM
		case format.SNorm:
			return DXGI_FORMAT_R8G8_SNORM
		case format.UInt:
			return DXGI_FORMAT_R8G8_UINT
		case format.Int:
			return DXGI_FORMAT_R8G8_SINT
		}
	case format.R8G8B8A8:
		switch t {
		case format.UNorm:
			if srgb {
				return DXGI_FORMAT_R8G8B8A8_UNORM_SRGB
			}
			return DXGI_FORMAT_R8G8B8A8_UNORM
		case format.SNorm:
			return DXGI_FORMAT_R8G8B8A8_SNORM
		case format.UInt:
			return DXGI_FORMAT_R8G8B8A8_UINT
		case format.Int:
			return DXGI_FORMAT_R8G8B8A8_SINT
		}
	case format.B8G8R8A8:
		if t == format.UNorm {
			if srgb {
				return DXGI_FORMAT_B8G8R8A8_UNORM_SRGB
			}
			return DXGI_FORMAT_B8G8R8A8_UNORM
		}
	case format.A2B10G10R10:
		switch t {
		case format.UNorm:
			return DXGI_FORMAT_R10G10B10A2_UNORM
		case format.UInt:
			return DXGI_FORMAT_R10G10B10A2_UINT
		}
	case format.R16:
		switch t {
		case format.UNorm:
			return DXGI_FORMAT_R16_UNORM
		case format.SNorm:
			return DXGI_FORMAT_R16_SNORM
		case format.UInt:
			return DXGI_FORMAT_R16_UINT
		case format.Int:
			return DXGI_FORMAT_R16_SINT
		case format.Float:
			return DXGI_FORMAT_R16_FLOAT
		}
	case format.R16G16:
		switch t {
		case format.UNorm:
			return DXGI_FORMAT_R16G16_UNORM
		case format.SNorm:
			return DXGI_FORMAT_R16G16_SNORM
		case format.UInt:
			return DXGI_FORMAT_R16G16_UINT
		case format.Int:
			return DXGI_FORMAT_R16G16_SINT
		case format.Float:
			return DXGI_FORMAT_R16G16_FLOAT
		}
	case format.R16G16B16A16:
		switch t {
		case format.UNorm:
			return DXGI_FORMAT_R16G16B16A16_UNORM
		case format.SNorm:
			return DXGI_FORMAT_R16G16B16A16_SNORM
		case format.UInt:
			return DXGI_FORMAT_R16G16B16A16_UINT
		case format.Int:
			return DXGI_FORMAT_R16G16B16A16_SINT
		case format.Float:
			return DXGI_FORMAT_R16G16B16A16_FLOAT
		}
	case format.R32:
		switch t {
		case format.UInt:
			return DXGI_FORMAT_R32_UINT
		case format.Int:
			return DXGI_FORMAT_R32_SINT
		case format.Float:
			return DXGI_FORMAT_R32_FLOAT
		}
	case format.R32G32:
		switch t {
		case format.UInt:
			return DXGI_FORMAT_R32G32_UINT
		case format.Int:
			return DXGI_FORMAT_R32G32_SINT
		case format.Float:
			return DXGI_FORMAT_R32G32_FLOAT
		}
	case format.R32G32B32:
		switch t {
		case format.UInt:
			return DXGI_FORMAT_R32G32B32_UINT
		case format.Int:
			return DXGI_FORMAT_R32G32B32_SINT
		case format.Float:
			return DXGI_FORMAT_R32G32B32_FLOAT
		}
	case format.R32G32B32A32:
		switch t {
		case format.UInt:
			return DXGI_FORMAT_R32G32B32A32_UINT
		case format.Int:
			return DXGI_FORMAT_R32G32B32A32_SINT
		case format.Float:
			return DXGI_FORMAT_R32G32B32A32_FLOAT
		}
	case format.B10G11R11UFloat:
		if t == format.UFloat {
			return DXGI_FORMAT_R11G11B10_FLOAT
		}
	case format.E5B9G9R9UFloat:
		if t == format.UFloat {
			return DXGI_FORMAT_R9G9B9E5_SHAREDEXP
		}
	case format.BC1RGB, format.BC1RGBA:
		if t == format.UNorm {
			if srgb {
				return DXGI_FORMAT_BC1_UNORM_SRGB
			}
			return DXGI_FORMAT_BC1_UNORM
		}
	case format.BC2:
		if t == format.UNorm {
			if srgb {
				return DXGI_FORMAT_BC2_UNORM_SRGB
			}
			return DXGI_FORMAT_BC2_UNORM
		}
	case format.BC3:
		if t == format.UNorm {
			if srgb {
				return DXGI_FORMAT_BC3_UNORM_SRGB
			}
			return DXGI_FORMAT_BC3_UNORM
		}
	case format.BC4:
		switch t {
		case format.UNorm:
			return DXGI_FORMAT_BC4_UNORM
		case format.SNorm:
			return DXGI_FORMAT_BC4_SNORM
		}
	case format.BC5:
		switch t {
		case format.UNorm:
			return DXGI_FORMAT_BC5_UNORM
		case format.SNorm:
			return DXGI_FORMAT_BC5_SNORM
		}
	case format.BC6H:
		switch t {
		case format.UFloat:
			return DXGI_FORMAT_BC6H_UF16
		case format.Float:
			return DXGI_FORMAT_BC6H_SF16
		}
	case format.BC7:
		if t == format.UNorm {
			if srgb {
				return DXGI_FORMAT_BC7_UNORM_SRGB
			}
			return DXGI_FORMAT_BC7_UNORM
		}
	}
	return DXGI_FORMAT_UNKNOWN
}

// ValidForDDS reports whether the (format, type) pair is representable in a
// DDS container.
func ValidForDDS(f format.Format, t format.Type) bool {
	return ddsFormat(f, t, colorspace.Linear) != DXGI_FORMAT_UNKNOWN
}

// computePitch is the row (or block row) byte count required by the header.
func computePitch(t *Texture) uint32 {
	blockWidth := format.BlockWidth(t.fmt)
	blockSize := format.BlockSize(t.fmt)
	return uint32((t.Width(0) + blockWidth - 1) / blockWidth * blockSize)
}

// saveDDS writes the DDS container: magic, 124-byte header, the DXT10
// extension, then every array element's faces with each mip's depth slices.
func (t *Texture) saveDDS(w io.Writer) SaveResult {
	dxgi := ddsFormat(t.fmt, t.typ, t.space)
	if dxgi == DXGI_FORMAT_UNKNOWN {
		return SaveUnsupported
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(ddsMagic)); err != nil {
		return SaveWriteError
	}

	var header ddsHeader
	header.Size = 124
	header.Flags = ddsFlagRequired | ddsFlagMipmapCount | ddsFlagPitch
	if t.dim == format.Dim3D {
		header.Flags |= ddsFlagDepth
		header.Depth = uint32(t.Depth(0))
	}
	header.Height = uint32(t.Height(0))
	header.Width = uint32(t.Width(0))
	header.PitchOrLinearSize = computePitch(t)
	header.MipMapCount = uint32(t.mipLevels)

	header.PixelFormat.Size = 32
	header.PixelFormat.Flags = ddsFormatFlagFourCC
	header.PixelFormat.FourCC = fourCC('D', 'X', '1', '0')

	header.Caps = ddsCapsTexture
	if t.mipLevels > 1 {
		header.Caps |= ddsCapsMipmap
	}
	if t.mipLevels > 1 || t.dim == format.Dim3D || t.IsArray() {
		header.Caps |= ddsCapsComplex
	}

	if t.dim == format.Cube {
		header.Caps2 = ddsCaps2Cube | ddsCaps2PosX | ddsCaps2NegX | ddsCaps2PosY |
			ddsCaps2NegY | ddsCaps2PosZ | ddsCaps2NegZ
	} else if t.dim == format.Dim3D {
		header.Caps2 = ddsCaps2Volume
	}

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return SaveWriteError
	}

	var dxt10 ddsHeaderDXT10
	dxt10.DXGIFormat = dxgi
	switch t.dim {
	case format.Dim1D:
		dxt10.ResourceDimension = ddsDimTexture1D
	case format.Dim2D:
		dxt10.ResourceDimension = ddsDimTexture2D
	case format.Dim3D:
		dxt10.ResourceDimension = ddsDimTexture3D
	case format.Cube:
		dxt10.ResourceDimension = ddsDimTexture2D
		dxt10.MiscFlag = ddsMiscFlagCubeMap
	}
	if t.dim == format.Dim3D {
		dxt10.ArraySize = 1
	} else {
		dxt10.ArraySize = uint32(t.Depth(0))
	}
	if format.HasAlpha(t.fmt) {
		switch t.alphaType {
		case format.AlphaNone:
			dxt10.MiscFlags2 = ddsAlphaModeOpaque
		case format.AlphaStandard:
			dxt10.MiscFlags2 = ddsAlphaModeStraight
		case format.AlphaPreMultiplied:
			dxt10.MiscFlags2 = ddsAlphaModePreMultiplied
		case format.AlphaEncoded:
			dxt10.MiscFlags2 = ddsAlphaModeCustom
		}
	} else {
		dxt10.MiscFlags2 = ddsAlphaModeOpaque
	}
	if err := binary.Write(w, binary.LittleEndian, &dxt10); err != nil {
		return SaveWriteError
	}

	elements := 1
	if t.IsArray() {
		elements = t.Depth(0)
	}
	for element := 0; element < elements; element++ {
		for face := 0; face < t.faces; face++ {
			for level := 0; level < t.mipLevels; level++ {
				volumes := 1
				if t.dim == format.Dim3D {
					volumes = t.Depth(level)
				}
				for volume := 0; volume < volumes; volume++ {
					index := volume + element
					data := t.Data(format.CubeFace(face), level, index)
					if len(data) == 0 {
						return SaveWriteError
					}
					if _, err := w.Write(data); err != nil {
						return SaveWriteError
					}
				}
			}
		}
	}
	return SaveSuccess
}
