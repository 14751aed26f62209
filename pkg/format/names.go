package format

import "strings"

var formatNames = map[Format]string{
	Unknown:         "Unknown",
	R4G4:            "R4G4",
	R4G4B4A4:        "R4G4B4A4",
	B4G4R4A4:        "B4G4R4A4",
	A4R4G4B4:        "A4R4G4B4",
	R5G6B5:          "R5G6B5",
	B5G6R5:          "B5G6R5",
	R5G5B5A1:        "R5G5B5A1",
	B5G5R5A1:        "B5G5R5A1",
	A1R5G5B5:        "A1R5G5B5",
	R8:              "R8",
	R8G8:            "R8G8",
	R8G8B8:          "R8G8B8",
	B8G8R8:          "B8G8R8",
	R8G8B8A8:        "R8G8B8A8",
	B8G8R8A8:        "B8G8R8A8",
	A8B8G8R8:        "A8B8G8R8",
	A2R10G10B10:     "A2R10G10B10",
	A2B10G10R10:     "A2B10G10R10",
	R16:             "R16",
	R16G16:          "R16G16",
	R16G16B16:       "R16G16B16",
	R16G16B16A16:    "R16G16B16A16",
	R32:             "R32",
	R32G32:          "R32G32",
	R32G32B32:       "R32G32B32",
	R32G32B32A32:    "R32G32B32A32",
	B10G11R11UFloat: "B10G11R11_UFloat",
	E5B9G9R9UFloat:  "E5B9G9R9_UFloat",
	BC1RGB:          "BC1_RGB",
	BC1RGBA:         "BC1_RGBA",
	BC2:             "BC2",
	BC3:             "BC3",
	BC4:             "BC4",
	BC5:             "BC5",
	BC6H:            "BC6H",
	BC7:             "BC7",
	ETC1:            "ETC1",
	ETC2R8G8B8:      "ETC2_R8G8B8",
	ETC2R8G8B8A1:    "ETC2_R8G8B8A1",
	ETC2R8G8B8A8:    "ETC2_R8G8B8A8",
	EACR11:          "EAC_R11",
	EACR11G11:       "EAC_R11G11",
	ASTC4x4:         "ASTC_4x4",
	ASTC5x4:         "ASTC_5x4",
	ASTC5x5:         "ASTC_5x5",
	ASTC6x5:         "ASTC_6x5",
	ASTC6x6:         "ASTC_6x6",
	ASTC8x5:         "ASTC_8x5",
	ASTC8x6:         "ASTC_8x6",
	ASTC8x8:         "ASTC_8x8",
	ASTC10x5:        "ASTC_10x5",
	ASTC10x6:        "ASTC_10x6",
	ASTC10x8:        "ASTC_10x8",
	ASTC10x10:       "ASTC_10x10",
	ASTC12x10:       "ASTC_12x10",
	ASTC12x12:       "ASTC_12x12",
	PVRTC1RGB2BPP:   "PVRTC1_RGB_2BPP",
	PVRTC1RGBA2BPP:  "PVRTC1_RGBA_2BPP",
	PVRTC1RGB4BPP:   "PVRTC1_RGB_4BPP",
	PVRTC1RGBA4BPP:  "PVRTC1_RGBA_4BPP",
	PVRTC2RGBA2BPP:  "PVRTC2_RGBA_2BPP",
	PVRTC2RGBA4BPP:  "PVRTC2_RGBA_4BPP",
}

var formatsByName = func() map[string]Format {
	m := make(map[string]Format, len(formatNames))
	for f, name := range formatNames {
		m[strings.ToLower(name)] = f
	}
	return m
}()

// String returns the canonical format name used on the command line.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "Unknown"
}

// ParseFormat looks up a format by its canonical name, case-insensitively.
func ParseFormat(name string) (Format, bool) {
	f, ok := formatsByName[strings.ToLower(name)]
	if !ok || f == Unknown {
		return Unknown, false
	}
	return f, true
}

// FormatNames lists every format name except Unknown, in declaration order.
func FormatNames() []string {
	names := make([]string, 0, int(formatCount)-1)
	for f := Unknown + 1; f < formatCount; f++ {
		names = append(names, formatNames[f])
	}
	return names
}

var typeNames = [typeCount]string{"unorm", "snorm", "uint", "int", "ufloat", "float"}

// String returns the lowercase type name used on the command line.
func (t Type) String() string {
	if t < 0 || t >= typeCount {
		return "unknown"
	}
	return typeNames[t]
}

// ParseType looks up a numeric type by name, case-insensitively.
func ParseType(name string) (Type, bool) {
	for i, n := range typeNames {
		if strings.EqualFold(name, n) {
			return Type(i), true
		}
	}
	return UNorm, false
}

// String returns the lowercase quality name used on the command line.
func (q Quality) String() string {
	switch q {
	case QualityLowest:
		return "lowest"
	case QualityLow:
		return "low"
	case QualityNormal:
		return "normal"
	case QualityHigh:
		return "high"
	case QualityHighest:
		return "highest"
	default:
		return "unknown"
	}
}

// ParseQuality looks up a quality preset by name, case-insensitively.
func ParseQuality(name string) (Quality, bool) {
	for _, q := range []Quality{QualityLowest, QualityLow, QualityNormal, QualityHigh,
		QualityHighest} {
		if strings.EqualFold(name, q.String()) {
			return q, true
		}
	}
	return QualityNormal, false
}

// String returns the lowercase alpha mode name used on the command line.
func (a Alpha) String() string {
	switch a {
	case AlphaNone:
		return "none"
	case AlphaStandard:
		return "standard"
	case AlphaPreMultiplied:
		return "pre-multiplied"
	case AlphaEncoded:
		return "encoded"
	default:
		return "unknown"
	}
}

// ParseAlpha looks up an alpha mode by name, case-insensitively.
func ParseAlpha(name string) (Alpha, bool) {
	for _, a := range []Alpha{AlphaNone, AlphaStandard, AlphaPreMultiplied, AlphaEncoded} {
		if strings.EqualFold(name, a.String()) {
			return a, true
		}
	}
	return AlphaStandard, false
}

var faceNames = map[string]CubeFace{
	"+x": PosX, "-x": NegX,
	"+y": PosY, "-y": NegY,
	"+z": PosZ, "-z": NegZ,
}

// ParseCubeFace looks up a cube face by its +x/-x style name.
func ParseCubeFace(name string) (CubeFace, bool) {
	f, ok := faceNames[strings.ToLower(name)]
	return f, ok
}

// String returns the +x/-x style face name.
func (f CubeFace) String() string {
	switch f {
	case PosX:
		return "+x"
	case NegX:
		return "-x"
	case PosY:
		return "+y"
	case NegY:
		return "-y"
	case PosZ:
		return "+z"
	case NegZ:
		return "-z"
	default:
		return "unknown"
	}
}
