package format

import "testing"

func TestValidMatrix(t *testing.T) {
	tests := []struct {
		format   Format
		typ      Type
		expected bool
	}{
		{R4G4, UNorm, true},
		{R4G4, SNorm, false},
		{R8, UNorm, true},
		{R8, SNorm, true},
		{R8, UInt, true},
		{R8, Int, true},
		{R8, Float, false},
		{R16, Float, true},
		{R16, UFloat, false},
		{R32, UNorm, false},
		{R32, Float, true},
		{B10G11R11UFloat, UFloat, true},
		{B10G11R11UFloat, Float, false},
		{E5B9G9R9UFloat, UFloat, true},
		{BC1RGB, UNorm, true},
		{BC1RGB, SNorm, false},
		{BC4, SNorm, true},
		{BC5, SNorm, true},
		{BC6H, UFloat, true},
		{BC6H, Float, true},
		{BC6H, UNorm, false},
		{BC7, UNorm, true},
		{ETC1, UNorm, true},
		{EACR11, SNorm, true},
		{EACR11, UInt, false},
		{ASTC4x4, UNorm, true},
		{ASTC4x4, UFloat, true},
		{ASTC4x4, Float, false},
		{PVRTC1RGB2BPP, UNorm, true},
		{PVRTC2RGBA4BPP, SNorm, false},
		{Unknown, UNorm, false},
	}
	for _, test := range tests {
		if got := Valid(test.format, test.typ); got != test.expected {
			t.Errorf("Valid(%v, %v) = %v, expected %v", test.format, test.typ, got,
				test.expected)
		}
	}
}

func TestBlockDimensions(t *testing.T) {
	tests := []struct {
		format                         Format
		width, height, size, minW, minH int
	}{
		{R8, 1, 1, 1, 1, 1},
		{R8G8B8A8, 1, 1, 4, 1, 1},
		{R32G32B32A32, 1, 1, 16, 1, 1},
		{BC1RGB, 4, 4, 8, 4, 4},
		{BC3, 4, 4, 16, 4, 4},
		{BC6H, 4, 4, 16, 4, 4},
		{ETC2R8G8B8A8, 4, 4, 16, 4, 4},
		{EACR11, 4, 4, 8, 4, 4},
		{ASTC5x4, 5, 4, 16, 5, 4},
		{ASTC12x12, 12, 12, 16, 12, 12},
		{PVRTC1RGB2BPP, 8, 4, 8, 16, 8},
		{PVRTC1RGBA4BPP, 4, 4, 8, 8, 8},
		{PVRTC2RGBA2BPP, 8, 4, 8, 16, 8},
	}
	for _, test := range tests {
		if got := BlockWidth(test.format); got != test.width {
			t.Errorf("BlockWidth(%v) = %d, expected %d", test.format, got, test.width)
		}
		if got := BlockHeight(test.format); got != test.height {
			t.Errorf("BlockHeight(%v) = %d, expected %d", test.format, got, test.height)
		}
		if got := BlockSize(test.format); got != test.size {
			t.Errorf("BlockSize(%v) = %d, expected %d", test.format, got, test.size)
		}
		if got := MinWidth(test.format); got != test.minW {
			t.Errorf("MinWidth(%v) = %d, expected %d", test.format, got, test.minW)
		}
		if got := MinHeight(test.format); got != test.minH {
			t.Errorf("MinHeight(%v) = %d, expected %d", test.format, got, test.minH)
		}
	}
}

func TestHasAlpha(t *testing.T) {
	withAlpha := []Format{R4G4B4A4, R5G5B5A1, A1R5G5B5, R8G8B8A8, A2B10G10R10,
		R16G16B16A16, R32G32B32A32, BC1RGBA, BC2, BC3, BC7, ETC2R8G8B8A1, ETC2R8G8B8A8,
		ASTC4x4, ASTC12x12, PVRTC1RGBA2BPP, PVRTC2RGBA4BPP}
	withoutAlpha := []Format{R4G4, R5G6B5, R8, R8G8B8, R16G16B16, R32G32B32,
		B10G11R11UFloat, E5B9G9R9UFloat, BC1RGB, BC4, BC5, BC6H, ETC1, EACR11,
		PVRTC1RGB2BPP}
	for _, f := range withAlpha {
		if !HasAlpha(f) {
			t.Errorf("HasAlpha(%v) = false, expected true", f)
		}
	}
	for _, f := range withoutAlpha {
		if HasAlpha(f) {
			t.Errorf("HasAlpha(%v) = true, expected false", f)
		}
	}
}

func TestHasNativeSRGB(t *testing.T) {
	if !HasNativeSRGB(R8G8B8A8, UNorm) {
		t.Error("R8G8B8A8/UNorm should support sRGB")
	}
	if HasNativeSRGB(R8G8B8A8, UInt) {
		t.Error("R8G8B8A8/UInt should not support sRGB")
	}
	if !HasNativeSRGB(BC7, UNorm) {
		t.Error("BC7/UNorm should support sRGB")
	}
	if HasNativeSRGB(R16G16B16A16, UNorm) {
		t.Error("R16G16B16A16 should not support sRGB")
	}
	if HasNativeSRGB(BC6H, UFloat) {
		t.Error("BC6H should not support sRGB")
	}
}

func TestMaxMipmapLevels(t *testing.T) {
	tests := []struct {
		dim                   Dimension
		width, height, depth  int
		expected              int
	}{
		{Dim2D, 1, 1, 0, 1},
		{Dim2D, 15, 10, 0, 4},
		{Dim2D, 16, 16, 0, 5},
		{Dim2D, 32, 8, 0, 6},
		{Dim3D, 8, 8, 32, 6},
		{Dim2D, 8, 8, 32, 4},
		{Cube, 256, 256, 0, 9},
	}
	for _, test := range tests {
		got := MaxMipmapLevels(test.dim, test.width, test.height, test.depth)
		if got != test.expected {
			t.Errorf("MaxMipmapLevels(%v, %d, %d, %d) = %d, expected %d", test.dim,
				test.width, test.height, test.depth, got, test.expected)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, ok := ParseFormat("bc1_rgb"); !ok || f != BC1RGB {
		t.Errorf("ParseFormat(bc1_rgb) = %v, %v", f, ok)
	}
	if f, ok := ParseFormat("ASTC_4x4"); !ok || f != ASTC4x4 {
		t.Errorf("ParseFormat(ASTC_4x4) = %v, %v", f, ok)
	}
	if _, ok := ParseFormat("nope"); ok {
		t.Error("ParseFormat(nope) should fail")
	}
	if _, ok := ParseFormat("unknown"); ok {
		t.Error("ParseFormat(unknown) should fail")
	}
}

func TestParseType(t *testing.T) {
	if typ, ok := ParseType("snorm"); !ok || typ != SNorm {
		t.Errorf("ParseType(snorm) = %v, %v", typ, ok)
	}
	if _, ok := ParseType("half"); ok {
		t.Error("ParseType(half) should fail")
	}
}

func TestRoundTripNames(t *testing.T) {
	for _, name := range FormatNames() {
		f, ok := ParseFormat(name)
		if !ok {
			t.Errorf("ParseFormat(%s) failed", name)
			continue
		}
		if f.String() != name {
			t.Errorf("name round trip failed: %s -> %v -> %s", name, f, f.String())
		}
	}
}
