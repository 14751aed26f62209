package texture

import (
	"testing"

	"github.com/goopsie/texpack/pkg/colorspace"
	"github.com/goopsie/texpack/pkg/format"
	"github.com/goopsie/texpack/pkg/raster"
)

func solidImage(t *testing.T, width, height int, c raster.Color) *raster.Image {
	t.Helper()
	img, err := raster.New(raster.RGBAF, width, height, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if err := img.SetPixel(x, y, c, false); err != nil {
				t.Fatal(err)
			}
		}
	}
	return img
}

var (
	red   = raster.Color{R: 1, A: 1}
	green = raster.Color{G: 1, A: 1}
	blue  = raster.Color{B: 1, A: 1}
)

func colorAt(t *testing.T, img *raster.Image, x, y int) raster.Color {
	t.Helper()
	if img == nil {
		t.Fatal("image missing")
	}
	c, err := img.GetPixel(x, y)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestMipLevelDimensions(t *testing.T) {
	// Scenario: 15x10 with a full chain has 4 levels of 15x10, 7x5, 3x2, 1x1.
	tex, err := New(format.Dim2D, 15, 10, 0, 100, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	if err := tex.SetImage(solidImage(t, 15, 10, red), format.PosX, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := tex.GenerateMipmaps(raster.FilterBox, 100, nil); err != nil {
		t.Fatal(err)
	}
	if tex.MipLevelCount() != 4 {
		t.Fatalf("mip level count = %d, expected 4", tex.MipLevelCount())
	}
	dims := [][2]int{{15, 10}, {7, 5}, {3, 2}, {1, 1}}
	for level, d := range dims {
		if tex.Width(level) != d[0] || tex.Height(level) != d[1] {
			t.Errorf("level %d is %dx%d, expected %dx%d", level, tex.Width(level),
				tex.Height(level), d[0], d[1])
		}
	}
	if !tex.ImagesComplete() {
		t.Error("all levels should be populated after mipmap generation")
	}
}

func TestCustomMips2D(t *testing.T) {
	// Scenario: red base, green level 1 (continue), blue level 2 (once), red
	// level 3 (once). The chain reads green, blue, red, green, green.
	tex, err := New(format.Dim2D, 32, 32, 0, 100, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	if err := tex.SetImage(solidImage(t, 32, 32, red), format.PosX, 0, 0); err != nil {
		t.Fatal(err)
	}
	custom := CustomMips{
		{Mip: 1}: {Image: solidImage(t, 16, 16, green), Replacement: ReplaceContinue},
		{Mip: 2}: {Image: solidImage(t, 8, 8, blue), Replacement: ReplaceOnce},
		{Mip: 3}: {Image: solidImage(t, 4, 4, red), Replacement: ReplaceOnce},
	}
	if err := tex.GenerateMipmaps(raster.FilterBox, 100, custom); err != nil {
		t.Fatal(err)
	}
	if tex.MipLevelCount() != 6 {
		t.Fatalf("mip level count = %d, expected 6", tex.MipLevelCount())
	}

	expected := []raster.Color{red, green, blue, red, green, green}
	for level := 1; level < 6; level++ {
		got := colorAt(t, tex.GetImage(format.PosX, level, 0), 0, 0)
		want := expected[level]
		if !closeColor(got, want) {
			t.Errorf("level %d pixel (0,0) = %+v, expected %+v", level, got, want)
		}
	}
}

func TestCustomMips3D(t *testing.T) {
	tex, err := New(format.Dim3D, 32, 32, 32, 100, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	for d := 0; d < 32; d++ {
		if err := tex.SetImage(solidImage(t, 32, 32, red), format.PosX, 0, d); err != nil {
			t.Fatal(err)
		}
	}
	custom := CustomMips{}
	addLevel := func(mip, depth int, c raster.Color, replacement MipReplacement) {
		size := 32 >> uint(mip)
		for d := 0; d < depth; d++ {
			custom[ImageIndex{Mip: mip, Depth: d}] = CustomMip{
				Image:       solidImage(t, size, size, c),
				Replacement: replacement,
			}
		}
	}
	addLevel(1, 16, green, ReplaceContinue)
	addLevel(2, 8, blue, ReplaceOnce)
	addLevel(3, 4, red, ReplaceOnce)

	if err := tex.GenerateMipmaps(raster.FilterBox, 100, custom); err != nil {
		t.Fatal(err)
	}
	if tex.MipLevelCount() != 6 {
		t.Fatalf("mip level count = %d, expected 6", tex.MipLevelCount())
	}

	expected := []raster.Color{red, green, blue, red, green, green}
	for level := 1; level < 6; level++ {
		for d := 0; d < tex.Depth(level); d++ {
			got := colorAt(t, tex.GetImage(format.PosX, level, d), 0, 0)
			if !closeColor(got, expected[level]) {
				t.Errorf("level %d depth %d = %+v, expected %+v", level, d, got,
					expected[level])
			}
		}
	}
}

func TestCustomMips3DInconsistent(t *testing.T) {
	tex, err := New(format.Dim3D, 8, 8, 8, 100, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	for d := 0; d < 8; d++ {
		if err := tex.SetImage(solidImage(t, 8, 8, red), format.PosX, 0, d); err != nil {
			t.Fatal(err)
		}
	}
	// Only one depth of level 1 is overridden.
	custom := CustomMips{
		{Mip: 1, Depth: 0}: {Image: solidImage(t, 4, 4, green)},
	}
	if err := tex.GenerateMipmaps(raster.FilterBox, 100, custom); err == nil {
		t.Error("partial 3D custom mip coverage should fail")
	}
}

func closeColor(a, b raster.Color) bool {
	const eps = 1e-4
	abs := func(v float64) float64 {
		if v < 0 {
			return -v
		}
		return v
	}
	return abs(a.R-b.R) < eps && abs(a.G-b.G) < eps && abs(a.B-b.B) < eps &&
		abs(a.A-b.A) < eps
}

func TestConvertBC1PayloadSize(t *testing.T) {
	tex, err := New(format.Dim2D, 16, 16, 0, 1, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	if err := tex.SetImage(solidImage(t, 16, 16, red), format.PosX, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := tex.Convert(format.BC1RGB, format.UNorm, format.QualityNormal,
		format.AlphaStandard, format.AllChannels(), 1); err != nil {
		t.Fatal(err)
	}
	if size := tex.DataSize(format.PosX, 0, 0); size != 128 {
		t.Errorf("BC1 16x16 payload = %d bytes, expected 128", size)
	}
}

func TestConvertInvalidType(t *testing.T) {
	tex, err := New(format.Dim2D, 8, 8, 0, 1, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	if err := tex.SetImage(solidImage(t, 8, 8, red), format.PosX, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := tex.Convert(format.BC1RGB, format.Float, format.QualityNormal,
		format.AlphaStandard, format.AllChannels(), 1); err == nil {
		t.Error("BC1/Float should be rejected")
	}
	if tex.Format() != format.Unknown {
		t.Error("failed conversion must leave the format Unknown")
	}
	if tex.Converted() {
		t.Error("failed conversion must not leave a payload")
	}
}

func TestConvertSRGBRequiresNativeFormat(t *testing.T) {
	tex, err := New(format.Dim2D, 8, 8, 0, 1, colorspace.SRGB)
	if err != nil {
		t.Fatal(err)
	}
	img := solidImage(t, 8, 8, red)
	if err := tex.SetImage(img, format.PosX, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := tex.Convert(format.R16G16B16A16, format.UNorm, format.QualityNormal,
		format.AlphaStandard, format.AllChannels(), 1); err == nil {
		t.Error("sRGB with a non-sRGB-capable format should be rejected")
	}
	if err := tex.Convert(format.R8G8B8A8, format.UNorm, format.QualityNormal,
		format.AlphaStandard, format.AllChannels(), 1); err != nil {
		t.Errorf("sRGB R8G8B8A8 should convert: %v", err)
	}
}

func TestConvertMissingImages(t *testing.T) {
	tex, err := New(format.Dim2D, 8, 8, 0, 4, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	if err := tex.SetImage(solidImage(t, 8, 8, red), format.PosX, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := tex.Convert(format.R8G8B8A8, format.UNorm, format.QualityNormal,
		format.AlphaStandard, format.AllChannels(), 1); err == nil {
		t.Error("conversion with missing mip images should fail")
	}
}

func TestSetImageValidation(t *testing.T) {
	tex, err := New(format.Dim2D, 8, 8, 0, 1, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	if err := tex.SetImage(solidImage(t, 4, 4, red), format.PosX, 0, 0); err == nil {
		t.Error("mismatched dimensions should fail")
	}
	if err := tex.SetImage(solidImage(t, 8, 8, red), format.NegY, 0, 0); err == nil {
		t.Error("cube faces are invalid on 2D textures")
	}
	if err := tex.SetImage(solidImage(t, 8, 8, red), format.PosX, 0, 1); err == nil {
		t.Error("depth out of range should fail")
	}

	cube, err := New(format.Cube, 8, 8, 0, 1, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	if err := cube.SetImage(solidImage(t, 8, 8, red), format.NegZ, 0, 0); err != nil {
		t.Errorf("cube faces should be accepted: %v", err)
	}
	if cube.FaceCount() != 6 {
		t.Errorf("cube face count = %d, expected 6", cube.FaceCount())
	}
}

func TestSetImageConvertsColorSpace(t *testing.T) {
	tex, err := New(format.Dim2D, 1, 1, 0, 1, colorspace.SRGB)
	if err != nil {
		t.Fatal(err)
	}
	img := solidImage(t, 1, 1, raster.Color{R: 0.5, A: 1})
	if err := tex.SetImage(img, format.PosX, 0, 0); err != nil {
		t.Fatal(err)
	}
	stored := tex.GetImage(format.PosX, 0, 0)
	if stored.ColorSpace() != colorspace.SRGB {
		t.Error("stored image should carry the texture's color space")
	}
	got := colorAt(t, stored, 0, 0)
	expected := colorspace.LinearToSRGB(0.5)
	if !closeColor(got, raster.Color{R: expected, A: 1}) {
		t.Errorf("stored pixel = %+v, expected sRGB-encoded red %v", got, expected)
	}
}

func TestContainerValidity(t *testing.T) {
	// Scenario: BC1 saves everywhere, R4G4 saves in DDS but not KTX.
	if !ValidForDDS(format.BC1RGB, format.UNorm) {
		t.Error("BC1 should be valid for DDS")
	}
	if !ValidForKTX(format.BC1RGB, format.UNorm) {
		t.Error("BC1 should be valid for KTX")
	}
	if !ValidForPVR(format.BC1RGB, format.UNorm) {
		t.Error("BC1 should be valid for PVR")
	}
	if !ValidForDDS(format.R4G4, format.UNorm) {
		t.Error("R4G4 should be valid for DDS")
	}
	if ValidForKTX(format.R4G4, format.UNorm) {
		t.Error("R4G4 should not be valid for KTX")
	}
	if ValidForDDS(format.ETC2R8G8B8, format.UNorm) {
		t.Error("ETC2 should not be valid for DDS")
	}
	if ValidForDDS(format.R5G5B5A1, format.UNorm) {
		t.Error("R5G5B5A1 should not be valid for DDS")
	}
	if !ValidForKTX(format.R5G5B5A1, format.UNorm) {
		t.Error("R5G5B5A1 should be valid for KTX")
	}
}

func TestAdjustImageValueRangeSNorm(t *testing.T) {
	img := solidImage(t, 2, 2, raster.Color{R: 1, G: 0.5, B: 0, A: 1})
	out, err := AdjustImageValueRange(img, format.SNorm, raster.RGBA8)
	if err != nil {
		t.Fatal(err)
	}
	got := colorAt(t, out, 0, 0)
	if !closeColor(got, raster.Color{R: 1, G: 0, B: -1, A: 1}) {
		t.Errorf("SNorm remap = %+v, expected {1, 0, -1, 1}", got)
	}
}

func TestAdjustImageValueRangeUInt(t *testing.T) {
	img := solidImage(t, 1, 1, raster.Color{R: 1, G: 0.5, B: 0, A: 1})
	out, err := AdjustImageValueRange(img, format.UInt, raster.RGBA8)
	if err != nil {
		t.Fatal(err)
	}
	got := colorAt(t, out, 0, 0)
	// GetPixel reports raw float values for RGBAF.
	if got.R != 255 || got.G != 128 || got.B != 0 {
		t.Errorf("UInt remap = %+v, expected {255, 128, 0}", got)
	}
}

func TestAdjustImageValueRangeUNormUntouched(t *testing.T) {
	img := solidImage(t, 1, 1, raster.Color{R: 0.5, A: 1})
	out, err := AdjustImageValueRange(img, format.UNorm, raster.RGBA8)
	if err != nil {
		t.Fatal(err)
	}
	got := colorAt(t, out, 0, 0)
	if !closeColor(got, raster.Color{R: 0.5, A: 1}) {
		t.Errorf("UNorm must not remap, got %+v", got)
	}
}
