package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/goopsie/texpack/pkg/colorspace"
)

func mustNew(t *testing.T, layout Layout, w, h int) *Image {
	t.Helper()
	img, err := New(layout, w, h, colorspace.Linear)
	if err != nil {
		t.Fatalf("New(%v, %d, %d) failed: %v", layout, w, h, err)
	}
	return img
}

func TestPixelRoundTrip(t *testing.T) {
	tests := []struct {
		layout Layout
		eps    float64
	}{
		{Gray8, 1.0 / 255},
		{Gray16, 1.0 / 65535},
		{RGB5, 1.0 / 31},
		{RGB565, 1.0 / 31},
		{RGB8, 1.0 / 255},
		{RGB16, 1.0 / 65535},
		{RGBF, 1e-6},
		{RGBA8, 1.0 / 255},
		{RGBA16, 1.0 / 65535},
		{RGBAF, 1e-6},
		{Float, 1e-6},
		{Double, 1e-12},
	}
	value := Color{R: 0.75, G: 0.75, B: 0.75, A: 1}
	for _, test := range tests {
		img := mustNew(t, test.layout, 4, 4)
		if err := img.SetPixel(1, 2, value, false); err != nil {
			t.Fatalf("%v: SetPixel failed: %v", test.layout, err)
		}
		got, err := img.GetPixel(1, 2)
		if err != nil {
			t.Fatalf("%v: GetPixel failed: %v", test.layout, err)
		}
		if math.Abs(got.R-value.R) > test.eps {
			t.Errorf("%v: red %v not within %v of %v", test.layout, got.R, test.eps, value.R)
		}
	}
}

func TestPixelOutOfRange(t *testing.T) {
	img := mustNew(t, RGBA8, 4, 4)
	if _, err := img.GetPixel(4, 0); err == nil {
		t.Error("expected failure for x out of range")
	}
	if _, err := img.GetPixel(0, 4); err == nil {
		t.Error("expected failure for y out of range")
	}
	if err := img.SetPixel(4, 4, Color{}, false); err == nil {
		t.Error("expected failure for out of range set")
	}
}

func TestSetPixelGrayscale(t *testing.T) {
	img := mustNew(t, Gray8, 1, 1)
	green := Color{G: 1, A: 1}
	if err := img.SetPixel(0, 0, green, true); err != nil {
		t.Fatal(err)
	}
	got, _ := img.GetPixel(0, 0)
	if math.Abs(got.R-0.7152) > 1.0/255 {
		t.Errorf("grayscale conversion expected 0.7152, got %v", got.R)
	}

	if err := img.SetPixel(0, 0, green, false); err != nil {
		t.Fatal(err)
	}
	got, _ = img.GetPixel(0, 0)
	if got.R != 0 {
		t.Errorf("verbatim red channel expected 0, got %v", got.R)
	}
}

func TestFlipInvolution(t *testing.T) {
	img := mustNew(t, RGBA8, 5, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			img.SetPixel(x, y, Color{R: float64(x) / 5, G: float64(y) / 3, A: 1}, false)
		}
	}
	orig := img.Clone()

	img.FlipHorizontal()
	img.FlipHorizontal()
	if !bytes.Equal(img.pix, orig.pix) {
		t.Error("two horizontal flips did not restore the image")
	}

	img.FlipVertical()
	img.FlipVertical()
	if !bytes.Equal(img.pix, orig.pix) {
		t.Error("two vertical flips did not restore the image")
	}
}

func TestRotateComposition(t *testing.T) {
	img := mustNew(t, RGBA8, 4, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.SetPixel(x, y, Color{R: float64(x) / 4, G: float64(y) / 2, A: 1}, false)
		}
	}

	once, err := img.Rotate(RotateCCW90)
	if err != nil {
		t.Fatal(err)
	}
	if once.Width() != 2 || once.Height() != 4 {
		t.Fatalf("CCW90 dimensions = %dx%d, expected 2x4", once.Width(), once.Height())
	}
	twice, err := once.Rotate(RotateCCW90)
	if err != nil {
		t.Fatal(err)
	}
	direct, err := img.Rotate(RotateCCW180)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(twice.pix, direct.pix) {
		t.Error("two CCW90 rotations != CCW180")
	}

	full := twice
	for i := 0; i < 2; i++ {
		full, err = full.Rotate(RotateCCW90)
		if err != nil {
			t.Fatal(err)
		}
	}
	if !bytes.Equal(full.pix, img.pix) {
		t.Error("four CCW90 rotations != identity")
	}
}

func TestSwizzleComposition(t *testing.T) {
	img := mustNew(t, RGBAF, 2, 2)
	img.SetPixel(0, 0, Color{R: 0.1, G: 0.2, B: 0.3, A: 0.4}, false)

	// (B, R, G, A) then (G, B, R, A) restores the original ordering.
	if err := img.Swizzle(ChannelB, ChannelR, ChannelG, ChannelA); err != nil {
		t.Fatal(err)
	}
	if err := img.Swizzle(ChannelG, ChannelB, ChannelR, ChannelA); err != nil {
		t.Fatal(err)
	}
	got, _ := img.GetPixel(0, 0)
	expected := Color{R: 0.1, G: 0.2, B: 0.3, A: 0.4}
	if math.Abs(got.R-expected.R) > 1e-6 || math.Abs(got.G-expected.G) > 1e-6 ||
		math.Abs(got.B-expected.B) > 1e-6 || math.Abs(got.A-expected.A) > 1e-6 {
		t.Errorf("swizzle composition got %+v, expected %+v", got, expected)
	}
}

func TestSwizzleNone(t *testing.T) {
	img := mustNew(t, RGBAF, 1, 1)
	img.SetPixel(0, 0, Color{R: 0.5, G: 0.5, B: 0.5, A: 0.5}, false)
	if err := img.Swizzle(ChannelNone, ChannelNone, ChannelNone, ChannelNone); err != nil {
		t.Fatal(err)
	}
	got, _ := img.GetPixel(0, 0)
	if got.R != 0 || got.G != 0 || got.B != 0 || got.A != 1 {
		t.Errorf("none swizzle got %+v, expected zero color and opaque alpha", got)
	}
}

func TestResizeIdentity(t *testing.T) {
	img := mustNew(t, RGBA8, 7, 5)
	for y := 0; y < 5; y++ {
		for x := 0; x < 7; x++ {
			img.SetPixel(x, y, Color{R: float64(x*y) / 28, A: 1}, false)
		}
	}
	same, err := img.Resize(7, 5, FilterCubic)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(same.pix, img.pix) {
		t.Error("resize to identical dimensions should be a bitwise copy")
	}
}

func TestResizeHalf(t *testing.T) {
	img := mustNew(t, RGBAF, 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetPixel(x, y, Color{R: 0.5, G: 0.25, B: 1, A: 1}, false)
		}
	}
	small, err := img.Resize(2, 2, FilterBox)
	if err != nil {
		t.Fatal(err)
	}
	if small.Width() != 2 || small.Height() != 2 {
		t.Fatalf("resized to %dx%d, expected 2x2", small.Width(), small.Height())
	}
	got, _ := small.GetPixel(0, 0)
	if math.Abs(got.R-0.5) > 1e-6 || math.Abs(got.G-0.25) > 1e-6 || math.Abs(got.B-1) > 1e-6 {
		t.Errorf("constant image should stay constant after resize, got %+v", got)
	}
}

func TestResizeFallbackFilters(t *testing.T) {
	img := mustNew(t, Double, 4, 4)
	if _, err := img.Resize(2, 2, FilterCubic); err == nil {
		t.Error("cubic resize of Double should fail")
	}
	if _, err := img.Resize(2, 2, FilterBox); err != nil {
		t.Errorf("box resize of Double should succeed: %v", err)
	}
	if _, err := img.Resize(2, 2, FilterLinear); err != nil {
		t.Errorf("linear resize of Double should succeed: %v", err)
	}
}

func TestConvertClone(t *testing.T) {
	img := mustNew(t, RGBA8, 3, 3)
	img.SetPixel(1, 1, Color{R: 1, A: 1}, false)
	dup, err := img.Convert(RGBA8, false)
	if err != nil {
		t.Fatal(err)
	}
	dup.SetPixel(1, 1, Color{G: 1, A: 1}, false)
	got, _ := img.GetPixel(1, 1)
	if got.R != 1 {
		t.Error("convert to the same layout must deep copy")
	}
}

func TestConvertHDRUnclamped(t *testing.T) {
	img := mustNew(t, RGBF, 1, 1)
	dst := img.FloatScanline(0)
	dst[0] = 4.5
	dst[1] = -2
	dst[2] = 0.5

	out, err := img.Convert(RGBAF, false)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := out.GetPixel(0, 0)
	if got.R != 4.5 || got.G != -2 {
		t.Errorf("float to float conversion clamped HDR values: %+v", got)
	}
}

func TestConvertComplexNeverGrayscales(t *testing.T) {
	img := mustNew(t, Complex, 1, 1)
	img.SetPixel(0, 0, Color{R: 3, G: 4}, false)
	out, err := img.Convert(Double, true)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := out.GetPixel(0, 0)
	if got.R != 3 {
		t.Errorf("complex conversion should take the real component, got %v", got.R)
	}
}

func TestPreMultiplyAlpha(t *testing.T) {
	img := mustNew(t, RGBAF, 1, 1)
	img.SetPixel(0, 0, Color{R: 1, G: 0.5, B: 0.25, A: 0.5}, false)
	if err := img.PreMultiplyAlpha(); err != nil {
		t.Fatal(err)
	}
	got, _ := img.GetPixel(0, 0)
	if math.Abs(got.R-0.5) > 1e-6 || math.Abs(got.G-0.25) > 1e-6 ||
		math.Abs(got.B-0.125) > 1e-6 || got.A != 0.5 {
		t.Errorf("premultiply got %+v", got)
	}
}

func TestPreMultiplyAlphaUnsupportedLayout(t *testing.T) {
	img := mustNew(t, RGB8, 2, 2)
	img.SetPixel(0, 0, Color{R: 1, G: 1, B: 1, A: 1}, false)
	if err := img.PreMultiplyAlpha(); err != nil {
		t.Errorf("premultiply on RGB8 should be a no-op success, got %v", err)
	}
	got, _ := img.GetPixel(0, 0)
	if got.R != 1 {
		t.Error("premultiply on RGB8 should not modify pixels")
	}
}

func TestChangeColorSpace(t *testing.T) {
	img := mustNew(t, RGBAF, 1, 1)
	img.SetPixel(0, 0, Color{R: 0.5, G: 0.5, B: 0.5, A: 0.25}, false)
	if err := img.ChangeColorSpace(colorspace.SRGB); err != nil {
		t.Fatal(err)
	}
	got, _ := img.GetPixel(0, 0)
	expected := colorspace.LinearToSRGB(0.5)
	if math.Abs(got.R-expected) > 1e-6 {
		t.Errorf("sRGB encode got %v, expected %v", got.R, expected)
	}
	if math.Abs(got.A-0.25) > 1e-6 {
		t.Error("alpha must not be affected by color space changes")
	}

	if err := img.ChangeColorSpace(colorspace.Linear); err != nil {
		t.Fatal(err)
	}
	got, _ = img.GetPixel(0, 0)
	if math.Abs(got.R-0.5) > 1e-6 {
		t.Errorf("round trip through sRGB got %v, expected 0.5", got.R)
	}
}

func TestGrayscaleOp(t *testing.T) {
	img := mustNew(t, RGBAF, 1, 1)
	img.SetPixel(0, 0, Color{R: 1, G: 0, B: 0, A: 1}, false)
	if err := img.Grayscale(); err != nil {
		t.Fatal(err)
	}
	got, _ := img.GetPixel(0, 0)
	if math.Abs(got.R-0.2126) > 1e-6 || got.R != got.G || got.G != got.B {
		t.Errorf("grayscale got %+v", got)
	}
}

func TestNormalMapFlat(t *testing.T) {
	img := mustNew(t, Float, 4, 4)
	normals, err := img.CreateNormalMap(NormalDefault, 1, RGBAF)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := normals.GetPixel(2, 2)
	// A flat height field produces straight-up normals, remapped to [0, 1].
	if math.Abs(got.R-0.5) > 1e-6 || math.Abs(got.G-0.5) > 1e-6 || math.Abs(got.B-1) > 1e-6 {
		t.Errorf("flat normal map got %+v", got)
	}
}

func TestNormalMapKeepSign(t *testing.T) {
	img := mustNew(t, Float, 4, 4)
	normals, err := img.CreateNormalMap(NormalKeepSign, 1, RGBAF)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := normals.GetPixel(1, 1)
	if math.Abs(got.R) > 1e-6 || math.Abs(got.G) > 1e-6 || math.Abs(got.B-1) > 1e-6 {
		t.Errorf("flat signed normal map got %+v", got)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	// Scenario: build a 10x15 RGBA PNG, save through a buffer, reload.
	src := image.NewNRGBA(image.Rect(0, 0, 10, 15))
	for y := 0; y < 15; y++ {
		for x := 0; x < 10; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 20), G: uint8(y * 10), B: 0x80,
				A: 0xFF})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	img := &Image{}
	if err := img.LoadBytes(buf.Bytes(), colorspace.SRGB); err != nil {
		t.Fatal(err)
	}
	if img.Layout() != RGBA8 {
		t.Errorf("loaded layout = %v, expected RGBA8", img.Layout())
	}
	if img.Width() != 10 || img.Height() != 15 {
		t.Errorf("loaded %dx%d, expected 10x15", img.Width(), img.Height())
	}

	saved, err := img.SaveBytes("png")
	if err != nil {
		t.Fatal(err)
	}
	reloaded := &Image{}
	if err := reloaded.LoadBytes(saved, colorspace.SRGB); err != nil {
		t.Fatal(err)
	}
	if reloaded.Width() != 10 || reloaded.Height() != 15 {
		t.Errorf("reloaded %dx%d, expected 10x15", reloaded.Width(), reloaded.Height())
	}
	orig, _ := img.GetPixel(0, 0)
	got, _ := reloaded.GetPixel(0, 0)
	if orig != got {
		t.Errorf("pixel (0,0) changed across the round trip: %+v vs %+v", orig, got)
	}
}

func TestSaveUnknownFormat(t *testing.T) {
	img := mustNew(t, RGBA8, 2, 2)
	if _, err := img.SaveBytes("xpm"); err == nil {
		t.Error("saving an unknown format key should fail")
	}
}

func TestLoadGarbage(t *testing.T) {
	img := &Image{}
	if err := img.LoadBytes([]byte("not an image"), colorspace.Linear); err == nil {
		t.Error("loading unrecognized bytes should fail")
	}
	if img.IsValid() {
		t.Error("failed load must leave the image invalid")
	}
}
