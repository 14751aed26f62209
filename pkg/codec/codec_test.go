package codec

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/goopsie/texpack/pkg/colorspace"
	"github.com/goopsie/texpack/pkg/format"
	"github.com/goopsie/texpack/pkg/raster"
)

func testImage(t *testing.T, width, height int) *raster.Image {
	t.Helper()
	img, err := raster.New(raster.RGBAF, width, height, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < height; y++ {
		row := img.FloatScanline(y)
		for x := 0; x < width; x++ {
			row[x*4] = float32(x) / float32(width)
			row[x*4+1] = float32(y) / float32(height)
			row[x*4+2] = 0.25
			row[x*4+3] = 1
		}
	}
	return img
}

func defaultParams(f format.Format, typ format.Type) Params {
	return Params{
		Format:  f,
		Type:    typ,
		Quality: format.QualityNormal,
		Alpha:   format.AlphaStandard,
		Mask:    format.AllChannels(),
	}
}

func TestBlockPartition(t *testing.T) {
	compressed := []format.Format{
		format.BC1RGB, format.BC1RGBA, format.BC2, format.BC3, format.BC4, format.BC5,
		format.BC7, format.ETC1, format.ETC2R8G8B8, format.ETC2R8G8B8A1,
		format.ETC2R8G8B8A8, format.EACR11, format.EACR11G11,
		format.ASTC4x4, format.ASTC5x4, format.ASTC6x6, format.ASTC8x8,
		format.ASTC10x10, format.ASTC12x12,
	}
	img := testImage(t, 17, 13)
	for _, f := range compressed {
		encoder := newEncoder(defaultParams(f, format.UNorm), img)
		if encoder == nil {
			t.Errorf("no encoder for %v/unorm", f)
			continue
		}
		blockW := format.BlockWidth(f)
		blockH := format.BlockHeight(f)
		if encoder.JobsX()*blockW < img.Width() {
			t.Errorf("%v: jobsX %d * blockW %d < width %d", f, encoder.JobsX(), blockW,
				img.Width())
		}
		if encoder.JobsY()*blockH < img.Height() {
			t.Errorf("%v: jobsY %d * blockH %d < height %d", f, encoder.JobsY(), blockH,
				img.Height())
		}
		runJobs(encoder, 1)
		expected := encoder.JobsX() * encoder.JobsY() * format.BlockSize(f)
		if len(encoder.Data()) != expected {
			t.Errorf("%v: payload %d bytes, expected %d", f, len(encoder.Data()), expected)
		}
	}
}

func TestBC1PayloadSize(t *testing.T) {
	img := testImage(t, 16, 16)
	out, ok := Convert(defaultParams(format.BC1RGB, format.UNorm),
		[][][]*raster.Image{{{img}}}, 1)
	if !ok {
		t.Fatal("conversion failed")
	}
	if len(out[0][0][0]) != 128 {
		t.Errorf("16x16 BC1 payload = %d bytes, expected 128", len(out[0][0][0]))
	}
}

func TestConvertInvalidPair(t *testing.T) {
	img := testImage(t, 8, 8)
	if _, ok := Convert(defaultParams(format.BC1RGB, format.Float),
		[][][]*raster.Image{{{img}}}, 1); ok {
		t.Error("BC1/Float should not convert")
	}
}

func TestConvertReleasesImages(t *testing.T) {
	img := testImage(t, 8, 8)
	if _, ok := Convert(defaultParams(format.R8G8B8A8, format.UNorm),
		[][][]*raster.Image{{{img}}}, 1); !ok {
		t.Fatal("conversion failed")
	}
	if img.IsValid() {
		t.Error("source image should be released after its slot completes")
	}
}

func TestDispatcherDeterminism(t *testing.T) {
	formats := []struct {
		f   format.Format
		typ format.Type
	}{
		{format.R8G8B8A8, format.UNorm},
		{format.R16G16B16A16, format.Float},
		{format.BC1RGB, format.UNorm},
		{format.BC3, format.UNorm},
		{format.BC7, format.UNorm},
		{format.ETC2R8G8B8A8, format.UNorm},
		{format.ASTC4x4, format.UNorm},
	}
	for _, tf := range formats {
		var results [][]byte
		for _, threads := range []uint{1, 2, 7} {
			img := testImage(t, 33, 29)
			out, ok := Convert(defaultParams(tf.f, tf.typ), [][][]*raster.Image{{{img}}},
				threads)
			if !ok {
				t.Fatalf("%v/%v conversion failed", tf.f, tf.typ)
			}
			results = append(results, out[0][0][0])
		}
		if !bytes.Equal(results[0], results[1]) || !bytes.Equal(results[1], results[2]) {
			t.Errorf("%v/%v output depends on thread count", tf.f, tf.typ)
		}
	}
}

func TestUNorm8Encoding(t *testing.T) {
	img, _ := raster.New(raster.RGBAF, 2, 1, colorspace.Linear)
	row := img.FloatScanline(0)
	copy(row, []float32{0, 0.5, 1, 1, 1, 0, 0, 0.5})

	encoder := newEncoder(defaultParams(format.R8G8B8A8, format.UNorm), img)
	runJobs(encoder, 1)
	data := encoder.Data()
	expected := []byte{0, 128, 255, 255, 255, 0, 0, 128}
	if !bytes.Equal(data, expected) {
		t.Errorf("R8G8B8A8 unorm = %v, expected %v", data, expected)
	}
}

func TestSNorm8Encoding(t *testing.T) {
	img, _ := raster.New(raster.RGBAF, 1, 1, colorspace.Linear)
	row := img.FloatScanline(0)
	copy(row, []float32{-1, 0, 1, 0.5})

	encoder := newEncoder(defaultParams(format.R8G8B8A8, format.SNorm), img)
	runJobs(encoder, 1)
	data := encoder.Data()
	if int8(data[0]) != -127 || data[1] != 0 || int8(data[2]) != 127 {
		t.Errorf("R8G8B8A8 snorm = %v", data)
	}
}

func TestR5G6B5BlueFromAlpha(t *testing.T) {
	// The 565 packers read the alpha channel for the blue component.
	img, _ := raster.New(raster.RGBAF, 1, 1, colorspace.Linear)
	row := img.FloatScanline(0)
	copy(row, []float32{0, 0, 1, 1})

	encoder := newEncoder(defaultParams(format.R5G6B5, format.UNorm), img)
	runJobs(encoder, 1)
	packed := binary.LittleEndian.Uint16(encoder.Data())
	if packed&0x1F != 0x1F {
		t.Errorf("blue bits should come from alpha: packed = %04x", packed)
	}
	if packed>>11 != 0 {
		t.Errorf("red bits should be zero: packed = %04x", packed)
	}
}

func TestR4G4Encoding(t *testing.T) {
	img, _ := raster.New(raster.RGBAF, 1, 1, colorspace.Linear)
	row := img.FloatScanline(0)
	copy(row, []float32{1, 0.5, 0, 0})

	encoder := newEncoder(defaultParams(format.R4G4, format.UNorm), img)
	runJobs(encoder, 1)
	data := encoder.Data()
	if data[0] != 0xF8 {
		t.Errorf("R4G4 = %02x, expected f8", data[0])
	}
}

func TestFloat11Packing(t *testing.T) {
	if got := float11(0); got != 0 {
		t.Errorf("float11(0) = %x", got)
	}
	// 1.0 has exponent 15 and zero mantissa.
	if got := float11(1); got != 15<<6 {
		t.Errorf("float11(1) = %x, expected %x", got, 15<<6)
	}
	if got := float11(-5); got != 0 {
		t.Errorf("negative values clamp to zero, got %x", got)
	}
	if got := float10(1); got != 15<<5 {
		t.Errorf("float10(1) = %x, expected %x", got, 15<<5)
	}
}

func TestE5B9G9R9Encoding(t *testing.T) {
	img, _ := raster.New(raster.RGBAF, 1, 1, colorspace.Linear)
	row := img.FloatScanline(0)
	copy(row, []float32{1, 1, 1, 1})

	encoder := newEncoder(defaultParams(format.E5B9G9R9UFloat, format.UFloat), img)
	runJobs(encoder, 1)
	packed := binary.LittleEndian.Uint32(encoder.Data())
	r := packed & 0x1FF
	g := packed >> 9 & 0x1FF
	b := packed >> 18 & 0x1FF
	exp := packed >> 27
	if r != g || g != b {
		t.Errorf("equal channels should pack equal mantissas: %x", packed)
	}
	// Decoded value: mantissa * 2^(exp - 15 - 9) should be close to 1.
	decoded := float64(r) * float64(int(1)<<exp) / (1 << 24)
	if decoded < 0.99 || decoded > 1.01 {
		t.Errorf("decoded white = %v from %x", decoded, packed)
	}
}

func TestBC1TransparentBlock(t *testing.T) {
	// A fully transparent block must select 3-color mode (c0 <= c1) with all
	// indices 3.
	img, _ := raster.New(raster.RGBAF, 4, 4, colorspace.Linear)
	for y := 0; y < 4; y++ {
		row := img.FloatScanline(y)
		for x := 0; x < 4; x++ {
			row[x*4+3] = 0
		}
	}
	encoder := newEncoder(defaultParams(format.BC1RGBA, format.UNorm), img)
	runJobs(encoder, 1)
	data := encoder.Data()
	c0 := binary.LittleEndian.Uint16(data)
	c1 := binary.LittleEndian.Uint16(data[2:])
	if c0 > c1 {
		t.Errorf("transparent block must use 3-color ordering: c0=%04x c1=%04x", c0, c1)
	}
	sel := binary.LittleEndian.Uint32(data[4:])
	if sel != 0xFFFFFFFF {
		t.Errorf("all indices should be 3 (transparent), got %08x", sel)
	}
}

func TestBC4ConstantBlock(t *testing.T) {
	img, _ := raster.New(raster.RGBAF, 4, 4, colorspace.Linear)
	for y := 0; y < 4; y++ {
		row := img.FloatScanline(y)
		for x := 0; x < 4; x++ {
			row[x*4] = 0.5
		}
	}
	encoder := newEncoder(defaultParams(format.BC4, format.UNorm), img)
	runJobs(encoder, 1)
	data := encoder.Data()
	if data[0] != data[1] {
		t.Errorf("constant block endpoints differ: %v", data[:2])
	}
	if data[0] != 128 {
		t.Errorf("endpoint = %d, expected 128", data[0])
	}
}

func TestASTCVoidExtent(t *testing.T) {
	img, _ := raster.New(raster.RGBAF, 4, 4, colorspace.Linear)
	for y := 0; y < 4; y++ {
		row := img.FloatScanline(y)
		for x := 0; x < 4; x++ {
			copy(row[x*4:], []float32{0.5, 0.25, 0.75, 1})
		}
	}
	encoder := newEncoder(defaultParams(format.ASTC4x4, format.UNorm), img)
	td := createThreadData(encoder)
	encoder.Process(0, 0, td)
	releaseThreadData(td)

	data := encoder.Data()
	low := binary.LittleEndian.Uint64(data)
	if low&0x1FF != 0x1FC {
		t.Errorf("constant block should use the void extent encoding: %016x", low)
	}
	if low&(1<<9) != 0 {
		t.Error("LDR void extent must not set the HDR flag")
	}
}

func TestASTCContextCacheReuse(t *testing.T) {
	img := testImage(t, 8, 8)
	encoder := newEncoder(defaultParams(format.ASTC4x4, format.UNorm), img).(*astcEncoder)
	td := encoder.CreateThreadData().(*astcThreadData)
	ctx := td.ctx
	td.Close()

	td2 := encoder.CreateThreadData().(*astcThreadData)
	defer td2.Close()
	if td2.ctx != ctx {
		t.Error("context with identical config should be reused from the cache")
	}
}

func TestPVRTCWholeImage(t *testing.T) {
	img := testImage(t, 16, 16)
	encoder := newEncoder(defaultParams(format.PVRTC1RGB4BPP, format.UNorm), img)
	if encoder.JobsX() != 1 || encoder.JobsY() != 1 {
		t.Fatalf("PVRTC must encode as a single job, got %dx%d grid", encoder.JobsX(),
			encoder.JobsY())
	}
	runJobs(encoder, 1)
	// 16x16 at 4bpp is 128 bytes.
	if len(encoder.Data()) != 128 {
		t.Errorf("PVRTC1 4BPP payload = %d bytes, expected 128", len(encoder.Data()))
	}
}

func TestPVRTCMinimumSize(t *testing.T) {
	img := testImage(t, 4, 4)
	encoder := newEncoder(defaultParams(format.PVRTC1RGB4BPP, format.UNorm), img)
	runJobs(encoder, 1)
	// PVRTC1 surfaces are padded to at least two blocks per dimension.
	if len(encoder.Data()) != 2*2*8 {
		t.Errorf("4x4 PVRTC1 payload = %d bytes, expected 32", len(encoder.Data()))
	}
}

func TestBC6HModeBits(t *testing.T) {
	img := testImage(t, 4, 4)
	encoder := newEncoder(defaultParams(format.BC6H, format.UFloat), img)
	runJobs(encoder, 1)
	data := encoder.Data()
	if data[0]&0x1F != 0x03 {
		t.Errorf("BC6H block should use mode 11 (0x03), got %02x", data[0]&0x1F)
	}
}

func TestBC7ModeBits(t *testing.T) {
	img := testImage(t, 4, 4)
	encoder := newEncoder(defaultParams(format.BC7, format.UNorm), img)
	runJobs(encoder, 1)
	data := encoder.Data()
	if data[0] != 0x40 {
		t.Errorf("BC7 block should use mode 6 (bit 6 set), got %02x", data[0])
	}
}
