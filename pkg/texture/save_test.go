package texture

import (
	"encoding/binary"
	"testing"

	"github.com/goopsie/texpack/pkg/colorspace"
	"github.com/goopsie/texpack/pkg/format"
	"github.com/goopsie/texpack/pkg/raster"
)

func convertedTexture(t *testing.T, f format.Format, typ format.Type) *Texture {
	t.Helper()
	tex, err := New(format.Dim2D, 16, 16, 0, 1, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	img, err := raster.New(raster.RGBAF, 16, 16, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	if err := tex.SetImage(img, format.PosX, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := tex.Convert(f, typ, format.QualityNormal, format.AlphaStandard,
		format.AllChannels(), 1); err != nil {
		t.Fatal(err)
	}
	return tex
}

func TestSaveUnconverted(t *testing.T) {
	tex, err := New(format.Dim2D, 4, 4, 0, 1, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	if _, result := tex.SaveBytes(FileTypeDDS); result != SaveInvalid {
		t.Errorf("unconverted save = %v, expected invalid", result)
	}
}

func TestSaveUnknownFileType(t *testing.T) {
	tex := convertedTexture(t, format.R8G8B8A8, format.UNorm)
	if _, result := tex.SaveBytes(FileTypeAuto); result != SaveUnknownFormat {
		t.Error("auto file type without a path should be unknown")
	}
}

func TestFileTypeFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected FileType
	}{
		{"out.dds", FileTypeDDS},
		{"out.KTX", FileTypeKTX},
		{"dir/out.pvr", FileTypePVR},
		{"out.png", FileTypeAuto},
	}
	for _, test := range tests {
		if got := FileTypeFromPath(test.path); got != test.expected {
			t.Errorf("FileTypeFromPath(%s) = %v, expected %v", test.path, got,
				test.expected)
		}
	}
}

func TestDDSHeader(t *testing.T) {
	tex := convertedTexture(t, format.BC1RGB, format.UNorm)
	data, result := tex.SaveBytes(FileTypeDDS)
	if result != SaveSuccess {
		t.Fatalf("save failed: %v", result)
	}

	le := binary.LittleEndian
	if le.Uint32(data) != 0x20534444 {
		t.Errorf("magic = %08x", le.Uint32(data))
	}
	if le.Uint32(data[4:]) != 124 {
		t.Errorf("header size = %d, expected 124", le.Uint32(data[4:]))
	}
	if le.Uint32(data[12:]) != 16 {
		t.Errorf("height = %d", le.Uint32(data[12:]))
	}
	if le.Uint32(data[16:]) != 16 {
		t.Errorf("width = %d", le.Uint32(data[16:]))
	}
	// Pitch for BC1: ceil(16/4) * 8 = 32.
	if le.Uint32(data[20:]) != 32 {
		t.Errorf("pitch = %d, expected 32", le.Uint32(data[20:]))
	}
	if le.Uint32(data[28:]) != 1 {
		t.Errorf("mip count = %d, expected 1", le.Uint32(data[28:]))
	}
	// Pixel format substructure at offset 76: size then FourCC flags and
	// 'DX10'.
	if le.Uint32(data[76:]) != 32 {
		t.Errorf("pixel format size = %d", le.Uint32(data[76:]))
	}
	if le.Uint32(data[80:]) != 0x4 {
		t.Errorf("pixel format flags = %x", le.Uint32(data[80:]))
	}
	if le.Uint32(data[84:]) != fourCC('D', 'X', '1', '0') {
		t.Errorf("fourCC = %08x", le.Uint32(data[84:]))
	}
	// DXT10 header at offset 128.
	if le.Uint32(data[128:]) != DXGI_FORMAT_BC1_UNORM {
		t.Errorf("dxgi format = %d, expected %d", le.Uint32(data[128:]),
			DXGI_FORMAT_BC1_UNORM)
	}
	if le.Uint32(data[132:]) != 3 {
		t.Errorf("resource dimension = %d, expected texture2D", le.Uint32(data[132:]))
	}
	if le.Uint32(data[140:]) != 1 {
		t.Errorf("array size = %d, expected 1", le.Uint32(data[140:]))
	}
	// 4 magic + 124 header + 20 DXT10 + 128 payload.
	if len(data) != 4+124+20+128 {
		t.Errorf("total size = %d, expected %d", len(data), 4+124+20+128)
	}
}

func TestDDSCubeHeader(t *testing.T) {
	tex, err := New(format.Cube, 8, 8, 0, 1, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	for face := 0; face < 6; face++ {
		img, _ := raster.New(raster.RGBAF, 8, 8, colorspace.Linear)
		if err := tex.SetImage(img, format.CubeFace(face), 0, 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := tex.Convert(format.R8G8B8A8, format.UNorm, format.QualityNormal,
		format.AlphaStandard, format.AllChannels(), 1); err != nil {
		t.Fatal(err)
	}
	data, result := tex.SaveBytes(FileTypeDDS)
	if result != SaveSuccess {
		t.Fatalf("save failed: %v", result)
	}
	le := binary.LittleEndian
	caps2 := le.Uint32(data[112:])
	if caps2&0x200 == 0 {
		t.Errorf("cube caps2 bit missing: %x", caps2)
	}
	if caps2&0xFC00 != 0xFC00 {
		t.Errorf("all six face bits should be set: %x", caps2)
	}
	miscFlag := le.Uint32(data[136:])
	if miscFlag&0x4 == 0 {
		t.Errorf("DXT10 cube misc flag missing: %x", miscFlag)
	}
	// Payload: 6 faces of 8x8 RGBA8.
	if len(data) != 148+6*8*8*4 {
		t.Errorf("total size = %d", len(data))
	}
}

func TestDDSUnsupported(t *testing.T) {
	tex := convertedTexture(t, format.ETC2R8G8B8, format.UNorm)
	if _, result := tex.SaveBytes(FileTypeDDS); result != SaveUnsupported {
		t.Errorf("ETC2 DDS save = %v, expected unsupported", result)
	}
}

func TestKTXHeader(t *testing.T) {
	tex := convertedTexture(t, format.BC1RGB, format.UNorm)
	data, result := tex.SaveBytes(FileTypeKTX)
	if result != SaveSuccess {
		t.Fatalf("save failed: %v", result)
	}

	expectedIdent := []byte{0xAB, 'K', 'T', 'X', ' ', '1', '1', 0xBB, '\r', '\n', 0x1A,
		'\n'}
	for i, b := range expectedIdent {
		if data[i] != b {
			t.Fatalf("identifier byte %d = %02x, expected %02x", i, data[i], b)
		}
	}
	le := binary.LittleEndian
	if le.Uint32(data[12:]) != 0x04030201 {
		t.Errorf("endianness = %08x", le.Uint32(data[12:]))
	}
	if le.Uint32(data[16:]) != 0 {
		t.Errorf("glType = %d, expected 0 for compressed", le.Uint32(data[16:]))
	}
	if le.Uint32(data[20:]) != 1 {
		t.Errorf("glTypeSize = %d, expected 1", le.Uint32(data[20:]))
	}
	if le.Uint32(data[24:]) != 0 {
		t.Errorf("glFormat = %d, expected 0", le.Uint32(data[24:]))
	}
	if le.Uint32(data[28:]) != GL_COMPRESSED_RGB_S3TC_DXT1_EXT {
		t.Errorf("glInternalFormat = %04x", le.Uint32(data[28:]))
	}
	if le.Uint32(data[32:]) != GL_RGB {
		t.Errorf("glBaseInternalFormat = %04x", le.Uint32(data[32:]))
	}
	if le.Uint32(data[36:]) != 16 || le.Uint32(data[40:]) != 16 {
		t.Errorf("dimensions = %dx%d", le.Uint32(data[36:]), le.Uint32(data[40:]))
	}
	if le.Uint32(data[44:]) != 0 {
		t.Errorf("pixelDepth = %d, expected 0", le.Uint32(data[44:]))
	}
	if le.Uint32(data[48:]) != 0 {
		t.Errorf("arrayElements = %d, expected 0", le.Uint32(data[48:]))
	}
	if le.Uint32(data[52:]) != 1 {
		t.Errorf("faces = %d, expected 1", le.Uint32(data[52:]))
	}
	if le.Uint32(data[56:]) != 1 {
		t.Errorf("mip levels = %d, expected 1", le.Uint32(data[56:]))
	}
	if le.Uint32(data[60:]) != 0 {
		t.Errorf("key/value bytes = %d, expected 0", le.Uint32(data[60:]))
	}
	// Image size then 128 bytes of BC1 payload.
	if le.Uint32(data[64:]) != 128 {
		t.Errorf("image size = %d, expected 128", le.Uint32(data[64:]))
	}
	if len(data) != 68+128 {
		t.Errorf("total size = %d, expected %d", len(data), 68+128)
	}
}

func TestKTXRowPadding(t *testing.T) {
	// R8G8B8 rows of a 2-pixel-wide image are 6 bytes and pad to 8.
	tex, err := New(format.Dim2D, 2, 2, 0, 1, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	img, _ := raster.New(raster.RGBAF, 2, 2, colorspace.Linear)
	if err := tex.SetImage(img, format.PosX, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := tex.Convert(format.R8G8B8, format.UNorm, format.QualityNormal,
		format.AlphaStandard, format.AllChannels(), 1); err != nil {
		t.Fatal(err)
	}
	data, result := tex.SaveBytes(FileTypeKTX)
	if result != SaveSuccess {
		t.Fatalf("save failed: %v", result)
	}
	le := binary.LittleEndian
	if le.Uint32(data[64:]) != 16 {
		t.Errorf("padded image size = %d, expected 16", le.Uint32(data[64:]))
	}
	if len(data) != 68+16 {
		t.Errorf("total size = %d, expected %d", len(data), 68+16)
	}
}

func TestKTXUnsupported(t *testing.T) {
	tex := convertedTexture(t, format.R4G4, format.UNorm)
	if _, result := tex.SaveBytes(FileTypeKTX); result != SaveUnsupported {
		t.Errorf("R4G4 KTX save = %v, expected unsupported", result)
	}
	if _, result := tex.SaveBytes(FileTypeDDS); result != SaveSuccess {
		t.Errorf("R4G4 DDS save = %v, expected success", result)
	}
}

func TestPVRHeader(t *testing.T) {
	tex := convertedTexture(t, format.BC1RGB, format.UNorm)
	data, result := tex.SaveBytes(FileTypePVR)
	if result != SaveSuccess {
		t.Fatalf("save failed: %v", result)
	}

	le := binary.LittleEndian
	if le.Uint32(data) != fourCC('P', 'V', 'R', 3) {
		t.Errorf("version = %08x", le.Uint32(data))
	}
	if le.Uint32(data[4:]) != 0 {
		t.Errorf("flags = %x, expected 0", le.Uint32(data[4:]))
	}
	if le.Uint64(data[8:]) != pvrFormatDXT1 {
		t.Errorf("pixel format = %d, expected DXT1", le.Uint64(data[8:]))
	}
	if le.Uint32(data[16:]) != 0 {
		t.Errorf("color space = %d, expected linear", le.Uint32(data[16:]))
	}
	if le.Uint32(data[20:]) != pvrChannelUByteN {
		t.Errorf("channel type = %d", le.Uint32(data[20:]))
	}
	if le.Uint32(data[24:]) != 16 || le.Uint32(data[28:]) != 16 {
		t.Errorf("dimensions = %dx%d", le.Uint32(data[28:]), le.Uint32(data[24:]))
	}
	if le.Uint32(data[32:]) != 1 || le.Uint32(data[36:]) != 1 {
		t.Errorf("depth/elements = %d/%d", le.Uint32(data[32:]), le.Uint32(data[36:]))
	}
	if le.Uint32(data[40:]) != 1 {
		t.Errorf("faces = %d", le.Uint32(data[40:]))
	}
	if le.Uint32(data[44:]) != 1 {
		t.Errorf("mip levels = %d", le.Uint32(data[44:]))
	}
	// BC1 carries the 12-byte discriminator metadata block.
	if le.Uint32(data[48:]) != 12 {
		t.Errorf("metadata size = %d, expected 12", le.Uint32(data[48:]))
	}
	if le.Uint32(data[52:]) != fourCC('C', 'T', 'F', 'S') {
		t.Errorf("metadata fourCC = %08x", le.Uint32(data[52:]))
	}
	if le.Uint32(data[56:]) != fourCC('B', 'C', '1', 0) {
		t.Errorf("metadata code = %08x", le.Uint32(data[56:]))
	}
	if len(data) != 64+128 {
		t.Errorf("total size = %d, expected %d", len(data), 64+128)
	}
}

func TestPVRNoMetadata(t *testing.T) {
	tex := convertedTexture(t, format.R8G8B8A8, format.UNorm)
	data, result := tex.SaveBytes(FileTypePVR)
	if result != SaveSuccess {
		t.Fatalf("save failed: %v", result)
	}
	le := binary.LittleEndian
	if le.Uint32(data[48:]) != 0 {
		t.Errorf("metadata size = %d, expected 0", le.Uint32(data[48:]))
	}
	if len(data) != 52+16*16*4 {
		t.Errorf("total size = %d", len(data))
	}
}

func TestPVRPreMultipliedFlag(t *testing.T) {
	tex, err := New(format.Dim2D, 4, 4, 0, 1, colorspace.Linear)
	if err != nil {
		t.Fatal(err)
	}
	img, _ := raster.New(raster.RGBAF, 4, 4, colorspace.Linear)
	if err := tex.SetImage(img, format.PosX, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := tex.Convert(format.R8G8B8A8, format.UNorm, format.QualityNormal,
		format.AlphaPreMultiplied, format.AllChannels(), 1); err != nil {
		t.Fatal(err)
	}
	data, result := tex.SaveBytes(FileTypePVR)
	if result != SaveSuccess {
		t.Fatalf("save failed: %v", result)
	}
	if binary.LittleEndian.Uint32(data[4:])&0x2 == 0 {
		t.Error("premultiplied flag should be set")
	}
}
