// Package raster provides the high-precision source image used to feed the
// texture pipeline. Images hold packed pixels in one of a fixed set of
// layouts; RGBAF is the canonical working layout that the converters consume.
//
// The coordinate (0, 0) is the upper-left of the image.
package raster

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/goopsie/texpack/pkg/colorspace"
)

// Layout is the pixel storage layout of an image.
type Layout int

const (
	Invalid Layout = iota
	Gray8
	Gray16
	RGB5
	RGB565
	RGB8
	RGB16
	RGBF
	RGBA8
	RGBA16
	RGBAF
	Int16
	UInt16
	Int32
	UInt32
	Float
	Double
	Complex
)

var layoutNames = map[Layout]string{
	Invalid: "Invalid", Gray8: "Gray8", Gray16: "Gray16", RGB5: "RGB5",
	RGB565: "RGB565", RGB8: "RGB8", RGB16: "RGB16", RGBF: "RGBF", RGBA8: "RGBA8",
	RGBA16: "RGBA16", RGBAF: "RGBAF", Int16: "Int16", UInt16: "UInt16",
	Int32: "Int32", UInt32: "UInt32", Float: "Float", Double: "Double",
	Complex: "Complex",
}

func (l Layout) String() string {
	if name, ok := layoutNames[l]; ok {
		return name
	}
	return "Invalid"
}

// BitsPerPixel returns the storage size of one pixel in bits.
func (l Layout) BitsPerPixel() int {
	switch l {
	case Gray8:
		return 8
	case Gray16, RGB5, RGB565, Int16, UInt16:
		return 16
	case RGB8:
		return 24
	case RGBA8, Int32, UInt32, Float:
		return 32
	case RGB16:
		return 48
	case RGBA16, Double:
		return 64
	case RGBF:
		return 96
	case RGBAF, Complex:
		return 128
	default:
		return 0
	}
}

// Color is a four-channel pixel value. The range is unbounded for HDR data;
// normalization happens at storage encode time.
type Color struct {
	R, G, B, A float64
}

// Image is a raster in one of the supported layouts.
type Image struct {
	layout Layout
	width  int
	height int
	space  colorspace.Space
	stride int
	pix    []byte
}

// Init allocates a zeroed image. Any previous contents are discarded.
func (img *Image) Init(layout Layout, width, height int, space colorspace.Space) error {
	if layout == Invalid || layout.BitsPerPixel() == 0 {
		return errors.New("raster: invalid layout")
	}
	if width <= 0 || height <= 0 {
		return errors.Errorf("raster: invalid dimensions %dx%d", width, height)
	}
	img.layout = layout
	img.width = width
	img.height = height
	img.space = space
	img.stride = width * layout.BitsPerPixel() / 8
	img.pix = make([]byte, img.stride*height)
	return nil
}

// New allocates a zeroed image.
func New(layout Layout, width, height int, space colorspace.Space) (*Image, error) {
	img := &Image{}
	if err := img.Init(layout, width, height, space); err != nil {
		return nil, err
	}
	return img, nil
}

// Reset returns the image to the uninitialized state, releasing its pixels.
func (img *Image) Reset() {
	*img = Image{}
}

// IsValid reports whether the image holds pixels.
func (img *Image) IsValid() bool {
	return img != nil && img.layout != Invalid && img.pix != nil
}

func (img *Image) Layout() Layout            { return img.layout }
func (img *Image) Width() int                { return img.width }
func (img *Image) Height() int               { return img.height }
func (img *Image) ColorSpace() colorspace.Space { return img.space }
func (img *Image) BitsPerPixel() int         { return img.layout.BitsPerPixel() }

// Clone returns a deep copy of the image.
func (img *Image) Clone() *Image {
	if !img.IsValid() {
		return &Image{}
	}
	dup := *img
	dup.pix = make([]byte, len(img.pix))
	copy(dup.pix, img.pix)
	return &dup
}

// Scanline returns the packed pixels of row y. Row 0 is the top of the image.
func (img *Image) Scanline(y int) []byte {
	if !img.IsValid() || y < 0 || y >= img.height {
		return nil
	}
	return img.pix[y*img.stride : (y+1)*img.stride : (y+1)*img.stride]
}

// FloatScanline returns row y viewed as float32s. Only meaningful for the
// RGBF, RGBAF, and Float layouts.
func (img *Image) FloatScanline(y int) []float32 {
	row := img.Scanline(y)
	if row == nil {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&row[0])), len(row)/4)
}

// GetPixel reads the normalized four-channel value at (x, y).
func (img *Image) GetPixel(x, y int) (Color, error) {
	if !img.IsValid() || x < 0 || x >= img.width || y < 0 || y >= img.height {
		return Color{}, errors.Errorf("raster: pixel (%d, %d) out of range", x, y)
	}
	return getPixel(img.layout, img.Scanline(y), x), nil
}

// SetPixel writes the normalized four-channel value at (x, y). When
// convertGrayscale is set, single-channel layouts receive the Rec.709
// luminance; otherwise they take the red channel verbatim.
func (img *Image) SetPixel(x, y int, c Color, convertGrayscale bool) error {
	if !img.IsValid() || x < 0 || x >= img.width || y < 0 || y >= img.height {
		return errors.Errorf("raster: pixel (%d, %d) out of range", x, y)
	}
	if convertGrayscale {
		setPixelGrayscale(img.layout, img.Scanline(y), x, c)
	} else {
		setPixel(img.layout, img.Scanline(y), x, c)
	}
	return nil
}

func toNorm8(v uint8) float64   { return float64(v) / 255.0 }
func toNorm16(v uint16) float64 { return float64(v) / 65535.0 }
func toNorm5(v uint16) float64  { return float64(v) / 31.0 }
func toNorm6(v uint16) float64  { return float64(v) / 63.0 }

func fromNorm8(v float64) uint8 {
	return uint8(math.Round(colorspace.Clamp(v, 0, 1) * 255))
}

func fromNorm16(v float64) uint16 {
	return uint16(math.Round(colorspace.Clamp(v, 0, 1) * 65535))
}

func fromNorm5(v float64) uint16 {
	return uint16(math.Round(colorspace.Clamp(v, 0, 1) * 31))
}

func fromNorm6(v float64) uint16 {
	return uint16(math.Round(colorspace.Clamp(v, 0, 1) * 63))
}

// RGB5 and RGB565 use the conventional bit positions with red in the high
// bits.
const (
	rgb555RedShift   = 10
	rgb555GreenShift = 5
	rgb555BlueShift  = 0
	rgb565RedShift   = 11
	rgb565GreenShift = 5
	rgb565BlueShift  = 0
)

func getPixel(layout Layout, row []byte, x int) Color {
	switch layout {
	case Gray8:
		v := toNorm8(row[x])
		return Color{v, v, v, 1}
	case Gray16:
		v := toNorm16(binary.LittleEndian.Uint16(row[x*2:]))
		return Color{v, v, v, 1}
	case RGB5:
		pixel := binary.LittleEndian.Uint16(row[x*2:])
		return Color{
			R: toNorm5((pixel >> rgb555RedShift) & 0x1F),
			G: toNorm5((pixel >> rgb555GreenShift) & 0x1F),
			B: toNorm5((pixel >> rgb555BlueShift) & 0x1F),
			A: 1,
		}
	case RGB565:
		pixel := binary.LittleEndian.Uint16(row[x*2:])
		return Color{
			R: toNorm5((pixel >> rgb565RedShift) & 0x1F),
			G: toNorm6((pixel >> rgb565GreenShift) & 0x3F),
			B: toNorm5((pixel >> rgb565BlueShift) & 0x1F),
			A: 1,
		}
	case RGB8:
		return Color{toNorm8(row[x*3]), toNorm8(row[x*3+1]), toNorm8(row[x*3+2]), 1}
	case RGB16:
		return Color{
			R: toNorm16(binary.LittleEndian.Uint16(row[x*6:])),
			G: toNorm16(binary.LittleEndian.Uint16(row[x*6+2:])),
			B: toNorm16(binary.LittleEndian.Uint16(row[x*6+4:])),
			A: 1,
		}
	case RGBF:
		return Color{
			R: float64(math.Float32frombits(binary.LittleEndian.Uint32(row[x*12:]))),
			G: float64(math.Float32frombits(binary.LittleEndian.Uint32(row[x*12+4:]))),
			B: float64(math.Float32frombits(binary.LittleEndian.Uint32(row[x*12+8:]))),
			A: 1,
		}
	case RGBA8:
		return Color{toNorm8(row[x*4]), toNorm8(row[x*4+1]), toNorm8(row[x*4+2]),
			toNorm8(row[x*4+3])}
	case RGBA16:
		return Color{
			R: toNorm16(binary.LittleEndian.Uint16(row[x*8:])),
			G: toNorm16(binary.LittleEndian.Uint16(row[x*8+2:])),
			B: toNorm16(binary.LittleEndian.Uint16(row[x*8+4:])),
			A: toNorm16(binary.LittleEndian.Uint16(row[x*8+6:])),
		}
	case RGBAF:
		return Color{
			R: float64(math.Float32frombits(binary.LittleEndian.Uint32(row[x*16:]))),
			G: float64(math.Float32frombits(binary.LittleEndian.Uint32(row[x*16+4:]))),
			B: float64(math.Float32frombits(binary.LittleEndian.Uint32(row[x*16+8:]))),
			A: float64(math.Float32frombits(binary.LittleEndian.Uint32(row[x*16+12:]))),
		}
	case Int16:
		v := float64(int16(binary.LittleEndian.Uint16(row[x*2:])))
		return Color{v, v, v, 1}
	case UInt16:
		v := float64(binary.LittleEndian.Uint16(row[x*2:]))
		return Color{v, v, v, 1}
	case Int32:
		v := float64(int32(binary.LittleEndian.Uint32(row[x*4:])))
		return Color{v, v, v, 1}
	case UInt32:
		v := float64(binary.LittleEndian.Uint32(row[x*4:]))
		return Color{v, v, v, 1}
	case Float:
		v := float64(math.Float32frombits(binary.LittleEndian.Uint32(row[x*4:])))
		return Color{v, v, v, 1}
	case Double:
		v := math.Float64frombits(binary.LittleEndian.Uint64(row[x*8:]))
		return Color{v, v, v, 1}
	case Complex:
		return Color{
			R: math.Float64frombits(binary.LittleEndian.Uint64(row[x*16:])),
			G: math.Float64frombits(binary.LittleEndian.Uint64(row[x*16+8:])),
			B: 0,
			A: 1,
		}
	}
	return Color{}
}

// setPixel writes a pixel taking the red channel verbatim for single-channel
// layouts.
func setPixel(layout Layout, row []byte, x int, c Color) {
	switch layout {
	case Gray8:
		row[x] = fromNorm8(c.R)
	case Gray16:
		binary.LittleEndian.PutUint16(row[x*2:], fromNorm16(c.R))
	case Float:
		binary.LittleEndian.PutUint32(row[x*4:], math.Float32bits(float32(c.R)))
	case Double:
		binary.LittleEndian.PutUint64(row[x*8:], math.Float64bits(c.R))
	default:
		setPixelShared(layout, row, x, c)
	}
}

// setPixelGrayscale writes a pixel converting the color channels to luminance
// for single-channel layouts.
func setPixelGrayscale(layout Layout, row []byte, x int, c Color) {
	switch layout {
	case Gray8:
		row[x] = fromNorm8(colorspace.Grayscale(c.R, c.G, c.B))
	case Gray16:
		binary.LittleEndian.PutUint16(row[x*2:], fromNorm16(colorspace.Grayscale(c.R, c.G, c.B)))
	case Float:
		binary.LittleEndian.PutUint32(row[x*4:],
			math.Float32bits(float32(colorspace.Grayscale(c.R, c.G, c.B))))
	case Double:
		binary.LittleEndian.PutUint64(row[x*8:],
			math.Float64bits(colorspace.Grayscale(c.R, c.G, c.B)))
	default:
		setPixelShared(layout, row, x, c)
	}
}

func setPixelShared(layout Layout, row []byte, x int, c Color) {
	switch layout {
	case RGB5:
		pixel := uint16(fromNorm5(c.R))<<rgb555RedShift |
			uint16(fromNorm5(c.G))<<rgb555GreenShift |
			uint16(fromNorm5(c.B))<<rgb555BlueShift
		binary.LittleEndian.PutUint16(row[x*2:], pixel)
	case RGB565:
		pixel := uint16(fromNorm5(c.R))<<rgb565RedShift |
			uint16(fromNorm6(c.G))<<rgb565GreenShift |
			uint16(fromNorm5(c.B))<<rgb565BlueShift
		binary.LittleEndian.PutUint16(row[x*2:], pixel)
	case RGB8:
		row[x*3] = fromNorm8(c.R)
		row[x*3+1] = fromNorm8(c.G)
		row[x*3+2] = fromNorm8(c.B)
	case RGB16:
		binary.LittleEndian.PutUint16(row[x*6:], fromNorm16(c.R))
		binary.LittleEndian.PutUint16(row[x*6+2:], fromNorm16(c.G))
		binary.LittleEndian.PutUint16(row[x*6+4:], fromNorm16(c.B))
	case RGBF:
		binary.LittleEndian.PutUint32(row[x*12:], math.Float32bits(float32(c.R)))
		binary.LittleEndian.PutUint32(row[x*12+4:], math.Float32bits(float32(c.G)))
		binary.LittleEndian.PutUint32(row[x*12+8:], math.Float32bits(float32(c.B)))
	case RGBA8:
		row[x*4] = fromNorm8(c.R)
		row[x*4+1] = fromNorm8(c.G)
		row[x*4+2] = fromNorm8(c.B)
		row[x*4+3] = fromNorm8(c.A)
	case RGBA16:
		binary.LittleEndian.PutUint16(row[x*8:], fromNorm16(c.R))
		binary.LittleEndian.PutUint16(row[x*8+2:], fromNorm16(c.G))
		binary.LittleEndian.PutUint16(row[x*8+4:], fromNorm16(c.B))
		binary.LittleEndian.PutUint16(row[x*8+6:], fromNorm16(c.A))
	case RGBAF:
		binary.LittleEndian.PutUint32(row[x*16:], math.Float32bits(float32(c.R)))
		binary.LittleEndian.PutUint32(row[x*16+4:], math.Float32bits(float32(c.G)))
		binary.LittleEndian.PutUint32(row[x*16+8:], math.Float32bits(float32(c.B)))
		binary.LittleEndian.PutUint32(row[x*16+12:], math.Float32bits(float32(c.A)))
	case Int16:
		v := colorspace.Clamp(c.R, math.MinInt16, math.MaxInt16)
		binary.LittleEndian.PutUint16(row[x*2:], uint16(int16(math.Round(v))))
	case UInt16:
		v := colorspace.Clamp(c.R, 0, math.MaxUint16)
		binary.LittleEndian.PutUint16(row[x*2:], uint16(math.Round(v)))
	case Int32:
		v := colorspace.Clamp(c.R, math.MinInt32, math.MaxInt32)
		binary.LittleEndian.PutUint32(row[x*4:], uint32(int32(math.Round(v))))
	case UInt32:
		v := colorspace.Clamp(c.R, 0, math.MaxUint32)
		binary.LittleEndian.PutUint32(row[x*4:], uint32(math.Round(v)))
	case Complex:
		binary.LittleEndian.PutUint64(row[x*16:], math.Float64bits(c.R))
		binary.LittleEndian.PutUint64(row[x*16+8:], math.Float64bits(c.G))
	}
}

// isGrayscaleLayout reports whether the layout is single channel, which
// permits native conversion to other grayscale layouts without the
// convertGrayscale flag.
func isGrayscaleLayout(l Layout) bool {
	switch l {
	case Gray8, Gray16, Float, Double:
		return true
	default:
		return false
	}
}
