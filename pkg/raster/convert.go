package raster

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Convert produces a new image in the destination layout. When
// convertGrayscale is set, conversions into single-channel layouts use the
// Rec.709 luminance; otherwise they take the red channel verbatim. The source
// is left untouched.
//
// Fast paths exist for the common byte-aligned conversions. UInt16 sources
// always transcode through the generic path since their values are unscaled
// integers rather than normalized samples, and float layouts never clamp so
// HDR values survive.
func (img *Image) Convert(dst Layout, convertGrayscale bool) (*Image, error) {
	if !img.IsValid() {
		return nil, errors.New("raster: convert on invalid image")
	}
	if dst == Invalid || dst.BitsPerPixel() == 0 {
		return nil, errors.New("raster: invalid destination layout")
	}
	if dst == img.layout {
		return img.Clone(), nil
	}

	if img.layout != UInt16 {
		if out := img.convertFast(dst, convertGrayscale); out != nil {
			return out, nil
		}
	}

	out := &Image{}
	if err := out.Init(dst, img.width, img.height, img.space); err != nil {
		return nil, err
	}
	// Never grayscale-convert when the source holds complex samples.
	grayscale := convertGrayscale && img.layout != Complex
	for y := 0; y < img.height; y++ {
		srcRow := img.Scanline(y)
		dstRow := out.Scanline(y)
		for x := 0; x < img.width; x++ {
			c := getPixel(img.layout, srcRow, x)
			if grayscale {
				setPixelGrayscale(dst, dstRow, x, c)
			} else {
				setPixel(dst, dstRow, x, c)
			}
		}
	}
	return out, nil
}

// convertFast handles byte-aligned layout pairs without the normalized
// round trip. Returns nil when no direct path applies.
func (img *Image) convertFast(dst Layout, convertGrayscale bool) *Image {
	switch {
	case img.layout == RGB8 && dst == RGBA8:
		out, _ := New(RGBA8, img.width, img.height, img.space)
		for y := 0; y < img.height; y++ {
			src, d := img.Scanline(y), out.Scanline(y)
			for x := 0; x < img.width; x++ {
				d[x*4] = src[x*3]
				d[x*4+1] = src[x*3+1]
				d[x*4+2] = src[x*3+2]
				d[x*4+3] = 0xFF
			}
		}
		return out
	case img.layout == RGBA8 && dst == RGB8:
		out, _ := New(RGB8, img.width, img.height, img.space)
		for y := 0; y < img.height; y++ {
			src, d := img.Scanline(y), out.Scanline(y)
			for x := 0; x < img.width; x++ {
				d[x*3] = src[x*4]
				d[x*3+1] = src[x*4+1]
				d[x*3+2] = src[x*4+2]
			}
		}
		return out
	case img.layout == RGBA8 && dst == RGBAF:
		out, _ := New(RGBAF, img.width, img.height, img.space)
		for y := 0; y < img.height; y++ {
			src := img.Scanline(y)
			d := out.FloatScanline(y)
			for i, b := range src {
				d[i] = float32(b) / 255
			}
		}
		return out
	case img.layout == RGB8 && dst == RGBAF:
		out, _ := New(RGBAF, img.width, img.height, img.space)
		for y := 0; y < img.height; y++ {
			src := img.Scanline(y)
			d := out.FloatScanline(y)
			for x := 0; x < img.width; x++ {
				d[x*4] = float32(src[x*3]) / 255
				d[x*4+1] = float32(src[x*3+1]) / 255
				d[x*4+2] = float32(src[x*3+2]) / 255
				d[x*4+3] = 1
			}
		}
		return out
	case img.layout == RGBA16 && dst == RGBAF:
		out, _ := New(RGBAF, img.width, img.height, img.space)
		for y := 0; y < img.height; y++ {
			src := img.Scanline(y)
			d := out.FloatScanline(y)
			for i := 0; i < img.width*4; i++ {
				d[i] = float32(binary.LittleEndian.Uint16(src[i*2:])) / 65535
			}
		}
		return out
	case img.layout == RGBF && dst == RGBAF:
		// Float to float conversions stay unclamped.
		out, _ := New(RGBAF, img.width, img.height, img.space)
		for y := 0; y < img.height; y++ {
			src := img.FloatScanline(y)
			d := out.FloatScanline(y)
			for x := 0; x < img.width; x++ {
				d[x*4] = src[x*3]
				d[x*4+1] = src[x*3+1]
				d[x*4+2] = src[x*3+2]
				d[x*4+3] = 1
			}
		}
		return out
	case img.layout == RGBAF && dst == RGBF:
		out, _ := New(RGBF, img.width, img.height, img.space)
		for y := 0; y < img.height; y++ {
			src := img.FloatScanline(y)
			d := out.FloatScanline(y)
			for x := 0; x < img.width; x++ {
				d[x*3] = src[x*4]
				d[x*3+1] = src[x*4+1]
				d[x*3+2] = src[x*4+2]
			}
		}
		return out
	case img.layout == Float && dst == RGBAF:
		out, _ := New(RGBAF, img.width, img.height, img.space)
		for y := 0; y < img.height; y++ {
			src := img.FloatScanline(y)
			d := out.FloatScanline(y)
			for x := 0; x < img.width; x++ {
				d[x*4] = src[x]
				d[x*4+1] = src[x]
				d[x*4+2] = src[x]
				d[x*4+3] = 1
			}
		}
		return out
	case img.layout == Gray8 && dst == Gray16:
		out, _ := New(Gray16, img.width, img.height, img.space)
		for y := 0; y < img.height; y++ {
			src, d := img.Scanline(y), out.Scanline(y)
			for x := 0; x < img.width; x++ {
				v := uint16(src[x])
				binary.LittleEndian.PutUint16(d[x*2:], v<<8|v)
			}
		}
		return out
	case dst == Float && (convertGrayscale || isGrayscaleLayout(img.layout)):
		switch img.layout {
		case Gray8:
			out, _ := New(Float, img.width, img.height, img.space)
			for y := 0; y < img.height; y++ {
				src := img.Scanline(y)
				d := out.FloatScanline(y)
				for x := 0; x < img.width; x++ {
					d[x] = float32(src[x]) / 255
				}
			}
			return out
		case Gray16:
			out, _ := New(Float, img.width, img.height, img.space)
			for y := 0; y < img.height; y++ {
				src := img.Scanline(y)
				d := out.FloatScanline(y)
				for x := 0; x < img.width; x++ {
					d[x] = float32(binary.LittleEndian.Uint16(src[x*2:])) / 65535
				}
			}
			return out
		case Double:
			// Unclamped narrowing.
			out, _ := New(Float, img.width, img.height, img.space)
			for y := 0; y < img.height; y++ {
				src := img.Scanline(y)
				d := out.FloatScanline(y)
				for x := 0; x < img.width; x++ {
					d[x] = float32(math.Float64frombits(binary.LittleEndian.Uint64(src[x*8:])))
				}
			}
			return out
		}
	}
	return nil
}
