package raster

import (
	"bytes"
	"image"
	"io"
	"os"

	// Register the bitmap decoders the pipeline accepts as source images.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/mdouchement/hdr"
	_ "github.com/mdouchement/hdr/codec/rgbe"
	"github.com/pkg/errors"

	"github.com/goopsie/texpack/pkg/colorspace"
)

// Load reads a bitmap file and stores it in the closest native layout.
// Palette and indexed sources become 24 or 32-bit depending on transparency.
func (img *Image) Load(path string, space colorspace.Space) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "raster: open %s", path)
	}
	defer f.Close()
	return img.LoadReader(f, space)
}

// LoadReader decodes a bitmap from a stream.
func (img *Image) LoadReader(r io.Reader, space colorspace.Space) error {
	img.Reset()

	decoded, _, err := image.Decode(r)
	if err != nil {
		return errors.Wrap(err, "raster: decode image")
	}
	return img.fromGoImage(decoded, space)
}

// LoadBytes decodes a bitmap from memory.
func (img *Image) LoadBytes(data []byte, space colorspace.Space) error {
	return img.LoadReader(bytes.NewReader(data), space)
}

func (img *Image) fromGoImage(src image.Image, space colorspace.Space) error {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	switch typed := src.(type) {
	case *image.Gray:
		if err := img.Init(Gray8, width, height, space); err != nil {
			return err
		}
		for y := 0; y < height; y++ {
			copy(img.Scanline(y), typed.Pix[y*typed.Stride:y*typed.Stride+width])
		}
		return nil
	case *image.Gray16:
		if err := img.Init(Gray16, width, height, space); err != nil {
			return err
		}
		for y := 0; y < height; y++ {
			row := img.Scanline(y)
			for x := 0; x < width; x++ {
				// Gray16 pixels are big-endian in the stdlib.
				v := uint16(typed.Pix[y*typed.Stride+x*2])<<8 |
					uint16(typed.Pix[y*typed.Stride+x*2+1])
				row[x*2] = byte(v)
				row[x*2+1] = byte(v >> 8)
			}
		}
		return nil
	case *image.NRGBA:
		if err := img.Init(RGBA8, width, height, space); err != nil {
			return err
		}
		for y := 0; y < height; y++ {
			copy(img.Scanline(y), typed.Pix[y*typed.Stride:y*typed.Stride+width*4])
		}
		return nil
	case *image.Paletted:
		layout := RGB8
		if paletteHasAlpha(typed) {
			layout = RGBA8
		}
		if err := img.Init(layout, width, height, space); err != nil {
			return err
		}
		for y := 0; y < height; y++ {
			row := img.Scanline(y)
			for x := 0; x < width; x++ {
				r, g, b, a := typed.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				if layout == RGB8 {
					row[x*3] = uint8(r >> 8)
					row[x*3+1] = uint8(g >> 8)
					row[x*3+2] = uint8(b >> 8)
				} else {
					setNRGBA(row, x, r, g, b, a)
				}
			}
		}
		return nil
	case *image.NRGBA64:
		if err := img.Init(RGBA16, width, height, space); err != nil {
			return err
		}
		for y := 0; y < height; y++ {
			row := img.Scanline(y)
			for x := 0; x < width; x++ {
				for c := 0; c < 4; c++ {
					v := uint16(typed.Pix[y*typed.Stride+x*8+c*2])<<8 |
						uint16(typed.Pix[y*typed.Stride+x*8+c*2+1])
					row[x*8+c*2] = byte(v)
					row[x*8+c*2+1] = byte(v >> 8)
				}
			}
		}
		return nil
	case hdr.Image:
		if err := img.Init(RGBF, width, height, space); err != nil {
			return err
		}
		for y := 0; y < height; y++ {
			dst := img.FloatScanline(y)
			for x := 0; x < width; x++ {
				r, g, b, _ := typed.HDRAt(bounds.Min.X+x, bounds.Min.Y+y).HDRRGBA()
				dst[x*3] = float32(r)
				dst[x*3+1] = float32(g)
				dst[x*3+2] = float32(b)
			}
		}
		return nil
	}

	// Everything else (RGBA, YCbCr, CMYK, ...) goes through the generic
	// un-premultiplied 8-bit path.
	if err := img.Init(RGBA8, width, height, space); err != nil {
		return err
	}
	for y := 0; y < height; y++ {
		row := img.Scanline(y)
		for x := 0; x < width; x++ {
			r, g, b, a := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			setNRGBA(row, x, r, g, b, a)
		}
	}
	return nil
}

// setNRGBA stores a premultiplied 16-bit RGBA sample as straight 8-bit.
func setNRGBA(row []byte, x int, r, g, b, a uint32) {
	if a == 0 {
		row[x*4], row[x*4+1], row[x*4+2], row[x*4+3] = 0, 0, 0, 0
		return
	}
	if a != 0xFFFF {
		r = (r * 0xFFFF) / a
		g = (g * 0xFFFF) / a
		b = (b * 0xFFFF) / a
	}
	row[x*4] = uint8(r >> 8)
	row[x*4+1] = uint8(g >> 8)
	row[x*4+2] = uint8(b >> 8)
	row[x*4+3] = uint8(a >> 8)
}

func paletteHasAlpha(p *image.Paletted) bool {
	for _, c := range p.Palette {
		if _, _, _, a := c.RGBA(); a != 0xFFFF {
			return true
		}
	}
	return false
}
