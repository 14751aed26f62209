package raster

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/pkg/errors"
)

// Save writes the image to a file, choosing the encoder from the extension.
func (img *Image) Save(path string) error {
	key := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "raster: create %s", path)
	}
	defer f.Close()
	return img.SaveWriter(f, key)
}

// SaveWriter encodes the image to a stream with the given format key
// ("png", "bmp", "tiff"). Unknown keys fail.
func (img *Image) SaveWriter(w io.Writer, key string) error {
	if !img.IsValid() {
		return errors.New("raster: save on invalid image")
	}
	out, err := img.toGoImage()
	if err != nil {
		return err
	}
	switch strings.ToLower(key) {
	case "png":
		return errors.Wrap(png.Encode(w, out), "raster: encode png")
	case "bmp":
		return errors.Wrap(bmp.Encode(w, out), "raster: encode bmp")
	case "tif", "tiff":
		return errors.Wrap(tiff.Encode(w, out, nil), "raster: encode tiff")
	default:
		return errors.Errorf("raster: unknown image format %q", key)
	}
}

// SaveBytes encodes the image into a fresh buffer.
func (img *Image) SaveBytes(key string) ([]byte, error) {
	var buf bytes.Buffer
	if err := img.SaveWriter(&buf, key); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// toGoImage renders the pixels into the nearest stdlib image type for the
// bitmap encoders. HDR values are clamped here; this path exists for debug
// output, not archival.
func (img *Image) toGoImage() (image.Image, error) {
	rect := image.Rect(0, 0, img.width, img.height)
	switch img.layout {
	case Gray8:
		out := image.NewGray(rect)
		for y := 0; y < img.height; y++ {
			copy(out.Pix[y*out.Stride:], img.Scanline(y))
		}
		return out, nil
	case Gray16:
		out := image.NewGray16(rect)
		for y := 0; y < img.height; y++ {
			row := img.Scanline(y)
			for x := 0; x < img.width; x++ {
				out.Pix[y*out.Stride+x*2] = row[x*2+1]
				out.Pix[y*out.Stride+x*2+1] = row[x*2]
			}
		}
		return out, nil
	case RGBA8:
		out := image.NewNRGBA(rect)
		for y := 0; y < img.height; y++ {
			copy(out.Pix[y*out.Stride:], img.Scanline(y))
		}
		return out, nil
	case RGBA16:
		out := image.NewNRGBA64(rect)
		for y := 0; y < img.height; y++ {
			row := img.Scanline(y)
			for x := 0; x < img.width*4; x++ {
				out.Pix[y*out.Stride+x*2] = row[x*2+1]
				out.Pix[y*out.Stride+x*2+1] = row[x*2]
			}
		}
		return out, nil
	default:
		out := image.NewNRGBA(rect)
		for y := 0; y < img.height; y++ {
			row := img.Scanline(y)
			for x := 0; x < img.width; x++ {
				c := getPixel(img.layout, row, x)
				out.Pix[y*out.Stride+x*4] = fromNorm8(c.R)
				out.Pix[y*out.Stride+x*4+1] = fromNorm8(c.G)
				out.Pix[y*out.Stride+x*4+2] = fromNorm8(c.B)
				out.Pix[y*out.Stride+x*4+3] = fromNorm8(c.A)
			}
		}
		return out, nil
	}
}
