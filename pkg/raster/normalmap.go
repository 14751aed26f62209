package raster

import (
	"math"

	"github.com/pkg/errors"
)

// NormalOptions controls edge handling and output range for CreateNormalMap.
type NormalOptions int

const (
	NormalDefault  NormalOptions = 0
	NormalWrapX    NormalOptions = 1 << 0
	NormalWrapY    NormalOptions = 1 << 1
	NormalKeepSign NormalOptions = 1 << 2
)

// CreateNormalMap derives a tangent-space normal map from the red channel,
// treated as a height field. Gradients use central differences in the
// interior and one-sided differences at non-wrapped edges. Unless KeepSign is
// set, components are remapped from [-1, 1] to [0, 1].
func (img *Image) CreateNormalMap(options NormalOptions, height float64,
	dstLayout Layout) (*Image, error) {

	if !img.IsValid() {
		return nil, errors.New("raster: normal map on invalid image")
	}

	out := &Image{}
	if err := out.Init(dstLayout, img.width, img.height, img.space); err != nil {
		return nil, err
	}

	for y := 0; y < img.height; y++ {
		row := img.Scanline(y)

		distY := 2.0
		var rowAbove, rowBelow []byte
		if y == 0 {
			if options&NormalWrapY != 0 {
				rowAbove = img.Scanline(img.height - 1)
			} else {
				rowAbove = row
				distY = 1
			}
		} else {
			rowAbove = img.Scanline(y - 1)
		}
		if y == img.height-1 {
			if options&NormalWrapY != 0 {
				rowBelow = img.Scanline(0)
			} else {
				rowBelow = row
				distY = 1
			}
		} else {
			rowBelow = img.Scanline(y + 1)
		}

		dstRow := out.Scanline(y)
		for x := 0; x < img.width; x++ {
			above := getPixel(img.layout, rowAbove, x)
			below := getPixel(img.layout, rowBelow, x)
			dy := (above.R - below.R) * height / distY

			distX := 2.0
			var left, right Color
			if x == 0 {
				if options&NormalWrapX != 0 {
					left = getPixel(img.layout, row, img.width-1)
				} else {
					left = getPixel(img.layout, row, x)
					distX = 1
				}
			} else {
				left = getPixel(img.layout, row, x-1)
			}
			if x == img.width-1 {
				if options&NormalWrapX != 0 {
					right = getPixel(img.layout, row, 0)
				} else {
					right = getPixel(img.layout, row, x)
					distX = 1
				}
			} else {
				right = getPixel(img.layout, row, x+1)
			}
			dx := (left.R - right.R) * height / distX

			length := math.Sqrt(dx*dx + dy*dy + 1)
			normal := Color{
				R: dx / length,
				G: dy / length,
				B: 1 / length,
				A: 1,
			}
			if options&NormalKeepSign == 0 {
				normal.R = normal.R*0.5 + 0.5
				normal.G = normal.G*0.5 + 0.5
				normal.B = normal.B*0.5 + 0.5
			}
			setPixelGrayscale(dstLayout, dstRow, x, normal)
		}
	}
	return out, nil
}
