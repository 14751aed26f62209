package raster

import (
	"github.com/pkg/errors"

	"github.com/goopsie/texpack/pkg/colorspace"
)

// RotateAngle is the quarter-turn rotation to apply.
type RotateAngle int

const (
	RotateCW90 RotateAngle = iota
	RotateCW180
	RotateCW270
	RotateCCW90
	RotateCCW180
	RotateCCW270
)

// RotateAngleFromDegrees maps a degree count (a multiple of 90, possibly
// negative) onto a rotation. Positive angles rotate counter-clockwise.
func RotateAngleFromDegrees(degrees int) (RotateAngle, bool) {
	degrees %= 360
	if degrees < 0 {
		degrees += 360
	}
	switch degrees {
	case 0:
		return RotateCCW90, false
	case 90:
		return RotateCCW90, true
	case 180:
		return RotateCCW180, true
	case 270:
		return RotateCCW270, true
	default:
		return RotateCCW90, false
	}
}

// Rotate returns a rotated copy of the image. 90 and 270 degree rotations
// swap the width and height.
func (img *Image) Rotate(angle RotateAngle) (*Image, error) {
	if !img.IsValid() {
		return nil, errors.New("raster: rotate on invalid image")
	}

	out := &Image{}
	switch angle {
	case RotateCCW90, RotateCW270:
		if err := out.Init(img.layout, img.height, img.width, img.space); err != nil {
			return nil, err
		}
		for y := 0; y < img.height; y++ {
			srcRow := img.Scanline(y)
			for x := 0; x < img.width; x++ {
				c := getPixel(img.layout, srcRow, x)
				setPixel(img.layout, out.Scanline(img.width-x-1), y, c)
			}
		}
	case RotateCCW180, RotateCW180:
		if err := out.Init(img.layout, img.width, img.height, img.space); err != nil {
			return nil, err
		}
		for y := 0; y < img.height; y++ {
			srcRow := img.Scanline(y)
			dstRow := out.Scanline(img.height - y - 1)
			for x := 0; x < img.width; x++ {
				c := getPixel(img.layout, srcRow, x)
				setPixel(img.layout, dstRow, img.width-x-1, c)
			}
		}
	case RotateCCW270, RotateCW90:
		if err := out.Init(img.layout, img.height, img.width, img.space); err != nil {
			return nil, err
		}
		for y := 0; y < img.height; y++ {
			srcRow := img.Scanline(y)
			for x := 0; x < img.width; x++ {
				c := getPixel(img.layout, srcRow, x)
				setPixel(img.layout, out.Scanline(x), img.height-y-1, c)
			}
		}
	default:
		return nil, errors.Errorf("raster: invalid rotation %d", angle)
	}
	return out, nil
}

// FlipHorizontal mirrors the image left-right in place.
func (img *Image) FlipHorizontal() error {
	if !img.IsValid() {
		return errors.New("raster: flip on invalid image")
	}
	bpp := img.layout.BitsPerPixel() / 8
	tmp := make([]byte, bpp)
	for y := 0; y < img.height; y++ {
		row := img.Scanline(y)
		for x := 0; x < img.width/2; x++ {
			a := row[x*bpp : x*bpp+bpp]
			b := row[(img.width-x-1)*bpp : (img.width-x-1)*bpp+bpp]
			copy(tmp, a)
			copy(a, b)
			copy(b, tmp)
		}
	}
	return nil
}

// FlipVertical mirrors the image top-bottom in place.
func (img *Image) FlipVertical() error {
	if !img.IsValid() {
		return errors.New("raster: flip on invalid image")
	}
	tmp := make([]byte, img.stride)
	for y := 0; y < img.height/2; y++ {
		a := img.Scanline(y)
		b := img.Scanline(img.height - y - 1)
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
	return nil
}

// PreMultiplyAlpha multiplies the color channels by alpha in linear space,
// round tripping through sRGB when needed. Layouts without an alpha channel
// are left untouched.
func (img *Image) PreMultiplyAlpha() error {
	if !img.IsValid() {
		return errors.New("raster: premultiply on invalid image")
	}

	switch img.layout {
	case RGBA8, RGBA16, RGBAF:
	default:
		// Mirrors the historical behavior: unsupported layouts succeed
		// without modification.
		return nil
	}

	srgb := img.space == colorspace.SRGB
	for y := 0; y < img.height; y++ {
		row := img.Scanline(y)
		for x := 0; x < img.width; x++ {
			c := getPixel(img.layout, row, x)
			if srgb {
				c.R = colorspace.SRGBToLinear(c.R)
				c.G = colorspace.SRGBToLinear(c.G)
				c.B = colorspace.SRGBToLinear(c.B)
			}
			c.R *= c.A
			c.G *= c.A
			c.B *= c.A
			if srgb {
				c.R = colorspace.LinearToSRGB(c.R)
				c.G = colorspace.LinearToSRGB(c.G)
				c.B = colorspace.LinearToSRGB(c.B)
			}
			setPixel(img.layout, row, x, c)
		}
	}
	return nil
}

// ChangeColorSpace applies the transfer curve to the color channels (not
// alpha) and updates the tag. A no-op when already in the target space.
func (img *Image) ChangeColorSpace(space colorspace.Space) error {
	if !img.IsValid() {
		return errors.New("raster: color space change on invalid image")
	}
	if space == img.space {
		return nil
	}

	transfer := colorspace.LinearToSRGB
	if space == colorspace.Linear {
		transfer = colorspace.SRGBToLinear
	}
	for y := 0; y < img.height; y++ {
		row := img.Scanline(y)
		for x := 0; x < img.width; x++ {
			c := getPixel(img.layout, row, x)
			c.R = transfer(c.R)
			c.G = transfer(c.G)
			c.B = transfer(c.B)
			setPixel(img.layout, row, x, c)
		}
	}
	img.space = space
	return nil
}

// Grayscale replaces the color channels with the Rec.709 luminance, computed
// in linear space.
func (img *Image) Grayscale() error {
	if !img.IsValid() {
		return errors.New("raster: grayscale on invalid image")
	}

	srgb := img.space == colorspace.SRGB
	for y := 0; y < img.height; y++ {
		row := img.Scanline(y)
		for x := 0; x < img.width; x++ {
			c := getPixel(img.layout, row, x)
			if srgb {
				c.R = colorspace.SRGBToLinear(c.R)
				c.G = colorspace.SRGBToLinear(c.G)
				c.B = colorspace.SRGBToLinear(c.B)
			}
			gray := colorspace.Grayscale(c.R, c.G, c.B)
			if srgb {
				gray = colorspace.LinearToSRGB(gray)
			}
			c.R, c.G, c.B = gray, gray, gray
			setPixel(img.layout, row, x, c)
		}
	}
	return nil
}

// Channel selects a source channel for Swizzle. ChannelNone maps to 0 for
// color channels and 1 for alpha.
type Channel int

const (
	ChannelR Channel = iota
	ChannelG
	ChannelB
	ChannelA
	ChannelNone
)

// ParseChannel maps an r/g/b/a/x selector character onto a channel.
func ParseChannel(c byte) (Channel, bool) {
	switch c {
	case 'r', 'R':
		return ChannelR, true
	case 'g', 'G':
		return ChannelG, true
	case 'b', 'B':
		return ChannelB, true
	case 'a', 'A':
		return ChannelA, true
	case 'x', 'X':
		return ChannelNone, true
	default:
		return ChannelNone, false
	}
}

func (c Color) channel(sel Channel) float64 {
	switch sel {
	case ChannelR:
		return c.R
	case ChannelG:
		return c.G
	case ChannelB:
		return c.B
	case ChannelA:
		return c.A
	default:
		return 0
	}
}

// Swizzle reorders the channels in place.
func (img *Image) Swizzle(red, green, blue, alpha Channel) error {
	if !img.IsValid() {
		return errors.New("raster: swizzle on invalid image")
	}

	for y := 0; y < img.height; y++ {
		row := img.Scanline(y)
		for x := 0; x < img.width; x++ {
			c := getPixel(img.layout, row, x)
			swzl := Color{
				R: c.channel(red),
				G: c.channel(green),
				B: c.channel(blue),
				A: 1,
			}
			if alpha != ChannelNone {
				swzl.A = c.channel(alpha)
			}
			setPixel(img.layout, row, x, swzl)
		}
	}
	return nil
}
